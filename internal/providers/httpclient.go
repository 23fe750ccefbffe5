// Package providers holds typed adapters over the external collaborators a
// scan consults: chain JSON-RPC, block-explorer REST, a DEX aggregator REST
// API, a honeypot simulator REST API, and an indexed-holder GraphQL
// endpoint. Every client returns a result value instead of erroring on a
// non-2xx response or parse failure, always reports the exact URL it
// attempted, and never caches.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var sharedClient = &http.Client{}

func doJSON(ctx context.Context, method, url string, headers map[string]string, body any, timeout time.Duration) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := sharedClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}

	return data, resp.StatusCode, nil
}
