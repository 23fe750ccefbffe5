package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const rpcTimeout = 10 * time.Second

// RPCClient is a minimal JSON-RPC 2.0 client for the chain node, covering
// only the methods the scanner needs: eth_getCode and eth_call.
type RPCClient struct {
	baseURL string
}

func NewRPCClient(baseURL string) *RPCClient {
	return &RPCClient{baseURL: baseURL}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// RPCResult is the common envelope for chain RPC calls: Hex holds the
// 0x-prefixed hex result on success, Err is a human-readable message on
// failure, and SourceURL is always the endpoint attempted.
type RPCResult struct {
	Hex       string
	SourceURL string
	Err       string
}

func (c *RPCClient) call(ctx context.Context, method string, params []any) RPCResult {
	result := RPCResult{SourceURL: c.baseURL}

	body, status, err := doJSON(ctx, http.MethodPost, c.baseURL, nil, rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}, rpcTimeout)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	if status >= 300 {
		result.Err = fmt.Sprintf("chain RPC HTTP %d", status)
		return result
	}

	var parsed rpcResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		result.Err = fmt.Sprintf("decoding RPC response: %v", err)
		return result
	}
	if parsed.Error != nil {
		result.Err = fmt.Sprintf("Chain RPC error (%d): %s", parsed.Error.Code, parsed.Error.Message)
		return result
	}

	var hex string
	if err := json.Unmarshal(parsed.Result, &hex); err != nil {
		result.Err = fmt.Sprintf("decoding RPC result: %v", err)
		return result
	}
	result.Hex = hex
	return result
}

// GetCode calls eth_getCode against the latest block.
func (c *RPCClient) GetCode(ctx context.Context, address string) RPCResult {
	return c.call(ctx, "eth_getCode", []any{address, "latest"})
}

// Call performs eth_call with the given target and call data against the
// latest block.
func (c *RPCClient) Call(ctx context.Context, to, data string) RPCResult {
	return c.call(ctx, "eth_call", []any{map[string]string{"to": to, "data": data}, "latest"})
}
