package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const honeypotTimeout = 12 * time.Second

// HoneypotClient wraps a honeypot-simulation REST endpoint.
type HoneypotClient struct {
	baseURL string
	apiKey  string
}

func NewHoneypotClient(baseURL, apiKey string) *HoneypotClient {
	return &HoneypotClient{baseURL: baseURL, apiKey: apiKey}
}

type honeypotEnvelope struct {
	Honeypot struct {
		IsHoneypot bool   `json:"isHoneypot"`
		Reason     string `json:"honeypotReason"`
	} `json:"honeypotResult"`
	Simulation struct {
		Success   bool    `json:"success"`
		BuyTax    float64 `json:"buyTax"`
		SellTax   float64 `json:"sellTax"`
		TransferTax float64 `json:"transferTax"`
		BuyGas    int64   `json:"buyGas"`
		SellGas   int64   `json:"sellGas"`
	} `json:"simulationResult"`
	Pair struct {
		Pair struct {
			Address string `json:"address"`
		} `json:"pair"`
		Router string `json:"router"`
	} `json:"pair"`
}

// SimulationResult is the outcome of a honeypot simulation check.
type SimulationResult struct {
	SimulationSucceeded bool
	IsHoneypot          bool
	HoneypotReason      string
	BuyTaxPct           float64
	SellTaxPct          float64
	TransferTaxPct      float64
	BuyGasEstimate      int64
	SellGasEstimate     int64
	PairAddress         string
	Router              string
	SourceURL           string
	Err                 string
}

func (c *HoneypotClient) Simulate(ctx context.Context, address string) SimulationResult {
	params := url.Values{"address": {address}}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	endpoint := c.baseURL + "/IsHoneypot?" + params.Encode()
	result := SimulationResult{SourceURL: endpoint}

	body, status, err := doJSON(ctx, http.MethodGet, endpoint, nil, nil, honeypotTimeout)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	if status >= 300 {
		result.Err = fmt.Sprintf("honeypot simulator HTTP %d", status)
		return result
	}

	var env honeypotEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		result.Err = fmt.Sprintf("decoding honeypot response: %v", err)
		return result
	}

	result.SimulationSucceeded = env.Simulation.Success
	result.IsHoneypot = env.Honeypot.IsHoneypot
	result.HoneypotReason = env.Honeypot.Reason
	result.BuyTaxPct = env.Simulation.BuyTax
	result.SellTaxPct = env.Simulation.SellTax
	result.TransferTaxPct = env.Simulation.TransferTax
	result.BuyGasEstimate = env.Simulation.BuyGas
	result.SellGasEstimate = env.Simulation.SellGas
	result.PairAddress = env.Pair.Pair.Address
	result.Router = env.Pair.Router
	return result
}
