package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const explorerTimeout = 10 * time.Second

// ExplorerClient wraps the block-explorer v2 API (fixed chain id) for
// source/ABI lookup and contract-creation metadata.
type ExplorerClient struct {
	baseURL string
	apiKey  string
	chainID string
}

func NewExplorerClient(baseURL, apiKey, chainID string) *ExplorerClient {
	return &ExplorerClient{baseURL: baseURL, apiKey: apiKey, chainID: chainID}
}

type explorerEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type explorerSourceRow struct {
	SourceCode           string `json:"SourceCode"`
	ABI                  string `json:"ABI"`
	ContractName         string `json:"ContractName"`
	Proxy                string `json:"Proxy"`
	Implementation       string `json:"Implementation"`
	CompilerVersion      string `json:"CompilerVersion"`
}

// SourceInfo is the evidence-shaped result of a source-info lookup.
type SourceInfo struct {
	Found           bool
	ContractName    string
	ABI             string
	IsProxy         bool
	Implementation  string
	CompilerVersion string
	SourceURL       string
	Err             string
}

func (c *ExplorerClient) endpoint(params url.Values) string {
	params.Set("chainid", c.chainID)
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	return c.baseURL + "?" + params.Encode()
}

func (c *ExplorerClient) GetSourceInfo(ctx context.Context, address string) SourceInfo {
	params := url.Values{
		"module":  {"contract"},
		"action":  {"getsourcecode"},
		"address": {address},
	}
	endpoint := c.endpoint(params)
	info := SourceInfo{SourceURL: endpoint}

	body, status, err := doJSON(ctx, http.MethodGet, endpoint, nil, nil, explorerTimeout)
	if err != nil {
		info.Err = err.Error()
		return info
	}
	if status >= 300 {
		info.Err = fmt.Sprintf("explorer HTTP %d", status)
		return info
	}

	var env explorerEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		info.Err = fmt.Sprintf("decoding explorer response: %v", err)
		return info
	}
	if env.Status == "0" {
		var message string
		if json.Unmarshal(env.Result, &message) != nil {
			message = env.Message
		}
		info.Err = message
		return info
	}

	var rows []explorerSourceRow
	if err := json.Unmarshal(env.Result, &rows); err != nil || len(rows) == 0 {
		info.Err = "explorer returned no source rows"
		return info
	}

	row := rows[0]
	info.Found = row.SourceCode != ""
	info.ContractName = row.ContractName
	info.ABI = row.ABI
	info.CompilerVersion = row.CompilerVersion
	info.Implementation = strings.ToLower(row.Implementation)
	info.IsProxy = row.Proxy == "1"
	return info
}

type explorerCreationRow struct {
	ContractAddress string `json:"contractAddress"`
	ContractCreator string `json:"contractCreator"`
	TxHash          string `json:"txHash"`
}

// ContractCreation is the deployer + creation tx for a contract.
type ContractCreation struct {
	Found           bool
	DeployerAddress string
	TxHash          string
	SourceURL       string
	Err             string
}

func (c *ExplorerClient) GetContractCreation(ctx context.Context, address string) ContractCreation {
	params := url.Values{
		"module":            {"contract"},
		"action":            {"getcontractcreation"},
		"contractaddresses": {address},
	}
	endpoint := c.endpoint(params)
	result := ContractCreation{SourceURL: endpoint}

	body, status, err := doJSON(ctx, http.MethodGet, endpoint, nil, nil, explorerTimeout)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	if status >= 300 {
		result.Err = fmt.Sprintf("explorer HTTP %d", status)
		return result
	}

	var env explorerEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		result.Err = fmt.Sprintf("decoding explorer response: %v", err)
		return result
	}
	if env.Status == "0" {
		var message string
		if json.Unmarshal(env.Result, &message) != nil {
			message = env.Message
		}
		result.Err = message
		return result
	}

	var rows []explorerCreationRow
	if err := json.Unmarshal(env.Result, &rows); err != nil || len(rows) == 0 {
		result.Err = "explorer returned no creation rows"
		return result
	}

	result.Found = true
	result.DeployerAddress = strings.ToLower(rows[0].ContractCreator)
	result.TxHash = rows[0].TxHash
	return result
}
