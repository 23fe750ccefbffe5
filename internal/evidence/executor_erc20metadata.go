package evidence

import (
	"context"
	"sync"

	"github.com/baserisk/scanguard/internal/analyze"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// Erc20MetadataData is the evidence payload for rpc_getErc20Metadata.
type Erc20MetadataData struct {
	Name        string `json:"name,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	Decimals    *int   `json:"decimals,omitempty"`
	TotalSupply string `json:"totalSupply,omitempty"`
}

type erc20MetadataExecutor struct {
	rpc *providers.RPCClient
}

func NewErc20MetadataExecutor(rpc *providers.RPCClient) Executor {
	return &erc20MetadataExecutor{rpc: rpc}
}

// Execute fans out the four ERC-20 metadata calls concurrently and merges
// whichever succeed; a single call failing does not fail the others.
func (e *erc20MetadataExecutor) Execute(ctx context.Context, tokenAddress string, _ *model.Ledger) model.EvidenceItem {
	var wg sync.WaitGroup
	var nameRes, symbolRes, decimalsRes, supplyRes providers.RPCResult

	calls := []struct {
		selector string
		dest     *providers.RPCResult
	}{
		{analyze.SelectorName, &nameRes},
		{analyze.SelectorSymbol, &symbolRes},
		{analyze.SelectorDecimals, &decimalsRes},
		{analyze.SelectorTotalSupply, &supplyRes},
	}

	wg.Add(len(calls))
	for _, call := range calls {
		go func(selector string, dest *providers.RPCResult) {
			defer wg.Done()
			*dest = e.rpc.Call(ctx, tokenAddress, selector)
		}(call.selector, call.dest)
	}
	wg.Wait()

	data := Erc20MetadataData{}
	if nameRes.Err == "" {
		if name, err := analyze.DecodeABIString(nameRes.Hex); err == nil {
			data.Name = name
		}
	}
	if symbolRes.Err == "" {
		if symbol, err := analyze.DecodeABIString(symbolRes.Hex); err == nil {
			data.Symbol = symbol
		}
	}
	if decimalsRes.Err == "" {
		if v, err := analyze.HexToBigInt(decimalsRes.Hex); err == nil {
			d := int(v.Int64())
			data.Decimals = &d
		}
	}
	if supplyRes.Err == "" {
		if v, err := analyze.HexToBigInt(supplyRes.Hex); err == nil {
			data.TotalSupply = v.String()
		}
	}

	if data.Name == "" && data.Symbol == "" && data.Decimals == nil && data.TotalSupply == "" {
		item := unavailable(model.ToolRPCErc20Metadata, "all ERC-20 metadata calls failed")
		item.SourceURL = supplyRes.SourceURL
		return item
	}

	item := ok(model.ToolRPCErc20Metadata, "ERC-20 metadata", data)
	item.SourceURL = supplyRes.SourceURL
	return item
}
