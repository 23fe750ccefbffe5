package evidence

import (
	"context"

	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// DexPairsData is the evidence payload for dexscreener_getPairs.
type DexPairsData struct {
	Pairs        []providers.Pair `json:"pairs"`
	BestPairAddr string           `json:"bestPairAddress,omitempty"`
}

type dexExecutor struct {
	dex     *providers.DexClient
	network string
}

func NewDexExecutor(dex *providers.DexClient, network string) Executor {
	return &dexExecutor{dex: dex, network: network}
}

func (e *dexExecutor) Execute(ctx context.Context, tokenAddress string, _ *model.Ledger) model.EvidenceItem {
	result := e.dex.GetPairs(ctx, e.network, tokenAddress)
	if result.Err != "" {
		item := unavailable(model.ToolDexscreenerPairs, result.Err)
		item.SourceURL = result.SourceURL
		return item
	}

	data := DexPairsData{Pairs: result.Pairs}
	if best, ok := result.BestPair(); ok {
		data.BestPairAddr = best.PairAddress
	}

	item := ok(model.ToolDexscreenerPairs, "DEX trading pairs", data)
	item.SourceURL = result.SourceURL
	return item
}
