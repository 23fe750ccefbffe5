package evidence

import (
	"context"

	"github.com/baserisk/scanguard/internal/analyze"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// HoldersData is the evidence payload for holders_getTopHolders.
type HoldersData struct {
	FetchMethod string                `json:"fetchMethod,omitempty"`
	DateUsed    int                   `json:"dateUsed,omitempty"`
	Shares      []analyze.HolderShare `json:"shares"`
	Top5Pct     *string               `json:"top5Pct,omitempty"`
	Top10Pct    *string               `json:"top10Pct,omitempty"`
}

type holdersExecutor struct {
	client  *providers.HoldersClient
	limit   int
	minRows int
	mode    string
}

func NewHoldersExecutor(client *providers.HoldersClient, limit, minRows int, mode string) Executor {
	return &holdersExecutor{client: client, limit: limit, minRows: minRows, mode: mode}
}

func (e *holdersExecutor) Execute(ctx context.Context, tokenAddress string, ledger *model.Ledger) model.EvidenceItem {
	result := e.client.GetTopHolders(ctx, tokenAddress, e.limit, e.minRows, e.mode)
	if result.Err != "" {
		item := unavailable(model.ToolHoldersTopHolders, result.Err)
		item.SourceURL = result.SourceURL
		return item
	}

	holders := make([]analyze.HolderAmount, len(result.Rows))
	for i, row := range result.Rows {
		holders[i] = analyze.HolderAmount{Address: row.Address, RawAmount: row.Balance}
	}

	var totalSupply *string
	var decimals *int
	if metaItem, found := ledger.ByTool(model.ToolRPCErc20Metadata); found && metaItem.Status == model.EvidenceStatusOK {
		if metaData, isMetaData := metaItem.Data.(Erc20MetadataData); isMetaData {
			if metaData.TotalSupply != "" {
				totalSupply = &metaData.TotalSupply
			}
			decimals = metaData.Decimals
		}
	}

	analysis := analyze.ComputeHolderShares(totalSupply, decimals, result.FetchMethod, holders)

	item := ok(model.ToolHoldersTopHolders, "Top holders", HoldersData{
		FetchMethod: result.FetchMethod,
		DateUsed:    result.DateUsed,
		Shares:      analysis.Shares,
		Top5Pct:     analysis.Top5Pct,
		Top10Pct:    analysis.Top10Pct,
	})
	item.SourceURL = result.SourceURL
	return item
}
