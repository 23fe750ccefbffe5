package evidence

import (
	"context"

	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// SourceInfoData is the evidence payload for basescan_getSourceInfo.
type SourceInfoData struct {
	Found           bool   `json:"found"`
	ContractName    string `json:"contractName,omitempty"`
	ABI             string `json:"abi,omitempty"`
	IsProxy         bool   `json:"isProxy"`
	Implementation  string `json:"implementation,omitempty"`
	CompilerVersion string `json:"compilerVersion,omitempty"`
}

type sourceInfoExecutor struct {
	explorer *providers.ExplorerClient
}

func NewSourceInfoExecutor(explorer *providers.ExplorerClient) Executor {
	return &sourceInfoExecutor{explorer: explorer}
}

func (e *sourceInfoExecutor) Execute(ctx context.Context, tokenAddress string, _ *model.Ledger) model.EvidenceItem {
	info := e.explorer.GetSourceInfo(ctx, tokenAddress)
	if info.Err != "" {
		item := unavailable(model.ToolBasescanSourceInfo, info.Err)
		item.SourceURL = info.SourceURL
		return item
	}

	item := ok(model.ToolBasescanSourceInfo, "Verified source and ABI", SourceInfoData{
		Found:           info.Found,
		ContractName:    info.ContractName,
		ABI:             info.ABI,
		IsProxy:         info.IsProxy,
		Implementation:  info.Implementation,
		CompilerVersion: info.CompilerVersion,
	})
	item.SourceURL = info.SourceURL
	return item
}
