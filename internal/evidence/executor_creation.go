package evidence

import (
	"context"

	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// CreationData is the evidence payload for basescan_getContractCreation.
type CreationData struct {
	Found           bool   `json:"found"`
	DeployerAddress string `json:"deployerAddress,omitempty"`
	TxHash          string `json:"txHash,omitempty"`
}

type creationExecutor struct {
	explorer *providers.ExplorerClient
}

func NewCreationExecutor(explorer *providers.ExplorerClient) Executor {
	return &creationExecutor{explorer: explorer}
}

func (e *creationExecutor) Execute(ctx context.Context, tokenAddress string, _ *model.Ledger) model.EvidenceItem {
	creation := e.explorer.GetContractCreation(ctx, tokenAddress)
	if creation.Err != "" {
		item := unavailable(model.ToolBasescanCreation, creation.Err)
		item.SourceURL = creation.SourceURL
		return item
	}

	item := ok(model.ToolBasescanCreation, "Contract creation", CreationData{
		Found:           creation.Found,
		DeployerAddress: creation.DeployerAddress,
		TxHash:          creation.TxHash,
	})
	item.SourceURL = creation.SourceURL
	return item
}
