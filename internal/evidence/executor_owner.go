package evidence

import (
	"context"

	"github.com/baserisk/scanguard/internal/analyze"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// OwnerStatusData is the evidence payload for contract_ownerStatus.
type OwnerStatusData struct {
	HasOwnerFunction bool    `json:"hasOwnerFunction"`
	Owner            *string `json:"owner,omitempty"`
	Renounced        bool    `json:"renounced"`
}

type ownerExecutor struct {
	rpc *providers.RPCClient
}

func NewOwnerExecutor(rpc *providers.RPCClient) Executor {
	return &ownerExecutor{rpc: rpc}
}

func (e *ownerExecutor) Execute(ctx context.Context, tokenAddress string, ledger *model.Ledger) model.EvidenceItem {
	sourceItem, found := ledger.ByTool(model.ToolBasescanSourceInfo)
	if !found || sourceItem.Status != model.EvidenceStatusOK {
		return unavailable(model.ToolContractOwnerStatus, "no verified source/ABI available to probe owner()")
	}
	sourceData, isSourceData := sourceItem.Data.(SourceInfoData)
	if !isSourceData {
		return unavailable(model.ToolContractOwnerStatus, "no verified source/ABI available to probe owner()")
	}

	hasOwnerFn := analyze.HasOwnerFunction(sourceData.ABI)
	if !hasOwnerFn {
		return ok(model.ToolContractOwnerStatus, "Owner status", OwnerStatusData{HasOwnerFunction: false})
	}

	result := e.rpc.Call(ctx, tokenAddress, analyze.SelectorOwner)
	if result.Err != "" {
		item := unavailable(model.ToolContractOwnerStatus, result.Err)
		item.SourceURL = result.SourceURL
		return item
	}

	status := analyze.DecodeOwnerStatus(hasOwnerFn, result.Hex)
	item := ok(model.ToolContractOwnerStatus, "Owner status", OwnerStatusData{
		HasOwnerFunction: status.HasOwnerFunction,
		Owner:            status.Owner,
		Renounced:        status.Renounced,
	})
	item.SourceURL = result.SourceURL
	return item
}
