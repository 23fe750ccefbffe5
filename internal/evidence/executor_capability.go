package evidence

import (
	"context"

	"github.com/baserisk/scanguard/internal/analyze"
	"github.com/baserisk/scanguard/internal/model"
)

// CapabilityScanData is the evidence payload for contract_capabilityScan.
type CapabilityScanData struct {
	analyze.Capabilities
}

type capabilityExecutor struct{}

func NewCapabilityExecutor() Executor {
	return &capabilityExecutor{}
}

func (e *capabilityExecutor) Execute(ctx context.Context, tokenAddress string, ledger *model.Ledger) model.EvidenceItem {
	sourceItem, found := ledger.ByTool(model.ToolBasescanSourceInfo)
	if !found || sourceItem.Status != model.EvidenceStatusOK {
		return unavailable(model.ToolCapabilityScan, "no verified source/ABI available to scan capabilities")
	}
	sourceData, isSourceData := sourceItem.Data.(SourceInfoData)
	if !isSourceData {
		return unavailable(model.ToolCapabilityScan, "no verified source/ABI available to scan capabilities")
	}

	caps := analyze.ScanCapabilities(sourceData.ABI, sourceData.IsProxy)
	return ok(model.ToolCapabilityScan, "Capability scan", CapabilityScanData{Capabilities: caps})
}
