package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baserisk/scanguard/internal/config"
	"github.com/baserisk/scanguard/internal/model"
)

func toolNames(steps []model.PlannedStep) []model.ToolName {
	names := make([]model.ToolName, len(steps))
	for i, s := range steps {
		names[i] = s.Tool
	}
	return names
}

func TestAvailableTools_OmitsUnconfiguredGatedTools(t *testing.T) {
	cfg := config.Config{}
	tools := AvailableTools(cfg)

	assert.Equal(t, []model.ToolName{
		model.ToolRPCBytecode,
		model.ToolRPCErc20Metadata,
		model.ToolDexscreenerPairs,
		model.ToolHoneypotSimulation,
		model.ToolLPV2LockStatus,
	}, tools)
}

func TestAvailableTools_IncludesGatedToolsWhenConfigured(t *testing.T) {
	cfg := config.Config{
		ExplorerAPIKey: "key",
		HoldersToken:   "token",
		HoldersMode:    config.HoldersModeFast,
	}
	tools := AvailableTools(cfg)

	for _, tool := range []model.ToolName{
		model.ToolBasescanSourceInfo,
		model.ToolBasescanCreation,
		model.ToolContractOwnerStatus,
		model.ToolCapabilityScan,
		model.ToolHoldersTopHolders,
	} {
		assert.Contains(t, tools, tool)
	}
}

func TestMergePlan_UnconfiguredCfgOnlyBaselineSteps(t *testing.T) {
	cfg := config.Config{}
	planned := model.Plan{Steps: []model.PlannedStep{
		{Tool: model.ToolHoldersTopHolders, Title: "Top holders", Reason: "planner wants it"},
	}}

	merged := MergePlan(cfg, planned)

	require.Len(t, merged.Steps, 5, "expected 5 unconditional baseline steps, got %+v", merged.Steps)
	assert.NotContains(t, toolNames(merged.Steps), model.ToolHoldersTopHolders,
		"holders step should be dropped when holders is unconfigured")
}

func TestMergePlan_SkipsPlannerToolsAlreadyInBaseline(t *testing.T) {
	cfg := config.Config{}
	planned := model.Plan{Steps: []model.PlannedStep{
		{Tool: model.ToolRPCBytecode, Title: "duplicate of baseline", Reason: "should be skipped"},
		{Tool: model.ToolDexscreenerPairs, Title: "duplicate of baseline", Reason: "should be skipped"},
	}}

	merged := MergePlan(cfg, planned)

	count := 0
	for _, tool := range toolNames(merged.Steps) {
		if tool == model.ToolRPCBytecode {
			count++
		}
	}
	assert.Equal(t, 1, count, "expected rpc_getBytecode to appear exactly once")
}

func TestMergePlan_PreservesBaselineOrder(t *testing.T) {
	cfg := config.Config{ExplorerAPIKey: "key"}
	planned := model.Plan{}

	merged := MergePlan(cfg, planned)

	want := []model.ToolName{
		model.ToolRPCBytecode,
		model.ToolRPCErc20Metadata,
		model.ToolDexscreenerPairs,
		model.ToolHoneypotSimulation,
		model.ToolLPV2LockStatus,
		model.ToolBasescanSourceInfo,
		model.ToolBasescanCreation,
		model.ToolContractOwnerStatus,
		model.ToolCapabilityScan,
	}
	require.Equal(t, want, toolNames(merged.Steps))
}

func TestMergePlan_IdempotentOnAlreadyMergedPlan(t *testing.T) {
	cfg := config.Config{ExplorerAPIKey: "key", HoldersToken: "tok", HoldersMode: config.HoldersModeFast}
	planned := model.Plan{Steps: []model.PlannedStep{
		{Tool: model.ToolHoldersTopHolders, Title: "Top holders", Reason: "planner"},
	}}

	first := MergePlan(cfg, planned)
	second := MergePlan(cfg, first)

	require.Equal(t, toolNames(first.Steps), toolNames(second.Steps), "re-merge changed step order/contents")
}
