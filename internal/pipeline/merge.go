package pipeline

import (
	"fmt"

	"github.com/baserisk/scanguard/internal/config"
	"github.com/baserisk/scanguard/internal/model"
)

// baselineStep describes one unconditional or conditional entry in the
// baseline plan, in the fixed order the runner must preserve.
type baselineStep struct {
	Tool      model.ToolName
	Title     string
	Reason    string
	Condition func(cfg config.Config) bool
}

// baseline is evaluated in order; every step whose Condition passes (or is
// nil) is appended to the merged plan before any planner-proposed step.
var baseline = []baselineStep{
	{model.ToolRPCBytecode, "Bytecode presence", "Confirm the address is a deployed contract before investigating further."},
	{model.ToolRPCErc20Metadata, "ERC-20 metadata", "Establish token identity and total supply."},
	{model.ToolDexscreenerPairs, "DEX trading pairs", "Locate the primary liquidity pair and its size."},
	{model.ToolHoneypotSimulation, "Honeypot simulation", "Detect buy/sell blocking and transfer taxes."},
	{model.ToolLPV2LockStatus, "LP lock status", "Infer whether liquidity is burned, deployer-held, or unknown."},
	{model.ToolBasescanSourceInfo, "Verified source and ABI", "Obtain ABI for capability and owner probes.", func(cfg config.Config) bool { return cfg.ExplorerConfigured() }},
	{model.ToolBasescanCreation, "Contract creation", "Identify the deployer address for LP-lock and ownership context.", func(cfg config.Config) bool { return cfg.ExplorerConfigured() }},
	{model.ToolContractOwnerStatus, "Owner status", "Determine whether ownership has been renounced.", func(cfg config.Config) bool { return cfg.ExplorerConfigured() }},
	{model.ToolCapabilityScan, "Capability scan", "Flag mint/pause/blacklist/fee/trading-toggle capabilities.", func(cfg config.Config) bool { return cfg.ExplorerConfigured() }},
	{model.ToolHoldersTopHolders, "Top holders", "Compute holder concentration.", func(cfg config.Config) bool { return cfg.HoldersConfigured() }},
}

// AvailableTools reports the closed tool set usable given current
// configuration, in baseline order. This is both the planner's allowed enum
// and the registry's filter.
func AvailableTools(cfg config.Config) []model.ToolName {
	tools := make([]model.ToolName, 0, len(baseline))
	for _, step := range baseline {
		if step.Condition == nil || step.Condition(cfg) {
			tools = append(tools, step.Tool)
		}
	}
	return tools
}

// MergePlan builds the baseline-first plan: the unconditional baseline
// steps, then configuration-gated baseline steps, then any planner-proposed
// tool not already present (preserving the planner's relative order among
// those additions), restricted to tools available given cfg. Merging a plan
// with itself (or with an empty planner plan) is idempotent: re-running the
// merge over an already-merged plan's steps yields the same steps in the
// same order, since every baseline tool is already present and no new
// planner tool remains to append.
func MergePlan(cfg config.Config, planned model.Plan) model.Plan {
	available := make(map[model.ToolName]bool)
	for _, t := range AvailableTools(cfg) {
		available[t] = true
	}

	merged := model.Plan{Fallback: planned.Fallback}
	present := make(map[model.ToolName]bool)

	for _, step := range baseline {
		if step.Condition != nil && !step.Condition(cfg) {
			continue
		}
		merged.Steps = append(merged.Steps, model.PlannedStep{
			StepKey: stepKey(step.Tool),
			Tool:    step.Tool,
			Title:   step.Title,
			Reason:  step.Reason,
		})
		present[step.Tool] = true
	}

	for _, step := range planned.Steps {
		if present[step.Tool] || !available[step.Tool] {
			continue
		}
		merged.Steps = append(merged.Steps, model.PlannedStep{
			StepKey: stepKey(step.Tool),
			Tool:    step.Tool,
			Title:   step.Title,
			Reason:  step.Reason,
		})
		present[step.Tool] = true
	}

	return merged
}

func stepKey(tool model.ToolName) string {
	return fmt.Sprintf("step_%s", tool)
}
