package llmbridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/baserisk/scanguard/internal/model"
)

var toolCatalog = []struct {
	Tool        model.ToolName
	Description string
}{
	{model.ToolRPCBytecode, "Fetch on-chain bytecode presence via eth_getCode."},
	{model.ToolRPCErc20Metadata, "Fetch ERC-20 name/symbol/decimals/totalSupply via RPC calls."},
	{model.ToolBasescanSourceInfo, "Fetch verified source code and ABI from the block explorer."},
	{model.ToolBasescanCreation, "Fetch the contract creation transaction and deployer address."},
	{model.ToolDexscreenerPairs, "Fetch DEX trading pairs and liquidity from the DEX aggregator."},
	{model.ToolHoneypotSimulation, "Simulate a buy/sell to detect honeypot behavior and taxes."},
	{model.ToolLPV2LockStatus, "Infer whether the V2-style LP pair tokens are burned or held by the deployer."},
	{model.ToolContractOwnerStatus, "Probe owner() and determine whether ownership has been renounced."},
	{model.ToolCapabilityScan, "Scan the ABI for mint/pause/blacklist/fee/trading-toggle capabilities."},
	{model.ToolHoldersTopHolders, "Fetch the top token holders and their supply share from an indexed dataset."},
}

type plannerStepOutput struct {
	Tool   string `json:"tool"`
	Reason string `json:"reason"`
}

type plannerOutput struct {
	Steps []plannerStepOutput `json:"steps"`
}

// plannerSchema builds a strict JSON schema whose "tool" enum is restricted
// to the tools actually available given current provider configuration.
func plannerSchema(availableTools []model.ToolName) map[string]any {
	enum := make([]string, len(availableTools))
	for i, t := range availableTools {
		enum[i] = string(t)
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"steps": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"tool":   map[string]any{"type": "string", "enum": enum},
						"reason": map[string]any{"type": "string"},
					},
					"required":             []string{"tool", "reason"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"steps"},
		"additionalProperties": false,
	}
}

func plannerPrompt(availableTools []model.ToolName) (string, string) {
	available := make(map[model.ToolName]bool, len(availableTools))
	for _, t := range availableTools {
		available[t] = true
	}

	var catalog strings.Builder
	for _, entry := range toolCatalog {
		if !available[entry.Tool] {
			continue
		}
		fmt.Fprintf(&catalog, "- %s: %s\n", entry.Tool, entry.Description)
	}

	system := "You are a risk-scanning planner for on-chain fungible tokens. " +
		"Propose an ordered investigation plan drawn only from the available tools below. " +
		"Every step must name one available tool and a short, specific reason. " +
		"Do not invent tools outside this list.\n\nAvailable tools:\n" + catalog.String()

	return system, "Plan the investigation."
}

// Plan asks the LLM for an ordered, reasoned tool plan restricted to
// availableTools. It tries the primary model, then the fallback model once
// on a "no output generated" failure when a fallback client with a different
// model is configured. A non-nil error means no usable plan was produced
// (every attempted call failed, or the plan had zero steps) and the caller
// should proceed with the baseline plan alone.
func (b *Bridge) Plan(ctx context.Context, availableTools []model.ToolName) (model.Plan, error) {
	system, user := plannerPrompt(availableTools)
	schema := plannerSchema(availableTools)

	req := Request{
		SystemPrompt: system,
		UserPrompt:   user,
		SchemaName:   "investigation_plan",
		Schema:       schema,
		Temperature:  Temp(0),
	}

	var out plannerOutput
	err := b.primary.Chat(ctx, req, &out)
	if err != nil && IsNoOutput(err) && b.fallback != nil && b.fallback.Model() != b.primary.Model() {
		err = b.fallback.Chat(ctx, req, &out)
	}
	if err != nil {
		return model.Plan{}, err
	}
	if len(out.Steps) == 0 {
		return model.Plan{}, &ErrNoOutput{Cause: fmt.Errorf("planner returned zero steps")}
	}

	plan := model.Plan{Steps: make([]model.PlannedStep, 0, len(out.Steps))}
	for i, step := range out.Steps {
		tool := model.ToolName(step.Tool)
		plan.Steps = append(plan.Steps, model.PlannedStep{
			StepKey: fmt.Sprintf("planner_%d_%s", i, tool),
			Tool:    tool,
			Title:   string(tool),
			Reason:  step.Reason,
		})
	}

	return plan, nil
}
