package llmbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/obslog"
)

const (
	compactMaxDepth    = 2
	compactMaxString   = 200
	compactMaxChildren = 8
)

func assessorSchema() map[string]any {
	categoryScore := map[string]any{"type": "integer", "minimum": 0, "maximum": 100}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":      map[string]any{"type": "string"},
			"overallScore": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"riskLevel":    map[string]any{"type": "string", "enum": []string{"low", "medium", "high", "critical"}},
			"confidence":   map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
			"categoryScores": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"liquidity":   categoryScore,
					"ownership":   categoryScore,
					"contract":    categoryScore,
					"tradingRisk": categoryScore,
					"holders":     categoryScore,
				},
				"required":             []string{"liquidity", "ownership", "contract", "tradingRisk", "holders"},
				"additionalProperties": false,
			},
			"reasons": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":        map[string]any{"type": "string"},
						"detail":       map[string]any{"type": "string"},
						"evidenceRefs": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
					"required":             []string{"title", "detail", "evidenceRefs"},
					"additionalProperties": false,
				},
			},
			"missingData": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required":             []string{"summary", "overallScore", "riskLevel", "confidence", "categoryScores", "reasons", "missingData"},
		"additionalProperties": false,
	}
}

func assessorPrompt(tokenAddress string, payload string) (string, string) {
	system := "You are a risk assessor for on-chain fungible tokens. " +
		"You are given the complete evidence ledger collected for one token. " +
		"Score the five risk categories, give an overall score and risk level, and " +
		"write reasons that cite the specific evidence item ids (evidenceRefs) backing them. " +
		"Never state a fact that is not supported by the evidence; if data is missing, say so in missingData."
	user := fmt.Sprintf("Token address: %s\n\nEvidence ledger (JSON):\n%s", tokenAddress, payload)
	return system, user
}

// Assess tries (primary,full), (primary,compact), (fallback,full), (fallback,compact)
// in order, advancing whenever a call fails with a "no output generated"
// error or its output fails citation validation; any other call error is
// returned at once. The fallback pair is tried only when a fallback client
// with a different model is configured. modelID reports which model
// produced the returned assessment, empty if none did.
func (b *Bridge) Assess(ctx context.Context, tokenAddress string, ledger *model.Ledger) (model.Assessment, string, error) {
	full, compact, err := evidencePayloads(ledger)
	if err != nil {
		return model.Assessment{}, "", fmt.Errorf("no output generated: encoding evidence ledger: %w", err)
	}

	attempts := []struct {
		client  Client
		payload string
	}{
		{b.primary, full},
		{b.primary, compact},
	}
	if b.fallback != nil && b.fallback.Model() != b.primary.Model() {
		attempts = append(attempts,
			struct {
				client  Client
				payload string
			}{b.fallback, full},
			struct {
				client  Client
				payload string
			}{b.fallback, compact},
		)
	}

	var lastErr error
	for _, attempt := range attempts {
		system, user := assessorPrompt(tokenAddress, attempt.payload)
		var assessment model.Assessment
		if err := attempt.client.Chat(ctx, Request{
			SystemPrompt: system,
			UserPrompt:   user,
			SchemaName:   "risk_assessment",
			Schema:       assessorSchema(),
			Temperature:  Temp(0),
		}, &assessment); err != nil {
			if !IsNoOutput(err) {
				return model.Assessment{}, "", err
			}
			lastErr = err
			continue
		}

		hydrateEmptyCitations(&assessment, ledger)
		if err := validateCitations(assessment, ledger); err != nil {
			lastErr = err
			continue
		}

		return assessment, attempt.client.Model(), nil
	}

	return model.Assessment{}, "", lastErr
}

func evidencePayloads(ledger *model.Ledger) (full string, compact string, err error) {
	fullBytes, err := json.Marshal(ledger.Items)
	if err != nil {
		return "", "", err
	}

	var generic any
	if err := json.Unmarshal(fullBytes, &generic); err != nil {
		return "", "", err
	}
	compactValue := compactJSON(generic, 0)
	compactBytes, err := json.Marshal(compactValue)
	if err != nil {
		return "", "", err
	}

	return string(fullBytes), string(compactBytes), nil
}

func compactJSON(v any, depth int) any {
	switch t := v.(type) {
	case string:
		if len(t) <= compactMaxString {
			return t
		}
		return obslog.Truncate(t, compactMaxString-len("..."))
	case []any:
		if depth >= compactMaxDepth {
			return "[...]"
		}
		items := t
		truncated := false
		if len(items) > compactMaxChildren {
			items = items[:compactMaxChildren]
			truncated = true
		}
		out := make([]any, 0, len(items)+1)
		for _, e := range items {
			out = append(out, compactJSON(e, depth+1))
		}
		if truncated {
			out = append(out, "...")
		}
		return out
	case map[string]any:
		if depth >= compactMaxDepth {
			return "{...}"
		}
		out := make(map[string]any, len(t))
		count := 0
		for k, val := range t {
			if count >= compactMaxChildren {
				out["_truncated"] = true
				break
			}
			out[k] = compactJSON(val, depth+1)
			count++
		}
		return out
	default:
		return v
	}
}

// hydrateEmptyCitations fills an empty evidenceRefs with the full set of
// ledger ids, per the "hydrate before validation" rule.
func hydrateEmptyCitations(assessment *model.Assessment, ledger *model.Ledger) {
	if len(assessment.Reasons) == 0 {
		return
	}
	all := make([]string, 0, len(ledger.Items))
	for _, item := range ledger.Items {
		all = append(all, item.ID)
	}
	for i := range assessment.Reasons {
		if len(assessment.Reasons[i].EvidenceRefs) == 0 {
			assessment.Reasons[i].EvidenceRefs = all
		}
	}
}

func validateCitations(assessment model.Assessment, ledger *model.Ledger) error {
	if len(assessment.Reasons) == 0 {
		return fmt.Errorf("citation validation: zero reasons")
	}

	ids := ledger.IDs()
	for _, reason := range assessment.Reasons {
		if strings.TrimSpace(reason.Title) == "" {
			return fmt.Errorf("citation validation: reason has whitespace-only title")
		}
		if strings.TrimSpace(reason.Detail) == "" {
			return fmt.Errorf("citation validation: reason has whitespace-only detail")
		}
		for _, ref := range reason.EvidenceRefs {
			if _, ok := ids[ref]; !ok {
				return fmt.Errorf("citation validation: evidenceRef %q does not resolve to any ledger item", ref)
			}
		}
	}

	return nil
}

// FallbackAssessment is the deterministic low-confidence assessment used
// when every (model, payload) attempt in Assess fails.
func FallbackAssessment(ledger *model.Ledger) model.Assessment {
	all := make([]string, 0, len(ledger.Items))
	var unavailableTools []string
	for _, item := range ledger.Items {
		all = append(all, item.ID)
		if item.Status == model.EvidenceStatusUnavailable {
			unavailableTools = append(unavailableTools, string(item.Tool))
		}
	}

	missingData := []string{"AI assessment output could not be generated"}
	if len(unavailableTools) > 0 {
		missingData = append(missingData, fmt.Sprintf("evidence unavailable for: %s", strings.Join(unavailableTools, ", ")))
	}

	return model.Assessment{
		Summary:    "Automated AI assessment was unavailable for this scan; the result below reflects a conservative, evidence-only placeholder rather than a model-generated judgment.",
		OverallScore: 55,
		RiskLevel:  model.RiskLevelMedium,
		Confidence: model.ConfidenceLow,
		CategoryScores: model.CategoryScores{
			Liquidity:   50,
			Ownership:   55,
			Contract:    55,
			TradingRisk: 60,
			Holders:     60,
		},
		Reasons: []model.Reason{
			{
				Title:        "AI assessment unavailable",
				Detail:       "The planner/assessor LLM bridge did not return usable output for this scan, so category scores reflect a fixed conservative baseline rather than an evidence-weighted judgment.",
				EvidenceRefs: all,
			},
			{
				Title:        "Review raw evidence directly",
				Detail:       "All collected evidence items for this scan are available in the ledger below; review them directly rather than relying on the fixed scores above.",
				EvidenceRefs: all,
			},
		},
		MissingData: missingData,
	}
}
