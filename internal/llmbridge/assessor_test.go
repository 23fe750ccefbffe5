package llmbridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/baserisk/scanguard/internal/model"
)

func ledgerWith(ids ...string) *model.Ledger {
	ledger := &model.Ledger{}
	for _, id := range ids {
		ledger.Append(model.EvidenceItem{ID: id, Tool: model.ToolName("tool_" + id), Status: model.EvidenceStatusOK})
	}
	return ledger
}

func TestValidateCitations_RejectsZeroReasons(t *testing.T) {
	ledger := ledgerWith("ev_a")
	assessment := model.Assessment{Reasons: nil}

	if err := validateCitations(assessment, ledger); err == nil {
		t.Fatal("expected error for zero reasons, got nil")
	}
}

func TestValidateCitations_RejectsWhitespaceTitle(t *testing.T) {
	ledger := ledgerWith("ev_a")
	assessment := model.Assessment{
		Reasons: []model.Reason{{Title: "   ", Detail: "detail", EvidenceRefs: []string{"ev_a"}}},
	}

	if err := validateCitations(assessment, ledger); err == nil {
		t.Fatal("expected error for whitespace-only title, got nil")
	}
}

func TestValidateCitations_RejectsUnresolvedRef(t *testing.T) {
	ledger := ledgerWith("ev_a")
	assessment := model.Assessment{
		Reasons: []model.Reason{{Title: "t", Detail: "d", EvidenceRefs: []string{"ev_missing"}}},
	}

	if err := validateCitations(assessment, ledger); err == nil {
		t.Fatal("expected error for unresolved evidenceRef, got nil")
	}
}

func TestValidateCitations_AcceptsResolvedRefs(t *testing.T) {
	ledger := ledgerWith("ev_a", "ev_b")
	assessment := model.Assessment{
		Reasons: []model.Reason{{Title: "t", Detail: "d", EvidenceRefs: []string{"ev_a", "ev_b"}}},
	}

	if err := validateCitations(assessment, ledger); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestHydrateEmptyCitations_FillsFullIDSet(t *testing.T) {
	ledger := ledgerWith("ev_a", "ev_b", "ev_c")
	assessment := model.Assessment{
		Reasons: []model.Reason{
			{Title: "t1", Detail: "d1", EvidenceRefs: nil},
			{Title: "t2", Detail: "d2", EvidenceRefs: []string{"ev_a"}},
		},
	}

	hydrateEmptyCitations(&assessment, ledger)

	if len(assessment.Reasons[0].EvidenceRefs) != 3 {
		t.Fatalf("expected hydrated reason to cite all 3 ids, got %d", len(assessment.Reasons[0].EvidenceRefs))
	}
	if len(assessment.Reasons[1].EvidenceRefs) != 1 {
		t.Fatalf("expected non-empty reason to stay untouched, got %d refs", len(assessment.Reasons[1].EvidenceRefs))
	}
}

func TestFallbackAssessment_FixedScoresAndCitesEverything(t *testing.T) {
	ledger := ledgerWith("ev_a", "ev_b")
	ledger.Items[1].Status = model.EvidenceStatusUnavailable

	assessment := FallbackAssessment(ledger)

	if assessment.OverallScore != 55 {
		t.Errorf("OverallScore = %d, want 55", assessment.OverallScore)
	}
	if assessment.RiskLevel != model.RiskLevelMedium {
		t.Errorf("RiskLevel = %s, want medium", assessment.RiskLevel)
	}
	if assessment.Confidence != model.ConfidenceLow {
		t.Errorf("Confidence = %s, want low", assessment.Confidence)
	}
	want := model.CategoryScores{Liquidity: 50, Ownership: 55, Contract: 55, TradingRisk: 60, Holders: 60}
	if assessment.CategoryScores != want {
		t.Errorf("CategoryScores = %+v, want %+v", assessment.CategoryScores, want)
	}
	if len(assessment.Reasons) != 2 {
		t.Fatalf("expected 2 reasons, got %d", len(assessment.Reasons))
	}
	for _, r := range assessment.Reasons {
		if len(r.EvidenceRefs) != 2 {
			t.Errorf("reason %q cites %d refs, want 2 (entire ledger)", r.Title, len(r.EvidenceRefs))
		}
	}
	if err := validateCitations(assessment, ledger); err != nil {
		t.Errorf("fallback assessment fails its own citation validation: %v", err)
	}

	foundUnavailableNote := false
	for _, m := range assessment.MissingData {
		if strings.Contains(m, "tool_ev_b") {
			foundUnavailableNote = true
		}
	}
	if !foundUnavailableNote {
		t.Errorf("missingData = %v, expected a note about the unavailable tool", assessment.MissingData)
	}
}

func validAssessment(ledger *model.Ledger) model.Assessment {
	ids := make([]string, 0, len(ledger.Items))
	for _, item := range ledger.Items {
		ids = append(ids, item.ID)
	}
	return model.Assessment{
		Summary:    "ok",
		RiskLevel:  model.RiskLevelLow,
		Confidence: model.ConfidenceHigh,
		Reasons:    []model.Reason{{Title: "t", Detail: "d", EvidenceRefs: ids}},
	}
}

func TestAssess_AdvancesAttemptOnlyOnNoOutput(t *testing.T) {
	ledger := ledgerWith("ev_a")
	want := validAssessment(ledger)

	calls := 0
	primary := &mockClient{model: "primary", chatFn: func(ctx context.Context, req Request, result any) error {
		calls++
		if calls == 1 {
			return &ErrNoOutput{Cause: errors.New("empty choices")}
		}
		*(result.(*model.Assessment)) = want
		return nil
	}}
	b := &Bridge{primary: primary}

	got, modelID, err := b.Assess(context.Background(), "0xabc", ledger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modelID != "primary" {
		t.Errorf("modelID = %q, want primary", modelID)
	}
	if got.Summary != "ok" {
		t.Errorf("expected the second attempt's assessment to be returned, got %+v", got)
	}
	if primary.callCnt != 2 {
		t.Fatalf("expected exactly 2 attempts (full, then compact), got %d", primary.callCnt)
	}
}

func TestAssess_StopsImmediatelyOnTransportError(t *testing.T) {
	ledger := ledgerWith("ev_a")
	transportErr := errors.New("connection refused")

	primary := &mockClient{model: "primary", chatFn: func(ctx context.Context, req Request, result any) error {
		return transportErr
	}}
	b := &Bridge{primary: primary}

	_, _, err := b.Assess(context.Background(), "0xabc", ledger)
	if !errors.Is(err, transportErr) {
		t.Fatalf("expected the transport error to propagate unchanged, got %v", err)
	}
	if primary.callCnt != 1 {
		t.Fatalf("expected a single attempt before giving up on a non-no-output error, got %d", primary.callCnt)
	}
}

func TestCompactJSON_TruncatesStringsAndDepth(t *testing.T) {
	longString := strings.Repeat("x", compactMaxString+50)
	nested := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{
				"level3": "should be collapsed",
			},
		},
		"text": longString,
	}

	result := compactJSON(nested, 0).(map[string]any)

	text, ok := result["text"].(string)
	if !ok || len(text) > compactMaxString {
		t.Errorf("text not truncated to %d chars: %q", compactMaxString, text)
	}

	level1, ok := result["level1"].(map[string]any)
	if !ok {
		t.Fatalf("level1 missing or wrong type: %#v", result["level1"])
	}
	level2, ok := level1["level2"].(string)
	if !ok || level2 != "{...}" {
		t.Errorf("expected depth-2 collapse to \"{...}\", got %#v", level1["level2"])
	}
}

func TestCompactJSON_CapsArrayChildren(t *testing.T) {
	items := make([]any, compactMaxChildren+5)
	for i := range items {
		items[i] = "item"
	}

	result := compactJSON(items, 0).([]any)
	if len(result) != compactMaxChildren+1 {
		t.Errorf("expected %d items (cap + ellipsis marker), got %d", compactMaxChildren+1, len(result))
	}
}

func TestRankEvidenceByKeywords_PrefersMatchingItems(t *testing.T) {
	items := []model.EvidenceItem{
		{ID: "ev_1", Tool: model.ToolHoneypotSimulation, Title: "Honeypot simulation"},
		{ID: "ev_2", Tool: model.ToolHoldersTopHolders, Title: "Top holders"},
		{ID: "ev_3", Tool: model.ToolDexscreenerPairs, Title: "DEX trading pairs"},
	}

	ranked := rankEvidenceByKeywords(items, "is this a honeypot?")

	if ranked[0].ID != "ev_1" {
		t.Errorf("expected honeypot evidence ranked first, got %s", ranked[0].ID)
	}
}
