// Package pipeline runs one scan's investigation: merge the LLM-proposed
// plan with the configuration-driven baseline, execute each tool step,
// obtain a final risk assessment, and persist/emit results at every edge.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baserisk/scanguard/internal/config"
	"github.com/baserisk/scanguard/internal/evidence"
	"github.com/baserisk/scanguard/internal/llmbridge"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/obs"
	"github.com/baserisk/scanguard/internal/obslog"
	"github.com/baserisk/scanguard/internal/store"
)

// ErrNotAContract is thrown mid-run when rpc_getBytecode reports no code at
// the target address, terminating the run as failed.
var ErrNotAContract = errors.New("address does not contain contract bytecode on Base")

// Runner drives one scan-run's state machine end to end.
type Runner struct {
	scans    store.ScanStore
	events   store.EventStore
	registry *evidence.Registry
	bridge   *llmbridge.Bridge
	cfg      config.Config
}

func NewRunner(scans store.ScanStore, events store.EventStore, registry *evidence.Registry, bridge *llmbridge.Bridge, cfg config.Config) *Runner {
	return &Runner{scans: scans, events: events, registry: registry, bridge: bridge, cfg: cfg}
}

// Run executes the full pipeline for scanID, which must currently be
// "queued". It never returns an error for provider-level failures (those are
// captured as evidence items); it returns an error only for conditions that
// terminate the run. A failed queued-to-running transition or a failed load
// of the scan row is returned without touching the scan; every later
// terminating condition is already persisted as a failed scan before Run
// returns.
func (r *Runner) Run(ctx context.Context, scanID string) error {
	start := time.Now()
	ctx = obslog.With(ctx, obslog.Fields{ScanID: obslog.Ptr(scanID), Component: "scanguard.pipeline.runner"})

	ok, err := r.scans.TransitionStatus(ctx, scanID, model.ScanStatusQueued, model.ScanStatusRunning)
	if err != nil {
		return fmt.Errorf("transitioning scan to running: %w", err)
	}
	if !ok {
		return fmt.Errorf("scan %s was not in queued status", scanID)
	}

	scan, err := r.scans.GetByID(ctx, scanID)
	if err != nil {
		return fmt.Errorf("loading scan: %w", err)
	}

	run := &runState{r: r, ctx: ctx, scan: scan, start: start}
	return run.execute()
}

// runState carries the mutable state of one in-flight run so its methods
// stay free of long parameter lists.
type runState struct {
	r        *Runner
	ctx      context.Context
	scan     *model.Scan
	start    time.Time
	ledger   model.Ledger
	lastStep *string
	failed   bool
}

func (s *runState) execute() (runErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			runErr = fmt.Errorf("panic in pipeline runner: %v", rec)
		}
		if runErr != nil {
			s.finishFailed(runErr)
		}
	}()

	s.emit(model.EventLevelInfo, model.EventTypeRunStarted, nil, "scan run started", nil)

	validateStepKey := "validate_target"
	s.beginStep(validateStepKey)
	s.emit(model.EventLevelInfo, model.EventTypeStepStarted, &validateStepKey, "target already validated at scan creation", nil)
	s.completeStep(validateStepKey, model.EventLevelSuccess)

	plan, _ := s.runPlanner()
	merged := MergePlan(s.r.cfg, plan)

	for i := range merged.Steps {
		step := merged.Steps[i]
		if err := s.runEvidenceStep(step); err != nil {
			return err
		}
	}

	assessment, modelID, assessorLevel := s.runAssessor()

	if err := s.finishComplete(assessment, modelID, assessorLevel); err != nil {
		return fmt.Errorf("persisting completed scan: %w", err)
	}

	return nil
}

func (s *runState) runPlanner() (model.Plan, error) {
	stepKey := "agent_plan"
	s.beginStep(stepKey)

	if !s.r.cfg.LLMConfigured() {
		s.emit(model.EventLevelWarning, model.EventTypeLogLine, &stepKey, "LLM not configured; using baseline plan", nil)
		plan := model.Plan{Fallback: true}
		s.emitPlan(stepKey, plan)
		s.completeStep(stepKey, model.EventLevelWarning)
		return plan, errors.New("llm not configured")
	}

	span := obs.StartSpan(s.ctx, "pipeline.step.agent_plan")
	plan, err := s.r.bridge.Plan(s.ctx, AvailableTools(s.r.cfg))
	span.RecordError(err)
	span.End()

	if err != nil {
		slog.WarnContext(s.ctx, "planner failed, falling back to baseline", "error", err)
		s.emit(model.EventLevelWarning, model.EventTypeLogLine, &stepKey, fmt.Sprintf("planner unavailable: %v", err), nil)
		plan = model.Plan{Fallback: true}
		s.emitPlan(stepKey, plan)
		s.completeStep(stepKey, model.EventLevelWarning)
		return plan, err
	}

	s.emitPlan(stepKey, plan)
	s.completeStep(stepKey, model.EventLevelSuccess)
	return plan, nil
}

func (s *runState) emitPlan(stepKey string, plan model.Plan) {
	s.emit(model.EventLevelInfo, model.EventTypeArtifactPlan, &stepKey, "plan ready", plan)
}

func (s *runState) runEvidenceStep(step model.PlannedStep) error {
	stepKey := step.StepKey
	s.beginStep(stepKey)
	s.emit(model.EventLevelInfo, model.EventTypeStepStarted, &stepKey, step.Reason, step)

	span := obs.StartSpan(obslog.With(s.ctx, obslog.Fields{StepKey: &stepKey, Tool: obslog.Ptr(string(step.Tool))}), "pipeline.step."+string(step.Tool))
	item := s.r.registry.Execute(span.Context(), step.Tool, s.scan.TokenAddress, &s.ledger)
	span.End()

	s.ledger.Append(item)
	s.emit(model.EventLevelInfo, model.EventTypeEvidenceItem, &stepKey, fmt.Sprintf("%s evidence collected", step.Tool), item)

	logLevel := model.EventLevelInfo
	if item.Status == model.EvidenceStatusUnavailable {
		logLevel = model.EventLevelWarning
	}
	s.emit(logLevel, model.EventTypeLogLine, &stepKey, fmt.Sprintf("%s -> %s", step.Tool, item.Status), nil)

	if step.Tool == model.ToolRPCBytecode {
		if data, isBytecodeData := item.Data.(evidence.BytecodeData); isBytecodeData && !data.HasCode {
			s.emit(model.EventLevelError, model.EventTypeStepFailed, &stepKey, "not a contract", nil)
			s.failed = true
			return ErrNotAContract
		}
	}

	completionLevel := model.EventLevelSuccess
	if item.Status == model.EvidenceStatusUnavailable {
		completionLevel = model.EventLevelWarning
	}
	s.completeStep(stepKey, completionLevel)
	return nil
}

// runAssessor returns the assessment, the model id that produced it (empty
// for the deterministic fallback), and the event level the final
// step.completed should carry (warning when a fallback was used).
func (s *runState) runAssessor() (model.Assessment, string, model.EventLevel) {
	stepKey := "agent_assessment"
	s.beginStep(stepKey)
	s.emit(model.EventLevelInfo, model.EventTypeStepStarted, &stepKey, "requesting final risk assessment", nil)

	if !s.r.cfg.LLMConfigured() {
		s.emit(model.EventLevelWarning, model.EventTypeLogLine, &stepKey, "LLM not configured; using deterministic assessment", nil)
		return llmbridge.FallbackAssessment(&s.ledger), "", model.EventLevelWarning
	}

	span := obs.StartSpan(s.ctx, "pipeline.step.agent_assessment")
	assessment, modelID, err := s.r.bridge.Assess(s.ctx, s.scan.TokenAddress, &s.ledger)
	span.RecordError(err)
	span.End()

	if err != nil {
		slog.WarnContext(s.ctx, "assessor failed, using deterministic fallback", "error", err)
		s.emit(model.EventLevelWarning, model.EventTypeLogLine, &stepKey, fmt.Sprintf("assessor unavailable: %v", err), nil)
		return llmbridge.FallbackAssessment(&s.ledger), "", model.EventLevelWarning
	}

	return assessment, modelID, model.EventLevelSuccess
}

func (s *runState) finishComplete(assessment model.Assessment, modelID string, assessorLevel model.EventLevel) error {
	evidenceJSON, err := json.Marshal(s.ledger.Items)
	if err != nil {
		return err
	}
	assessmentJSON, err := json.Marshal(assessment)
	if err != nil {
		return err
	}

	durationMs := time.Since(s.start).Milliseconds()
	if err := s.r.scans.MarkComplete(s.ctx, s.scan.ID, evidenceJSON, assessmentJSON, assessment.Summary, modelID, durationMs); err != nil {
		return err
	}

	s.emit(model.EventLevelSuccess, model.EventTypeAssessmentFinal, nil, "assessment complete", assessment)
	s.completeStep("agent_assessment", assessorLevel)
	s.emit(model.EventLevelSuccess, model.EventTypeRunCompleted, nil, "scan run completed", nil)
	return nil
}

func (s *runState) finishFailed(cause error) {
	if !s.failed && !errors.Is(cause, ErrNotAContract) {
		if s.lastStep != nil {
			s.emit(model.EventLevelError, model.EventTypeStepFailed, s.lastStep, cause.Error(), nil)
		}
	}

	durationMs := time.Since(s.start).Milliseconds()
	if err := s.r.scans.MarkFailed(s.ctx, s.scan.ID, cause.Error(), durationMs); err != nil {
		slog.ErrorContext(s.ctx, "failed to persist failed scan", "error", err, "scan_id", s.scan.ID)
	}

	s.emit(model.EventLevelError, model.EventTypeRunFailed, nil, cause.Error(), nil)
}

func (s *runState) beginStep(stepKey string) {
	s.lastStep = &stepKey
}

func (s *runState) completeStep(stepKey string, level model.EventLevel) {
	s.emit(level, model.EventTypeStepCompleted, &stepKey, "step completed", nil)
}

func (s *runState) emit(level model.EventLevel, eventType string, stepKey *string, message string, payload any) {
	var raw []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			slog.ErrorContext(s.ctx, "failed to encode event payload", "error", err, "event_type", eventType)
		} else {
			raw = encoded
		}
	}

	if _, err := s.r.events.Append(s.ctx, s.scan.ID, level, eventType, stepKey, message, raw); err != nil {
		slog.ErrorContext(s.ctx, "failed to append scan event", "error", err, "event_type", eventType)
	}
}
