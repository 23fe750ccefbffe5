package obslog

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// Fields contains structured fields automatically added to all logs within a
// context. Fields flow through context enrichment, so the scan id, job id,
// and current step are present on every log line emitted while handling a
// scan without having to thread them through every function signature.
type Fields struct {
	ScanID    *string // scan UUID
	JobID     *int64  // scan_jobs row id
	StepKey   *string // current pipeline step key
	Tool      *string // tool name currently executing
	Component string  // dotted component name, e.g. "scanguard.pipeline.runner"
}

// With enriches context with structured log fields. Multiple calls merge
// fields, with newer non-nil/non-empty values taking precedence.
func With(ctx context.Context, fields Fields) context.Context {
	existing := From(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// From retrieves log fields from context, or zero value if none are set.
func From(ctx context.Context) Fields {
	if fields, ok := ctx.Value(logFieldsKey).(Fields); ok {
		return fields
	}
	return Fields{}
}

func mergeFields(existing, next Fields) Fields {
	result := existing

	if next.ScanID != nil {
		result.ScanID = next.ScanID
	}
	if next.JobID != nil {
		result.JobID = next.JobID
	}
	if next.StepKey != nil {
		result.StepKey = next.StepKey
	}
	if next.Tool != nil {
		result.Tool = next.Tool
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, for inline Fields literals.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
