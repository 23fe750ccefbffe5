package llmbridge

import "github.com/baserisk/scanguard/internal/config"

// Bridge owns the primary and fallback LLM clients used by the planner and
// assessor. fallback is nil when no fallback model id is configured distinct
// from the primary.
type Bridge struct {
	primary  Client
	fallback Client
}

// NewBridge constructs a Bridge from LLM configuration. Callers should check
// cfg.LLMConfigured() before relying on it; an unconfigured bridge's Client
// calls will fail authentication immediately, which the pipeline treats the
// same as any other planner/assessor failure.
func NewBridge(cfg config.Config) *Bridge {
	primary := New(Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	})

	var fallback Client
	if cfg.LLMFallbackModel != "" && cfg.LLMFallbackModel != cfg.LLMModel {
		fallback = New(Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMFallbackModel,
		})
	}

	return &Bridge{primary: primary, fallback: fallback}
}
