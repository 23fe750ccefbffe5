// Package llmbridge calls the structured-output LLM with a schema-constrained
// planner and assessor, validating citations and falling back deterministically
// when the model is unreachable or its output cannot be trusted.
package llmbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client issues a single schema-constrained chat completion and decodes the
// result into result. Planner and Assessor build on top of this.
type Client interface {
	Chat(ctx context.Context, req Request, result any) error
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
	Model() string
}

// ErrNoOutput marks a Chat failure where the model call completed but
// produced nothing usable (empty choices, empty content, or a structured
// response that failed to decode) as distinct from a transport failure
// (timeout, connection refused, non-2xx). Only ErrNoOutput is eligible for
// the planner's single fallback-model retry and the assessor's advance to
// its next (model, payload) attempt.
type ErrNoOutput struct {
	Cause error
}

func (e *ErrNoOutput) Error() string {
	return fmt.Sprintf("no output generated: %v", e.Cause)
}

func (e *ErrNoOutput) Unwrap() error {
	return e.Cause
}

// IsNoOutput reports whether err is (or wraps) an ErrNoOutput.
func IsNoOutput(err error) bool {
	var noOutput *ErrNoOutput
	return errors.As(err, &noOutput)
}

// Request is one structured-output call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       any
	MaxTokens    int
	Temperature  *float64
}

// Config configures a model-specific client instance.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type client struct {
	openai openai.Client
	model  string
}

// New builds a Client pinned to cfg.Model. The bridge constructs two of
// these (primary and fallback) so it can retry across model ids without
// re-authenticating.
func New(cfg Config) Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &client{
		openai: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (c *client) Chat(ctx context.Context, req Request, result any) error {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return fmt.Errorf("llm chat completion request failed: %w", err)
	}

	slog.DebugContext(ctx, "llmbridge chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"schema", req.SchemaName,
	)

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return &ErrNoOutput{Cause: errors.New("empty choices")}
	}

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), result); err != nil {
		return &ErrNoOutput{Cause: fmt.Errorf("decoding structured response: %w", err)}
	}

	return nil
}

func (c *client) Model() string {
	return c.model
}

// Complete issues a free-text chat completion, for call sites (chat-about-scan)
// that want a message rather than a schema-constrained object.
func (c *client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if maxTokens == 0 {
		maxTokens = 1024
	}

	resp, err := c.openai.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("no output generated: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no output generated: empty choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateSchema reflects a JSON Schema for T, suitable for a strict
// structured-output request.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// Temp returns a pointer to a temperature value, for call sites that want an
// inline literal.
func Temp(t float64) *float64 {
	return &t
}
