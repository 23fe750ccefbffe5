package evidence

import (
	"context"
	"time"

	"github.com/baserisk/scanguard/internal/model"
)

// Executor consumes a token address and the evidence collected so far and
// returns the next evidence item. Executors never propagate an error past
// the runner: any failure is captured as an "unavailable" item.
type Executor interface {
	Execute(ctx context.Context, tokenAddress string, ledger *model.Ledger) model.EvidenceItem
}

// Registry is the closed mapping from tool name to its executor.
type Registry struct {
	executors map[model.ToolName]Executor
}

func NewRegistry() *Registry {
	return &Registry{executors: make(map[model.ToolName]Executor)}
}

func (r *Registry) Register(tool model.ToolName, executor Executor) {
	r.executors[tool] = executor
}

func (r *Registry) Has(tool model.ToolName) bool {
	_, ok := r.executors[tool]
	return ok
}

// Execute runs the named tool's executor, timestamping and id-stamping the
// result. If the tool is not registered (e.g. its provider is unconfigured),
// it returns an unavailable item rather than panicking.
func (r *Registry) Execute(ctx context.Context, tool model.ToolName, tokenAddress string, ledger *model.Ledger) model.EvidenceItem {
	executor, ok := r.executors[tool]
	if !ok {
		return unavailable(tool, "tool not registered: unconfigured provider")
	}

	item := executor.Execute(ctx, tokenAddress, ledger)
	item.Tool = tool
	item.FetchedAt = time.Now().UTC()

	id, err := NewID(tool)
	if err == nil {
		item.ID = id
	}

	return item
}

func unavailable(tool model.ToolName, errMsg string) model.EvidenceItem {
	return model.EvidenceItem{
		Tool:      tool,
		Status:    model.EvidenceStatusUnavailable,
		Error:     errMsg,
		FetchedAt: time.Now().UTC(),
	}
}

func ok(tool model.ToolName, title string, data any) model.EvidenceItem {
	return model.EvidenceItem{
		Tool:   tool,
		Title:  title,
		Status: model.EvidenceStatusOK,
		Data:   data,
	}
}
