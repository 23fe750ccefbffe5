package evidence

import (
	"context"
	"strings"

	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// BytecodeData is the evidence payload for rpc_getBytecode.
type BytecodeData struct {
	HasCode           bool   `json:"hasCode"`
	BytecodeSizeBytes int    `json:"bytecodeSizeBytes"`
	Bytecode          string `json:"bytecode,omitempty"`
}

type bytecodeExecutor struct {
	rpc *providers.RPCClient
}

func NewBytecodeExecutor(rpc *providers.RPCClient) Executor {
	return &bytecodeExecutor{rpc: rpc}
}

func (e *bytecodeExecutor) Execute(ctx context.Context, tokenAddress string, _ *model.Ledger) model.EvidenceItem {
	result := e.rpc.GetCode(ctx, tokenAddress)
	if result.Err != "" {
		item := unavailable(model.ToolRPCBytecode, result.Err)
		item.SourceURL = result.SourceURL
		return item
	}

	raw := strings.TrimPrefix(result.Hex, "0x")
	hasCode := raw != ""

	item := ok(model.ToolRPCBytecode, "Contract bytecode presence", BytecodeData{
		HasCode:           hasCode,
		BytecodeSizeBytes: len(raw) / 2,
		Bytecode:          result.Hex,
	})
	item.SourceURL = result.SourceURL
	return item
}
