package evidence

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/baserisk/scanguard/internal/model"
)

var toolDomainPrefix = map[model.ToolName]string{
	model.ToolRPCBytecode:         "bytecode",
	model.ToolRPCErc20Metadata:    "erc20",
	model.ToolBasescanSourceInfo:  "source",
	model.ToolBasescanCreation:    "creation",
	model.ToolDexscreenerPairs:    "dex",
	model.ToolHoneypotSimulation:  "honeypot",
	model.ToolLPV2LockStatus:      "lplock",
	model.ToolContractOwnerStatus: "owner",
	model.ToolCapabilityScan:      "capability",
	model.ToolHoldersTopHolders:   "holders",
}

// NewID returns an evidence item id of the form ev_<domainPrefix>_<8-hex>,
// unique within a scan with overwhelming probability.
func NewID(tool model.ToolName) (string, error) {
	prefix, ok := toolDomainPrefix[tool]
	if !ok {
		prefix = "tool"
	}

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating evidence id: %w", err)
	}

	return fmt.Sprintf("ev_%s_%s", prefix, hex.EncodeToString(buf)), nil
}
