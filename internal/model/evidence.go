package model

import "time"

// ToolName is a closed enum of tool-registry entries (C3).
type ToolName string

const (
	ToolRPCBytecode         ToolName = "rpc_getBytecode"
	ToolRPCErc20Metadata    ToolName = "rpc_getErc20Metadata"
	ToolBasescanSourceInfo  ToolName = "basescan_getSourceInfo"
	ToolBasescanCreation    ToolName = "basescan_getContractCreation"
	ToolDexscreenerPairs    ToolName = "dexscreener_getPairs"
	ToolHoneypotSimulation  ToolName = "honeypot_getSimulation"
	ToolLPV2LockStatus      ToolName = "lp_v2_lockStatus"
	ToolContractOwnerStatus ToolName = "contract_ownerStatus"
	ToolCapabilityScan      ToolName = "contract_capabilityScan"
	ToolHoldersTopHolders   ToolName = "holders_getTopHolders"
)

// EvidenceStatus is the result status of a single tool invocation.
type EvidenceStatus string

const (
	EvidenceStatusOK          EvidenceStatus = "ok"
	EvidenceStatusUnavailable EvidenceStatus = "unavailable"
)

// EvidenceItem is the canonical shape of one tool result, identity-bearing
// and citable from an Assessment's evidenceRefs.
type EvidenceItem struct {
	ID        string         `json:"id"`
	Tool      ToolName       `json:"tool"`
	Title     string         `json:"title"`
	SourceURL string         `json:"sourceUrl,omitempty"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Status    EvidenceStatus `json:"status"`
	Data      any            `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Ledger is the ordered set of evidence items collected during a scan.
type Ledger struct {
	Items []EvidenceItem `json:"items"`
}

// ByTool returns the first item of a given tool name, if present.
func (l *Ledger) ByTool(tool ToolName) (*EvidenceItem, bool) {
	for i := range l.Items {
		if l.Items[i].Tool == tool {
			return &l.Items[i], true
		}
	}
	return nil, false
}

// IDs returns the set of evidence ids currently in the ledger.
func (l *Ledger) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(l.Items))
	for _, item := range l.Items {
		ids[item.ID] = struct{}{}
	}
	return ids
}

// Append adds an item to the ledger.
func (l *Ledger) Append(item EvidenceItem) {
	l.Items = append(l.Items, item)
}
