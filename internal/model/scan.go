package model

import (
	"encoding/json"
	"time"
)

// ScanStatus is the lifecycle state of a Scan.
type ScanStatus string

const (
	ScanStatusQueued   ScanStatus = "queued"
	ScanStatusRunning  ScanStatus = "running"
	ScanStatusComplete ScanStatus = "complete"
	ScanStatusFailed   ScanStatus = "failed"
	ScanStatusCanceled ScanStatus = "canceled"
)

// Scan is the top-level record for one risk assessment of a token address.
type Scan struct {
	ID             string          `json:"id"`
	Network        string          `json:"network"`
	TokenAddress   string          `json:"tokenAddress"`
	Status         ScanStatus      `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	DurationMs     *int64          `json:"durationMs,omitempty"`
	ScannerVersion string          `json:"scannerVersion"`
	ScoreVersion   string          `json:"scoreVersion"`
	Evidence       json.RawMessage `json:"evidence,omitempty"`
	Assessment     json.RawMessage `json:"assessment,omitempty"`
	Narrative      string          `json:"narrative,omitempty"`
	ModelID        string          `json:"modelId,omitempty"`
	Error          *string         `json:"error,omitempty"`
}

// IsTerminal reports whether the scan has reached a final state.
func (s *Scan) IsTerminal() bool {
	switch s.Status {
	case ScanStatusComplete, ScanStatusFailed, ScanStatusCanceled:
		return true
	default:
		return false
	}
}
