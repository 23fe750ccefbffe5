// Package dto holds the JSON request/response shapes for the HTTP surface,
// decoupled from the persisted model so storage columns can evolve without
// breaking the wire contract.
package dto

import (
	"encoding/json"
	"time"

	"github.com/baserisk/scanguard/internal/model"
)

type PreflightResponse struct {
	Chain             string `json:"chain"`
	Address           string `json:"address"`
	HasCode           bool   `json:"hasCode"`
	BytecodeSizeBytes int    `json:"bytecodeSizeBytes"`
}

type CreateScanRequest struct {
	TokenAddress string `json:"tokenAddress" binding:"required"`
}

type CreateScanResponse struct {
	ScanID string `json:"scanId"`
	Status string `json:"status"`
	Cached bool   `json:"cached"`
}

type ScanResponse struct {
	ScanID         string          `json:"scanId"`
	Network        string          `json:"network"`
	TokenAddress   string          `json:"tokenAddress"`
	Status         string          `json:"status"`
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

func ToScanResponse(scan *model.Scan) ScanResponse {
	return ScanResponse{
		ScanID:         scan.ID,
		Network:        scan.Network,
		TokenAddress:   scan.TokenAddress,
		Status:         string(scan.Status),
		CreatedAt:      scan.CreatedAt,
		DurationMs:     scan.DurationMs,
		ScannerVersion: scan.ScannerVersion,
		ScoreVersion:   scan.ScoreVersion,
		Evidence:       scan.Evidence,
		Assessment:     scan.Assessment,
		Narrative:      scan.Narrative,
		ModelID:        scan.ModelID,
		Error:          scan.Error,
	}
}

type RunScanResponse struct {
	ScanID    string `json:"scanId"`
	Status    string `json:"status"`
	Enqueued  bool   `json:"enqueued"`
	JobID     int64  `json:"jobId,omitempty"`
	JobStatus string `json:"jobStatus,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
}

type EventDTO struct {
	ID        int64           `json:"id"`
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Type      string          `json:"type"`
	StepKey   *string         `json:"stepKey,omitempty"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func ToEventDTO(e model.ScanEvent) EventDTO {
	return EventDTO{
		ID:        e.ID,
		Seq:       e.Seq,
		Timestamp: e.Timestamp,
		Level:     string(e.Level),
		Type:      e.Type,
		StepKey:   e.StepKey,
		Message:   e.Message,
		Payload:   e.Payload,
	}
}

type EventsResponse struct {
	ScanID    string     `json:"scanId"`
	Status    string     `json:"status"`
	Events    []EventDTO `json:"events"`
	NextAfter int64      `json:"nextAfter"`
}

type ChatMessageDTO struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	Messages []ChatMessageDTO `json:"messages" binding:"required,min=1,dive"`
}

type ChatResponse struct {
	Message string `json:"message"`
}
