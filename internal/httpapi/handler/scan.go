package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/baserisk/scanguard/internal/config"
	"github.com/baserisk/scanguard/internal/httpapi/dto"
	"github.com/baserisk/scanguard/internal/llmbridge"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
	"github.com/baserisk/scanguard/internal/queue"
	"github.com/baserisk/scanguard/internal/store"
	"github.com/baserisk/scanguard/internal/stream"
)

const network = "base"

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ScanHandler serves the scan lifecycle API: preflight, create, read,
// re-run, event replay/tail, and chat-about-scan.
type ScanHandler struct {
	scans    store.ScanStore
	events   store.EventStore
	jobs     store.JobStore
	rpc      *providers.RPCClient
	worker   *queue.Worker
	streamer *stream.Streamer
	bridge   *llmbridge.Bridge
	cfg      config.Config
}

func NewScanHandler(scans store.ScanStore, events store.EventStore, jobs store.JobStore, rpc *providers.RPCClient, worker *queue.Worker, streamer *stream.Streamer, bridge *llmbridge.Bridge, cfg config.Config) *ScanHandler {
	return &ScanHandler{scans: scans, events: events, jobs: jobs, rpc: rpc, worker: worker, streamer: streamer, bridge: bridge, cfg: cfg}
}

// validateAddress lowercases and validates a token address per §6: "0x" +
// 40 hex characters.
func validateAddress(raw string) (string, error) {
	if !addressPattern.MatchString(raw) {
		return "", errors.New("address must be 0x followed by 40 hex characters")
	}
	return strings.ToLower(raw), nil
}

func (h *ScanHandler) Preflight(c *gin.Context) {
	ctx := c.Request.Context()
	address, err := validateAddress(c.Query("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.rpc.GetCode(ctx, address)
	if result.Err != "" {
		slog.WarnContext(ctx, "preflight code fetch failed", "error", result.Err, "address", address)
		c.JSON(http.StatusBadRequest, gin.H{"error": result.Err})
		return
	}

	raw := strings.TrimPrefix(result.Hex, "0x")
	c.JSON(http.StatusOK, dto.PreflightResponse{
		Chain:             network,
		Address:           address,
		HasCode:           raw != "",
		BytecodeSizeBytes: len(raw) / 2,
	})
}

func (h *ScanHandler) CreateScan(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	address, err := validateAddress(req.TokenAddress)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	codeResult := h.rpc.GetCode(ctx, address)
	if codeResult.Err != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": codeResult.Err})
		return
	}
	if strings.TrimPrefix(codeResult.Hex, "0x") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address does not contain contract bytecode on Base"})
		return
	}

	if cached, err := h.scans.FindRecentComplete(ctx, network, address, h.cfg.ScanCacheTTL); err == nil && cached != nil {
		c.JSON(http.StatusOK, dto.CreateScanResponse{ScanID: cached.ID, Status: string(cached.Status), Cached: true})
		return
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to look up recent scan", "error", err)
	}

	scan := &model.Scan{
		ID:             uuid.NewString(),
		Network:        network,
		TokenAddress:   address,
		Status:         model.ScanStatusQueued,
		ScannerVersion: "1",
		ScoreVersion:   "1",
	}
	if err := h.scans.Create(ctx, scan); err != nil {
		slog.ErrorContext(ctx, "failed to create scan", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create scan"})
		return
	}

	if _, _, err := h.jobs.Enqueue(ctx, scan.ID); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue scan job", "error", err, "scan_id", scan.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue scan"})
		return
	}
	h.worker.Trigger()

	c.JSON(http.StatusCreated, dto.CreateScanResponse{ScanID: scan.ID, Status: string(model.ScanStatusQueued), Cached: false})
}

func (h *ScanHandler) GetScan(c *gin.Context) {
	ctx := c.Request.Context()
	scan, err := h.scans.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load scan", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan"})
		return
	}
	c.JSON(http.StatusOK, dto.ToScanResponse(scan))
}

func (h *ScanHandler) RunScan(c *gin.Context) {
	ctx := c.Request.Context()
	scanID := c.Param("id")

	scan, err := h.scans.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load scan", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan"})
		return
	}

	if scan.IsTerminal() {
		c.JSON(http.StatusOK, dto.RunScanResponse{ScanID: scan.ID, Status: string(scan.Status), Skipped: true})
		return
	}

	job, enqueued, err := h.jobs.Enqueue(ctx, scan.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to enqueue scan job", "error", err, "scan_id", scan.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue scan"})
		return
	}
	h.worker.Trigger()

	c.JSON(http.StatusAccepted, dto.RunScanResponse{
		ScanID:    scan.ID,
		Status:    string(scan.Status),
		Enqueued:  enqueued,
		JobID:     job.ID,
		JobStatus: string(job.Status),
	})
}

func (h *ScanHandler) ListEvents(c *gin.Context) {
	ctx := c.Request.Context()
	scanID := c.Param("id")

	scan, err := h.scans.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load scan", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan"})
		return
	}

	after, _ := strconv.ParseInt(c.Query("after"), 10, 64)
	events, err := h.events.ListEventsAfter(ctx, scanID, after)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	dtos := make([]dto.EventDTO, len(events))
	nextAfter := after
	for i, e := range events {
		dtos[i] = dto.ToEventDTO(e)
		if e.ID > nextAfter {
			nextAfter = e.ID
		}
	}

	c.JSON(http.StatusOK, dto.EventsResponse{
		ScanID:    scanID,
		Status:    string(scan.Status),
		Events:    dtos,
		NextAfter: nextAfter,
	})
}

func (h *ScanHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	scanID := c.Param("id")

	cursor := stream.CursorFrom(c.Query("after"), c.GetHeader("Last-Event-ID"))

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	if err := h.streamer.Serve(ctx, c.Writer, flusher, scanID, cursor); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
		slog.ErrorContext(ctx, "stream closed with error", "error", err, "scan_id", scanID)
	}
}

func (h *ScanHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()
	scanID := c.Param("id")

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scan, err := h.scans.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load scan", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan"})
		return
	}

	var ledger model.Ledger
	if len(scan.Evidence) > 0 {
		if err := json.Unmarshal(scan.Evidence, &ledger.Items); err != nil {
			slog.ErrorContext(ctx, "failed to decode scan evidence", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan evidence"})
			return
		}
	}

	messages := make([]llmbridge.ChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = llmbridge.ChatMessage{Role: m.Role, Content: m.Content}
	}

	reply, err := h.bridge.ChatAboutScan(ctx, scan.TokenAddress, messages, &ledger)
	if err != nil {
		slog.ErrorContext(ctx, "chat-about-scan failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer"})
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{Message: reply})
}
