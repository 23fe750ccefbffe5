package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/store"
)

func TestServe_ReturnsNotFoundForUnknownScan(t *testing.T) {
	scans := &mockScanStore{getByIDFn: func(ctx context.Context, id string) (*model.Scan, error) {
		return nil, store.ErrNotFound
	}}
	events := &mockEventStore{}
	s := NewStreamer(scans, events)

	rec := httptest.NewRecorder()
	err := s.Serve(context.Background(), rec, rec, "missing-scan", 0)
	if err == nil {
		t.Fatal("expected an error for an unknown scan")
	}
}

func TestServe_ReplaysEventsAndClosesOnTerminalEvent(t *testing.T) {
	scans := &mockScanStore{getByIDFn: func(ctx context.Context, id string) (*model.Scan, error) {
		return &model.Scan{ID: id, Status: model.ScanStatusRunning}, nil
	}}

	events := &mockEventStore{listEventsAfterFn: func(ctx context.Context, scanID string, afterEventID int64) ([]model.ScanEvent, error) {
		return []model.ScanEvent{
			{ID: 1, ScanID: scanID, Seq: 1, Type: model.EventTypeRunStarted, Message: "started"},
			{ID: 2, ScanID: scanID, Seq: 2, Type: model.EventTypeRunCompleted, Message: "done"},
		}, nil
	}}

	s := NewStreamer(scans, events)
	rec := httptest.NewRecorder()

	err := s.Serve(context.Background(), rec, rec, "scan-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: ready") {
		t.Error("expected a ready frame")
	}
	if !strings.Contains(body, "event: run.completed") {
		t.Error("expected a run.completed frame")
	}
	if !strings.Contains(body, "event: end") {
		t.Error("expected a closing end frame")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
}

func TestServe_ClosesWhenScanAlreadyTerminalAndNoNewEvents(t *testing.T) {
	scans := &mockScanStore{getByIDFn: func(ctx context.Context, id string) (*model.Scan, error) {
		return &model.Scan{ID: id, Status: model.ScanStatusComplete}, nil
	}}

	var calls int32
	events := &mockEventStore{listEventsAfterFn: func(ctx context.Context, scanID string, afterEventID int64) ([]model.ScanEvent, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}}

	s := NewStreamer(scans, events)
	rec := httptest.NewRecorder()

	err := s.Serve(context.Background(), rec, rec, "scan-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "event: end") {
		t.Error("expected the loop to close with an end frame once the scan is terminal")
	}
}

func TestCursorFrom_PrefersLargerOfQueryAndHeader(t *testing.T) {
	cases := []struct {
		query, header string
		want           int64
	}{
		{"", "", 0},
		{"5", "", 5},
		{"", "9", 9},
		{"5", "9", 9},
		{"12", "3", 12},
		{"not-a-number", "7", 7},
	}
	for _, c := range cases {
		got := CursorFrom(c.query, c.header)
		if got != c.want {
			t.Errorf("CursorFrom(%q, %q) = %d, want %d", c.query, c.header, got, c.want)
		}
	}
}
