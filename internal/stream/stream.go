// Package stream serves a scan's event timeline as a resumable
// replay-then-tail SSE feed: every event already persisted is replayed from
// the requested cursor, then the loop polls for new ones until the run
// reaches a terminal state or the client disconnects.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/store"
)

const (
	pollInterval      = 1200 * time.Millisecond
	statusCheckEvery  = 4
	heartbeatInterval = 15 * time.Second
	retryHintMs       = 3000
)

// Streamer drains one scan's event log to an SSE client.
type Streamer struct {
	scans  store.ScanStore
	events store.EventStore
}

func NewStreamer(scans store.ScanStore, events store.EventStore) *Streamer {
	return &Streamer{scans: scans, events: events}
}

// ErrScanNotFound signals the caller should respond 404.
var ErrScanNotFound = store.ErrNotFound

// Serve writes the SSE frames for scanID to w until the run reaches a
// terminal state or ctx is canceled (client disconnect). cursor is the
// starting point: max(query "after", Last-Event-ID header), 0 if neither is
// present.
func (s *Streamer) Serve(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, scanID string, cursor int64) error {
	if _, err := s.scans.GetByID(ctx, scanID); err != nil {
		return err
	}

	setSSEHeaders(w)
	writeRetry(w, retryHintMs)
	writeFrame(w, "", "ready", map[string]any{"scanId": scanID, "cursor": cursor})
	flusher.Flush()

	lastTraffic := time.Now()
	iterations := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		pending, err := s.events.ListEventsAfter(ctx, scanID, cursor)
		if err != nil {
			return err
		}

		if len(pending) > 0 {
			for i := range pending {
				ev := pending[i]
				writeEventFrame(w, ev)
				cursor = ev.ID
				if ev.IsTerminal() {
					writeFrame(w, "", "end", map[string]any{"scanId": scanID})
					flusher.Flush()
					return nil
				}
			}
			flusher.Flush()
			lastTraffic = time.Now()
			iterations = 0
			continue
		}

		iterations++
		if iterations >= statusCheckEvery {
			iterations = 0
			scan, err := s.scans.GetByID(ctx, scanID)
			if err != nil {
				return err
			}
			if scan.IsTerminal() {
				trailing, err := s.events.ListEventsAfter(ctx, scanID, cursor)
				if err != nil {
					return err
				}
				for i := range trailing {
					writeEventFrame(w, trailing[i])
					cursor = trailing[i].ID
				}
				writeFrame(w, "", "end", map[string]any{"scanId": scanID})
				flusher.Flush()
				return nil
			}
		}

		if time.Since(lastTraffic) >= heartbeatInterval {
			writeComment(w, "heartbeat")
			flusher.Flush()
			lastTraffic = time.Now()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pollInterval):
		}
	}
}

// CursorFrom resolves the replay cursor per §4.8: max of the query-string
// "after" param and the Last-Event-ID header, defaulting to 0 (replay the
// whole log) when neither is present.
func CursorFrom(afterParam, lastEventIDHeader string) int64 {
	var fromQuery, fromHeader int64
	if v, err := strconv.ParseInt(afterParam, 10, 64); err == nil {
		fromQuery = v
	}
	if v, err := strconv.ParseInt(lastEventIDHeader, 10, 64); err == nil {
		fromHeader = v
	}
	if fromHeader > fromQuery {
		return fromHeader
	}
	return fromQuery
}

func writeEventFrame(w http.ResponseWriter, ev model.ScanEvent) {
	payload := map[string]any{
		"type":    ev.Type,
		"level":   ev.Level,
		"message": ev.Message,
		"seq":     ev.Seq,
	}
	if ev.StepKey != nil {
		payload["stepKey"] = *ev.StepKey
	}
	if len(ev.Payload) > 0 {
		payload["payload"] = json.RawMessage(ev.Payload)
	}
	writeFrame(w, strconv.FormatInt(ev.ID, 10), ev.Type, payload)
}

func setSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

func writeRetry(w http.ResponseWriter, ms int) {
	fmt.Fprintf(w, "retry: %d\n\n", ms)
}

func writeComment(w http.ResponseWriter, text string) {
	fmt.Fprintf(w, ": %s\n\n", text)
}

func writeFrame(w http.ResponseWriter, id, event string, data any) {
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(marshalPayload(data), "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func marshalPayload(data any) string {
	switch payload := data.(type) {
	case string:
		return payload
	case []byte:
		return string(payload)
	default:
		bytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Sprintf("%v", data)
		}
		return string(bytes)
	}
}
