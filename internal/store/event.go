package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/baserisk/scanguard/internal/dbx"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// maxAppendRetries bounds the read-max-then-insert retry loop used to
// serialize concurrent appends to the same scan's event log.
const maxAppendRetries = 5

type eventStore struct {
	q dbx.Querier
}

func newEventStore(q dbx.Querier) EventStore {
	return &eventStore{q: q}
}

// Append inserts the next event for scanID, computing seq as the current
// max(seq)+1. Concurrent appenders racing on the same scan will have one
// insert succeed and the others hit the unique (scan_id, seq) violation,
// at which point they recompute max(seq) and retry.
func (s *eventStore) Append(ctx context.Context, scanID string, level model.EventLevel, eventType string, stepKey *string, message string, payload []byte) (*model.ScanEvent, error) {
	var last error
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		event, err := s.tryAppend(ctx, scanID, level, eventType, stepKey, message, payload)
		if err == nil {
			return event, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		last = err
	}
	return nil, fmt.Errorf("appending event after %d retries: %w", maxAppendRetries, last)
}

func (s *eventStore) tryAppend(ctx context.Context, scanID string, level model.EventLevel, eventType string, stepKey *string, message string, payload []byte) (*model.ScanEvent, error) {
	var nextSeq int64
	err := s.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM scan_events WHERE scan_id = $1
	`, scanID).Scan(&nextSeq)
	if err != nil {
		return nil, err
	}

	row := s.q.QueryRow(ctx, `
		INSERT INTO scan_events (scan_id, seq, timestamp, level, type, step_key, message, payload)
		VALUES ($1, $2, now(), $3, $4, $5, $6, $7)
		RETURNING id, scan_id, seq, timestamp, level, type, step_key, message, payload
	`, scanID, nextSeq, level, eventType, stepKey, message, payload)

	return eventFromRow(row)
}

func (s *eventStore) ListEventsAfter(ctx context.Context, scanID string, afterEventID int64) ([]model.ScanEvent, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, scan_id, seq, timestamp, level, type, step_key, message, payload
		FROM scan_events
		WHERE scan_id = $1 AND id > $2
		ORDER BY id ASC
	`, scanID, afterEventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *eventStore) ListEvents(ctx context.Context, scanID string) ([]model.ScanEvent, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, scan_id, seq, timestamp, level, type, step_key, message, payload
		FROM scan_events
		WHERE scan_id = $1
		ORDER BY id ASC
	`, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *eventStore) GetLatestEvent(ctx context.Context, scanID string) (*model.ScanEvent, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, scan_id, seq, timestamp, level, type, step_key, message, payload
		FROM scan_events
		WHERE scan_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, scanID)
	return eventFromRow(row)
}

func collectEvents(rows pgx.Rows) ([]model.ScanEvent, error) {
	events := make([]model.ScanEvent, 0)
	for rows.Next() {
		var e model.ScanEvent
		var stepKey *string
		var payload []byte
		if err := rows.Scan(&e.ID, &e.ScanID, &e.Seq, &e.Timestamp, &e.Level, &e.Type, &stepKey, &e.Message, &payload); err != nil {
			return nil, err
		}
		e.StepKey = stepKey
		if payload != nil {
			e.Payload = json.RawMessage(payload)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func eventFromRow(row pgx.Row) (*model.ScanEvent, error) {
	var e model.ScanEvent
	var stepKey *string
	var payload []byte
	err := row.Scan(&e.ID, &e.ScanID, &e.Seq, &e.Timestamp, &e.Level, &e.Type, &stepKey, &e.Message, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.StepKey = stepKey
	if payload != nil {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}
