// Package store holds Postgres-backed persistence for scans, their event
// logs, and their background jobs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/baserisk/scanguard/internal/dbx"
	"github.com/baserisk/scanguard/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ScanStore defines the contract for scan row access.
type ScanStore interface {
	Create(ctx context.Context, scan *model.Scan) error
	GetByID(ctx context.Context, id string) (*model.Scan, error)
	FindRecentComplete(ctx context.Context, network, tokenAddress string, maxAge time.Duration) (*model.Scan, error)
	TransitionStatus(ctx context.Context, id string, from, to model.ScanStatus) (bool, error)
	MarkComplete(ctx context.Context, id string, evidence, assessment []byte, narrative, modelID string, durationMs int64) error
	MarkFailed(ctx context.Context, id string, errMsg string, durationMs int64) error
}

// EventStore defines the contract for the append-only scan event log.
type EventStore interface {
	Append(ctx context.Context, scanID string, level model.EventLevel, eventType string, stepKey *string, message string, payload []byte) (*model.ScanEvent, error)
	ListEventsAfter(ctx context.Context, scanID string, afterEventID int64) ([]model.ScanEvent, error)
	ListEvents(ctx context.Context, scanID string) ([]model.ScanEvent, error)
	GetLatestEvent(ctx context.Context, scanID string) (*model.ScanEvent, error)
}

// JobStore defines the contract for the scan job queue.
type JobStore interface {
	Enqueue(ctx context.Context, scanID string) (job *model.ScanJob, enqueued bool, err error)
	ClaimNext(ctx context.Context) (*model.ScanJob, error)
	Finalize(ctx context.Context, jobID int64, status model.JobStatus, errMsg *string) error
	GetByID(ctx context.Context, id int64) (*model.ScanJob, error)
}

// Stores provides access to all store implementations, sharing one
// querier. It has no transactional state of its own: each store takes its
// querier (pool or tx) at construction so callers can compose a transaction
// with dbx.DB.WithTx when an operation must be atomic across stores.
type Stores struct {
	q dbx.Querier
}

func NewStores(q dbx.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Scans() ScanStore {
	return newScanStore(s.q)
}

func (s *Stores) Events() EventStore {
	return newEventStore(s.q)
}

func (s *Stores) Jobs() JobStore {
	return newJobStore(s.q)
}
