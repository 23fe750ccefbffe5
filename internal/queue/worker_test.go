package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baserisk/scanguard/internal/model"
)

func TestWorker_DrainsAllPendingJobsThenStops(t *testing.T) {
	jobs := []*model.ScanJob{
		{ID: 1, ScanID: "scan-1", Status: model.JobStatusPending},
		{ID: 2, ScanID: "scan-2", Status: model.JobStatusPending},
	}

	var claimed int32
	var finalized []int64
	var mu sync.Mutex
	done := make(chan struct{})

	store := &mockJobStore{
		claimNextFn: func(ctx context.Context) (*model.ScanJob, error) {
			i := atomic.AddInt32(&claimed, 1) - 1
			if int(i) >= len(jobs) {
				close(done)
				return nil, nil
			}
			return jobs[i], nil
		},
		finalizeFn: func(ctx context.Context, jobID int64, status model.JobStatus, errMsg *string) error {
			mu.Lock()
			finalized = append(finalized, jobID)
			mu.Unlock()
			return nil
		},
	}
	runner := &mockRunner{runFn: func(ctx context.Context, scanID string) error { return nil }}

	w := NewWorker(store, runner)
	w.Trigger()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain the queue in time")
	}

	// Give the final Finalize call a moment to land after the closing claim.
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(finalized) != 2 {
		t.Fatalf("expected 2 jobs finalized, got %d: %v", len(finalized), finalized)
	}
}

func TestWorker_TriggerIsIdempotentWhileRunning(t *testing.T) {
	release := make(chan struct{})
	var claimCount int32

	store := &mockJobStore{
		claimNextFn: func(ctx context.Context) (*model.ScanJob, error) {
			n := atomic.AddInt32(&claimCount, 1)
			if n == 1 {
				<-release
				return &model.ScanJob{ID: 1, ScanID: "scan-1"}, nil
			}
			return nil, nil
		},
	}
	runner := &mockRunner{runFn: func(ctx context.Context, scanID string) error { return nil }}

	w := NewWorker(store, runner)
	w.Trigger()
	w.Trigger() // should be a no-op: the loop is already running
	close(release)

	time.Sleep(50 * time.Millisecond)

	if atomic.LoadInt32(&claimCount) < 1 {
		t.Fatal("expected the claim loop to have run at least once")
	}
}

func TestWorker_MarksJobFailedWhenRunnerErrors(t *testing.T) {
	var gotStatus model.JobStatus
	var gotErr *string
	done := make(chan struct{})
	var claimed int32

	store := &mockJobStore{
		claimNextFn: func(ctx context.Context) (*model.ScanJob, error) {
			if atomic.AddInt32(&claimed, 1) == 1 {
				return &model.ScanJob{ID: 7, ScanID: "scan-7"}, nil
			}
			return nil, nil
		},
		finalizeFn: func(ctx context.Context, jobID int64, status model.JobStatus, errMsg *string) error {
			gotStatus = status
			gotErr = errMsg
			close(done)
			return nil
		},
	}
	runner := &mockRunner{runFn: func(ctx context.Context, scanID string) error {
		return errors.New("boom")
	}}

	w := NewWorker(store, runner)
	w.Trigger()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not finalize the failed job in time")
	}

	if gotStatus != model.JobStatusFailed {
		t.Errorf("status = %s, want failed", gotStatus)
	}
	if gotErr == nil || *gotErr != "boom" {
		t.Errorf("errMsg = %v, want \"boom\"", gotErr)
	}
}
