// Package queue owns the process-local worker that drains pending scan jobs.
// The HTTP layer enqueues a job then calls Trigger; Trigger starts the claim
// loop if it isn't already running and returns immediately. The loop claims
// jobs one at a time until the queue is empty, then exits — a later Trigger
// call restarts it.
package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/obslog"
	"github.com/baserisk/scanguard/internal/store"
)

// Runner is the subset of *pipeline.Runner the worker depends on.
type Runner interface {
	Run(ctx context.Context, scanID string) error
}

// Worker is a singleton per process: at most one claim loop runs at a time,
// guarded by running. It is safe to call Trigger concurrently from many HTTP
// handlers.
type Worker struct {
	jobs   store.JobStore
	runner Runner

	mu      sync.Mutex
	running bool
}

func NewWorker(jobs store.JobStore, runner Runner) *Worker {
	return &Worker{jobs: jobs, runner: runner}
}

// IsRunning reports whether a claim loop is currently draining the queue.
// cmd/worker polls this during shutdown to let an in-flight run finish its
// current step before the process exits.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Trigger starts the claim loop if it isn't already running. It never
// blocks on job execution.
func (w *Worker) Trigger() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.drain()
}

func (w *Worker) drain() {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	ctx := context.Background()

	for {
		job, err := w.jobs.ClaimNext(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to claim next scan job", "error", err)
			return
		}
		if job == nil {
			return
		}

		w.runJob(ctx, job)
	}
}

func (w *Worker) runJob(ctx context.Context, job *model.ScanJob) {
	jobCtx := obslog.With(ctx, obslog.Fields{
		JobID:     obslog.Ptr(job.ID),
		ScanID:    obslog.Ptr(job.ScanID),
		Component: "scanguard.queue.worker",
	})

	status := model.JobStatusCompleted
	var errMsg *string

	if err := w.runner.Run(jobCtx, job.ScanID); err != nil {
		slog.ErrorContext(jobCtx, "pipeline run failed", "error", err)
		status = model.JobStatusFailed
		msg := err.Error()
		errMsg = &msg
	}

	if err := w.jobs.Finalize(ctx, job.ID, status, errMsg); err != nil {
		slog.ErrorContext(jobCtx, "failed to finalize scan job", "error", err, "job_id", job.ID)
	}
}
