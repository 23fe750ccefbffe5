package store

import (
	"context"
	"errors"

	"github.com/baserisk/scanguard/internal/dbx"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/jackc/pgx/v5"
)

type jobStore struct {
	q dbx.Querier
}

func newJobStore(q dbx.Querier) JobStore {
	return &jobStore{q: q}
}

// Enqueue inserts a pending job for scanID unless one is already
// pending or running, preserving the "at most one live job per scan"
// invariant.
func (s *jobStore) Enqueue(ctx context.Context, scanID string) (*model.ScanJob, bool, error) {
	existing := s.q.QueryRow(ctx, `
		SELECT id, scan_id, status, attempt, created_at, started_at, finished_at, error
		FROM scan_jobs
		WHERE scan_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`, scanID, model.JobStatusPending, model.JobStatusRunning)

	job, err := jobFromRow(existing)
	if err == nil {
		return job, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	inserted := s.q.QueryRow(ctx, `
		INSERT INTO scan_jobs (scan_id, status, attempt, created_at)
		VALUES ($1, $2, 0, now())
		RETURNING id, scan_id, status, attempt, created_at, started_at, finished_at, error
	`, scanID, model.JobStatusPending)

	job, err = jobFromRow(inserted)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

// ClaimNext atomically claims the oldest pending job. The WHERE clause
// guards against two workers racing on the same row: at most one UPDATE
// affects a row, so callers that get zero rows affected must try the next
// candidate.
func (s *jobStore) ClaimNext(ctx context.Context) (*model.ScanJob, error) {
	for {
		var candidateID int64
		err := s.q.QueryRow(ctx, `
			SELECT id FROM scan_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT 1
		`, model.JobStatusPending).Scan(&candidateID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, err
		}

		row := s.q.QueryRow(ctx, `
			UPDATE scan_jobs
			SET status = $1, started_at = now(), attempt = attempt + 1
			WHERE id = $2 AND status = $3
			RETURNING id, scan_id, status, attempt, created_at, started_at, finished_at, error
		`, model.JobStatusRunning, candidateID, model.JobStatusPending)

		job, err := jobFromRow(row)
		if err == nil {
			return job, nil
		}
		if errors.Is(err, ErrNotFound) {
			// Another worker claimed it first; retry with the next candidate.
			continue
		}
		return nil, err
	}
}

func (s *jobStore) Finalize(ctx context.Context, jobID int64, status model.JobStatus, errMsg *string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE scan_jobs SET status = $1, finished_at = now(), error = $2 WHERE id = $3
	`, status, errMsg, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *jobStore) GetByID(ctx context.Context, id int64) (*model.ScanJob, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, scan_id, status, attempt, created_at, started_at, finished_at, error
		FROM scan_jobs WHERE id = $1
	`, id)
	return jobFromRow(row)
}

func jobFromRow(row pgx.Row) (*model.ScanJob, error) {
	var j model.ScanJob
	err := row.Scan(&j.ID, &j.ScanID, &j.Status, &j.Attempt, &j.CreatedAt, &j.StartedAt, &j.FinishedAt, &j.Error)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}
