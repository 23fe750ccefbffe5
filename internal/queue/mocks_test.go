package queue

import (
	"context"

	"github.com/baserisk/scanguard/internal/model"
)

type mockJobStore struct {
	enqueueFn   func(ctx context.Context, scanID string) (*model.ScanJob, bool, error)
	claimNextFn func(ctx context.Context) (*model.ScanJob, error)
	finalizeFn  func(ctx context.Context, jobID int64, status model.JobStatus, errMsg *string) error
	getByIDFn   func(ctx context.Context, id int64) (*model.ScanJob, error)
}

func (m *mockJobStore) Enqueue(ctx context.Context, scanID string) (*model.ScanJob, bool, error) {
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, scanID)
	}
	return nil, false, nil
}

func (m *mockJobStore) ClaimNext(ctx context.Context) (*model.ScanJob, error) {
	if m.claimNextFn != nil {
		return m.claimNextFn(ctx)
	}
	return nil, nil
}

func (m *mockJobStore) Finalize(ctx context.Context, jobID int64, status model.JobStatus, errMsg *string) error {
	if m.finalizeFn != nil {
		return m.finalizeFn(ctx, jobID, status, errMsg)
	}
	return nil
}

func (m *mockJobStore) GetByID(ctx context.Context, id int64) (*model.ScanJob, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

type mockRunner struct {
	runFn func(ctx context.Context, scanID string) error
}

func (m *mockRunner) Run(ctx context.Context, scanID string) error {
	if m.runFn != nil {
		return m.runFn(ctx, scanID)
	}
	return nil
}
