package handler

import (
	"context"
	"time"

	"github.com/baserisk/scanguard/internal/model"
)

type mockScanStore struct {
	createFn             func(ctx context.Context, scan *model.Scan) error
	getByIDFn            func(ctx context.Context, id string) (*model.Scan, error)
	findRecentCompleteFn func(ctx context.Context, network, tokenAddress string, maxAge time.Duration) (*model.Scan, error)
}

func (m *mockScanStore) Create(ctx context.Context, scan *model.Scan) error {
	if m.createFn != nil {
		return m.createFn(ctx, scan)
	}
	return nil
}

func (m *mockScanStore) GetByID(ctx context.Context, id string) (*model.Scan, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockScanStore) FindRecentComplete(ctx context.Context, network, tokenAddress string, maxAge time.Duration) (*model.Scan, error) {
	if m.findRecentCompleteFn != nil {
		return m.findRecentCompleteFn(ctx, network, tokenAddress, maxAge)
	}
	return nil, nil
}

func (m *mockScanStore) TransitionStatus(ctx context.Context, id string, from, to model.ScanStatus) (bool, error) {
	return false, nil
}

func (m *mockScanStore) MarkComplete(ctx context.Context, id string, evidence, assessment []byte, narrative, modelID string, durationMs int64) error {
	return nil
}

func (m *mockScanStore) MarkFailed(ctx context.Context, id string, errMsg string, durationMs int64) error {
	return nil
}

type mockEventStore struct {
	listEventsAfterFn func(ctx context.Context, scanID string, afterEventID int64) ([]model.ScanEvent, error)
}

func (m *mockEventStore) Append(ctx context.Context, scanID string, level model.EventLevel, eventType string, stepKey *string, message string, payload []byte) (*model.ScanEvent, error) {
	return nil, nil
}

func (m *mockEventStore) ListEventsAfter(ctx context.Context, scanID string, afterEventID int64) ([]model.ScanEvent, error) {
	if m.listEventsAfterFn != nil {
		return m.listEventsAfterFn(ctx, scanID, afterEventID)
	}
	return nil, nil
}

func (m *mockEventStore) ListEvents(ctx context.Context, scanID string) ([]model.ScanEvent, error) {
	return nil, nil
}

func (m *mockEventStore) GetLatestEvent(ctx context.Context, scanID string) (*model.ScanEvent, error) {
	return nil, nil
}

type mockJobStore struct {
	enqueueFn func(ctx context.Context, scanID string) (*model.ScanJob, bool, error)
}

func (m *mockJobStore) Enqueue(ctx context.Context, scanID string) (*model.ScanJob, bool, error) {
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, scanID)
	}
	return &model.ScanJob{ID: 1, ScanID: scanID, Status: model.JobStatusPending}, true, nil
}

func (m *mockJobStore) ClaimNext(ctx context.Context) (*model.ScanJob, error) {
	return nil, nil
}

func (m *mockJobStore) Finalize(ctx context.Context, jobID int64, status model.JobStatus, errMsg *string) error {
	return nil
}

func (m *mockJobStore) GetByID(ctx context.Context, id int64) (*model.ScanJob, error) {
	return nil, nil
}

type fakeRunner struct{}

func (fakeRunner) Run(ctx context.Context, scanID string) error { return nil }
