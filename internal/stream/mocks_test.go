package stream

import (
	"context"
	"time"

	"github.com/baserisk/scanguard/internal/model"
)

type mockScanStore struct {
	getByIDFn func(ctx context.Context, id string) (*model.Scan, error)
}

func (m *mockScanStore) Create(ctx context.Context, scan *model.Scan) error { return nil }

func (m *mockScanStore) GetByID(ctx context.Context, id string) (*model.Scan, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockScanStore) FindRecentComplete(ctx context.Context, network, tokenAddress string, maxAge time.Duration) (*model.Scan, error) {
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
