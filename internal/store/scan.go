package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/baserisk/scanguard/internal/dbx"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/jackc/pgx/v5"
)

type scanStore struct {
	q dbx.Querier
}

func newScanStore(q dbx.Querier) ScanStore {
	return &scanStore{q: q}
}

func (s *scanStore) Create(ctx context.Context, scan *model.Scan) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO scans (id, network, token_address, status, created_at, scanner_version, score_version)
		VALUES ($1, $2, $3, $4, now(), $5, $6)
	`, scan.ID, scan.Network, scan.TokenAddress, scan.Status, scan.ScannerVersion, scan.ScoreVersion)
	if err != nil {
		return err
	}
	return nil
}

func (s *scanStore) GetByID(ctx context.Context, id string) (*model.Scan, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, network, token_address, status, created_at, duration_ms,
		       scanner_version, score_version, evidence, assessment, narrative, model_id, error
		FROM scans WHERE id = $1
	`, id)
	return scanFromRow(row)
}

func (s *scanStore) FindRecentComplete(ctx context.Context, network, tokenAddress string, maxAge time.Duration) (*model.Scan, error) {
	cutoff := time.Now().Add(-maxAge)
	row := s.q.QueryRow(ctx, `
		SELECT id, network, token_address, status, created_at, duration_ms,
		       scanner_version, score_version, evidence, assessment, narrative, model_id, error
		FROM scans
		WHERE network = $1 AND token_address = $2 AND status = $3 AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1
	`, network, tokenAddress, model.ScanStatusComplete, cutoff)
	return scanFromRow(row)
}

// TransitionStatus performs the scans-row compare-and-swap: the status is
// only changed when it currently matches "from". Returns false if another
// writer already moved the row.
func (s *scanStore) TransitionStatus(ctx context.Context, id string, from, to model.ScanStatus) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE scans SET status = $1 WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *scanStore) MarkComplete(ctx context.Context, id string, evidence, assessment []byte, narrative, modelID string, durationMs int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE scans
		SET status = $1, evidence = $2, assessment = $3, narrative = $4, model_id = $5, duration_ms = $6, error = NULL
		WHERE id = $7 AND status = $8
	`, model.ScanStatusComplete, evidence, assessment, narrative, modelID, durationMs, id, model.ScanStatusRunning)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *scanStore) MarkFailed(ctx context.Context, id string, errMsg string, durationMs int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE scans
		SET status = $1, error = $2, duration_ms = $3
		WHERE id = $4 AND status = $5
	`, model.ScanStatusFailed, errMsg, durationMs, id, model.ScanStatusRunning)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFromRow(row pgx.Row) (*model.Scan, error) {
	var s model.Scan
	var durationMs *int64
	var evidence, assessment []byte
	var narrative, modelID *string
	var errMsg *string

	err := row.Scan(
		&s.ID, &s.Network, &s.TokenAddress, &s.Status, &s.CreatedAt, &durationMs,
		&s.ScannerVersion, &s.ScoreVersion, &evidence, &assessment, &narrative, &modelID, &errMsg,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.DurationMs = durationMs
	if evidence != nil {
		s.Evidence = json.RawMessage(evidence)
	}
	if assessment != nil {
		s.Assessment = json.RawMessage(assessment)
	}
	if narrative != nil {
		s.Narrative = *narrative
	}
	if modelID != nil {
		s.ModelID = *modelID
	}
	s.Error = errMsg

	return &s, nil
}
