package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/recertify/internal/model"
)

// SaveRun records the summary of a classification batch.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	decisions, err := json.Marshal(run.ByDecision)
	if err != nil {
		return fmt.Errorf("failed to encode decisions: %w", err)
	}
	tags, err := json.Marshal(run.ByTag)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, certifier, started_at, total, automatic, to_review, decisions, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total = excluded.total,
			automatic = excluded.automatic,
			to_review = excluded.to_review,
			decisions = excluded.decisions,
			tags = excluded.tags
	`, run.ID, run.Certifier, run.StartedAt.UTC(), run.Total, run.Automatic, run.ToReview,
		string(decisions), string(tags))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", classifyError(err))
	}
	return nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, certifier, started_at, total, automatic, to_review, decisions, tags
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", classifyError(err))
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		var (
			run       model.Run
			decisions string
			tags      string
		)
		if err := rows.Scan(&run.ID, &run.Certifier, &run.StartedAt, &run.Total,
			&run.Automatic, &run.ToReview, &decisions, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(decisions), &run.ByDecision); err != nil {
			return nil, fmt.Errorf("failed to decode decisions of run %s: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &run.ByTag); err != nil {
			return nil, fmt.Errorf("failed to decode tags of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
