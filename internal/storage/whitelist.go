package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/recertify/internal/model"
	"github.com/Veraticus/recertify/internal/whitelist"
)

// LoadEntries retrieves every accepted pair of a category, variations first.
func (s *SQLiteStorage) LoadEntries(ctx context.Context, category model.Category) ([]model.WhitelistEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	return s.queryEntries(ctx, s.db, category)
}

func (s *SQLiteStorage) queryEntries(ctx context.Context, q queryable, category model.Category) ([]model.WhitelistEntry, error) {
	query := `
		SELECT category, kind, extracted_value, reference_value, validated_on, certifier
		FROM whitelist_entries
		WHERE category = ?
		ORDER BY CASE kind WHEN 'variation' THEN 0 ELSE 1 END, id`

	rows, err := q.QueryContext(ctx, query, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to query whitelist: %w", classifyError(err))
	}
	defer func() { _ = rows.Close() }()

	var entries []model.WhitelistEntry
	for rows.Next() {
		var (
			e             model.WhitelistEntry
			categoryLabel string
			kindLabel     string
		)
		if err := rows.Scan(
			&categoryLabel,
			&kindLabel,
			&e.ExtractedValue,
			&e.ReferenceValue,
			&e.ValidatedOn,
			&e.Certifier,
		); err != nil {
			return nil, fmt.Errorf("failed to scan whitelist entry: %w", err)
		}
		e.Category = model.Category(categoryLabel)
		e.Kind = model.Kind(kindLabel)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// SaveEntry inserts an accepted pair. A pair already present in the category
// keeps its original kind and certifier.
func (s *SQLiteStorage) SaveEntry(ctx context.Context, entry model.WhitelistEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := whitelist.Validate(entry); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO whitelist_entries (category, kind, extracted_value, reference_value, validated_on, certifier)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, extracted_value, reference_value) DO NOTHING
	`, string(entry.Category), string(entry.Kind), entry.ExtractedValue, entry.ReferenceValue,
		entry.ValidatedOn.UTC(), entry.Certifier)
	if err != nil {
		return fmt.Errorf("failed to save whitelist entry: %w", classifyError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit whitelist entry: %w", classifyError(err))
	}
	return nil
}

var _ whitelist.Repository = (*SQLiteStorage)(nil)
