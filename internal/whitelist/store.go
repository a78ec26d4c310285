// Package whitelist memoizes the label pairs certifiers have accepted, so the
// same discrepancy is never submitted for review twice.
package whitelist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/recertify/internal/common"
	"github.com/Veraticus/recertify/internal/model"
)

// Validation errors.
var (
	ErrInvalidEntry    = errors.New("invalid whitelist entry")
	ErrInvalidCategory = errors.New("invalid whitelist category")
	ErrInvalidKind     = errors.New("invalid whitelist kind")
)

// Repository persists whitelist entries. SaveEntry must be idempotent on
// (category, extracted value, reference value) and must not leave a partially
// written store behind on failure.
type Repository interface {
	LoadEntries(ctx context.Context, category model.Category) ([]model.WhitelistEntry, error)
	SaveEntry(ctx context.Context, entry model.WhitelistEntry) error
}

// Store is the in-memory view of a Repository for one batch. It is read once
// by Load and written through on every Append.
type Store struct {
	repo    Repository
	entries map[model.Category]map[model.PairKey]model.WhitelistEntry
	retry   common.RetryOptions
	now     func() time.Time
	mu      sync.RWMutex
}

// NewStore creates a store over repo. Call Load before use.
func NewStore(repo Repository) *Store {
	return &Store{
		repo:    repo,
		entries: make(map[model.Category]map[model.PairKey]model.WhitelistEntry),
		retry: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2.0,
		},
		now: time.Now,
	}
}

// Load reads every category from the repository, replacing the memoized view.
// An absent backing store yields an empty whitelist.
func (s *Store) Load(ctx context.Context) error {
	loaded := make(map[model.Category]map[model.PairKey]model.WhitelistEntry, len(model.Categories))

	for _, category := range model.Categories {
		entries, err := s.repo.LoadEntries(ctx, category)
		if err != nil {
			return fmt.Errorf("failed to load %s whitelist: %w", category, err)
		}
		byKey := make(map[model.PairKey]model.WhitelistEntry, len(entries))
		for _, e := range entries {
			if _, dup := byKey[e.Key()]; dup {
				continue
			}
			byKey[e.Key()] = e
		}
		loaded[category] = byKey
	}

	s.mu.Lock()
	s.entries = loaded
	s.mu.Unlock()

	slog.Debug("Loaded whitelist",
		"profiles", len(loaded[model.CategoryProfile]),
		"departments", len(loaded[model.CategoryDepartment]))
	return nil
}

// Entries returns the entries of a category sorted by extracted then reference value.
func (s *Store) Entries(category model.Category) []model.WhitelistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.WhitelistEntry, 0, len(s.entries[category]))
	for _, e := range s.entries[category] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExtractedValue != out[j].ExtractedValue {
			return out[i].ExtractedValue < out[j].ExtractedValue
		}
		return out[i].ReferenceValue < out[j].ReferenceValue
	})
	return out
}

// Contains reports whether the exact pair was accepted in category, whatever its kind.
func (s *Store) Contains(category model.Category, extracted, reference string) bool {
	return s.Classify(category, extracted, reference) != model.VerdictUnknown
}

// Classify looks the exact pair up in the variation and change partitions.
func (s *Store) Classify(category model.Category, extracted, reference string) model.Verdict {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[category][model.PairKey{ExtractedValue: extracted, ReferenceValue: reference}]
	if !ok {
		return model.VerdictUnknown
	}
	if e.Kind == model.KindChange {
		return model.VerdictChange
	}
	return model.VerdictVariation
}

// Append persists an entry unless its pair is already known in the category.
// It reports whether the entry was new.
func (s *Store) Append(ctx context.Context, entry model.WhitelistEntry) (bool, error) {
	if err := Validate(entry); err != nil {
		return false, err
	}
	if entry.ValidatedOn.IsZero() {
		entry.ValidatedOn = s.now()
	}

	if s.Contains(entry.Category, entry.ExtractedValue, entry.ReferenceValue) {
		return false, nil
	}

	err := common.WithRetry(ctx, func() error {
		return s.repo.SaveEntry(ctx, entry)
	}, s.retry)
	if err != nil {
		return false, fmt.Errorf("%w: %s %q -> %q: %w",
			common.ErrPersistFailed, entry.Category, entry.ExtractedValue, entry.ReferenceValue, err)
	}

	s.mu.Lock()
	if s.entries[entry.Category] == nil {
		s.entries[entry.Category] = make(map[model.PairKey]model.WhitelistEntry)
	}
	s.entries[entry.Category][entry.Key()] = entry
	s.mu.Unlock()

	slog.Debug("Whitelisted pair",
		"category", entry.Category,
		"kind", entry.Kind,
		"extracted", entry.ExtractedValue,
		"reference", entry.ReferenceValue,
		"certifier", entry.Certifier)
	return true, nil
}

// Validate checks an entry before it is persisted.
func Validate(entry model.WhitelistEntry) error {
	switch entry.Category {
	case model.CategoryProfile, model.CategoryDepartment:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCategory, entry.Category)
	}
	switch entry.Kind {
	case model.KindVariation, model.KindChange:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, entry.Kind)
	}
	if strings.TrimSpace(entry.ExtractedValue) == "" && strings.TrimSpace(entry.ReferenceValue) == "" {
		return fmt.Errorf("%w: at least one value is required", ErrInvalidEntry)
	}
	if strings.TrimSpace(entry.Certifier) == "" {
		return fmt.Errorf("%w: certifier is required", ErrInvalidEntry)
	}
	return nil
}
