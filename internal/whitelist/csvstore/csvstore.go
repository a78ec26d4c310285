// Package csvstore keeps the whitelist as one CSV file per category and kind,
// the layout certifiers can open in a spreadsheet.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/recertify/internal/common"
	"github.com/Veraticus/recertify/internal/model"
)

// DateLayout is the format of the validated_on column.
const DateLayout = "2006-01-02"

// staleLockAge is how old a lock file must be before it is considered abandoned.
const staleLockAge = 30 * time.Second

var header = []string{"extracted_value", "reference_value", "validated_on", "certifier", "kind"}

// Store is a whitelist.Repository backed by CSV files in a directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: csv whitelist directory", common.ErrMissingConfig)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create whitelist directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// PartitionPath returns the file holding one category and kind.
func (s *Store) PartitionPath(category model.Category, kind model.Kind) string {
	var suffix string
	switch kind {
	case model.KindChange:
		suffix = "changes"
	default:
		suffix = "variations"
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.csv", category, suffix))
}

// LoadEntries reads the variation then change partition of a category.
// Missing files are empty partitions.
func (s *Store) LoadEntries(_ context.Context, category model.Category) ([]model.WhitelistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []model.WhitelistEntry
	for _, kind := range []model.Kind{model.KindVariation, model.KindChange} {
		entries, err := s.readPartition(category, kind)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// SaveEntry adds an entry to its partition and rewrites the partition
// atomically. Pairs already present in either partition of the category are
// left untouched.
func (s *Store) SaveEntry(_ context.Context, entry model.WhitelistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(entry.Category)
	if err != nil {
		return err
	}
	defer unlock()

	other := model.KindChange
	if entry.Kind == model.KindChange {
		other = model.KindVariation
	}
	otherEntries, err := s.readPartition(entry.Category, other)
	if err != nil {
		return err
	}
	for _, e := range otherEntries {
		if e.Key() == entry.Key() {
			return nil
		}
	}

	entries, err := s.readPartition(entry.Category, entry.Kind)
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	return s.writePartition(entry.Category, entry.Kind, dedupe(entries))
}

func dedupe(entries []model.WhitelistEntry) []model.WhitelistEntry {
	seen := make(map[model.PairKey]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e.Key()]; ok {
			continue
		}
		seen[e.Key()] = struct{}{}
		out = append(out, e)
	}
	return out
}

func (s *Store) readPartition(category model.Category, kind model.Kind) ([]model.WhitelistEntry, error) {
	path := s.PartitionPath(category, kind)
	f, err := os.Open(path) //nolint:gosec // path is built from the configured directory
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	cols, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	for _, required := range header[:2] {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var entries []model.WhitelistEntry
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		e := model.WhitelistEntry{
			ExtractedValue: field(rec, "extracted_value"),
			ReferenceValue: field(rec, "reference_value"),
			Certifier:      field(rec, "certifier"),
			Category:       category,
			Kind:           kind,
		}
		if d := field(rec, "validated_on"); d != "" {
			if t, err := time.Parse(DateLayout, d); err == nil {
				e.ValidatedOn = t
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) writePartition(category model.Category, kind model.Kind, entries []model.WhitelistEntry) error {
	path := s.PartitionPath(category, kind)

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary partition: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		validated := ""
		if !e.ValidatedOn.IsZero() {
			validated = e.ValidatedOn.Format(DateLayout)
		}
		if err := w.Write([]string{e.ExtractedValue, e.ReferenceValue, validated, e.Certifier, string(kind)}); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush partition: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync partition: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close partition: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// lock takes an exclusive lock file for a category so that two processes do
// not interleave their read-modify-write cycles.
func (s *Store) lock(category model.Category) (func(), error) {
	path := filepath.Join(s.dir, fmt.Sprintf(".%s.lock", category))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600) //nolint:gosec // path is built from the configured directory
	if errors.Is(err, os.ErrExist) {
		info, statErr := os.Stat(path)
		if statErr == nil && time.Since(info.ModTime()) > staleLockAge && os.Remove(path) == nil {
			return s.lock(category)
		}
		return nil, fmt.Errorf("%w: %s is locked", common.ErrStoreBusy, category)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s whitelist: %w", category, err)
	}
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	_ = f.Close()

	return func() { _ = os.Remove(path) }, nil
}
