package testutil

import (
	"context"
	"sync"

	"github.com/Veraticus/recertify/internal/model"
)

// MemoryRepository is an in-memory whitelist repository. SaveErr, when set,
// is returned by every SaveEntry call.
type MemoryRepository struct {
	SaveErr error
	LoadErr error
	entries []model.WhitelistEntry
	saves   int
	mu      sync.Mutex
}

// NewMemoryRepository returns a repository holding the given entries.
func NewMemoryRepository(entries ...model.WhitelistEntry) *MemoryRepository {
	return &MemoryRepository{entries: append([]model.WhitelistEntry(nil), entries...)}
}

// LoadEntries returns the stored entries of a category.
func (m *MemoryRepository) LoadEntries(_ context.Context, category model.Category) ([]model.WhitelistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	var out []model.WhitelistEntry
	for _, e := range m.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}

// SaveEntry stores an entry unless the same pair is already present.
func (m *MemoryRepository) SaveEntry(_ context.Context, entry model.WhitelistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	for _, e := range m.entries {
		if e.Key() == entry.Key() {
			return nil
		}
	}
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of everything stored.
func (m *MemoryRepository) Entries() []model.WhitelistEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.WhitelistEntry(nil), m.entries...)
}

// Saves returns how many times SaveEntry was called.
func (m *MemoryRepository) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
