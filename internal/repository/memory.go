package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/AnshRaj112/classroom-journal/internal/models"
)

// MemoryJournalStore keeps journals in process memory. Entries are copied
// on the way in and out so callers never share state with the store.
type MemoryJournalStore struct {
	mu      sync.RWMutex
	entries map[string]*models.JournalEntry
}

func NewMemoryJournalStore() *MemoryJournalStore {
	return &MemoryJournalStore{
		entries: make(map[string]*models.JournalEntry),
	}
}

func (s *MemoryJournalStore) Create(_ context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = uuid.NewString()
	s.entries[entry.ID] = entry.Clone()
	return nil
}

func (s *MemoryJournalStore) FindByID(_ context.Context, id string) (*models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, errors.WithStack(models.ErrNotFound)
	}
	return entry.Clone(), nil
}

func (s *MemoryJournalStore) Find(_ context.Context, filter models.JournalFilter) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.JournalEntry, 0)
	for _, entry := range s.entries {
		if filter.Matches(entry) {
			out = append(out, *entry.Clone())
		}
	}

	// Newest first, like the database-backed stores.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *MemoryJournalStore) Save(_ context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.ID]; !ok {
		return errors.WithStack(models.ErrNotFound)
	}
	s.entries[entry.ID] = entry.Clone()
	return nil
}

func (s *MemoryJournalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return errors.WithStack(models.ErrNotFound)
	}
	delete(s.entries, id)
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryJournalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
