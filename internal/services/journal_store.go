package services

import (
	"context"

	"github.com/AnshRaj112/classroom-journal/internal/models"
)

// JournalStore persists journal entries. Implementations return
// models.ErrNotFound (possibly wrapped) when an entry is absent.
type JournalStore interface {
	// Create assigns entry.ID.
	Create(ctx context.Context, entry *models.JournalEntry) error
	FindByID(ctx context.Context, id string) (*models.JournalEntry, error)
	Find(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error)
	// Save replaces the stored entry with the same ID.
	Save(ctx context.Context, entry *models.JournalEntry) error
	Delete(ctx context.Context, id string) error
}
