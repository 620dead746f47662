package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/AnshRaj112/classroom-journal/internal/models"
)

const journalColumns = `id, title, content, tags, created_by, published, published_at, created_at`

// PostgresJournalStore stores journals in a Postgres table, tags as TEXT[].
type PostgresJournalStore struct {
	db *sql.DB
}

func NewPostgresJournalStore(db *sql.DB) *PostgresJournalStore {
	return &PostgresJournalStore{db: db}
}

// InitSchema creates the journals table and its indexes if they don't exist.
func (s *PostgresJournalStore) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS journals (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			tags TEXT[] NOT NULL,
			created_by VARCHAR(255) NOT NULL,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			published_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journals_created_by ON journals(created_by, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_journals_tags ON journals USING GIN (tags)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return errors.Wrap(err, "init journals schema")
		}
	}
	return nil
}

func (s *PostgresJournalStore) Create(ctx context.Context, entry *models.JournalEntry) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO journals (title, content, tags, created_by, published, published_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, entry.Title, entry.Content, pq.Array(entry.Tags), entry.CreatedBy, entry.Published, entry.PublishedAt, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return errors.Wrap(err, "insert journal")
	}
	return nil
}

func (s *PostgresJournalStore) FindByID(ctx context.Context, id string) (*models.JournalEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.WithStack(models.ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+journalColumns+` FROM journals WHERE id = $1`, id)

	entry, err := scanJournal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(models.ErrNotFound)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find journal %s", id)
	}
	return entry, nil
}

func (s *PostgresJournalStore) Find(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, error) {
	var (
		conditions []string
		args       []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CreatedBy != "" {
		conditions = append(conditions, "created_by = "+arg(filter.CreatedBy))
	}
	if filter.Tag != "" {
		conditions = append(conditions, arg(filter.Tag)+" = ANY(tags)")
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "published = TRUE")
	}
	if filter.PublishedBefore != nil {
		conditions = append(conditions, "published_at <= "+arg(*filter.PublishedBefore))
	}

	query := `SELECT ` + journalColumns + ` FROM journals`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "find journals")
	}
	defer rows.Close()

	entries := make([]models.JournalEntry, 0)
	for rows.Next() {
		entry, err := scanJournal(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan journal")
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	return entries, nil
}

// Save replaces the mutable columns. created_by and created_at are never written.
func (s *PostgresJournalStore) Save(ctx context.Context, entry *models.JournalEntry) error {
	if _, err := uuid.Parse(entry.ID); err != nil {
		return errors.WithStack(models.ErrNotFound)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE journals
		SET title = $2, content = $3, tags = $4, published = $5, published_at = $6
		WHERE id = $1
	`, entry.ID, entry.Title, entry.Content, pq.Array(entry.Tags), entry.Published, entry.PublishedAt)
	if err != nil {
		return errors.Wrapf(err, "update journal %s", entry.ID)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errors.WithStack(models.ErrNotFound)
	}
	return nil
}

func (s *PostgresJournalStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.WithStack(models.ErrNotFound)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM journals WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete journal %s", id)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errors.WithStack(models.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJournal(row rowScanner) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := row.Scan(
		&entry.ID,
		&entry.Title,
		&entry.Content,
		pq.Array(&entry.Tags),
		&entry.CreatedBy,
		&entry.Published,
		&entry.PublishedAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}
	return &entry, nil
}
