package services

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/AnshRaj112/classroom-journal/internal/models"
)

// normalizeTags trims every tag and drops duplicates, keeping first
// occurrence order. Blank tags are rejected since a tag may address a student.
func normalizeTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, errors.Wrap(models.ErrInvalidInput, "tags are required")
	}

	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return nil, errors.Wrap(models.ErrInvalidInput, "tags must not be blank")
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out, nil
}

type journalFields struct {
	Title   string
	Content string
	Tags    []string
}

// validateFields trims title and content and otherwise stores them as
// submitted. Escaping is left to whoever renders them.
func validateFields(title, content string, tags []string) (journalFields, error) {
	fields := journalFields{
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
	}
	if fields.Title == "" || fields.Content == "" || len(tags) == 0 {
		return journalFields{}, errors.Wrap(models.ErrInvalidInput, "all fields are mandatory")
	}

	normalized, err := normalizeTags(tags)
	if err != nil {
		return journalFields{}, err
	}
	fields.Tags = normalized

	return fields, nil
}

func validatePublishedAt(publishedAt time.Time) error {
	if publishedAt.IsZero() {
		return errors.Wrap(models.ErrInvalidInput, "publishedAt is required")
	}
	return nil
}
