package models

import "time"

// JournalEntry is a teacher-authored journal document. Tags double as
// recipient addressing: a tag equal to a student's id makes the entry
// visible to that student once published.
type JournalEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	CreatedBy   string    `json:"createdBy"`
	Published   bool      `json:"published"`
	PublishedAt time.Time `json:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasTag reports whether tag appears in the entry's tags.
func (e *JournalEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can't alias the tags slice.
func (e *JournalEntry) Clone() *JournalEntry {
	c := *e
	if e.Tags != nil {
		c.Tags = make([]string, len(e.Tags))
		copy(c.Tags, e.Tags)
	}
	return &c
}

// JournalFilter narrows a journal query. Zero-valued fields don't constrain.
type JournalFilter struct {
	CreatedBy       string
	Tag             string
	PublishedOnly   bool
	PublishedBefore *time.Time // inclusive
}

// Matches evaluates the filter in-process, for stores without a query language.
func (f JournalFilter) Matches(e *JournalEntry) bool {
	if f.CreatedBy != "" && e.CreatedBy != f.CreatedBy {
		return false
	}
	if f.Tag != "" && !e.HasTag(f.Tag) {
		return false
	}
	if f.PublishedOnly && !e.Published {
		return false
	}
	if f.PublishedBefore != nil && e.PublishedAt.After(*f.PublishedBefore) {
		return false
	}
	return true
}
