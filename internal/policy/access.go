// Package policy holds the access decisions for journal entries. Every
// function is pure: the same inputs always give the same answer.
package policy

import (
	"time"

	"github.com/pkg/errors"

	"github.com/AnshRaj112/classroom-journal/internal/models"
)

// RequireRole fails with models.ErrForbidden unless identity has the given role.
func RequireRole(identity models.Identity, role models.Role) error {
	switch identity.(type) {
	case models.Teacher:
		if role == models.RoleTeacher {
			return nil
		}
	case models.Student:
		if role == models.RoleStudent {
			return nil
		}
	}
	return errors.Wrapf(models.ErrForbidden, "%s role required", role)
}

// RequireTeacher is RequireRole for teachers, returning the typed identity.
func RequireTeacher(identity models.Identity) (models.Teacher, error) {
	if err := RequireRole(identity, models.RoleTeacher); err != nil {
		return models.Teacher{}, err
	}
	return identity.(models.Teacher), nil
}

// RequireStudent is RequireRole for students, returning the typed identity.
func RequireStudent(identity models.Identity) (models.Student, error) {
	if err := RequireRole(identity, models.RoleStudent); err != nil {
		return models.Student{}, err
	}
	return identity.(models.Student), nil
}

// RequireOwner fails with models.ErrForbidden unless teacher authored entry.
func RequireOwner(teacher models.Teacher, entry *models.JournalEntry) error {
	if entry.CreatedBy != teacher.ID {
		return errors.Wrap(models.ErrForbidden, "journal belongs to another teacher")
	}
	return nil
}

// IsVisibleToStudent reports whether a student may read entry at now.
func IsVisibleToStudent(entry *models.JournalEntry, studentID string, now time.Time) bool {
	return entry.Published && !IsFuture(entry.PublishedAt, now) && entry.HasTag(studentID)
}

// IsFuture reports whether t is strictly after now.
func IsFuture(t time.Time, now time.Time) bool {
	return t.After(now)
}
