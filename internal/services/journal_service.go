package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/AnshRaj112/classroom-journal/internal/logging"
	"github.com/AnshRaj112/classroom-journal/internal/metrics"
	"github.com/AnshRaj112/classroom-journal/internal/models"
	"github.com/AnshRaj112/classroom-journal/internal/policy"
)

const (
	OperationCreate         = "create"
	OperationUpdate         = "update"
	OperationDelete         = "delete"
	OperationPublish        = "publish"
	OperationListForTeacher = "list_teacher"
	OperationListForStudent = "list_student"
)

type CreateJournalInput struct {
	Title       string
	Content     string
	Tags        []string
	PublishedAt time.Time
}

type UpdateJournalInput struct {
	Title   string
	Content string
	Tags    []string
}

type PublishJournalInput struct {
	PublishedAt time.Time
}

// CreateResult is either a persisted Entry or a Scheduled acknowledgment.
// A scheduled create is not stored.
type CreateResult struct {
	Entry     *models.JournalEntry
	Scheduled bool
}

type JournalServiceOption func(*JournalService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) JournalServiceOption {
	return func(s *JournalService) {
		s.now = now
	}
}

// WithPublishOwnership makes Publish require the caller to be the author,
// like Update and Delete do.
func WithPublishOwnership(enabled bool) JournalServiceOption {
	return func(s *JournalService) {
		s.publishRequiresOwner = enabled
	}
}

// JournalService applies the access policy to every journal operation
// before touching the store.
type JournalService struct {
	store                JournalStore
	now                  func() time.Time
	publishRequiresOwner bool
}

func NewJournalService(store JournalStore, opts ...JournalServiceOption) *JournalService {
	s := &JournalService{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new draft entry authored by the calling teacher. A
// publishedAt strictly in the future yields a Scheduled result and nothing
// is stored.
func (s *JournalService) Create(ctx context.Context, identity models.Identity, input CreateJournalInput) (result CreateResult, err error) {
	defer func() { s.observe(ctx, OperationCreate, result.Scheduled, err) }()

	teacher, err := policy.RequireTeacher(identity)
	if err != nil {
		return CreateResult{}, err
	}

	fields, err := validateFields(input.Title, input.Content, input.Tags)
	if err != nil {
		return CreateResult{}, err
	}
	if err := validatePublishedAt(input.PublishedAt); err != nil {
		return CreateResult{}, err
	}

	now := s.now()
	if policy.IsFuture(input.PublishedAt, now) {
		logging.FromContext(ctx).WithFields(logrus.Fields{
			"teacher_id":   teacher.ID,
			"published_at": input.PublishedAt,
		}).Warn("future-dated journal acknowledged as scheduled and not stored")
		return CreateResult{Scheduled: true}, nil
	}

	entry := &models.JournalEntry{
		Title:       fields.Title,
		Content:     fields.Content,
		Tags:        fields.Tags,
		CreatedBy:   teacher.ID,
		Published:   false,
		PublishedAt: input.PublishedAt,
		CreatedAt:   now,
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return CreateResult{}, errors.WithStack(err)
	}

	return CreateResult{Entry: entry}, nil
}

// Update replaces title, content and tags of an entry owned by the caller.
func (s *JournalService) Update(ctx context.Context, identity models.Identity, id string, input UpdateJournalInput) (entry *models.JournalEntry, err error) {
	defer func() { s.observe(ctx, OperationUpdate, false, err) }()

	teacher, err := policy.RequireTeacher(identity)
	if err != nil {
		return nil, err
	}

	entry, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := policy.RequireOwner(teacher, entry); err != nil {
		return nil, err
	}

	fields, err := validateFields(input.Title, input.Content, input.Tags)
	if err != nil {
		return nil, err
	}

	entry.Title = fields.Title
	entry.Content = fields.Content
	entry.Tags = fields.Tags

	if err := s.store.Save(ctx, entry); err != nil {
		return nil, errors.WithStack(err)
	}

	return entry, nil
}

// Delete permanently removes an entry owned by the caller.
func (s *JournalService) Delete(ctx context.Context, identity models.Identity, id string) (err error) {
	defer func() { s.observe(ctx, OperationDelete, false, err) }()

	teacher, err := policy.RequireTeacher(identity)
	if err != nil {
		return err
	}

	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := policy.RequireOwner(teacher, entry); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, entry.ID); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Publish flips an entry to published with the given publishedAt. Ownership
// is only checked when WithPublishOwnership is enabled.
func (s *JournalService) Publish(ctx context.Context, identity models.Identity, id string, input PublishJournalInput) (entry *models.JournalEntry, err error) {
	defer func() { s.observe(ctx, OperationPublish, false, err) }()

	teacher, err := policy.RequireTeacher(identity)
	if err != nil {
		return nil, err
	}

	entry, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if s.publishRequiresOwner {
		if err := policy.RequireOwner(teacher, entry); err != nil {
			return nil, err
		}
	}

	if entry.Published {
		return nil, errors.WithStack(models.ErrAlreadyPublished)
	}

	if err := validatePublishedAt(input.PublishedAt); err != nil {
		return nil, err
	}
	if policy.IsFuture(input.PublishedAt, s.now()) {
		return nil, errors.Wrap(models.ErrInvalidInput, "cannot publish a journal with a future publishing date")
	}

	entry.Published = true
	entry.PublishedAt = input.PublishedAt

	if err := s.store.Save(ctx, entry); err != nil {
		return nil, errors.WithStack(err)
	}

	return entry, nil
}

// ListForTeacher returns every entry the caller authored, in any state.
func (s *JournalService) ListForTeacher(ctx context.Context, identity models.Identity) (entries []models.JournalEntry, err error) {
	defer func() { s.observe(ctx, OperationListForTeacher, false, err) }()

	teacher, err := policy.RequireTeacher(identity)
	if err != nil {
		return nil, err
	}

	found, err := s.store.Find(ctx, models.JournalFilter{CreatedBy: teacher.ID})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	entries = make([]models.JournalEntry, 0, len(found))
	entries = append(entries, found...)
	return entries, nil
}

// ListForStudent returns the published entries tagged with the caller's id
// whose publishedAt has passed.
func (s *JournalService) ListForStudent(ctx context.Context, identity models.Identity) (entries []models.JournalEntry, err error) {
	defer func() { s.observe(ctx, OperationListForStudent, false, err) }()

	student, err := policy.RequireStudent(identity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	found, err := s.store.Find(ctx, models.JournalFilter{
		Tag:             student.ID,
		PublishedOnly:   true,
		PublishedBefore: &now,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	entries = make([]models.JournalEntry, 0, len(found))
	for i := range found {
		if policy.IsVisibleToStudent(&found[i], student.ID, now) {
			entries = append(entries, found[i])
		}
	}
	return entries, nil
}

func (s *JournalService) observe(ctx context.Context, operation string, scheduled bool, err error) {
	outcome := Outcome(err)
	if scheduled {
		outcome = "scheduled"
	}
	metrics.JournalOperations.WithLabelValues(operation, outcome).Inc()

	entry := logging.FromContext(ctx).WithFields(logrus.Fields{
		"operation": operation,
		"outcome":   outcome,
	})
	switch outcome {
	case "ok", "scheduled":
		entry.Debug("journal operation completed")
	case "error":
		entry.WithError(err).Error("journal operation failed")
	default:
		entry.WithError(err).Info("journal operation rejected")
	}
}

// Outcome classifies err into a short label used for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrForbidden):
		return "forbidden"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrAlreadyPublished):
		return "already_published"
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
