package services

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/classroom-journal/internal/models"
	"github.com/AnshRaj112/classroom-journal/internal/repository"
)

var (
	testNow  = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	teacher  = models.Teacher{ID: "t-1"}
	teacher2 = models.Teacher{ID: "t-2"}
	student  = models.Student{ID: "s-1"}
	student2 = models.Student{ID: "s-2"}
)

func newTestService(t *testing.T, opts ...JournalServiceOption) (*JournalService, *repository.MemoryJournalStore) {
	t.Helper()
	store := repository.NewMemoryJournalStore()
	opts = append([]JournalServiceOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewJournalService(store, opts...), store
}

func validCreateInput() CreateJournalInput {
	return CreateJournalInput{
		Title:       "Week 1",
		Content:     "Read chapter 3",
		Tags:        []string{"science", "s-1"},
		PublishedAt: testNow.Add(-24 * time.Hour),
	}
}

func createEntry(t *testing.T, svc *JournalService, author models.Identity) *models.JournalEntry {
	t.Helper()
	result, err := svc.Create(context.Background(), author, validCreateInput())
	require.NoError(t, err)
	require.False(t, result.Scheduled)
	require.NotNil(t, result.Entry)
	return result.Entry
}

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (s failingStore) Create(context.Context, *models.JournalEntry) error { return s.err }
func (s failingStore) FindByID(context.Context, string) (*models.JournalEntry, error) {
	return nil, s.err
}
func (s failingStore) Find(context.Context, models.JournalFilter) ([]models.JournalEntry, error) {
	return nil, s.err
}
func (s failingStore) Save(context.Context, *models.JournalEntry) error { return s.err }
func (s failingStore) Delete(context.Context, string) error            { return s.err }

func TestJournalService_NonTeacherForbidden(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	entry := createEntry(t, svc, teacher)

	_, err := svc.Create(ctx, student, validCreateInput())
	assert.True(t, errors.Is(err, models.ErrForbidden), "create: %v", err)

	_, err = svc.Update(ctx, student, entry.ID, UpdateJournalInput{Title: "x", Content: "y", Tags: []string{"z"}})
	assert.True(t, errors.Is(err, models.ErrForbidden), "update: %v", err)

	err = svc.Delete(ctx, student, entry.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden), "delete: %v", err)

	_, err = svc.Publish(ctx, student, entry.ID, PublishJournalInput{PublishedAt: testNow})
	assert.True(t, errors.Is(err, models.ErrForbidden), "publish: %v", err)

	_, err = svc.ListForTeacher(ctx, student)
	assert.True(t, errors.Is(err, models.ErrForbidden), "list teacher: %v", err)

	// Role is checked before existence.
	_, err = svc.Publish(ctx, student, "missing", PublishJournalInput{PublishedAt: testNow})
	assert.True(t, errors.Is(err, models.ErrForbidden))

	assert.Equal(t, 1, store.Len())
}

func TestJournalService_NonStudentForbidden(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ListForStudent(context.Background(), teacher)
	assert.True(t, errors.Is(err, models.ErrForbidden))
}

func TestJournalService_Create(t *testing.T) {
	svc, store := newTestService(t)

	result, err := svc.Create(context.Background(), teacher, validCreateInput())
	require.NoError(t, err)
	require.NotNil(t, result.Entry)

	entry := result.Entry
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "t-1", entry.CreatedBy)
	assert.False(t, entry.Published)
	assert.Equal(t, testNow.Add(-24*time.Hour), entry.PublishedAt)
	assert.Equal(t, testNow, entry.CreatedAt)
	assert.Equal(t, 1, store.Len())
}

func TestJournalService_CreateFutureIsScheduledNotStored(t *testing.T) {
	svc, store := newTestService(t)

	input := validCreateInput()
	input.PublishedAt = testNow.Add(time.Minute)

	result, err := svc.Create(context.Background(), teacher, input)
	require.NoError(t, err)
	assert.True(t, result.Scheduled)
	assert.Nil(t, result.Entry)
	assert.Equal(t, 0, store.Len())
}

func TestJournalService_CreateAtNowIsStored(t *testing.T) {
	svc, store := newTestService(t)

	input := validCreateInput()
	input.PublishedAt = testNow

	result, err := svc.Create(context.Background(), teacher, input)
	require.NoError(t, err)
	assert.False(t, result.Scheduled)
	assert.Equal(t, 1, store.Len())
}

func TestJournalService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateJournalInput)
	}{
		{"missing title", func(in *CreateJournalInput) { in.Title = "" }},
		{"blank content", func(in *CreateJournalInput) { in.Content = "   " }},
		{"no tags", func(in *CreateJournalInput) { in.Tags = nil }},
		{"blank tag", func(in *CreateJournalInput) { in.Tags = []string{"s-1", " "} }},
		{"missing publishedAt", func(in *CreateJournalInput) { in.PublishedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			input := validCreateInput()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), teacher, input)
			assert.True(t, errors.Is(err, models.ErrInvalidInput), "got %v", err)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestJournalService_CreateKeepsTextAndNormalizesTags(t *testing.T) {
	svc, _ := newTestService(t)

	input := validCreateInput()
	input.Title = "  <b>Q&A</b> week  "
	input.Content = `<p>Hello</p><script>alert("x")</script>`
	input.Tags = []string{" s-1 ", "math", "s-1"}

	result, err := svc.Create(context.Background(), teacher, input)
	require.NoError(t, err)
	assert.Equal(t, "<b>Q&A</b> week", result.Entry.Title)
	assert.Equal(t, `<p>Hello</p><script>alert("x")</script>`, result.Entry.Content)
	assert.Equal(t, []string{"s-1", "math"}, result.Entry.Tags)
}

func TestJournalService_PlainTextIsNotEscaped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := validCreateInput()
	input.Title = "&lt;b&gt; Tom & Jerry's"
	input.Content = `Tom & Jerry's notes: 2 < 3 "quoted"`

	result, err := svc.Create(ctx, teacher, input)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt; Tom & Jerry's", result.Entry.Title)
	assert.Equal(t, `Tom & Jerry's notes: 2 < 3 "quoted"`, result.Entry.Content)

	entries, err := svc.ListForTeacher(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "&lt;b&gt; Tom & Jerry's", entries[0].Title)
	assert.Equal(t, `Tom & Jerry's notes: 2 < 3 "quoted"`, entries[0].Content)
}

func TestJournalService_Update(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	entry := createEntry(t, svc, teacher)

	updated, err := svc.Update(ctx, teacher, entry.ID, UpdateJournalInput{
		Title:   "Week 1 (revised)",
		Content: "Read chapters 3 and 4",
		Tags:    []string{"s-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Week 1 (revised)", updated.Title)
	assert.Equal(t, []string{"s-2"}, updated.Tags)

	// Immutable and publication fields are untouched.
	assert.Equal(t, entry.ID, updated.ID)
	assert.Equal(t, entry.CreatedBy, updated.CreatedBy)
	assert.Equal(t, entry.CreatedAt, updated.CreatedAt)
	assert.Equal(t, entry.PublishedAt, updated.PublishedAt)
	assert.Equal(t, entry.Published, updated.Published)

	entries, err := svc.ListForTeacher(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Read chapters 3 and 4", entries[0].Content)
}

func TestJournalService_UpdateErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	entry := createEntry(t, svc, teacher)
	input := UpdateJournalInput{Title: "x", Content: "y", Tags: []string{"z"}}

	_, err := svc.Update(ctx, teacher, "missing", input)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = svc.Update(ctx, teacher2, entry.ID, input)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	// Ownership is decided before input validation.
	_, err = svc.Update(ctx, teacher2, entry.ID, UpdateJournalInput{})
	assert.True(t, errors.Is(err, models.ErrForbidden))

	_, err = svc.Update(ctx, teacher, entry.ID, UpdateJournalInput{Title: "x"})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestJournalService_Delete(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	entry := createEntry(t, svc, teacher)

	assert.True(t, errors.Is(svc.Delete(ctx, teacher, "missing"), models.ErrNotFound))
	assert.True(t, errors.Is(svc.Delete(ctx, teacher2, entry.ID), models.ErrForbidden))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, svc.Delete(ctx, teacher, entry.ID))
	assert.Equal(t, 0, store.Len())
	assert.True(t, errors.Is(svc.Delete(ctx, teacher, entry.ID), models.ErrNotFound))
}

func TestJournalService_Publish(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	entry := createEntry(t, svc, teacher)

	_, err := svc.Publish(ctx, teacher, "missing", PublishJournalInput{PublishedAt: testNow})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = svc.Publish(ctx, teacher, entry.ID, PublishJournalInput{PublishedAt: testNow.Add(time.Hour)})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = svc.Publish(ctx, teacher, entry.ID, PublishJournalInput{})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	published, err := svc.Publish(ctx, teacher, entry.ID, PublishJournalInput{PublishedAt: testNow})
	require.NoError(t, err)
	assert.True(t, published.Published)
	assert.Equal(t, testNow, published.PublishedAt)

	// Already published wins regardless of who asks.
	_, err = svc.Publish(ctx, teacher, entry.ID, PublishJournalInput{PublishedAt: testNow})
	assert.True(t, errors.Is(err, models.ErrAlreadyPublished))
	_, err = svc.Publish(ctx, teacher2, entry.ID, PublishJournalInput{PublishedAt: testNow})
	assert.True(t, errors.Is(err, models.ErrAlreadyPublished))
}

func TestJournalService_PublishByAnotherTeacher(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed by default", func(t *testing.T) {
		svc, _ := newTestService(t)
		entry := createEntry(t, svc, teacher)

		published, err := svc.Publish(ctx, teacher2, entry.ID, PublishJournalInput{PublishedAt: testNow})
		require.NoError(t, err)
		assert.True(t, published.Published)
		assert.Equal(t, "t-1", published.CreatedBy)
	})

	t.Run("forbidden when ownership enforced", func(t *testing.T) {
		svc, _ := newTestService(t, WithPublishOwnership(true))
		entry := createEntry(t, svc, teacher)

		_, err := svc.Publish(ctx, teacher2, entry.ID, PublishJournalInput{PublishedAt: testNow})
		assert.True(t, errors.Is(err, models.ErrForbidden))

		_, err = svc.Publish(ctx, teacher, entry.ID, PublishJournalInput{PublishedAt: testNow})
		assert.NoError(t, err)
	})
}

func TestJournalService_ListForTeacher(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.ListForTeacher(ctx, teacher)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first := createEntry(t, svc, teacher)
	createEntry(t, svc, teacher2)
	_, err = svc.Publish(ctx, teacher, first.ID, PublishJournalInput{PublishedAt: testNow})
	require.NoError(t, err)
	createEntry(t, svc, teacher)

	entries, err := svc.ListForTeacher(ctx, teacher)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "t-1", e.CreatedBy)
	}

	again, err := svc.ListForTeacher(ctx, teacher)
	require.NoError(t, err)
	assert.Equal(t, entries, again)
}

func TestJournalService_ListForStudentVisibility(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryJournalStore()
	svc := NewJournalService(store, WithClock(func() time.Time { return testNow }))

	seed := []*models.JournalEntry{
		{Title: "visible", Tags: []string{"s-1"}, CreatedBy: "t-1", Published: true, PublishedAt: testNow.Add(-time.Hour)},
		{Title: "draft", Tags: []string{"s-1"}, CreatedBy: "t-1", Published: false, PublishedAt: testNow.Add(-time.Hour)},
		{Title: "future", Tags: []string{"s-1"}, CreatedBy: "t-1", Published: true, PublishedAt: testNow.Add(time.Hour)},
		{Title: "other student", Tags: []string{"s-2"}, CreatedBy: "t-1", Published: true, PublishedAt: testNow.Add(-time.Hour)},
	}
	for _, e := range seed {
		require.NoError(t, store.Create(ctx, e))
	}

	entries, err := svc.ListForStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "visible", entries[0].Title)

	nobody, err := svc.ListForStudent(ctx, models.Student{ID: "s-9"})
	require.NoError(t, err)
	assert.NotNil(t, nobody)
	assert.Empty(t, nobody)
}

func TestJournalService_EndToEndExample(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	entry := createEntry(t, svc, teacher)
	assert.False(t, entry.Published)

	_, err := svc.Publish(ctx, teacher, entry.ID, PublishJournalInput{PublishedAt: testNow})
	require.NoError(t, err)

	feed, err := svc.ListForStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, entry.ID, feed[0].ID)

	feed, err = svc.ListForStudent(ctx, student2)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestJournalService_StoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := NewJournalService(failingStore{err: storeErr}, WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	_, err := svc.Create(ctx, teacher, validCreateInput())
	assert.True(t, errors.Is(err, storeErr))
	assert.Equal(t, "error", Outcome(err))

	_, err = svc.Update(ctx, teacher, "id", UpdateJournalInput{Title: "x", Content: "y", Tags: []string{"z"}})
	assert.True(t, errors.Is(err, storeErr))

	assert.True(t, errors.Is(svc.Delete(ctx, teacher, "id"), storeErr))

	_, err = svc.Publish(ctx, teacher, "id", PublishJournalInput{PublishedAt: testNow})
	assert.True(t, errors.Is(err, storeErr))

	_, err = svc.ListForTeacher(ctx, teacher)
	assert.True(t, errors.Is(err, storeErr))

	_, err = svc.ListForStudent(ctx, student)
	assert.True(t, errors.Is(err, storeErr))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "forbidden", Outcome(errors.Wrap(models.ErrForbidden, "x")))
	assert.Equal(t, "not_found", Outcome(errors.WithStack(models.ErrNotFound)))
	assert.Equal(t, "already_published", Outcome(models.ErrAlreadyPublished))
	assert.Equal(t, "invalid_input", Outcome(models.ErrInvalidInput))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}
