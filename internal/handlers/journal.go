package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/AnshRaj112/classroom-journal/internal/auth"
	"github.com/AnshRaj112/classroom-journal/internal/logging"
	"github.com/AnshRaj112/classroom-journal/internal/models"
	"github.com/AnshRaj112/classroom-journal/internal/services"
)

const (
	dateLayout          = "2006-01-02"
	localDateTimeLayout = "2006-01-02T15:04:05"

	maxBodySize = 1 << 20
)

var errBadPublishedAt = errors.New("publishedAt must be an ISO 8601 timestamp or a YYYY-MM-DD date")

type CreateJournalRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	PublishedAt string   `json:"publishedAt"`
}

type UpdateJournalRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type PublishJournalRequest struct {
	PublishedAt string `json:"publishedAt"`
}

type JournalResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Journal *models.JournalEntry `json:"journal,omitempty"`
}

type JournalListResponse struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message,omitempty"`
	Journals []models.JournalEntry `json:"journals"`
	Total    int                   `json:"total"`
}

// JournalHandler exposes the journal service over HTTP. Routes must sit
// behind middleware.Authenticate.
type JournalHandler struct {
	service *services.JournalService
}

func NewJournalHandler(service *services.JournalService) *JournalHandler {
	return &JournalHandler{service: service}
}

// CreateJournal handles POST /journal.
func (h *JournalHandler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req CreateJournalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	publishedAt, err := parsePublishedAt(req.PublishedAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, JournalResponse{Success: false, Message: err.Error()})
		return
	}

	result, err := h.service.Create(r.Context(), identity, services.CreateJournalInput{
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		PublishedAt: publishedAt,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if result.Scheduled {
		writeJSON(w, http.StatusOK, JournalResponse{
			Success: true,
			Message: "Journal scheduled for future publication",
		})
		return
	}

	writeJSON(w, http.StatusCreated, JournalResponse{
		Success: true,
		Message: "Journal created successfully",
		Journal: result.Entry,
	})
}

// UpdateJournal handles PUT /journal/{id}.
func (h *JournalHandler) UpdateJournal(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req UpdateJournalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.service.Update(r.Context(), identity, chi.URLParam(r, "id"), services.UpdateJournalInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JournalResponse{
		Success: true,
		Message: "Journal updated successfully",
		Journal: entry,
	})
}

// DeleteJournal handles DELETE /journal/{id}.
func (h *JournalHandler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JournalResponse{Success: true, Message: "Journal deleted"})
}

// PublishJournal handles PUT /journal/{id}/publish.
func (h *JournalHandler) PublishJournal(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req PublishJournalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	publishedAt, err := parsePublishedAt(req.PublishedAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, JournalResponse{Success: false, Message: err.Error()})
		return
	}

	entry, err := h.service.Publish(r.Context(), identity, chi.URLParam(r, "id"), services.PublishJournalInput{
		PublishedAt: publishedAt,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JournalResponse{
		Success: true,
		Message: "Journal published successfully",
		Journal: entry,
	})
}

// TeacherFeed handles GET /journal/feed/teacher: every entry the caller wrote.
func (h *JournalHandler) TeacherFeed(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListForTeacher(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JournalListResponse{Success: true, Journals: entries, Total: len(entries)})
}

// StudentFeed handles GET /journal/feed/student: published, due entries
// tagged with the caller's id.
func (h *JournalHandler) StudentFeed(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListForStudent(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JournalListResponse{Success: true, Journals: entries, Total: len(entries)})
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, JournalResponse{Success: false, Message: "Authentication required"})
		return nil, false
	}
	return identity, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, JournalResponse{Success: false, Message: "Request body too large"})
			return false
		}
		logging.FromContext(r.Context()).WithError(err).Debug("invalid request body")
		writeJSON(w, http.StatusBadRequest, JournalResponse{Success: false, Message: "Invalid request body"})
		return false
	}
	return true
}

// parsePublishedAt accepts RFC 3339, a zone-less timestamp or a bare date.
// The last two are read as UTC. An empty value is passed through as the
// zero time and rejected downstream.
func parsePublishedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(localDateTimeLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Time{}, errBadPublishedAt
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).WithError(err).Error("journal request failed")
	}
	writeJSON(w, status, JournalResponse{Success: false, Message: message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, invalidInputMessage(err)
	case errors.Is(err, models.ErrAlreadyPublished):
		return http.StatusBadRequest, "Journal already published"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "Journal not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// invalidInputMessage returns the field detail the service wrapped around
// ErrInvalidInput, e.g. "title is required".
func invalidInputMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "+models.ErrInvalidInput.Error()); i > 0 {
		return msg[:i]
	}
	return "Invalid input"
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
