package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/classroom-journal/internal/models"
)

func TestParsePublishedAt(t *testing.T) {
	got, err := parsePublishedAt("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parsePublishedAt("2024-03-01T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), got)

	got, err = parsePublishedAt("2024-03-10T12:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), got)

	got, err = parsePublishedAt("2024-03-10T12:00:00.250")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 12, 0, 0, 250000000, time.UTC), got)

	got, err = parsePublishedAt("  ")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parsePublishedAt("yesterday")
	assert.Equal(t, errBadPublishedAt, err)
}

func TestStatusFor(t *testing.T) {
	status, msg := statusFor(errors.Wrap(models.ErrInvalidInput, "title is required"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "title is required", msg)

	status, msg = statusFor(errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", msg)
}
