package models

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("journal not found")
	ErrAlreadyPublished = errors.New("journal is already published")
)
