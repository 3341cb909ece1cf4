package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Content errors
	ErrContentNotFound = errors.New("content not found")
	ErrInvalidContent  = errors.New("invalid content")
	ErrContentExists   = errors.New("content already exists")

	// Authoring errors
	ErrValidationFailed = errors.New("validation failed")
	ErrSubmissionFailed = errors.New("submission failed")
	ErrSectionNotFound  = errors.New("section not found")
	ErrFormClosed       = errors.New("form is closed")

	// Attachment errors
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidAttachment  = errors.New("invalid attachment")
	ErrAttachmentTooLarge = errors.New("attachment too large")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldErrors maps a draft field name to a user-facing message. A non-empty
// FieldErrors is an error that unwraps to ErrValidationFailed.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrValidationFailed }

// Add records a message for field unless one is already present. The first
// failing rule for a field wins.
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// Err returns nil when there are no field errors
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
