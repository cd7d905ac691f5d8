package models

import (
	"errors"
	"fmt"
)

// ErrDuplicatePreference is returned when a (user, market, instrument, timeframe)
// tuple already has a stored preference row.
var ErrDuplicatePreference = errors.New("preference already exists")

// ErrPreferenceNotFound is returned when a delete targets a missing row.
var ErrPreferenceNotFound = errors.New("preference not found")

// ValidationError marks a malformed signal payload. It maps to a client
// error at the HTTP boundary and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid signal: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid signal: %s", e.Message)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// EnrichmentUnavailable marks a failed enrichment call. The pipeline
// recovers locally by omitting the section from the formatted message.
type EnrichmentUnavailable struct {
	Source string
	Err    error
}

func (e *EnrichmentUnavailable) Error() string {
	return fmt.Sprintf("enrichment unavailable: %s: %v", e.Source, e.Err)
}

func (e *EnrichmentUnavailable) Unwrap() error { return e.Err }

// StoreUnavailable marks an unreachable preference store. Callers degrade
// to an empty result and log loudly.
type StoreUnavailable struct {
	Err error
}

func (e *StoreUnavailable) Error() string {
	return fmt.Sprintf("preference store unavailable: %v", e.Err)
}

func (e *StoreUnavailable) Unwrap() error { return e.Err }

// IsStoreUnavailable reports whether err is a StoreUnavailable.
func IsStoreUnavailable(err error) bool {
	var se *StoreUnavailable
	return errors.As(err, &se)
}
