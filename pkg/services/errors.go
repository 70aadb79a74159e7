// Package services implements the business logic between the HTTP layer and
// the stores: authentication, quota gating, course and question workflows.
package services

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP status codes at the API boundary.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
)

// ValidationError reports invalid input and maps to HTTP 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-scoped validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Quota codes for the typed 429 body.
const (
	QuotaCodeMaxCreations = "MAX_COURSE_CREATIONS_REACHED"
	QuotaCodeMaxPresent   = "MAX_PRESENT_COURSES_REACHED"
)

// QuotaError reports an exceeded per-user limit and maps to HTTP 429 with
// the typed body {error: "LIMIT_REACHED", code, limit, message}.
type QuotaError struct {
	Code    string
	Limit   int
	Message string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s (limit %d)", e.Message, e.Limit)
}
