/*
Package engine holds the error taxonomy shared by every component.

PURPOSE:
  One vocabulary of failure for the whole engine. Domain packages wrap
  these with context; the API layer maps them to HTTP status codes.

ERROR CATEGORIES:
  1. Validation errors - caller-supplied input violates a structural
     precondition (bad weekday, end before start). Always a caller bug.
  2. Not-found errors  - a referenced id does not exist.
  3. Conflict errors   - a cross-record invariant would be violated
     (week already planned, overlapping approved time-off).

POLICY REJECTIONS ARE NOT ERRORS:
  "Rejected because December is blocked" is an expected, frequent outcome.
  Those classifications live in timeoff.Result / policy.Reason and never
  travel through this package.

USAGE:
  if engine.IsConflict(err) { ... re-fetch and retry ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all structural input violations.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an operation would violate a
	// cross-record invariant. Recoverable by re-fetching state.
	ErrConflict = errors.New("conflict")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which input field violated which precondition.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for a field.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// NotFoundError names the kind and id that could not be resolved.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ConflictError describes an invariant collision. Domain packages attach
// their own detail (e.g. the colliding time-off requests) via Detail.
type ConflictError struct {
	Msg    string
	Detail any
}

func (e *ConflictError) Error() string { return e.Msg }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Conflict builds a ConflictError without detail.
func Conflict(msg string) error {
	return &ConflictError{Msg: msg}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is a structural input violation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err indicates an invariant collision.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsClientError reports whether the caller, not the store, is at fault.
func IsClientError(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsConflict(err)
}
