package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to callers. Handlers map them to status codes.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrVotingClosed  = errors.New("voting closed for resolved issue")
	ErrDuplicateVote = errors.New("already voted")
	ErrValidation    = errors.New("validation error")
)

// DuplicateVoteError is an informational rejection: the actor already voted
// and Weight is the weight recorded back then.
type DuplicateVoteError struct {
	Weight float64
}

func (e *DuplicateVoteError) Error() string {
	return fmt.Sprintf("already voted (weight %g)", e.Weight)
}

func (e *DuplicateVoteError) Unwrap() error { return ErrDuplicateVote }

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}
