package services

import (
	"errors"

	apperrors "github.com/vocabmaster/quiz-service/internal/errors"
	"github.com/vocabmaster/quiz-service/internal/generator"
	"github.com/vocabmaster/quiz-service/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Session specific errors
	ErrSessionNotFound = errors.New("session not found")

	// User specific errors
	ErrEmailRequired = errors.New("email is required")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrEmailRequired) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsSessionContractViolation checks if error is a session state machine
// rejection: answering twice, advancing before submitting, reusing a
// lifeline, and so on. These map to a conflict at the transport layer.
func IsSessionContractViolation(err error) bool {
	return errors.Is(err, session.ErrAlreadySubmitted) ||
		errors.Is(err, session.ErrLifelineAlreadyUsed) ||
		errors.Is(err, session.ErrNotSubmitted) ||
		errors.Is(err, session.ErrSessionComplete) ||
		errors.Is(err, session.ErrSessionNotComplete) ||
		errors.Is(err, session.ErrSessionFinished)
}

// IsGenerationFailure checks if error came from the question generator.
// These map to an upstream failure at the transport layer.
func IsGenerationFailure(err error) bool {
	return errors.Is(err, generator.ErrGenerationFailed)
}
