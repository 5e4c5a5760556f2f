package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	ErrAlreadyExists = errors.New("resource already exists")

	ErrDatabase = errors.New("database error")

	ErrConflict = errors.New("resource conflict")

	// ErrConsistency marks a failed atomic write (loan insert plus debt update).
	// Nothing of the unit is left behind when it is returned.
	ErrConsistency = errors.New("consistency failure")

	ErrIngestionBatch = errors.New("ingestion batch rejected")
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

// RowError describes one spreadsheet row that could not be ingested.
type RowError struct {
	Row     int
	Field   string
	Message string
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: column '%s': %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewBatchError rejects a whole ingestion stage because of the given row problem.
func NewBatchError(cause error) error {
	return fmt.Errorf("%w: %w", ErrIngestionBatch, cause)
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}

func WrapConsistencyError(cause error, message string) error {
	return &AppError{
		Code:    "CONSISTENCY_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrConsistency, cause),
	}
}
