// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrInvalidInput     = errors.New("invalid input series")
	ErrDataNotFound     = errors.New("data not found")
	ErrConnectionFailed = errors.New("connection failed")
	ErrRateLimited      = errors.New("rate limited")
	ErrDatabaseError    = errors.New("database error")
	ErrTimeout          = errors.New("operation timed out")
)

// ValidationError represents a configuration validation error,
// raised at the boundary before the scanner runs.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// InputError represents a malformed bar series. The core never repairs
// such input; the series is rejected before the estimator or scanner runs.
type InputError struct {
	Index   int
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error: bar %d %s: %s", e.Index, e.Field, e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// NewInputError creates a new InputError.
func NewInputError(index int, field, message string) *InputError {
	return &InputError{
		Index:   index,
		Field:   field,
		Message: message,
	}
}

// ProviderError represents an error from a market-data provider.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error [%s]: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("provider error [%s]: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}
