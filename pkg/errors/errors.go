package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")
)

// Chain validation errors

var (
	// ErrDataIncomplete indicates the options chain is missing an entire
	// side (no calls or no puts); sentiment must not be produced
	ErrDataIncomplete = errors.New("options chain incomplete")

	// ErrDataInsufficient indicates the chain has too few contracts for a
	// reliable read; analysis proceeds with confidence capped at Low
	ErrDataInsufficient = errors.New("insufficient options data")

	// ErrDataAnomalous indicates the strike range is implausibly wide
	ErrDataAnomalous = errors.New("anomalous options data")
)

// Provider-specific errors

var (
	// ErrProviderUnavailable indicates the market data provider API failed
	ErrProviderUnavailable = errors.New("data provider unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrTickerNotFound indicates no contracts exist for the ticker/period
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrEmbeddingUnavailable indicates the embedding service call failed
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ValidationError represents a failed chain check with the offending value
// and a remediation hint for the caller. Kind carries the sentinel the
// finding maps onto, so errors.Is works on findings.
type ValidationError struct {
	Kind    error
	Check   string
	Message string
	Value   interface{}
	Hint    string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("validation error: check '%s': %s (value: %v); hint: %s", e.Check, e.Message, e.Value, e.Hint)
	}
	return fmt.Sprintf("validation error: check '%s': %s (value: %v)", e.Check, e.Message, e.Value)
}

// Unwrap exposes the sentinel behind the finding
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// NewValidationError creates a new validation error
func NewValidationError(kind error, check, message string, value interface{}, hint string) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Check:   check,
		Message: message,
		Value:   value,
		Hint:    hint,
	}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
