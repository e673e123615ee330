package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrExternal indicates an upstream API failure
	ErrExternal = errors.New("external service error")

	// ErrNotImplemented indicates a feature is not implemented
	ErrNotImplemented = errors.New("not implemented")
)

// Tool dispatch errors

var (
	// ErrDuplicateTool indicates a tool name was registered twice
	ErrDuplicateTool = errors.New("duplicate tool name")

	// ErrUnknownTool indicates a tool name with no registration
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments indicates tool arguments failed schema validation
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrCollaborator indicates a backing collaborator (market data,
	// portfolio store, semantic index) failed
	ErrCollaborator = errors.New("collaborator failure")
)

// Agent loop errors

var (
	// ErrTurnBudget indicates the agent loop exceeded its turn budget
	ErrTurnBudget = errors.New("turn budget exceeded")

	// ErrModelTransport indicates the model endpoint could not be reached
	// or returned an unusable response; fatal for the current turn
	ErrModelTransport = errors.New("model transport failure")

	// ErrTurnCancelled indicates the caller cancelled an in-flight turn
	ErrTurnCancelled = errors.New("turn cancelled")
)

// Analysis errors

var (
	// ErrSignalRange indicates a signal provider produced a strength
	// outside [0,1]; never clamped, always surfaced
	ErrSignalRange = errors.New("signal strength out of range")

	// ErrQuoteUnavailable indicates no current price could be obtained
	ErrQuoteUnavailable = errors.New("quote unavailable")
)

// DomainError wraps an error with a machine-stable code
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates an empty error collector
func NewMultiError() *MultiError {
	return &MultiError{}
}

// Error implements the error interface, listing every collected error so a
// caller sees all violations at once
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(m.Errors), strings.Join(msgs, "; "))
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
