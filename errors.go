// Package minigpu structured error types for better error handling
package minigpu

import (
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Configuration errors: bad launch shapes, shared-buffer shape conflicts
	ErrTypeConfig ErrorType = iota
	// Out-of-bounds buffer accesses from kernel code
	ErrTypeOutOfBounds
	// Barrier divergence: a rendezvous that can never complete
	ErrTypeDivergence
	// Execution errors: kernel panics and other runtime failures
	ErrTypeExecution
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Op      string      // Operation that failed
	Message string      // Human-readable message
	Err     error       // Underlying error if any
	Context interface{} // Additional context
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("minigpu %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("minigpu %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConfig:
		return "Configuration"
	case ErrTypeOutOfBounds:
		return "OutOfBounds"
	case ErrTypeDivergence:
		return "BarrierDivergence"
	case ErrTypeExecution:
		return "Execution"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewConfigError creates a configuration error
func NewConfigError(op string, message string) error {
	return &Error{
		Type:    ErrTypeConfig,
		Op:      op,
		Message: message,
	}
}

// NewOutOfBoundsError creates an out-of-bounds access error
func NewOutOfBoundsError(op string, message string, context interface{}) error {
	return &Error{
		Type:    ErrTypeOutOfBounds,
		Op:      op,
		Message: message,
		Context: context,
	}
}

// NewDivergenceError creates a barrier divergence error
func NewDivergenceError(op string, message string, context interface{}) error {
	return &Error{
		Type:    ErrTypeDivergence,
		Op:      op,
		Message: message,
		Context: context,
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == ErrTypeConfig
	}
	return false
}

// IsOutOfBoundsError checks if an error is an out-of-bounds error
func IsOutOfBoundsError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == ErrTypeOutOfBounds
	}
	return false
}

// IsDivergenceError checks if an error is a barrier divergence error
func IsDivergenceError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == ErrTypeDivergence
	}
	return false
}

// IsExecutionError checks if an error is an execution error
func IsExecutionError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == ErrTypeExecution
	}
	return false
}
