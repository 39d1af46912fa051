package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents a missing actor, target, post or reply
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeInvalidOperation represents a request the engine refuses to apply
	ErrorTypeInvalidOperation ErrorType = "invalid_operation"
	// ErrorTypePersistence represents a failed store read or write
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypePartialWrite represents a multi-record operation that was only partly committed
	ErrorTypePartialWrite ErrorType = "partial_write"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Entity kinds carried by errors
const (
	KindUser  = "user"
	KindPost  = "post"
	KindReply = "reply"
)

// Store sentinels. Adapters wrap these; the engine translates them.
var (
	ErrWriteConflict = errors.New("write conflict: stored version changed")
	ErrAlreadyExists = errors.New("record already exists")
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrorType reports the category; promoted to every typed error below
func (e *BaseError) ErrorType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Engine Errors

// ErrNotFound is returned when an entity the operation needs does not exist
type ErrNotFound struct {
	*BaseError
	Kind string
	ID   string
}

func NewNotFound(kind, id string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %s", kind, id), nil),
		Kind:      kind,
		ID:        id,
	}
}

// ErrInvalidOperation is returned for self-follows, malformed payloads and
// ownership violations
type ErrInvalidOperation struct {
	*BaseError
	Operation string
	Reason    string
}

func NewInvalidOperation(operation, reason string) *ErrInvalidOperation {
	return &ErrInvalidOperation{
		BaseError: NewBaseError(ErrorTypeInvalidOperation, fmt.Sprintf("%s rejected: %s", operation, reason), nil),
		Operation: operation,
		Reason:    reason,
	}
}

// ErrPersistenceFailure is returned when the store fails to read or write a record
type ErrPersistenceFailure struct {
	*BaseError
	Kind      string
	ID        string
	Operation string
}

func NewPersistenceFailure(kind, id, operation string, err error) *ErrPersistenceFailure {
	return &ErrPersistenceFailure{
		BaseError: NewBaseError(ErrorTypePersistence, fmt.Sprintf("%s failed for %s %s", operation, kind, id), err),
		Kind:      kind,
		ID:        id,
		Operation: operation,
	}
}

// IsConflict reports whether the failure was an optimistic version mismatch
func (e *ErrPersistenceFailure) IsConflict() bool {
	return errors.Is(e.Err, ErrWriteConflict)
}

// ErrPartialWrite is returned when a multi-record operation committed some
// records but not all of them. Committed and Failed hold "kind/id" refs.
type ErrPartialWrite struct {
	*BaseError
	Operation string
	Committed []string
	Failed    []string
}

func NewPartialWrite(operation string, committed, failed []string, err error) *ErrPartialWrite {
	return &ErrPartialWrite{
		BaseError: NewBaseError(ErrorTypePartialWrite,
			fmt.Sprintf("%s partially committed (committed: %s; failed: %s)",
				operation, strings.Join(committed, ","), strings.Join(failed, ",")), err),
		Operation: operation,
		Committed: committed,
		Failed:    failed,
	}
}

// Ref formats an entity reference for partial write reports
func Ref(kind, id string) string {
	return kind + "/" + id
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type typed interface {
	ErrorType() ErrorType
}

// TypeOf returns the category of the outermost typed error in the chain,
// or "" for untyped errors
func TypeOf(err error) ErrorType {
	var t typed
	if errors.As(err, &t) {
		return t.ErrorType()
	}
	return ""
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// IsNotFound reports whether err is, or wraps, an ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// IsRetryable reports whether re-issuing the same request may succeed.
// Only plain persistence failures qualify: nothing was committed, so the
// caller can reload and decide again. Partial writes need reconciliation
// because toggles flip state when re-applied.
func IsRetryable(err error) bool {
	return IsErrorType(err, ErrorTypePersistence)
}
