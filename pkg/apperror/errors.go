package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError. The set is closed; the HTTP layer switches on it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindInsufficientStock
	KindConflict
	KindTransactionAbort
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindConflict:
		return "conflict"
	case KindTransactionAbort:
		return "transaction_aborted"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal_error"
	}
}

// AppError represents an application error with HTTP status code
type AppError struct {
	Kind    Kind           `json:"kind"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Errors  []FieldError   `json:"errors,omitempty"`
	Details map[string]any `json:"details,omitempty"`

	cause error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the originating error for errors.Is / errors.As and logging.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches two AppErrors of the same kind and message, so the package-level
// sentinels keep working with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Common errors
var (
	ErrNotFound       = &AppError{Kind: KindNotFound, Code: http.StatusNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Kind: KindUnauthorized, Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden      = &AppError{Kind: KindForbidden, Code: http.StatusForbidden, Message: "Forbidden"}
	ErrInternalServer = &AppError{Kind: KindInternal, Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrInvalidToken   = &AppError{Kind: KindUnauthorized, Code: http.StatusUnauthorized, Message: "Invalid token"}
	ErrStaleOrder     = &AppError{Kind: KindConflict, Code: http.StatusBadRequest, Message: "Order was modified concurrently, reload and retry"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Kind:    kindForStatus(code),
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldValidationError is a shorthand for a single-field validation error
func NewFieldValidationError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewNotFoundByIDError reports "<resource> not found: <id>"
func NewNotFoundByIDError(resource, id string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]any{"id": id},
	}
}

// NewInsufficientStockError reports that a machine cannot cover the requested quantity
func NewInsufficientStockError(machineID, name string, available, requested int) *AppError {
	return &AppError{
		Kind:    KindInsufficientStock,
		Code:    http.StatusConflict,
		Message: fmt.Sprintf("insufficient stock for %s: available %d, requested %d", name, available, requested),
		Details: map[string]any{
			"machine_id": machineID,
			"available":  available,
			"requested":  requested,
		},
	}
}

// NewConflictError creates a conflict error naming the conflicting field
func NewConflictError(field, message string) *AppError {
	err := &AppError{
		Kind:    KindConflict,
		Code:    http.StatusBadRequest,
		Message: message,
	}
	if field != "" {
		err.Errors = []FieldError{{Field: field, Message: message}}
	}
	return err
}

// NewTransactionAbortError wraps an unexpected failure inside a unit of work
func NewTransactionAbortError(cause error) *AppError {
	return &AppError{
		Kind:    KindTransactionAbort,
		Code:    http.StatusInternalServerError,
		Message: "Failed to process transaction",
		cause:   cause,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// Wrap attaches a cause to an AppError without changing its kind or message
func Wrap(err *AppError, cause error) *AppError {
	cp := *err
	cp.cause = cause
	return &cp
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Kind:    KindInternal,
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
		cause:   err,
	}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	default:
		return KindInternal
	}
}
