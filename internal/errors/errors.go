// Package errors provides custom error types for the reckon engine.
// All service- and pipeline-layer errors should use AppError so failures
// carry a stable code plus structured context (offending field, row
// identifier, rule name) instead of hand-formatted strings.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional structured details,
// and optional internal error.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Details:    sentinel.Details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying structured context such as
// the offending field, row index, or rule name.
func WithDetails(sentinel *AppError, details map[string]any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Configuration errors. Invalid rule files fail fast before any file is processed.
var (
	ErrConfigInvalid = &AppError{Code: "CONFIG_INVALID", Message: "Invalid or missing configuration", StatusCode: http.StatusInternalServerError}
)

// Import pipeline errors.
var (
	// ErrIngestionFailed is a file/header-level failure. It aborts the
	// affected file only; other files in a multi-file run continue.
	ErrIngestionFailed = &AppError{Code: "INGESTION_FAILED", Message: "Failed to ingest file", StatusCode: http.StatusUnprocessableEntity}

	// ErrStandardizationFailed is a row-level failure, recoverable by
	// skipping the row subject to the batch error thresholds.
	ErrStandardizationFailed = &AppError{Code: "STANDARDIZATION_FAILED", Message: "Failed to standardize row", StatusCode: http.StatusUnprocessableEntity}

	// ErrBatchAborted is returned when cumulative row failures exceed the
	// configured error-ratio or max-error-row threshold.
	ErrBatchAborted = &AppError{Code: "BATCH_ABORTED", Message: "Import batch exceeded the configured error threshold", StatusCode: http.StatusUnprocessableEntity}

	// ErrDatabase wraps storage-layer failures; the in-flight chunk
	// transaction is rolled back before this surfaces.
	ErrDatabase = &AppError{Code: "DATABASE_ERROR", Message: "Storage operation failed", StatusCode: http.StatusInternalServerError}
)

// Account errors.
var (
	ErrAccountNotFound  = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrDuplicateAccount = &AppError{Code: "DUPLICATE_ACCOUNT", Message: "An account with this name already exists", StatusCode: http.StatusConflict}
)

// Ledger errors.
var (
	ErrEntryNotFound = &AppError{Code: "ENTRY_NOT_FOUND", Message: "Ledger entry not found", StatusCode: http.StatusNotFound}
)

// Balance override errors.
var (
	ErrOverrideNotFound = &AppError{Code: "OVERRIDE_NOT_FOUND", Message: "Balance override not found", StatusCode: http.StatusNotFound}
)
