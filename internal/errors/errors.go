package errors

import (
	"fmt"
)

// SearchError is the structured error type for desktop-search.
// It provides rich context for error handling, logging, and user presentation.
type SearchError struct {
	// Code is the unique error code (e.g., "ERR_205_CORRUPT_INDEX").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Source, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SearchError.
func (e *SearchError) Is(target error) bool {
	if t, ok := target.(*SearchError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SearchError) WithDetail(key, value string) *SearchError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *SearchError) WithSuggestion(suggestion string) *SearchError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SearchError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SearchError {
	return &SearchError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SearchError from an existing error.
// The error's message becomes the SearchError message.
func Wrap(code string, err error) *SearchError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// CorruptIndex creates an integrity-failure error for a persisted snapshot.
func CorruptIndex(message string, cause error) *SearchError {
	return New(ErrCodeCorruptIndex, message, cause).
		WithSuggestion("run 'desktop-search index --full' to rebuild the index")
}

// MalformedIndex creates a structural-failure error for a persisted snapshot.
func MalformedIndex(message string, cause error) *SearchError {
	return New(ErrCodeMalformedIndex, message, cause).
		WithSuggestion("run 'desktop-search index --full' to rebuild the index")
}

// SourceUnavailable creates an error for an unreachable source.
func SourceUnavailable(source string, cause error) *SearchError {
	return New(ErrCodeSourceUnavailable, fmt.Sprintf("source %q unavailable", source), cause).
		WithDetail("source", source)
}

// ExtractionFailed creates a per-item extraction error.
func ExtractionFailed(locator string, cause error) *SearchError {
	return New(ErrCodeExtractionFailed, fmt.Sprintf("extraction failed for %q", locator), cause).
		WithDetail("locator", locator)
}

// MergeCollision creates an error for an unexpected document id collision.
func MergeCollision(id string) *SearchError {
	return New(ErrCodeMergeCollision, fmt.Sprintf("document id collision on %q", id), nil).
		WithDetail("document_id", id)
}

// PersistFailed creates an error for a failed snapshot or fingerprint write.
func PersistFailed(message string, cause error) *SearchError {
	return New(ErrCodePersistFailed, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SearchError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *SearchError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SearchError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a SearchError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SearchError); ok {
		return se.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SearchError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a SearchError.
// Returns empty string if not a SearchError.
func GetCode(err error) string {
	if se, ok := err.(*SearchError); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a SearchError.
// Returns empty string if not a SearchError.
func GetCategory(err error) Category {
	if se, ok := err.(*SearchError); ok {
		return se.Category
	}
	return ""
}
