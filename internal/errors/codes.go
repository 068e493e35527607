package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error type for engine operations.
type ErrorCode string

const (
	// ErrCodeExtractionFailed indicates a page could not be extracted.
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	// ErrCodeEmptyInput indicates an embedding call without texts.
	ErrCodeEmptyInput ErrorCode = "EMPTY_INPUT"
	// ErrCodeSchemaViolation indicates malformed record metadata.
	ErrCodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"
	// ErrCodeDimensionMismatch indicates a vector incompatible with the collection.
	ErrCodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"
	// ErrCodeGenerationFailed indicates the completion call failed.
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrCodeStoreUnavailable indicates the vector store could not serve the request.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Error represents a structured engine error.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *Error) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for the engine taxonomy.

// Extraction creates an extraction error for one page of a source.
// page 0 marks a failure that covers the whole document.
func Extraction(sourceID string, page int, cause error) *Error {
	if page < 1 {
		return (&Error{
			Code:    ErrCodeExtractionFailed,
			Message: fmt.Sprintf("failed to extract %s", sourceID),
			Cause:   cause,
		}).WithContext("source_id", sourceID)
	}
	return (&Error{
		Code:    ErrCodeExtractionFailed,
		Message: fmt.Sprintf("failed to extract %s page %d", sourceID, page),
		Cause:   cause,
	}).WithContext("source_id", sourceID).WithContext("page_index", page)
}

// EmptyInput creates an empty input error.
func EmptyInput(msg string) *Error {
	return &Error{Code: ErrCodeEmptyInput, Message: msg}
}

// Schema creates a schema violation error.
func Schema(msg string) *Error {
	return &Error{Code: ErrCodeSchemaViolation, Message: msg}
}

// DimensionMismatch creates a dimension mismatch error.
func DimensionMismatch(expected, actual int) *Error {
	return (&Error{
		Code:    ErrCodeDimensionMismatch,
		Message: fmt.Sprintf("vector has %d dimensions, collection expects %d", actual, expected),
	}).WithContext("expected", expected).WithContext("actual", actual)
}

// Generation creates a generation failure error.
func Generation(cause error) *Error {
	return &Error{Code: ErrCodeGenerationFailed, Message: "AI generation failed", Cause: cause}
}

// StoreUnavailable creates a store unavailable error.
func StoreUnavailable(msg string, cause error) *Error {
	return &Error{Code: ErrCodeStoreUnavailable, Message: msg, Cause: cause}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *Error {
	return &Error{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string, cause error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code.
func Wrap(cause error, code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// IsCode checks whether err, or any error it wraps, carries the code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an *Error.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return defaultCode
}
