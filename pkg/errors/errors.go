package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorKind separates caller-correctable failures from server-side ones
type ErrorKind string

const (
	// KindValidation errors are safe to show to the caller as-is
	KindValidation ErrorKind = "VALIDATION"

	// KindInternal errors carry diagnostics that must be redacted in protected stages
	KindInternal ErrorKind = "INTERNAL"
)

// ErrorCode identifies the specific failure within a kind
type ErrorCode string

const (
	// Validation codes
	CodeNoBody               ErrorCode = "NO_BODY"
	CodeInvalidPayload       ErrorCode = "INVALID_PAYLOAD"
	CodePayloadTooLarge      ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	CodeNonUpdatableFields   ErrorCode = "NON_UPDATABLE_FIELDS"
	CodeInvalidValues        ErrorCode = "INVALID_VALUES"
	CodeInvalidID            ErrorCode = "INVALID_ID"
	CodeItemNotFound         ErrorCode = "ITEM_NOT_FOUND"
	CodeItemAlreadyExists    ErrorCode = "ITEM_ALREADY_EXISTS"
	CodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	CodeValidationFailed     ErrorCode = "VALIDATION_FAILED"

	// Internal codes
	CodeSchemaInvariant ErrorCode = "SCHEMA_INVARIANT_VIOLATED"
	CodeCategoryMissing ErrorCode = "CATEGORY_MISSING"
	CodeStoreFailure    ErrorCode = "STORE_FAILURE"
	CodeParsingError    ErrorCode = "PARSING_ERROR"
	CodeUnexpected      ErrorCode = "UNEXPECTED"
)

// Public messages shared between the parsers, the service and the tests
const (
	MsgNoBody          = "Request body is missing or empty"
	MsgInvalidJSON     = "Invalid JSON in request body"
	MsgMissingID       = "The device ID was not provided"
	MsgInvalidID       = "Device ID is not valid UUID"
	MsgItemNotFound    = "No device found with given ID"
	MsgItemExists      = "A device with this ID already exists"
	MsgCategoryMissing = "Stored device has no device category"
	MsgParsingError    = "Failed to parse request context"
	MsgStoreFailure    = "Device store command failed"
	MsgGeneric         = "Internal server error"
)

// AppError represents a categorised application error
type AppError struct {
	Kind       ErrorKind              `json:"kind"`
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Errors     []*AppError            `json:"errors,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s (caused by: %v)", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail entry
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// IsValidation reports whether the error is caller-correctable
func (e *AppError) IsValidation() bool {
	return e.Kind == KindValidation
}

// IsInternal reports whether the error is a server-side failure
func (e *AppError) IsInternal() bool {
	return e.Kind == KindInternal
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

func newValidation(code ErrorCode, status int, message string) *AppError {
	return &AppError{
		Kind:       KindValidation,
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

func newInternal(code ErrorCode, message string) *AppError {
	return &AppError{
		Kind:       KindInternal,
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// Validation constructors

// NewNoBodyError is returned when a request that needs a body has none
func NewNoBodyError() *AppError {
	return newValidation(CodeNoBody, http.StatusBadRequest, MsgNoBody)
}

// NewInvalidPayloadError is returned for malformed or schema-invalid bodies
func NewInvalidPayloadError(message string) *AppError {
	return newValidation(CodeInvalidPayload, http.StatusBadRequest, message)
}

// NewPayloadTooLargeError is returned when a body exceeds limit bytes
func NewPayloadTooLargeError(limit int64) *AppError {
	return newValidation(CodePayloadTooLarge, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("Request body exceeds %d bytes", limit)).
		WithDetail("limit", limit)
}

// NewMissingFieldError is returned when a required field is absent
func NewMissingFieldError(field string) *AppError {
	return newValidation(CodeMissingRequiredField, http.StatusBadRequest,
		fmt.Sprintf("Missing required field: %s", field)).
		WithDetail("field", field)
}

// NewNonUpdatableFieldsError names every field the caller may not modify
func NewNonUpdatableFieldsError(fields []string) *AppError {
	return newValidation(CodeNonUpdatableFields, http.StatusBadRequest,
		fmt.Sprintf("You cannot update the following field(s): %s", strings.Join(fields, ", "))).
		WithDetail("fields", fields)
}

// NewInvalidValuesError names every "field: value" pair that failed its rule
func NewInvalidValuesError(values []string) *AppError {
	return newValidation(CodeInvalidValues, http.StatusBadRequest,
		fmt.Sprintf("The following values are invalid: %s", strings.Join(values, ", "))).
		WithDetail("values", values)
}

// NewInvalidIDError is returned when a path id is missing or malformed
func NewInvalidIDError(message string) *AppError {
	return newValidation(CodeInvalidID, http.StatusBadRequest, message)
}

// NewNotFoundError is returned when no item matches the caller and id
func NewNotFoundError() *AppError {
	return newValidation(CodeItemNotFound, http.StatusNotFound, MsgItemNotFound)
}

// NewAlreadyExistsError is returned when a conditional insert collides
func NewAlreadyExistsError() *AppError {
	return newValidation(CodeItemAlreadyExists, http.StatusConflict, MsgItemExists)
}

// NewUnauthorizedError is returned when no caller identity is available
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newValidation(CodeUnauthorized, http.StatusUnauthorized, message)
}

// Internal constructors

// NewSchemaInvariantError flags a constructed record missing a base field
func NewSchemaInvariantError(message string) *AppError {
	return newInternal(CodeSchemaInvariant, message)
}

// NewCategoryMissingError flags a stored record without a category
func NewCategoryMissingError() *AppError {
	return newInternal(CodeCategoryMissing, MsgCategoryMissing)
}

// NewStoreError wraps an unexpected store failure
func NewStoreError(operation string, err error) *AppError {
	return newInternal(CodeStoreFailure, fmt.Sprintf("%s: %s", MsgStoreFailure, operation)).
		WithCause(err)
}

// NewParsingError flags request context that should always be present
func NewParsingError(message string) *AppError {
	if message == "" {
		message = MsgParsingError
	}
	return newInternal(CodeParsingError, message)
}

// NewInternalError creates a generic internal error
func NewInternalError(message string) *AppError {
	return newInternal(CodeUnexpected, message)
}

// Aggregate folds several validation errors into one. A single error is
// returned unchanged; nil entries are skipped.
func Aggregate(errs ...*AppError) *AppError {
	present := make([]*AppError, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			present = append(present, e)
		}
	}

	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	}

	messages := make([]string, len(present))
	for i, e := range present {
		messages[i] = e.Message
	}

	agg := newValidation(CodeValidationFailed, http.StatusBadRequest, strings.Join(messages, "; "))
	agg.Errors = present
	return agg
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// FindCode returns the first error carrying code, searching aggregated children
func FindCode(err error, code ErrorCode) *AppError {
	appErr := GetAppError(err)
	if appErr == nil {
		return nil
	}
	if appErr.Code == code {
		return appErr
	}
	for _, child := range appErr.Errors {
		if found := FindCode(child, code); found != nil {
			return found
		}
	}
	return nil
}

// HasCode reports whether err or any aggregated child carries code
func HasCode(err error, code ErrorCode) bool {
	return FindCode(err, code) != nil
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.IsValidation()
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.IsInternal()
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return HasCode(err, CodeItemNotFound)
}

// IsAlreadyExists checks if an error is a conditional insert collision
func IsAlreadyExists(err error) bool {
	return HasCode(err, CodeItemAlreadyExists)
}
