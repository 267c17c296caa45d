package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeAppError   = "APP_ERROR"
	CodeSchema     = "SCHEMA_ERROR"
	CodeUpstream   = "UPSTREAM_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeCache      = "CACHE_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// SchemaError aborts a table load: the column layout cannot be reconciled
// or the source could not be read at all.
type SchemaError struct {
	*AppError
	Source  string
	Columns int
}

func NewSchemaError(message, source string, columns int, cause error) *SchemaError {
	return &SchemaError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeSchema,
			StatusCode: 500,
			Context: map[string]any{
				"source":  source,
				"columns": columns,
			},
			Cause: cause,
		},
		Source:  source,
		Columns: columns,
	}
}

// UpstreamServiceError wraps a failed text-generation call. Message is shown
// to the user as-is.
type UpstreamServiceError struct {
	*AppError
	Provider string
}

func NewUpstreamServiceError(message, provider string, cause error) *UpstreamServiceError {
	return &UpstreamServiceError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeUpstream,
			StatusCode: 502,
			Context: map[string]any{
				"provider": provider,
			},
			Cause: cause,
		},
		Provider: provider,
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

func IsSchemaError(err error) bool {
	var target *SchemaError
	return stderrors.As(err, &target)
}

func IsUpstreamError(err error) bool {
	var target *UpstreamServiceError
	return stderrors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

// StatusCode returns the HTTP status carried by an AppError chain, or
// fallback when err carries none.
func StatusCode(err error, fallback int) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.StatusCode > 0 {
		return appErr.StatusCode
	}
	var schemaErr *SchemaError
	if stderrors.As(err, &schemaErr) {
		return schemaErr.StatusCode
	}
	var upstreamErr *UpstreamServiceError
	if stderrors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode
	}
	var validationErr *ValidationError
	if stderrors.As(err, &validationErr) {
		return validationErr.StatusCode
	}
	return fallback
}
