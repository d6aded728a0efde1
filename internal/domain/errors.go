package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeQuizNotFound ErrorCode = "QUIZ_NOT_FOUND"

	// Field-level validation errors
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Pipeline stage errors
	CodeInvalidSource             ErrorCode = "INVALID_SOURCE"
	CodeDownloadFailed            ErrorCode = "DOWNLOAD_FAILED"
	CodeUnsupportedContent        ErrorCode = "UNSUPPORTED_CONTENT"
	CodeNotFound                  ErrorCode = "NOT_FOUND"
	CodeModelUnavailable          ErrorCode = "MODEL_UNAVAILABLE"
	CodeTranscriptionFailed       ErrorCode = "TRANSCRIPTION_FAILED"
	CodeGenerationServiceError    ErrorCode = "GENERATION_SERVICE_ERROR"
	CodeGenerationTimeout         ErrorCode = "GENERATION_TIMEOUT"
	CodeMalformedGenerationOutput ErrorCode = "MALFORMED_GENERATION_OUTPUT"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another *DomainError by code so errors.Is(err, domain.ErrDownloadFailed) works.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// WithContext attaches a diagnostic key/value and returns the same error.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Retryable reports whether the caller may re-run the invocation for this kind.
func (e *DomainError) Retryable() bool {
	switch e.Code {
	case CodeDownloadFailed, CodeGenerationServiceError, CodeGenerationTimeout:
		return true
	default:
		return false
	}
}

// Sentinels for errors.Is comparisons; only Code is compared.
var (
	ErrInvalidSource             = &DomainError{Code: CodeInvalidSource}
	ErrDownloadFailed            = &DomainError{Code: CodeDownloadFailed}
	ErrUnsupportedContent        = &DomainError{Code: CodeUnsupportedContent}
	ErrNotFound                  = &DomainError{Code: CodeNotFound}
	ErrModelUnavailable          = &DomainError{Code: CodeModelUnavailable}
	ErrTranscriptionFailed       = &DomainError{Code: CodeTranscriptionFailed}
	ErrGenerationServiceError    = &DomainError{Code: CodeGenerationServiceError}
	ErrGenerationTimeout         = &DomainError{Code: CodeGenerationTimeout}
	ErrMalformedGenerationOutput = &DomainError{Code: CodeMalformedGenerationOutput}
	ErrQuizNotFound              = &DomainError{Code: CodeQuizNotFound}
)

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the ErrorCode from err, or CodeInternal when err is not a DomainError.
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// IsRetryable reports whether err carries a retryable kind.
func IsRetryable(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Retryable()
	}
	return false
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found with ID: %s", quizID), nil)
}

func NewInvalidSourceError(url string, cause error) *DomainError {
	return NewError(CodeInvalidSource, fmt.Sprintf("Unsupported or malformed video URL: %s", url), cause)
}

func NewDownloadFailedError(cause error) *DomainError {
	return NewError(CodeDownloadFailed, "Failed to download media", cause)
}

func NewUnsupportedContentError(message string) *DomainError {
	return NewError(CodeUnsupportedContent, message, nil)
}

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewModelUnavailableError(cause error) *DomainError {
	return NewError(CodeModelUnavailable, "Speech-to-text model is not available", cause)
}

func NewTranscriptionFailedError(cause error) *DomainError {
	return NewError(CodeTranscriptionFailed, "Failed to transcribe audio", cause)
}

func NewGenerationServiceError(cause error) *DomainError {
	return NewError(CodeGenerationServiceError, "Failed to process with LLM service", cause)
}

func NewGenerationTimeoutError(cause error) *DomainError {
	return NewError(CodeGenerationTimeout, "LLM request timed out", cause)
}

func NewMalformedGenerationOutputError(message string, cause error) *DomainError {
	return NewError(CodeMalformedGenerationOutput, message, cause)
}

// IsContextError reports whether err stems from context cancellation or deadline expiry.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string      `json:"field"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors collects field errors for a single request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) FieldError {
	return FieldError{Field: field, Code: CodeMissingField, Message: field + " is required"}
}

func NewInvalidFormatError(field string, value interface{}) FieldError {
	return FieldError{Field: field, Code: CodeInvalidFormat, Message: field + " has an invalid format", Value: value}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) FieldError {
	return FieldError{
		Field:   field,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("%s must be between %d and %d", field, min, max),
		Value:   value,
	}
}
