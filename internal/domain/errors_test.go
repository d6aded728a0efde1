package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("stage failed: %w", NewDownloadFailedError(errors.New("connection reset")))

	assert.True(t, errors.Is(err, ErrDownloadFailed))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, CodeDownloadFailed, CodeOf(err))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewGenerationTimeoutError(cause)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, IsContextError(err))
	assert.Equal(t, "LLM request timed out: context deadline exceeded", err.Error())
}

func TestRetryable(t *testing.T) {
	retryable := []*DomainError{
		NewDownloadFailedError(nil),
		NewGenerationServiceError(nil),
		NewGenerationTimeoutError(nil),
	}
	for _, e := range retryable {
		assert.True(t, e.Retryable(), e.Code)
		assert.True(t, IsRetryable(e), e.Code)
	}

	terminal := []*DomainError{
		NewInvalidSourceError("x", nil),
		NewUnsupportedContentError("no audio"),
		NewNotFoundError("gone"),
		NewModelUnavailableError(nil),
		NewTranscriptionFailedError(nil),
		NewMalformedGenerationOutputError("bad", nil),
	}
	for _, e := range terminal {
		assert.False(t, e.Retryable(), e.Code)
	}

	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestDomainError_MarshalJSON(t *testing.T) {
	err := NewMalformedGenerationOutputError("answer not in options", errors.New("hidden cause")).
		WithContext("question", 3)

	data, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "MALFORMED_GENERATION_OUTPUT", decoded["code"])
	assert.Equal(t, "answer not in options", decoded["message"])
	assert.Equal(t, float64(3), decoded["context"].(map[string]interface{})["question"])
	assert.NotContains(t, string(data), "hidden cause")
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		NewMissingFieldError("url"),
		NewOutOfRangeError("title", 300, 1, 200),
	}
	assert.Equal(t, "validation failed: url: url is required; title: title must be between 1 and 200", errs.Error())
	assert.Equal(t, "validation failed", ValidationErrors{}.Error())
}
