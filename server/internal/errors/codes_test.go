package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "[NOT_FOUND] entry abc", NotFound("entry abc").Error())

	err := Internal("list entries", fmt.Errorf("disk full"))
	assert.Equal(t, "[INTERNAL] list entries: disk full", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := map[ErrorCode]int{
		ErrCodeInvalidArgument:   http.StatusBadRequest,
		ErrCodeNotFound:          http.StatusNotFound,
		ErrCodeUnauthorized:      http.StatusUnauthorized,
		ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
		ErrCodeLLMUnavailable:    http.StatusServiceUnavailable,
		ErrCodeTimeout:           http.StatusGatewayTimeout,
		ErrCodeContextCanceled:   499,
		ErrCodeInternal:          http.StatusInternalServerError,
		ErrorCode("SOMETHING"):   http.StatusInternalServerError,
	}
	for code, status := range tests {
		assert.Equal(t, status, HTTPStatus(code), code)
	}
}

func TestWrap_ContextErrors(t *testing.T) {
	assert.Equal(t, ErrCodeContextCanceled, Wrap(context.Canceled, ErrCodeInternal, "x").Code)
	assert.Equal(t, ErrCodeTimeout, Wrap(fmt.Errorf("call: %w", context.DeadlineExceeded), ErrCodeLLMUnavailable, "x").Code)
	assert.Equal(t, ErrCodeLLMUnavailable, Wrap(fmt.Errorf("boom"), ErrCodeLLMUnavailable, "x").Code)
}

func TestAsAndIsCode(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", InvalidArgumentf("bad offset %d", 2000))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "bad offset 2000", appErr.Message)
	assert.True(t, IsCode(wrapped, ErrCodeInvalidArgument))
	assert.False(t, IsCode(wrapped, ErrCodeNotFound))
	assert.Equal(t, ErrCodeInternal, GetCodeFromError(fmt.Errorf("plain"), ErrCodeInternal))
}

func TestWithContext(t *testing.T) {
	err := NotFound("entry").WithContext("uid", "abc")
	assert.Equal(t, "abc", err.Context["uid"])
	assert.ErrorIs(t, LLMUnavailable("x", context.Canceled), context.Canceled)
}
