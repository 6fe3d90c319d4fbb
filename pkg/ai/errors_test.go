package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/noah-isme/gema-quiz-eval/pkg/resilience"
)

func TestIsRetryable(t *testing.T) {
	require.False(t, IsRetryable(nil))
	require.False(t, IsRetryable(resilience.ErrCircuitOpen))
	require.False(t, IsRetryable(fmt.Errorf("wrapped: %w", context.Canceled)))

	require.True(t, IsRetryable(errors.New("connection refused")))
	require.True(t, IsRetryable(context.DeadlineExceeded))
	require.True(t, IsRetryable(ErrEmptyResponse))

	require.False(t, IsRetryable(fmt.Errorf("openai: %w", &openai.APIError{HTTPStatusCode: http.StatusBadRequest})))
	require.False(t, IsRetryable(&openai.APIError{HTTPStatusCode: http.StatusForbidden}))
	require.True(t, IsRetryable(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}))
	require.True(t, IsRetryable(&openai.APIError{HTTPStatusCode: http.StatusInternalServerError}))
	require.True(t, IsRetryable(&openai.RequestError{HTTPStatusCode: http.StatusRequestTimeout, Err: errors.New("timeout")}))
	require.False(t, IsRetryable(&openai.RequestError{HTTPStatusCode: http.StatusNotFound, Err: errors.New("missing")}))
}

func TestIsRetryableGeminiErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"bad request":          {fmt.Errorf("gemini generate content: %w", genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}), false},
		"permission denied":    {genai.APIError{Code: http.StatusForbidden}, false},
		"not found pointer":    {&genai.APIError{Code: http.StatusNotFound}, false},
		"rate limited":         {fmt.Errorf("gemini generate content: %w", genai.APIError{Code: http.StatusTooManyRequests}), true},
		"unavailable":          {genai.APIError{Code: http.StatusServiceUnavailable}, true},
		"server error pointer": {&genai.APIError{Code: http.StatusInternalServerError}, true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}
