package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/noah-isme/gema-quiz-eval/pkg/resilience"
)

type stubChatModel struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	lastReq   ChatRequest
}

func (s *stubChatModel) Complete(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReq = req
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return ChatResponse{}, s.errs[i]
	}
	if len(s.responses) == 0 {
		return ChatResponse{}, errors.New("no response configured")
	}
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return ChatResponse{Content: s.responses[i], Model: "stub"}, nil
}

func (s *stubChatModel) Model() string { return "stub-model" }

func (s *stubChatModel) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type instantTimer struct{}

func (instantTimer) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func newTestEvaluator(t *testing.T, model ChatModel, breaker *resilience.CircuitBreaker) *SemanticEvaluator {
	t.Helper()
	retry := resilience.DefaultRetryPolicy()
	retry.Timer = instantTimer{}
	evaluator, err := NewSemanticEvaluator(model, SemanticConfig{
		Provider: "stub",
		Retry:    retry,
		Breaker:  breaker,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return evaluator
}

func sampleInput() SemanticInput {
	return SemanticInput{
		Question:        "What does photosynthesis produce?",
		Answer:          "sugar and the gas we breathe",
		ExpectedAnswers: []string{"glucose and oxygen"},
	}
}

func TestNewSemanticEvaluatorRequiresModel(t *testing.T) {
	_, err := NewSemanticEvaluator(nil, SemanticConfig{})
	require.Error(t, err)
}

func TestJudgeStructuredVerdict(t *testing.T) {
	model := &stubChatModel{responses: []string{`{"isCorrect": true, "confidence": 0.8, "reasoning": "<b>Same</b> meaning"}`}}
	evaluator := newTestEvaluator(t, model, nil)

	result := evaluator.Judge(context.Background(), sampleInput())
	require.True(t, result.IsCorrect)
	require.Equal(t, 0.8, result.Confidence)
	require.Equal(t, "Same meaning", result.Reasoning)
	require.Equal(t, OutcomeStructured, result.Outcome)
	require.True(t, result.Usable())

	require.Equal(t, judgeSystemPrompt, model.lastReq.SystemPrompt)
	require.True(t, model.lastReq.JSONResponse)
	require.Equal(t, 200, model.lastReq.MaxTokens)
	require.InDelta(t, 0.2, model.lastReq.Temperature, 1e-6)
	require.Contains(t, model.lastReq.UserPrompt, "1. glucose and oxygen")
}

func TestJudgeHeuristicFallback(t *testing.T) {
	model := &stubChatModel{responses: []string{"Here you go: ```{\"isCorrect\": true}```"}}
	evaluator := newTestEvaluator(t, model, nil)

	result := evaluator.Judge(context.Background(), sampleInput())
	require.True(t, result.IsCorrect)
	require.Equal(t, OutcomeHeuristic, result.Outcome)
	require.Equal(t, defaultVerdictConfidence, result.Confidence)
	require.True(t, result.Usable())
}

func TestJudgeEmptyAnswerSkipsModel(t *testing.T) {
	model := &stubChatModel{responses: []string{`{"isCorrect": true}`}}
	evaluator := newTestEvaluator(t, model, nil)

	input := sampleInput()
	input.Answer = "   "
	result := evaluator.Judge(context.Background(), input)
	require.False(t, result.IsCorrect)
	require.Equal(t, OutcomeRejected, result.Outcome)
	require.False(t, result.Usable())
	require.Zero(t, model.callCount())
}

func TestJudgeRetriesTransientErrors(t *testing.T) {
	model := &stubChatModel{
		errs:      []error{errors.New("connection reset"), &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable}},
		responses: []string{"", "", `{"isCorrect": false, "confidence": 0.9}`},
	}
	evaluator := newTestEvaluator(t, model, nil)

	result := evaluator.Judge(context.Background(), sampleInput())
	require.Equal(t, OutcomeStructured, result.Outcome)
	require.False(t, result.IsCorrect)
	require.Equal(t, 3, model.callCount())
}

func TestJudgeDoesNotRetryClientErrors(t *testing.T) {
	model := &stubChatModel{errs: []error{&openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}}}
	evaluator := newTestEvaluator(t, model, nil)

	result := evaluator.Judge(context.Background(), sampleInput())
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.False(t, result.IsCorrect)
	require.Zero(t, result.Confidence)
	require.True(t, strings.HasPrefix(result.Reasoning, "semantic evaluation failed:"))
	require.Equal(t, 1, model.callCount())
}

func TestJudgeDoesNotRetryGeminiClientErrors(t *testing.T) {
	badRequest := fmt.Errorf("gemini generate content: %w", genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})
	model := &stubChatModel{errs: []error{badRequest}}
	evaluator := newTestEvaluator(t, model, nil)

	result := evaluator.Judge(context.Background(), sampleInput())
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.Equal(t, 1, model.callCount())

	unavailable := &stubChatModel{
		errs:      []error{genai.APIError{Code: http.StatusServiceUnavailable}},
		responses: []string{`{"isCorrect": true, "confidence": 0.8, "reasoning": "same meaning"}`},
	}
	result = newTestEvaluator(t, unavailable, nil).Judge(context.Background(), sampleInput())
	require.Equal(t, OutcomeStructured, result.Outcome)
	require.Equal(t, 2, unavailable.callCount())
}

func TestJudgeFailsAfterExhaustedRetries(t *testing.T) {
	down := errors.New("upstream down")
	model := &stubChatModel{errs: []error{down, down, down}}
	evaluator := newTestEvaluator(t, model, nil)

	result := evaluator.Judge(context.Background(), sampleInput())
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.Contains(t, result.Reasoning, "upstream down")
	require.Equal(t, 3, model.callCount())
	require.Equal(t, 1, evaluator.Status().Failures)
}

func TestJudgeOpenCircuitSkipsModel(t *testing.T) {
	breaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{Threshold: 1, ResetTimeout: time.Hour})
	require.Error(t, breaker.Do(func() error { return errors.New("boom") }))

	model := &stubChatModel{responses: []string{`{"isCorrect": true}`}}
	evaluator := newTestEvaluator(t, model, breaker)

	result := evaluator.Judge(context.Background(), sampleInput())
	require.Equal(t, OutcomeFailed, result.Outcome)
	require.Contains(t, result.Reasoning, resilience.ErrCircuitOpen.Error())
	require.Zero(t, model.callCount())

	status := evaluator.Status()
	require.Equal(t, "stub", status.Provider)
	require.Equal(t, "stub-model", status.Model)
	require.Equal(t, "open", status.CircuitState)
}

func TestJudgeSurvivesCallerCancellation(t *testing.T) {
	model := &stubChatModel{responses: []string{`{"isCorrect": true, "confidence": 0.7}`}}
	evaluator := newTestEvaluator(t, model, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := evaluator.Judge(context.WithoutCancel(ctx), sampleInput())
	require.Equal(t, OutcomeStructured, result.Outcome)
}
