package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-quiz-eval/pkg/resilience"
)

const (
	judgeTemperature = 0.2
	judgeMaxTokens   = 200
)

// SemanticConfig configures a SemanticEvaluator.
type SemanticConfig struct {
	Provider    string
	Temperature float32
	MaxTokens   int
	Retry       resilience.RetryPolicy
	// Breaker is shared by every evaluation going through this evaluator. Nil builds a default one.
	Breaker *resilience.CircuitBreaker
	Logger  zerolog.Logger
}

// SemanticEvaluator asks a chat model whether a free-text answer is equivalent
// to any expected answer.
type SemanticEvaluator struct {
	model     ChatModel
	cfg       SemanticConfig
	breaker   *resilience.CircuitBreaker
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewSemanticEvaluator wraps model with retry and circuit breaking.
func NewSemanticEvaluator(model ChatModel, cfg SemanticConfig) (*SemanticEvaluator, error) {
	if model == nil {
		return nil, errors.New("chat model is required")
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = judgeTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = judgeMaxTokens
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = resilience.DefaultRetryPolicy()
	}
	if cfg.Retry.IsRetryable == nil {
		cfg.Retry.IsRetryable = IsRetryable
	}
	if cfg.Provider == "" {
		cfg.Provider = "unknown"
	}

	breaker := cfg.Breaker
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.DefaultBreakerConfig())
	}

	return &SemanticEvaluator{
		model:     model,
		cfg:       cfg,
		breaker:   breaker,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-quiz-eval/pkg/ai/semantic"),
		logger:    cfg.Logger.With().Str("component", "semantic_evaluator").Logger(),
	}, nil
}

// Judge returns a verdict for input. It never fails: transport errors and open
// circuits produce an incorrect verdict with zero confidence and OutcomeFailed.
func (e *SemanticEvaluator) Judge(parent context.Context, input SemanticInput) SemanticResult {
	if strings.TrimSpace(input.Answer) == "" {
		return SemanticResult{Reasoning: "empty answer", Outcome: OutcomeRejected}
	}

	ctx, span := e.tracer.Start(parent, "semantic.judge", trace.WithAttributes(
		attribute.String("model", e.model.Model()),
		attribute.Int("expected_answers", len(input.ExpectedAnswers)),
	))
	defer span.End()

	request := ChatRequest{
		SystemPrompt: judgeSystemPrompt,
		UserPrompt:   buildJudgePrompt(input),
		Temperature:  e.cfg.Temperature,
		MaxTokens:    e.cfg.MaxTokens,
		JSONResponse: true,
	}

	retryPolicy := e.cfg.Retry
	retryPolicy.OnRetry = func(attempt uint, err error) {
		e.logger.Warn().Err(err).Uint("attempt", attempt).Msg("semantic evaluation attempt failed")
	}

	response, err := resilience.Call(e.breaker, func() (ChatResponse, error) {
		return resilience.Retry(ctx, retryPolicy, func(ctx context.Context) (ChatResponse, error) {
			return e.model.Complete(ctx, request)
		})
	})
	if err != nil {
		span.RecordError(err)
		e.logger.Warn().Err(err).Str("circuit", e.breaker.State().String()).Msg("semantic evaluation failed")
		return SemanticResult{
			Reasoning: fmt.Sprintf("semantic evaluation failed: %v", err),
			Outcome:   OutcomeFailed,
		}
	}

	result := e.interpret(response.Content)
	span.SetAttributes(
		attribute.String("outcome", string(result.Outcome)),
		attribute.Bool("is_correct", result.IsCorrect),
	)
	return result
}

// interpret applies parseStructured and falls back to scanHeuristic.
func (e *SemanticEvaluator) interpret(raw string) SemanticResult {
	if result, ok := parseStructured(raw); ok {
		result.Reasoning = strings.TrimSpace(e.sanitizer.Sanitize(result.Reasoning))
		return result
	}

	e.logger.Warn().Int("length", len(raw)).Msg("semantic response was not a valid verdict, scanning heuristically")
	return scanHeuristic(raw)
}

// Status reports the provider, model and circuit state.
func (e *SemanticEvaluator) Status() EvaluatorStatus {
	return EvaluatorStatus{
		Provider:     e.cfg.Provider,
		Model:        e.model.Model(),
		CircuitState: e.breaker.State().String(),
		Failures:     e.breaker.Failures(),
	}
}
