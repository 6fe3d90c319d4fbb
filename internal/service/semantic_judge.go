package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-quiz-eval/internal/config"
	"github.com/noah-isme/gema-quiz-eval/internal/observability"
	"github.com/noah-isme/gema-quiz-eval/pkg/ai"
	"github.com/noah-isme/gema-quiz-eval/pkg/resilience"
)

// NewSemanticJudge builds the configured semantic evaluator. It returns nil
// when no provider is configured.
func NewSemanticJudge(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*ai.SemanticEvaluator, error) {
	var model ai.ChatModel
	switch cfg.AIProvider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderOpenAI:
		chat, err := ai.NewOpenAIChat(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.AIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.AITimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		model = chat
	case config.ProviderGemini:
		chat, err := ai.NewGeminiChat(ctx, ai.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		model = chat
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	breakerLogger := logger.With().Str("component", "semantic_breaker").Logger()
	breakerCfg := cfg.BreakerConfig()
	breakerCfg.OnStateChange = func(name string, from, to resilience.State) {
		observability.CircuitState().WithLabelValues(name).Set(float64(to))
		breakerLogger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state changed")
	}
	observability.CircuitState().WithLabelValues(breakerCfg.Name).Set(float64(resilience.StateClosed))

	retry := cfg.RetryPolicy()
	retry.OnRetry = func(attempt uint, err error) {
		logger.Debug().Err(err).Uint("attempt", attempt).Str("provider", cfg.AIProvider).Msg("retrying semantic evaluation")
	}

	return ai.NewSemanticEvaluator(model, ai.SemanticConfig{
		Provider:    cfg.AIProvider,
		Temperature: cfg.AITemperature,
		MaxTokens:   cfg.AIMaxTokens,
		Retry:       retry,
		Breaker:     resilience.NewCircuitBreaker(breakerCfg),
		Logger:      logger,
	})
}
