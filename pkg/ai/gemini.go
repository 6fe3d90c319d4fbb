package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig defines configuration options for the Gemini chat model.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// GeminiChat implements ChatModel against the Gemini GenerateContent API.
type GeminiChat struct {
	client *genai.Client
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiChat builds a Gemini client for the Gemini API backend.
func NewGeminiChat(ctx context.Context, cfg GeminiConfig) (*GeminiChat, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiChat{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-quiz-eval/pkg/ai/gemini"),
		logger: logger.With().Str("component", "gemini_chat").Logger(),
	}, nil
}

// Model returns the configured model name.
func (g *GeminiChat) Model() string {
	return g.cfg.Model
}

// Complete runs a single GenerateContent call.
func (g *GeminiChat) Complete(parent context.Context, req ChatRequest) (ChatResponse, error) {
	ctx, span := g.tracer.Start(parent, "gemini.complete", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	temperature := req.Temperature
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		},
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.JSONResponse {
		config.ResponseMIMEType = "application/json"
	}
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.UserPrompt}},
	}}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	chatDuration.WithLabelValues("gemini", g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		chatFailures.WithLabelValues("gemini", g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ChatResponse{}, fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		chatFailures.WithLabelValues("gemini", g.cfg.Model).Inc()
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		return ChatResponse{}, fmt.Errorf("gemini generate content: %w", ErrEmptyResponse)
	}

	response := ChatResponse{Content: text, Model: g.cfg.Model}
	if meta := result.UsageMetadata; meta != nil {
		response.Usage = Usage{
			PromptTokens:     int(meta.PromptTokenCount),
			CompletionTokens: int(meta.CandidatesTokenCount),
			TotalTokens:      int(meta.TotalTokenCount),
		}
	}
	g.logger.Debug().Int("total_tokens", response.Usage.TotalTokens).Msg("gemini completion received")
	return response, nil
}
