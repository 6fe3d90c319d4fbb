package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/gema-quiz-eval/internal/evaluation"
	"github.com/noah-isme/gema-quiz-eval/pkg/resilience"
)

// Supported semantic judge providers.
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds runtime configuration values for the evaluation service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	JWTSecret   string

	AIProvider    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	AIModel       string
	AITimeout     time.Duration
	AITemperature float32
	AIMaxTokens   int

	RetryMaxAttempts  uint
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	RetryMultiplier   float64

	BreakerThreshold    int
	BreakerResetTimeout time.Duration

	NumericTolerance    float64
	FuzzyMatchRatio     float64
	MinEscalationLength int
	VerdictCacheTTL     time.Duration
	BatchConcurrency    int

	RateLimitMax    int
	RateLimitWindow time.Duration

	CORSAllowOrigins string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// SemanticEnabled reports whether a provider is configured for escalation.
func (c Config) SemanticEnabled() bool {
	return c.AIProvider != ProviderNone
}

// Policy returns the engine thresholds.
func (c Config) Policy() evaluation.Policy {
	policy := evaluation.DefaultPolicy()
	policy.NumericTolerance = c.NumericTolerance
	policy.FuzzyMatchRatio = c.FuzzyMatchRatio
	policy.MinEscalationLength = c.MinEscalationLength
	return policy
}

// RetryPolicy returns the retry settings for model calls.
func (c Config) RetryPolicy() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxAttempts:  c.RetryMaxAttempts,
		InitialDelay: c.RetryInitialDelay,
		MaxDelay:     c.RetryMaxDelay,
		Multiplier:   c.RetryMultiplier,
	}
}

// BreakerConfig returns the circuit breaker settings for model calls.
func (c Config) BreakerConfig() resilience.BreakerConfig {
	cfg := resilience.DefaultBreakerConfig()
	cfg.Threshold = c.BreakerThreshold
	cfg.ResetTimeout = c.BreakerResetTimeout
	return cfg
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	return load(true)
}

// LoadOffline reads configuration for command line tools, which do not serve
// authenticated requests.
func LoadOffline() (Config, error) {
	return load(false)
}

func load(requireJWT bool) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Quiz Evaluation")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("ai.provider", ProviderNone)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.timeout", "15s")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_tokens", 200)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", "500ms")
	v.SetDefault("retry.max_delay", "5s")
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("breaker.threshold", 5)
	v.SetDefault("breaker.reset_timeout", "30s")
	v.SetDefault("evaluation.numeric_tolerance", evaluation.DefaultNumericTolerance)
	v.SetDefault("evaluation.fuzzy_ratio", evaluation.DefaultFuzzyMatchRatio)
	v.SetDefault("evaluation.min_escalation_length", evaluation.DefaultMinEscalationLength)
	v.SetDefault("evaluation.cache_ttl", "24h")
	v.SetDefault("evaluation.batch_concurrency", 8)
	v.SetDefault("ratelimit.max", 30)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("cors.allow_origins", "*")

	durations := map[string]time.Duration{}
	for _, key := range []string{"ai.timeout", "retry.initial_delay", "retry.max_delay", "breaker.reset_timeout", "evaluation.cache_ttl", "ratelimit.window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:     v.GetString("app.name"),
		AppEnv:      v.GetString("app.env"),
		AppPort:     v.GetString("app.port"),
		DatabaseURL: v.GetString("database.url"),
		RedisURL:    v.GetString("redis.url"),
		NATSURL:     v.GetString("nats.url"),
		JWTSecret:   v.GetString("jwt.secret"),

		AIProvider:    strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		OpenAIAPIKey:  v.GetString("openai_api_key"),
		OpenAIBaseURL: v.GetString("openai_base_url"),
		GeminiAPIKey:  v.GetString("gemini_api_key"),
		AIModel:       v.GetString("ai.model"),
		AITimeout:     durations["ai.timeout"],
		AITemperature: float32(v.GetFloat64("ai.temperature")),
		AIMaxTokens:   v.GetInt("ai.max_tokens"),

		RetryMaxAttempts:  v.GetUint("retry.max_attempts"),
		RetryInitialDelay: durations["retry.initial_delay"],
		RetryMaxDelay:     durations["retry.max_delay"],
		RetryMultiplier:   v.GetFloat64("retry.multiplier"),

		BreakerThreshold:    v.GetInt("breaker.threshold"),
		BreakerResetTimeout: durations["breaker.reset_timeout"],

		NumericTolerance:    v.GetFloat64("evaluation.numeric_tolerance"),
		FuzzyMatchRatio:     v.GetFloat64("evaluation.fuzzy_ratio"),
		MinEscalationLength: v.GetInt("evaluation.min_escalation_length"),
		VerdictCacheTTL:     durations["evaluation.cache_ttl"],
		BatchConcurrency:    v.GetInt("evaluation.batch_concurrency"),

		RateLimitMax:    v.GetInt("ratelimit.max"),
		RateLimitWindow: durations["ratelimit.window"],

		CORSAllowOrigins: v.GetString("cors.allow_origins"),
	}

	if requireJWT && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.AIProvider {
	case ProviderNone:
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Config{}, fmt.Errorf("openai_api_key is required when ai.provider is openai")
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return Config{}, fmt.Errorf("gemini_api_key is required when ai.provider is gemini")
		}
	default:
		return Config{}, fmt.Errorf("unsupported ai.provider %q", cfg.AIProvider)
	}

	if cfg.RetryMaxAttempts == 0 {
		cfg.RetryMaxAttempts = 1
	}

	return cfg, nil
}
