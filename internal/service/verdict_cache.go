package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/gema-quiz-eval/internal/evaluation"
	"github.com/noah-isme/gema-quiz-eval/pkg/ai"
)

const (
	verdictCachePrefix     = "quiz:verdict:"
	defaultVerdictCacheTTL = 24 * time.Hour
)

// CachedJudge memoises structured semantic verdicts in Redis. Heuristic and
// failed verdicts always reach the inner judge again.
type CachedJudge struct {
	inner  evaluation.SemanticJudge
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedJudge wraps inner with a Redis verdict cache. A nil client disables caching.
func NewCachedJudge(inner evaluation.SemanticJudge, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedJudge {
	if ttl <= 0 {
		ttl = defaultVerdictCacheTTL
	}
	return &CachedJudge{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "verdict_cache").Logger(),
	}
}

// Judge returns a cached verdict when one exists and otherwise delegates.
func (c *CachedJudge) Judge(ctx context.Context, input ai.SemanticInput) ai.SemanticResult {
	if c.cache == nil {
		return c.inner.Judge(ctx, input)
	}

	tracer := otel.Tracer("github.com/noah-isme/gema-quiz-eval/internal/service/verdict_cache")
	ctx, span := tracer.Start(ctx, "verdict_cache.judge")
	defer span.End()

	key := verdictCacheKey(input)
	cached, err := c.cache.Get(ctx, key).Result()
	if err == nil {
		var result ai.SemanticResult
		if unmarshalErr := json.Unmarshal([]byte(cached), &result); unmarshalErr == nil && result.Outcome == ai.OutcomeStructured {
			span.SetAttributes(attribute.Bool("verdict_cache.hit", true))
			return result
		}
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Msg("failed to read verdict cache")
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Bool("verdict_cache.hit", false))

	result := c.inner.Judge(ctx, input)
	if result.Outcome != ai.OutcomeStructured {
		return result
	}

	payload, err := json.Marshal(result)
	if err == nil {
		if err := c.cache.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to store verdict cache")
			span.RecordError(err)
		}
	}
	return result
}

// verdictCacheKey only folds case and whitespace. Punctuation and non-ASCII
// text are kept so answers that differ in content never share a verdict.
func verdictCacheKey(input ai.SemanticInput) string {
	hash := sha256.New()
	writeKeyField(hash, input.Question)
	fmt.Fprintf(hash, "%d;", len(input.ExpectedAnswers))
	for _, answer := range input.ExpectedAnswers {
		writeKeyField(hash, answer)
	}
	writeKeyField(hash, input.Answer)
	return verdictCachePrefix + hex.EncodeToString(hash.Sum(nil))
}

func writeKeyField(w io.Writer, value string) {
	canonical := strings.Join(strings.Fields(strings.ToLower(value)), " ")
	fmt.Fprintf(w, "%d:%s", len(canonical), canonical)
}
