package evaluation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-quiz-eval/internal/observability"
	"github.com/noah-isme/gema-quiz-eval/pkg/ai"
)

// Strategy names the step that decided a result.
type Strategy string

// Deciding strategies.
const (
	StrategyChoice   Strategy = "choice"
	StrategyNumeric  Strategy = "numeric"
	StrategyFuzzy    Strategy = "fuzzy"
	StrategySemantic Strategy = "semantic"
	StrategyNone     Strategy = "none"
)

// Escalation outcomes recorded for negative deterministic results.
const (
	escalationSkipped  = "skipped"
	escalationAccepted = "semantic"
	escalationFailed   = "failed"
)

// SemanticJudge decides semantic equivalence of a free-text answer.
type SemanticJudge interface {
	Judge(ctx context.Context, input ai.SemanticInput) ai.SemanticResult
}

// Result is the final verdict for one answer.
type Result struct {
	IsCorrect             bool     `json:"isCorrect"`
	UsedSemanticEvaluator bool     `json:"usedSemanticEvaluator"`
	Confidence            float64  `json:"confidence"`
	Reasoning             string   `json:"reasoning,omitempty"`
	Strategy              Strategy `json:"strategy"`
}

// Engine routes answers to a deterministic matcher and escalates eligible
// misses to the semantic judge. It is safe for concurrent use.
type Engine struct {
	judge  SemanticJudge
	policy Policy
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewEngine builds an engine. A nil judge disables escalation.
func NewEngine(judge SemanticJudge, policy Policy, logger zerolog.Logger) *Engine {
	return &Engine{
		judge:  judge,
		policy: policy.withDefaults(),
		logger: logger.With().Str("component", "evaluation_engine").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/gema-quiz-eval/internal/evaluation"),
	}
}

// Policy returns the effective policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Evaluate grades answer against q. It always returns a result.
func (e *Engine) Evaluate(parent context.Context, q Question, answer Answer) (result Result) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, span := e.tracer.Start(parent, "evaluation.evaluate")
	defer span.End()

	defer func() {
		if recovered := recover(); recovered != nil {
			e.logger.Error().Str("panic", fmt.Sprint(recovered)).Str("kind", string(q.Kind)).Msg("evaluation panicked")
			result = e.miss(StrategyNone)
		}
		span.SetAttributes(
			attribute.String("strategy", string(result.Strategy)),
			attribute.Bool("correct", result.IsCorrect),
			attribute.Bool("semantic", result.UsedSemanticEvaluator),
		)
		observability.Evaluations().WithLabelValues(string(result.Strategy), strconv.FormatBool(result.IsCorrect)).Inc()
	}()

	variant := Classify(q)
	matched, strategy := e.matchDeterministic(variant, answer)
	if matched {
		return Result{
			IsCorrect:  true,
			Confidence: e.policy.MatchConfidence,
			Strategy:   strategy,
		}
	}

	if !e.shouldEscalate(q, answer) {
		observability.Escalations().WithLabelValues(escalationSkipped).Inc()
		return e.miss(strategy)
	}

	e.logger.Debug().Str("shape", string(variant.Shape())).Msg("escalating to semantic judge")
	verdict := e.judge.Judge(context.WithoutCancel(ctx), ai.SemanticInput{
		Question:        q.Text,
		Answer:          answer.Text(),
		ExpectedAnswers: q.ExpectedAnswers,
		Explanation:     q.Explanation,
		Context:         q.Context,
	})
	if !verdict.Usable() {
		observability.Escalations().WithLabelValues(escalationFailed).Inc()
		e.logger.Warn().Str("outcome", string(verdict.Outcome)).Str("reasoning", verdict.Reasoning).Msg("semantic judge unavailable, keeping deterministic result")
		return e.miss(strategy)
	}

	observability.Escalations().WithLabelValues(escalationAccepted).Inc()
	return Result{
		IsCorrect:             verdict.IsCorrect,
		UsedSemanticEvaluator: true,
		Confidence:            clampConfidence(verdict.Confidence),
		Reasoning:             verdict.Reasoning,
		Strategy:              StrategySemantic,
	}
}

func (e *Engine) matchDeterministic(variant Variant, answer Answer) (bool, Strategy) {
	switch v := variant.(type) {
	case ChoiceQuestion:
		return MatchChoice(v, answer), StrategyChoice
	case NumericQuestion:
		return MatchNumeric(v, answer, e.policy.NumericTolerance), StrategyNumeric
	case OpenEndedQuestion:
		return MatchFuzzy(v, answer, e.policy.FuzzyMatchRatio), StrategyFuzzy
	default:
		return false, StrategyNone
	}
}

// shouldEscalate gates the semantic judge: open-ended kind, at least one expected
// answer, and an answer longer than the minimum escalation length once trimmed.
func (e *Engine) shouldEscalate(q Question, answer Answer) bool {
	if e.judge == nil || !q.IsOpenEnded() || len(q.ExpectedAnswers) == 0 {
		return false
	}
	return len([]rune(strings.TrimSpace(answer.Text()))) > e.policy.MinEscalationLength
}

func (e *Engine) miss(strategy Strategy) Result {
	return Result{
		IsCorrect:  false,
		Confidence: e.policy.MissConfidence,
		Strategy:   strategy,
	}
}

func clampConfidence(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
