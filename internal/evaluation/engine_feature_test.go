//go:build cucumber

package evaluation

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-quiz-eval/pkg/ai"
)

// TestEvaluationScenarios runs the answer evaluation feature scenarios.
func TestEvaluationScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "answer-evaluation",
		ScenarioInitializer: initializeEvaluationScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{filepath.Join("testdata", "evaluation.feature")},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

func initializeEvaluationScenario(ctx *godog.ScenarioContext) {
	state := &evaluationScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^the semantic judge answers correct with confidence ([0-9.]+)$`, state.givenJudgeAnswers)
	ctx.Step(`^the semantic judge is unavailable$`, state.givenJudgeUnavailable)
	ctx.Step(`^a multiple choice question with options "([^"]*)" and correct index (\d+)$`, state.givenChoiceQuestion)
	ctx.Step(`^a numeric question expecting "([^"]*)"$`, state.givenNumericQuestion)
	ctx.Step(`^an open ended question expecting "([^"]*)"$`, state.givenOpenEndedQuestion)
	ctx.Step(`^the student answers index (\d+)$`, state.whenAnswersIndex)
	ctx.Step(`^the student answers "([^"]*)"$`, state.whenAnswersText)
	ctx.Step(`^the answer is (correct|incorrect) with confidence ([0-9.]+)$`, state.thenVerdict)
	ctx.Step(`^the semantic evaluator was used$`, state.thenSemanticUsed)
	ctx.Step(`^the semantic judge was called (\d+) times$`, state.thenJudgeCalls)
}

type evaluationScenarioState struct {
	judge    *stubJudge
	question Question
	result   Result
}

func (s *evaluationScenarioState) reset() {
	s.judge = &stubJudge{}
	s.question = Question{}
	s.result = Result{}
}

func (s *evaluationScenarioState) givenJudgeAnswers(confidence float64) error {
	s.judge.result = ai.SemanticResult{IsCorrect: true, Confidence: confidence, Outcome: ai.OutcomeStructured}
	return nil
}

func (s *evaluationScenarioState) givenJudgeUnavailable() error {
	s.judge.result = ai.SemanticResult{Reasoning: "semantic evaluation failed: circuit open", Outcome: ai.OutcomeFailed}
	return nil
}

func (s *evaluationScenarioState) givenChoiceQuestion(options string, correct int) error {
	s.question = Question{
		Text:         "Pick one",
		Kind:         KindMultipleChoice,
		Options:      strings.Split(options, "|"),
		CorrectIndex: &correct,
	}
	return nil
}

func (s *evaluationScenarioState) givenNumericQuestion(expected string) error {
	s.question = Question{Text: "How many?", Kind: KindOpenEnded, AnswerFormat: FormatNumber, ExpectedAnswers: []string{expected}}
	return nil
}

func (s *evaluationScenarioState) givenOpenEndedQuestion(expected string) error {
	s.question = Question{Text: "Explain", Kind: KindOpenEnded, ExpectedAnswers: []string{expected}}
	return nil
}

func (s *evaluationScenarioState) whenAnswersIndex(index int) error {
	s.result = s.engine().Evaluate(context.Background(), s.question, IndexAnswer(index))
	return nil
}

func (s *evaluationScenarioState) whenAnswersText(text string) error {
	s.result = s.engine().Evaluate(context.Background(), s.question, TextAnswer(text))
	return nil
}

func (s *evaluationScenarioState) engine() *Engine {
	return NewEngine(s.judge, DefaultPolicy(), zerolog.Nop())
}

func (s *evaluationScenarioState) thenVerdict(verdict string, confidence float64) error {
	want := verdict == "correct"
	if s.result.IsCorrect != want {
		return fmt.Errorf("expected correct=%t, got %t (strategy %s)", want, s.result.IsCorrect, s.result.Strategy)
	}
	if math.Abs(s.result.Confidence-confidence) > 1e-9 {
		return fmt.Errorf("expected confidence %.2f, got %.2f", confidence, s.result.Confidence)
	}
	return nil
}

func (s *evaluationScenarioState) thenSemanticUsed() error {
	if !s.result.UsedSemanticEvaluator {
		return fmt.Errorf("expected the semantic evaluator to decide, strategy was %s", s.result.Strategy)
	}
	return nil
}

func (s *evaluationScenarioState) thenJudgeCalls(expected int) error {
	if got := s.judge.callCount(); got != expected {
		return fmt.Errorf("expected %d judge calls, got %d", expected, got)
	}
	return nil
}
