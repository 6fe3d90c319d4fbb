package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/noah-isme/gema-quiz-eval/internal/evaluation"
	"github.com/noah-isme/gema-quiz-eval/internal/models"
	"github.com/noah-isme/gema-quiz-eval/pkg/ai"
)

// MaxBatchSize bounds the number of items accepted by a batch evaluation.
const MaxBatchSize = 100

// ErrInvalidAnswer indicates the answer is neither an integer nor a string.
var ErrInvalidAnswer = errors.New("answer must be an integer index or a string")

// QuestionPayload describes the question being answered.
type QuestionPayload struct {
	ID                string   `json:"id" validate:"omitempty,max=128"`
	Text              string   `json:"text" validate:"required,max=4000"`
	Type              string   `json:"type" validate:"required,max=32"`
	Options           []string `json:"options" validate:"omitempty,max=26,dive,max=1000"`
	CorrectIndex      *int     `json:"correct_index" validate:"omitempty,gte=0"`
	CorrectAnswerText string   `json:"correct_answer_text" validate:"omitempty,max=1000"`
	AnswerFormat      string   `json:"answer_format" validate:"omitempty,oneof=number numeric free-text"`
	ExpectedAnswers   []string `json:"expected_answers" validate:"omitempty,max=20,dive,max=2000"`
	Explanation       string   `json:"explanation" validate:"omitempty,max=4000"`
	Context           string   `json:"context" validate:"omitempty,max=8000"`
}

// EvaluateRequest is the payload for grading a single answer.
type EvaluateRequest struct {
	Question QuestionPayload `json:"question"`
	// Answer is an integer option index or a string.
	Answer json.RawMessage `json:"answer" validate:"required"`
}

// BatchEvaluateRequest grades several answers in one call.
type BatchEvaluateRequest struct {
	Items []EvaluateRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

// ToQuestion converts the payload into an engine question. Every well-typed
// payload converts; content problems are reported by Warnings.
func (p QuestionPayload) ToQuestion() evaluation.Question {
	return evaluation.Question{
		Text:                strings.TrimSpace(p.Text),
		Kind:                p.kind(),
		Options:             p.Options,
		CorrectIndex:        p.CorrectIndex,
		FallbackCorrectText: p.CorrectAnswerText,
		AnswerFormat:        p.format(),
		ExpectedAnswers:     p.ExpectedAnswers,
		Explanation:         p.Explanation,
		Context:             p.Context,
	}
}

// Warnings lists authoring problems that make some answers impossible to
// grade as correct. The question is still graded.
func (p QuestionPayload) Warnings() error {
	var result *multierror.Error

	kind := p.kind()
	format := p.format()

	if kind == evaluation.KindMultipleChoice && !format.IsNumeric() && len(p.Options) == 0 && strings.TrimSpace(p.CorrectAnswerText) == "" {
		result = multierror.Append(result, errors.New("multiple_choice question has neither options nor correct_answer_text"))
	}
	if kind == evaluation.KindOpenEnded && format.IsNumeric() && len(p.ExpectedAnswers) > 0 {
		numeric := false
		for _, expected := range p.ExpectedAnswers {
			if _, ok := evaluation.ExtractFirstNumber(expected); ok {
				numeric = true
				break
			}
		}
		if !numeric {
			result = multierror.Append(result, errors.New("numeric question has no numeric expected answer"))
		}
	}
	for i, expected := range p.ExpectedAnswers {
		if strings.TrimSpace(expected) == "" {
			result = multierror.Append(result, fmt.Errorf("expected_answers[%d] is blank", i))
		}
	}

	return result.ErrorOrNil()
}

func (p QuestionPayload) kind() evaluation.Kind {
	return evaluation.Kind(strings.ToLower(strings.TrimSpace(p.Type)))
}

func (p QuestionPayload) format() evaluation.AnswerFormat {
	return evaluation.AnswerFormat(strings.ToLower(strings.TrimSpace(p.AnswerFormat)))
}

// ParseAnswer decodes a raw JSON answer. Integral numbers select an option;
// strings and non-integral numbers are free text.
func ParseAnswer(raw json.RawMessage) (evaluation.Answer, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return evaluation.Answer{}, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}

	switch v := value.(type) {
	case string:
		return evaluation.TextAnswer(v), nil
	case json.Number:
		if index, err := v.Int64(); err == nil {
			return evaluation.IndexAnswer(int(index)), nil
		}
		return evaluation.TextAnswer(v.String()), nil
	default:
		return evaluation.Answer{}, ErrInvalidAnswer
	}
}

// EvaluationResponse is a graded answer returned to API consumers.
type EvaluationResponse struct {
	ID                    uint      `json:"id,omitempty"`
	BatchID               string    `json:"batch_id,omitempty"`
	QuestionID            string    `json:"question_id,omitempty"`
	IsCorrect             bool      `json:"is_correct"`
	UsedSemanticEvaluator bool      `json:"used_semantic_evaluator"`
	Confidence            float64   `json:"confidence"`
	Reasoning             string    `json:"reasoning,omitempty"`
	Strategy              string    `json:"strategy"`
	CreatedAt             time.Time `json:"created_at"`
}

// BatchSummary aggregates a batch of graded answers.
type BatchSummary struct {
	Total         int     `json:"total"`
	Correct       int     `json:"correct"`
	Score         float64 `json:"score"`
	SemanticCalls int     `json:"semantic_calls"`
}

// BatchEvaluationResponse preserves the order of the request items.
type BatchEvaluationResponse struct {
	BatchID string               `json:"batch_id"`
	Results []EvaluationResponse `json:"results"`
	Summary BatchSummary         `json:"summary"`
}

// EvaluationListResponse is a page of evaluation history.
type EvaluationListResponse struct {
	Items  []EvaluationResponse `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// EvaluatorStatusResponse reports the semantic judge to operators.
type EvaluatorStatusResponse struct {
	Enabled bool                `json:"enabled"`
	Judge   *ai.EvaluatorStatus `json:"judge,omitempty"`
}

// NewEvaluationResponse converts an evaluation record into a DTO.
func NewEvaluationResponse(record models.EvaluationRecord) EvaluationResponse {
	return EvaluationResponse{
		ID:                    record.ID,
		BatchID:               record.BatchID,
		QuestionID:            record.QuestionID,
		IsCorrect:             record.IsCorrect,
		UsedSemanticEvaluator: record.UsedSemanticEvaluator,
		Confidence:            record.Confidence,
		Reasoning:             record.Reasoning,
		Strategy:              record.Strategy,
		CreatedAt:             record.CreatedAt,
	}
}

// NewBatchSummary computes the score summary for results.
func NewBatchSummary(results []EvaluationResponse) BatchSummary {
	summary := BatchSummary{Total: len(results)}
	for _, result := range results {
		if result.IsCorrect {
			summary.Correct++
		}
		if result.UsedSemanticEvaluator {
			summary.SemanticCalls++
		}
	}
	if summary.Total > 0 {
		summary.Score = float64(summary.Correct) / float64(summary.Total) * 100
	}
	return summary
}
