package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-quiz-eval/internal/dto"
	"github.com/noah-isme/gema-quiz-eval/internal/evaluation"
	"github.com/noah-isme/gema-quiz-eval/internal/models"
	"github.com/noah-isme/gema-quiz-eval/internal/repository"
	"github.com/noah-isme/gema-quiz-eval/pkg/ai"
)

// ErrEvaluationNotFound indicates the evaluation record cannot be located.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// ErrEvaluationForbidden indicates the caller may not access the record.
var ErrEvaluationForbidden = errors.New("forbidden")

// ErrInvalidAnswer indicates the answer is neither an integer nor a string.
var ErrInvalidAnswer = dto.ErrInvalidAnswer

const (
	defaultBatchConcurrency = 8
	maxAnswerLength         = 8000
)

// Actor identifies the authenticated caller.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) canReviewOthers() bool {
	switch strings.ToLower(strings.TrimSpace(a.Role)) {
	case "teacher", "admin":
		return true
	default:
		return false
	}
}

// EvaluationQuery filters evaluation history.
type EvaluationQuery struct {
	UserID     *uint
	QuestionID string
	BatchID    string
	Limit      int
	Offset     int
}

// Grader grades one answer. *evaluation.Engine satisfies it.
type Grader interface {
	Evaluate(ctx context.Context, q evaluation.Question, answer evaluation.Answer) evaluation.Result
}

// JudgeStatusReporter exposes the semantic judge state.
type JudgeStatusReporter interface {
	Status() ai.EvaluatorStatus
}

// EvaluationService grades quiz answers and keeps an audit log of verdicts.
type EvaluationService interface {
	Evaluate(ctx context.Context, actor Actor, payload dto.EvaluateRequest) (dto.EvaluationResponse, error)
	EvaluateBatch(ctx context.Context, actor Actor, payload dto.BatchEvaluateRequest) (dto.BatchEvaluationResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.EvaluationResponse, error)
	List(ctx context.Context, actor Actor, query EvaluationQuery) (dto.EvaluationListResponse, error)
	Status() dto.EvaluatorStatusResponse
}

// EvaluationServiceConfig tunes the service.
type EvaluationServiceConfig struct {
	BatchConcurrency int
}

type evaluationService struct {
	grader    Grader
	repo      repository.EvaluationRepository
	publisher EvaluationPublisher
	judge     JudgeStatusReporter
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	config    EvaluationServiceConfig
	now       func() time.Time
}

// NewEvaluationService constructs the evaluation service. The repository,
// publisher and judge reporter are optional.
func NewEvaluationService(grader Grader, repo repository.EvaluationRepository, publisher EvaluationPublisher, judge JudgeStatusReporter, validate *validator.Validate, logger zerolog.Logger, cfg EvaluationServiceConfig) EvaluationService {
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = defaultBatchConcurrency
	}
	if validate == nil {
		validate = validator.New()
	}

	return &evaluationService{
		grader:    grader,
		repo:      repo,
		publisher: publisher,
		judge:     judge,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		config:    cfg,
		now:       time.Now,
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, actor Actor, payload dto.EvaluateRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	q, answer, err := s.prepare(payload)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	record := s.grade(ctx, actor, "", payload.Question, q, answer)
	if s.repo != nil {
		if err := s.repo.Create(ctx, &record); err != nil {
			s.logger.Error().Err(err).Uint("user_id", actor.ID).Msg("failed to persist evaluation")
		}
	}

	response := dto.NewEvaluationResponse(record)
	s.announce(ctx, actor, response)
	return response, nil
}

func (s *evaluationService) EvaluateBatch(ctx context.Context, actor Actor, payload dto.BatchEvaluateRequest) (dto.BatchEvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchEvaluationResponse{}, err
	}

	questions := make([]evaluation.Question, len(payload.Items))
	answers := make([]evaluation.Answer, len(payload.Items))
	var problems *multierror.Error
	for i, item := range payload.Items {
		q, answer, err := s.prepare(item)
		if err != nil {
			problems = multierror.Append(problems, fmt.Errorf("items[%d]: %w", i, err))
			continue
		}
		questions[i] = q
		answers[i] = answer
	}
	if err := problems.ErrorOrNil(); err != nil {
		return dto.BatchEvaluationResponse{}, err
	}

	batchID := uuid.NewString()
	records := make([]models.EvaluationRecord, len(payload.Items))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.BatchConcurrency)
	for i := range payload.Items {
		group.Go(func() error {
			records[i] = s.grade(groupCtx, actor, batchID, payload.Items[i].Question, questions[i], answers[i])
			return nil
		})
	}
	_ = group.Wait()

	if s.repo != nil {
		if err := s.repo.CreateBatch(ctx, records); err != nil {
			s.logger.Error().Err(err).Str("batch_id", batchID).Msg("failed to persist evaluation batch")
		}
	}

	results := make([]dto.EvaluationResponse, 0, len(records))
	for _, record := range records {
		response := dto.NewEvaluationResponse(record)
		results = append(results, response)
		s.announce(ctx, actor, response)
	}

	return dto.BatchEvaluationResponse{
		BatchID: batchID,
		Results: results,
		Summary: dto.NewBatchSummary(results),
	}, nil
}

func (s *evaluationService) Get(ctx context.Context, actor Actor, id uint) (dto.EvaluationResponse, error) {
	if s.repo == nil {
		return dto.EvaluationResponse{}, ErrEvaluationNotFound
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	if record.UserID != actor.ID && !actor.canReviewOthers() {
		return dto.EvaluationResponse{}, ErrEvaluationForbidden
	}
	return dto.NewEvaluationResponse(record), nil
}

func (s *evaluationService) List(ctx context.Context, actor Actor, query EvaluationQuery) (dto.EvaluationListResponse, error) {
	filter := repository.EvaluationFilter{
		UserID:     query.UserID,
		QuestionID: strings.TrimSpace(query.QuestionID),
		BatchID:    strings.TrimSpace(query.BatchID),
		Limit:      query.Limit,
		Offset:     query.Offset,
	}

	if !actor.canReviewOthers() {
		if filter.UserID != nil && *filter.UserID != actor.ID {
			return dto.EvaluationListResponse{}, ErrEvaluationForbidden
		}
		own := actor.ID
		filter.UserID = &own
	}

	response := dto.EvaluationListResponse{Items: []dto.EvaluationResponse{}, Limit: query.Limit, Offset: query.Offset}
	if s.repo == nil {
		return response, nil
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.EvaluationListResponse{}, err
	}

	for _, record := range records {
		response.Items = append(response.Items, dto.NewEvaluationResponse(record))
	}
	response.Total = total
	return response, nil
}

func (s *evaluationService) Status() dto.EvaluatorStatusResponse {
	if s.judge == nil {
		return dto.EvaluatorStatusResponse{Enabled: false}
	}
	status := s.judge.Status()
	return dto.EvaluatorStatusResponse{Enabled: true, Judge: &status}
}

func (s *evaluationService) prepare(payload dto.EvaluateRequest) (evaluation.Question, evaluation.Answer, error) {
	q := payload.Question.ToQuestion()
	if warnings := payload.Question.Warnings(); warnings != nil {
		s.logger.Warn().Err(warnings).Str("question_id", payload.Question.ID).Msg("grading incomplete question")
	}

	answer, err := dto.ParseAnswer(payload.Answer)
	if err != nil {
		return evaluation.Question{}, evaluation.Answer{}, err
	}
	if len(answer.Text()) > maxAnswerLength {
		return evaluation.Question{}, evaluation.Answer{}, fmt.Errorf("%w: answer exceeds %d characters", ErrInvalidAnswer, maxAnswerLength)
	}
	return q, answer, nil
}

func (s *evaluationService) grade(ctx context.Context, actor Actor, batchID string, payload dto.QuestionPayload, q evaluation.Question, answer evaluation.Answer) models.EvaluationRecord {
	result := s.grader.Evaluate(ctx, q, answer)

	return models.EvaluationRecord{
		BatchID:               batchID,
		UserID:                actor.ID,
		QuestionID:            payload.ID,
		QuestionKind:          string(q.Kind),
		AnswerFormat:          string(q.AnswerFormat),
		Answer:                s.sanitizer.Sanitize(answer.Text()),
		IsCorrect:             result.IsCorrect,
		UsedSemanticEvaluator: result.UsedSemanticEvaluator,
		Confidence:            result.Confidence,
		Strategy:              string(result.Strategy),
		Reasoning:             result.Reasoning,
		Details: datatypes.JSONMap{
			"question":         q.Text,
			"options":          q.Options,
			"expected_answers": q.ExpectedAnswers,
		},
		CreatedAt: s.now().UTC(),
	}
}

func (s *evaluationService) announce(ctx context.Context, actor Actor, response dto.EvaluationResponse) {
	if s.publisher == nil {
		return
	}
	event := EvaluationEvent{UserID: actor.ID, Evaluation: response, SentAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", actor.ID).Msg("failed to publish evaluation event")
	}
}
