package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-quiz-eval/internal/models"
)

const (
	defaultEvaluationLimit = 20
	maxEvaluationLimit     = 100
)

// EvaluationFilter narrows evaluation history queries.
type EvaluationFilter struct {
	UserID     *uint
	QuestionID string
	BatchID    string
	Limit      int
	Offset     int
}

// EvaluationRepository exposes persistence helpers for graded answers.
type EvaluationRepository interface {
	Create(ctx context.Context, record *models.EvaluationRecord) error
	CreateBatch(ctx context.Context, records []models.EvaluationRecord) error
	GetByID(ctx context.Context, id uint) (models.EvaluationRecord, error)
	List(ctx context.Context, filter EvaluationFilter) ([]models.EvaluationRecord, int64, error)
}

// NewEvaluationRepository constructs an evaluation repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

type evaluationRepository struct {
	db *gorm.DB
}

func (r *evaluationRepository) Create(ctx context.Context, record *models.EvaluationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *evaluationRepository) CreateBatch(ctx context.Context, records []models.EvaluationRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&records, 50).Error
	})
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (models.EvaluationRecord, error) {
	var record models.EvaluationRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.EvaluationRecord{}, err
	}
	return record, nil
}

func (r *evaluationRepository) List(ctx context.Context, filter EvaluationFilter) ([]models.EvaluationRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.EvaluationRecord{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.QuestionID != "" {
		query = query.Where("question_id = ?", filter.QuestionID)
	}
	if filter.BatchID != "" {
		query = query.Where("batch_id = ?", filter.BatchID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEvaluationLimit
	}
	if limit > maxEvaluationLimit {
		limit = maxEvaluationLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var records []models.EvaluationRecord
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
