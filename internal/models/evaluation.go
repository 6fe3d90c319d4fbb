package models

import (
	"time"

	"gorm.io/datatypes"
)

// EvaluationRecord captures the graded outcome of one quiz answer.
type EvaluationRecord struct {
	ID                    uint    `gorm:"primaryKey" json:"id"`
	BatchID               string  `gorm:"size:36;index" json:"batch_id,omitempty"`
	UserID                uint    `gorm:"not null;index" json:"user_id"`
	QuestionID            string  `gorm:"size:128;index" json:"question_id"`
	QuestionKind          string  `gorm:"size:32;not null" json:"question_kind"`
	AnswerFormat          string  `gorm:"size:32" json:"answer_format"`
	Answer                string  `gorm:"type:text" json:"answer"`
	IsCorrect             bool    `gorm:"not null;default:false" json:"is_correct"`
	UsedSemanticEvaluator bool    `gorm:"not null;default:false" json:"used_semantic_evaluator"`
	Confidence            float64 `gorm:"not null" json:"confidence"`
	Strategy              string  `gorm:"size:32;not null" json:"strategy"`
	Reasoning             string  `gorm:"type:text" json:"reasoning"`
	// Details snapshots the graded question so records stay readable after content edits.
	Details   datatypes.JSONMap `gorm:"type:json" json:"details"`
	CreatedAt time.Time         `json:"created_at"`
}

// TableName pins the table name used by migrations.
func (EvaluationRecord) TableName() string {
	return "quiz_evaluations"
}
