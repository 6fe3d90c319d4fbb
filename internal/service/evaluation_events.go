package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/gema-quiz-eval/internal/dto"
)

// DefaultEvaluationSubject is the NATS subject graded answers are announced on.
const DefaultEvaluationSubject = "quiz.evaluations"

// EvaluationEvent is published after every graded answer so XP and achievement
// consumers can react without polling.
type EvaluationEvent struct {
	Source     string                 `json:"source"`
	UserID     uint                   `json:"user_id"`
	Evaluation dto.EvaluationResponse `json:"evaluation"`
	SentAt     time.Time              `json:"sent_at"`
}

// EvaluationPublisher announces graded answers.
type EvaluationPublisher interface {
	Publish(ctx context.Context, event EvaluationEvent) error
}

type evaluationPublisher struct {
	nats        *nats.Conn
	natsSubject string
	redis       *redis.Client
	redisStream string
	nodeID      string
}

// NewEvaluationPublisher builds a publisher over NATS and Redis pub/sub. Either
// transport may be nil; with both nil Publish is a no-op.
func NewEvaluationPublisher(natsConn *nats.Conn, redisClient *redis.Client, subject string) EvaluationPublisher {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultEvaluationSubject
	}
	return &evaluationPublisher{
		nats:        natsConn,
		natsSubject: subject,
		redis:       redisClient,
		redisStream: strings.ReplaceAll(subject, ".", ":"),
		nodeID:      uuid.NewString(),
	}
}

func (p *evaluationPublisher) Publish(ctx context.Context, event EvaluationEvent) error {
	if p.nats == nil && p.redis == nil {
		return nil
	}

	event.Source = p.nodeID
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if p.nats != nil {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}
