package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-quiz-eval/internal/config"
	"github.com/noah-isme/gema-quiz-eval/internal/utils"
)

const dependencyCheckTimeout = 2 * time.Second

// DependencyCheck reports whether a backing service is reachable.
type DependencyCheck func(ctx context.Context) error

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Semantic     SemanticHealth    `json:"semantic"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// SemanticHealth describes the configured escalation provider.
type SemanticHealth struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// HealthCheck reports the service identity, the semantic provider and the state
// of each dependency. Grading keeps working without the database, Redis or NATS,
// so a failing dependency reports "degraded" with status 200.
func HealthCheck(cfg config.Config, checks map[string]DependencyCheck) fiber.Handler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Semantic: SemanticHealth{
				Enabled:  cfg.SemanticEnabled(),
				Provider: cfg.AIProvider,
				Model:    cfg.AIModel,
			},
		}

		if len(names) > 0 {
			payload.Dependencies = make(map[string]string, len(names))
		}
		for _, name := range names {
			ctx, cancel := context.WithTimeout(c.UserContext(), dependencyCheckTimeout)
			err := checks[name](ctx)
			cancel()

			if err != nil {
				payload.Dependencies[name] = "unavailable"
				payload.Status = "degraded"
				continue
			}
			payload.Dependencies[name] = "ok"
		}

		return utils.SendSuccess(c, "service "+payload.Status, payload)
	}
}
