package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-quiz-eval/internal/config"
	"github.com/noah-isme/gema-quiz-eval/internal/handler"
	"github.com/noah-isme/gema-quiz-eval/internal/middleware"
	"github.com/noah-isme/gema-quiz-eval/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler *handler.EvaluationHandler
	JWTMiddleware     fiber.Handler
	// MetricsHandler overrides the default Prometheus scrape handler.
	MetricsHandler fiber.Handler
	// HealthChecks are reported by name on the health endpoint.
	HealthChecks map[string]handler.DependencyCheck
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	metrics := deps.MetricsHandler
	if metrics == nil {
		metrics = observability.MetricsHandler()
	}
	app.Get("/metrics", metrics)

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Quiz evaluation
	if deps.EvaluationHandler != nil {
		quiz := app.Group("/api/v2/quiz", jwtMiddleware)
		evaluations := quiz.Group("/evaluations", middleware.RateLimit("quiz_evaluations", cfg.RateLimitMax, cfg.RateLimitWindow))
		deps.EvaluationHandler.Register(evaluations)
	}
}
