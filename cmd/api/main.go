package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-quiz-eval/internal/config"
	"github.com/noah-isme/gema-quiz-eval/internal/database"
	"github.com/noah-isme/gema-quiz-eval/internal/evaluation"
	"github.com/noah-isme/gema-quiz-eval/internal/handler"
	"github.com/noah-isme/gema-quiz-eval/internal/middleware"
	"github.com/noah-isme/gema-quiz-eval/internal/observability"
	"github.com/noah-isme/gema-quiz-eval/internal/repository"
	"github.com/noah-isme/gema-quiz-eval/internal/router"
	"github.com/noah-isme/gema-quiz-eval/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("evaluation events disabled")
		} else {
			defer natsConn.Close()
		}
	}

	semantic, err := service.NewSemanticJudge(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to create semantic judge: %v", err)
	}

	// Interface values stay nil when escalation is disabled.
	var judge evaluation.SemanticJudge
	var status service.JudgeStatusReporter
	if semantic != nil {
		judge = service.NewCachedJudge(semantic, redisClient, cfg.VerdictCacheTTL, logger)
		status = semantic
	}

	engine := evaluation.NewEngine(judge, cfg.Policy(), logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	evaluationService := service.NewEvaluationService(
		engine,
		repository.NewEvaluationRepository(db),
		service.NewEvaluationPublisher(natsConn, redisClient, service.DefaultEvaluationSubject),
		status,
		validate,
		logger,
		service.EvaluationServiceConfig{BatchConcurrency: cfg.BatchConcurrency},
	)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	healthChecks := map[string]handler.DependencyCheck{"postgres": database.PostgresCheck(db)}
	if redisClient != nil {
		healthChecks["redis"] = database.RedisCheck(redisClient)
	}
	if natsConn != nil {
		healthChecks["nats"] = database.NATSCheck(natsConn)
	}

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: evaluationHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		HealthChecks:      healthChecks,
	})

	logger.Info().
		Str("provider", cfg.AIProvider).
		Bool("semantic", judge != nil).
		Str("address", cfg.HTTPAddress()).
		Msg("starting quiz evaluation api")

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
