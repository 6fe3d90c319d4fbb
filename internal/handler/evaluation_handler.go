package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-quiz-eval/internal/dto"
	"github.com/noah-isme/gema-quiz-eval/internal/middleware"
	"github.com/noah-isme/gema-quiz-eval/internal/service"
	"github.com/noah-isme/gema-quiz-eval/internal/utils"
)

// EvaluationHandler exposes quiz answer evaluation endpoints.
type EvaluationHandler struct {
	service   service.EvaluationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service service.EvaluationService, validator *validator.Validate, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("", h.evaluate)
	router.Post("/batch", h.evaluateBatch)
	router.Get("", h.list)
	router.Get("/status", middleware.RequireRole(middleware.RoleTeacher, middleware.RoleAdmin), h.status)
	router.Get("/:id", h.get)
}

func (h *EvaluationHandler) evaluate(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.EvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	response, err := h.service.Evaluate(c.UserContext(), actor, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer evaluated", response)
}

func (h *EvaluationHandler) evaluateBatch(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.BatchEvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	response, err := h.service.EvaluateBatch(c.UserContext(), actor, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batch evaluated", response)
}

func (h *EvaluationHandler) get(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.UserContext(), actor, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation retrieved", response)
}

func (h *EvaluationHandler) list(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	query := service.EvaluationQuery{
		QuestionID: strings.TrimSpace(c.Query("question_id")),
		BatchID:    strings.TrimSpace(c.Query("batch_id")),
	}

	userID, err := parseQueryInt(c, "user_id")
	if err != nil || userID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user_id")
	}
	if userID > 0 {
		id := uint(userID)
		query.UserID = &id
	}
	if query.Limit, err = parseQueryInt(c, "limit"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	if query.Offset, err = parseQueryInt(c, "offset"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	response, err := h.service.List(c.UserContext(), actor, query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluations retrieved", response)
}

func (h *EvaluationHandler) status(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "evaluator status", h.service.Status())
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		messages := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			messages = append(messages, fieldErr.Error())
		}
		return utils.SendErrors(c, fiber.StatusBadRequest, "invalid request", messages)
	case errors.Is(err, service.ErrInvalidAnswer):
		return utils.SendErrors(c, fiber.StatusUnprocessableEntity, "invalid answer", problemMessages(err))
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEvaluationForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("evaluation operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// problemMessages flattens a batch multierror into one message per item.
func problemMessages(err error) []string {
	var problems *multierror.Error
	if !errors.As(err, &problems) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(problems.Errors))
	for _, problem := range problems.Errors {
		messages = append(messages, problem.Error())
	}
	return messages
}
