package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/repository"
	"github.com/meryam27/skilltrack-api/internal/service"
	"github.com/meryam27/skilltrack-api/internal/utils"
)

// GoalHandler wires the learning goal endpoints.
type GoalHandler struct {
	service  service.GoalService
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewGoalHandler constructs the handler.
func NewGoalHandler(service service.GoalService, students repository.StudentRepository, logger zerolog.Logger) *GoalHandler {
	return &GoalHandler{
		service:  service,
		students: students,
		logger:   logger.With().Str("component", "goal_handler").Logger(),
	}
}

// Register attaches the goal routes to the router group.
func (h *GoalHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id/progress", h.progress)
	router.Post("/:id/progress", h.progress)
	router.Post("/:id/abandon", h.abandon)
}

func (h *GoalHandler) studentID(c *fiber.Ctx) (uint, error) {
	studentID, err := resolveStudentID(c.Context(), c, h.students)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, utils.SendError(c, fiber.StatusNotFound, "student profile not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve student")
		return 0, utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve student")
	}
	return studentID, nil
}

func (h *GoalHandler) create(c *fiber.Ctx) error {
	studentID, err := h.studentID(c)
	if err != nil {
		return err
	}

	var payload dto.GoalCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	goal, err := h.service.Create(c.Context(), studentID, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDeadlineInPast):
			return utils.SendError(c, fiber.StatusBadRequest, "deadline must be in the future")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create goal")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create goal")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "goal created", goal)
}

func (h *GoalHandler) list(c *fiber.Ctx) error {
	studentID, err := h.studentID(c)
	if err != nil {
		return err
	}

	goals, err := h.service.List(c.Context(), studentID, c.Query("status"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list goals")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list goals")
	}

	return utils.SendSuccess(c, "goals retrieved", goals)
}

func (h *GoalHandler) progress(c *fiber.Ctx) error {
	studentID, err := h.studentID(c)
	if err != nil {
		return err
	}

	goalID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.GoalProgressRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	goal, err := h.service.Progress(c.Context(), studentID, goalID, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoalNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "goal not found")
		case errors.Is(err, service.ErrGoalNotActive):
			return utils.SendError(c, fiber.StatusConflict, "goal is not active")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to record goal progress")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to record goal progress")
		}
	}

	return utils.SendSuccess(c, "goal progress recorded", goal)
}

func (h *GoalHandler) abandon(c *fiber.Ctx) error {
	studentID, err := h.studentID(c)
	if err != nil {
		return err
	}

	goalID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	goal, err := h.service.Abandon(c.Context(), studentID, goalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoalNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "goal not found")
		case errors.Is(err, service.ErrGoalNotActive):
			return utils.SendError(c, fiber.StatusConflict, "goal cannot be abandoned")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to abandon goal")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to abandon goal")
		}
	}

	return utils.SendSuccess(c, "goal abandoned", goal)
}
