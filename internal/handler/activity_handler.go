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

// ActivityHandler wires the session recording endpoints.
type ActivityHandler struct {
	service  service.ActivitySessionService
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivitySessionService, students repository.StudentRepository, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:  service,
		students: students,
		logger:   logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the activity routes to the router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("/sessions", h.record)
	router.Get("/sessions", h.history)
}

func (h *ActivityHandler) record(c *fiber.Ctx) error {
	studentID, err := resolveStudentID(c.Context(), c, h.students)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student profile not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve student")
	}

	var payload dto.RecordSessionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Record(c.Context(), studentID, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionRejected):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to record session")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to record session")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session recorded", response)
}

func (h *ActivityHandler) history(c *fiber.Ctx) error {
	studentID, err := resolveStudentID(c.Context(), c, h.students)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student profile not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve student")
	}

	sessions, err := h.service.History(c.Context(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch session history")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch session history")
	}

	return utils.SendSuccess(c, "sessions retrieved", sessions)
}
