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

// AchievementHandler wires the achievement endpoints.
type AchievementHandler struct {
	service  service.AchievementService
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewAchievementHandler constructs the handler.
func NewAchievementHandler(service service.AchievementService, students repository.StudentRepository, logger zerolog.Logger) *AchievementHandler {
	return &AchievementHandler{
		service:  service,
		students: students,
		logger:   logger.With().Str("component", "achievement_handler").Logger(),
	}
}

// Register attaches the achievement routes to the router group.
func (h *AchievementHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.unlock)
}

func (h *AchievementHandler) unlock(c *fiber.Ctx) error {
	studentID, err := resolveStudentID(c.Context(), c, h.students)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student profile not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve student")
	}

	var payload dto.AchievementUnlockRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	achievement, err := h.service.Unlock(c.Context(), studentID, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to unlock achievement")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to unlock achievement")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "achievement unlocked", achievement)
}

func (h *AchievementHandler) list(c *fiber.Ctx) error {
	studentID, err := resolveStudentID(c.Context(), c, h.students)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student profile not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve student")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	achievements, err := h.service.ListRecent(c.Context(), studentID, limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list achievements")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list achievements")
	}

	return utils.SendSuccess(c, "achievements retrieved", achievements)
}
