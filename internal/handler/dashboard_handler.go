package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/repository"
	"github.com/meryam27/skilltrack-api/internal/service"
	"github.com/meryam27/skilltrack-api/internal/utils"
)

// DashboardHandler wires the aggregated dashboard endpoint.
type DashboardHandler struct {
	service  service.DashboardService
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, students repository.StudentRepository, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		students: students,
		logger:   logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard route to the router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("", h.get)
}

func (h *DashboardHandler) get(c *fiber.Ctx) error {
	studentID, err := resolveStudentID(c.Context(), c, h.students)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student profile not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve student")
	}

	dashboard, err := h.service.Get(c.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build dashboard")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
