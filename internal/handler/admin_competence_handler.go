package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/repository"
	"github.com/meryam27/skilltrack-api/internal/service"
	"github.com/meryam27/skilltrack-api/internal/utils"
)

// AdminCompetenceHandler wires admin competence endpoints.
type AdminCompetenceHandler struct {
	service service.AdminCompetenceService
	logger  zerolog.Logger
}

// NewAdminCompetenceHandler constructs the handler.
func NewAdminCompetenceHandler(service service.AdminCompetenceService, logger zerolog.Logger) *AdminCompetenceHandler {
	return &AdminCompetenceHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_competence_handler").Logger(),
	}
}

// Register attaches competence admin routes to the router group.
func (h *AdminCompetenceHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/categories", h.categories)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/students", h.students)
	router.Patch("/:id/popularity", h.recalculatePopularity)
}

func (h *AdminCompetenceHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	institutionID, err := parseQueryInt(c, "institution_id")
	if err != nil || institutionID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid institution id")
	}

	req := dto.AdminCompetenceListRequest{
		Page:          page,
		PageSize:      pageSize,
		Search:        c.Query("search"),
		Category:      c.Query("category"),
		Domain:        c.Query("domain"),
		Level:         c.Query("level"),
		InstitutionID: uint(institutionID),
		SortBy:        c.Query("sort_by"),
		Order:         c.Query("order"),
	}

	response, err := h.service.List(c.Context(), req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list competences")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list competences")
	}

	return utils.SendSuccess(c, "competences retrieved", response)
}

func (h *AdminCompetenceHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	competence, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCompetenceNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "competence not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch competence")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch competence")
	}

	return utils.SendSuccess(c, "competence retrieved", competence)
}

func (h *AdminCompetenceHandler) create(c *fiber.Ctx) error {
	var payload dto.AdminCompetenceCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	competence, err := h.service.Create(c.Context(), payload, auditActorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCompetenceCodeTaken):
			return utils.SendError(c, fiber.StatusConflict, "competence code already used")
		case errors.Is(err, service.ErrPrerequisiteNotFound), errors.Is(err, service.ErrSelfPrerequisite):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create competence")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create competence")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "competence created", competence)
}

func (h *AdminCompetenceHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AdminCompetenceUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	competence, err := h.service.Update(c.Context(), id, payload, auditActorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCompetenceNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "competence not found")
		case errors.Is(err, service.ErrPrerequisiteNotFound), errors.Is(err, service.ErrSelfPrerequisite):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to update competence")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update competence")
		}
	}

	return utils.SendSuccess(c, "competence updated", competence)
}

func (h *AdminCompetenceHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.service.Delete(c.Context(), id, auditActorFromContext(c)); err != nil {
		var inUse *repository.CompetenceInUseError
		switch {
		case errors.Is(err, service.ErrCompetenceNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "competence not found")
		case errors.As(err, &inUse):
			return utils.SendError(c, fiber.StatusConflict, fmt.Sprintf("competence still in use: %s", inUse.Error()))
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete competence")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete competence")
		}
	}

	return utils.SendSuccess(c, "competence deleted", fiber.Map{"id": id})
}

func (h *AdminCompetenceHandler) students(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	filter := repository.StudentCompetenceFilter{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}

	response, err := h.service.Students(c.Context(), id, filter)
	if err != nil {
		if errors.Is(err, service.ErrCompetenceNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "competence not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list competence students")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list competence students")
	}

	return utils.SendSuccess(c, "competence students retrieved", response)
}

func (h *AdminCompetenceHandler) recalculatePopularity(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	response, err := h.service.RecalculatePopularity(c.Context(), id, auditActorFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrCompetenceNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "competence not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to recalculate popularity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to recalculate popularity")
	}

	return utils.SendSuccess(c, "popularity recalculated", response)
}

func (h *AdminCompetenceHandler) categories(c *fiber.Ctx) error {
	response, err := h.service.Categories(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list categories")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list categories")
	}

	return utils.SendSuccess(c, "categories retrieved", response)
}
