package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

// Admin competence failure modes.
var (
	ErrCompetenceNotFound   = errors.New("competence not found")
	ErrCompetenceCodeTaken  = errors.New("competence code already used for this institution")
	ErrPrerequisiteNotFound = errors.New("one or more prerequisite competences do not exist")
	ErrSelfPrerequisite     = errors.New("a competence cannot be its own prerequisite")
)

// AdminCompetenceService orchestrates catalogue management use cases.
type AdminCompetenceService interface {
	List(ctx context.Context, req dto.AdminCompetenceListRequest) (dto.AdminCompetenceListResponse, error)
	Get(ctx context.Context, id uint) (dto.AdminCompetenceResponse, error)
	Create(ctx context.Context, payload dto.AdminCompetenceCreateRequest, actor AuditActor) (dto.AdminCompetenceResponse, error)
	Update(ctx context.Context, id uint, payload dto.AdminCompetenceUpdateRequest, actor AuditActor) (dto.AdminCompetenceResponse, error)
	Delete(ctx context.Context, id uint, actor AuditActor) error
	Students(ctx context.Context, id uint, filter repository.StudentCompetenceFilter) (dto.CompetenceStudentsResponse, error)
	RecalculatePopularity(ctx context.Context, id uint, actor AuditActor) (dto.PopularityResponse, error)
	Categories(ctx context.Context) (dto.CategoriesResponse, error)
}

type adminCompetenceService struct {
	competences repository.CompetenceRepository
	enrolments  repository.StudentCompetenceRepository
	audit       AuditRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAdminCompetenceService constructs the admin competence service.
func NewAdminCompetenceService(
	competences repository.CompetenceRepository,
	enrolments repository.StudentCompetenceRepository,
	audit AuditRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) AdminCompetenceService {
	return &adminCompetenceService{
		competences: competences,
		enrolments:  enrolments,
		audit:       audit,
		validator:   validate,
		logger:      logger.With().Str("component", "admin_competence_service").Logger(),
		now:         time.Now,
	}
}

func (s *adminCompetenceService) List(ctx context.Context, req dto.AdminCompetenceListRequest) (dto.AdminCompetenceListResponse, error) {
	filter := repository.CompetenceFilter{
		Search:        strings.TrimSpace(req.Search),
		Category:      strings.TrimSpace(req.Category),
		Domain:        strings.TrimSpace(req.Domain),
		Level:         strings.TrimSpace(req.Level),
		InstitutionID: req.InstitutionID,
		SortBy:        req.SortBy,
		Order:         req.Order,
		Page:          maxInt(req.Page, 1),
		PageSize:      clampPageSize(req.PageSize),
	}

	competences, total, err := s.competences.List(ctx, filter)
	if err != nil {
		return dto.AdminCompetenceListResponse{}, err
	}

	items := make([]dto.AdminCompetenceResponse, 0, len(competences))
	for _, competence := range competences {
		items = append(items, dto.NewAdminCompetenceResponse(competence))
	}

	return dto.AdminCompetenceListResponse{
		Items:      items,
		Pagination: paginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *adminCompetenceService) Get(ctx context.Context, id uint) (dto.AdminCompetenceResponse, error) {
	competence, err := s.competences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminCompetenceResponse{}, ErrCompetenceNotFound
		}
		return dto.AdminCompetenceResponse{}, err
	}

	response := dto.NewAdminCompetenceResponse(competence)

	total, err := s.enrolments.CountByCompetence(ctx, id)
	if err != nil {
		return dto.AdminCompetenceResponse{}, err
	}
	acquired, err := s.enrolments.CountByCompetence(ctx, id, models.CompetenceStatusAcquired, models.CompetenceStatusValidated)
	if err != nil {
		return dto.AdminCompetenceResponse{}, err
	}

	stats := dto.CompetenceStatistics{TotalStudents: total, AcquiredCount: acquired}
	if total > 0 {
		stats.AcquisitionRate = float64(acquired) / float64(total) * 100
	}
	response.Statistics = &stats

	return response, nil
}

func (s *adminCompetenceService) Create(ctx context.Context, payload dto.AdminCompetenceCreateRequest, actor AuditActor) (dto.AdminCompetenceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminCompetenceResponse{}, err
	}

	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	taken, err := s.competences.CodeTaken(ctx, code, payload.InstitutionID, 0)
	if err != nil {
		return dto.AdminCompetenceResponse{}, err
	}
	if taken {
		return dto.AdminCompetenceResponse{}, ErrCompetenceCodeTaken
	}

	if err := s.checkPrerequisites(ctx, payload.Prerequisites, 0); err != nil {
		return dto.AdminCompetenceResponse{}, err
	}

	competence := models.Competence{
		Code:                code,
		InstitutionID:       payload.InstitutionID,
		Name:                strings.TrimSpace(payload.Name),
		Description:         strings.TrimSpace(payload.Description),
		DetailedDescription: strings.TrimSpace(payload.DetailedDescription),
		Category:            strings.TrimSpace(payload.Category),
		Domain:              strings.TrimSpace(payload.Domain),
		Tags:                payload.Tags,
		Level:               strings.TrimSpace(payload.Level),
		EstimatedHours:      payload.EstimatedHours,
		PassingScore:        payload.PassingScore,
		MinProjectsRequired: payload.MinProjectsRequired,
	}

	if err := s.competences.Create(ctx, &competence, payload.Prerequisites); err != nil {
		return dto.AdminCompetenceResponse{}, err
	}

	s.recordAudit(ctx, actor, "create", competence.ID, map[string]interface{}{"code": code})

	return s.Get(ctx, competence.ID)
}

func (s *adminCompetenceService) Update(ctx context.Context, id uint, payload dto.AdminCompetenceUpdateRequest, actor AuditActor) (dto.AdminCompetenceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminCompetenceResponse{}, err
	}

	if _, err := s.competences.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminCompetenceResponse{}, ErrCompetenceNotFound
		}
		return dto.AdminCompetenceResponse{}, err
	}

	updates := make(map[string]interface{})
	changedFields := make([]string, 0)

	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
		changedFields = append(changedFields, "name")
	}
	if payload.Description != nil {
		updates["description"] = strings.TrimSpace(*payload.Description)
		changedFields = append(changedFields, "description")
	}
	if payload.DetailedDescription != nil {
		updates["detailed_description"] = strings.TrimSpace(*payload.DetailedDescription)
		changedFields = append(changedFields, "detailed_description")
	}
	if payload.Category != nil {
		updates["category"] = strings.TrimSpace(*payload.Category)
		changedFields = append(changedFields, "category")
	}
	if payload.Domain != nil {
		updates["domain"] = strings.TrimSpace(*payload.Domain)
		changedFields = append(changedFields, "domain")
	}
	if payload.Tags != nil {
		updates["tags"] = datatypes.NewJSONSlice(payload.Tags)
		changedFields = append(changedFields, "tags")
	}
	if payload.Level != nil {
		updates["level"] = strings.TrimSpace(*payload.Level)
		changedFields = append(changedFields, "level")
	}
	if payload.EstimatedHours != nil {
		updates["estimated_hours"] = *payload.EstimatedHours
		changedFields = append(changedFields, "estimated_hours")
	}
	if payload.PassingScore != nil {
		updates["passing_score"] = *payload.PassingScore
		changedFields = append(changedFields, "passing_score")
	}
	if payload.MinProjectsRequired != nil {
		updates["min_projects_required"] = *payload.MinProjectsRequired
		changedFields = append(changedFields, "min_projects_required")
	}

	if payload.Prerequisites != nil {
		if err := s.checkPrerequisites(ctx, payload.Prerequisites, id); err != nil {
			return dto.AdminCompetenceResponse{}, err
		}
		changedFields = append(changedFields, "prerequisites")
	}

	if len(updates) == 0 && payload.Prerequisites == nil {
		return s.Get(ctx, id)
	}

	if _, err := s.competences.Update(ctx, id, updates, payload.Prerequisites); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminCompetenceResponse{}, ErrCompetenceNotFound
		}
		return dto.AdminCompetenceResponse{}, err
	}

	s.recordAudit(ctx, actor, "update", id, map[string]interface{}{"changed_fields": changedFields})

	return s.Get(ctx, id)
}

func (s *adminCompetenceService) Delete(ctx context.Context, id uint, actor AuditActor) error {
	if err := s.competences.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCompetenceNotFound
		}
		return err
	}

	s.recordAudit(ctx, actor, "delete", id, nil)
	return nil
}

func (s *adminCompetenceService) Students(ctx context.Context, id uint, filter repository.StudentCompetenceFilter) (dto.CompetenceStudentsResponse, error) {
	if _, err := s.competences.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CompetenceStudentsResponse{}, ErrCompetenceNotFound
		}
		return dto.CompetenceStudentsResponse{}, err
	}

	filter.Page = maxInt(filter.Page, 1)
	filter.PageSize = clampPageSize(filter.PageSize)

	enrolments, total, err := s.enrolments.ListByCompetence(ctx, id, filter)
	if err != nil {
		return dto.CompetenceStudentsResponse{}, err
	}

	items := make([]dto.CompetenceStudentEntry, 0, len(enrolments))
	for _, enrolment := range enrolments {
		items = append(items, dto.CompetenceStudentEntry{
			StudentID:         enrolment.StudentID,
			Name:              enrolment.Student.User.FullName(),
			Email:             enrolment.Student.User.Email,
			Niveau:            enrolment.Student.Niveau,
			Promotion:         enrolment.Student.Promotion,
			Status:            enrolment.Status,
			SelfAssessedLevel: enrolment.SelfAssessedLevel,
			ValidatedLevel:    enrolment.ValidatedLevel,
			ConfidenceScore:   enrolment.ConfidenceScore,
			HoursInvested:     enrolment.HoursInvested,
			ProjectsCompleted: enrolment.ProjectsCompleted,
			StartedAt:         enrolment.StartedAt,
			CompletedAt:       enrolment.CompletedAt,
			LastPracticed:     enrolment.LastPracticed,
		})
	}

	return dto.CompetenceStudentsResponse{
		Items:      items,
		Pagination: paginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

// RecalculatePopularity recomputes the popularity score as the number of
// enrolled students plus twice the number who acquired the competence.
func (s *adminCompetenceService) RecalculatePopularity(ctx context.Context, id uint, actor AuditActor) (dto.PopularityResponse, error) {
	if _, err := s.competences.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PopularityResponse{}, ErrCompetenceNotFound
		}
		return dto.PopularityResponse{}, err
	}

	total, err := s.enrolments.CountByCompetence(ctx, id)
	if err != nil {
		return dto.PopularityResponse{}, err
	}
	acquired, err := s.enrolments.CountByCompetence(ctx, id, models.CompetenceStatusAcquired, models.CompetenceStatusValidated)
	if err != nil {
		return dto.PopularityResponse{}, err
	}

	score := int(total + 2*acquired)
	if err := s.competences.UpdatePopularity(ctx, id, score); err != nil {
		return dto.PopularityResponse{}, err
	}

	s.recordAudit(ctx, actor, "recalculate_popularity", id, map[string]interface{}{"score": score})

	return dto.PopularityResponse{
		CompetenceID:    id,
		PopularityScore: score,
		StudentsCount:   total,
		AcquiredCount:   acquired,
	}, nil
}

func (s *adminCompetenceService) Categories(ctx context.Context) (dto.CategoriesResponse, error) {
	categories, domains, err := s.competences.Categories(ctx)
	if err != nil {
		return dto.CategoriesResponse{}, err
	}

	return dto.CategoriesResponse{Categories: categories, Domains: domains}, nil
}

func (s *adminCompetenceService) checkPrerequisites(ctx context.Context, ids []uint, selfID uint) error {
	if len(ids) == 0 {
		return nil
	}

	for _, id := range ids {
		if selfID != 0 && id == selfID {
			return ErrSelfPrerequisite
		}
	}

	count, err := s.competences.CountByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return ErrPrerequisiteNotFound
	}

	return nil
}

func (s *adminCompetenceService) recordAudit(ctx context.Context, actor AuditActor, action string, competenceID uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}

	entityID := competenceID
	entry := AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "competence",
		EntityID:   &entityID,
		Metadata:   metadata,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
