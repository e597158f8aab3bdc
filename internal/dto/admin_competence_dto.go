package dto

import (
	"time"

	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

// AdminCompetenceListRequest captures filters for the competence listing.
type AdminCompetenceListRequest struct {
	Page          int
	PageSize      int
	Search        string
	Category      string
	Domain        string
	Level         string
	InstitutionID uint
	SortBy        string
	Order         string
}

// AdminCompetenceCreateRequest is the payload for creating a competence.
type AdminCompetenceCreateRequest struct {
	Code                string   `json:"code" validate:"required,min=2,max=32"`
	InstitutionID       uint     `json:"institution_id" validate:"required"`
	Name                string   `json:"name" validate:"required"`
	Description         string   `json:"description" validate:"required"`
	DetailedDescription string   `json:"detailed_description"`
	Category            string   `json:"category" validate:"required"`
	Domain              string   `json:"domain" validate:"required"`
	Tags                []string `json:"tags"`
	Level               string   `json:"level" validate:"required"`
	EstimatedHours      float64  `json:"estimated_hours" validate:"omitempty,gte=0"`
	PassingScore        int      `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	MinProjectsRequired int      `json:"min_projects_required" validate:"omitempty,gte=0"`
	Prerequisites       []uint   `json:"prerequisites"`
}

// AdminCompetenceUpdateRequest updates a competence; nil fields are left
// untouched. Code, institution and popularity score are immutable here.
type AdminCompetenceUpdateRequest struct {
	Name                *string  `json:"name"`
	Description         *string  `json:"description"`
	DetailedDescription *string  `json:"detailed_description"`
	Category            *string  `json:"category"`
	Domain              *string  `json:"domain"`
	Tags                []string `json:"tags"`
	Level               *string  `json:"level"`
	EstimatedHours      *float64 `json:"estimated_hours" validate:"omitempty,gte=0"`
	PassingScore        *int     `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	MinProjectsRequired *int     `json:"min_projects_required" validate:"omitempty,gte=0"`
	Prerequisites       []uint   `json:"prerequisites"`
}

// CompetenceRef is a compact reference to a related competence.
type CompetenceRef struct {
	ID    uint   `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

// AdminCompetenceResponse is the admin-facing view of a competence.
type AdminCompetenceResponse struct {
	ID                  uint                  `json:"id"`
	Code                string                `json:"code"`
	InstitutionID       uint                  `json:"institution_id"`
	Name                string                `json:"name"`
	Description         string                `json:"description"`
	DetailedDescription string                `json:"detailed_description,omitempty"`
	Category            string                `json:"category"`
	Domain              string                `json:"domain"`
	Tags                []string              `json:"tags"`
	Level               string                `json:"level"`
	EstimatedHours      float64               `json:"estimated_hours"`
	PopularityScore     int                   `json:"popularity_score"`
	PassingScore        int                   `json:"passing_score"`
	MinProjectsRequired int                   `json:"min_projects_required"`
	Prerequisites       []CompetenceRef       `json:"prerequisites"`
	NextCompetences     []CompetenceRef       `json:"next_competences"`
	CreatedAt           time.Time             `json:"created_at"`
	Statistics          *CompetenceStatistics `json:"statistics,omitempty"`
}

// CompetenceStatistics summarises acquisition of one competence.
type CompetenceStatistics struct {
	TotalStudents   int64   `json:"total_students"`
	AcquiredCount   int64   `json:"acquired_count"`
	AcquisitionRate float64 `json:"acquisition_rate"`
}

// NewAdminCompetenceResponse maps a competence model onto its admin view.
func NewAdminCompetenceResponse(competence models.Competence) AdminCompetenceResponse {
	refs := func(items []*models.Competence) []CompetenceRef {
		result := make([]CompetenceRef, 0, len(items))
		for _, item := range items {
			result = append(result, CompetenceRef{
				ID:    item.ID,
				Code:  item.Code,
				Name:  item.Name,
				Level: item.Level,
			})
		}
		return result
	}

	return AdminCompetenceResponse{
		ID:                  competence.ID,
		Code:                competence.Code,
		InstitutionID:       competence.InstitutionID,
		Name:                competence.Name,
		Description:         competence.Description,
		DetailedDescription: competence.DetailedDescription,
		Category:            competence.Category,
		Domain:              competence.Domain,
		Tags:                competence.Tags,
		Level:               competence.Level,
		EstimatedHours:      competence.EstimatedHours,
		PopularityScore:     competence.PopularityScore,
		PassingScore:        competence.PassingScore,
		MinProjectsRequired: competence.MinProjectsRequired,
		Prerequisites:       refs(competence.Prerequisites),
		NextCompetences:     refs(competence.NextCompetences),
		CreatedAt:           competence.CreatedAt,
	}
}

// AdminCompetenceListResponse is the paginated listing payload.
type AdminCompetenceListResponse struct {
	Items      []AdminCompetenceResponse `json:"items"`
	Pagination PaginationMeta            `json:"pagination"`
}

// CompetenceStudentEntry reports one student's standing on a competence.
type CompetenceStudentEntry struct {
	StudentID         uint       `json:"student_id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Niveau            string     `json:"niveau"`
	Promotion         int        `json:"promotion"`
	Status            string     `json:"status"`
	SelfAssessedLevel int        `json:"self_assessed_level"`
	ValidatedLevel    int        `json:"validated_level"`
	ConfidenceScore   float64    `json:"confidence_score"`
	HoursInvested     float64    `json:"hours_invested"`
	ProjectsCompleted int        `json:"projects_completed"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	LastPracticed     *time.Time `json:"last_practiced,omitempty"`
}

// CompetenceStudentsResponse is the per-competence enrolment listing.
type CompetenceStudentsResponse struct {
	Items      []CompetenceStudentEntry `json:"items"`
	Pagination PaginationMeta           `json:"pagination"`
}

// PopularityResponse reports a recalculated popularity score.
type PopularityResponse struct {
	CompetenceID    uint  `json:"competence_id"`
	PopularityScore int   `json:"popularity_score"`
	StudentsCount   int64 `json:"students_count"`
	AcquiredCount   int64 `json:"acquired_count"`
}

// CategoriesResponse lists distinct categories and domains with counts.
type CategoriesResponse struct {
	Categories []repository.CategoryCount `json:"categories"`
	Domains    []repository.CategoryCount `json:"domains"`
}
