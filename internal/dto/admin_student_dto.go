package dto

import (
	"time"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// AdminStudentListRequest captures the filters accepted by the admin student
// listing.
type AdminStudentListRequest struct {
	Page      int
	PageSize  int
	Search    string
	Niveau    string
	TrackID   uint
	Promotion int
	IsActive  *bool
}

// AdminStudentCreateRequest is the payload for creating a student account.
type AdminStudentCreateRequest struct {
	Email              string     `json:"email" validate:"required,email"`
	Password           string     `json:"password" validate:"required,min=6"`
	FirstName          string     `json:"first_name" validate:"required"`
	LastName           string     `json:"last_name" validate:"required"`
	PhoneNumber        string     `json:"phone_number"`
	TrackID            uint       `json:"track_id" validate:"required"`
	Niveau             string     `json:"niveau" validate:"required,oneof=L1 L2 L3 M1 M2 Doctorat"`
	Promotion          int        `json:"promotion" validate:"required,gt=0"`
	AcademicEmail      string     `json:"academic_email" validate:"omitempty,email"`
	ExpectedGraduation *time.Time `json:"expected_graduation"`
}

// AdminStudentUpdateRequest updates a student; nil fields are untouched.
// Password hash, role and creation timestamp are immutable through this path.
type AdminStudentUpdateRequest struct {
	Email              *string    `json:"email" validate:"omitempty,email"`
	FirstName          *string    `json:"first_name"`
	LastName           *string    `json:"last_name"`
	PhoneNumber        *string    `json:"phone_number"`
	Bio                *string    `json:"bio"`
	TrackID            *uint      `json:"track_id"`
	Niveau             *string    `json:"niveau" validate:"omitempty,oneof=L1 L2 L3 M1 M2 Doctorat"`
	Promotion          *int       `json:"promotion" validate:"omitempty,gt=0"`
	AcademicEmail      *string    `json:"academic_email" validate:"omitempty,email"`
	ExpectedGraduation *time.Time `json:"expected_graduation"`
}

// ResetPasswordRequest carries the replacement password.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// AdminStudentResponse is the admin-facing view of a student.
type AdminStudentResponse struct {
	ID                 uint                    `json:"id"`
	UserID             uint                    `json:"user_id"`
	Email              string                  `json:"email"`
	FirstName          string                  `json:"first_name"`
	LastName           string                  `json:"last_name"`
	PhoneNumber        string                  `json:"phone_number,omitempty"`
	Bio                string                  `json:"bio,omitempty"`
	IsActive           bool                    `json:"is_active"`
	IsVerified         bool                    `json:"is_verified"`
	Track              *models.Track           `json:"track,omitempty"`
	Niveau             string                  `json:"niveau"`
	Promotion          int                     `json:"promotion"`
	AcademicEmail      string                  `json:"academic_email,omitempty"`
	InscriptionDate    time.Time               `json:"inscription_date"`
	ExpectedGraduation *time.Time              `json:"expected_graduation,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	Statistics         *StudentStatisticsBrief `json:"statistics,omitempty"`
}

// StudentStatisticsBrief is the compact statistics block attached to a
// single-student response.
type StudentStatisticsBrief struct {
	TotalHours           float64 `json:"total_hours"`
	Level                int     `json:"level"`
	ExperiencePoints     int     `json:"experience_points"`
	CompetencesCount     int64   `json:"competences_count"`
	CompetencesValidated int64   `json:"competences_validated"`
	CurrentStreak        int     `json:"current_streak"`
}

// NewAdminStudentResponse maps a student model onto its admin view.
func NewAdminStudentResponse(student models.Student) AdminStudentResponse {
	return AdminStudentResponse{
		ID:                 student.ID,
		UserID:             student.UserID,
		Email:              student.User.Email,
		FirstName:          student.User.FirstName,
		LastName:           student.User.LastName,
		PhoneNumber:        student.User.PhoneNumber,
		Bio:                student.User.Bio,
		IsActive:           student.User.IsActive,
		IsVerified:         student.User.IsVerified,
		Track:              student.Track,
		Niveau:             student.Niveau,
		Promotion:          student.Promotion,
		AcademicEmail:      student.AcademicEmail,
		InscriptionDate:    student.InscriptionDate,
		ExpectedGraduation: student.ExpectedGraduation,
		CreatedAt:          student.CreatedAt,
	}
}

// AdminStudentListResponse is the paginated listing payload.
type AdminStudentListResponse struct {
	Items      []AdminStudentResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
}

// StudentStatisticsResponse is the detailed per-student statistics payload.
type StudentStatisticsResponse struct {
	Student     StudentStatisticsIdentity `json:"student"`
	Activity    StudentActivityStats      `json:"activity"`
	Competences StudentCompetenceStats    `json:"competences"`
}

// StudentStatisticsIdentity identifies the student the statistics belong to.
type StudentStatisticsIdentity struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Niveau    string `json:"niveau"`
	Promotion int    `json:"promotion"`
}

// StudentActivityStats summarises the activity profile counters.
type StudentActivityStats struct {
	TotalHours       float64 `json:"total_hours"`
	WeeklyHours      float64 `json:"weekly_hours"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	Level            int     `json:"level"`
	ExperiencePoints int     `json:"experience_points"`
}

// StudentCompetenceStats rolls up a student's competence standing.
type StudentCompetenceStats struct {
	Total                  int            `json:"total"`
	ByStatus               map[string]int `json:"by_status"`
	AverageConfidence      int            `json:"average_confidence"`
	TotalHoursInvested     float64        `json:"total_hours_invested"`
	TotalProjectsCompleted int            `json:"total_projects_completed"`
}
