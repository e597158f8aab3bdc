package models

import (
	"time"

	"gorm.io/datatypes"
)

// Statuses a student can hold against a competence.
const (
	CompetenceStatusToAcquire  = "TO_ACQUIRE"
	CompetenceStatusInProgress = "IN_PROGRESS"
	CompetenceStatusAcquired   = "ACQUIRED"
	CompetenceStatusValidated  = "VALIDATED"
)

// Competence is a trackable skill unit. Code is upper-cased on create and
// unique per institution; Prerequisites and NextCompetences form a DAG that
// the admin service keeps symmetric (creating a competence back-links it on
// each prerequisite).
type Competence struct {
	ID                  uint                        `gorm:"primaryKey" json:"id"`
	Code                string                      `gorm:"size:32;not null;uniqueIndex:idx_competence_code_institution" json:"code"`
	InstitutionID       uint                        `gorm:"not null;uniqueIndex:idx_competence_code_institution" json:"institution_id"`
	Name                string                      `gorm:"size:255;not null" json:"name"`
	Description         string                      `gorm:"size:1024;not null" json:"description"`
	DetailedDescription string                      `gorm:"type:text" json:"detailed_description,omitempty"`
	Category            string                      `gorm:"size:64;not null;index" json:"category"`
	Domain              string                      `gorm:"size:64;not null;index" json:"domain"`
	Tags                datatypes.JSONSlice[string] `json:"tags"`
	Level               string                      `gorm:"size:32;not null" json:"level"`
	EstimatedHours      float64                     `json:"estimated_hours"`
	PopularityScore     int                         `gorm:"default:0;index" json:"popularity_score"`
	PassingScore        int                         `gorm:"default:70" json:"passing_score"`
	MinProjectsRequired int                         `gorm:"default:1" json:"min_projects_required"`
	Prerequisites       []*Competence               `gorm:"many2many:competence_prerequisites;joinForeignKey:CompetenceID;joinReferences:PrerequisiteID" json:"prerequisites,omitempty"`
	NextCompetences     []*Competence               `gorm:"many2many:competence_next;joinForeignKey:CompetenceID;joinReferences:NextID" json:"next_competences,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// StudentCompetence records one student's standing against one competence.
type StudentCompetence struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	StudentID         uint       `gorm:"not null;uniqueIndex:idx_student_competence" json:"student_id"`
	Student           Student    `json:"-"`
	CompetenceID      uint       `gorm:"not null;uniqueIndex:idx_student_competence" json:"competence_id"`
	Status            string     `gorm:"size:32;not null;default:TO_ACQUIRE;index" json:"status"`
	SelfAssessedLevel int        `json:"self_assessed_level"`
	ValidatedLevel    int        `json:"validated_level"`
	ConfidenceScore   float64    `json:"confidence_score"`
	HoursInvested     float64    `json:"hours_invested"`
	ProjectsCompleted int        `json:"projects_completed"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	LastPracticed     *time.Time `json:"last_practiced,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Acquired reports whether the competence counts toward the student's
// acquired-skills total.
func (sc StudentCompetence) Acquired() bool {
	return sc.Status == CompetenceStatusAcquired || sc.Status == CompetenceStatusValidated
}
