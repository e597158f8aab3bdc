package dto

import (
	"time"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// GoalCreateRequest defines a new goal for the authenticated student.
type GoalCreateRequest struct {
	Title             string    `json:"title" validate:"required,max=255"`
	Description       string    `json:"description" validate:"omitempty,max=1024"`
	Type              string    `json:"type" validate:"required,oneof=LEARNING_HOURS COMPETENCE_ACQUISITION FORMATION_COMPLETION PROJECT_COMPLETION STREAK_MAINTENANCE SKILL_MASTERY CUSTOM"`
	Priority          string    `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	TargetValue       float64   `json:"target_value" validate:"required,gt=0"`
	Unit              string    `json:"unit" validate:"required,max=32"`
	Deadline          time.Time `json:"deadline" validate:"required"`
	ReminderEnabled   bool      `json:"reminder_enabled"`
	ReminderFrequency string    `json:"reminder_frequency" validate:"omitempty,oneof=daily weekly biweekly none"`
}

// GoalProgressRequest advances a goal's current value.
type GoalProgressRequest struct {
	Increment float64 `json:"increment" validate:"required,gt=0"`
}

// GoalResponse is the student-facing view of a goal.
type GoalResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Target      float64    `json:"target"`
	Current     float64    `json:"current"`
	Progress    float64    `json:"progress"`
	Unit        string     `json:"unit"`
	Deadline    string     `json:"deadline"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewGoalResponse maps a goal onto its API view. The deadline renders as a
// bare date, matching the dashboard contract.
func NewGoalResponse(goal models.Goal) GoalResponse {
	return GoalResponse{
		ID:          goal.ID,
		Title:       goal.Title,
		Description: goal.Description,
		Type:        goal.Type,
		Status:      goal.Status,
		Priority:    goal.Priority,
		Target:      goal.TargetValue,
		Current:     goal.CurrentValue,
		Progress:    goal.Progress(),
		Unit:        goal.Unit,
		Deadline:    goal.Deadline.Format("2006-01-02"),
		CompletedAt: goal.CompletedAt,
	}
}
