package models

import (
	"time"

	"gorm.io/datatypes"
)

// Goal lifecycle states.
const (
	GoalStatusActive    = "ACTIVE"
	GoalStatusCompleted = "COMPLETED"
	GoalStatusAbandoned = "ABANDONED"
	GoalStatusExpired   = "EXPIRED"
)

// Goal types.
const (
	GoalTypeLearningHours       = "LEARNING_HOURS"
	GoalTypeCompetence          = "COMPETENCE_ACQUISITION"
	GoalTypeFormationCompletion = "FORMATION_COMPLETION"
	GoalTypeProjectCompletion   = "PROJECT_COMPLETION"
	GoalTypeStreakMaintenance   = "STREAK_MAINTENANCE"
	GoalTypeSkillMastery        = "SKILL_MASTERY"
	GoalTypeCustom              = "CUSTOM"
)

// Goal priorities, lowest to highest.
const (
	GoalPriorityLow      = "LOW"
	GoalPriorityMedium   = "MEDIUM"
	GoalPriorityHigh     = "HIGH"
	GoalPriorityCritical = "CRITICAL"
)

// PriorityRank maps goal priorities onto a sortable scale. Unknown values
// rank below LOW so malformed rows sink to the bottom of listings.
func PriorityRank(priority string) int {
	switch priority {
	case GoalPriorityCritical:
		return 4
	case GoalPriorityHigh:
		return 3
	case GoalPriorityMedium:
		return 2
	case GoalPriorityLow:
		return 1
	default:
		return 0
	}
}

// Goal is a student-defined target with measurable progress.
type Goal struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	StudentID          uint              `gorm:"not null;index:idx_goal_student_status" json:"student_id"`
	Title              string            `gorm:"size:255;not null" json:"title"`
	Description        string            `gorm:"size:1024" json:"description"`
	Type               string            `gorm:"size:48;not null" json:"type"`
	Status             string            `gorm:"size:16;not null;default:ACTIVE;index:idx_goal_student_status" json:"status"`
	Priority           string            `gorm:"size:16;not null;default:MEDIUM" json:"priority"`
	TargetValue        float64           `gorm:"not null" json:"target_value"`
	CurrentValue       float64           `gorm:"default:0" json:"current_value"`
	Unit               string            `gorm:"size:32;not null" json:"unit"`
	Deadline           time.Time         `gorm:"not null;index" json:"deadline"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	ReminderEnabled    bool              `gorm:"default:false" json:"reminder_enabled"`
	ReminderFrequency  string            `gorm:"size:16;default:none" json:"reminder_frequency"`
	Metadata           datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	RelatedCompetence  *uint             `json:"related_competence_id,omitempty"`
	RelatedFormationID *uint             `json:"related_formation_id,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Progress returns completion as a percentage capped at 100.
func (g Goal) Progress() float64 {
	if g.TargetValue == 0 {
		return 0
	}

	progress := (g.CurrentValue / g.TargetValue) * 100
	if progress > 100 {
		return 100
	}
	return progress
}

// IsExpired reports whether the deadline has passed on an uncompleted goal.
func (g Goal) IsExpired(now time.Time) bool {
	return g.Deadline.Before(now) && g.Status != GoalStatusCompleted
}

// ApplyProgress advances CurrentValue, clamped to the target, and flips the
// goal to COMPLETED when the target is reached.
func (g *Goal) ApplyProgress(increment float64, now time.Time) {
	g.CurrentValue += increment
	if g.CurrentValue >= g.TargetValue {
		g.CurrentValue = g.TargetValue
		g.Status = GoalStatusCompleted
		completed := now
		g.CompletedAt = &completed
	}
}
