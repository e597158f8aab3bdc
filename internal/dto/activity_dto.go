package dto

import (
	"time"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// RecordSessionRequest logs one activity session for the authenticated
// student.
type RecordSessionRequest struct {
	ActivityType    string    `json:"activity_type" validate:"required,oneof=LEARNING PRACTICE PROJECT ASSESSMENT COLLABORATION"`
	DurationMinutes float64   `json:"duration_minutes" validate:"required,gt=0"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required"`
	CompetenceIDs   []uint    `json:"competence_ids"`
	FormationID     *uint     `json:"formation_id"`
	Notes           string    `json:"notes" validate:"omitempty,max=1024"`
}

// RecordSessionResponse reports the profile state after a session was
// recorded.
type RecordSessionResponse struct {
	XPGained          int     `json:"xp_gained"`
	Level             int     `json:"level"`
	ExperiencePoints  int     `json:"experience_points"`
	TotalHours        float64 `json:"total_hours"`
	WeeklyTotalHours  float64 `json:"weekly_total_hours"`
	CurrentStreakDays int     `json:"current_streak_days"`
	LongestStreakDays int     `json:"longest_streak_days"`
	CompletedGoals    []uint  `json:"completed_goals,omitempty"`
}

// NewRecordSessionResponse builds the response from the mutated profile.
func NewRecordSessionResponse(profile models.ActivityProfile, xpGained int, completedGoals []uint) RecordSessionResponse {
	return RecordSessionResponse{
		XPGained:          xpGained,
		Level:             profile.Level,
		ExperiencePoints:  profile.ExperiencePoints,
		TotalHours:        profile.TotalHours,
		WeeklyTotalHours:  profile.WeeklyTotalHours,
		CurrentStreakDays: profile.CurrentStreakDays,
		LongestStreakDays: profile.LongestStreakDays,
		CompletedGoals:    completedGoals,
	}
}
