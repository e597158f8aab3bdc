package dto

import (
	"time"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// AchievementUnlockRequest records a newly unlocked achievement.
type AchievementUnlockRequest struct {
	Name           string  `json:"name" validate:"required,max=255"`
	Description    string  `json:"description" validate:"omitempty,max=1024"`
	Category       string  `json:"category" validate:"required,oneof=LEARNING COMPETENCE SOCIAL STREAK COMPLETION EXCELLENCE"`
	Rarity         string  `json:"rarity" validate:"omitempty,oneof=COMMON UNCOMMON RARE EPIC LEGENDARY"`
	Icon           string  `json:"icon" validate:"omitempty,max=128"`
	Points         int     `json:"points" validate:"omitempty,gte=0"`
	CriteriaType   string  `json:"criteria_type"`
	CriteriaValue  float64 `json:"criteria_value"`
	CriteriaTarget float64 `json:"criteria_target"`
}

// AchievementResponse is the student-facing view of an achievement.
type AchievementResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Rarity      string    `json:"rarity"`
	Icon        string    `json:"icon,omitempty"`
	Points      int       `json:"points"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// NewAchievementResponse maps an achievement onto its API view.
func NewAchievementResponse(achievement models.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:          achievement.ID,
		Name:        achievement.Name,
		Description: achievement.Description,
		Category:    achievement.Category,
		Rarity:      achievement.Rarity,
		Icon:        achievement.Icon,
		Points:      achievement.Points,
		UnlockedAt:  achievement.UnlockedAt,
	}
}
