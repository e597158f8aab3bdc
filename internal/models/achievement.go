package models

import (
	"time"

	"gorm.io/datatypes"
)

// Achievement rarities.
const (
	RarityCommon    = "COMMON"
	RarityUncommon  = "UNCOMMON"
	RarityRare      = "RARE"
	RarityEpic      = "EPIC"
	RarityLegendary = "LEGENDARY"
)

// Achievement categories.
const (
	AchievementCategoryLearning   = "LEARNING"
	AchievementCategoryCompetence = "COMPETENCE"
	AchievementCategorySocial     = "SOCIAL"
	AchievementCategoryStreak     = "STREAK"
	AchievementCategoryCompletion = "COMPLETION"
	AchievementCategoryExcellence = "EXCELLENCE"
)

// AchievementCriteria describes the threshold that unlocked an achievement.
type AchievementCriteria struct {
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
}

// Achievement is a gamification badge unlocked for a student.
type Achievement struct {
	ID          uint                                    `gorm:"primaryKey" json:"id"`
	StudentID   uint                                    `gorm:"not null;index" json:"student_id"`
	Name        string                                  `gorm:"size:255;not null" json:"name"`
	Description string                                  `gorm:"size:1024" json:"description"`
	Category    string                                  `gorm:"size:32;not null" json:"category"`
	Rarity      string                                  `gorm:"size:16;not null;default:COMMON" json:"rarity"`
	Icon        string                                  `gorm:"size:128" json:"icon"`
	Points      int                                     `gorm:"default:0" json:"points"`
	UnlockedAt  time.Time                               `gorm:"index" json:"unlocked_at"`
	Criteria    datatypes.JSONType[AchievementCriteria] `json:"criteria"`
	IsVisible   bool                                    `gorm:"default:true" json:"is_visible"`
	Metadata    datatypes.JSONMap                       `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt   time.Time                               `json:"created_at"`
	UpdatedAt   time.Time                               `json:"updated_at"`
}
