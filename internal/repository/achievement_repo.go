package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// AchievementRepository provides access to unlocked achievements.
type AchievementRepository interface {
	Create(ctx context.Context, achievement *models.Achievement) error
	ListRecent(ctx context.Context, studentID uint, limit int) ([]models.Achievement, error)
}

type achievementRepository struct {
	db *gorm.DB
}

// NewAchievementRepository constructs an achievement repository.
func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) Create(ctx context.Context, achievement *models.Achievement) error {
	return r.db.WithContext(ctx).Create(achievement).Error
}

func (r *achievementRepository) ListRecent(ctx context.Context, studentID uint, limit int) ([]models.Achievement, error) {
	if limit <= 0 {
		limit = 6
	}

	var achievements []models.Achievement
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND is_visible = ?", studentID, true).
		Order("unlocked_at DESC").
		Limit(limit).
		Find(&achievements).Error

	return achievements, err
}
