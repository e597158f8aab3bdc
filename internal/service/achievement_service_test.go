package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

func setupAchievementService(t *testing.T) (*gorm.DB, AchievementService) {
	t.Helper()

	dsn := fmt.Sprintf("file:achievement_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Achievement{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	return db, NewAchievementService(repository.NewAchievementRepository(db), nil, validate, zerolog.Nop())
}

func TestAchievementServiceUnlock(t *testing.T) {
	db, svc := setupAchievementService(t)
	ctx := context.Background()

	unlocked, err := svc.Unlock(ctx, 1, dto.AchievementUnlockRequest{
		Name:           "Week-long streak",
		Category:       models.AchievementCategoryStreak,
		Points:         50,
		CriteriaType:   "streak_days",
		CriteriaValue:  7,
		CriteriaTarget: 7,
	})
	require.NoError(t, err)
	require.Equal(t, models.RarityCommon, unlocked.Rarity)
	require.False(t, unlocked.UnlockedAt.IsZero())

	var stored models.Achievement
	require.NoError(t, db.First(&stored).Error)
	require.True(t, stored.IsVisible)
	require.InDelta(t, 7, stored.Criteria.Data().Target, 0.001)
}

func TestAchievementServiceUnlockValidates(t *testing.T) {
	_, svc := setupAchievementService(t)

	_, err := svc.Unlock(context.Background(), 1, dto.AchievementUnlockRequest{Name: "x", Category: "NOT_A_CATEGORY"})
	require.Error(t, err)
}

func TestAchievementServiceListRecent(t *testing.T) {
	db, svc := setupAchievementService(t)
	ctx := context.Background()

	base := time.Now().Add(-10 * 24 * time.Hour)
	for i := 0; i < 8; i++ {
		require.NoError(t, db.Create(&models.Achievement{
			StudentID:  1,
			Name:       fmt.Sprintf("Badge %d", i),
			Category:   models.AchievementCategoryLearning,
			Rarity:     models.RarityCommon,
			UnlockedAt: base.Add(time.Duration(i) * 24 * time.Hour),
			IsVisible:  true,
		}).Error)
	}
	require.NoError(t, db.Create(&models.Achievement{
		StudentID:  1,
		Name:       "Hidden badge",
		Category:   models.AchievementCategoryLearning,
		Rarity:     models.RarityCommon,
		UnlockedAt: time.Now(),
		IsVisible:  false,
	}).Error)

	recent, err := svc.ListRecent(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, recent, 6)
	require.Equal(t, "Badge 7", recent[0].Name)
}
