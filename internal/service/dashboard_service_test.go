package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
	"github.com/meryam27/skilltrack-api/pkg/insights"
)

type staticInsights struct {
	entries []string
	err     error
	calls   int
}

func (s *staticInsights) Generate(_ context.Context, _ insights.ProfileSummary) ([]string, error) {
	s.calls++
	return s.entries, s.err
}

func setupDashboardService(t *testing.T, cache *redis.Client, generator insights.Generator) (*gorm.DB, DashboardService, uint) {
	t.Helper()

	dsn := fmt.Sprintf("file:dashboard_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Track{},
		&models.Student{},
		&models.ActivityProfile{},
		&models.ActivitySession{},
		&models.Competence{},
		&models.StudentCompetence{},
		&models.Goal{},
		&models.Achievement{},
	))

	user := models.User{Email: "dash@example.com", PasswordHash: "x", FirstName: "Sophie", LastName: "Germain", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	student := models.Student{UserID: user.ID, Niveau: models.NiveauM1, Promotion: 2026, InscriptionDate: time.Now()}
	require.NoError(t, db.Create(&student).Error)

	svc := NewDashboardService(
		repository.NewStudentRepository(db),
		repository.NewActivityProfileRepository(db),
		repository.NewGoalRepository(db),
		repository.NewAchievementRepository(db),
		repository.NewStudentCompetenceRepository(db),
		cache,
		time.Minute,
		generator,
		zerolog.Nop(),
	)

	return db, svc, student.ID
}

func TestDashboardAggregation(t *testing.T) {
	db, svc, studentID := setupDashboardService(t, nil, nil)
	ctx := context.Background()

	now := time.Now()
	profile := models.NewActivityProfile(studentID, now.AddDate(0, 0, -30))
	profile.TotalHours = 100
	profile.WeeklyTotalHours = 4.5
	profile.CurrentStreakDays = 8
	profile.ExperiencePoints = 620
	profile.Level = 7
	require.NoError(t, db.Create(&profile).Error)

	for i := 0; i < 6; i++ {
		session := models.ActivitySession{
			ProfileID:       profile.ID,
			ActivityType:    models.ActivityTypePractice,
			DurationMinutes: 30,
			StartTime:       now.Add(time.Duration(-6+i) * time.Hour),
			EndTime:         now.Add(time.Duration(-6+i)*time.Hour + 30*time.Minute),
		}
		require.NoError(t, db.Create(&session).Error)
	}

	competence := models.Competence{Code: "GO101", InstitutionID: 1, Name: "Go", Description: "d", Category: "Prog", Domain: "Backend", Level: "DEBUTANT"}
	require.NoError(t, db.Create(&competence).Error)
	require.NoError(t, db.Create(&models.StudentCompetence{StudentID: studentID, CompetenceID: competence.ID, Status: models.CompetenceStatusValidated}).Error)

	for i := 0; i < 7; i++ {
		require.NoError(t, db.Create(&models.Goal{
			StudentID:   studentID,
			Title:       fmt.Sprintf("Goal %d", i),
			Type:        models.GoalTypeCustom,
			Status:      models.GoalStatusActive,
			Priority:    models.GoalPriorityMedium,
			TargetValue: 5,
			Unit:        "items",
			Deadline:    now.Add(time.Duration(i+1) * 24 * time.Hour),
		}).Error)
	}

	require.NoError(t, db.Create(&models.Achievement{
		StudentID:  studentID,
		Name:       "First steps",
		Category:   models.AchievementCategoryLearning,
		Rarity:     models.RarityCommon,
		UnlockedAt: now,
		IsVisible:  true,
	}).Error)

	dashboard, err := svc.Get(ctx, studentID)
	require.NoError(t, err)

	require.Equal(t, "Sophie Germain", dashboard.User.Name)
	require.Equal(t, 7, dashboard.User.Level)
	require.Equal(t, 620, dashboard.User.XP)
	require.Equal(t, 8, dashboard.User.StreakDays)
	require.EqualValues(t, 1, dashboard.User.SkillsAcquiredCount)
	// 100 hours of a 200 hour target and 1 of 20 skills.
	require.Equal(t, 27, dashboard.User.GlobalProgress)

	require.Len(t, dashboard.Goals, 5)
	require.Len(t, dashboard.Achievements, 1)
	require.Len(t, dashboard.RecentActivity, 4)
	require.Equal(t, 60, dashboard.RecentActivity[0].XPGained)
	require.Len(t, dashboard.Leaderboard, 1)
	require.Equal(t, 1, dashboard.Leaderboard[0].Rank)
	require.Len(t, dashboard.WeeklyProgress.DailyHours, 7)
	require.NotEmpty(t, dashboard.Insights)
	require.LessOrEqual(t, len(dashboard.Insights), 3)
}

func TestDashboardCaching(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	db, svc, studentID := setupDashboardService(t, cache, nil)
	ctx := context.Background()

	first, err := svc.Get(ctx, studentID)
	require.NoError(t, err)

	// A later write must not show through while the cache entry lives.
	require.NoError(t, db.Model(&models.ActivityProfile{}).
		Where("student_id = ?", studentID).
		Update("experience_points", 999).Error)

	second, err := svc.Get(ctx, studentID)
	require.NoError(t, err)
	require.Equal(t, first.User, second.User)
	require.NotEqual(t, 999, second.User.XP)
}

func TestDashboardInsightGeneratorFallback(t *testing.T) {
	gen := &staticInsights{err: fmt.Errorf("model unavailable")}
	_, svc, studentID := setupDashboardService(t, nil, gen)

	dashboard, err := svc.Get(context.Background(), studentID)
	require.NoError(t, err)
	require.Equal(t, 1, gen.calls)
	require.NotEmpty(t, dashboard.Insights)
}

func TestDashboardUsesConfiguredGenerator(t *testing.T) {
	gen := &staticInsights{entries: []string{"Keep going!"}}
	_, svc, studentID := setupDashboardService(t, nil, gen)

	dashboard, err := svc.Get(context.Background(), studentID)
	require.NoError(t, err)
	require.Equal(t, []string{"Keep going!"}, dashboard.Insights)
}

func TestDashboardUnknownStudent(t *testing.T) {
	_, svc, _ := setupDashboardService(t, nil, nil)

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrStudentNotFound)
}
