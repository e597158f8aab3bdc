package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

func setupActivitySessionService(t *testing.T, cache *redis.Client) (*gorm.DB, ActivitySessionService, uint) {
	t.Helper()

	dsn := fmt.Sprintf("file:activity_session_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.ActivityProfile{},
		&models.ActivitySession{},
		&models.Goal{},
	))

	user := models.User{Email: "student@example.com", PasswordHash: "x", FirstName: "Alan", LastName: "Turing", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	student := models.Student{UserID: user.ID, Niveau: models.NiveauL3, Promotion: 2026, InscriptionDate: time.Now()}
	require.NoError(t, db.Create(&student).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewActivitySessionService(
		repository.NewActivityProfileRepository(db),
		repository.NewGoalRepository(db),
		cache,
		nil,
		validate,
		zerolog.Nop(),
	)

	return db, svc, student.ID
}

func sessionPayload(start time.Time, minutes float64) dto.RecordSessionRequest {
	return dto.RecordSessionRequest{
		ActivityType:    models.ActivityTypeLearning,
		DurationMinutes: minutes,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestRecordSessionAccumulatesCounters(t *testing.T) {
	db, svc, studentID := setupActivitySessionService(t, nil)
	ctx := context.Background()

	response, err := svc.Record(ctx, studentID, sessionPayload(time.Now().Add(-time.Hour), 30))
	require.NoError(t, err)
	require.Equal(t, 60, response.XPGained)
	require.Equal(t, 60, response.ExperiencePoints)
	require.Equal(t, 1, response.Level)
	require.InDelta(t, 0.5, response.TotalHours, 0.001)
	require.Equal(t, 1, response.CurrentStreakDays)

	var sessions int64
	require.NoError(t, db.Model(&models.ActivitySession{}).Count(&sessions).Error)
	require.EqualValues(t, 1, sessions)
}

func TestRecordSessionRejectsInvalidDuration(t *testing.T) {
	_, svc, studentID := setupActivitySessionService(t, nil)
	ctx := context.Background()

	payload := sessionPayload(time.Now(), 30)
	payload.DurationMinutes = -5
	_, err := svc.Record(ctx, studentID, payload)
	require.Error(t, err)
}

func TestRecordSessionRejectsInvertedTimeRange(t *testing.T) {
	_, svc, studentID := setupActivitySessionService(t, nil)
	ctx := context.Background()

	start := time.Now()
	payload := dto.RecordSessionRequest{
		ActivityType:    models.ActivityTypePractice,
		DurationMinutes: 30,
		StartTime:       start,
		EndTime:         start.Add(-time.Hour),
	}
	_, err := svc.Record(ctx, studentID, payload)
	require.ErrorIs(t, err, ErrSessionRejected)
	require.ErrorIs(t, err, models.ErrInvalidTimeRange)
}

func TestRecordSessionSanitizesNotes(t *testing.T) {
	db, svc, studentID := setupActivitySessionService(t, nil)
	ctx := context.Background()

	payload := sessionPayload(time.Now().Add(-time.Hour), 15)
	payload.Notes = `<script>alert("x")</script>Reviewed goroutines`
	_, err := svc.Record(ctx, studentID, payload)
	require.NoError(t, err)

	var session models.ActivitySession
	require.NoError(t, db.First(&session).Error)
	require.Equal(t, "Reviewed goroutines", session.Notes)
}

func TestRecordSessionAdvancesLearningGoals(t *testing.T) {
	db, svc, studentID := setupActivitySessionService(t, nil)
	ctx := context.Background()

	goal := models.Goal{
		StudentID:   studentID,
		Title:       "Two hours of study",
		Type:        models.GoalTypeLearningHours,
		Status:      models.GoalStatusActive,
		Priority:    models.GoalPriorityHigh,
		TargetValue: 2,
		Unit:        "hours",
		Deadline:    time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, db.Create(&goal).Error)

	response, err := svc.Record(ctx, studentID, sessionPayload(time.Now().Add(-2*time.Hour), 60))
	require.NoError(t, err)
	require.Empty(t, response.CompletedGoals)

	var midway models.Goal
	require.NoError(t, db.First(&midway, goal.ID).Error)
	require.InDelta(t, 1.0, midway.CurrentValue, 0.001)
	require.Equal(t, models.GoalStatusActive, midway.Status)

	response, err = svc.Record(ctx, studentID, sessionPayload(time.Now().Add(-time.Hour), 60))
	require.NoError(t, err)
	require.Equal(t, []uint{goal.ID}, response.CompletedGoals)

	var done models.Goal
	require.NoError(t, db.First(&done, goal.ID).Error)
	require.Equal(t, models.GoalStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
}

func TestRecordSessionInvalidatesDashboardCache(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	_, svc, studentID := setupActivitySessionService(t, cache)
	ctx := context.Background()

	key := fmt.Sprintf("dashboard:student:%d", studentID)
	require.NoError(t, cache.Set(ctx, key, "stale", time.Minute).Err())

	_, err = svc.Record(ctx, studentID, sessionPayload(time.Now().Add(-time.Hour), 30))
	require.NoError(t, err)

	_, err = cache.Get(ctx, key).Result()
	require.ErrorIs(t, err, redis.Nil)
}

func TestRecordSessionCreatesProfileOnFirstUse(t *testing.T) {
	db, svc, studentID := setupActivitySessionService(t, nil)
	ctx := context.Background()

	var count int64
	require.NoError(t, db.Model(&models.ActivityProfile{}).Where("student_id = ?", studentID).Count(&count).Error)
	require.Zero(t, count)

	_, err := svc.Record(ctx, studentID, sessionPayload(time.Now().Add(-time.Hour), 30))
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.ActivityProfile{}).Where("student_id = ?", studentID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
