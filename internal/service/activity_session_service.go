package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/observability"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

const sessionRecordedSubject = "skilltrack.session.recorded"

// ErrSessionRejected wraps model-level session validation failures.
var ErrSessionRejected = errors.New("session rejected")

// ActivitySessionService records study sessions and applies their side
// effects: counters, streaks, goal progress and cache invalidation.
type ActivitySessionService interface {
	Record(ctx context.Context, studentID uint, payload dto.RecordSessionRequest) (dto.RecordSessionResponse, error)
	History(ctx context.Context, studentID uint) ([]models.ActivitySession, error)
}

type activitySessionService struct {
	profiles  repository.ActivityProfileRepository
	goals     repository.GoalRepository
	cache     *redis.Client
	events    *nats.Conn
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewActivitySessionService constructs the session recording service. Cache
// and events are optional; a nil client disables the corresponding side
// effect.
func NewActivitySessionService(
	profiles repository.ActivityProfileRepository,
	goals repository.GoalRepository,
	cache *redis.Client,
	events *nats.Conn,
	validate *validator.Validate,
	logger zerolog.Logger,
) ActivitySessionService {
	return &activitySessionService{
		profiles:  profiles,
		goals:     goals,
		cache:     cache,
		events:    events,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "activity_session_service").Logger(),
		now:       time.Now,
	}
}

func (s *activitySessionService) Record(ctx context.Context, studentID uint, payload dto.RecordSessionRequest) (dto.RecordSessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RecordSessionResponse{}, err
	}

	now := s.now()

	if _, err := s.profiles.GetOrCreate(ctx, studentID, now); err != nil {
		return dto.RecordSessionResponse{}, err
	}

	session := models.ActivitySession{
		ActivityType:    payload.ActivityType,
		DurationMinutes: payload.DurationMinutes,
		StartTime:       payload.StartTime,
		EndTime:         payload.EndTime,
		CompetenceIDs:   payload.CompetenceIDs,
		FormationID:     payload.FormationID,
		Notes:           strings.TrimSpace(s.sanitizer.Sanitize(payload.Notes)),
	}

	var xpGained int
	profile, err := s.profiles.Mutate(ctx, studentID, func(profile *models.ActivityProfile) error {
		if profile.NeedsWeeklyReset(now) {
			profile.ResetWeeklyStats(now)
		}

		gained, err := profile.AddSession(session, now)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSessionRejected, err)
		}
		xpGained = gained
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RecordSessionResponse{}, ErrStudentNotFound
		}
		return dto.RecordSessionResponse{}, err
	}

	completedGoals := s.advanceLearningGoals(ctx, studentID, payload.DurationMinutes/60, now)

	observability.SessionsRecorded().Inc()
	observability.XPAwarded().Add(float64(xpGained))

	s.invalidateDashboard(ctx, studentID)
	s.publishSessionRecorded(studentID, session, xpGained)

	s.logger.Info().
		Uint("student_id", studentID).
		Float64("duration_minutes", payload.DurationMinutes).
		Int("xp_gained", xpGained).
		Msg("session recorded")

	return dto.NewRecordSessionResponse(profile, xpGained, completedGoals), nil
}

func (s *activitySessionService) History(ctx context.Context, studentID uint) ([]models.ActivitySession, error) {
	profile, err := s.profiles.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.ActivitySession{}, nil
		}
		return nil, err
	}

	return profile.Sessions, nil
}

// advanceLearningGoals feeds the session's hours into every active
// LEARNING_HOURS goal. Goal bookkeeping never fails the session itself.
func (s *activitySessionService) advanceLearningGoals(ctx context.Context, studentID uint, hours float64, now time.Time) []uint {
	if hours <= 0 {
		return nil
	}

	goals, err := s.goals.ListActiveByType(ctx, studentID, models.GoalTypeLearningHours)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to load learning goals")
		return nil
	}

	var completed []uint
	for i := range goals {
		goal := &goals[i]
		goal.ApplyProgress(hours, now)
		if err := s.goals.Save(ctx, goal); err != nil {
			s.logger.Warn().Err(err).Uint("goal_id", goal.ID).Msg("failed to update goal progress")
			continue
		}
		if goal.Status == models.GoalStatusCompleted {
			completed = append(completed, goal.ID)
		}
	}

	return completed
}

func (s *activitySessionService) invalidateDashboard(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}

	key := fmt.Sprintf("dashboard:student:%d", studentID)
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to invalidate dashboard cache")
	}
}

func (s *activitySessionService) publishSessionRecorded(studentID uint, session models.ActivitySession, xpGained int) {
	if s.events == nil {
		return
	}

	event := map[string]interface{}{
		"student_id":       studentID,
		"activity_type":    session.ActivityType,
		"duration_minutes": session.DurationMinutes,
		"xp_gained":        xpGained,
		"recorded_at":      s.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.events.Publish(sessionRecordedSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish session event")
	}
}
