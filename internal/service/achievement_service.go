package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

const achievementUnlockedSubject = "skilltrack.achievement.unlocked"

// AchievementService records and lists gamification badges.
type AchievementService interface {
	Unlock(ctx context.Context, studentID uint, payload dto.AchievementUnlockRequest) (dto.AchievementResponse, error)
	ListRecent(ctx context.Context, studentID uint, limit int) ([]dto.AchievementResponse, error)
}

type achievementService struct {
	achievements repository.AchievementRepository
	events       *nats.Conn
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAchievementService constructs the achievement service. The NATS
// connection is optional.
func NewAchievementService(achievements repository.AchievementRepository, events *nats.Conn, validate *validator.Validate, logger zerolog.Logger) AchievementService {
	return &achievementService{
		achievements: achievements,
		events:       events,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "achievement_service").Logger(),
		now:          time.Now,
	}
}

func (s *achievementService) Unlock(ctx context.Context, studentID uint, payload dto.AchievementUnlockRequest) (dto.AchievementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AchievementResponse{}, err
	}

	rarity := payload.Rarity
	if rarity == "" {
		rarity = models.RarityCommon
	}

	achievement := models.Achievement{
		StudentID:   studentID,
		Name:        strings.TrimSpace(s.sanitizer.Sanitize(payload.Name)),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		Category:    payload.Category,
		Rarity:      rarity,
		Icon:        strings.TrimSpace(payload.Icon),
		Points:      payload.Points,
		UnlockedAt:  s.now(),
		IsVisible:   true,
		Criteria: datatypes.NewJSONType(models.AchievementCriteria{
			Type:   payload.CriteriaType,
			Value:  payload.CriteriaValue,
			Target: payload.CriteriaTarget,
		}),
	}

	if err := s.achievements.Create(ctx, &achievement); err != nil {
		return dto.AchievementResponse{}, err
	}

	s.publishUnlocked(studentID, achievement)
	s.logger.Info().Uint("student_id", studentID).Str("name", achievement.Name).Msg("achievement unlocked")

	return dto.NewAchievementResponse(achievement), nil
}

func (s *achievementService) ListRecent(ctx context.Context, studentID uint, limit int) ([]dto.AchievementResponse, error) {
	achievements, err := s.achievements.ListRecent(ctx, studentID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AchievementResponse, 0, len(achievements))
	for _, achievement := range achievements {
		responses = append(responses, dto.NewAchievementResponse(achievement))
	}

	return responses, nil
}

func (s *achievementService) publishUnlocked(studentID uint, achievement models.Achievement) {
	if s.events == nil {
		return
	}

	event := map[string]interface{}{
		"student_id":  studentID,
		"name":        achievement.Name,
		"category":    achievement.Category,
		"rarity":      achievement.Rarity,
		"points":      achievement.Points,
		"unlocked_at": achievement.UnlockedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.events.Publish(achievementUnlockedSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish achievement event")
	}
}
