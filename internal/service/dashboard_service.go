package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
	"github.com/meryam27/skilltrack-api/pkg/insights"
)

const (
	dashboardGoalLimit        = 5
	dashboardAchievementLimit = 6
	dashboardActivityLimit    = 4
	dashboardLeaderboardLimit = 5
)

// DashboardService produces the aggregated student dashboard.
type DashboardService interface {
	Get(ctx context.Context, studentID uint) (dto.DashboardResponse, error)
}

type dashboardService struct {
	students     repository.StudentRepository
	profiles     repository.ActivityProfileRepository
	goals        repository.GoalRepository
	achievements repository.AchievementRepository
	enrolments   repository.StudentCompetenceRepository
	cache        *redis.Client
	cacheTTL     time.Duration
	generator    insights.Generator
	fallback     insights.Generator
	logger       zerolog.Logger
	now          func() time.Time
}

// NewDashboardService builds the dashboard aggregator. The insight generator
// is optional; the deterministic heuristic always serves as fallback.
func NewDashboardService(
	students repository.StudentRepository,
	profiles repository.ActivityProfileRepository,
	goals repository.GoalRepository,
	achievements repository.AchievementRepository,
	enrolments repository.StudentCompetenceRepository,
	cache *redis.Client,
	ttl time.Duration,
	generator insights.Generator,
	logger zerolog.Logger,
) DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &dashboardService{
		students:     students,
		profiles:     profiles,
		goals:        goals,
		achievements: achievements,
		enrolments:   enrolments,
		cache:        cache,
		cacheTTL:     ttl,
		generator:    generator,
		fallback:     insights.NewHeuristicGenerator(),
		logger:       logger.With().Str("component", "dashboard_service").Logger(),
		now:          time.Now,
	}
}

func (s *dashboardService) Get(ctx context.Context, studentID uint) (dto.DashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DashboardResponse{}, ErrStudentNotFound
		}
		return dto.DashboardResponse{}, err
	}

	now := s.now()
	profile, err := s.profiles.GetOrCreate(ctx, studentID, now)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	skillsCount, err := s.enrolments.CountByStudent(ctx, studentID, models.CompetenceStatusAcquired, models.CompetenceStatusValidated)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	response := dto.DashboardResponse{
		User: dto.DashboardUser{
			Name:                student.User.FullName(),
			Level:               profile.Level,
			XP:                  profile.ExperiencePoints,
			StreakDays:          profile.CurrentStreakDays,
			TotalLearningHours:  profile.TotalHours,
			SkillsAcquiredCount: skillsCount,
			GlobalProgress:      models.GlobalProgress(profile.TotalHours, int(skillsCount)),
		},
		RecentActivity: recentActivity(profile.Sessions),
		WeeklyProgress: weeklyProgress(profile, now),
	}

	goals, err := s.goals.ListActive(ctx, studentID, dashboardGoalLimit)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	response.Goals = make([]dto.GoalResponse, 0, len(goals))
	for _, goal := range goals {
		response.Goals = append(response.Goals, dto.NewGoalResponse(goal))
	}

	achievements, err := s.achievements.ListRecent(ctx, studentID, dashboardAchievementLimit)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	response.Achievements = make([]dto.AchievementResponse, 0, len(achievements))
	for _, achievement := range achievements {
		response.Achievements = append(response.Achievements, dto.NewAchievementResponse(achievement))
	}

	leaderboard, err := s.profiles.Leaderboard(ctx, dashboardLeaderboardLimit)
	if err != nil {
		return dto.DashboardResponse{}, err
	}
	response.Leaderboard = make([]dto.LeaderboardRow, 0, len(leaderboard))
	for i, entry := range leaderboard {
		response.Leaderboard = append(response.Leaderboard, dto.LeaderboardRow{
			Name:       entry.FirstName + " " + entry.LastName,
			Level:      entry.Level,
			XP:         entry.ExperiencePoints,
			TotalHours: entry.TotalHours,
			Rank:       i + 1,
		})
	}

	response.Insights = s.buildInsights(ctx, student, profile, skillsCount)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

// recentActivity maps the last few sessions, newest first. XP is recomputed
// from the stored duration.
func recentActivity(sessions []models.ActivitySession) []dto.DashboardActivity {
	items := make([]dto.DashboardActivity, 0, dashboardActivityLimit)
	for i := len(sessions) - 1; i >= 0 && len(items) < dashboardActivityLimit; i-- {
		session := sessions[i]

		activityType := "skill_practiced"
		if session.ActivityType == models.ActivityTypeLearning {
			activityType = "course_completed"
		}

		details := session.Notes
		if details == "" {
			details = session.ActivityType
		}

		items = append(items, dto.DashboardActivity{
			Type:     activityType,
			Details:  details,
			Date:     session.EndTime,
			XPGained: models.SessionXP(session.DurationMinutes),
		})
	}

	return items
}

func weeklyProgress(profile models.ActivityProfile, now time.Time) dto.WeeklyProgress {
	weekStart := models.WeekStart(now)

	coursesCompleted := 0
	for _, session := range profile.Sessions {
		if session.ActivityType == models.ActivityTypeLearning && !session.StartTime.Before(weekStart) {
			coursesCompleted++
		}
	}

	return dto.WeeklyProgress{
		WeekStart:        weekStart,
		DailyHours:       profile.DailyHours(now),
		TotalHours:       profile.WeeklyTotalHours,
		CoursesCompleted: coursesCompleted,
	}
}

func (s *dashboardService) buildInsights(ctx context.Context, student models.Student, profile models.ActivityProfile, skillsCount int64) []string {
	summary := insights.ProfileSummary{
		FirstName:         student.User.FirstName,
		Level:             profile.Level,
		ExperiencePoints:  profile.ExperiencePoints,
		TotalHours:        profile.TotalHours,
		WeeklyTotalHours:  profile.WeeklyTotalHours,
		WeeklyGoalHours:   profile.WeeklyGoalHours,
		CurrentStreakDays: profile.CurrentStreakDays,
		SkillsCount:       skillsCount,
		GlobalProgress:    models.GlobalProgress(profile.TotalHours, int(skillsCount)),
	}

	if s.generator != nil {
		if generated, err := s.generator.Generate(ctx, summary); err == nil && len(generated) > 0 {
			return generated
		} else if err != nil {
			s.logger.Warn().Err(err).Msg("insight generation failed, using heuristic")
		}
	}

	generated, err := s.fallback.Generate(ctx, summary)
	if err != nil {
		return []string{}
	}
	return generated
}
