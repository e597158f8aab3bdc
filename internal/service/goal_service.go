package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

// Goal failure modes.
var (
	ErrGoalNotFound   = errors.New("goal not found")
	ErrGoalNotActive  = errors.New("goal is not active")
	ErrDeadlineInPast = errors.New("goal deadline must be in the future")
)

// GoalService manages student goals.
type GoalService interface {
	Create(ctx context.Context, studentID uint, payload dto.GoalCreateRequest) (dto.GoalResponse, error)
	List(ctx context.Context, studentID uint, status string) ([]dto.GoalResponse, error)
	Progress(ctx context.Context, studentID, goalID uint, payload dto.GoalProgressRequest) (dto.GoalResponse, error)
	Abandon(ctx context.Context, studentID, goalID uint) (dto.GoalResponse, error)
}

type goalService struct {
	goals     repository.GoalRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewGoalService constructs the goal service.
func NewGoalService(goals repository.GoalRepository, validate *validator.Validate, logger zerolog.Logger) GoalService {
	return &goalService{
		goals:     goals,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "goal_service").Logger(),
		now:       time.Now,
	}
}

func (s *goalService) Create(ctx context.Context, studentID uint, payload dto.GoalCreateRequest) (dto.GoalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GoalResponse{}, err
	}

	now := s.now()
	if !payload.Deadline.After(now) {
		return dto.GoalResponse{}, ErrDeadlineInPast
	}

	priority := payload.Priority
	if priority == "" {
		priority = models.GoalPriorityMedium
	}
	frequency := payload.ReminderFrequency
	if frequency == "" {
		frequency = "none"
	}

	goal := models.Goal{
		StudentID:         studentID,
		Title:             strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		Type:              payload.Type,
		Status:            models.GoalStatusActive,
		Priority:          priority,
		TargetValue:       payload.TargetValue,
		Unit:              strings.TrimSpace(payload.Unit),
		Deadline:          payload.Deadline,
		ReminderEnabled:   payload.ReminderEnabled,
		ReminderFrequency: frequency,
	}

	if err := s.goals.Create(ctx, &goal); err != nil {
		return dto.GoalResponse{}, err
	}

	s.logger.Info().Uint("student_id", studentID).Uint("goal_id", goal.ID).Msg("goal created")

	return dto.NewGoalResponse(goal), nil
}

// List returns the student's goals, optionally filtered by status. Overdue
// active goals are flipped to EXPIRED here, so expiry is always an explicit
// write rather than a hidden query-time filter.
func (s *goalService) List(ctx context.Context, studentID uint, status string) ([]dto.GoalResponse, error) {
	goals, err := s.goals.ListByStudent(ctx, studentID, strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return nil, err
	}

	now := s.now()
	responses := make([]dto.GoalResponse, 0, len(goals))
	for i := range goals {
		goal := &goals[i]
		if goal.Status == models.GoalStatusActive && goal.IsExpired(now) {
			goal.Status = models.GoalStatusExpired
			if err := s.goals.Save(ctx, goal); err != nil {
				s.logger.Warn().Err(err).Uint("goal_id", goal.ID).Msg("failed to expire goal")
			}
		}
		responses = append(responses, dto.NewGoalResponse(*goal))
	}

	return responses, nil
}

func (s *goalService) Progress(ctx context.Context, studentID, goalID uint, payload dto.GoalProgressRequest) (dto.GoalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GoalResponse{}, err
	}

	goal, err := s.ownedGoal(ctx, studentID, goalID)
	if err != nil {
		return dto.GoalResponse{}, err
	}

	now := s.now()
	if goal.Status == models.GoalStatusActive && goal.IsExpired(now) {
		goal.Status = models.GoalStatusExpired
		if err := s.goals.Save(ctx, &goal); err != nil {
			return dto.GoalResponse{}, err
		}
	}
	if goal.Status != models.GoalStatusActive {
		return dto.GoalResponse{}, ErrGoalNotActive
	}

	goal.ApplyProgress(payload.Increment, now)
	if err := s.goals.Save(ctx, &goal); err != nil {
		return dto.GoalResponse{}, err
	}

	return dto.NewGoalResponse(goal), nil
}

func (s *goalService) Abandon(ctx context.Context, studentID, goalID uint) (dto.GoalResponse, error) {
	goal, err := s.ownedGoal(ctx, studentID, goalID)
	if err != nil {
		return dto.GoalResponse{}, err
	}

	if goal.Status != models.GoalStatusActive && goal.Status != models.GoalStatusExpired {
		return dto.GoalResponse{}, ErrGoalNotActive
	}

	goal.Status = models.GoalStatusAbandoned
	if err := s.goals.Save(ctx, &goal); err != nil {
		return dto.GoalResponse{}, err
	}

	return dto.NewGoalResponse(goal), nil
}

// ownedGoal loads a goal and hides other students' goals behind not-found.
func (s *goalService) ownedGoal(ctx context.Context, studentID, goalID uint) (models.Goal, error) {
	goal, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Goal{}, ErrGoalNotFound
		}
		return models.Goal{}, err
	}
	if goal.StudentID != studentID {
		return models.Goal{}, ErrGoalNotFound
	}

	return goal, nil
}
