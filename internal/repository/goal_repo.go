package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// GoalRepository provides access to student goals. Status filtering is
// always explicit; there is no hidden scope excluding expired goals.
type GoalRepository interface {
	Create(ctx context.Context, goal *models.Goal) error
	GetByID(ctx context.Context, id uint) (models.Goal, error)
	Save(ctx context.Context, goal *models.Goal) error
	ListByStudent(ctx context.Context, studentID uint, status string) ([]models.Goal, error)
	ListActive(ctx context.Context, studentID uint, limit int) ([]models.Goal, error)
	ListActiveByType(ctx context.Context, studentID uint, goalType string) ([]models.Goal, error)
}

type goalRepository struct {
	db *gorm.DB
}

// NewGoalRepository constructs a goal repository.
func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *models.Goal) error {
	return r.db.WithContext(ctx).Create(goal).Error
}

func (r *goalRepository) GetByID(ctx context.Context, id uint) (models.Goal, error) {
	var goal models.Goal
	if err := r.db.WithContext(ctx).First(&goal, id).Error; err != nil {
		return models.Goal{}, err
	}

	return goal, nil
}

func (r *goalRepository) Save(ctx context.Context, goal *models.Goal) error {
	return r.db.WithContext(ctx).Save(goal).Error
}

func (r *goalRepository) ListByStudent(ctx context.Context, studentID uint, status string) ([]models.Goal, error) {
	query := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var goals []models.Goal
	err := query.Order("deadline ASC").Find(&goals).Error

	return goals, err
}

// ListActive returns ACTIVE goals ordered by priority (highest first) then
// nearest deadline. Priority rank is resolved in Go since priorities are
// stored as labels.
func (r *goalRepository) ListActive(ctx context.Context, studentID uint, limit int) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, models.GoalStatusActive).
		Order("deadline ASC").
		Find(&goals).Error
	if err != nil {
		return nil, err
	}

	sortGoalsByPriority(goals)

	if limit > 0 && len(goals) > limit {
		goals = goals[:limit]
	}

	return goals, nil
}

func (r *goalRepository) ListActiveByType(ctx context.Context, studentID uint, goalType string) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ? AND type = ?", studentID, models.GoalStatusActive, goalType).
		Find(&goals).Error

	return goals, err
}

func sortGoalsByPriority(goals []models.Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		rankI, rankJ := models.PriorityRank(goals[i].Priority), models.PriorityRank(goals[j].Priority)
		if rankI != rankJ {
			return rankI > rankJ
		}

		return goals[i].Deadline.Before(goals[j].Deadline)
	})
}
