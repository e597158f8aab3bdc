package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// LeaderboardEntry is one row of the top-students ranking.
type LeaderboardEntry struct {
	StudentID        uint    `json:"student_id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Level            int     `json:"level"`
	ExperiencePoints int     `json:"experience_points"`
	TotalHours       float64 `json:"total_hours"`
}

// ActivityProfileRepository provides access to activity profiles and their
// session history.
type ActivityProfileRepository interface {
	GetByStudentID(ctx context.Context, studentID uint) (models.ActivityProfile, error)
	GetOrCreate(ctx context.Context, studentID uint, now time.Time) (models.ActivityProfile, error)
	Mutate(ctx context.Context, studentID uint, fn func(profile *models.ActivityProfile) error) (models.ActivityProfile, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type activityProfileRepository struct {
	db *gorm.DB
}

// NewActivityProfileRepository constructs the repository.
func NewActivityProfileRepository(db *gorm.DB) ActivityProfileRepository {
	return &activityProfileRepository{db: db}
}

func (r *activityProfileRepository) GetByStudentID(ctx context.Context, studentID uint) (models.ActivityProfile, error) {
	var profile models.ActivityProfile
	err := r.db.WithContext(ctx).
		Preload("Sessions", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Where("student_id = ?", studentID).
		First(&profile).Error
	if err != nil {
		return models.ActivityProfile{}, err
	}

	return profile, nil
}

// Mutate loads the profile (with its session history) under a row lock, runs
// fn, then persists changed counters and any appended sessions in the same
// transaction. Two concurrent session submissions for one student serialize
// instead of losing an increment. The lock is postgres-only: sqlite, used in
// tests, serialises writers on its own and rejects FOR UPDATE.
func (r *activityProfileRepository) Mutate(ctx context.Context, studentID uint, fn func(profile *models.ActivityProfile) error) (models.ActivityProfile, error) {
	var profile models.ActivityProfile

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		if err := query.Where("student_id = ?", studentID).First(&profile).Error; err != nil {
			return err
		}

		if err := tx.Where("profile_id = ?", profile.ID).
			Order("start_time ASC").
			Find(&profile.Sessions).Error; err != nil {
			return err
		}

		existing := len(profile.Sessions)
		if err := fn(&profile); err != nil {
			return err
		}

		for i := existing; i < len(profile.Sessions); i++ {
			session := &profile.Sessions[i]
			session.ProfileID = profile.ID
			if err := tx.Create(session).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.ActivityProfile{}).
			Where("id = ?", profile.ID).
			Updates(map[string]interface{}{
				"total_hours":         profile.TotalHours,
				"weekly_total_hours":  profile.WeeklyTotalHours,
				"current_streak_days": profile.CurrentStreakDays,
				"longest_streak_days": profile.LongestStreakDays,
				"level":               profile.Level,
				"experience_points":   profile.ExperiencePoints,
				"last_activity_date":  profile.LastActivityDate,
				"last_weekly_reset":   profile.LastWeeklyReset,
			}).Error
	})
	if err != nil {
		return models.ActivityProfile{}, err
	}

	return profile, nil
}

func (r *activityProfileRepository) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 5
	}

	var entries []LeaderboardEntry
	err := r.db.WithContext(ctx).
		Table("activity_profiles").
		Select("activity_profiles.student_id, users.first_name, users.last_name, activity_profiles.level, activity_profiles.experience_points, activity_profiles.total_hours").
		Joins("JOIN students ON students.id = activity_profiles.student_id").
		Joins("JOIN users ON users.id = students.user_id").
		Order("activity_profiles.total_hours DESC").
		Limit(limit).
		Scan(&entries).Error

	return entries, err
}

// GetOrCreate returns the profile, creating a zero-valued one when missing.
// Keeps the dashboard read path tolerant of students created before profiles
// were provisioned automatically.
func (r *activityProfileRepository) GetOrCreate(ctx context.Context, studentID uint, now time.Time) (models.ActivityProfile, error) {
	profile, err := r.GetByStudentID(ctx, studentID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ActivityProfile{}, err
	}

	created := models.NewActivityProfile(studentID, now)
	if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
		return models.ActivityProfile{}, err
	}

	return created, nil
}
