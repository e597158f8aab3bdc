package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// StudentCompetenceFilter narrows per-competence enrolment listings.
type StudentCompetenceFilter struct {
	Status   string
	Page     int
	PageSize int
}

// StudentCompetenceRepository provides access to student/competence standing
// records.
type StudentCompetenceRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.StudentCompetence, error)
	ListByCompetence(ctx context.Context, competenceID uint, filter StudentCompetenceFilter) ([]models.StudentCompetence, int64, error)
	CountByStudent(ctx context.Context, studentID uint, statuses ...string) (int64, error)
	CountByCompetence(ctx context.Context, competenceID uint, statuses ...string) (int64, error)
}

type studentCompetenceRepository struct {
	db *gorm.DB
}

// NewStudentCompetenceRepository constructs the repository.
func NewStudentCompetenceRepository(db *gorm.DB) StudentCompetenceRepository {
	return &studentCompetenceRepository{db: db}
}

func (r *studentCompetenceRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.StudentCompetence, error) {
	var records []models.StudentCompetence
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&records).Error

	return records, err
}

func (r *studentCompetenceRepository) ListByCompetence(ctx context.Context, competenceID uint, filter StudentCompetenceFilter) ([]models.StudentCompetence, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StudentCompetence{}).
		Where("competence_id = ?", competenceID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("updated_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	var records []models.StudentCompetence
	if err := query.Preload("Student").Preload("Student.User").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *studentCompetenceRepository) CountByStudent(ctx context.Context, studentID uint, statuses ...string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StudentCompetence{}).Where("student_id = ?", studentID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var count int64
	err := query.Count(&count).Error

	return count, err
}

func (r *studentCompetenceRepository) CountByCompetence(ctx context.Context, competenceID uint, statuses ...string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StudentCompetence{}).Where("competence_id = ?", competenceID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var count int64
	err := query.Count(&count).Error

	return count, err
}
