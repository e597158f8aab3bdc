package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// StudentFilter defines filters for listing students from the admin panel.
type StudentFilter struct {
	Search    string
	Niveau    string
	TrackID   uint
	Promotion int
	IsActive  *bool
	Page      int
	PageSize  int
}

// StudentRepository exposes persistence helpers for student records. Create
// and Delete span the user, student and activity-profile rows inside one
// transaction so a student never exists half-initialised.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (models.Student, error)
	Create(ctx context.Context, user *models.User, student *models.Student, profile *models.ActivityProfile) error
	Update(ctx context.Context, id uint, userUpdates, studentUpdates map[string]interface{}) (models.Student, error)
	SetActive(ctx context.Context, id uint, active bool) (models.Student, error)
	Deactivate(ctx context.Context, id uint) (models.Student, error)
	DeletePermanently(ctx context.Context, id uint) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{}).
		Joins("JOIN users ON users.id = students.user_id")

	if filter.Niveau != "" {
		query = query.Where("students.niveau = ?", filter.Niveau)
	}
	if filter.TrackID > 0 {
		query = query.Where("students.track_id = ?", filter.TrackID)
	}
	if filter.Promotion > 0 {
		query = query.Where("students.promotion = ?", filter.Promotion)
	}
	if filter.IsActive != nil {
		query = query.Where("users.is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ?",
			like, like, like,
		)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("students.created_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	var students []models.Student
	if err := query.Preload("User").Preload("Track").Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("User").Preload("Track").First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).Preload("User").Preload("Track").
		Where("user_id = ?", userID).First(&student).Error
	if err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, user *models.User, student *models.Student, profile *models.ActivityProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		student.UserID = user.ID
		if err := tx.Create(student).Error; err != nil {
			return err
		}

		profile.StudentID = student.ID
		return tx.Create(profile).Error
	})
}

func (r *studentRepository) Update(ctx context.Context, id uint, userUpdates, studentUpdates map[string]interface{}) (models.Student, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.First(&student, id).Error; err != nil {
			return err
		}

		if len(studentUpdates) > 0 {
			if err := tx.Model(&models.Student{}).Where("id = ?", id).Updates(studentUpdates).Error; err != nil {
				return err
			}
		}

		if len(userUpdates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", student.UserID).Updates(userUpdates).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.Student{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *studentRepository) SetActive(ctx context.Context, id uint, active bool) (models.Student, error) {
	student, err := r.GetByID(ctx, id)
	if err != nil {
		return models.Student{}, err
	}

	err = r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", student.UserID).
		Update("is_active", active).Error
	if err != nil {
		return models.Student{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *studentRepository) Deactivate(ctx context.Context, id uint) (models.Student, error) {
	return r.SetActive(ctx, id, false)
}

func (r *studentRepository) DeletePermanently(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.First(&student, id).Error; err != nil {
			return err
		}

		var profile models.ActivityProfile
		if err := tx.Where("student_id = ?", id).First(&profile).Error; err == nil {
			if err := tx.Where("profile_id = ?", profile.ID).Delete(&models.ActivitySession{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&profile).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Where("student_id = ?", id).Delete(&models.StudentCompetence{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", id).Delete(&models.Goal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", id).Delete(&models.Achievement{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Student{}, id).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, student.UserID).Error
	})
}
