package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// CompetenceInUseError blocks deletion of a competence that is still
// referenced; the counts feed the conflict response.
type CompetenceInUseError struct {
	StudentCount   int64
	DependentCount int64
}

func (e *CompetenceInUseError) Error() string {
	if e.StudentCount > 0 {
		return fmt.Sprintf("competence is used by %d student(s)", e.StudentCount)
	}
	return fmt.Sprintf("competence is a prerequisite for %d other competence(s)", e.DependentCount)
}

// CompetenceFilter defines filters for the admin competence listing.
type CompetenceFilter struct {
	Search        string
	Category      string
	Domain        string
	Level         string
	InstitutionID uint
	SortBy        string
	Order         string
	Page          int
	PageSize      int
}

// CategoryCount pairs a distinct category or domain value with its usage count.
type CategoryCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// CompetenceRepository exposes persistence helpers for competences and their
// prerequisite graph.
type CompetenceRepository interface {
	List(ctx context.Context, filter CompetenceFilter) ([]models.Competence, int64, error)
	GetByID(ctx context.Context, id uint) (models.Competence, error)
	CodeTaken(ctx context.Context, code string, institutionID uint, excludeID uint) (bool, error)
	CountByIDs(ctx context.Context, ids []uint) (int64, error)
	Create(ctx context.Context, competence *models.Competence, prerequisiteIDs []uint) error
	Update(ctx context.Context, id uint, updates map[string]interface{}, prerequisiteIDs []uint) (models.Competence, error)
	Delete(ctx context.Context, id uint) error
	UpdatePopularity(ctx context.Context, id uint, score int) error
	Categories(ctx context.Context) ([]CategoryCount, []CategoryCount, error)
}

type competenceRepository struct {
	db *gorm.DB
}

// NewCompetenceRepository constructs a competence repository.
func NewCompetenceRepository(db *gorm.DB) CompetenceRepository {
	return &competenceRepository{db: db}
}

// sortableColumns guards against ordering by arbitrary user input.
var sortableColumns = map[string]string{
	"popularity_score": "popularity_score",
	"name":             "name",
	"code":             "code",
	"level":            "level",
	"estimated_hours":  "estimated_hours",
	"created_at":       "created_at",
}

func (r *competenceRepository) List(ctx context.Context, filter CompetenceFilter) ([]models.Competence, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Competence{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Domain != "" {
		query = query.Where("domain = ?", filter.Domain)
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.InstitutionID > 0 {
		query = query.Where("institution_id = ?", filter.InstitutionID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(code) LIKE ?", like, like, like)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortableColumns[filter.SortBy]
	if !ok {
		column = "popularity_score"
	}
	direction := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		direction = "ASC"
	}
	query = query.Order(column + " " + direction)

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	var competences []models.Competence
	if err := query.Preload("Prerequisites").Preload("NextCompetences").Find(&competences).Error; err != nil {
		return nil, 0, err
	}

	return competences, total, nil
}

func (r *competenceRepository) GetByID(ctx context.Context, id uint) (models.Competence, error) {
	var competence models.Competence
	err := r.db.WithContext(ctx).
		Preload("Prerequisites").
		Preload("NextCompetences").
		First(&competence, id).Error
	if err != nil {
		return models.Competence{}, err
	}

	return competence, nil
}

func (r *competenceRepository) CodeTaken(ctx context.Context, code string, institutionID uint, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Competence{}).
		Where("code = ? AND institution_id = ?", strings.ToUpper(code), institutionID)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *competenceRepository) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Competence{}).Where("id IN ?", ids).Count(&count).Error

	return count, err
}

func (r *competenceRepository) Create(ctx context.Context, competence *models.Competence, prerequisiteIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Prerequisites", "NextCompetences").Create(competence).Error; err != nil {
			return err
		}

		return syncPrerequisites(tx, competence.ID, prerequisiteIDs)
	})
}

func (r *competenceRepository) Update(ctx context.Context, id uint, updates map[string]interface{}, prerequisiteIDs []uint) (models.Competence, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			result := tx.Model(&models.Competence{}).Where("id = ?", id).Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&models.Competence{}).Where("id = ?", id).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return gorm.ErrRecordNotFound
				}
			}
		}

		if prerequisiteIDs != nil {
			if err := tx.Exec("DELETE FROM competence_prerequisites WHERE competence_id = ?", id).Error; err != nil {
				return err
			}
			return syncPrerequisites(tx, id, prerequisiteIDs)
		}

		return nil
	})
	if err != nil {
		return models.Competence{}, err
	}

	return r.GetByID(ctx, id)
}

// syncPrerequisites records the prerequisite edges and back-links the new
// competence on each prerequisite's next list.
func syncPrerequisites(tx *gorm.DB, competenceID uint, prerequisiteIDs []uint) error {
	for _, prereqID := range prerequisiteIDs {
		if err := tx.Exec(
			"INSERT INTO competence_prerequisites (competence_id, prerequisite_id) VALUES (?, ?)",
			competenceID, prereqID,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"INSERT INTO competence_next (competence_id, next_id) VALUES (?, ?)",
			prereqID, competenceID,
		).Error; err != nil {
			return err
		}
	}

	return nil
}

func (r *competenceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var studentCount int64
		if err := tx.Model(&models.StudentCompetence{}).Where("competence_id = ?", id).Count(&studentCount).Error; err != nil {
			return err
		}
		if studentCount > 0 {
			return &CompetenceInUseError{StudentCount: studentCount}
		}

		var dependentCount int64
		if err := tx.Table("competence_prerequisites").Where("prerequisite_id = ?", id).Count(&dependentCount).Error; err != nil {
			return err
		}
		if dependentCount > 0 {
			return &CompetenceInUseError{DependentCount: dependentCount}
		}

		result := tx.Delete(&models.Competence{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Exec("DELETE FROM competence_prerequisites WHERE competence_id = ?", id).Error; err != nil {
			return err
		}

		return tx.Exec("DELETE FROM competence_next WHERE competence_id = ? OR next_id = ?", id, id).Error
	})
}

func (r *competenceRepository) UpdatePopularity(ctx context.Context, id uint, score int) error {
	result := r.db.WithContext(ctx).Model(&models.Competence{}).
		Where("id = ?", id).
		Update("popularity_score", score)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *competenceRepository) Categories(ctx context.Context) ([]CategoryCount, []CategoryCount, error) {
	var categories []CategoryCount
	err := r.db.WithContext(ctx).Model(&models.Competence{}).
		Select("category AS value, COUNT(*) AS count").
		Group("category").
		Order("count DESC").
		Scan(&categories).Error
	if err != nil {
		return nil, nil, err
	}

	var domains []CategoryCount
	err = r.db.WithContext(ctx).Model(&models.Competence{}).
		Select("domain AS value, COUNT(*) AS count").
		Group("domain").
		Order("count DESC").
		Scan(&domains).Error
	if err != nil {
		return nil, nil, err
	}

	return categories, domains, nil
}
