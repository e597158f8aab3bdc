package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/models"
)

// TrackRepository provides access to programme-of-study reference data.
type TrackRepository interface {
	GetByID(ctx context.Context, id uint) (models.Track, error)
	List(ctx context.Context) ([]models.Track, error)
}

type trackRepository struct {
	db *gorm.DB
}

// NewTrackRepository constructs a track repository.
func NewTrackRepository(db *gorm.DB) TrackRepository {
	return &trackRepository{db: db}
}

func (r *trackRepository) GetByID(ctx context.Context, id uint) (models.Track, error) {
	var track models.Track
	if err := r.db.WithContext(ctx).First(&track, id).Error; err != nil {
		return models.Track{}, err
	}

	return track, nil
}

func (r *trackRepository) List(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	err := r.db.WithContext(ctx).Order("title ASC").Find(&tracks).Error

	return tracks, err
}
