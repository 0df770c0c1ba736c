package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chatico/mapper/app/models"
)

// mediaRepository implements the MediaRepository interface
type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository creates a new media repository instance
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

// GetByMediaID retrieves the account mapping for a media ID, returning
// (nil, nil) when no mapping is stored.
func (r *mediaRepository) GetByMediaID(ctx context.Context, mediaID string) (*models.Media, error) {
	var media models.Media
	err := r.db.WithContext(ctx).Where("media_id = ?", mediaID).First(&media).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &media, nil
}

// Upsert stores or refreshes a media-to-account mapping. Two requests
// resolving the same media concurrently must both succeed.
func (r *mediaRepository) Upsert(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "media_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_id", "username", "updated_at"}),
	}).Create(media).Error
}
