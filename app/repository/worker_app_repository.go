package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatico/mapper/app/models"
)

// workerAppRepository implements the WorkerAppRepository interface
type workerAppRepository struct {
	db *gorm.DB
}

// NewWorkerAppRepository creates a new worker app repository instance
func NewWorkerAppRepository(db *gorm.DB) WorkerAppRepository {
	return &workerAppRepository{db: db}
}

// Create registers a new worker app
func (r *workerAppRepository) Create(ctx context.Context, app *models.WorkerApp) error {
	return r.db.WithContext(ctx).Create(app).Error
}

// GetByID retrieves a worker app by its ID
func (r *workerAppRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WorkerApp, error) {
	var app models.WorkerApp
	err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetActiveByAccountID retrieves the active worker app registered for an
// Instagram account. AccountID is unique, so at most one row matches.
func (r *workerAppRepository) GetActiveByAccountID(ctx context.Context, accountID string) (*models.WorkerApp, error) {
	var app models.WorkerApp
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_active = ?", accountID, true).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Update saves changes to an existing worker app
func (r *workerAppRepository) Update(ctx context.Context, app *models.WorkerApp) error {
	return r.db.WithContext(ctx).Save(app).Error
}

// Delete removes a worker app by its ID
func (r *workerAppRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.WorkerApp{}, "id = ?", id).Error
}

// List retrieves a paginated list of worker apps
func (r *workerAppRepository) List(ctx context.Context, offset, limit int) ([]models.WorkerApp, error) {
	var apps []models.WorkerApp
	err := r.db.WithContext(ctx).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

// Count returns the total number of registered worker apps
func (r *workerAppRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WorkerApp{}).Count(&count).Error
	return count, err
}
