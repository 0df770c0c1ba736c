package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chatico/mapper/app/models"
)

// webhookLogRepository implements the WebhookLogRepository interface
type webhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository creates a new webhook log repository instance
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

// Create persists one audit log entry
func (r *webhookLogRepository) Create(ctx context.Context, entry *models.WebhookLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByAccountID retrieves audit entries for an account, newest first
func (r *webhookLogRepository) ListByAccountID(ctx context.Context, accountID string, offset, limit int) ([]models.WebhookLog, error) {
	var entries []models.WebhookLog
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error
	return entries, err
}
