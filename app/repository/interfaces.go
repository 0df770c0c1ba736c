package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatico/mapper/app/models"
)

// CommentRepository defines the interface for comment-related database operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ExistsByCommentID(ctx context.Context, commentID string) (bool, error)
	GetByCommentID(ctx context.Context, commentID string) (*models.Comment, error)
	CountByAccountID(ctx context.Context, accountID string) (int64, error)
}

// WorkerAppRepository defines the interface for worker app database operations
type WorkerAppRepository interface {
	Create(ctx context.Context, app *models.WorkerApp) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WorkerApp, error)
	GetActiveByAccountID(ctx context.Context, accountID string) (*models.WorkerApp, error)
	Update(ctx context.Context, app *models.WorkerApp) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, offset, limit int) ([]models.WorkerApp, error)
	Count(ctx context.Context) (int64, error)
}

// MediaRepository defines the interface for media-to-account mapping operations
type MediaRepository interface {
	GetByMediaID(ctx context.Context, mediaID string) (*models.Media, error)
	Upsert(ctx context.Context, media *models.Media) error
}

// WebhookLogRepository defines the interface for audit log operations
type WebhookLogRepository interface {
	Create(ctx context.Context, entry *models.WebhookLog) error
	ListByAccountID(ctx context.Context, accountID string, offset, limit int) ([]models.WebhookLog, error)
}

// Repositories bundles all repository implementations for constructor wiring.
type Repositories struct {
	Comment    CommentRepository
	WorkerApp  WorkerAppRepository
	Media      MediaRepository
	WebhookLog WebhookLogRepository
}

// NewRepositories creates all repositories backed by the given database handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Comment:    NewCommentRepository(db),
		WorkerApp:  NewWorkerAppRepository(db),
		Media:      NewMediaRepository(db),
		WebhookLog: NewWebhookLogRepository(db),
	}
}
