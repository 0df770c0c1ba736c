package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/chatico/mapper/app/models"
	"github.com/chatico/mapper/app/repository"
)

// Entry captures one comment-processing attempt.
type Entry struct {
	WebhookID string
	AccountID string
	// WorkerApp is nil when no worker app was found for the account.
	WorkerApp *models.WorkerApp
	Success   bool
	// ErrorMessage is empty on success.
	ErrorMessage string
	Duration     time.Duration
}

// Logger persists audit entries. Writes are best-effort: a failed write is
// logged and swallowed so it can never fail the request or stop the
// remaining comments in a batch.
type Logger struct {
	repo repository.WebhookLogRepository
}

func NewLogger(repo repository.WebhookLogRepository) *Logger {
	return &Logger{repo: repo}
}

// Record writes one WebhookLog row for the attempt.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	row := &models.WebhookLog{
		WebhookID:        entry.WebhookID,
		AccountID:        entry.AccountID,
		Status:           models.WebhookStatusFailed,
		ProcessingTimeMS: int(entry.Duration.Milliseconds()),
	}
	if entry.Success {
		row.Status = models.WebhookStatusSuccess
	}
	if entry.WorkerApp != nil {
		id := entry.WorkerApp.ID
		row.WorkerAppID = &id
		name := entry.WorkerApp.Username
		row.TargetAppName = &name
	}
	if entry.ErrorMessage != "" {
		msg := entry.ErrorMessage
		row.ErrorMessage = &msg
	}

	if err := l.repo.Create(ctx, row); err != nil {
		log.Printf("failed to create webhook log for webhook_id=%s: %v", entry.WebhookID, err)
	}
}

// NewCorrelationID generates a correlation ID for deliveries arriving
// without an X-Trace-ID header.
func NewCorrelationID() string {
	return uuid.NewString()
}
