package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WebhookStatusSuccess = "success"
	WebhookStatusFailed  = "failed"
)

// WebhookLog is the audit trail: one row per comment-processing attempt,
// written regardless of outcome. WorkerAppID is a weak reference and stays
// NULL when no worker app was found for the account.
type WebhookLog struct {
	ID               uuid.UUID  `gorm:"primaryKey;type:char(36)" json:"id"`
	WebhookID        string     `gorm:"type:varchar(255);not null;index" json:"webhook_id"`
	AccountID        string     `gorm:"type:varchar(255);not null;index" json:"account_id"`
	WorkerAppID      *uuid.UUID `gorm:"type:char(36);index" json:"worker_app_id,omitempty"`
	TargetAppName    *string    `gorm:"type:varchar(255)" json:"target_app_name,omitempty"`
	Status           string     `gorm:"type:varchar(50);not null;index" json:"status"`
	ErrorMessage     *string    `gorm:"type:text" json:"error_message,omitempty"`
	ProcessingTimeMS int        `gorm:"not null;default:0" json:"processing_time_ms"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (l *WebhookLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
