package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkerApp is a registered downstream endpoint that receives forwarded
// webhooks for one Instagram account. AccountID is unique: resolution is a
// function, never a fan-out.
type WorkerApp struct {
	ID         uuid.UUID `gorm:"primaryKey;type:char(36)" json:"id"`
	AccountID  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"account_id" validate:"required,max=255"`
	Username   string    `gorm:"type:varchar(255);not null" json:"username" validate:"required,max=255"`
	WebhookURL string    `gorm:"type:varchar(500);not null" json:"webhook_url" validate:"required,url,max=500"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (w *WorkerApp) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w *WorkerApp) Validate() error {
	v := validator.New()

	return v.Struct(w)
}
