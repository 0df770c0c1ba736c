package models

import (
	"time"
)

// Media caches the media-to-account mapping so repeated webhooks for the
// same media skip the Instagram Graph API. This is the database tier of
// the owner resolution cascade.
type Media struct {
	MediaID   string    `gorm:"primaryKey;type:varchar(100)" json:"media_id"`
	AccountID string    `gorm:"type:varchar(255);not null;index" json:"account_id"`
	Username  string    `gorm:"type:varchar(100)" json:"username"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
