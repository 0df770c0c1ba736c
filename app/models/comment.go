package models

import (
	"time"
)

// Comment stores a single Instagram comment delivered via webhook. The
// platform comment ID is the primary key, which is what makes duplicate
// deliveries idempotent: a concurrent second insert for the same ID fails
// with a duplicate-key error and is treated as already processed.
type Comment struct {
	CommentID string    `gorm:"primaryKey;type:varchar(100)" json:"comment_id"`
	MediaID   string    `gorm:"type:varchar(100);index" json:"media_id"`
	AccountID string    `gorm:"type:varchar(255);not null;index" json:"account_id"`
	UserID    string    `gorm:"type:varchar(255);not null;index" json:"user_id"`
	Username  string    `gorm:"type:varchar(100);not null" json:"username"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	ParentID  *string   `gorm:"type:varchar(100);index" json:"parent_id,omitempty"`
	Timestamp int64     `gorm:"not null" json:"timestamp"`
	RawData   string    `gorm:"type:longtext;not null" json:"raw_data"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsReply reports whether this comment is a reply to another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CommentTime converts the webhook entry timestamp to a time.Time.
func (c *Comment) CommentTime() time.Time {
	return time.Unix(c.Timestamp, 0)
}
