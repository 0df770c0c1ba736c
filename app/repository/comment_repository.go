package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/chatico/mapper/app/models"
)

// commentRepository implements the CommentRepository interface
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository instance
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment. A duplicate-key error surfaces as
// gorm.ErrDuplicatedKey so the caller can treat replays as already processed.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ExistsByCommentID reports whether a comment with the given platform ID
// has already been stored.
func (r *commentRepository) ExistsByCommentID(ctx context.Context, commentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByCommentID retrieves a comment by its platform ID
func (r *commentRepository) GetByCommentID(ctx context.Context, commentID string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Where("comment_id = ?", commentID).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// CountByAccountID returns the number of stored comments for an account
func (r *commentRepository) CountByAccountID(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}
