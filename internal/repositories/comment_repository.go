package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"gorm.io/gorm"
)

// TipCommentRepository defines the interface for tip comment operations
type TipCommentRepository interface {
	CreateComment(ctx context.Context, comment *models.TipComment) error
	GetCommentByID(ctx context.Context, id uint) (*models.TipComment, error)
	GetCommentsByTipID(ctx context.Context, tipID string) ([]models.TipComment, error)
	DeleteComment(ctx context.Context, id uint) error
	CountUserComments(ctx context.Context, tipID, userID string, parentAuthorID string) (int64, error)
}

// PostgresTipCommentRepository implements TipCommentRepository for PostgreSQL
type PostgresTipCommentRepository struct {
	db *gorm.DB
}

// NewPostgresTipCommentRepository creates a new PostgresTipCommentRepository
func NewPostgresTipCommentRepository(db *gorm.DB) *PostgresTipCommentRepository {
	return &PostgresTipCommentRepository{db: db}
}

// CreateComment creates a new comment in PostgreSQL
func (r *PostgresTipCommentRepository) CreateComment(ctx context.Context, comment *models.TipComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetCommentByID retrieves a comment by ID from PostgreSQL
func (r *PostgresTipCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.TipComment, error) {
	var comment models.TipComment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByTipID retrieves all comments for a tip, oldest first
func (r *PostgresTipCommentRepository) GetCommentsByTipID(ctx context.Context, tipID string) ([]models.TipComment, error) {
	var comments []models.TipComment
	err := r.db.WithContext(ctx).Where("tip_id = ?", tipID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

// DeleteComment deletes a comment by ID from PostgreSQL
func (r *PostgresTipCommentRepository) DeleteComment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.TipComment{}, id).Error
}

// CountUserComments counts a user's remaining comments on a tip. With
// parentAuthorID set it counts only replies to that author's comments;
// otherwise only top-level comments.
func (r *PostgresTipCommentRepository) CountUserComments(ctx context.Context, tipID, userID string, parentAuthorID string) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.TipComment{}).
		Where("tip_id = ? AND user_id = ?", tipID, userID)
	if parentAuthorID == "" {
		q = q.Where("parent_id IS NULL")
	} else {
		parents := r.db.Model(&models.TipComment{}).Select("id").Where("tip_id = ? AND user_id = ?", tipID, parentAuthorID)
		q = q.Where("parent_id IN (?)", parents)
	}
	err := q.Count(&count).Error
	return count, err
}
