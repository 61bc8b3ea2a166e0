package repositories

import (
	"context"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, targetType, targetID, userID string) error
	HasUserLiked(ctx context.Context, targetType, targetID, userID string) (bool, error)
	CountLikes(ctx context.Context, targetType, targetID string) (int64, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike creates a new like in PostgreSQL
func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

// DeleteLike removes a like, returning ErrNotFound when there was none
func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, targetType, targetID, userID string) error {
	res := r.db.WithContext(ctx).Unscoped().
		Where("target_type = ? AND target_id = ? AND user_id = ?", targetType, targetID, userID).
		Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasUserLiked checks if a user has liked the target
func (r *PostgresLikeRepository) HasUserLiked(ctx context.Context, targetType, targetID, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_type = ? AND target_id = ? AND user_id = ?", targetType, targetID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountLikes returns the number of likes on the target
func (r *PostgresLikeRepository) CountLikes(ctx context.Context, targetType, targetID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
