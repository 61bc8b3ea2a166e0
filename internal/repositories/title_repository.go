package repositories

import (
	"context"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"gorm.io/gorm"
)

// TitleRepository defines the interface for achievement title operations
type TitleRepository interface {
	GrantTitle(ctx context.Context, title *models.UserTitle) error
	HasTitle(ctx context.Context, userID, titleName string) (bool, error)
	GetTitles(ctx context.Context, userID string) ([]models.UserTitle, error)
}

// PostgresTitleRepository implements TitleRepository for PostgreSQL
type PostgresTitleRepository struct {
	db *gorm.DB
}

// NewPostgresTitleRepository creates a new PostgresTitleRepository
func NewPostgresTitleRepository(db *gorm.DB) *PostgresTitleRepository {
	return &PostgresTitleRepository{db: db}
}

func (r *PostgresTitleRepository) GrantTitle(ctx context.Context, title *models.UserTitle) error {
	return r.db.WithContext(ctx).Create(title).Error
}

func (r *PostgresTitleRepository) HasTitle(ctx context.Context, userID, titleName string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserTitle{}).
		Where("user_id = ? AND title_name = ?", userID, titleName).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresTitleRepository) GetTitles(ctx context.Context, userID string) ([]models.UserTitle, error) {
	var titles []models.UserTitle
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&titles).Error
	return titles, err
}
