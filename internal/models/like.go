package models

import "gorm.io/gorm"

// Targets a like can point at
const (
	LikeTargetRecipe = "recipe"
	LikeTargetTip    = "tip"
)

// Like represents a like on a recipe or a tip
type Like struct {
	gorm.Model
	TargetType string `json:"target_type" gorm:"size:10;uniqueIndex:idx_like_target_user"`
	TargetID   string `json:"target_id" gorm:"size:64;uniqueIndex:idx_like_target_user"` // MongoDB ObjectID as hex
	UserID     string `json:"user_id" gorm:"size:128;index;uniqueIndex:idx_like_target_user"`
}
