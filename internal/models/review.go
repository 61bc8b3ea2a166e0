package models

import "gorm.io/gorm"

// Review represents a rated review of a recipe
type Review struct {
	gorm.Model
	RecipeID string `json:"recipe_id" gorm:"size:64;index"`
	UserID   string `json:"user_id" gorm:"size:128;index"`
	Rating   int    `json:"rating"`
	Content  string `json:"content"`
}

// CreateReviewRequest defines the request body for reviewing a recipe
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
