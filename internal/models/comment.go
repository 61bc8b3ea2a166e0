package models

import "gorm.io/gorm"

// TipComment represents a comment on a tip, or a reply when ParentID is set
type TipComment struct {
	gorm.Model
	TipID    string `json:"tip_id" gorm:"size:64;index"`
	UserID   string `json:"user_id" gorm:"size:128;index"`
	ParentID *uint  `json:"parent_id,omitempty" gorm:"index"`
	Content  string `json:"content"`
}

// CreateTipCommentRequest defines the request body for commenting on a tip
type CreateTipCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=500"`
	ParentID *uint  `json:"parent_id,omitempty" validate:"omitempty,min=1"`
}
