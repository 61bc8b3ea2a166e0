package models

import "time"

// UserTitle is an achievement title granted to a user
type UserTitle struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"size:128;uniqueIndex:idx_user_title"`
	TitleName string    `json:"title_name" gorm:"size:100;uniqueIndex:idx_user_title"`
	CreatedAt time.Time `json:"created_at"`
}

// GrantTitleRequest defines the request body for granting a title
type GrantTitleRequest struct {
	TitleName string `json:"title_name" validate:"required,min=1,max=100"`
}
