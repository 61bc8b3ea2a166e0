package models

import "time"

// User is the profile of an app user, keyed by Firebase UID
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;size:128"`
	DisplayName string    `json:"display_name" gorm:"size:50"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateUserRequest defines the request body for creating or updating the own profile
type UpdateUserRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}
