package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recipe is the subset of a recipe document the backend reads
type Recipe struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       string             `json:"user_id" bson:"user_id"` // Firebase UID of the author
	Title        string             `json:"title" bson:"title"`
	ThumbnailURL string             `json:"thumbnail_url" bson:"thumbnail_url"`
	LikesCount   int                `json:"likes_count" bson:"likes_count"`
	ReviewsCount int                `json:"reviews_count" bson:"reviews_count"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// Display returns the denormalized fields shown on recipe notifications
func (r *Recipe) Display() RecipeDisplay {
	return RecipeDisplay{Title: r.Title, ThumbnailURL: r.ThumbnailURL}
}

// Tip is the subset of a cooking tip document the backend reads
type Tip struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        string             `json:"user_id" bson:"user_id"`
	Title         string             `json:"title" bson:"title"`
	ImageURLs     []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

// Display returns the denormalized fields shown on tip notifications
func (t *Tip) Display(commentContent string) TipDisplay {
	d := TipDisplay{Title: t.Title, CommentContent: commentContent}
	if len(t.ImageURLs) > 0 {
		d.FirstImageURL = t.ImageURLs[0]
	}
	return d
}
