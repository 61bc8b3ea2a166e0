package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-recipe/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ContentRepository defines the read and counter operations on recipes and tips
type ContentRepository interface {
	GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error)
	GetTipByID(ctx context.Context, id string) (*models.Tip, error)
	IncrementRecipeCounter(ctx context.Context, id, field string, delta int) error
	IncrementTipCounter(ctx context.Context, id, field string, delta int) error
}

// Counter fields on recipe and tip documents
const (
	CounterLikes    = "likes_count"
	CounterReviews  = "reviews_count"
	CounterComments = "comments_count"
)

// MongoContentRepository implements ContentRepository for MongoDB
type MongoContentRepository struct {
	recipes *mongo.Collection
	tips    *mongo.Collection
}

// NewMongoContentRepository creates a new MongoContentRepository
func NewMongoContentRepository(db *mongo.Database) *MongoContentRepository {
	return &MongoContentRepository{
		recipes: db.Collection("recipes"),
		tips:    db.Collection("tips"),
	}
}

// GetRecipeByID retrieves a recipe by ID from MongoDB
func (r *MongoContentRepository) GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := findByHexID(ctx, r.recipes, id, &recipe); err != nil {
		return nil, fmt.Errorf("recipe %s: %w", id, err)
	}
	return &recipe, nil
}

// GetTipByID retrieves a tip by ID from MongoDB
func (r *MongoContentRepository) GetTipByID(ctx context.Context, id string) (*models.Tip, error) {
	var tip models.Tip
	if err := findByHexID(ctx, r.tips, id, &tip); err != nil {
		return nil, fmt.Errorf("tip %s: %w", id, err)
	}
	return &tip, nil
}

// IncrementRecipeCounter adds delta to a recipe counter field
func (r *MongoContentRepository) IncrementRecipeCounter(ctx context.Context, id, field string, delta int) error {
	return incrementCounter(ctx, r.recipes, id, field, delta)
}

// IncrementTipCounter adds delta to a tip counter field
func (r *MongoContentRepository) IncrementTipCounter(ctx context.Context, id, field string, delta int) error {
	return incrementCounter(ctx, r.tips, id, field, delta)
}

func findByHexID(ctx context.Context, coll *mongo.Collection, id string, out interface{}) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	if err := coll.FindOne(ctx, bson.M{"_id": objID}).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func incrementCounter(ctx context.Context, coll *mongo.Collection, id, field string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid ID format: %w", err)
	}
	filter := bson.M{"_id": objID}
	if delta < 0 {
		// Counters never go below zero.
		filter[field] = bson.M{"$gte": -delta}
	}
	_, err = coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: delta}})
	return err
}
