package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stores-api/internal/dto"
	"stores-api/internal/models"
)

// ReviewService owns the reviews collection. It checks referential validity
// at creation time only; nothing prunes reviews if their store or author is
// later removed.
type ReviewService struct {
	reviews *mongo.Collection
	stores  *mongo.Collection
	users   *mongo.Collection
}

func NewReviewService(db *mongo.Database) *ReviewService {
	return &ReviewService{
		reviews: db.Collection("reviews"),
		stores:  db.Collection("stores"),
		users:   db.Collection("users"),
	}
}

// Add creates a review for a store by the authenticated author.
func (s *ReviewService) Add(ctx context.Context, storeID, author primitive.ObjectID, req *dto.AddReviewRequest) (*models.Review, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &ValidationError{Msg: "your review must have a text"}
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, &ValidationError{Msg: "rating must be between 1 and 5"}
	}

	storeCount, err := s.stores.CountDocuments(ctx, bson.M{"_id": storeID})
	if err != nil {
		return nil, fmt.Errorf("failed to check store: %w", err)
	}
	if storeCount == 0 {
		return nil, &NotFoundError{Resource: "store"}
	}
	authorCount, err := s.users.CountDocuments(ctx, bson.M{"_id": author})
	if err != nil {
		return nil, fmt.Errorf("failed to check author: %w", err)
	}
	if authorCount == 0 {
		return nil, &NotFoundError{Resource: "user"}
	}

	review := &models.Review{
		ID:      primitive.NewObjectID(),
		Created: time.Now(),
		Author:  author,
		Store:   storeID,
		Text:    text,
		Rating:  req.Rating,
	}
	if _, err := s.reviews.InsertOne(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}
	return review, nil
}

// ListForStore returns a store's reviews, newest first.
func (s *ReviewService) ListForStore(ctx context.Context, storeID primitive.ObjectID) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.M{"created": -1})
	cursor, err := s.reviews.Find(ctx, bson.M{"store": storeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}
