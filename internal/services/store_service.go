package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stores-api/internal/dto"
	"stores-api/internal/models"
)

const (
	storePageSize   = 4
	textSearchLimit = 5
	nearLimit       = 10
	// maxSlugAttempts bounds the retry-with-suffix loop when concurrent
	// writers race for the same slug under the unique index.
	maxSlugAttempts = 5
)

// StoreService owns the stores collection and the read aggregations over it.
// Collections are injected at construction time.
type StoreService struct {
	stores  *mongo.Collection
	reviews *mongo.Collection
}

func NewStoreService(db *mongo.Database) *StoreService {
	return &StoreService{
		stores:  db.Collection("stores"),
		reviews: db.Collection("reviews"),
	}
}

// AssertOwner fails unless the user is the store's author. Pure predicate,
// no side effects.
func AssertOwner(store *models.Store, userID primitive.ObjectID) error {
	if store.Author != userID {
		return &AuthorizationError{Msg: "you must own the store to edit it"}
	}
	return nil
}

func validateStoreRequest(req *dto.SaveStoreRequest) (*models.Store, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Msg: "please enter a store name"}
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, &ValidationError{Msg: "you must supply an address"}
	}
	if req.Lng == nil || req.Lat == nil {
		return nil, &ValidationError{Msg: "you must supply coordinates"}
	}
	lng, lat := *req.Lng, *req.Lat
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return nil, &ValidationError{Msg: "coordinates are out of range"}
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	return &models.Store{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Tags:        tags,
		Location: models.Location{
			Type:        "Point",
			Coordinates: []float64{lng, lat},
			Address:     address,
		},
	}, nil
}

func (s *StoreService) countSlugMatches(ctx context.Context, base string, exclude *primitive.ObjectID) (int64, error) {
	filter := bson.M{"slug": slugPattern(base)}
	if exclude != nil {
		filter["_id"] = bson.M{"$ne": *exclude}
	}
	return s.stores.CountDocuments(ctx, filter)
}

// Create inserts a new store with a derived unique slug. The base slug is
// disambiguated by counting existing matches; the unique index on slug plus
// the bounded retry close the race between concurrent writers.
func (s *StoreService) Create(ctx context.Context, author primitive.ObjectID, req *dto.SaveStoreRequest) (*models.Store, error) {
	if author.IsZero() {
		return nil, &ValidationError{Msg: "you must supply an author"}
	}
	store, err := validateStoreRequest(req)
	if err != nil {
		return nil, err
	}
	store.ID = primitive.NewObjectID()
	store.Author = author
	store.Created = time.Now()

	base := BaseSlug(store.Name)
	if base == "" {
		return nil, &ValidationError{Msg: "store name does not produce a usable slug"}
	}
	taken, err := s.countSlugMatches(ctx, base, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count slug matches: %w", err)
	}

	for attempt := int64(0); attempt < maxSlugAttempts; attempt++ {
		store.Slug = suffixedSlug(base, taken+attempt)
		_, err := s.stores.InsertOne(ctx, store)
		if err == nil {
			return store, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to insert store: %w", err)
		}
		// another writer took the slug first, bump the suffix
	}
	return nil, &ConflictError{Msg: fmt.Sprintf("could not derive a unique slug for %q", store.Name)}
}

// Update replaces a store's user-editable fields. Only the owner may update;
// author and created are never touched. Renaming re-derives the slug and
// abandons the old one.
func (s *StoreService) Update(ctx context.Context, id, caller primitive.ObjectID, req *dto.SaveStoreRequest) (*models.Store, error) {
	existing, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(existing, caller); err != nil {
		return nil, err
	}
	updated, err := validateStoreRequest(req)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"name":        updated.Name,
		"description": updated.Description,
		"tags":        updated.Tags,
		"location":    updated.Location,
	}

	if updated.Name == existing.Name {
		return s.applyUpdate(ctx, id, set)
	}

	base := BaseSlug(updated.Name)
	if base == "" {
		return nil, &ValidationError{Msg: "store name does not produce a usable slug"}
	}
	taken, err := s.countSlugMatches(ctx, base, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to count slug matches: %w", err)
	}
	for attempt := int64(0); attempt < maxSlugAttempts; attempt++ {
		set["slug"] = suffixedSlug(base, taken+attempt)
		store, err := s.applyUpdate(ctx, id, set)
		if err == nil {
			return store, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
	}
	return nil, &ConflictError{Msg: fmt.Sprintf("could not derive a unique slug for %q", updated.Name)}
}

func (s *StoreService) applyUpdate(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Store, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var store models.Store
	err := s.stores.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&store)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "store"}
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// SetPhoto records the uploaded photo filename on the store. Owner only.
func (s *StoreService) SetPhoto(ctx context.Context, id, caller primitive.ObjectID, filename string) (*models.Store, error) {
	existing, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(existing, caller); err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, id, bson.M{"photo": filename})
}

func (s *StoreService) ByID(ctx context.Context, id primitive.ObjectID) (*models.Store, error) {
	var store models.Store
	err := s.stores.FindOne(ctx, bson.M{"_id": id}).Decode(&store)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "store"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find store: %w", err)
	}
	return &store, nil
}

// BySlug returns one store. The review join is explicit and opt-in; nothing
// is populated behind the caller's back.
func (s *StoreService) BySlug(ctx context.Context, slug string, includeReviews bool) (*models.Store, error) {
	var store models.Store
	err := s.stores.FindOne(ctx, bson.M{"slug": slug}).Decode(&store)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "store"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find store: %w", err)
	}

	if includeReviews {
		reviews, err := s.reviewsForStore(ctx, store.ID)
		if err != nil {
			return nil, err
		}
		store.Reviews = reviews
	}
	return &store, nil
}

func (s *StoreService) reviewsForStore(ctx context.Context, storeID primitive.ObjectID) ([]models.Review, error) {
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

// List returns one page of stores, newest first, along with the pagination
// shape the caller needs to detect an out-of-range page.
func (s *StoreService) List(ctx context.Context, page int64) ([]models.Store, models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * storePageSize

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(storePageSize).
		SetSort(bson.M{"created": -1})

	cursor, err := s.stores.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to find stores: %w", err)
	}
	defer cursor.Close(ctx)

	stores := []models.Store{}
	if err := cursor.All(ctx, &stores); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to decode stores: %w", err)
	}

	count, err := s.stores.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count stores: %w", err)
	}

	return stores, models.Pagination{
		Page:  page,
		Pages: TotalPages(count, storePageSize),
		Count: count,
		Limit: storePageSize,
	}, nil
}

// TotalPages is ceil(count/limit).
func TotalPages(count, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return (count + limit - 1) / limit
}

// ListTags flattens every store's tags and counts them, most used first.
func (s *StoreService) ListTags(ctx context.Context) ([]models.TagCount, error) {
	pipeline := []bson.M{
		{"$unwind": "$tags"},
		{"$group": bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	}

	cursor, err := s.stores.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tags: %w", err)
	}
	defer cursor.Close(ctx)

	tags := []models.TagCount{}
	if err := cursor.All(ctx, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tag counts: %w", err)
	}
	return tags, nil
}

// ByTag lists stores carrying the tag; an empty tag matches any store that
// has at least one tag.
func (s *StoreService) ByTag(ctx context.Context, tag string) ([]models.Store, error) {
	var tagQuery interface{} = tag
	if tag == "" {
		tagQuery = bson.M{"$exists": true, "$ne": []string{}}
	}

	cursor, err := s.stores.Find(ctx, bson.M{"tags": tagQuery})
	if err != nil {
		return nil, fmt.Errorf("failed to find stores by tag: %w", err)
	}
	defer cursor.Close(ctx)

	stores := []models.Store{}
	if err := cursor.All(ctx, &stores); err != nil {
		return nil, fmt.Errorf("failed to decode stores: %w", err)
	}
	return stores, nil
}

// TopStores ranks stores with two or more reviews by average rating. Stores
// with fewer reviews are excluded entirely to avoid small-sample bias.
func (s *StoreService) TopStores(ctx context.Context) ([]models.TopStore, error) {
	pipeline := []bson.M{
		{"$lookup": bson.M{
			"from":         "reviews",
			"localField":   "_id",
			"foreignField": "store",
			"as":           "reviews",
		}},
		// a second element means at least two reviews
		{"$match": bson.M{"reviews.1": bson.M{"$exists": true}}},
		{"$project": bson.M{
			"photo":         "$$ROOT.photo",
			"name":          "$$ROOT.name",
			"reviews":       "$$ROOT.reviews",
			"slug":          "$$ROOT.slug",
			"averageRating": bson.M{"$avg": "$reviews.rating"},
		}},
		{"$sort": bson.M{"averageRating": -1}},
		{"$limit": 10},
	}

	cursor, err := s.stores.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top stores: %w", err)
	}
	defer cursor.Close(ctx)

	top := []models.TopStore{}
	if err := cursor.All(ctx, &top); err != nil {
		return nil, fmt.Errorf("failed to decode top stores: %w", err)
	}
	return top, nil
}

// SearchText ranks stores by full-text relevance against the name and
// description index.
func (s *StoreService) SearchText(ctx context.Context, query string) ([]models.Store, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &ValidationError{Msg: "search query is required"}
	}

	filter := bson.M{"$text": bson.M{"$search": query}}
	findOptions := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(textSearchLimit)

	cursor, err := s.stores.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to search stores: %w", err)
	}
	defer cursor.Close(ctx)

	stores := []models.Store{}
	if err := cursor.All(ctx, &stores); err != nil {
		return nil, fmt.Errorf("failed to decode stores: %w", err)
	}
	return stores, nil
}

// SearchNear returns the stores closest to the given point, nearest first,
// with the great-circle distance from the query point annotated.
func (s *StoreService) SearchNear(ctx context.Context, lng, lat float64) ([]models.NearStore, error) {
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return nil, &ValidationError{Msg: "coordinates are out of range"}
	}

	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lng, lat},
				},
			},
		},
	}
	findOptions := options.Find().
		SetProjection(bson.M{"slug": 1, "name": 1, "description": 1, "location": 1, "photo": 1}).
		SetLimit(nearLimit)

	cursor, err := s.stores.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby stores: %w", err)
	}
	defer cursor.Close(ctx)

	stores := []models.NearStore{}
	if err := cursor.All(ctx, &stores); err != nil {
		return nil, fmt.Errorf("failed to decode nearby stores: %w", err)
	}

	origin := orb.Point{lng, lat}
	for i := range stores {
		stores[i].DistanceMeters = DistanceMeters(origin, stores[i].Location.Coordinates)
	}
	return stores, nil
}

// DistanceMeters computes the great-circle distance between a point and a
// GeoJSON [lng, lat] coordinate pair. Malformed coordinates yield 0.
func DistanceMeters(origin orb.Point, coordinates []float64) float64 {
	if len(coordinates) < 2 {
		return 0
	}
	return geo.Distance(origin, orb.Point{coordinates[0], coordinates[1]})
}

// Hearted lists the stores in a user's hearts set.
func (s *StoreService) Hearted(ctx context.Context, hearts []primitive.ObjectID) ([]models.Store, error) {
	if len(hearts) == 0 {
		return []models.Store{}, nil
	}

	cursor, err := s.stores.Find(ctx, bson.M{"_id": bson.M{"$in": hearts}})
	if err != nil {
		return nil, fmt.Errorf("failed to find hearted stores: %w", err)
	}
	defer cursor.Close(ctx)

	stores := []models.Store{}
	if err := cursor.All(ctx, &stores); err != nil {
		return nil, fmt.Errorf("failed to decode stores: %w", err)
	}
	return stores, nil
}
