package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a GeoJSON point plus the human-readable address.
type Location struct {
	Type        string    `bson:"type" json:"type"`               // always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [lng, lat]
	Address     string    `bson:"address" json:"address"`
}

type Store struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Tags        []string           `bson:"tags" json:"tags"`
	Created     time.Time          `bson:"created" json:"created"`
	Location    Location           `bson:"location" json:"location"`
	Photo       string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Author      primitive.ObjectID `bson:"author" json:"author"`

	// Reviews is a derived relation, joined on request. Never persisted.
	Reviews []Review `bson:"reviews,omitempty" json:"reviews,omitempty"`
}

// TopStore is the projection produced by the top-stores aggregation.
type TopStore struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Slug          string             `bson:"slug" json:"slug"`
	Photo         string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Reviews       []Review           `bson:"reviews" json:"reviews"`
	AverageRating float64            `bson:"averageRating" json:"averageRating"`
}

// NearStore is the projection returned by the proximity search, with the
// great-circle distance from the query point filled in after the query.
type NearStore struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Slug           string             `bson:"slug" json:"slug"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Location       Location           `bson:"location" json:"location"`
	Photo          string             `bson:"photo,omitempty" json:"photo,omitempty"`
	DistanceMeters float64            `bson:"-" json:"distanceMeters"`
}

// TagCount is one row of the tag aggregation.
type TagCount struct {
	Tag   string `bson:"_id" json:"tag"`
	Count int    `bson:"count" json:"count"`
}

// Pagination describes one page of the store listing.
type Pagination struct {
	Page  int64 `json:"page"`
	Pages int64 `json:"pages"`
	Count int64 `json:"count"`
	Limit int64 `json:"limit"`
}
