package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Created time.Time          `bson:"created" json:"created"`
	Author  primitive.ObjectID `bson:"author" json:"author"`
	Store   primitive.ObjectID `bson:"store" json:"store"`
	Text    string             `bson:"text" json:"text"`
	Rating  int                `bson:"rating" json:"rating"`
}
