package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID     primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name   string               `bson:"name" json:"name"`
	Email  string               `bson:"email" json:"email"`
	Hash   string               `bson:"hash" json:"-"`
	Hearts []primitive.ObjectID `bson:"hearts" json:"hearts"`

	ResetToken   string    `bson:"resetToken,omitempty" json:"-"`
	ResetExpires time.Time `bson:"resetExpires,omitempty" json:"-"`
}

// HasHearted reports whether the store is in the user's hearts set.
func (u *User) HasHearted(storeID primitive.ObjectID) bool {
	for _, id := range u.Hearts {
		if id == storeID {
			return true
		}
	}
	return false
}
