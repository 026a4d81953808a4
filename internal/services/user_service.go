package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"stores-api/internal/dto"
	"stores-api/internal/models"
)

const resetTokenTTL = time.Hour

// UserService owns the users collection: registration, credentials, account
// updates, password reset tokens and the hearts set.
type UserService struct {
	users *mongo.Collection
}

func NewUserService(db *mongo.Database) *UserService {
	return &UserService{users: db.Collection("users")}
}

// Register creates a user with a bcrypt password hash. Email uniqueness is
// enforced by the unique index.
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Msg: "please supply a name"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:     primitive.NewObjectID(),
		Name:   name,
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Hash:   string(hash),
		Hearts: []primitive.ObjectID{},
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &ConflictError{Msg: "email already registered"}
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

// Authenticate checks email+password and returns the user on success.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, &AuthorizationError{Msg: "invalid credentials"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)) != nil {
		return nil, &AuthorizationError{Msg: "invalid credentials"}
	}
	return &user, nil
}

func (s *UserService) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// UpdateAccount changes the user's name and email.
func (s *UserService) UpdateAccount(ctx context.Context, id primitive.ObjectID, req *dto.UpdateAccountRequest) (*models.User, error) {
	set := bson.M{
		"name":  strings.TrimSpace(req.Name),
		"email": strings.ToLower(strings.TrimSpace(req.Email)),
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "user"}
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, &ConflictError{Msg: "email already registered"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return &user, nil
}

// ToggleHeart adds the store to the user's hearts if absent, removes it if
// present, and returns the updated user. Applying it twice restores the
// original state.
func (s *UserService) ToggleHeart(ctx context.Context, userID, storeID primitive.ObjectID) (*models.User, error) {
	user, err := s.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	operator := "$addToSet"
	if user.HasHearted(storeID) {
		operator = "$pull"
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err = s.users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": userID},
		bson.M{operator: bson.M{"hearts": storeID}},
		opts,
	).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle heart: %w", err)
	}
	return &updated, nil
}

// StartPasswordReset stores a random token with a one-hour expiry on the
// account and returns it. Delivering the token to the user is the mailer's
// job, outside this service.
func (s *UserService) StartPasswordReset(ctx context.Context, email string) (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	set := bson.M{
		"resetToken":   token,
		"resetExpires": time.Now().Add(resetTokenTTL),
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}, bson.M{"$set": set})
	if err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return "", &NotFoundError{Resource: "user"}
	}
	return token, nil
}

// ResetPassword exchanges an unexpired token for a new password hash and
// clears the token.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	filter := bson.M{
		"resetToken":   token,
		"resetExpires": bson.M{"$gt": time.Now()},
	}
	update := bson.M{
		"$set":   bson.M{"hash": string(hash)},
		"$unset": bson.M{"resetToken": "", "resetExpires": ""},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err = s.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "reset token"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}
	return &user, nil
}
