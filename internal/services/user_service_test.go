package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stores-api/internal/dto"
	"stores-api/internal/services"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	users := services.NewUserService(db)
	ctx := context.Background()

	user := registerTestUser(t, users, "Login@Example.com")
	assert.Equal(t, "login@example.com", user.Email)
	assert.NotEmpty(t, user.Hash)
	assert.NotEqual(t, "correct-horse", user.Hash)

	authed, err := users.Authenticate(ctx, "login@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = users.Authenticate(ctx, "login@example.com", "wrong-password")
	assert.True(t, services.IsAuthorization(err))

	_, err = users.Authenticate(ctx, "nobody@example.com", "correct-horse")
	assert.True(t, services.IsAuthorization(err))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	users := services.NewUserService(db)
	ctx := context.Background()

	registerTestUser(t, users, "dupe@example.com")

	_, err := users.Register(ctx, &dto.RegisterRequest{
		Name:            "Second",
		Email:           "dupe@example.com",
		Password:        "another-pass",
		PasswordConfirm: "another-pass",
	})
	assert.True(t, services.IsConflict(err))
}

func TestPasswordResetFlow(t *testing.T) {
	db := setupTestDB(t)
	users := services.NewUserService(db)
	ctx := context.Background()

	registerTestUser(t, users, "reset@example.com")

	token, err := users.StartPasswordReset(ctx, "reset@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = users.ResetPassword(ctx, "bogus-token", "brand-new-pass")
	assert.True(t, services.IsNotFound(err))

	user, err := users.ResetPassword(ctx, token, "brand-new-pass")
	require.NoError(t, err)
	assert.Empty(t, user.ResetToken)

	_, err = users.Authenticate(ctx, "reset@example.com", "brand-new-pass")
	require.NoError(t, err)

	// token is single use
	_, err = users.ResetPassword(ctx, token, "again")
	assert.True(t, services.IsNotFound(err))

	_, err = users.StartPasswordReset(ctx, "missing@example.com")
	assert.True(t, services.IsNotFound(err))
}
