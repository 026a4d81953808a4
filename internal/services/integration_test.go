package services_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stores-api/internal/database"
	"stores-api/internal/dto"
	"stores-api/internal/models"
	"stores-api/internal/services"
)

// These tests run against a real MongoDB and are skipped when MONGODB_URI is
// not set. Each test gets a throwaway database that is dropped afterwards.

func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping Mongo integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	name := "stores_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	db := client.Database(name)
	require.NoError(t, database.EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})
	return db
}

func registerTestUser(t *testing.T, users *services.UserService, email string) *models.User {
	t.Helper()
	user, err := users.Register(context.Background(), &dto.RegisterRequest{
		Name:            "Test User",
		Email:           email,
		Password:        "correct-horse",
		PasswordConfirm: "correct-horse",
	})
	require.NoError(t, err)
	return user
}

func saveRequest(name string, tags ...string) *dto.SaveStoreRequest {
	lng, lat := -79.38, 43.65
	return &dto.SaveStoreRequest{
		Name:    name,
		Tags:    tags,
		Address: "123 Main St",
		Lng:     &lng,
		Lat:     &lat,
	}
}

func TestCreateDerivesDisambiguatedSlugs(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "slugs@example.com")
	ctx := context.Background()

	first, err := stores.Create(ctx, author.ID, saveRequest("Cafe Bar"))
	require.NoError(t, err)
	assert.Equal(t, "cafe-bar", first.Slug)

	second, err := stores.Create(ctx, author.ID, saveRequest("Cafe Bar"))
	require.NoError(t, err)
	assert.Equal(t, "cafe-bar-2", second.Slug)

	third, err := stores.Create(ctx, author.ID, saveRequest("Cafe Bar"))
	require.NoError(t, err)
	assert.Equal(t, "cafe-bar-3", third.Slug)
}

func TestRenameReDerivesSlug(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "rename@example.com")
	ctx := context.Background()

	_, err := stores.Create(ctx, author.ID, saveRequest("Cafe Bar"))
	require.NoError(t, err)
	teaHouse, err := stores.Create(ctx, author.ID, saveRequest("Tea House"))
	require.NoError(t, err)
	assert.Equal(t, "tea-house", teaHouse.Slug)

	// renaming onto a taken name disambiguates, never errors
	renamed, err := stores.Update(ctx, teaHouse.ID, author.ID, saveRequest("Cafe Bar"))
	require.NoError(t, err)
	assert.Equal(t, "cafe-bar-2", renamed.Slug)
	assert.Equal(t, "Cafe Bar", renamed.Name)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	users := services.NewUserService(db)
	owner := registerTestUser(t, users, "owner@example.com")
	stranger := registerTestUser(t, users, "stranger@example.com")
	ctx := context.Background()

	store, err := stores.Create(ctx, owner.ID, saveRequest("Cafe Bar"))
	require.NoError(t, err)

	_, err = stores.Update(ctx, store.ID, stranger.ID, saveRequest("Hijacked"))
	assert.True(t, services.IsAuthorization(err))

	// nothing was mutated
	unchanged, err := stores.ByID(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cafe Bar", unchanged.Name)
	assert.Equal(t, "cafe-bar", unchanged.Slug)
}

func TestListTagsCountsEveryOccurrence(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "tags@example.com")
	ctx := context.Background()

	_, err := stores.Create(ctx, author.ID, saveRequest("A", "wifi", "family"))
	require.NoError(t, err)
	_, err = stores.Create(ctx, author.ID, saveRequest("B", "wifi"))
	require.NoError(t, err)
	_, err = stores.Create(ctx, author.ID, saveRequest("C", "wifi", "vegan"))
	require.NoError(t, err)

	tags, err := stores.ListTags(ctx)
	require.NoError(t, err)

	counts := map[string]int{}
	total := 0
	for _, tc := range tags {
		counts[tc.Tag] = tc.Count
		total += tc.Count
	}
	assert.Equal(t, map[string]int{"wifi": 3, "family": 1, "vegan": 1}, counts)
	assert.Equal(t, 5, total)

	// ordered by count descending
	assert.Equal(t, "wifi", tags[0].Tag)
}

func TestTopStoresExcludesUnderReviewed(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	reviews := services.NewReviewService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "top@example.com")
	ctx := context.Background()

	addReview := func(storeID primitive.ObjectID, rating int) {
		t.Helper()
		_, err := reviews.Add(ctx, storeID, author.ID, &dto.AddReviewRequest{Text: "review", Rating: rating})
		require.NoError(t, err)
	}

	great, err := stores.Create(ctx, author.ID, saveRequest("Great Place"))
	require.NoError(t, err)
	addReview(great.ID, 5)
	addReview(great.ID, 5)

	decent, err := stores.Create(ctx, author.ID, saveRequest("Decent Place"))
	require.NoError(t, err)
	addReview(decent.ID, 3)
	addReview(decent.ID, 4)
	addReview(decent.ID, 5)

	// one perfect review is still not enough
	oneHit, err := stores.Create(ctx, author.ID, saveRequest("One Hit Wonder"))
	require.NoError(t, err)
	addReview(oneHit.ID, 5)

	_, err = stores.Create(ctx, author.ID, saveRequest("No Reviews Yet"))
	require.NoError(t, err)

	top, err := stores.TopStores(ctx)
	require.NoError(t, err)

	require.Len(t, top, 2)
	assert.Equal(t, "great-place", top[0].Slug)
	assert.InDelta(t, 5.0, top[0].AverageRating, 1e-9)
	assert.Equal(t, "decent-place", top[1].Slug)
	assert.InDelta(t, 4.0, top[1].AverageRating, 1e-9)
	for _, ts := range top {
		assert.GreaterOrEqual(t, len(ts.Reviews), 2)
	}
}

func TestListStoresPagination(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "pages@example.com")
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := stores.Create(ctx, author.ID, saveRequest(fmt.Sprintf("Store %d", i)))
		require.NoError(t, err)
	}

	page1, pagination, err := stores.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page1, 4)
	assert.Equal(t, int64(3), pagination.Pages)
	assert.Equal(t, int64(10), pagination.Count)

	page3, _, err := stores.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, page3, 2)

	// beyond range: no results, last valid page still reported
	page4, pagination, err := stores.List(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, page4)
	assert.Equal(t, int64(3), pagination.Pages)
}

func TestToggleHeartIsItsOwnInverse(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "hearts@example.com")
	ctx := context.Background()

	store, err := stores.Create(ctx, author.ID, saveRequest("Cafe Bar"))
	require.NoError(t, err)

	hearted, err := users.ToggleHeart(ctx, author.ID, store.ID)
	require.NoError(t, err)
	assert.True(t, hearted.HasHearted(store.ID))

	listed, err := stores.Hearted(ctx, hearted.Hearts)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, store.ID, listed[0].ID)

	unhearted, err := users.ToggleHeart(ctx, author.ID, store.ID)
	require.NoError(t, err)
	assert.False(t, unhearted.HasHearted(store.ID))
	assert.Empty(t, unhearted.Hearts)
}

func TestBySlugReviewJoinIsOptIn(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	reviews := services.NewReviewService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "join@example.com")
	ctx := context.Background()

	store, err := stores.Create(ctx, author.ID, saveRequest("Cafe Bar"))
	require.NoError(t, err)
	_, err = reviews.Add(ctx, store.ID, author.ID, &dto.AddReviewRequest{Text: "lovely", Rating: 4})
	require.NoError(t, err)

	bare, err := stores.BySlug(ctx, "cafe-bar", false)
	require.NoError(t, err)
	assert.Empty(t, bare.Reviews)

	joined, err := stores.BySlug(ctx, "cafe-bar", true)
	require.NoError(t, err)
	require.Len(t, joined.Reviews, 1)
	assert.Equal(t, "lovely", joined.Reviews[0].Text)

	_, err = stores.BySlug(ctx, "no-such-slug", false)
	assert.True(t, services.IsNotFound(err))
}

func TestReviewReferentialValidity(t *testing.T) {
	db := setupTestDB(t)
	reviews := services.NewReviewService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "refs@example.com")
	ctx := context.Background()

	_, err := reviews.Add(ctx, primitive.NewObjectID(), author.ID, &dto.AddReviewRequest{Text: "ghost", Rating: 3})
	assert.True(t, services.IsNotFound(err))
}

func TestSearchText(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "search@example.com")
	ctx := context.Background()

	_, err := stores.Create(ctx, author.ID, saveRequest("Coffee Corner"))
	require.NoError(t, err)
	_, err = stores.Create(ctx, author.ID, saveRequest("Tea House"))
	require.NoError(t, err)

	found, err := stores.SearchText(ctx, "coffee")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "coffee-corner", found[0].Slug)
}

func TestSearchNearOrdersByDistance(t *testing.T) {
	db := setupTestDB(t)
	stores := services.NewStoreService(db)
	users := services.NewUserService(db)
	author := registerTestUser(t, users, "near@example.com")
	ctx := context.Background()

	near := saveRequest("Near Store")
	*near.Lng, *near.Lat = -79.38, 43.65
	far := saveRequest("Far Store")
	*far.Lng, *far.Lat = -79.50, 43.80

	_, err := stores.Create(ctx, author.ID, near)
	require.NoError(t, err)
	_, err = stores.Create(ctx, author.ID, far)
	require.NoError(t, err)

	results, err := stores.SearchNear(ctx, -79.38, 43.65)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near-store", results[0].Slug)
	assert.Less(t, results[0].DistanceMeters, results[1].DistanceMeters)
}
