package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"stores-api/internal/dto"
	"stores-api/internal/middleware"
	"stores-api/internal/services"
	"stores-api/internal/utils"
)

type StoreHandler struct {
	stores    *services.StoreService
	users     *services.UserService
	cache     *services.AggregationCache
	uploadDir string
}

func NewStoreHandler(stores *services.StoreService, users *services.UserService, cache *services.AggregationCache, uploadDir string) *StoreHandler {
	return &StoreHandler{stores: stores, users: users, cache: cache, uploadDir: uploadDir}
}

func storeIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, 400, "Invalid store id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// POST /api/v1/stores
func (h *StoreHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, 401, "Not logged in")
		return
	}

	var req dto.SaveStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, 400, "Invalid input: "+err.Error())
		return
	}

	store, err := h.stores.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, store)
}

// PUT /api/v1/stores/:id
func (h *StoreHandler) Update(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, 401, "Not logged in")
		return
	}
	id, ok := storeIDParam(c)
	if !ok {
		return
	}

	var req dto.SaveStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, 400, "Invalid input: "+err.Error())
		return
	}

	store, err := h.stores.Update(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, store)
}

// GET /api/v1/stores?page=N
func (h *StoreHandler) List(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	page, err := strconv.ParseInt(pageStr, 10, 64)
	if err != nil || page <= 0 {
		utils.ErrorResponse(c, 400, "Invalid page number")
		return
	}

	stores, pagination, err := h.stores.List(c.Request.Context(), page)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// The requested page is past the end: send the caller to the last
	// valid page instead of an empty one.
	if len(stores) == 0 && page > 1 && pagination.Pages > 0 {
		c.Redirect(http.StatusFound, fmt.Sprintf("/api/v1/stores?page=%d", pagination.Pages))
		return
	}

	utils.SuccessResponse(c, dto.StoreListResponse{Stores: stores, Pagination: pagination})
}

// GET /api/v1/stores/:slug?reviews=true
func (h *StoreHandler) BySlug(c *gin.Context) {
	includeReviews := c.Query("reviews") == "true"

	store, err := h.stores.BySlug(c.Request.Context(), c.Param("slug"), includeReviews)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, store)
}

// GET /api/v1/stores/top
func (h *StoreHandler) Top(c *gin.Context) {
	top, err := h.cache.TopStores(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, top)
}

// GET /api/v1/tags and /api/v1/tags/:tag
func (h *StoreHandler) ByTag(c *gin.Context) {
	tag := c.Param("tag")

	tags, err := h.cache.Tags(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	stores, err := h.stores.ByTag(c.Request.Context(), tag)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, dto.TagListResponse{Tags: tags, Tag: tag, Stores: stores})
}

// GET /api/v1/stores/search?q=...
func (h *StoreHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.ErrorResponse(c, 400, "Search query parameter 'q' is missing")
		return
	}

	stores, err := h.stores.SearchText(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, stores)
}

// GET /api/v1/stores/near?lng=...&lat=...
func (h *StoreHandler) Near(c *gin.Context) {
	lngStr := c.Query("lng")
	latStr := c.Query("lat")
	if lngStr == "" || latStr == "" {
		utils.ErrorResponse(c, 400, "Longitude or latitude parameter is missing")
		return
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		utils.ErrorResponse(c, 400, "Invalid longitude value")
		return
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		utils.ErrorResponse(c, 400, "Invalid latitude value")
		return
	}

	stores, err := h.stores.SearchNear(c.Request.Context(), lng, lat)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, stores)
}

// POST /api/v1/stores/:id/heart
func (h *StoreHandler) Heart(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, 401, "Not logged in")
		return
	}
	id, ok := storeIDParam(c)
	if !ok {
		return
	}

	user, err := h.users.ToggleHeart(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// GET /api/v1/stores/hearted
func (h *StoreHandler) Hearted(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, 401, "Not logged in")
		return
	}

	user, err := h.users.ByID(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	stores, err := h.stores.Hearted(c.Request.Context(), user.Hearts)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, stores)
}

// POST /api/v1/stores/:id/photo
func (h *StoreHandler) UploadPhoto(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, 401, "Not logged in")
		return
	}
	id, ok := storeIDParam(c)
	if !ok {
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		utils.ErrorResponse(c, 400, "Photo file is missing")
		return
	}

	mimetype := file.Header.Get("Content-Type")
	if !strings.HasPrefix(mimetype, "image/") {
		utils.ErrorResponse(c, 400, "That filetype isn't allowed")
		return
	}
	extension := strings.TrimPrefix(mimetype, "image/")
	filename := fmt.Sprintf("%s.%s", uuid.New().String(), extension)

	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, filename)); err != nil {
		utils.ErrorResponse(c, 500, "Failed to store photo: "+err.Error())
		return
	}

	store, err := h.stores.SetPhoto(c.Request.Context(), id, userID, filename)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, store)
}
