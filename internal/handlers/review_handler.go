package handlers

import (
	"github.com/gin-gonic/gin"

	"stores-api/internal/dto"
	"stores-api/internal/middleware"
	"stores-api/internal/services"
	"stores-api/internal/utils"
)

type ReviewHandler struct {
	reviews *services.ReviewService
	stores  *services.StoreService
}

func NewReviewHandler(reviews *services.ReviewService, stores *services.StoreService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, stores: stores}
}

// POST /api/v1/stores/:id/reviews
func (h *ReviewHandler) Add(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, 401, "Not logged in")
		return
	}
	storeID, ok := storeIDParam(c)
	if !ok {
		return
	}

	var req dto.AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, 400, "Invalid input: "+err.Error())
		return
	}

	review, err := h.reviews.Add(c.Request.Context(), storeID, userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, review)
}

// GET /api/v1/stores/:slug/reviews
func (h *ReviewHandler) ListForStore(c *gin.Context) {
	store, err := h.stores.BySlug(c.Request.Context(), c.Param("slug"), false)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	reviews, err := h.reviews.ListForStore(c.Request.Context(), store.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, reviews)
}
