package handlers

import (
	"log"

	"github.com/gin-gonic/gin"

	"stores-api/internal/dto"
	"stores-api/internal/middleware"
	"stores-api/internal/services"
	"stores-api/internal/utils"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// POST /api/v1/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, 400, "Invalid input: "+err.Error())
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// log the user straight in after registering
	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		utils.ErrorResponse(c, 500, "Failed to generate token")
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user, "token": token})
}

// POST /api/v1/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, 400, "Invalid input: "+err.Error())
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if services.IsAuthorization(err) {
			utils.ErrorResponse(c, 401, "Invalid credentials")
			return
		}
		respondServiceError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		utils.ErrorResponse(c, 500, "Failed to generate token")
		return
	}
	utils.SuccessResponse(c, dto.AuthResponse{Token: token})
}

// GET /api/v1/account
func (h *UserHandler) Account(c *gin.Context) {
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
	utils.SuccessResponse(c, user)
}

// PUT /api/v1/account
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, 401, "Not logged in")
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, 400, "Invalid input: "+err.Error())
		return
	}

	user, err := h.users.UpdateAccount(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// POST /api/v1/auth/forgot
// Email delivery lives outside this API; the reset link is logged so an
// operator (or the dev shell) can hand it over.
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, 400, "Invalid input: "+err.Error())
		return
	}

	token, err := h.users.StartPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		if services.IsNotFound(err) {
			utils.ErrorResponse(c, 404, "No account with that email exists")
			return
		}
		respondServiceError(c, err)
		return
	}

	log.Printf("Password reset requested for %s: /api/v1/auth/reset/%s", req.Email, token)
	utils.SuccessResponse(c, gin.H{"message": "You have been sent a password reset link"})
}

// POST /api/v1/auth/reset/:token
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, 400, "Invalid input: "+err.Error())
		return
	}

	user, err := h.users.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		if services.IsNotFound(err) {
			utils.ErrorResponse(c, 400, "Password reset is invalid or has expired")
			return
		}
		respondServiceError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		utils.ErrorResponse(c, 500, "Failed to generate token")
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user, "token": token})
}
