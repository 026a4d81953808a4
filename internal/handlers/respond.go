package handlers

import (
	"stores-api/internal/services"
	"stores-api/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		utils.ErrorResponse(c, 400, err.Error())
	case services.IsNotFound(err):
		utils.ErrorResponse(c, 404, err.Error())
	case services.IsAuthorization(err):
		utils.ErrorResponse(c, 403, err.Error())
	case services.IsConflict(err):
		utils.ErrorResponse(c, 409, err.Error())
	default:
		utils.ErrorResponse(c, 500, err.Error())
	}
}
