package routes

import (
	"stores-api/internal/handlers"
	"stores-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, stores *handlers.StoreHandler, reviews *handlers.ReviewHandler, users *handlers.UserHandler) {
	// Apply global middleware
	r.Use(middleware.Logger())

	// API v1 group
	v1 := r.Group("/api/v1")

	authRouterV1 := v1.Group("/auth")
	{
		authRouterV1.POST("/register", users.Register)
		authRouterV1.POST("/login", users.Login)
		authRouterV1.POST("/forgot", users.ForgotPassword)
		authRouterV1.POST("/reset/:token", users.ResetPassword)
	}

	accountRouterV1 := v1.Group("/account", middleware.RequireAuth())
	{
		accountRouterV1.GET("", users.Account)
		accountRouterV1.PUT("", users.UpdateAccount)
	}

	storeRouterV1 := v1.Group("/stores")
	{
		storeRouterV1.GET("", stores.List)
		storeRouterV1.GET("/top", stores.Top)
		storeRouterV1.GET("/search", stores.Search)
		storeRouterV1.GET("/near", stores.Near)
		storeRouterV1.GET("/hearted", middleware.RequireAuth(), stores.Hearted)
		storeRouterV1.GET("/:slug", stores.BySlug)
		storeRouterV1.GET("/:slug/reviews", reviews.ListForStore)

		storeRouterV1.POST("", middleware.RequireAuth(), stores.Create)
		storeRouterV1.PUT("/:id", middleware.RequireAuth(), stores.Update)
		storeRouterV1.POST("/:id/photo", middleware.RequireAuth(), stores.UploadPhoto)
		storeRouterV1.POST("/:id/heart", middleware.RequireAuth(), stores.Heart)
		storeRouterV1.POST("/:id/reviews", middleware.RequireAuth(), reviews.Add)
	}

	tagRouterV1 := v1.Group("/tags")
	{
		tagRouterV1.GET("", stores.ByTag)
		tagRouterV1.GET("/:tag", stores.ByTag)
	}

	// Health check
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
}
