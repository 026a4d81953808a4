package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"stores-api/internal/database"
	"stores-api/internal/handlers"
	"stores-api/internal/routes"
	"stores-api/internal/services"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	client, db, err := database.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		cancel()
		log.Fatal(err)
	}
	cancel()

	rdb := database.NewRedis()

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "public/uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatal(err)
	}

	storeService := services.NewStoreService(db)
	reviewService := services.NewReviewService(db)
	userService := services.NewUserService(db)
	aggregationCache := services.NewAggregationCache(rdb, storeService)

	storeHandler := handlers.NewStoreHandler(storeService, userService, aggregationCache, uploadDir)
	reviewHandler := handlers.NewReviewHandler(reviewService, storeService)
	userHandler := handlers.NewUserHandler(userService)

	// Initialize and start cron scheduler
	c := cron.New()
	// Rewarm the aggregation caches every hour
	c.AddFunc("@hourly", func() {
		log.Println("Running scheduled aggregation cache warmup...")
		warmCtx, warmCancel := context.WithTimeout(context.Background(), time.Minute)
		defer warmCancel()
		if err := aggregationCache.Warm(warmCtx); err != nil {
			log.Printf("Cache warmup failed: %v", err)
		}
	})
	c.Start()

	// Create Gin router
	r := gin.Default()
	r.Use(cors.Default())
	r.Static("/uploads", uploadDir)

	// Setup all routes
	routes.SetupRoutes(r, storeHandler, reviewHandler, userHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	r.Run(":" + port)
}
