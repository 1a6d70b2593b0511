package main

import (
	"notihub/internal/app"
	"notihub/pkg/cache"
	"notihub/pkg/config"
	"notihub/pkg/database"
	"notihub/pkg/logger"
	"notihub/pkg/queue"

	"github.com/gin-gonic/gin"
)

// @title        Notification Hub API
// @version      1.0
// @description  Real-time notification hub with websocket push and read-state lifecycle
// @BasePath     /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		// The hub is still useful without the queue; direct sends and
		// websocket push keep working.
		log.Warn("Failed to connect to RabbitMQ, queue ingestion disabled: %v", err)
		queueClient = nil
	}

	app.Run(cfg, log, db, redisClient, queueClient)
}
