package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	notificationHTTP "notihub/internal/controller/http"
	"notihub/internal/realtime"
	"notihub/internal/repo/persistent"
	"notihub/internal/usecase"
	"notihub/pkg/config"
	"notihub/pkg/jwt"
	"notihub/pkg/logger"
	"notihub/pkg/middleware"
	"notihub/pkg/queue"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "notihub/docs" // Swagger docs
)

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	// Initialize Repository
	notificationRepo := persistent.NewNotificationRepository(db)

	// Initialize Realtime publisher
	publisher := realtime.NewRedisPublisher(redisClient, log)

	// Initialize UseCase
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, publisher, log)

	// Initialize HTTP handlers
	notificationHandler := notificationHTTP.NewNotificationHandler(notificationUseCase, redisClient, log, jwtService, cfg.MaxPageSize)

	// Setup router
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	// Protected routes - require authentication
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.GetUnreadCount)
		protected.GET("/notifications/stats", notificationHandler.GetStats)

		mutating := protected.Group("")
		mutating.Use(middleware.RateLimitMiddleware(redisClient, 60, time.Minute))
		{
			mutating.POST("/notifications/mark-read", notificationHandler.MarkAsRead)
			mutating.POST("/notifications/mark-all-read", notificationHandler.MarkAllAsRead)
			mutating.POST("/notifications/:id/archive", notificationHandler.ArchiveNotification)
			mutating.DELETE("/notifications/:id", notificationHandler.DeleteNotification)
		}
	}
	// WebSocket endpoint - handles authentication internally via query parameter
	api.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	// Admin routes - no auth required (for internal service calls)
	{
		api.POST("/notifications/send", notificationHandler.SendNotification)
		api.POST("/notifications/broadcast", notificationHandler.BroadcastNotification)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Consume notification tasks published by sibling services
	if queueClient != nil {
		log.Info("Starting notification queue consumer...")
		err := queueClient.ConsumeNotificationTasks(func(task *queue.NotificationTask) error {
			return notificationUseCase.CreateFromTask(task)
		})
		if err != nil {
			log.Error("Error starting notification queue consumer: %v", err)
		}
	}

	// Purge notifications past their retention window once a day
	purgeDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-purgeDone:
				return
			case <-ticker.C:
				ttl := time.Duration(cfg.NotificationTTLDays) * 24 * time.Hour
				if _, err := notificationUseCase.PurgeExpired(ttl); err != nil {
					log.Error("Failed to purge expired notifications: %v", err)
				}
			}
		}
	}()

	// Start server in a goroutine
	go func() {
		log.Info("Notification hub starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down notification hub...")

	close(purgeDone)

	// The context is used to inform the server it has 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Close Redis connection
	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	// Close RabbitMQ connection
	if queueClient != nil {
		queueClient.Close()
	}

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		panic(err)
	}

	log.Info("Notification hub exited")
}
