package main

import (
	"flag"
	"fmt"

	"notihub/internal/realtime"
	"notihub/internal/repo/persistent"
	"notihub/internal/usecase"
	"notihub/pkg/cache"
	"notihub/pkg/config"
	"notihub/pkg/database"
	"notihub/pkg/logger"
	"notihub/pkg/models"

	"github.com/google/uuid"
)

func main() {
	var userID string
	flag.StringVar(&userID, "user", "", "user ID to seed notifications for (random if empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
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

	if userID == "" {
		userID = uuid.New().String()
	}

	repo := persistent.NewNotificationRepository(db)
	publisher := realtime.NewRedisPublisher(redisClient, log)
	uc := usecase.NewNotificationUseCase(repo, publisher, log)

	seeds := []struct {
		title     string
		message   string
		tipo      models.NotificationTipo
		dados     map[string]string
		actionURL string
	}{
		{"Welcome aboard", "Your workspace is ready to use", models.TipoSuccess, nil, ""},
		{"Invoice overdue", "Invoice #1042 is 5 days past due", models.TipoWarning, map[string]string{"invoice_id": "1042"}, "/billing/invoices/1042"},
		{"Vehicle service due", "Truck ABC-1234 is due for maintenance", models.TipoInfo, map[string]string{"vehicle_id": "v-17"}, "/fleet/vehicles/v-17"},
		{"Payment failed", "Card ending 4242 was declined", models.TipoError, map[string]string{"gateway": "stripe"}, "/billing/payment-methods"},
		{"Subscription renewed", "Your plan renewed for another month", models.TipoSuccess, nil, "/billing"},
	}

	for _, s := range seeds {
		if _, err := uc.Create(userID, "", s.title, s.message, s.tipo, s.dados, s.actionURL); err != nil {
			log.Error("Failed to seed notification %q: %v", s.title, err)
			panic(err)
		}
	}

	log.Info("Seeded %d notifications for user %s", len(seeds), userID)
}
