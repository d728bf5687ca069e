package main

import (
	"log"

	"github.com/gin-gonic/gin"

	api "mailsub-backend/cmd/api"
	"mailsub-backend/internal/scan"
	"mailsub-backend/internal/scheduler"
	subdomain "mailsub-backend/internal/subscription/domain"
	subRepo "mailsub-backend/internal/subscription/repository"
	subUsecase "mailsub-backend/internal/subscription/usecase"
	userdomain "mailsub-backend/internal/user/domain"
	userRepo "mailsub-backend/internal/user/repository"
	userUsecase "mailsub-backend/internal/user/usecase"
	"mailsub-backend/pkg/classifier"
	"mailsub-backend/pkg/config"
	"mailsub-backend/pkg/database"
	"mailsub-backend/pkg/gmail"
	"mailsub-backend/pkg/outlook"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&userdomain.User{},
		&subdomain.CommunitySender{},
		&subdomain.Subscription{},
		&subdomain.CategorizationQueueItem{},
		&subdomain.UserCorrection{},
		&subdomain.SyncLog{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	users := userRepo.NewUserRepository(db)
	subscriptions := subRepo.NewSubscriptionRepository(db)
	senders := subRepo.NewCommunitySenderRepository(db)
	queue := subRepo.NewQueueRepository(db)
	corrections := subRepo.NewCorrectionRepository(db)
	syncLogs := subRepo.NewSyncLogRepository(db)

	// Initialize mail provider services
	gmailService := gmail.NewService()
	outlookService := outlook.NewService()

	// Token refresh for both providers
	tokenService := userUsecase.NewTokenService(users, cfg)

	// Sync engine over both providers
	engine := scan.NewEngine(users, subscriptions, senders, queue, syncLogs, tokenService, map[string]scan.Provider{
		userdomain.AccountGmail:   gmailService,
		userdomain.AccountOutlook: outlookService,
	})

	// Classifier chain and queue worker
	chain := classifier.NewChain(classifier.Config{
		GroqAPIKey:          cfg.GroqAPIKey,
		GroqModel:           cfg.GroqModel,
		GeminiAPIKey:        cfg.GeminiAPIKey,
		CloudflareAPIKey:    cfg.CloudflareAPIKey,
		CloudflareAccountID: cfg.CloudflareAccountID,
		AnthropicAPIKey:     cfg.AnthropicAPIKey,
		AnthropicModel:      cfg.AnthropicModel,
	})
	worker := subUsecase.NewCategorizationWorker(queue, senders, chain)

	// Initialize use cases (dependency injection)
	subscriptionUsecase := subUsecase.NewSubscriptionUsecase(subscriptions, senders, corrections)
	unsubscribeUsecase := subUsecase.NewUnsubscribeUsecase(subscriptions, users, tokenService, map[string]subUsecase.MailSender{
		userdomain.AccountGmail:   gmailService,
		userdomain.AccountOutlook: outlookService,
	})

	// Background sync sweep and worker loop
	if cfg.SchedulerEnabled {
		sched := scheduler.New(users, engine, worker, cfg.SyncInterval, cfg.WorkerTickInterval)
		if err := sched.Start(); err != nil {
			log.Fatal("Failed to start scheduler:", err)
		}
		defer sched.Stop()
	}

	// HTTP surface
	r := gin.Default()
	api.SetupRoutes(r, users, syncLogs, engine, subscriptionUsecase, unsubscribeUsecase)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
