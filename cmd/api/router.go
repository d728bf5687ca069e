package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailsub-backend/internal/scan"
	scanDelivery "mailsub-backend/internal/scan/delivery"
	subDelivery "mailsub-backend/internal/subscription/delivery"
	subrepo "mailsub-backend/internal/subscription/repository"
	"mailsub-backend/internal/subscription/usecase"
	userDelivery "mailsub-backend/internal/user/delivery"
	userrepo "mailsub-backend/internal/user/repository"
)

func SetupRoutes(
	r *gin.Engine,
	users userrepo.UserRepository,
	syncLogs subrepo.SyncLogRepository,
	engine *scan.Engine,
	subscriptions *usecase.SubscriptionUsecase,
	unsubscribes *usecase.UnsubscribeUsecase,
) {
	subscriptionHandler := subDelivery.NewSubscriptionHandler(subscriptions, unsubscribes)
	syncHandler := scanDelivery.NewSyncHandler(engine, syncLogs)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Subscription routes (identity required)
		subs := api.Group("/subscriptions")
		subs.Use(userDelivery.IdentityMiddleware(users))
		{
			subs.GET("/dashboard", subscriptionHandler.GetDashboard)
			subs.GET("/categories", subscriptionHandler.GetCategories)
			subs.GET("/category/:category", subscriptionHandler.GetByCategory)
			subs.PATCH("/:id/category", subscriptionHandler.CorrectCategory)
			subs.POST("/:id/unsubscribe", subscriptionHandler.Unsubscribe)
			subs.POST("/:id/unsubscribe/confirm", subscriptionHandler.ConfirmUnsubscribe)
		}

		// Sync routes (identity required)
		sync := api.Group("/sync")
		sync.Use(userDelivery.IdentityMiddleware(users))
		{
			sync.POST("/:account", syncHandler.TriggerSync)
			sync.GET("/logs", syncHandler.GetSyncLogs)
		}
	}
}
