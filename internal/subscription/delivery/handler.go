package delivery

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	subdomain "mailsub-backend/internal/subscription/domain"
	"mailsub-backend/internal/subscription/usecase"
)

// SubscriptionHandler handles the dashboard, category and unsubscribe
// HTTP requests.
type SubscriptionHandler struct {
	subscriptions *usecase.SubscriptionUsecase
	unsubscribes  *usecase.UnsubscribeUsecase
}

func NewSubscriptionHandler(subscriptions *usecase.SubscriptionUsecase, unsubscribes *usecase.UnsubscribeUsecase) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		unsubscribes:  unsubscribes,
	}
}

// GetDashboard returns the user's subscriptions grouped by category
// GET /api/subscriptions/dashboard
func (h *SubscriptionHandler) GetDashboard(c *gin.Context) {
	userID := c.GetString("userID")

	dashboard, err := h.subscriptions.GetDashboard(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetCategories returns the fixed category list
// GET /api/subscriptions/categories
func (h *SubscriptionHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": subdomain.Categories})
}

// GetByCategory lists the user's subscriptions in one category
// GET /api/subscriptions/category/:category
func (h *SubscriptionHandler) GetByCategory(c *gin.Context) {
	userID := c.GetString("userID")
	category := c.Param("category")

	if !subdomain.IsValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return
	}

	subs, err := h.subscriptions.GetByCategory(userID, subdomain.NormalizeCategory(category))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":      subdomain.NormalizeCategory(category),
		"subscriptions": subs,
	})
}

// CorrectCategoryRequest is the request body for a category correction
type CorrectCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// CorrectCategory overrides a subscription's category for this user
// and feeds the community consensus
// PATCH /api/subscriptions/:id/category
func (h *SubscriptionHandler) CorrectCategory(c *gin.Context) {
	userID := c.GetString("userID")
	subscriptionID := c.Param("id")

	var req CorrectCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.subscriptions.CorrectCategory(userID, subscriptionID, req.Category); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		if strings.Contains(err.Error(), "does not belong") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}
		if strings.Contains(err.Error(), "unknown category") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category updated"})
}

// Unsubscribe runs the unsubscribe flow for one subscription
// POST /api/subscriptions/:id/unsubscribe
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	userID := c.GetString("userID")
	subscriptionID := c.Param("id")

	result, err := h.unsubscribes.Unsubscribe(c.Request.Context(), userID, subscriptionID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		if strings.Contains(err.Error(), "does not belong") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}
		if strings.Contains(err.Error(), "no unsubscribe method") {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ConfirmUnsubscribe marks a pending manual unsubscribe as done
// POST /api/subscriptions/:id/unsubscribe/confirm
func (h *SubscriptionHandler) ConfirmUnsubscribe(c *gin.Context) {
	userID := c.GetString("userID")
	subscriptionID := c.Param("id")

	if err := h.unsubscribes.ConfirmManual(userID, subscriptionID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		if strings.Contains(err.Error(), "does not belong") {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribe confirmed"})
}
