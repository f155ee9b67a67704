package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/ikkim/foodgram-backend/internal/middleware"
)

type SubscriptionController struct {
	subscriptionService service.SubscriptionService
	pagination          config.PaginationConfig
}

func NewSubscriptionController(subscriptionService service.SubscriptionService, pagination config.PaginationConfig) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
		pagination:          pagination,
	}
}

// Subscribe POST /api/users/:id/subscribe
func (ctrl *SubscriptionController) Subscribe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	recipesLimit, ok := parseRecipesLimit(c)
	if !ok {
		return
	}

	author, err := ctrl.subscriptionService.Subscribe(userID, authorID, recipesLimit)
	if err != nil {
		respondError(c, err, "subscribe")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Subscribed to author", map[string]interface{}{
		"user_id":   userID,
		"author_id": authorID,
	})
	c.JSON(http.StatusCreated, author)
}

// Unsubscribe DELETE /api/users/:id/subscribe
func (ctrl *SubscriptionController) Unsubscribe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.subscriptionService.Unsubscribe(userID, authorID); err != nil {
		respondError(c, err, "unsubscribe")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSubscriptions GET /api/users/subscriptions
func (ctrl *SubscriptionController) ListSubscriptions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := parsePagination(c, ctrl.pagination)
	if !ok {
		return
	}
	recipesLimit, ok := parseRecipesLimit(c)
	if !ok {
		return
	}

	authors, err := ctrl.subscriptionService.ListSubscriptions(userID, page, recipesLimit)
	if err != nil {
		respondError(c, err, "list subscriptions")
		return
	}
	c.JSON(http.StatusOK, authors)
}
