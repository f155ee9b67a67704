package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/foodgram-backend/internal/middleware"
	ws "github.com/ikkim/foodgram-backend/internal/websocket"
)

type FeedController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewFeedController(hub *ws.Hub, allowedOrigins []string) *FeedController {
	return &FeedController{
		hub:      hub,
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// Connect upgrades to a websocket delivering new recipes of followed authors
// GET /api/ws?token=<access token>
func (ctrl *FeedController) Connect(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		middleware.GetLoggerFromContext(c).Warn("WebSocket upgrade failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	ctrl.hub.ServeClient(conn, userID)
}
