package routes

import (
	"healthmate/internal/middleware"
	"healthmate/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// SetupWebSocketRoutes sets up the realtime connection endpoint
func SetupWebSocketRoutes(r *gin.RouterGroup, wsHandler *websocket.Handler, jwtSecret string) {
	r.GET("/ws", middleware.AuthRequired(jwtSecret), wsHandler.HandleWebSocket)
}
