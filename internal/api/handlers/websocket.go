package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/tablesim/internal/ws"
)

// HandleTableWebSocket streams live frames for a table
func HandleTableWebSocket() gin.HandlerFunc {
	return ws.HandleWebSocket
}
