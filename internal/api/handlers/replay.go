package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/tablesim/internal/game"
)

// RunReplay simulates a list of shots offline and returns every per-shot result.
// A truncated run is still 200; clients read "completed".
func RunReplay() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req game.ReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid replay request"})
			return
		}
		if len(req.Shots) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one shot required"})
			return
		}

		out, err := game.Manager.Replay(req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"completed":  out.Completed,
			"iterations": out.Iterations(),
			"shots":      out.Shots,
			"final":      out.Final,
		})
	}
}
