package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/tablesim/internal/admin"
	"github.com/playmatatu/tablesim/internal/game"
	"github.com/playmatatu/tablesim/internal/models"
	"github.com/playmatatu/tablesim/internal/ws"
)

// OperatorAuthMiddleware validates X-Operator-Name + X-Operator-Token against the operators table
func OperatorAuthMiddleware(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Admin requires a database"})
			return
		}
		username := c.GetHeader("X-Operator-Name")
		token := c.GetHeader("X-Operator-Token")
		if username == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		op, err := admin.ValidateOperator(db, username, token, c.ClientIP())
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, admin.ErrIPNotAllowed) {
				status = http.StatusForbidden
			}
			admin.LogOperatorAction(db, username, c.ClientIP(), c.FullPath(), "login", nil, false)
			c.AbortWithStatusJSON(status, gin.H{"error": "Invalid credentials"})
			return
		}

		c.Set("operator", op.Username)
		c.Next()
	}
}

// AdminListTables lists every live table
func AdminListTables(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tables := game.Manager.ListTables()
		type row struct {
			game.TableSummary
			Viewers int `json:"viewers"`
		}
		out := make([]row, 0, len(tables))
		for _, t := range tables {
			out = append(out, row{TableSummary: t, Viewers: ws.TableHub.RoomSize(t.ID)})
		}
		admin.LogOperatorAction(db, c.GetString("operator"), c.ClientIP(), c.FullPath(), "list_tables", nil, true)
		c.JSON(http.StatusOK, gin.H{"tables": out, "count": len(out)})
	}
}

// AdminDeleteTable stops a table and disconnects its viewers
func AdminDeleteTable(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		operator := c.GetString("operator")
		if err := game.Manager.DeleteTable(id); err != nil {
			admin.LogOperatorAction(db, operator, c.ClientIP(), c.FullPath(), "delete_table", map[string]interface{}{"table_id": id}, false)
			respondError(c, err)
			return
		}
		ws.TableHub.CloseTable(id)
		log.Printf("[ADMIN] %s deleted table %s", operator, id)
		admin.LogOperatorAction(db, operator, c.ClientIP(), c.FullPath(), "delete_table", map[string]interface{}{"table_id": id}, true)
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

// AdminListReplays returns recent replay summaries
func AdminListReplays(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", 50, 500)
		var replays []models.ReplayRecord
		err := db.Select(&replays, `
			SELECT id, shot_count, iterations, completed, pocketed_balls, request, created_at
			FROM replays
			ORDER BY created_at DESC
			LIMIT $1
		`, limit)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch replays: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch replays"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"replays": replays})
	}
}

// AdminListShots returns the recorded shots of one table
func AdminListShots(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var shots []models.ShotRecord
		err := db.Select(&shots, `
			SELECT id, table_id, shot_number, ball_id, velocity_x, velocity_y, created_at
			FROM shots
			WHERE table_id = $1
			ORDER BY shot_number
		`, c.Param("id"))
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch shots: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shots"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"shots": shots})
	}
}

// AdminAuditLogs returns recent operator actions
func AdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", 50, 500)
		offset := queryInt(c, "offset", 0, 1_000_000)
		logs, err := admin.GetAuditLogs(db, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	}
}
