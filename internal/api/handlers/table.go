package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/tablesim/internal/config"
	"github.com/playmatatu/tablesim/internal/display"
	"github.com/playmatatu/tablesim/internal/game"
	"github.com/playmatatu/tablesim/internal/ws"
)

// CreateTable racks a new table and returns its id with a table token
func CreateTable(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Dimensions *game.TableDimensions `json:"dimensions"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}

		dims := game.Manager.DefaultDimensions()
		if req.Dimensions != nil {
			dims = *req.Dimensions
		}

		t, err := game.Manager.CreateTable(dims)
		if err != nil {
			respondError(c, err)
			return
		}

		token, exp, err := IssueTableToken(cfg, t.ID)
		if err != nil {
			log.Printf("[TABLE] Failed to sign token for %s: %v", t.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
			return
		}

		c.Header("X-Table-ID", t.ID)
		c.JSON(http.StatusCreated, gin.H{
			"table_id":   t.ID,
			"token":      token,
			"expires_at": exp,
			"state":      t.State.Snapshot(),
		})
	}
}

// GetTable returns the current snapshot for a table
func GetTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := game.Manager.GetTable(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		summary := t.Summary()
		c.JSON(http.StatusOK, gin.H{
			"table_id":    t.ID,
			"shot_number": summary.ShotNumber,
			"ticks":       t.Driver.Ticks(),
			"state":       t.State.Snapshot(),
		})
	}
}

// TakeShot applies a velocity to one ball. Accepts either vx/vy or angle/power.
func TakeShot() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BallID int      `json:"ball_id"`
			VX     *float64 `json:"vx"`
			VY     *float64 `json:"vy"`
			Angle  *float64 `json:"angle"`
			Power  *float64 `json:"power"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shot"})
			return
		}

		var v game.Vec2
		switch {
		case req.VX != nil || req.VY != nil:
			if req.VX != nil {
				v.X = *req.VX
			}
			if req.VY != nil {
				v.Y = *req.VY
			}
		case req.Angle != nil && req.Power != nil:
			v = game.ShotFromAngle(*req.Angle, *req.Power)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "vx/vy or angle/power required"})
			return
		}

		t, err := game.Manager.GetTable(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		n, err := game.Manager.TakeShot(t.ID, game.ShotAction{BallID: req.BallID, Velocity: v})
		if err != nil {
			respondError(c, err)
			return
		}

		b, _ := t.State.Snapshot().Ball(req.BallID)
		msg := gin.H{
			"type":        "shot_accepted",
			"shot_number": n,
			"ball_id":     req.BallID,
			"velocity":    b.Velocity,
		}
		ws.TableHub.BroadcastToTable(t.ID, msg)
		c.JSON(http.StatusAccepted, msg)
	}
}

// RackTable resets a table to the standard rack
func RackTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := game.Manager.Rack(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		snap := t.State.Snapshot()
		ws.TableHub.BroadcastToTable(t.ID, gin.H{"type": "table_state", "table_id": t.ID, "state": snap})
		c.JSON(http.StatusOK, gin.H{"table_id": t.ID, "state": snap})
	}
}

// GetTransform returns the table-to-screen layout for a screen size
func GetTransform(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := game.Manager.GetTable(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		tr, ok := transformFromQuery(c, cfg, t)
		if !ok {
			return
		}
		l := tr.Layout()
		c.JSON(http.StatusOK, gin.H{
			"orientation": l.Orientation,
			"scale":       l.Scale,
			"translation": l.Translation,
			"matrix":      l.Forward.ToSlice(),
			"inverse":     l.Inverse.ToSlice(),
		})
	}
}

// HitTest maps a screen point to table space and reports what is under it
func HitTest(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ScreenW float64  `json:"screen_w" binding:"required"`
			ScreenH float64  `json:"screen_h" binding:"required"`
			Padding *float64 `json:"padding"`
			X       float64  `json:"x"`
			Y       float64  `json:"y"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.ScreenW <= 0 || req.ScreenH <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "screen_w and screen_h required"})
			return
		}

		t, err := game.Manager.GetTable(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		padding := cfg.ScreenPadding
		if req.Padding != nil {
			padding = *req.Padding
		}
		snap := t.State.Snapshot()
		tr := display.NewTransform(req.ScreenW, req.ScreenH, snap.Dimensions, padding)
		c.JSON(http.StatusOK, display.HitTestScreen(tr, snap, req.X, req.Y))
	}
}

func transformFromQuery(c *gin.Context, cfg *config.Config, t *game.Table) (*display.Transform, bool) {
	sw, err1 := queryFloat(c, "screen_w", 0)
	sh, err2 := queryFloat(c, "screen_h", 0)
	padding, err3 := queryFloat(c, "padding", cfg.ScreenPadding)
	if err1 != nil || err2 != nil || err3 != nil || sw <= 0 || sh <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "screen_w and screen_h must be positive numbers"})
		return nil, false
	}
	return display.NewTransform(sw, sh, t.State.Snapshot().Dimensions, padding), true
}
