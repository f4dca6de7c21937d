package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/tablesim/internal/display"
	"github.com/playmatatu/tablesim/internal/game"
)

// Client message data types
type TakeShotData struct {
	BallID int     `json:"ball_id"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
}

type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ScreenShotData struct {
	BallID  int         `json:"ball_id"`
	ScreenW float64     `json:"screen_w"`
	ScreenH float64     `json:"screen_h"`
	From    ScreenPoint `json:"from"`
	To      ScreenPoint `json:"to"`
	Power   float64     `json:"power"`
}

type ResizeData struct {
	ScreenW float64 `json:"screen_w"`
	ScreenH float64 `json:"screen_h"`
}

// TableHub is the single hub for all tables.
var TableHub *Hub

func init() {
	TableHub = NewHub()
	go runTableHub(TableHub)
}

// BroadcastFrame fans a tick worker frame out to local viewers.
func BroadcastFrame(frame game.FrameEvent) {
	TableHub.BroadcastToTable(frame.TableID, frame)
}

// HandleWebSocket upgrades a viewer connection for /tables/:id/ws.
// Optional screen_w and screen_h query values set up the viewer's screen transform.
func HandleWebSocket(c *gin.Context) {
	tableID := c.Param("id")

	t, err := game.Manager.GetTable(tableID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:     conn,
		viewerID: uuid.NewString(),
		tableID:  t.ID,
		send:     make(chan []byte, 256),
	}
	sw, _ := strconv.ParseFloat(c.Query("screen_w"), 64)
	sh, _ := strconv.ParseFloat(c.Query("screen_h"), 64)
	if sw > 0 && sh > 0 {
		client.transform = display.NewTransform(sw, sh, t.State.Snapshot().Dimensions, screenPadding())
	}

	TableHub.register <- client

	go client.writePump()
	go client.readPump()
}

func screenPadding() float64 {
	if wsConfig != nil && wsConfig.ScreenPadding >= 0 {
		return wsConfig.ScreenPadding
	}
	return display.DefaultPadding
}

func maxShotVelocity() float64 {
	if wsConfig != nil && wsConfig.MaxShotVelocity > 0 {
		return wsConfig.MaxShotVelocity
	}
	return game.MaxShotVelocity
}

// runTableHub registers and unregisters viewers.
func runTableHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.add(client)
			log.Printf("[WS] Viewer %s joined table %s (room_size=%d)", client.viewerID, client.tableID, h.RoomSize(client.tableID))

			if t, err := game.Manager.GetTable(client.tableID); err == nil {
				client.sendState(t)
			} else {
				client.sendError("Table not found")
			}

		case client := <-h.unregister:
			if h.remove(client) {
				log.Printf("[WS] Viewer %s left table %s", client.viewerID, client.tableID)
			}
		}
	}
}

// readPump reads viewer messages.
func (c *Client) readPump() {
	defer func() {
		TableHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for viewer %s: %v", c.viewerID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming viewer messages.
func (c *Client) handleMessage(msg WSMessage) {
	t, err := game.Manager.GetTable(c.tableID)
	if err != nil {
		c.sendError("Table not found")
		return
	}

	switch msg.Type {
	case "take_shot":
		var data TakeShotData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid shot data")
			return
		}
		c.takeShot(t, game.ShotAction{BallID: data.BallID, Velocity: game.NewVec2(data.VX, data.VY)})

	case "screen_shot":
		var data ScreenShotData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid shot data")
			return
		}
		c.handleScreenShot(t, data)

	case "resize":
		var data ResizeData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.ScreenW <= 0 || data.ScreenH <= 0 {
			c.sendError("Invalid screen size")
			return
		}
		c.screenTransform(t, data.ScreenW, data.ScreenH)
		c.sendState(t)

	case "get_state":
		c.sendState(t)

	default:
		c.sendError("Unknown message type")
	}
}

// screenTransform returns the viewer's transform, creating or resizing it as needed.
func (c *Client) screenTransform(t *game.Table, w, h float64) *display.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transform == nil {
		c.transform = display.NewTransform(w, h, t.State.Snapshot().Dimensions, screenPadding())
	} else {
		c.transform.UpdateScreenSize(w, h)
	}
	return c.transform
}

// handleScreenShot maps a screen drag through the viewer's transform into a shot.
func (c *Client) handleScreenShot(t *game.Table, data ScreenShotData) {
	if data.ScreenW <= 0 || data.ScreenH <= 0 {
		c.sendError("screen_w and screen_h required")
		return
	}
	if data.Power <= 0 {
		data.Power = 1
	}
	tr := c.screenTransform(t, data.ScreenW, data.ScreenH)
	tr.UpdateTableDimensions(t.State.Snapshot().Dimensions)

	v := display.ShotFromScreenDrag(tr, data.From.X, data.From.Y, data.To.X, data.To.Y, data.Power, maxShotVelocity())
	c.takeShot(t, game.ShotAction{BallID: data.BallID, Velocity: v})
}

func (c *Client) takeShot(t *game.Table, action game.ShotAction) {
	n, err := game.Manager.TakeShot(t.ID, action)
	if err != nil {
		c.sendError(shotErrorMessage(err))
		return
	}

	cue, _ := t.State.Snapshot().Ball(action.BallID)
	TableHub.BroadcastToTable(t.ID, map[string]interface{}{
		"type":        "shot_accepted",
		"viewer":      c.viewerID,
		"shot_number": n,
		"ball_id":     action.BallID,
		"velocity":    cue.Velocity,
	})
}

func shotErrorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrShotInProgress):
		return "Balls are still moving"
	case errors.Is(err, game.ErrBallNotFound):
		return "Ball not found"
	case errors.Is(err, game.ErrBallPocketed):
		return "Ball is not on the table"
	case errors.Is(err, game.ErrZeroShot):
		return "Shot has no velocity"
	}
	return err.Error()
}

// sendState sends the full table state, with the viewer's layout when known.
func (c *Client) sendState(t *game.Table) {
	msg := map[string]interface{}{
		"type":        "table_state",
		"table_id":    t.ID,
		"state":       t.State.Snapshot(),
		"shot_number": t.Summary().ShotNumber,
	}
	c.mu.Lock()
	if c.transform != nil {
		msg["layout"] = c.transform.Layout()
	}
	c.mu.Unlock()
	c.sendJSON(msg)
}
