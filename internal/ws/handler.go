package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/tablesim/internal/display"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Client is one connected viewer of a table
type Client struct {
	conn      *websocket.Conn
	viewerID  string
	tableID   string
	transform *display.Transform // viewer's screen mapping, nil until a screen size is known
	send      chan []byte
	mu        sync.Mutex
}

// Hub maintains the set of active viewers
type Hub struct {
	clients    map[string]*Client            // viewerID -> Client
	tableRooms map[string]map[string]*Client // tableID -> viewerID -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		tableRooms: make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// add puts a client in its room
func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.viewerID] = c
	if _, exists := h.tableRooms[c.tableID]; !exists {
		h.tableRooms[c.tableID] = make(map[string]*Client)
	}
	h.tableRooms[c.tableID][c.viewerID] = c
}

// remove drops a client and closes its send channel. Returns false if it was not registered.
func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	cur, ok := h.clients[c.viewerID]
	if !ok || cur != c {
		return false
	}
	delete(h.clients, c.viewerID)
	if room, exists := h.tableRooms[c.tableID]; exists {
		delete(room, c.viewerID)
		if len(room) == 0 {
			delete(h.tableRooms, c.tableID)
		}
	}
	close(c.send)
	return true
}

// BroadcastToTable sends a message to every viewer of a table
func (h *Hub) BroadcastToTable(tableID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	h.broadcastRaw(tableID, data)
}

func (h *Hub) broadcastRaw(tableID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.tableRooms[tableID] {
		select {
		case client.send <- data:
		default:
			// Client's buffer is full
			log.Printf("[WS] Send buffer full for viewer %s on table %s, dropping message", client.viewerID, tableID)
		}
	}
}

// SendToViewer sends a message to a specific viewer
func (h *Hub) SendToViewer(viewerID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[viewerID]; exists {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] SendToViewer dropped message for viewer %s (buffer full)", viewerID)
		}
	}
}

// RoomSize returns the number of viewers watching a table
func (h *Hub) RoomSize(tableID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tableRooms[tableID])
}

// CloseTable disconnects every viewer of a table
func (h *Hub) CloseTable(tableID string) {
	h.mu.RLock()
	var conns []*websocket.Conn
	for _, c := range h.tableRooms[tableID] {
		if c.conn != nil {
			conns = append(conns, c.conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "table closed"), time.Now().Add(time.Second))
		conn.Close()
	}
}

// Message envelope
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for viewer %s: %v", c.viewerID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for viewer %s: %v", c.viewerID, err)
				return
			}
		}
	}
}

// sendJSON queues a message for this client only
func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Dropped message for viewer %s (buffer full)", c.viewerID)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
