package monitor

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/decoynet/honeypot-platform/pkg/logging"
)

// Event is one live session event pushed to attached monitors.
type Event struct {
	Time      string         `json:"time"`
	Event     string         `json:"event"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

const clientBuffer = 32

// Hub fans session events out to connected WebSocket monitors. Slow clients
// have events dropped rather than blocking the engagement pipeline.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub creates an empty monitor hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Broadcast pushes an event to every connected monitor.
func (h *Hub) Broadcast(event, sessionID string, data map[string]any) {
	if h == nil {
		return
	}
	evt := Event{
		Time:      time.Now().UTC().Format(time.RFC3339Nano),
		Event:     event,
		SessionID: sessionID,
		Data:      data,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- evt:
		default:
			// Slow consumer; drop the event.
		}
	}
}

// ClientCount returns the number of attached monitors.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS handles GET /ws/monitor, upgrading the connection and streaming
// events until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err.Error())
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Event, clientBuffer),
	}
	h.add(c)
	h.logger.Info("monitor attached", "remote", conn.RemoteAddr().String())

	go h.writePump(c)
	h.readPump(c)
}

// ServeHTTP implements http.Handler by delegating to ServeWS.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWS(w, r)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump drains inbound frames so pings and close frames are processed.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	for evt := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(evt); err != nil {
			_ = c.conn.Close()
			return
		}
	}
}
