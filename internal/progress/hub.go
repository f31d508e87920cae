package progress

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-sphere-raytracer/internal/logging"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

const (
	// EventTile is sent once per completed tile.
	EventTile = "tile"
	// EventComplete is sent once the whole image has been rendered.
	EventComplete = "complete"

	clientBuffer = 64
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is the JSON message broadcast to progress subscribers
type Event struct {
	Type       string `json:"type"`
	Scene      string `json:"scene,omitempty"`
	Tile       int    `json:"tile"`
	TotalTiles int    `json:"totalTiles"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

// TileEvent builds the event announcing a finished tile
func TileEvent(scene string, result renderer.TileCompletionResult) Event {
	return Event{
		Type:       EventTile,
		Scene:      scene,
		Tile:       result.TileNumber,
		TotalTiles: result.TotalTiles,
		ElapsedMs:  result.Elapsed.Milliseconds(),
	}
}

// CompleteEvent builds the event announcing a finished render
func CompleteEvent(scene string, totalTiles int, elapsed time.Duration) Event {
	return Event{
		Type:       EventComplete,
		Scene:      scene,
		Tile:       totalTiles,
		TotalTiles: totalTiles,
		ElapsedMs:  elapsed.Milliseconds(),
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans progress events out to every connected websocket client.
// Slow clients whose buffer fills up are disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *logging.Logger
}

// NewHub creates an empty hub. A nil logger discards output.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends the event to every subscriber without blocking
func (h *Hub) Broadcast(event Event) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping slow progress client", logging.String("remote", c.conn.RemoteAddr().String()))
			h.removeLocked(c)
		}
	}
	return nil
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// ServeWS upgrades the request and streams events to the new subscriber
// until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("progress client connected", logging.String("remote", r.RemoteAddr))

	// Subscribers never send anything meaningful; reading only detects disconnects.
	go func() {
		defer func() {
			h.remove(c)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer func() {
			ticker.Stop()
			conn.Close()
		}()
		for {
			select {
			case msg, ok := <-c.send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
}
