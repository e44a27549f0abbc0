// Package notify fans judging events out to websocket clients grouped in rooms,
// one room per round. Delivery is best effort: a client that cannot keep up
// misses messages.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type EventType string

const (
	EventBracketGenerated EventType = "bracket_generated"
	EventScoreUpdated     EventType = "score_updated"
	EventMatchCompleted   EventType = "match_completed"
	EventKnockoutSeeded   EventType = "knockout_seeded"
	EventMarkSubmitted    EventType = "mark_submitted"
	EventRoundStatus      EventType = "round_status"
)

type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
	RoomID  string    `json:"room_id,omitempty"`
}

// Broadcaster is what services need from the hub.
type Broadcaster interface {
	Broadcast(room string, ev Event)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string
}

type Hub struct {
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}

	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates a hub accepting websocket connections from the given origins.
// No origins, or "*", accepts any origin.
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*client]struct{}),
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}
	return h
}

// Run handles registrations until ctx is done, then disconnects every client.
// A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[c.room]; !ok {
				h.rooms[c.room] = make(map[*client]struct{})
			}
			h.rooms[c.room][c] = struct{}{}
			size := len(h.rooms[c.room])
			h.mu.Unlock()
			h.logger.Debug("client joined room", slog.String("room", c.room), slog.Int("clients", size))

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.rooms {
				for c := range clients {
					h.remove(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove must be called with mu held. The send channel is only closed here,
// so a broadcast holding the read lock never writes to a closed channel.
func (h *Hub) remove(c *client) {
	clients, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
}

// Broadcast sends the event to every client in the room without blocking.
func (h *Hub) Broadcast(room string, ev Event) {
	ev.RoomID = room
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode event", slog.String("room", room), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client send buffer full, dropping event",
				slog.String("room", room), slog.String("type", string(ev.Type)))
		}
	}
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ServeWS upgrades the request and joins the connection to room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := h.upgrader.Upgrade(hijacker(w), r, nil)
	if err != nil {
		// The upgrader has already written the error response
		h.logger.Warn("websocket upgrade failed", slog.String("room", room), slog.Any("error", err))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), room: room}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// hijacker digs through middleware wrappers, such as the session manager's, for
// a writer that can be hijacked.
func hijacker(w http.ResponseWriter) http.ResponseWriter {
	for {
		if _, ok := w.(http.Hijacker); ok {
			return w
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return w
		}
		w = u.Unwrap()
	}
}

// readPump only exists to process pings and notice disconnects, clients have
// nothing to say.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket closed unexpectedly", slog.String("room", c.room), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
