// Package live streams overlay frames to browsers over websockets and
// applies the edits they send back to the scene.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeebo/blake3"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// Frame is a message sent to clients.
type Frame struct {
	Type    string `json:"type"` // "frame" or "error"
	Regions string `json:"regions,omitempty"`
	Overlay string `json:"overlay,omitempty"`
	Error   string `json:"error,omitempty"`
}

// message is an encoded frame and its publish sequence number.
type message struct {
	seq  uint64
	data []byte
}

// reply is a frame for a single client.
type reply struct {
	to   *client
	data []byte
}

// client is one websocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// seen is the sequence of the last frame queued; owned by Hub.Run.
	seen uint64
}

// Hub keeps the connected clients and the last broadcast frame.
type Hub struct {
	logger     *slog.Logger
	handle     func(msg []byte) error
	clients    map[*client]bool
	broadcast  chan message
	register   chan *client
	unregister chan *client
	replies    chan reply
	done       chan struct{}

	mu     sync.RWMutex
	seq    uint64
	last   []byte
	digest [32]byte
}

// NewHub returns a hub. handle is called with every client message; an
// error is reported back to that client only.
func NewHub(logger *slog.Logger, handle func(msg []byte) error) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		handle:     handle,
		clients:    make(map[*client]bool),
		broadcast:  make(chan message, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		replies:    make(chan reply),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.mu.RLock()
			last, seq := h.last, h.seq
			h.mu.RUnlock()
			if last != nil {
				c.send <- last
				c.seen = seq
			}
			h.logger.Debug("client connected", "clients", len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.Debug("client disconnected", "clients", len(h.clients))

		case r := <-h.replies:
			if h.clients[r.to] {
				select {
				case r.to.send <- r.data:
				default:
				}
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				if msg.seq <= c.seen {
					continue
				}
				select {
				case c.send <- msg.data:
					c.seen = msg.seq
				default:
					h.logger.Warn("client too slow, disconnecting")
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Publish broadcasts f unless it is identical to the previous frame. It
// reports whether the frame was sent.
func (h *Hub) Publish(f Frame) bool {
	data, err := json.Marshal(f)
	if err != nil {
		h.logger.Error("failed to marshal frame", "error", err)
		return false
	}
	sum := blake3.Sum256(data)

	h.mu.Lock()
	if h.last != nil && sum == h.digest {
		h.mu.Unlock()
		return false
	}
	h.seq++
	msg := message{seq: h.seq, data: data}
	h.last, h.digest = data, sum
	h.mu.Unlock()

	select {
	case h.broadcast <- msg:
		return true
	default:
		h.logger.Warn("broadcast channel full, dropping frame")
		return false
	}
}

func (h *Hub) serve(conn *websocket.Conn) {
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

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
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket unexpected close", "error", err)
			}
			return
		}
		if c.hub.handle == nil {
			continue
		}
		if err := c.hub.handle(msg); err != nil {
			c.hub.logger.Info("client command rejected", "error", err)
			c.reply(Frame{Type: "error", Error: err.Error()})
		}
	}
}

// reply queues a frame for this client only.
func (c *client) reply(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case c.hub.replies <- reply{to: c, data: data}:
	case <-c.hub.done:
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
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
