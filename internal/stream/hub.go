// Package stream pushes market snapshots to connected widget clients over
// websocket, so the floating ticker updates without polling.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/finsymposium/marketpulse/internal/market"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	sendBufferSize = 4
)

// Hub fans snapshots out to websocket clients. It is itself a scheduler
// subscriber: wire hub.Broadcast into scheduler.Subscribe at composition.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	onCount func(int)
}

type client struct {
	conn *websocket.Conn
	send chan *market.Snapshot
}

// NewHub creates an empty hub. onCount, if non-nil, receives the client
// count after every connect/disconnect (used for the stream gauge).
func NewHub(onCount func(int)) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The widget is served from the same origin in production but
			// from a dev server locally.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		onCount: onCount,
	}
}

// ServeHTTP upgrades the request and keeps the connection until the peer
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan *market.Snapshot, sendBufferSize)}
	h.add(c)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast queues a snapshot to every connected client. A slow client's
// queue fills and drops the oldest update rather than blocking the
// scheduler; the stream is always newest-wins.
func (h *Hub) Broadcast(snapshot *market.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- snapshot:
		default:
			select {
			case <-c.send:
			default:
			}
			c.send <- snapshot
		}
	}
}

// ClientCount reports the current number of connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	if h.onCount != nil {
		h.onCount(count)
	}
	log.Info().Int("clients", count).Msg("stream client connected")
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()
	c.conn.Close()
	if h.onCount != nil {
		h.onCount(count)
	}
	log.Info().Int("clients", count).Msg("stream client disconnected")
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case snapshot, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(snapshot); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readLoop discards inbound frames; the stream is one-way. Its job is to
// notice disconnects and answer pings.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
