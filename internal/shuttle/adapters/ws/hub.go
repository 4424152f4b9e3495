// Package ws broadcasts ride lifecycle events to connected ops clients.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/pkg/logger"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub manages the ops feed connections and fans ride events out to all
// of them. It implements the service EventPublisher port.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client // remote addr -> client
	log     logger.Logger
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes on the connection
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		log:     log,
	}
}

// HandleFeed upgrades an ops request to a websocket and registers it for
// broadcasts. The feed is one-way; inbound frames are drained only to
// detect the close.
func (h *Hub) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("feed_upgrade_failed", err)
		return
	}

	addr := conn.RemoteAddr().String()
	h.add(addr, conn)

	go func() {
		defer h.remove(addr)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) add(addr string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[addr]; ok {
		existing.conn.Close()
	}
	h.clients[addr] = &client{conn: conn}

	h.log.WithFields(logger.LogFields{
		"remote": addr,
		"total":  len(h.clients),
	}).Info("feed_connected", "Ops feed client connected")
}

func (h *Hub) remove(addr string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[addr]; ok {
		c.conn.Close()
		delete(h.clients, addr)
		h.log.WithFields(logger.LogFields{
			"remote": addr,
			"total":  len(h.clients),
		}).Info("feed_disconnected", "Ops feed client removed")
	}
}

// envelope wraps an event for the wire.
type envelope struct {
	Event string      `json:"event"`
	At    time.Time   `json:"at"`
	Data  interface{} `json:"data"`
}

// Publish broadcasts one domain event to every connected client. Dead
// connections are dropped; the broadcast itself never fails.
func (h *Hub) Publish(_ context.Context, event domain.DomainEvent) error {
	env := envelope{
		Event: event.EventType(),
		At:    event.OccurredAt(),
		Data:  event,
	}

	h.mu.RLock()
	clients := make(map[string]*client, len(h.clients))
	for addr, c := range h.clients {
		clients[addr] = c
	}
	h.mu.RUnlock()

	for addr, c := range clients {
		c.mu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.conn.WriteJSON(env)
		c.mu.Unlock()

		if err != nil {
			h.log.WithFields(logger.LogFields{
				"remote": addr,
			}).Error("feed_write_failed", err)
			h.remove(addr)
		}
	}
	return nil
}

// Close drops every connection, for shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for addr, c := range h.clients {
		c.conn.Close()
		delete(h.clients, addr)
	}
}
