package socket

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const broadcastBuffer = 100

// Client is a subscriber connection. *websocket.Conn satisfies it.
type Client interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub fans location updates out to dispatch subscribers.
type Hub struct {
	mu        sync.Mutex
	clients   map[Client]bool
	broadcast chan interface{}
	log       logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:   make(map[Client]bool),
		broadcast: make(chan interface{}, broadcastBuffer),
		log:       log,
	}
}

// Run delivers queued messages until ctx is cancelled, then closes every
// registered client. Writes happen only on this goroutine so each
// connection has a single writer.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			for _, c := range h.snapshot() {
				if err := c.WriteJSON(msg); err != nil {
					entry := h.log.WithField("conn_ptr", fmt.Sprintf("%p", c))
					if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
						entry.Info("Client connection closed during broadcast, unregistering")
					} else {
						entry.WithError(err).Warn("Failed to send broadcast message to client")
					}
					_ = c.Close()
					h.Unregister(c)
				}
			}
		}
	}
}

func (h *Hub) Register(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	h.log.WithFields(logrus.Fields{
		"conn_ptr": fmt.Sprintf("%p", c),
		"clients":  len(h.clients),
	}).Info("Client registered with location hub")
}

func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.log.WithField("conn_ptr", fmt.Sprintf("%p", c)).Info("Client unregistered from location hub")
}

// Broadcast queues v for delivery. It never blocks; when the queue is full
// the message is dropped.
func (h *Hub) Broadcast(v interface{}) {
	select {
	case h.broadcast <- v:
	default:
		h.log.Warn("Location broadcast channel full, dropping message")
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
}
