// Package ws delivers the live message feed over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/alexandredresch/chatuol/internal/message"
	"nhooyr.io/websocket"
)

// Client represents a connected feed subscriber.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	// name is the participant identity the subscription is filtered by.
	name string
}

// Hub fans appended messages out to subscribers, applying the same
// visibility rule as the message log.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	conns   *ConnManager
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		conns:   NewConnManager(),
	}
}

// ConnMgr returns the connection manager for this hub.
func (h *Hub) ConnMgr() *ConnManager {
	return h.conns
}

// addClient registers a subscriber and starts its write pump. The returned
// context is cancelled when the client is removed.
func (h *Hub) addClient(c *Client) context.Context {
	ctx := h.conns.Add(c)

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	return ctx
}

// removeClient unregisters a subscriber and stops its write pump. A Publish
// racing the removal may still call Send; the connection manager treats a
// removed client as a drop, never a panic.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	h.conns.Remove(c)
}

// Publish sends the message to every subscriber it is visible to.
func (h *Hub) Publish(msg *message.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: failed to marshal message: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if msg.VisibleTo(c.name) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.conns.Send(c, data)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
