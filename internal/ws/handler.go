package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/alexandredresch/chatuol/internal/participant"
	"nhooyr.io/websocket"
)

// Handler upgrades feed requests and keeps each subscriber registered in the
// hub for the lifetime of its connection.
type Handler struct {
	hub          *Hub
	participants participant.Store
}

// NewHandler creates a feed handler for registered participants.
func NewHandler(hub *Hub, participants participant.Store) *Handler {
	return &Handler{
		hub:          hub,
		participants: participants,
	}
}

// ServeHTTP upgrades the connection and subscribes the caller to the feed.
// Identity comes from the user query parameter; browsers cannot set custom
// headers on a WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("user"))
	if name == "" {
		http.Error(w, "user is required", http.StatusUnprocessableEntity)
		return
	}

	if _, err := h.participants.Get(r.Context(), name); err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			http.Error(w, "user is not registered", http.StatusUnprocessableEntity)
			return
		}
		log.Printf("ws: participant lookup for %s: %v", name, err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow all origins in dev; tighten in production.
	})
	if err != nil {
		log.Printf("ws: accept error: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	client := &Client{
		conn: conn,
		name: name,
	}

	connCtx := h.hub.addClient(client)
	defer h.hub.removeClient(client)

	h.readLoop(r.Context(), connCtx, client)
}

// readLoop drains inbound frames until the connection closes or the
// connection manager cancels connCtx. The feed is one-way; client frames
// are read only to detect disconnects.
func (h *Handler) readLoop(ctx context.Context, connCtx context.Context, client *Client) {
	for {
		select {
		case <-connCtx.Done():
			return
		default:
		}

		if _, _, err := client.conn.Read(ctx); err != nil {
			return
		}
	}
}
