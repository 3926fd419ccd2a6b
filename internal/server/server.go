package server

import (
	"log"
	"net/http"

	"github.com/alexandredresch/chatuol/internal/message"
	"github.com/alexandredresch/chatuol/internal/participant"
	"github.com/alexandredresch/chatuol/internal/ratelimit"
	"github.com/alexandredresch/chatuol/internal/ws"
	"github.com/redis/go-redis/v9"
)

// Server is the HTTP API for the chat backend.
type Server struct {
	addr         string
	mux          *http.ServeMux
	participants participant.Store
	messages     message.Log
	hub          *ws.Hub
	joinLimiter  *ratelimit.Limiter
}

// Option configures a Server.
type Option func(*Server)

// WithRedis backs both stores with the given Redis client instead of the
// in-memory defaults.
func WithRedis(client redis.Cmdable) Option {
	return func(s *Server) {
		s.participants = participant.NewRedisStore(client)
		s.messages = message.NewRedisLog(client)
	}
}

// WithStores injects explicit store implementations.
func WithStores(parts participant.Store, msgs message.Log) Option {
	return func(s *Server) {
		s.participants = parts
		s.messages = msgs
	}
}

// WithHub publishes every appended message to the given live feed hub and
// mounts the feed endpoint.
func WithHub(hub *ws.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

// WithJoinLimiter throttles join requests per client IP.
func WithJoinLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) {
		s.joinLimiter = l
	}
}

// New creates a new Server listening on addr. Without options it runs
// entirely in memory.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:         addr,
		mux:          http.NewServeMux(),
		participants: participant.NewMemoryStore(),
		messages:     message.NewMemoryLog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Participants exposes the participant store, so the liveness sweeper can
// share it.
func (s *Server) Participants() participant.Store {
	return s.participants
}

// Messages exposes the message log for the same reason.
func (s *Server) Messages() message.Log {
	return s.messages
}

// Handler returns the root handler, CORS middleware included.
func (s *Server) Handler() http.Handler {
	return withCORS(s.mux)
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	return http.ListenAndServe(s.addr, s.Handler())
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /participants", s.handleJoin)
	s.mux.HandleFunc("GET /participants", s.handleListParticipants)
	s.mux.HandleFunc("POST /status", s.handleHeartbeat)
	s.mux.HandleFunc("POST /messages", s.handlePostMessage)
	s.mux.HandleFunc("GET /messages", s.handleListMessages)
	s.mux.HandleFunc("PUT /messages/{id}", s.handleEditMessage)
	s.mux.HandleFunc("DELETE /messages/{id}", s.handleDeleteMessage)
	if s.hub != nil {
		s.mux.Handle("GET /ws", ws.NewHandler(s.hub, s.participants))
	}
}

// publish forwards a stored message to the live feed, if one is attached.
func (s *Server) publish(msg *message.Message) {
	if s.hub != nil {
		s.hub.Publish(msg)
	}
}

// withCORS answers preflight requests and marks every response as
// cross-origin accessible, like the original deployment expected.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, User")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logStorageError reports a datastore failure and answers 500.
func logStorageError(w http.ResponseWriter, op string, err error) {
	log.Printf("server: %s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "storage error")
}
