package server

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/alexandredresch/chatuol/internal/message"
	"github.com/alexandredresch/chatuol/internal/participant"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type joinRequest struct {
	Name string `json:"name" validate:"required"`
}

type messageRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
	Type string `json:"type" validate:"required,oneof=message private_message"`
}

// sanitize strips tags and trims all user-supplied fields in place.
func (r *messageRequest) sanitize() {
	r.To = sanitize(r.To)
	r.Text = sanitize(r.Text)
	r.Type = sanitize(r.Type)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeValid decodes the body into v, sanitizes it if it knows how, and
// runs schema validation. Returns false after answering 422.
func decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	if msg, ok := v.(*messageRequest); ok {
		msg.sanitize()
	}
	if join, ok := v.(*joinRequest); ok {
		join.Name = sanitize(join.Name)
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return false
	}
	return true
}

// callerName extracts the trusted identity claim from the User header.
func callerName(r *http.Request) string {
	return sanitize(r.Header.Get("User"))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if s.joinLimiter != nil && !s.joinLimiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many join attempts")
		return
	}

	var req joinRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if err := s.participants.Register(r.Context(), req.Name); err != nil {
		if errors.Is(err, participant.ErrNameTaken) {
			writeError(w, http.StatusConflict, "name already taken")
			return
		}
		logStorageError(w, "join", err)
		return
	}

	// The joined status message is a separate write; if it fails the
	// participant still exists, which is the accepted partial outcome.
	msg := message.New(req.Name, message.Broadcast, message.JoinedText, message.TypeStatus)
	stored, err := s.messages.Append(r.Context(), msg)
	if err != nil {
		log.Printf("server: join: participant %s registered but status message failed: %v", req.Name, err)
	} else {
		s.publish(stored)
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := s.participants.List(r.Context())
	if err != nil {
		logStorageError(w, "list participants", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	name := callerName(r)
	if name == "" {
		writeError(w, http.StatusNotFound, "user is not registered")
		return
	}

	if err := s.participants.Touch(r.Context(), name); err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user is not registered")
			return
		}
		logStorageError(w, "heartbeat", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// requireSender checks the User header against the participant store.
// Message endpoints answer 422 for an unregistered sender, not 404.
func (s *Server) requireSender(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := callerName(r)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "user header is required")
		return "", false
	}
	if _, err := s.participants.Get(r.Context(), name); err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			writeError(w, http.StatusUnprocessableEntity, "user is not registered")
			return "", false
		}
		logStorageError(w, "sender lookup", err)
		return "", false
	}
	return name, true
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireSender(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !decodeValid(w, r, &req) {
		return
	}

	msg := message.New(name, req.To, req.Text, message.Type(req.Type))
	stored, err := s.messages.Append(r.Context(), msg)
	if err != nil {
		logStorageError(w, "post message", err)
		return
	}

	s.publish(stored)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	name := callerName(r)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "user header is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
			return
		}
		limit = n
	}

	msgs, err := s.messages.VisibleTo(r.Context(), name, limit)
	if err != nil {
		logStorageError(w, "list messages", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireSender(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !decodeValid(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	err := s.messages.Update(r.Context(), id, name, req.To, req.Text, message.Type(req.Type))
	switch {
	case errors.Is(err, message.ErrNotFound):
		writeError(w, http.StatusNotFound, "message not found")
	case errors.Is(err, message.ErrNotOwner):
		writeError(w, http.StatusUnauthorized, "message belongs to another user")
	case err != nil:
		logStorageError(w, "edit message", err)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	name := callerName(r)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "user header is required")
		return
	}

	id := r.PathValue("id")
	err := s.messages.Delete(r.Context(), id, name)
	switch {
	case errors.Is(err, message.ErrNotFound):
		writeError(w, http.StatusNotFound, "message not found")
	case errors.Is(err, message.ErrNotOwner):
		writeError(w, http.StatusUnauthorized, "message belongs to another user")
	case err != nil:
		logStorageError(w, "delete message", err)
	default:
		w.WriteHeader(http.StatusOK)
	}
}
