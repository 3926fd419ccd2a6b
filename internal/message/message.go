package message

import (
	"context"
	"errors"
	"time"
)

// Type represents the kind of message.
type Type string

const (
	TypeBroadcast Type = "message"
	TypePrivate   Type = "private_message"
	TypeStatus    Type = "status"
)

// Broadcast is the reserved recipient meaning "all current participants".
const Broadcast = "Todos"

// TimeLayout is the display format stored in the time field.
const TimeLayout = "15:04:05"

// Status message texts for the join and leave events.
const (
	JoinedText = "entra na sala..."
	LeftText   = "sai da sala..."
)

// Message represents a chat message. Time is the display timestamp; ordering
// comes from the log's storage order.
type Message struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type Type   `json:"type"`
	Time string `json:"time"`
}

// New builds a message stamped with the current time. The ID is assigned by
// the log on append.
func New(from, to, text string, kind Type) *Message {
	return &Message{
		From: from,
		To:   to,
		Text: text,
		Type: kind,
		Time: time.Now().Format(TimeLayout),
	}
}

// VisibleTo reports whether the message may be shown to user: the user sent
// it, it is addressed to the user, or it is addressed to everyone.
func (m *Message) VisibleTo(user string) bool {
	return m.From == user || m.To == user || m.To == Broadcast
}

var (
	// ErrNotFound is returned when no message with the given ID exists.
	ErrNotFound = errors.New("message not found")

	// ErrNotOwner is returned when the caller is not the message sender.
	ErrNotOwner = errors.New("caller does not own message")
)

// Log is the interface for message persistence backends. Messages are
// append-only except for owner-gated edit and delete.
type Log interface {
	// Append assigns an ID, stores the message, and returns the stored record.
	Append(ctx context.Context, msg *Message) (*Message, error)

	// VisibleTo returns messages visible to user. With limit <= 0 the full
	// visible set is returned in storage order; with limit > 0 the last limit
	// visible messages are returned most-recent-first.
	VisibleTo(ctx context.Context, user string, limit int) ([]*Message, error)

	// Update replaces the to/text/type fields of the message with the given
	// ID. Returns ErrNotFound for an unknown ID and ErrNotOwner when editor
	// is not the sender.
	Update(ctx context.Context, id, editor, to, text string, kind Type) error

	// Delete removes the message with the given ID under the same
	// authorization rule as Update.
	Delete(ctx context.Context, id, requester string) error
}
