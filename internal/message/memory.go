package message

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryLog keeps the message log in memory in append order.
type MemoryLog struct {
	mu   sync.RWMutex
	msgs []*Message
}

// NewMemoryLog creates an empty in-memory message log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append assigns an ID, stores the message, and returns the stored record.
func (l *MemoryLog) Append(ctx context.Context, msg *Message) (*Message, error) {
	stored := *msg
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	l.mu.Lock()
	l.msgs = append(l.msgs, &stored)
	l.mu.Unlock()

	cp := stored
	return &cp, nil
}

// VisibleTo returns messages visible to user, applying the limit/ordering
// contract from the Log interface.
func (l *MemoryLog) VisibleTo(ctx context.Context, user string, limit int) ([]*Message, error) {
	l.mu.RLock()
	visible := make([]*Message, 0, len(l.msgs))
	for _, m := range l.msgs {
		if m.VisibleTo(user) {
			cp := *m
			visible = append(visible, &cp)
		}
	}
	l.mu.RUnlock()

	return applyLimit(visible, limit), nil
}

// Update replaces the mutable fields of the message in place.
func (l *MemoryLog) Update(ctx context.Context, id, editor, to, text string, kind Type) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range l.msgs {
		if m.ID != id {
			continue
		}
		if m.From != editor {
			return ErrNotOwner
		}
		m.To = to
		m.Text = text
		m.Type = kind
		return nil
	}
	return ErrNotFound
}

// Delete removes the message, enforcing sender ownership.
func (l *MemoryLog) Delete(ctx context.Context, id, requester string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, m := range l.msgs {
		if m.ID != id {
			continue
		}
		if m.From != requester {
			return ErrNotOwner
		}
		l.msgs = append(l.msgs[:i], l.msgs[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// applyLimit implements the two observable orderings: storage order for the
// unlimited case, most-recent-first truncated to limit otherwise.
func applyLimit(visible []*Message, limit int) []*Message {
	if limit <= 0 {
		return visible
	}
	if limit < len(visible) {
		visible = visible[len(visible)-limit:]
	}
	reversed := make([]*Message, len(visible))
	for i, m := range visible {
		reversed[len(visible)-1-i] = m
	}
	return reversed
}
