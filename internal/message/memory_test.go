package message

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMemoryLogAppendAssignsID(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	m1, err := l.Append(ctx, New("alice", Broadcast, "oi", TypeBroadcast))
	if err != nil {
		t.Fatalf("append error: %v", err)
	}
	m2, err := l.Append(ctx, New("alice", Broadcast, "tudo bem?", TypeBroadcast))
	if err != nil {
		t.Fatalf("append error: %v", err)
	}

	if m1.ID == "" || m2.ID == "" {
		t.Fatal("expected non-empty IDs")
	}
	if m1.ID == m2.ID {
		t.Error("expected unique IDs")
	}
	if m1.Time == "" {
		t.Error("expected display time to be set")
	}
}

func TestMemoryLogVisibility(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	l.Append(ctx, New("alice", Broadcast, "hello all", TypeBroadcast))
	l.Append(ctx, New("alice", "bob", "psst", TypePrivate))
	l.Append(ctx, New("carol", "dave", "secret", TypePrivate))

	bob, err := l.VisibleTo(ctx, "bob", 0)
	if err != nil {
		t.Fatalf("visible error: %v", err)
	}
	if len(bob) != 2 {
		t.Fatalf("expected bob to see 2 messages, got %d", len(bob))
	}

	// The sender sees their own private message.
	alice, _ := l.VisibleTo(ctx, "alice", 0)
	if len(alice) != 2 {
		t.Fatalf("expected alice to see 2 messages, got %d", len(alice))
	}

	// An uninvolved user sees only the broadcast.
	eve, _ := l.VisibleTo(ctx, "eve", 0)
	if len(eve) != 1 {
		t.Fatalf("expected eve to see 1 message, got %d", len(eve))
	}
	if eve[0].To != Broadcast {
		t.Errorf("expected broadcast message, got to=%q", eve[0].To)
	}
}

func TestMemoryLogLimitOrdering(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Append(ctx, New("alice", Broadcast, fmt.Sprintf("msg-%d", i), TypeBroadcast))
	}

	// Unlimited: storage order, oldest first.
	all, err := l.VisibleTo(ctx, "bob", 0)
	if err != nil {
		t.Fatalf("visible error: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(all))
	}
	if all[0].Text != "msg-0" || all[4].Text != "msg-4" {
		t.Errorf("expected storage order, got first=%q last=%q", all[0].Text, all[4].Text)
	}

	// Limited: the last 3, most recent first.
	last3, err := l.VisibleTo(ctx, "bob", 3)
	if err != nil {
		t.Fatalf("visible error: %v", err)
	}
	if len(last3) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(last3))
	}
	for i, want := range []string{"msg-4", "msg-3", "msg-2"} {
		if last3[i].Text != want {
			t.Errorf("expected %q at index %d, got %q", want, i, last3[i].Text)
		}
	}
}

func TestMemoryLogLimitLargerThanSet(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	l.Append(ctx, New("alice", Broadcast, "first", TypeBroadcast))
	l.Append(ctx, New("alice", Broadcast, "second", TypeBroadcast))

	msgs, err := l.VisibleTo(ctx, "bob", 10)
	if err != nil {
		t.Fatalf("visible error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "second" || msgs[1].Text != "first" {
		t.Errorf("expected most-recent-first, got [%q, %q]", msgs[0].Text, msgs[1].Text)
	}
}

func TestMemoryLogUpdate(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	m, _ := l.Append(ctx, New("alice", Broadcast, "typo", TypeBroadcast))

	if err := l.Update(ctx, m.ID, "alice", "bob", "fixed", TypePrivate); err != nil {
		t.Fatalf("update error: %v", err)
	}

	msgs, _ := l.VisibleTo(ctx, "alice", 0)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	got := msgs[0]
	if got.To != "bob" || got.Text != "fixed" || got.Type != TypePrivate {
		t.Errorf("expected updated fields, got %+v", got)
	}
	if got.From != "alice" {
		t.Errorf("expected from to be unchanged, got %q", got.From)
	}
	if got.ID != m.ID {
		t.Errorf("expected ID to be unchanged, got %q", got.ID)
	}
}

func TestMemoryLogUpdateNotFound(t *testing.T) {
	l := NewMemoryLog()

	err := l.Update(context.Background(), "missing", "alice", Broadcast, "x", TypeBroadcast)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryLogUpdateNotOwner(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	m, _ := l.Append(ctx, New("alice", Broadcast, "mine", TypeBroadcast))

	err := l.Update(ctx, m.ID, "mallory", Broadcast, "hijacked", TypeBroadcast)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	// Content unchanged.
	msgs, _ := l.VisibleTo(ctx, "alice", 0)
	if msgs[0].Text != "mine" {
		t.Errorf("expected text unchanged, got %q", msgs[0].Text)
	}
}

func TestMemoryLogDelete(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	m, _ := l.Append(ctx, New("alice", Broadcast, "bye", TypeBroadcast))

	if err := l.Delete(ctx, m.ID, "alice"); err != nil {
		t.Fatalf("delete error: %v", err)
	}

	// Second delete of the same ID.
	if err := l.Delete(ctx, m.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryLogDeleteNotOwner(t *testing.T) {
	l := NewMemoryLog()
	ctx := context.Background()

	m, _ := l.Append(ctx, New("alice", Broadcast, "keep", TypeBroadcast))

	if err := l.Delete(ctx, m.ID, "mallory"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	msgs, _ := l.VisibleTo(ctx, "alice", 0)
	if len(msgs) != 1 {
		t.Fatalf("expected message to survive, got %d messages", len(msgs))
	}
}

func TestMemoryLogImplementsInterface(t *testing.T) {
	var _ Log = NewMemoryLog()
}
