package ws

import "testing"

func TestConnManagerSendAfterRemove(t *testing.T) {
	cm := NewConnManager()
	c := &Client{name: "alice"}

	cm.Add(c)
	cm.Remove(c)

	// A fan-out racing the removal may still attempt delivery; it must be
	// dropped, not panic.
	if cm.Send(c, []byte("late")) {
		t.Fatal("expected send to removed client to be dropped")
	}
	if cm.Count() != 0 {
		t.Fatalf("expected 0 managed connections, got %d", cm.Count())
	}
}

func TestConnManagerRemoveTwice(t *testing.T) {
	cm := NewConnManager()
	c := &Client{name: "alice"}

	cm.Add(c)
	cm.Remove(c)
	// Second removal is a no-op.
	cm.Remove(c)

	if cm.Count() != 0 {
		t.Fatalf("expected 0 managed connections, got %d", cm.Count())
	}
}
