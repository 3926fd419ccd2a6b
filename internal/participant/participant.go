package participant

import (
	"context"
	"errors"
	"time"
)

// Participant is a named, currently-present chat member. LastStatus is the
// unix-millisecond timestamp of the last heartbeat (or the join itself).
type Participant struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

// Stale reports whether the participant's last heartbeat is older than
// threshold at the given instant.
func (p *Participant) Stale(now time.Time, threshold time.Duration) bool {
	return now.UnixMilli()-p.LastStatus > threshold.Milliseconds()
}

var (
	// ErrNameTaken is returned by Register when the name is already in use.
	ErrNameTaken = errors.New("participant name already taken")

	// ErrNotFound is returned when no participant with the given name exists.
	ErrNotFound = errors.New("participant not found")
)

// Store is the interface for participant persistence backends.
type Store interface {
	// Register creates a participant with lastStatus set to now.
	// Returns ErrNameTaken if the name is already registered.
	Register(ctx context.Context, name string) error

	// Get returns the participant with the given name, or ErrNotFound.
	Get(ctx context.Context, name string) (*Participant, error)

	// List returns all current participants in storage order.
	List(ctx context.Context) ([]*Participant, error)

	// Touch refreshes the participant's lastStatus to now.
	// Returns ErrNotFound if the name is not registered.
	Touch(ctx context.Context, name string) error

	// Remove deletes the participant. Removing an unknown name is a no-op.
	Remove(ctx context.Context, name string) error
}
