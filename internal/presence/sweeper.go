// Package presence evicts participants whose heartbeats have gone stale.
package presence

import (
	"context"
	"log"
	"time"

	"github.com/alexandredresch/chatuol/internal/message"
	"github.com/alexandredresch/chatuol/internal/participant"
)

const (
	// DefaultInterval is the period between sweep cycles.
	DefaultInterval = 15 * time.Second

	// DefaultThreshold is how long a participant may go without a heartbeat
	// before becoming eligible for eviction. It is shorter than the sweep
	// interval, so a participant can outlive its expiry by up to roughly two
	// cycles depending on phase.
	DefaultThreshold = 10 * time.Second
)

// Publisher receives messages appended by the sweeper, for live delivery.
type Publisher interface {
	Publish(msg *message.Message)
}

// Sweeper periodically removes stale participants and records a departure
// status message for each eviction. It shares the stores with the request
// handlers and relies only on their single-operation atomicity.
type Sweeper struct {
	participants participant.Store
	messages     message.Log
	interval     time.Duration
	threshold    time.Duration
	publisher    Publisher
	now          func() time.Time
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithInterval sets the period between sweep cycles.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) { s.interval = d }
}

// WithThreshold sets the heartbeat age at which a participant is evicted.
func WithThreshold(d time.Duration) Option {
	return func(s *Sweeper) { s.threshold = d }
}

// WithPublisher sets a publisher notified of departure status messages.
func WithPublisher(p Publisher) Option {
	return func(s *Sweeper) { s.publisher = p }
}

// WithNow overrides the clock. Used in tests.
func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// NewSweeper creates a sweeper over the given stores.
func NewSweeper(participants participant.Store, messages message.Log, opts ...Option) *Sweeper {
	s := &Sweeper{
		participants: participants,
		messages:     messages,
		interval:     DefaultInterval,
		threshold:    DefaultThreshold,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on a fixed ticker until ctx is cancelled. Cycle errors are
// logged and the next tick retries independently.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single cycle: snapshot the participants, evict every stale
// one, and record a departure message per eviction.
func (s *Sweeper) Sweep(ctx context.Context) {
	snapshot, err := s.participants.List(ctx)
	if err != nil {
		log.Printf("presence: sweep: list participants: %v", err)
		return
	}

	now := s.now()
	for _, p := range snapshot {
		if !p.Stale(now, s.threshold) {
			continue
		}
		s.evict(ctx, p.Name)
	}
}

// evict removes one participant and appends its departure status message.
// The two steps are attempted as a unit but are not atomic; a failure
// in between is logged and left as-is.
func (s *Sweeper) evict(ctx context.Context, name string) {
	if err := s.participants.Remove(ctx, name); err != nil {
		log.Printf("presence: evict %s: remove: %v", name, err)
		return
	}

	msg := message.New(name, message.Broadcast, message.LeftText, message.TypeStatus)
	stored, err := s.messages.Append(ctx, msg)
	if err != nil {
		log.Printf("presence: evict %s: participant removed but status message failed: %v", name, err)
		return
	}

	log.Printf("presence: evicted %s", name)
	if s.publisher != nil {
		s.publisher.Publish(stored)
	}
}
