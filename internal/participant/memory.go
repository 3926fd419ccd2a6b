package participant

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps participants in memory, preserving insertion order.
type MemoryStore struct {
	mu     sync.Mutex
	byName map[string]*Participant
	order  []string
}

// NewMemoryStore creates an empty in-memory participant store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byName: make(map[string]*Participant),
	}
}

// Register creates a participant, failing with ErrNameTaken on duplicates.
func (s *MemoryStore) Register(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; ok {
		return ErrNameTaken
	}
	s.byName[name] = &Participant{Name: name, LastStatus: time.Now().UnixMilli()}
	s.order = append(s.order, name)
	return nil
}

// Get returns the participant with the given name, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, name string) (*Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// List returns all participants in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]*Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*Participant, 0, len(s.byName))
	for _, name := range s.order {
		if p, ok := s.byName[name]; ok {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Touch refreshes the participant's lastStatus, or returns ErrNotFound.
func (s *MemoryStore) Touch(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byName[name]
	if !ok {
		return ErrNotFound
	}
	p.LastStatus = time.Now().UnixMilli()
	return nil
}

// Remove deletes the participant if present.
func (s *MemoryStore) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; !ok {
		return nil
	}
	delete(s.byName, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
