package memory

import (
	"context"
	"sync"

	id "contactmanager/pkg/domain"
	audit "contactmanager/pkg/platform/audit"
)

// InMemoryStore keeps audit events in arrival order. With a capacity set it
// holds only the newest events.
type InMemoryStore struct {
	mu       sync.RWMutex
	events   []audit.Event
	capacity int
}

type Option func(*InMemoryStore)

// WithCapacity evicts the oldest event once n are held. n <= 0 is unbounded.
func WithCapacity(n int) Option {
	return func(s *InMemoryStore) {
		s.capacity = n
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacity > 0 && len(s.events) >= s.capacity {
		s.events = append(s.events[len(s.events)-s.capacity+1:], event)
		return nil
	}
	s.events = append(s.events, event)
	return nil
}

// ListByContact returns the events recorded for one contact, oldest first.
func (s *InMemoryStore) ListByContact(_ context.Context, contactID id.ContactID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []audit.Event{}
	for _, e := range s.events {
		if e.ContactID == contactID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every retained event.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}
