package memory

import (
	"context"
	"sort"
	"sync"

	audit "registrar/pkg/platform/audit"
)

// InMemoryStore keeps events in append order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByAttendee returns an attendee's events in append order.
func (s *InMemoryStore) ListByAttendee(_ context.Context, attendeeID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.AttendeeID == attendeeID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListByActions returns events whose action is one of actions, in append order.
func (s *InMemoryStore) ListByActions(_ context.Context, actions ...audit.Action) ([]audit.Event, error) {
	want := make(map[audit.Action]struct{}, len(actions))
	for _, a := range actions {
		want[a] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if _, ok := want[e.Action]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListRecent returns up to limit events, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	out := append([]audit.Event(nil), s.events...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
