package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	presence "go-relay/internal/pkg/presence/domain"
)

// fakeStore is an in-memory MessageRepository. Setting failing simulates the
// store being down (degraded mode).
type fakeStore struct {
	mu       sync.Mutex
	failing  bool
	nextID   int
	messages map[string]*presence.Message

	// onMarkDelivered, when set, runs at the start of MarkDelivered.
	onMarkDelivered func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{messages: make(map[string]*presence.Message)}
}

func (s *fakeStore) SaveMessage(_ context.Context, m presence.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return "", presence.ErrStoreUnavailable
	}
	s.nextID++
	id := fmt.Sprintf("msg-%d", s.nextID)
	m.ID = id
	s.messages[id] = &m
	return id, nil
}

func (s *fakeStore) MarkDelivered(_ context.Context, id string) error {
	if s.onMarkDelivered != nil {
		s.onMarkDelivered()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return presence.ErrStoreUnavailable
	}
	if m, ok := s.messages[id]; ok {
		m.Delivered = true
	}
	return nil
}

func (s *fakeStore) MarkRead(_ context.Context, id string, receiver string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return presence.ErrStoreUnavailable
	}
	m, ok := s.messages[id]
	if !ok || m.Receiver != receiver || m.Read {
		return presence.ErrNotFound
	}
	now := time.Now().UTC()
	m.Read = true
	m.Delivered = true
	m.ReadAt = &now
	return nil
}

func (s *fakeStore) GetConversation(_ context.Context, userA, userB string, limit int) ([]presence.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, presence.ErrStoreUnavailable
	}
	var out []presence.Message
	for _, m := range s.messages {
		if (m.Sender == userA && m.Receiver == userB) || (m.Sender == userB && m.Receiver == userA) {
			out = append(out, *m)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CountMessages(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return 0, presence.ErrStoreUnavailable
	}
	return int64(len(s.messages)), nil
}

func (s *fakeStore) get(id string) (presence.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return presence.Message{}, false
	}
	return *m, true
}

// fakeSink records events in emission order.
type fakeSink struct {
	mu     sync.Mutex
	events []emitted
}

type emitted struct {
	Event string
	Data  any
}

func (s *fakeSink) Emit(event string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, emitted{Event: event, Data: data})
	return nil
}

func (s *fakeSink) all() []emitted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]emitted(nil), s.events...)
}

func (s *fakeSink) byEvent(event string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []any
	for _, e := range s.events {
		if e.Event == event {
			out = append(out, e.Data)
		}
	}
	return out
}

func (s *fakeSink) count(event string) int {
	return len(s.byEvent(event))
}
