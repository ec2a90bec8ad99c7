package settings

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is a process-local Store. Notifications are synchronous.
type MemoryStore struct {
	mu          sync.Mutex
	values      map[string]json.RawMessage
	subscribers map[int]func(Change)
	nextSub     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:      make(map[string]json.RawMessage),
		subscribers: make(map[int]func(Change)),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), value...), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value json.RawMessage) error {
	if err := validatePayload(key, value); err != nil {
		return err
	}

	stored := append(json.RawMessage(nil), value...)
	s.mu.Lock()
	s.values[key] = stored
	subscribers := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(Change{Key: key, Value: stored})
	}
	return nil
}

func (s *MemoryStore) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *MemoryStore) Close() error {
	return nil
}
