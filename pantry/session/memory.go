// session/memory.go
package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Expired entries are swept
// periodically until Close.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Data
	stopCh   chan struct{}
	doneCh   chan struct{}
	now      func() time.Time
}

// NewMemoryStore creates a memory store sweeping every cleanupInterval
// (10 minutes when zero).
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	s := &MemoryStore{
		sessions: make(map[string]*Data),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		now:      time.Now,
	}
	go s.cleanup(cleanupInterval)
	return s
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, id string) (*Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(data.ExpiresAt) {
		return nil, ErrExpired
	}
	return data.clone(), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, data *Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[data.ID] = data.clone()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	close(s.stopCh)
	<-s.doneCh
	return nil
}

// Len returns the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) cleanup(interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, data := range s.sessions {
		if now.After(data.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}
