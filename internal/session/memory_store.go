package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_ussd/internal/domain"
)

// CleanupInterval is how often the background cleanup runs
const CleanupInterval = time.Minute

type memoryEntry struct {
	data      []byte
	touchedAt time.Time
}

// MemoryStore implements Store in process memory. Sessions idle for longer
// than the TTL are evicted by a background loop.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions:    make(map[string]*memoryEntry),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

// evictExpired drops every session idle past the TTL and returns how many.
func (s *MemoryStore) evictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for key, entry := range s.sessions {
		if now.Sub(entry.touchedAt) > s.ttl {
			delete(s.sessions, key)
			evicted++
		}
	}
	return evicted
}

func (s *MemoryStore) Get(_ context.Context, subscriber string) (*domain.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[subscriber]
	s.mu.RUnlock()

	if !ok || s.now().Sub(entry.touchedAt) > s.ttl {
		return nil, ErrSessionNotFound
	}

	var sess domain.Session
	if err := json.Unmarshal(entry.data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &sess, nil
}

// Put stores a copy, so later mutations of s are not visible to other readers.
func (s *MemoryStore) Put(_ context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Subscriber] = &memoryEntry{data: data, touchedAt: s.now()}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, subscriber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, subscriber)
	return nil
}

// Close stops the background cleanup and waits for it to finish
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
