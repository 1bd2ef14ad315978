package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLockTimeout     = errors.New("session lock not acquired")
)

// Store keeps one session per subscriber.
type Store interface {
	Get(ctx context.Context, subscriber string) (*domain.Session, error)
	Put(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, subscriber string) error
}

// Locker serializes turns of one subscriber. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// LoadOrCreate returns the stored session or a fresh one for first contact.
func LoadOrCreate(ctx context.Context, store Store, subscriber string, now time.Time) (*domain.Session, error) {
	s, err := store.Get(ctx, subscriber)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return domain.NewSession(subscriber, uuid.NewString(), now), nil
}
