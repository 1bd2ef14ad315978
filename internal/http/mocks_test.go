package http

import (
	"context"
	"sync"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/notify"
	"github.com/fjod/go_ussd/internal/session"
)

// MockController answers every turn with Reply and records what it saw.
type MockController struct {
	Reply domain.Reply
	Panic bool
	// NextState is applied to the session before replying.
	NextState domain.State
	Turns     []domain.Turn
}

func (m *MockController) Handle(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if m.Panic {
		panic("boom")
	}
	m.Turns = append(m.Turns, t)
	if m.NextState != "" {
		s.State = m.NextState
	}
	return m.Reply
}

type MockRecorder struct {
	mu      sync.Mutex
	Entries []domain.TurnLog
}

func (m *MockRecorder) Record(entry domain.TurnLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

type MockLocker struct {
	Err      error
	Locked   int
	Unlocked int
}

func (m *MockLocker) Lock(_ context.Context, _ string) (func(), error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Locked++
	return func() { m.Unlocked++ }, nil
}

// MockStore keeps sessions in a map and can fail on demand.
type MockStore struct {
	Sessions map[string]*domain.Session
	GetErr   error
	PutErr   error
	Puts     int
}

func (m *MockStore) Get(_ context.Context, subscriber string) (*domain.Session, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	s, ok := m.Sessions[subscriber]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return s, nil
}

func (m *MockStore) Put(_ context.Context, s *domain.Session) error {
	m.Puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.Sessions == nil {
		m.Sessions = make(map[string]*domain.Session)
	}
	m.Sessions[s.Subscriber] = s
	return nil
}

func (m *MockStore) Delete(_ context.Context, subscriber string) error {
	delete(m.Sessions, subscriber)
	return nil
}

type MockPinger struct {
	Err error
}

func (m MockPinger) Ping(context.Context) error {
	return m.Err
}

// BlockingOrderStore records every order and then waits out its deadline.
type BlockingOrderStore struct {
	mu     sync.Mutex
	Orders []string
}

func (m *BlockingOrderStore) StoreOrder(ctx context.Context, o *domain.OrderSnapshot) error {
	m.mu.Lock()
	m.Orders = append(m.Orders, o.ID)
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (m *BlockingOrderStore) Stored() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Orders...)
}

type BlockingNotifier struct{}

func (BlockingNotifier) SendMessage(ctx context.Context, _, _ string) (notify.Delivery, error) {
	<-ctx.Done()
	return notify.Delivery{}, ctx.Err()
}
