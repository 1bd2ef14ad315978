package order

import (
	"context"
	"sync"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/notify"
)

// MockOrderStore implements OrderStore for testing
type MockOrderStore struct {
	mu     sync.Mutex
	Err    error
	Stored []*domain.OrderSnapshot
}

func (m *MockOrderStore) StoreOrder(_ context.Context, order *domain.OrderSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stored = append(m.Stored, order)
	return m.Err
}

// MockNotifier implements notify.Notifier for testing
type MockNotifier struct {
	Err  error
	To   []string
	Sent []string
}

func (m *MockNotifier) SendMessage(_ context.Context, to, text string) (notify.Delivery, error) {
	m.To = append(m.To, to)
	m.Sent = append(m.Sent, text)
	if m.Err != nil {
		return notify.Delivery{}, m.Err
	}
	return notify.Delivery{Sent: true, Code: "1000"}, nil
}

// MockOrderLister implements OrderLister for testing
type MockOrderLister struct {
	mu       sync.Mutex
	Receipts []domain.Receipt
	Err      error
	Calls    int
	// Gate blocks every call until closed.
	Gate chan struct{}
}

func (m *MockOrderLister) ListRecentOrders(_ context.Context, _ string, _ int) ([]domain.Receipt, error) {
	if m.Gate != nil {
		<-m.Gate
	}
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return m.Receipts, m.Err
}
