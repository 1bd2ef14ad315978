package flow

import (
	"context"
	"sync"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/notify"
	"github.com/fjod/go_ussd/internal/payment"
)

// MockOrderStore implements order.OrderStore for testing
type MockOrderStore struct {
	mu     sync.Mutex
	Stored []*domain.OrderSnapshot
	Err    error
}

func (m *MockOrderStore) StoreOrder(_ context.Context, o *domain.OrderSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stored = append(m.Stored, o)
	return m.Err
}

// MockNotifier implements notify.Notifier for testing
type MockNotifier struct {
	Sent []string
}

func (m *MockNotifier) SendMessage(_ context.Context, _, text string) (notify.Delivery, error) {
	m.Sent = append(m.Sent, text)
	return notify.Delivery{Sent: true, Code: "1000"}, nil
}

// MockPayments implements payment.Payments for testing. Each call consumes
// the next scripted outcome; the last one repeats.
type MockPayments struct {
	Results  []payment.Result
	Errs     []error
	Requests []payment.PushRequest
}

func (m *MockPayments) InitiatePushPayment(_ context.Context, req payment.PushRequest) (payment.Result, error) {
	i := len(m.Requests)
	m.Requests = append(m.Requests, req)

	var (
		res payment.Result
		err error
	)
	if len(m.Results) > 0 {
		res = m.Results[min(i, len(m.Results)-1)]
	}
	if len(m.Errs) > 0 {
		err = m.Errs[min(i, len(m.Errs)-1)]
	}
	return res, err
}

// MockHistory implements OrderHistory for testing
type MockHistory struct {
	Receipts []domain.Receipt
	Calls    int
}

func (m *MockHistory) Recent(_ context.Context, _ *domain.Session, _ int) []domain.Receipt {
	m.Calls++
	return m.Receipts
}
