package publisher

import (
	"context"
	"sync"

	r "github.com/fjod/go_ussd/internal/repository"
	"github.com/segmentio/kafka-go"
)

type MockEventSource struct {
	mu           sync.Mutex
	Events       []*r.OutboxEvent
	GetErr       error
	MarkErr      error
	ProcessedIDs []int64
	Limit        int
}

func (m *MockEventSource) GetUnprocessedEvents(_ context.Context, limit int) ([]*r.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Limit = limit
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	var pending []*r.OutboxEvent
	for _, e := range m.Events {
		if !m.processed(e.ID) {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (m *MockEventSource) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.ProcessedIDs = append(m.ProcessedIDs, id)
	return nil
}

func (m *MockEventSource) processed(id int64) bool {
	for _, p := range m.ProcessedIDs {
		if p == id {
			return true
		}
	}
	return false
}

type MockWriter struct {
	mu       sync.Mutex
	Messages []kafka.Message
	FailKeys map[string]bool
	Err      error
	Closed   bool
}

func (m *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		if m.FailKeys[string(msg.Key)] {
			return m.Err
		}
		m.Messages = append(m.Messages, msg)
	}
	return nil
}

func (m *MockWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
