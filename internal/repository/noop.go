package repository

import (
	"context"

	"github.com/fjod/go_ussd/internal/domain"
)

// NoopOrderRepository stands in when no database is configured.
type NoopOrderRepository struct{}

func (NoopOrderRepository) StoreOrder(context.Context, *domain.OrderSnapshot) error { return nil }

func (NoopOrderRepository) ListRecentOrders(context.Context, string, int) ([]domain.Receipt, error) {
	return nil, nil
}

func (NoopOrderRepository) GetUnprocessedEvents(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (NoopOrderRepository) MarkEventAsProcessed(context.Context, int64) error { return nil }
func (NoopOrderRepository) Ping(context.Context) error                        { return nil }
func (NoopOrderRepository) Close() error                                      { return nil }

// NoopTurnLogRepository discards audit entries.
type NoopTurnLogRepository struct{}

func (NoopTurnLogRepository) StoreTurnLog(context.Context, domain.TurnLog) error { return nil }
func (NoopTurnLogRepository) CreateIndexes(context.Context) error                { return nil }
func (NoopTurnLogRepository) Close(context.Context) error                        { return nil }
