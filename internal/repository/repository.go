package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_ussd/internal/domain"
)

var ErrDuplicateCheckout = errors.New("order for this checkout already exists")

const EventOrderCreated = "order.created"

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Enabled reports whether enough is configured to open a connection.
func (c *Credentials) Enabled() bool {
	return c.Host != "" && c.User != "" && c.DBName != ""
}

// OutboxEvent is an order event waiting to be published.
type OutboxEvent struct {
	ID          int64
	AggregateId string
	EventType   string
	Payload     []byte
}

type OrderRepository interface {
	StoreOrder(ctx context.Context, order *domain.OrderSnapshot) error
	ListRecentOrders(ctx context.Context, msisdn string, limit int) ([]domain.Receipt, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

type TurnLogRepository interface {
	StoreTurnLog(ctx context.Context, entry domain.TurnLog) error
	CreateIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}
