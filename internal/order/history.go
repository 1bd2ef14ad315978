package order

import (
	"context"
	"time"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// OrderLister reads a subscriber's latest orders from durable storage.
type OrderLister interface {
	ListRecentOrders(ctx context.Context, subscriber string, limit int) ([]domain.Receipt, error)
}

// History answers "My Orders". The session history is authoritative; the
// durable store is consulted only when the session has none, e.g. after the
// session expired.
type History struct {
	lister  OrderLister
	timeout time.Duration
	logger  zerolog.Logger
	sfg     singleflight.Group // collapses concurrent loads for one subscriber
}

func NewHistory(lister OrderLister, timeout time.Duration, logger zerolog.Logger) *History {
	return &History{
		lister:  lister,
		timeout: timeout,
		logger:  logger.With().Str("component", "history").Logger(),
	}
}

// Recent returns up to limit receipts, oldest first.
func (h *History) Recent(ctx context.Context, s *domain.Session, limit int) []domain.Receipt {
	if len(s.History) > 0 || h.lister == nil {
		return s.RecentReceipts(limit)
	}

	v, err, _ := h.sfg.Do(s.Subscriber, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()
		return h.lister.ListRecentOrders(loadCtx, s.Subscriber, limit)
	})
	if err != nil {
		h.logger.Error().Err(err).Str("msisdn", s.Subscriber).Msg("failed to load order history")
		return nil
	}

	// the store returns newest first
	stored := v.([]domain.Receipt)
	out := make([]domain.Receipt, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
