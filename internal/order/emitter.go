package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/notify"
	"github.com/fjod/go_ussd/internal/pricing"
	"github.com/fjod/go_ussd/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderStore persists emitted orders.
type OrderStore interface {
	StoreOrder(ctx context.Context, order *domain.OrderSnapshot) error
}

type Config struct {
	Brand            string
	PaymentShortcode string
	StoreTimeout     time.Duration
	SMSTimeout       time.Duration
}

// Emitter turns a confirmed session into an order: it stores the snapshot,
// texts the subscriber and records the receipt on the session.
type Emitter struct {
	store    OrderStore
	notifier notify.Notifier
	pricing  *pricing.Engine
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
}

func NewEmitter(store OrderStore, notifier notify.Notifier, engine *pricing.Engine, cfg Config, logger zerolog.Logger) *Emitter {
	return &Emitter{
		store:    store,
		notifier: notifier,
		pricing:  engine,
		cfg:      cfg,
		logger:   logger.With().Str("component", "emitter").Logger(),
		now:      time.Now,
		newID:    NewOrderID,
	}
}

// Emit creates the order once per checkout token. A repeated call for a token
// already in the session history returns the existing receipt. Storage and
// SMS failures are logged and do not fail the order.
func (e *Emitter) Emit(ctx context.Context, s *domain.Session, userID string, kind domain.OrderKind) (domain.Receipt, error) {
	if r, ok := s.HasReceipt(s.CheckoutToken); ok {
		e.logger.Warn().
			Str("msisdn", s.Subscriber).
			Str("order_id", r.OrderID).
			Msg("duplicate confirmation, returning existing order")
		return r, nil
	}
	if s.CheckoutToken == "" {
		s.CheckoutToken = uuid.NewString()
	}

	snapshot, err := BuildSnapshot(s, userID, kind, e.pricing.Quote(s), e.newID(), e.now())
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("build order snapshot: %w", err)
	}

	e.persist(ctx, snapshot)
	e.sendSMS(ctx, snapshot)

	receipt := snapshot.Receipt()
	s.History = append(s.History, receipt)

	e.logger.Info().
		Str("msisdn", s.Subscriber).
		Str("order_id", snapshot.ID).
		Str("order_type", string(kind)).
		Str("total", snapshot.Total.String()).
		Msg("order created")
	return receipt, nil
}

func (e *Emitter) persist(ctx context.Context, snapshot *domain.OrderSnapshot) {
	storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	err := e.store.StoreOrder(storeCtx, snapshot)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicateCheckout):
		e.logger.Warn().Str("order_id", snapshot.ID).Str("checkout_token", snapshot.CheckoutToken).Msg("order already stored for checkout")
	default:
		e.logger.Error().Err(err).Str("order_id", snapshot.ID).Msg("failed to store order")
	}
}

func (e *Emitter) sendSMS(ctx context.Context, snapshot *domain.OrderSnapshot) {
	smsCtx, cancel := context.WithTimeout(ctx, e.cfg.SMSTimeout)
	defer cancel()

	if _, err := e.notifier.SendMessage(smsCtx, snapshot.SubscriberID, SMSText(snapshot, e.cfg)); err != nil {
		e.logger.Error().Err(err).Str("order_id", snapshot.ID).Msg("failed to send order sms")
	}
}

// SMSText is the confirmation message for the order kind.
func SMSText(o *domain.OrderSnapshot, cfg Config) string {
	total := pricing.Money(o.Total)
	var text string
	switch o.Kind {
	case domain.OrderKindCustom:
		text = fmt.Sprintf("Your %s custom order #%s has been received! Please dial %s and pay GHS %s to process your order. Thank you!",
			cfg.Brand, o.ID, cfg.PaymentShortcode, total)
	case domain.OrderKindTopUp:
		text = fmt.Sprintf("Your Gas Filling order #%s received! Pay GHS %s to %s to process your order.",
			o.ID, total, cfg.PaymentShortcode)
	default:
		text = fmt.Sprintf("Your order #%s has been received! Please dial %s and pay GHS %s to process your order. Thank you!",
			o.ID, cfg.PaymentShortcode, total)
	}
	if o.DeliveryNote != "" {
		text += "\nNote: " + o.DeliveryNote
	}
	return text
}
