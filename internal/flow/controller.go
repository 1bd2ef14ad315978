package flow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/go_ussd/internal/catalog"
	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/input"
	"github.com/fjod/go_ussd/internal/payment"
	"github.com/fjod/go_ussd/internal/pricing"
	"github.com/rs/zerolog"
)

const (
	back = "#"

	recentOrdersLimit    = 3
	minLocationLength    = 3
	minCustomOrderLength = 10
	maxNoteLength        = 100
	customSummaryLength  = 40
)

// OrderEmitter creates an order from a confirmed session.
type OrderEmitter interface {
	Emit(ctx context.Context, s *domain.Session, userID string, kind domain.OrderKind) (domain.Receipt, error)
}

// OrderHistory answers the "My Orders" menu.
type OrderHistory interface {
	Recent(ctx context.Context, s *domain.Session, limit int) []domain.Receipt
}

type Options struct {
	Brand            string
	SupportPhone     string
	PaymentShortcode string
	// DiscountPrompt asks for a discount code before the confirmation screen.
	DiscountPrompt bool
	// DeliveryNotePrompt asks for a rider note after confirmation.
	DeliveryNotePrompt bool
	// ReplayWindow is how long a repeated finalizing input replays the
	// stored response instead of being read as a new menu choice.
	ReplayWindow   time.Duration
	PaymentTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Brand:              "FLAP Dish",
		PaymentShortcode:   "*415*1738#",
		DiscountPrompt:     true,
		DeliveryNotePrompt: true,
		ReplayWindow:       10 * time.Second,
		PaymentTimeout:     30 * time.Second,
	}
}

type handler func(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply

// Controller is the turn dispatcher. It owns every transition of the
// ordering dialogue and is safe for concurrent use across sessions.
type Controller struct {
	catalog  *catalog.Catalog
	pricing  *pricing.Engine
	emitter  OrderEmitter
	history  OrderHistory
	payments payment.Payments
	opts     Options
	logger   zerolog.Logger
	now      func() time.Time
	handlers map[domain.State]handler
}

// NewController wires the handler table. payments may be nil, in which case
// subscribers are told to pay through the shortcode.
func NewController(
	c *catalog.Catalog,
	engine *pricing.Engine,
	emitter OrderEmitter,
	history OrderHistory,
	payments payment.Payments,
	opts Options,
	logger zerolog.Logger,
) *Controller {
	ctrl := &Controller{
		catalog:  c,
		pricing:  engine,
		emitter:  emitter,
		history:  history,
		payments: payments,
		opts:     opts,
		logger:   logger.With().Str("component", "flow").Logger(),
		now:      time.Now,
	}

	ctrl.handlers = map[domain.State]handler{
		domain.StateMainMenu:        ctrl.handleMainMenu,
		domain.StateCategory:        ctrl.handleCategory,
		domain.StateItem:            ctrl.handleItem,
		domain.StateQuantity:        ctrl.handleQuantity,
		domain.StateCart:            ctrl.handleCart,
		domain.StateDelivery:        ctrl.handleDelivery,
		domain.StateDiscountAsk:     ctrl.handleDiscountAsk,
		domain.StateDiscountEnter:   ctrl.handleDiscountEnter,
		domain.StateConfirm:         ctrl.handleConfirm,
		domain.StateCustomOrderType: ctrl.handleCustomOrderType,
		domain.StateCustomOrder:     ctrl.handleCustomOrder,
		domain.StateCustomConfirm:   ctrl.handleCustomConfirm,
		domain.StateTopUpSize:       ctrl.handleTopUpSize,
		domain.StateTopUpAmount:     ctrl.handleTopUpAmount,
		domain.StateTopUpLocation:   ctrl.handleTopUpLocation,
		domain.StateTopUpConfirm:    ctrl.handleTopUpConfirm,
		domain.StateDeliveryNote:    ctrl.handleDeliveryNote,
		domain.StatePaymentRetry:    ctrl.handlePaymentRetry,
	}
	for _, st := range domain.AllStates {
		if _, ok := ctrl.handlers[st]; !ok {
			panic(fmt.Sprintf("flow: no handler for state %s", st))
		}
	}

	return ctrl
}

// Handle advances the session by one turn and returns the reply. The caller
// is responsible for serializing turns of one subscriber and saving the
// session afterwards.
func (c *Controller) Handle(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	now := c.now()
	defer func() { s.UpdatedAt = now }()

	if input.IsDialString(t.Input) {
		s.ResetOrder()
		s.LastTurn = nil
		return c.mainMenu(s, "")
	}

	if reply, ok := c.replay(s, t.Input, now); ok {
		c.logger.Warn().
			Str("msisdn", s.Subscriber).
			Str("session_id", s.ID).
			Str("state", s.State.String()).
			Msg("repeated checkout input, replaying response")
		return reply
	}
	s.LastTurn = nil

	if !s.State.IsValid() {
		c.logger.Warn().Str("msisdn", s.Subscriber).Str("state", s.State.String()).Msg("unknown session state, restarting")
		s.ResetOrder()
		return c.mainMenu(s, "")
	}

	reply := c.handlers[s.State](ctx, s, t)
	if !reply.Continue {
		// the next turn of this subscriber starts a fresh dialogue
		s.ResetOrder()
	}
	if s.LastTurn != nil {
		s.LastTurn.State = s.State
	}
	return reply
}

func (c *Controller) replay(s *domain.Session, in string, now time.Time) (domain.Reply, bool) {
	last := s.LastTurn
	if last == nil || last.Input != in || last.State != s.State {
		return domain.Reply{}, false
	}
	if now.Sub(last.At) > c.opts.ReplayWindow {
		return domain.Reply{}, false
	}
	return domain.Reply{Text: last.Prompt, Continue: last.Continue}, true
}

// remember stores a checkout reply so a repeated delivery of the same input
// is answered again instead of being read as the next step.
func (c *Controller) remember(s *domain.Session, in string, reply domain.Reply) {
	s.LastTurn = &domain.TurnRecord{
		Input:    in,
		Prompt:   reply.Text,
		Continue: reply.Continue,
		At:       c.now(),
	}
}

func prompt(text string) domain.Reply {
	return domain.Reply{Text: text, Continue: true}
}

func end(text string) domain.Reply {
	return domain.Reply{Text: text, Continue: false}
}

// menuIndex accepts only canonical positive numbers, so "01" or "+1" never
// select an entry.
func menuIndex(in string) (int, bool) {
	n, err := strconv.Atoi(in)
	if err != nil || n < 1 || strconv.Itoa(n) != in {
		return 0, false
	}
	return n, true
}
