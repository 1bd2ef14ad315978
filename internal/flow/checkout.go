package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/payment"
	"github.com/fjod/go_ussd/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	deliveryNotePrompt = "Enter delivery note for rider (optional, max 100 chars). Or press 0 to skip:"
	orderFailedText    = "Sorry, we could not place your order. Please try again."
	gatewayDownReason  = "service unavailable"
)

// ensureCheckoutToken gives the checkout attempt its identity the first time
// a confirmation screen is shown. Emitting is refused for a token that
// already produced an order.
func ensureCheckoutToken(s *domain.Session) {
	if s.CheckoutToken == "" {
		s.CheckoutToken = uuid.NewString()
	}
}

func (c *Controller) showConfirm(s *domain.Session, prefix string) domain.Reply {
	q := c.pricing.Quote(s)
	s.Total = q.Total
	ensureCheckoutToken(s)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(cartSummary(s.Cart))
	fmt.Fprintf(&b, "\nDelivery: GHS %s Service: GHS %s", pricing.Money(q.DeliveryFee), pricing.Money(q.ServiceCharge))
	if s.DiscountCode != "" {
		fmt.Fprintf(&b, " Discount:-%s", pricing.Money(q.Discount))
	}
	fmt.Fprintf(&b, "\nLocation:%s\nTotal: GHS %s\n1. Confirm\n2. Cancel", s.DeliveryLocation, pricing.Money(q.Total))
	return prompt(b.String())
}

func (c *Controller) handleConfirm(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if len(s.Cart) == 0 {
		return c.cancel(s)
	}
	switch t.Input {
	case "1":
		return c.confirmed(ctx, s, t)
	case "2":
		return c.cancel(s)
	case back:
		if c.opts.DiscountPrompt {
			s.State = domain.StateDiscountAsk
			return c.showDiscountAsk(s)
		}
		s.State = domain.StateDelivery
		return prompt(locationPrompt)
	default:
		return c.showConfirm(s, "")
	}
}

// confirmed moves on from any confirmation screen. The note prompt is
// remembered so a retried confirm is not taken as the rider note.
func (c *Controller) confirmed(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if c.opts.DeliveryNotePrompt {
		s.State = domain.StateDeliveryNote
		reply := prompt(deliveryNotePrompt)
		c.remember(s, t.Input, reply)
		return reply
	}
	return c.finalize(ctx, s, t)
}

func (c *Controller) handleDeliveryNote(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if t.Input == back {
		switch s.PendingKind() {
		case domain.OrderKindCustom:
			s.State = domain.StateCustomConfirm
			return c.showCustomConfirm(s)
		case domain.OrderKindTopUp:
			s.State = domain.StateTopUpConfirm
			return c.showTopUpConfirm(s)
		default:
			s.State = domain.StateConfirm
			return c.showConfirm(s, "")
		}
	}

	note := strings.TrimSpace(t.Input)
	if note == "0" {
		note = ""
	}
	if r := []rune(note); len(r) > maxNoteLength {
		note = string(r[:maxNoteLength])
	}
	s.DeliveryNote = note

	return c.finalize(ctx, s, t)
}

// finalize emits the order and collects payment. A terminal reply is
// remembered so a repeated delivery of the same input is replayed.
func (c *Controller) finalize(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	kind := s.PendingKind()

	receipt, err := c.emitter.Emit(ctx, s, t.UserID, kind)
	if err != nil {
		c.logger.Error().Err(err).Str("msisdn", s.Subscriber).Str("order_type", string(kind)).Msg("failed to create order")
		return end(orderFailedText)
	}

	var reply domain.Reply
	if c.payments == nil {
		reply = end(c.payAtShortcodeText(receipt))
	} else {
		reply = c.collectPayment(ctx, s, receipt)
	}

	if !reply.Continue {
		c.remember(s, t.Input, reply)
	}
	return reply
}

func (c *Controller) payAtShortcodeText(r domain.Receipt) string {
	total := pricing.Money(r.Total)
	switch r.Kind {
	case domain.OrderKindCustom:
		return fmt.Sprintf("Custom Order #%s created!\nPlease dial %s and pay GHS %s for delivery.\nThank you!",
			r.OrderID, c.opts.PaymentShortcode, total)
	case domain.OrderKindTopUp:
		return fmt.Sprintf("Order #%s created!\nPay GHS %s to %s for processing.\nThank you!",
			r.OrderID, total, c.opts.PaymentShortcode)
	default:
		return fmt.Sprintf("Order #%s created!\nPlease dial %s and pay GHS %s for order processing.\nThank you!",
			r.OrderID, c.opts.PaymentShortcode, total)
	}
}

func acceptedText(orderID string, total string, result payment.Result) string {
	if result.DisplayText != "" {
		return fmt.Sprintf("Order #%s created!\n%s", orderID, result.DisplayText)
	}
	return fmt.Sprintf("Order #%s created!\nApprove the GHS %s payment prompt on your phone.\nThank you!", orderID, total)
}

// collectPayment pushes a payment prompt for a fresh order. A failed push
// keeps the order and offers a retry.
func (c *Controller) collectPayment(ctx context.Context, s *domain.Session, r domain.Receipt) domain.Reply {
	provider, ok := payment.ProviderFor(s.Subscriber)
	if !ok {
		c.logger.Warn().Str("msisdn", s.Subscriber).Str("order_id", r.OrderID).Msg("no mobile money provider for number, asking for manual payment")
		return end(c.payAtShortcodeText(r))
	}

	result, err := c.pushPayment(ctx, s.Subscriber, provider, r.OrderID, r.Total)
	if err == nil {
		return end(acceptedText(r.OrderID, pricing.Money(r.Total), result))
	}

	s.ResetOrder()
	s.PendingPayment = &domain.PendingPayment{
		OrderID: r.OrderID,
		Total:   r.Total,
		Kind:    r.Kind,
		Reason:  failureReason(result, err),
	}
	s.State = domain.StatePaymentRetry
	return paymentRetryPrompt(s.PendingPayment)
}

func (c *Controller) pushPayment(ctx context.Context, subscriber string, provider payment.Provider, orderID string, total decimal.Decimal) (payment.Result, error) {
	payCtx, cancel := context.WithTimeout(ctx, c.opts.PaymentTimeout)
	defer cancel()

	result, err := c.payments.InitiatePushPayment(payCtx, payment.PushRequest{
		Subscriber: subscriber,
		Amount:     total,
		Provider:   provider,
		Reference:  orderID,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("msisdn", subscriber).Str("order_id", orderID).Msg("push payment failed")
	}
	return result, err
}

func failureReason(result payment.Result, err error) string {
	if errors.Is(err, payment.ErrRejected) && result.Reason != "" {
		return result.Reason
	}
	return gatewayDownReason
}

func paymentRetryPrompt(p *domain.PendingPayment) domain.Reply {
	return prompt(fmt.Sprintf("Payment failed: %s\n1. Retry\n2. Cancel", p.Reason))
}

func (c *Controller) handlePaymentRetry(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	p := s.PendingPayment
	if p == nil {
		return c.cancel(s)
	}

	switch t.Input {
	case "1":
		if c.payments == nil {
			return end(c.payAtShortcodeText(domain.Receipt{OrderID: p.OrderID, Total: p.Total, Kind: p.Kind}))
		}
		provider, _ := payment.ProviderFor(s.Subscriber)
		result, err := c.pushPayment(ctx, s.Subscriber, provider, p.OrderID, p.Total)
		if err == nil {
			reply := end(acceptedText(p.OrderID, pricing.Money(p.Total), result))
			c.remember(s, t.Input, reply)
			return reply
		}
		p.Reason = failureReason(result, err)
		return paymentRetryPrompt(p)
	case "2":
		reply := end(fmt.Sprintf("Payment cancelled for order #%s.\nDial %s and pay GHS %s to complete it.",
			p.OrderID, c.opts.PaymentShortcode, pricing.Money(p.Total)))
		c.remember(s, t.Input, reply)
		return reply
	default:
		return paymentRetryPrompt(p)
	}
}
