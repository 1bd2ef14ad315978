package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/pricing"
	"github.com/shopspring/decimal"
)

func (c *Controller) showCylinders() domain.Reply {
	var b strings.Builder
	b.WriteString("Select gas cylinder size:\n")
	for i, size := range c.catalog.Cylinders() {
		fmt.Fprintf(&b, "%d. %s (min GHS %s)\n", i+1, size.Label, pricing.Money(size.Minimum))
	}
	b.WriteString("#. Back")
	return prompt(b.String())
}

func amountPrompt(size domain.CylinderSize) domain.Reply {
	return prompt(fmt.Sprintf("%s selected. How much do you want to fill? (in cedis)\n#. Back", size.Label))
}

// restartTopUp recovers a session whose top-up parameters are missing.
func (c *Controller) restartTopUp(s *domain.Session) domain.Reply {
	s.TopUp = nil
	s.State = domain.StateTopUpSize
	return c.showCylinders()
}

func (c *Controller) handleTopUpSize(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if t.Input == back {
		s.TopUp = nil
		return c.mainMenu(s, "")
	}
	if n, ok := menuIndex(t.Input); ok {
		if size, ok := c.catalog.CylinderAt(n); ok {
			s.TopUp = &domain.TopUp{Size: size}
			s.State = domain.StateTopUpAmount
			return amountPrompt(size)
		}
	}
	return c.showCylinders()
}

func (c *Controller) handleTopUpAmount(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if s.TopUp == nil {
		return c.restartTopUp(s)
	}
	if t.Input == back {
		return c.restartTopUp(s)
	}

	n, err := strconv.Atoi(t.Input)
	if err != nil {
		return prompt("Please enter a valid amount in cedis:\n#. Back")
	}
	amount := decimal.NewFromInt(int64(n))
	if amount.LessThan(s.TopUp.Size.Minimum) {
		return prompt(fmt.Sprintf("Minimum for %s is GHS %s. Enter amount (in cedis):\n#. Back",
			s.TopUp.Size.Label, pricing.Money(s.TopUp.Size.Minimum)))
	}

	s.TopUp.Amount = amount
	s.State = domain.StateTopUpLocation
	return prompt(locationPrompt)
}

func (c *Controller) handleTopUpLocation(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if s.TopUp == nil {
		return c.restartTopUp(s)
	}
	if t.Input == back {
		s.TopUp.Amount = decimal.Zero
		s.State = domain.StateTopUpAmount
		return amountPrompt(s.TopUp.Size)
	}
	if !validLocation(t.Input) {
		return prompt(shortLocationPrompt)
	}

	s.TopUp.Location = strings.TrimSpace(t.Input)
	s.State = domain.StateTopUpConfirm
	return c.showTopUpConfirm(s)
}

func (c *Controller) showTopUpConfirm(s *domain.Session) domain.Reply {
	q := c.pricing.Quote(s)
	s.Total = q.Total
	ensureCheckoutToken(s)

	return prompt(fmt.Sprintf("%s gas\nTop-up: GHS %s\nLocation: %s\nDelivery Fee: GHS %s\nTotal: GHS %s\n1. Confirm\n2. Cancel",
		s.TopUp.Size.Label,
		pricing.Money(s.TopUp.Amount),
		s.TopUp.Location,
		pricing.Money(q.DeliveryFee),
		pricing.Money(q.Total),
	))
}

func (c *Controller) handleTopUpConfirm(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if s.TopUp == nil {
		return c.restartTopUp(s)
	}
	switch t.Input {
	case "1":
		return c.confirmed(ctx, s, t)
	case "2":
		return c.cancel(s)
	case back:
		s.State = domain.StateTopUpLocation
		return prompt(locationPrompt)
	default:
		return c.showTopUpConfirm(s)
	}
}
