package flow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/pricing"
)

const defaultCustomOrderType = "Other"

func (c *Controller) showCustomOrderTypes() domain.Reply {
	var b strings.Builder
	b.WriteString("Select a custom order type:\n")
	for i, typ := range c.catalog.CustomOrderTypes() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, typ)
	}
	b.WriteString("#. Back")
	return prompt(b.String())
}

func (c *Controller) customOrderPrompt(s *domain.Session) domain.Reply {
	if s.CustomOrderType == "" {
		return prompt("Enter custom order details (min 10 chars):\n#. Back")
	}
	return prompt(fmt.Sprintf("Enter details for '%s':\n#. Back", s.CustomOrderType))
}

func (c *Controller) handleCustomOrderType(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if t.Input == back {
		s.CustomOrderType = ""
		return c.mainMenu(s, "")
	}
	if n, ok := menuIndex(t.Input); ok {
		if typ, ok := c.catalog.CustomOrderTypeAt(n); ok {
			s.CustomOrderType = typ
			s.State = domain.StateCustomOrder
			return c.customOrderPrompt(s)
		}
	}
	return c.showCustomOrderTypes()
}

func (c *Controller) handleCustomOrder(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if t.Input == back {
		s.CustomOrder = ""
		s.State = domain.StateCustomOrderType
		return c.showCustomOrderTypes()
	}

	details := strings.TrimSpace(t.Input)
	if utf8.RuneCountInString(details) < minCustomOrderLength {
		return prompt("Enter custom order details (min 10 chars):\n#. Back")
	}

	s.CustomOrder = details
	s.State = domain.StateDelivery
	return prompt(locationPrompt)
}

func (c *Controller) showCustomConfirm(s *domain.Session) domain.Reply {
	q := c.pricing.Quote(s)
	s.Total = q.Total
	ensureCheckoutToken(s)

	typ := s.CustomOrderType
	if typ == "" {
		typ = defaultCustomOrderType
	}
	summary := s.CustomOrder
	if utf8.RuneCountInString(summary) > customSummaryLength {
		summary = string([]rune(summary)[:customSummaryLength]) + "..."
	}

	return prompt(fmt.Sprintf("Custom Order (%s):\n%s\nLocation:%s\nDelivery: GHS %s\n1. Confirm\n2. Cancel",
		typ, summary, s.DeliveryLocation, pricing.Money(q.DeliveryFee)))
}

func (c *Controller) handleCustomConfirm(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if s.CustomOrder == "" {
		return c.cancel(s)
	}
	switch t.Input {
	case "1":
		return c.confirmed(ctx, s, t)
	case "2":
		return c.cancel(s)
	case back:
		s.State = domain.StateDelivery
		return prompt(locationPrompt)
	default:
		return c.showCustomConfirm(s)
	}
}
