package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/pricing"
)

func (c *Controller) menuText() string {
	return fmt.Sprintf("Welcome to %s!\n1. Order Food\n2. Gas Filling\n3. Custom Order\n4. My Orders\n5. Help\n6. Campus Sellers\n0. Exit", c.opts.Brand)
}

// mainMenu moves the session to the main menu without touching order fields.
func (c *Controller) mainMenu(s *domain.Session, prefix string) domain.Reply {
	s.State = domain.StateMainMenu
	return prompt(prefix + c.menuText())
}

// cancel drops the order in progress and shows the main menu.
func (c *Controller) cancel(s *domain.Session) domain.Reply {
	s.ResetOrder()
	return c.mainMenu(s, "")
}

func (c *Controller) handleMainMenu(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	switch t.Input {
	case "", back:
		return c.mainMenu(s, "")
	case "1":
		// food orders keep a cart the subscriber backed out of
		s.CustomOrder = ""
		s.CustomOrderType = ""
		s.TopUp = nil
		s.State = domain.StateCategory
		return c.showVendors()
	case "2":
		s.ResetOrder()
		s.State = domain.StateTopUpSize
		return c.showCylinders()
	case "3":
		s.ResetOrder()
		s.State = domain.StateCustomOrderType
		return c.showCustomOrderTypes()
	case "4":
		return c.showRecentOrders(ctx, s)
	case "5":
		return prompt(fmt.Sprintf("Call %s for help.\n#. Back", c.opts.SupportPhone))
	case "6":
		return prompt("Coming Soon!\n#. Back")
	case "0":
		return end(fmt.Sprintf("Thank you for using %s!", c.opts.Brand))
	default:
		return c.mainMenu(s, "Invalid option.\n")
	}
}

func (c *Controller) showRecentOrders(ctx context.Context, s *domain.Session) domain.Reply {
	var receipts []domain.Receipt
	if c.history != nil {
		receipts = c.history.Recent(ctx, s, recentOrdersLimit)
	} else {
		receipts = s.RecentReceipts(recentOrdersLimit)
	}
	if len(receipts) == 0 {
		return prompt("No orders yet.\n#. Back")
	}

	var b strings.Builder
	b.WriteString("Recent Orders:\n")
	for _, r := range receipts {
		fmt.Fprintf(&b, "%s: GHS %s (%s)\n", r.OrderID, pricing.Money(r.Total), r.Kind)
	}
	b.WriteString("#. Back")
	return prompt(b.String())
}
