package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/pricing"
)

const (
	locationPrompt      = "Enter delivery location:\n#. Back"
	shortLocationPrompt = "Enter delivery location (min 3 chars):\n#. Back"
)

func (c *Controller) showVendors() domain.Reply {
	var b strings.Builder
	b.WriteString("Select Vendor:\n")
	for i, v := range c.catalog.Vendors() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, v.Name)
	}
	b.WriteString("#. Back")
	return prompt(b.String())
}

func (c *Controller) showItems(s *domain.Session) domain.Reply {
	v, ok := c.catalog.Vendor(s.Vendor)
	if !ok {
		// the catalog changed under a stored session
		s.Vendor = ""
		s.State = domain.StateCategory
		return c.showVendors()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Menu:\n", v.Name)
	for i, it := range v.Items {
		fmt.Fprintf(&b, "%d. %s - GHS %s\n", i+1, it.Name, pricing.Money(it.Price))
	}
	b.WriteString("#. Back")
	return prompt(b.String())
}

func quantityPrompt(item domain.MenuItem) domain.Reply {
	return prompt(fmt.Sprintf("%s selected.\nEnter quantity (%d-%d):\n#. Back", item.Name, domain.MinQuantity, domain.MaxQuantity))
}

func (c *Controller) showCart(s *domain.Session) domain.Reply {
	return prompt(fmt.Sprintf("Cart: %d item(s), GHS %s\n1. Add more\n2. Checkout\n#. Cancel",
		s.ItemCount(), pricing.Money(pricing.Subtotal(s.Cart))))
}

func (c *Controller) handleCategory(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if t.Input == back {
		return c.mainMenu(s, "")
	}
	if n, ok := menuIndex(t.Input); ok {
		if v, ok := c.catalog.VendorAt(n); ok {
			s.Vendor = v.Name
			s.State = domain.StateItem
			return c.showItems(s)
		}
	}
	return c.showVendors()
}

func (c *Controller) handleItem(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if t.Input == back {
		s.State = domain.StateCategory
		return c.showVendors()
	}
	if n, ok := menuIndex(t.Input); ok {
		if it, ok := c.catalog.ItemAt(s.Vendor, n); ok {
			s.SelectedItem = &it
			s.State = domain.StateQuantity
			return quantityPrompt(it)
		}
	}
	return c.showItems(s)
}

func (c *Controller) handleQuantity(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	if s.SelectedItem == nil {
		s.State = domain.StateItem
		return c.showItems(s)
	}
	if t.Input == back {
		s.SelectedItem = nil
		s.State = domain.StateItem
		return c.showItems(s)
	}

	qty, err := strconv.Atoi(t.Input)
	if err != nil || qty < domain.MinQuantity || qty > domain.MaxQuantity {
		return quantityPrompt(*s.SelectedItem)
	}

	item := *s.SelectedItem
	s.Cart = append(s.Cart, domain.CartLine{Item: item, Quantity: qty, Vendor: s.Vendor})
	s.SelectedItem = nil
	s.State = domain.StateCart
	return prompt(fmt.Sprintf("%d x %s added to cart.\n1. Add more\n2. Checkout\n#. Cancel", qty, item.Name))
}

func (c *Controller) handleCart(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	switch t.Input {
	case "1":
		s.State = domain.StateCategory
		return c.showVendors()
	case "2":
		s.State = domain.StateDelivery
		return prompt(locationPrompt)
	case back:
		return c.cancel(s)
	default:
		return c.showCart(s)
	}
}

func validLocation(in string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(in)) >= minLocationLength
}

func (c *Controller) handleDelivery(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	custom := s.CustomOrder != ""

	if t.Input == back {
		s.DeliveryLocation = ""
		if custom {
			s.State = domain.StateCustomOrder
			return c.customOrderPrompt(s)
		}
		s.State = domain.StateCart
		return c.showCart(s)
	}
	if !validLocation(t.Input) {
		return prompt(shortLocationPrompt)
	}

	s.DeliveryLocation = strings.TrimSpace(t.Input)
	switch {
	case custom:
		s.State = domain.StateCustomConfirm
		return c.showCustomConfirm(s)
	case c.opts.DiscountPrompt:
		s.State = domain.StateDiscountAsk
		return c.showDiscountAsk(s)
	default:
		s.ClearDiscount()
		s.State = domain.StateConfirm
		return c.showConfirm(s, "")
	}
}

// cartSummary lists the first two lines and counts the rest.
func cartSummary(cart []domain.CartLine) string {
	parts := make([]string, 0, 3)
	for i, line := range cart {
		if i == 2 {
			parts = append(parts, fmt.Sprintf("+%d more", len(cart)-2))
			break
		}
		parts = append(parts, fmt.Sprintf("%dx%s", line.Quantity, line.Item.Name))
	}
	return strings.Join(parts, ", ")
}

func (c *Controller) showDiscountAsk(s *domain.Session) domain.Reply {
	q := c.pricing.Quote(s)
	s.Total = q.Total
	return prompt(fmt.Sprintf("%s\nDelivery: GHS %s Service: GHS %s\nLocation: %s\nTotal: GHS %s\nDiscount code?\n1. Yes\n2. No",
		cartSummary(s.Cart),
		pricing.Money(q.DeliveryFee),
		pricing.Money(q.ServiceCharge),
		s.DeliveryLocation,
		pricing.Money(q.Total),
	))
}

func (c *Controller) handleDiscountAsk(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	switch t.Input {
	case "1":
		s.State = domain.StateDiscountEnter
		return prompt("Enter your discount code:\n#. Back")
	case "2":
		s.ClearDiscount()
		s.State = domain.StateConfirm
		return c.showConfirm(s, "")
	case back:
		s.ClearDiscount()
		s.State = domain.StateDelivery
		return prompt(locationPrompt)
	default:
		return prompt("Discount code?\n1. Yes\n2. No")
	}
}

func (c *Controller) handleDiscountEnter(_ context.Context, s *domain.Session, t domain.Turn) domain.Reply {
	code := strings.ToUpper(strings.TrimSpace(t.Input))

	if code == "0" || code == back {
		s.ClearDiscount()
		s.State = domain.StateConfirm
		return c.showConfirm(s, "")
	}

	amount, ok := c.catalog.Discount(code)
	if !ok {
		return prompt("Invalid code. Try again or enter 0 to skip:\n#. Back")
	}

	s.DiscountCode = code
	s.DiscountAmount = amount
	s.State = domain.StateConfirm
	return c.showConfirm(s, fmt.Sprintf("Discount applied: GHS %s off!\n", pricing.Money(amount)))
}
