package pricing

import (
	"strings"

	"github.com/fjod/go_ussd/internal/catalog"
	"github.com/fjod/go_ussd/internal/domain"
	"github.com/shopspring/decimal"
)

// Quote is the itemized price of an order in progress.
type Quote struct {
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	ServiceCharge decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
}

// Engine prices sessions against a catalog. It holds no mutable state.
type Engine struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

// DeliveryFee applies the vendor's fee rule. Unknown vendors pay the default fee.
func (e *Engine) DeliveryFee(vendor, location string, itemCount int) decimal.Decimal {
	v, ok := e.catalog.Vendor(vendor)
	if !ok {
		return e.catalog.DefaultFee()
	}
	return RuleFee(v.Fee, location, itemCount)
}

// RuleFee evaluates a single fee rule.
func RuleFee(rule catalog.FeeRule, location string, itemCount int) decimal.Decimal {
	switch rule.Kind {
	case catalog.FeeArea:
		loc := strings.ToLower(location)
		for _, area := range rule.Areas {
			if strings.Contains(loc, strings.ToLower(area.Name)) {
				return area.Fee
			}
		}
		return rule.Other
	case catalog.FeeItemCount:
		if itemCount <= 0 {
			return decimal.Zero
		}
		fee := rule.Base.Add(rule.Step.Mul(decimal.NewFromInt(int64(itemCount - 1))))
		return floorZero(fee)
	default:
		return rule.Flat
	}
}

// Subtotal sums the cart lines.
func Subtotal(cart []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range cart {
		sum = sum.Add(line.Subtotal())
	}
	return sum
}

// Total is subtotal + fee + charge - discount, never below zero.
func Total(subtotal, fee, charge, discount decimal.Decimal) decimal.Decimal {
	return floorZero(subtotal.Add(fee).Add(charge).Sub(discount))
}

// Quote prices the order kind the session is building.
func (e *Engine) Quote(s *domain.Session) Quote {
	switch s.PendingKind() {
	case domain.OrderKindCustom:
		fee := e.catalog.CustomFee()
		return Quote{DeliveryFee: fee, Total: fee}
	case domain.OrderKindTopUp:
		fee := e.catalog.TopUpFee()
		return Quote{
			Subtotal:    s.TopUp.Amount,
			DeliveryFee: fee,
			Total:       s.TopUp.Amount.Add(fee),
		}
	default:
		subtotal := Subtotal(s.Cart)
		fee := e.DeliveryFee(feeVendor(s), s.DeliveryLocation, s.ItemCount())
		charge := e.catalog.ServiceCharge()
		return Quote{
			Subtotal:      subtotal,
			DeliveryFee:   fee,
			ServiceCharge: charge,
			Discount:      s.DiscountAmount,
			Total:         Total(subtotal, fee, charge, s.DiscountAmount),
		}
	}
}

// feeVendor is the vendor of the latest cart line; a mixed cart pays that
// vendor's delivery fee.
func feeVendor(s *domain.Session) string {
	if n := len(s.Cart); n > 0 && s.Cart[n-1].Vendor != "" {
		return s.Cart[n-1].Vendor
	}
	return s.Vendor
}

// Money formats an amount the way prompts show it: "35" or "12.50".
func Money(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0)
	}
	return d.StringFixed(2)
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
