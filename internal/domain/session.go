package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	MaxQuantity = 20
)

// MenuItem is a purchasable item with its unit price.
type MenuItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CartLine is one (item, quantity, vendor) entry of a cart.
type CartLine struct {
	Item     MenuItem `json:"item"`
	Quantity int      `json:"quantity"`
	Vendor   string   `json:"vendor"`
}

// Subtotal is the unit price times the quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CylinderSize is a gas cylinder option with its minimum top-up amount.
type CylinderSize struct {
	Label   string          `json:"label"`
	Minimum decimal.Decimal `json:"minimum"`
}

// TopUp holds the parameters of a gas filling order in progress.
type TopUp struct {
	Size     CylinderSize    `json:"size"`
	Amount   decimal.Decimal `json:"amount"`
	Location string          `json:"location"`
}

// PendingPayment is an emitted order whose push payment was rejected.
type PendingPayment struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
	Kind    OrderKind       `json:"kind"`
	Reason  string          `json:"reason"`
}

// TurnRecord remembers a turn that moved a checkout forward so a retried
// delivery of the same input can be replayed. State is where that turn left
// the session; a replay only happens while the session is still there.
type TurnRecord struct {
	Input    string    `json:"input"`
	Prompt   string    `json:"prompt"`
	Continue bool      `json:"continue"`
	State    State     `json:"state"`
	At       time.Time `json:"at"`
}

// Session is the per-subscriber dialogue record.
type Session struct {
	ID               string          `json:"id"`
	Subscriber       string          `json:"subscriber"`
	State            State           `json:"state"`
	Cart             []CartLine      `json:"cart"`
	Vendor           string          `json:"vendor"`
	SelectedItem     *MenuItem       `json:"selected_item,omitempty"`
	DeliveryLocation string          `json:"delivery_location"`
	CustomOrder      string          `json:"custom_order"`
	CustomOrderType  string          `json:"custom_order_type"`
	DeliveryNote     string          `json:"delivery_note"`
	DiscountCode     string          `json:"discount_code"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	Total            decimal.Decimal `json:"total"`
	TopUp            *TopUp          `json:"top_up,omitempty"`
	CheckoutToken    string          `json:"checkout_token"`
	PendingPayment   *PendingPayment `json:"pending_payment,omitempty"`
	History          []Receipt       `json:"history"`
	LastTurn         *TurnRecord     `json:"last_turn,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewSession returns the default record created on first contact.
func NewSession(subscriber, id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		Subscriber: subscriber,
		State:      StateMainMenu,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ItemCount is the total number of units in the cart.
func (s *Session) ItemCount() int {
	count := 0
	for _, line := range s.Cart {
		count += line.Quantity
	}
	return count
}

// ClearDiscount drops any applied discount code.
func (s *Session) ClearDiscount() {
	s.DiscountCode = ""
	s.DiscountAmount = decimal.Zero
}

// ResetOrder clears every field of the order attempt in progress and returns
// to the main menu. Order history survives.
func (s *Session) ResetOrder() {
	s.State = StateMainMenu
	s.Cart = nil
	s.Vendor = ""
	s.SelectedItem = nil
	s.DeliveryLocation = ""
	s.CustomOrder = ""
	s.CustomOrderType = ""
	s.DeliveryNote = ""
	s.ClearDiscount()
	s.Total = decimal.Zero
	s.TopUp = nil
	s.CheckoutToken = ""
	s.PendingPayment = nil
}

// PendingKind derives the order kind from the fields in progress.
func (s *Session) PendingKind() OrderKind {
	switch {
	case s.CustomOrder != "":
		return OrderKindCustom
	case s.TopUp != nil:
		return OrderKindTopUp
	default:
		return OrderKindRegular
	}
}

// HasReceipt reports whether an order was already emitted for the checkout token.
func (s *Session) HasReceipt(token string) (Receipt, bool) {
	if token == "" {
		return Receipt{}, false
	}
	for _, r := range s.History {
		if r.CheckoutToken == token {
			return r, true
		}
	}
	return Receipt{}, false
}

// RecentReceipts returns up to n latest receipts, oldest first.
func (s *Session) RecentReceipts(n int) []Receipt {
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}
