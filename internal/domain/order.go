package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderKind string

const (
	OrderKindRegular OrderKind = "regular"
	OrderKindCustom  OrderKind = "custom"
	OrderKindTopUp   OrderKind = "topup"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "PROCESSING"
)

type OrderItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
}

// OrderSnapshot represents the full order state at confirmation time
type OrderSnapshot struct {
	ID            string          `json:"order_id"`
	CheckoutToken string          `json:"checkout_token"`
	SubscriberID  string          `json:"msisdn"`
	UserID        string          `json:"user_id"`
	Items         []OrderItem     `json:"items"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	Discount      decimal.Decimal `json:"discount"`
	DiscountCode  string          `json:"discount_code,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Location      string          `json:"delivery_location"`
	Kind          OrderKind       `json:"order_type"`
	DeliveryNote  string          `json:"delivery_note,omitempty"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Receipt is the lightweight record a session keeps per emitted order.
type Receipt struct {
	OrderID       string          `json:"order_id"`
	Total         decimal.Decimal `json:"total"`
	Kind          OrderKind       `json:"order_type"`
	CreatedAt     time.Time       `json:"created_at"`
	CheckoutToken string          `json:"checkout_token,omitempty"`
}

func (o *OrderSnapshot) Receipt() Receipt {
	return Receipt{
		OrderID:       o.ID,
		Total:         o.Total,
		Kind:          o.Kind,
		CreatedAt:     o.CreatedAt,
		CheckoutToken: o.CheckoutToken,
	}
}
