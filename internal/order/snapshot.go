package order

import (
	"errors"
	"strings"
	"time"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart     = errors.New("cart is empty, nothing to order")
	ErrMissingTopUp  = errors.New("no gas top-up in progress")
	ErrMissingCustom = errors.New("no custom order details")
)

// NewOrderID returns an 8 character upper-case identifier.
func NewOrderID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// BuildSnapshot captures the order in progress with the prices of the quote.
func BuildSnapshot(s *domain.Session, userID string, kind domain.OrderKind, q pricing.Quote, id string, now time.Time) (*domain.OrderSnapshot, error) {
	snapshot := &domain.OrderSnapshot{
		ID:            id,
		CheckoutToken: s.CheckoutToken,
		SubscriberID:  s.Subscriber,
		UserID:        userID,
		DeliveryFee:   q.DeliveryFee,
		ServiceCharge: q.ServiceCharge,
		Discount:      q.Discount,
		Total:         q.Total,
		Location:      s.DeliveryLocation,
		Kind:          kind,
		DeliveryNote:  s.DeliveryNote,
		Status:        domain.OrderStatusProcessing,
		CreatedAt:     now,
	}

	switch kind {
	case domain.OrderKindCustom:
		if s.CustomOrder == "" {
			return nil, ErrMissingCustom
		}
		orderType := s.CustomOrderType
		if orderType == "" {
			orderType = "Other"
		}
		snapshot.Items = []domain.OrderItem{{
			Name:        orderType,
			Description: s.CustomOrder,
			UnitPrice:   decimal.Zero,
			Quantity:    1,
			Category:    "custom",
		}}
	case domain.OrderKindTopUp:
		if s.TopUp == nil {
			return nil, ErrMissingTopUp
		}
		snapshot.Location = s.TopUp.Location
		snapshot.Items = []domain.OrderItem{{
			Name:      s.TopUp.Size.Label + " gas",
			UnitPrice: s.TopUp.Amount,
			Quantity:  1,
			Category:  "gas",
		}}
	default:
		if len(s.Cart) == 0 {
			return nil, ErrEmptyCart
		}
		snapshot.DiscountCode = s.DiscountCode
		snapshot.Items = make([]domain.OrderItem, 0, len(s.Cart))
		for _, line := range s.Cart {
			snapshot.Items = append(snapshot.Items, domain.OrderItem{
				Name:      line.Item.Name,
				UnitPrice: line.Item.Price,
				Quantity:  line.Quantity,
				Category:  line.Vendor,
			})
		}
	}

	return snapshot, nil
}
