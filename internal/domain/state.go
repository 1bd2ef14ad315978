package domain

// State is the position of a subscriber inside the ordering dialogue.
type State string

const (
	StateMainMenu        State = "MAIN_MENU"
	StateCategory        State = "CATEGORY"
	StateItem            State = "ITEM"
	StateQuantity        State = "QTY"
	StateCart            State = "CART"
	StateDelivery        State = "DELIVERY"
	StateDiscountAsk     State = "DISCOUNT_ASK"
	StateDiscountEnter   State = "DISCOUNT_ENTER"
	StateConfirm         State = "CONFIRM"
	StateCustomOrderType State = "CUSTOM_ORDER_TYPE"
	StateCustomOrder     State = "CUSTOM_ORDER"
	StateCustomConfirm   State = "CUSTOM_CONFIRM"
	StateTopUpSize       State = "TOPUP_SIZE"
	StateTopUpAmount     State = "TOPUP_AMOUNT"
	StateTopUpLocation   State = "TOPUP_LOCATION"
	StateTopUpConfirm    State = "TOPUP_CONFIRM"
	StateDeliveryNote    State = "DELIVERY_NOTE"
	StatePaymentRetry    State = "PAYMENT_RETRY"
)

// AllStates lists every state the flow controller must handle.
var AllStates = []State{
	StateMainMenu,
	StateCategory,
	StateItem,
	StateQuantity,
	StateCart,
	StateDelivery,
	StateDiscountAsk,
	StateDiscountEnter,
	StateConfirm,
	StateCustomOrderType,
	StateCustomOrder,
	StateCustomConfirm,
	StateTopUpSize,
	StateTopUpAmount,
	StateTopUpLocation,
	StateTopUpConfirm,
	StateDeliveryNote,
	StatePaymentRetry,
}

// IsValid reports whether s is one of the known states.
func (s State) IsValid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}
