package outbox

import "github.com/google/uuid"

// OrderLinePayload describes one order row inside a checkout-scoped event.
type OrderLinePayload struct {
	OrderID   uuid.UUID `json:"orderId"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Total     int64     `json:"total"`
}

// OrderCreatedData is the data section of an order.created event.
type OrderCreatedData struct {
	CheckoutID    uuid.UUID          `json:"checkoutId"`
	BuyerID       uuid.UUID          `json:"buyerId"`
	PaymentMethod string             `json:"paymentMethod"`
	Lines         []OrderLinePayload `json:"lines"`
}

// OrderStatusData is the data section of order.paid and order.cancelled events.
type OrderStatusData struct {
	OrderID uuid.UUID `json:"orderId"`
	BuyerID uuid.UUID `json:"buyerId"`
	Status  string    `json:"status"`
}
