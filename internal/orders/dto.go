package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
)

// OrderDTO is the order row as exposed to controllers.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	CheckoutID    uuid.UUID           `json:"checkout_id"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	ProductID     uuid.UUID           `json:"product_id"`
	ProductName   string              `json:"product_name"`
	Quantity      int                 `json:"quantity"`
	UnitPrice     int64               `json:"unit_price"`
	TotalPrice    int64               `json:"total_price"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	ShippingName  string              `json:"shipping_name"`
	ShippingEmail string              `json:"shipping_email"`
	ShippingPhone string              `json:"shipping_phone"`
	ShippingAddr  string              `json:"shipping_address"`
	Notes         *string             `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// OrderListDTO wraps one page of orders plus the next cursor.
type OrderListDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// CheckoutDTO groups the order rows minted by one checkout. The first row's
// id is the confirmation number shown to the buyer.
type CheckoutDTO struct {
	CheckoutID         uuid.UUID  `json:"checkout_id"`
	ConfirmationNumber uuid.UUID  `json:"confirmation_number"`
	Orders             []OrderDTO `json:"orders"`
	TotalItems         int        `json:"total_items"`
	TotalPrice         int64      `json:"total_price"`
}

func toOrderDTO(order *models.Order) *OrderDTO {
	return &OrderDTO{
		ID:            order.ID,
		CheckoutID:    order.CheckoutID,
		BuyerID:       order.BuyerID,
		ProductID:     order.ProductID,
		ProductName:   order.ProductName,
		Quantity:      order.Quantity,
		UnitPrice:     order.UnitPrice,
		TotalPrice:    order.TotalPrice,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		ShippingName:  order.ShippingName,
		ShippingEmail: order.ShippingEmail,
		ShippingPhone: order.ShippingPhone,
		ShippingAddr:  order.ShippingAddr,
		Notes:         order.Notes,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

func toOrderListDTO(result *ListResult) *OrderListDTO {
	dtos := make([]OrderDTO, 0, len(result.Orders))
	for i := range result.Orders {
		dtos = append(dtos, *toOrderDTO(&result.Orders[i]))
	}
	return &OrderListDTO{Orders: dtos, NextCursor: result.NextCursor}
}

func toCheckoutDTO(rows []models.Order) *CheckoutDTO {
	dto := &CheckoutDTO{
		CheckoutID:         rows[0].CheckoutID,
		ConfirmationNumber: rows[0].ID,
		Orders:             make([]OrderDTO, 0, len(rows)),
	}
	for i := range rows {
		dto.Orders = append(dto.Orders, *toOrderDTO(&rows[i]))
		dto.TotalItems += rows[i].Quantity
		dto.TotalPrice += rows[i].TotalPrice
	}
	return dto
}
