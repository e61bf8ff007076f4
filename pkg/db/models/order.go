package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
)

// Order is one checkout line persisted as its own row. Rows minted by the
// same checkout share a checkout_id and duplicate the shipping snapshot; the
// first row's id doubles as the user-facing confirmation number.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID    uuid.UUID           `gorm:"column:checkout_id;type:uuid;not null;index"`
	BuyerID       uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	ProductName   string              `gorm:"column:product_name;not null"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	UnitPrice     int64               `gorm:"column:unit_price;not null"`
	TotalPrice    int64               `gorm:"column:total_price;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending_payment'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	ShippingName  string              `gorm:"column:shipping_name;not null"`
	ShippingEmail string              `gorm:"column:shipping_email;not null"`
	ShippingPhone string              `gorm:"column:shipping_phone;not null"`
	ShippingAddr  string              `gorm:"column:shipping_address;not null"`
	Notes         *string             `gorm:"column:notes"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
