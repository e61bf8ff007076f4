package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
)

// PaymentSession records one hosted-redirect attempt for a checkout. The
// gateway webhook resolves it; the redirect return leg never does.
type PaymentSession struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID  uuid.UUID           `gorm:"column:checkout_id;type:uuid;not null;uniqueIndex"`
	BuyerID     uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	Provider    string              `gorm:"column:provider;not null"`
	LinkID      string              `gorm:"column:link_id;not null"`
	RedirectURL string              `gorm:"column:redirect_url;not null"`
	Amount      int64               `gorm:"column:amount;not null"`
	Fee         int64               `gorm:"column:fee;not null;default:0"`
	Status      enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
