package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/pagination"
)

// ListFilters narrow an order listing, for both buyer and admin views.
type ListFilters struct {
	Status     *enums.OrderStatus
	CheckoutID *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// ListResult carries one page of order rows plus the next cursor.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}

// Repository defines persistence operations for order rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCheckoutID(ctx context.Context, checkoutID uuid.UUID) ([]models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*ListResult, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*ListResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) error
}
