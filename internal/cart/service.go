package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
)

// CartDTO is the cart view returned to controllers, totals always fresh.
type CartDTO struct {
	Lines      []Line `json:"lines"`
	TotalItems int    `json:"total_items"`
	TotalPrice int64  `json:"total_price"`
}

// SetQuantityResult reports whether the requested quantity was clamped.
type SetQuantityResult struct {
	Cart    *CartDTO `json:"cart"`
	Clamped bool     `json:"clamped"`
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the cart operations.
type Service interface {
	Add(ctx context.Context, buyerID, productID uuid.UUID, qty int) (*CartDTO, error)
	Remove(ctx context.Context, buyerID, productID uuid.UUID) (*CartDTO, error)
	SetQuantity(ctx context.Context, buyerID, productID uuid.UUID, qty int) (*SetQuantityResult, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
	Get(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	Snapshot(ctx context.Context, buyerID uuid.UUID) (*Cart, error)
}

type service struct {
	store    *Store
	products productReader
	logg     *logger.Logger
}

// NewService constructs a cart service instance.
func NewService(store *Store, products productReader, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, products: products, logg: logg}, nil
}

// Add merges qty into an existing line or appends a new one. The merged
// quantity is checked against live stock before anything is mutated.
func (s *service) Add(ctx context.Context, buyerID, productID uuid.UUID, qty int) (*CartDTO, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	requested := qty
	if line := cart.findLine(productID); line != nil {
		requested += line.Quantity
	}
	if requested > product.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("insufficient stock for %s: requested %d, available %d", product.Name, requested, product.Stock))
	}

	if line := cart.findLine(productID); line != nil {
		line.Quantity = requested
	} else {
		cart.Lines = append(cart.Lines, Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    qty,
		})
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return toDTO(cart), nil
}

// Remove deletes the line unconditionally; an absent line is a no-op.
func (s *service) Remove(ctx context.Context, buyerID, productID uuid.UUID) (*CartDTO, error) {
	cart, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if cart.removeLine(productID) {
		if err := s.store.Save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return toDTO(cart), nil
}

// SetQuantity clamps the requested quantity to [1, stock]. An absent line is
// a no-op; a request above stock is applied clamped and reported.
func (s *service) SetQuantity(ctx context.Context, buyerID, productID uuid.UUID, qty int) (*SetQuantityResult, error) {
	cart, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	line := cart.findLine(productID)
	if line == nil {
		return &SetQuantityResult{Cart: toDTO(cart)}, nil
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	clamped := false
	if qty < 1 {
		qty = 1
		clamped = true
	}
	if qty > product.Stock {
		qty = product.Stock
		clamped = true
	}
	if qty < 1 {
		// Stock drained to zero while the line sat in the cart.
		cart.removeLine(productID)
		if err := s.store.Save(ctx, cart); err != nil {
			return nil, err
		}
		return &SetQuantityResult{Cart: toDTO(cart), Clamped: true}, nil
	}

	line.Quantity = qty
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return &SetQuantityResult{Cart: toDTO(cart), Clamped: clamped}, nil
}

// Clear empties the buyer's cart.
func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	return s.store.Clear(ctx, buyerID)
}

// Get returns the cart with totals recomputed from the current lines.
func (s *service) Get(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return toDTO(cart), nil
}

// Snapshot returns the raw cart for the checkout engine.
func (s *service) Snapshot(ctx context.Context, buyerID uuid.UUID) (*Cart, error) {
	return s.store.Load(ctx, buyerID)
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s is no longer available", product.Name))
	}
	return product, nil
}

func toDTO(cart *Cart) *CartDTO {
	totals := cart.Totals()
	lines := cart.Lines
	if lines == nil {
		lines = []Line{}
	}
	return &CartDTO{
		Lines:      lines,
		TotalItems: totals.TotalItems,
		TotalPrice: totals.TotalPrice,
	}
}
