package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/outbox"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// InventoryReleaser returns committed stock when an order is cancelled.
type InventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Service defines order reads and lifecycle transitions.
type Service interface {
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderListDTO, error)
	GetBuyerOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDTO, error)
	GetBuyerCheckout(ctx context.Context, buyerID, checkoutID uuid.UUID) (*CheckoutDTO, error)
	CancelBuyerOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDTO, error)
	ListAllOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderListDTO, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, actor *outbox.ActorRef) (*OrderDTO, error)
	MarkCheckoutPaid(ctx context.Context, checkoutID uuid.UUID) (int, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory InventoryReleaser
	logg      *logger.Logger
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, inventory InventoryReleaser, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    publisher,
		inventory: inventory,
		logg:      logg,
	}, nil
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderListDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	result, err := s.repo.ListByBuyer(ctx, buyerID, params, filters)
	if err != nil {
		return nil, err
	}
	return toOrderListDTO(result), nil
}

func (s *service) GetBuyerOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
	}
	return toOrderDTO(order), nil
}

func (s *service) GetBuyerCheckout(ctx context.Context, buyerID, checkoutID uuid.UUID) (*CheckoutDTO, error) {
	rows, err := s.repo.FindByCheckoutID(ctx, checkoutID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout orders")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
	}
	if rows[0].BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "checkout does not belong to buyer")
	}
	return toCheckoutDTO(rows), nil
}

// CancelBuyerOrder cancels a single pending order row and returns its stock.
func (s *service) CancelBuyerOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
	}
	if order.Status != enums.OrderStatusPendingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPendingPayment, enums.OrderStatusCancelled); err != nil {
			return err
		}
		if err := s.inventory.Release(ctx, tx, order.ProductID, order.Quantity); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: string(enums.UserRoleBuyer)},
			Data: outbox.OrderStatusData{
				OrderID: order.ID,
				BuyerID: order.BuyerID,
				Status:  string(enums.OrderStatusCancelled),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	return toOrderDTO(order), nil
}

func (s *service) ListAllOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderListDTO, error) {
	result, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, err
	}
	return toOrderListDTO(result), nil
}

// TransitionStatus moves an order along the fulfilment state machine.
func (s *service) TransitionStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, actor *outbox.ActorRef) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", next))
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == next {
		return toOrderDTO(order), nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, next))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatus(ctx, order.ID, order.Status, next); err != nil {
			return err
		}
		event, ok := statusEventFor(next)
		if !ok {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     event,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: outbox.OrderStatusData{
				OrderID: order.ID,
				BuyerID: order.BuyerID,
				Status:  string(next),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = next
	return toOrderDTO(order), nil
}

// MarkCheckoutPaid flips every pending order of the checkout to paid. The
// count of flipped rows is returned; zero means the webhook replayed.
func (s *service) MarkCheckoutPaid(ctx context.Context, checkoutID uuid.UUID) (int, error) {
	rows, err := s.repo.FindByCheckoutID(ctx, checkoutID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout orders")
	}
	if len(rows) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
	}

	updated := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i := range rows {
			if rows[i].Status != enums.OrderStatusPendingPayment {
				continue
			}
			err := repo.UpdateStatus(ctx, rows[i].ID, enums.OrderStatusPendingPayment, enums.OrderStatusPaid)
			if err != nil {
				// A row the buyer cancelled between the read and this write
				// keeps its refund; the rest of the checkout still settles.
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
					continue
				}
				return err
			}
			err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderPaid,
				AggregateType: enums.AggregateOrder,
				AggregateID:   rows[i].ID,
				Data: outbox.OrderStatusData{
					OrderID: rows[i].ID,
					BuyerID: rows[i].BuyerID,
					Status:  string(enums.OrderStatusPaid),
				},
			})
			if err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		logCtx := s.logg.WithCheckoutID(ctx, checkoutID.String())
		s.logg.Info(logCtx, fmt.Sprintf("marked %d order(s) paid", updated))
	}
	return updated, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func statusEventFor(status enums.OrderStatus) (enums.OutboxEventType, bool) {
	switch status {
	case enums.OrderStatusPaid:
		return enums.EventOrderPaid, true
	case enums.OrderStatusCancelled:
		return enums.EventOrderCancelled, true
	default:
		return "", false
	}
}
