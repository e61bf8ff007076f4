package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/cart"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/payments"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/config"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/metrics"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartReader interface {
	Snapshot(ctx context.Context, buyerID uuid.UUID) (*cart.Cart, error)
}

type productGateway interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type orderWriter interface {
	Insert(ctx context.Context, order *models.Order) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Input carries the buyer's submitted shipping and payment details.
type Input struct {
	PaymentMethod enums.PaymentMethod
	ShippingName  string
	ShippingEmail string
	ShippingPhone string
	ShippingAddr  string
	Notes         *string
}

// Result reports the checkout outcome. ConfirmationNumber is the first
// committed order's id. FailedProduct is set when a later line's commit
// failed after earlier lines were already committed; those stay committed.
type Result struct {
	CheckoutID         uuid.UUID           `json:"checkout_id"`
	ConfirmationNumber uuid.UUID           `json:"confirmation_number"`
	OrderIDs           []uuid.UUID         `json:"order_ids"`
	TotalAmount        int64               `json:"total_amount"`
	Status             enums.OrderStatus   `json:"status"`
	RedirectURL        string              `json:"redirect_url,omitempty"`
	PaymentFee         int64               `json:"payment_fee,omitempty"`
	FailedProduct      string              `json:"failed_product,omitempty"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method"`
}

// Partial reports whether a later line failed after the first commit.
func (r *Result) Partial() bool {
	return r.FailedProduct != ""
}

// Service converts a non-empty cart into persisted orders.
type Service interface {
	Execute(ctx context.Context, buyerID uuid.UUID, input Input) (*Result, error)
}

type service struct {
	cart        cartReader
	products    productGateway
	orders      orderWriter
	strategy    payments.Strategy
	tx          txRunner
	outbox      outboxPublisher
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
	stepTimeout time.Duration
}

// NewService builds the checkout engine.
func NewService(
	cartReader cartReader,
	products productGateway,
	orders orderWriter,
	strategy payments.Strategy,
	tx txRunner,
	publisher outboxPublisher,
	checkoutMetrics *metrics.CheckoutMetrics,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if cartReader == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product gateway required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if strategy == nil {
		return nil, fmt.Errorf("payment strategy required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if checkoutMetrics == nil {
		return nil, fmt.Errorf("checkout metrics required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	stepTimeout := cfg.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = 10 * time.Second
	}
	return &service{
		cart:        cartReader,
		products:    products,
		orders:      orders,
		strategy:    strategy,
		tx:          tx,
		outbox:      publisher,
		metrics:     checkoutMetrics,
		logg:        logg,
		stepTimeout: stepTimeout,
	}, nil
}

// Execute runs the full validate-all-then-commit workflow. Validation is
// all-or-nothing; the commit loop is sequential and keeps earlier lines
// committed when a later line fails.
func (s *service) Execute(ctx context.Context, buyerID uuid.UUID, input Input) (*Result, error) {
	started := time.Now()

	if err := s.checkPreconditions(buyerID, input); err != nil {
		s.metrics.IncFailure("precondition")
		return nil, err
	}

	snapshot, err := s.cart.Snapshot(ctx, buyerID)
	if err != nil {
		s.metrics.IncFailure("cart_load")
		return nil, err
	}
	if snapshot.IsEmpty() {
		s.metrics.IncFailure("empty_cart")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	for _, line := range snapshot.Lines {
		if line.ProductID == uuid.Nil {
			s.metrics.IncFailure("invalid_product_ref")
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains an invalid product reference")
		}
	}

	checkoutID := uuid.New()
	logCtx := s.logg.WithCheckoutID(s.logg.WithBuyerID(ctx, buyerID.String()), checkoutID.String())

	if err := s.validateAll(logCtx, snapshot.Lines); err != nil {
		s.metrics.IncFailure("validation")
		return nil, err
	}

	result, err := s.commit(logCtx, buyerID, checkoutID, snapshot.Lines, input)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveDuration(string(input.PaymentMethod), time.Since(started))
	s.metrics.IncCommitted(string(input.PaymentMethod))
	return result, nil
}

func (s *service) checkPreconditions(buyerID uuid.UUID, input Input) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	missing := make([]string, 0, 4)
	for field, value := range map[string]string{
		"name":    input.ShippingName,
		"email":   input.ShippingEmail,
		"phone":   input.ShippingPhone,
		"address": input.ShippingAddr,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("shipping details incomplete: %s required", strings.Join(missing, ", ")))
	}
	return nil
}

// validateAll re-fetches every product and rejects the whole checkout if any
// line fails, reporting all failing lines at once. Nothing is persisted here;
// the atomic decrement at commit time is the real safety boundary.
func (s *service) validateAll(ctx context.Context, lines []cart.Line) error {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	var rows []models.Product
	err := s.step(ctx, func(stepCtx context.Context) error {
		var stepErr error
		rows, stepErr = s.products.FindByIDs(stepCtx, ids)
		return stepErr
	})
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	var lineErrs error
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		switch {
		case !ok:
			lineErrs = multierr.Append(lineErrs, fmt.Errorf("%s: product not found", line.ProductName))
		case !product.IsActive:
			lineErrs = multierr.Append(lineErrs, fmt.Errorf("%s: no longer available", product.Name))
		case line.Quantity > product.Stock:
			lineErrs = multierr.Append(lineErrs, fmt.Errorf("%s: requested %d, only %d in stock",
				product.Name, line.Quantity, product.Stock))
		}
	}
	if lineErrs != nil {
		messages := make([]string, 0, len(multierr.Errors(lineErrs)))
		for _, lineErr := range multierr.Errors(lineErrs) {
			messages = append(messages, lineErr.Error())
		}
		return pkgerrors.New(pkgerrors.CodeConflict,
			"checkout rejected: "+strings.Join(messages, "; "))
	}
	return nil
}

// commit processes the lines sequentially: insert the pending order, take
// the stock, cancel that order and stop if the stock is gone. Lines already
// committed stay committed.
func (s *service) commit(ctx context.Context, buyerID, checkoutID uuid.UUID, lines []cart.Line, input Input) (*Result, error) {
	committed := make([]*models.Order, 0, len(lines))
	failedProduct := ""

	for _, line := range lines {
		order := s.buildOrder(buyerID, checkoutID, line, input)

		err := s.step(ctx, func(stepCtx context.Context) error {
			_, stepErr := s.orders.Insert(stepCtx, order)
			return stepErr
		})
		if err != nil {
			s.logg.Error(ctx, fmt.Sprintf("order insert failed for %s", line.ProductName), err)
			if len(committed) == 0 {
				s.metrics.IncFailure("order_insert")
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
					fmt.Sprintf("could not create order for %s", line.ProductName))
			}
			failedProduct = line.ProductName
			break
		}

		err = s.step(ctx, func(stepCtx context.Context) error {
			return s.products.DecrementStock(stepCtx, line.ProductID, line.Quantity)
		})
		if err != nil {
			s.compensate(ctx, order, err)
			if len(committed) == 0 {
				s.metrics.IncFailure("reservation")
				return nil, err
			}
			failedProduct = line.ProductName
			break
		}

		committed = append(committed, order)
	}

	total := int64(0)
	orderIDs := make([]uuid.UUID, 0, len(committed))
	for _, order := range committed {
		total += order.TotalPrice
		orderIDs = append(orderIDs, order.ID)
	}

	result := &Result{
		CheckoutID:         checkoutID,
		ConfirmationNumber: committed[0].ID,
		OrderIDs:           orderIDs,
		TotalAmount:        total,
		Status:             enums.OrderStatusPendingPayment,
		FailedProduct:      failedProduct,
		PaymentMethod:      input.PaymentMethod,
	}

	outcome, err := s.settle(ctx, buyerID, checkoutID, total, input)
	if err != nil {
		s.metrics.IncFailure("payment")
		return nil, err
	}
	if outcome.Settled {
		s.markPaid(ctx, committed)
		result.Status = enums.OrderStatusPaid
	} else {
		result.RedirectURL = outcome.RedirectURL
		result.PaymentFee = outcome.Fee
	}

	s.emitCreated(ctx, buyerID, checkoutID, committed, input)
	return result, nil
}

func (s *service) buildOrder(buyerID, checkoutID uuid.UUID, line cart.Line, input Input) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		CheckoutID:    checkoutID,
		BuyerID:       buyerID,
		ProductID:     line.ProductID,
		ProductName:   line.ProductName,
		Quantity:      line.Quantity,
		UnitPrice:     line.UnitPrice,
		TotalPrice:    line.UnitPrice * int64(line.Quantity),
		Status:        enums.OrderStatusPendingPayment,
		PaymentMethod: input.PaymentMethod,
		ShippingName:  input.ShippingName,
		ShippingEmail: input.ShippingEmail,
		ShippingPhone: input.ShippingPhone,
		ShippingAddr:  input.ShippingAddr,
		Notes:         input.Notes,
	}
}

// compensate cancels the order whose stock decrement failed. A failed
// cancellation leaves the row pending for reconciliation; only log it.
func (s *service) compensate(ctx context.Context, order *models.Order, cause error) {
	s.logg.Error(ctx, fmt.Sprintf("stock decrement failed for %s, cancelling order", order.ProductName), cause)
	err := s.step(ctx, func(stepCtx context.Context) error {
		return s.orders.UpdateStatus(stepCtx, order.ID, enums.OrderStatusPendingPayment, enums.OrderStatusCancelled)
	})
	if err != nil {
		s.logg.Error(ctx, fmt.Sprintf("compensating cancellation failed for order %s", order.ID), err)
		return
	}
	s.metrics.IncCancelled()
}

func (s *service) settle(ctx context.Context, buyerID, checkoutID uuid.UUID, total int64, input Input) (*payments.Outcome, error) {
	var outcome *payments.Outcome
	err := s.step(ctx, func(stepCtx context.Context) error {
		var stepErr error
		outcome, stepErr = s.strategy.Initiate(stepCtx, payments.InitiateRequest{
			CheckoutID:  checkoutID,
			BuyerID:     buyerID,
			Method:      input.PaymentMethod,
			Amount:      total,
			Description: fmt.Sprintf("SmartShop order %s", checkoutID),
		})
		return stepErr
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// markPaid flips committed orders to paid. Failures are logged and
// swallowed; the order stays pending_payment for later reconciliation.
func (s *service) markPaid(ctx context.Context, committed []*models.Order) {
	for _, order := range committed {
		err := s.step(ctx, func(stepCtx context.Context) error {
			return s.orders.UpdateStatus(stepCtx, order.ID, enums.OrderStatusPendingPayment, enums.OrderStatusPaid)
		})
		if err != nil {
			s.logg.Error(ctx, fmt.Sprintf("paid-status update failed for order %s", order.ID), err)
			continue
		}
		order.Status = enums.OrderStatusPaid
	}
}

func (s *service) emitCreated(ctx context.Context, buyerID, checkoutID uuid.UUID, committed []*models.Order, input Input) {
	linePayloads := make([]outbox.OrderLinePayload, 0, len(committed))
	for _, order := range committed {
		linePayloads = append(linePayloads, outbox.OrderLinePayload{
			OrderID:   order.ID,
			ProductID: order.ProductID,
			Quantity:  order.Quantity,
			Total:     order.TotalPrice,
		})
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateCheckout,
			AggregateID:   checkoutID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: string(enums.UserRoleBuyer)},
			Data: outbox.OrderCreatedData{
				CheckoutID:    checkoutID,
				BuyerID:       buyerID,
				PaymentMethod: string(input.PaymentMethod),
				Lines:         linePayloads,
			},
			Version: 1,
		})
	})
	if err != nil {
		s.logg.Error(ctx, "order.created event emit failed", err)
	}
}

// step runs fn under the engine's per-call timeout and converts deadline
// hits into the dedicated timeout error.
func (s *service) step(ctx context.Context, fn func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	err := fn(stepCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		s.metrics.IncFailure("timeout")
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "checkout step timed out")
	}
	return err
}
