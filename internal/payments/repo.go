package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db/models"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
)

// Repository defines persistence for hosted payment sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error)
	FindByCheckoutID(ctx context.Context, checkoutID uuid.UUID) (*models.PaymentSession, error)
	UpdateStatusByCheckout(ctx context.Context, checkoutID uuid.UUID, status enums.PaymentStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payment session repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) FindByCheckoutID(ctx context.Context, checkoutID uuid.UUID) (*models.PaymentSession, error) {
	var session models.PaymentSession
	if err := r.db.WithContext(ctx).First(&session, "checkout_id = ?", checkoutID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateStatusByCheckout moves the session forward; terminal sessions are
// left alone so webhook replays stay idempotent.
func (r *repository) UpdateStatusByCheckout(ctx context.Context, checkoutID uuid.UUID, status enums.PaymentStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("checkout_id = ? AND status = ?", checkoutID, enums.PaymentStatusPending).
		Update("status", status)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update payment session")
	}
	return res.RowsAffected, nil
}
