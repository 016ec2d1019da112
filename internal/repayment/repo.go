package repayment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

// Repository manages persistence for credit repayments. Status moves only
// through the conditional mark methods so transitions stay forward-only even
// under concurrent processors.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, repayment *models.CreditRepayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CreditRepayment, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.CreditRepayment, error)
	ListStaleProcessing(ctx context.Context, olderThan time.Time) ([]models.CreditRepayment, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, gatewayRef string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a repayment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, repayment *models.CreditRepayment) error {
	return r.db.WithContext(ctx).Create(repayment).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.CreditRepayment, error) {
	var repayment models.CreditRepayment
	if err := r.db.WithContext(ctx).First(&repayment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &repayment, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.CreditRepayment, error) {
	var repayments []models.CreditRepayment
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&repayments).Error; err != nil {
		return nil, err
	}
	return repayments, nil
}

func (r *repository) ListStaleProcessing(ctx context.Context, olderThan time.Time) ([]models.CreditRepayment, error) {
	var repayments []models.CreditRepayment
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", enums.RepaymentStatusProcessing, olderThan).
		Order("updated_at ASC").
		Find(&repayments).Error; err != nil {
		return nil, err
	}
	return repayments, nil
}

func (r *repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id,
		[]enums.RepaymentStatus{enums.RepaymentStatusPending},
		map[string]any{"status": enums.RepaymentStatusProcessing})
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, gatewayRef string, completedAt time.Time) error {
	return r.transition(ctx, id,
		[]enums.RepaymentStatus{enums.RepaymentStatusProcessing},
		map[string]any{
			"status":       enums.RepaymentStatusCompleted,
			"gateway_ref":  gatewayRef,
			"completed_at": completedAt,
		})
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.transition(ctx, id,
		[]enums.RepaymentStatus{enums.RepaymentStatusPending, enums.RepaymentStatusProcessing},
		map[string]any{
			"status":         enums.RepaymentStatusFailed,
			"failure_reason": reason,
		})
}

func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id,
		[]enums.RepaymentStatus{enums.RepaymentStatusPending, enums.RepaymentStatusProcessing},
		map[string]any{"status": enums.RepaymentStatusCancelled})
}

// transition updates the row only when its current status is one of from.
// Zero rows affected means another worker already moved it on.
func (r *repository) transition(ctx context.Context, id uuid.UUID, from []enums.RepaymentStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.CreditRepayment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeStateConflict, "repayment is not in an eligible status")
	}
	return nil
}
