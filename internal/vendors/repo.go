package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

// Repository manages vendor rows and their credit balance. Balance moves
// only through the conditional updates here so concurrent writers can never
// push credit_used below zero or above the limit.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	ReduceCreditUsed(ctx context.Context, id uuid.UUID, principal int64) error
	AddCreditUsed(ctx context.Context, id uuid.UUID, amount int64) error
	SaveCreditHistory(ctx context.Context, id uuid.UUID, history models.VendorCreditHistory) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a vendor repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// LockByID reads the vendor under SELECT ... FOR UPDATE. Callers must hold a
// transaction; repayment initiation uses this to serialize concurrent
// attempts against the same vendor. SQLite has no row locks and serializes
// writers itself, so the clause is applied on Postgres only.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var vendor models.Vendor
	if err := query.First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// ReduceCreditUsed pays down the vendor's used credit by exactly principal.
// The guard in the WHERE clause keeps the balance from going negative even
// when two completions race.
func (r *repository) ReduceCreditUsed(ctx context.Context, id uuid.UUID, principal int64) error {
	if principal <= 0 {
		return apperrors.New(apperrors.CodeValidation, "principal must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ? AND credit_used_paise >= ?", id, principal).
		Update("credit_used_paise", gorm.Expr("credit_used_paise - ?", principal))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeStateConflict, "credit used is below the repaid principal")
	}
	return nil
}

// AddCreditUsed draws down the credit line, refusing to exceed the limit.
func (r *repository) AddCreditUsed(ctx context.Context, id uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ? AND credit_used_paise + ? <= credit_limit_paise", id, amount).
		Update("credit_used_paise", gorm.Expr("credit_used_paise + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeStateConflict, "credit limit exceeded")
	}
	return nil
}

func (r *repository) SaveCreditHistory(ctx context.Context, id uuid.UUID, history models.VendorCreditHistory) error {
	return r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ch_total_credit_taken_paise":     history.TotalCreditTaken,
			"ch_total_repaid_paise":           history.TotalRepaid,
			"ch_total_discounts_earned_paise": history.TotalDiscountsEarned,
			"ch_total_interest_paid_paise":    history.TotalInterestPaid,
			"ch_avg_repayment_days":           history.AvgRepaymentDays,
			"ch_on_time_repayments":           history.OnTimeRepayments,
			"ch_late_repayments":              history.LateRepayments,
			"ch_total_repayments":             history.TotalRepayments,
			"ch_last_repayment_days":          history.LastRepaymentDays,
			"ch_last_repayment_at":            history.LastRepaymentAt,
			"ch_credit_score":                 history.CreditScore,
		}).Error
}
