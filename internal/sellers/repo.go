package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

// Repository manages seller rows and their wallet balance. Credits happen
// through a single atomic update so settlement retries and concurrent
// settlements cannot interleave partial balances.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	CreditWallet(ctx context.Context, id uuid.UUID, amount int64) error
	DebitWallet(ctx context.Context, id uuid.UUID, amount int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a seller repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *repository) CreditWallet(ctx context.Context, id uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperrors.New(apperrors.CodeValidation, "credit amount must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Seller{}).
		Where("id = ?", id).
		Update("wallet_balance_paise", gorm.Expr("wallet_balance_paise + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "seller not found")
	}
	return nil
}

// DebitWallet withdraws from the wallet, refusing to overdraw.
func (r *repository) DebitWallet(ctx context.Context, id uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperrors.New(apperrors.CodeValidation, "debit amount must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Seller{}).
		Where("id = ? AND wallet_balance_paise >= ?", id, amount).
		Update("wallet_balance_paise", gorm.Expr("wallet_balance_paise - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeStateConflict, "insufficient wallet balance")
	}
	return nil
}
