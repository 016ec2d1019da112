package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

// Repository manages persistence for order settlement: orders, vendor
// earnings, and seller commissions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListUnsettled(ctx context.Context, limit int) ([]models.Order, error)
	MarkSettled(ctx context.Context, orderID uuid.UUID, at time.Time) error
	CreateEarning(ctx context.Context, earning *models.VendorEarning) error
	CreateCommission(ctx context.Context, commission *models.Commission) error
	EarningExists(ctx context.Context, orderID, productID uuid.UUID) (bool, error)
	MonthVolume(ctx context.Context, customerID, excludeOrderID uuid.UUID, month time.Time) (int64, error)
	EarningCodeExists(ctx context.Context, code string) (bool, error)
	CommissionCodeExists(ctx context.Context, code string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListUnsettled(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_status = ? AND settled_at IS NULL", enums.OrderPaymentStatusFullyPaid).
		Order("fully_paid_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkSettled flips the settlement stamp exactly once. A second call finds
// the stamp already set and reports a state conflict.
func (r *repository) MarkSettled(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND settled_at IS NULL", orderID).
		Update("settled_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeStateConflict, "order is already settled")
	}
	return nil
}

func (r *repository) CreateEarning(ctx context.Context, earning *models.VendorEarning) error {
	return r.db.WithContext(ctx).Create(earning).Error
}

func (r *repository) CreateCommission(ctx context.Context, commission *models.Commission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

func (r *repository) EarningExists(ctx context.Context, orderID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VendorEarning{}).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		Count(&count).Error
	return count > 0, err
}

// MonthVolume sums the customer's other fully-paid orders inside the
// calendar month of the anchor time, excluding the order being settled.
func (r *repository) MonthVolume(ctx context.Context, customerID, excludeOrderID uuid.UUID, month time.Time) (int64, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ? AND id <> ? AND payment_status = ?", customerID, excludeOrderID, enums.OrderPaymentStatusFullyPaid).
		Where("fully_paid_at >= ? AND fully_paid_at < ?", start, end).
		Select("COALESCE(SUM(total_amount_paise), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) EarningCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VendorEarning{}).
		Where("earning_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CommissionCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("commission_code = ?", code).
		Count(&count).Error
	return count > 0, err
}
