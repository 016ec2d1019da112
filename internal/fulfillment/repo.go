package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

// Repository manages credit purchases and the vendor inventory they deliver
// into. Review and delivery transitions are conditional updates so each can
// happen exactly once.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.CreditPurchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CreditPurchase, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ListDueForDelivery(ctx context.Context, asOf time.Time, limit int) ([]models.CreditPurchase, error)
	OldestOutstandingDate(ctx context.Context, vendorID uuid.UUID) (*time.Time, error)
	Approve(ctx context.Context, id, reviewerID uuid.UUID, expectedDeliveryAt time.Time) error
	Reject(ctx context.Context, id, reviewerID uuid.UUID, reason string) error
	SetInTransit(ctx context.Context, id uuid.UUID) error
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time, notes string) error
	AddStock(ctx context.Context, assignment *models.InventoryAssignment) error
	ReserveStock(ctx context.Context, vendorID, productID uuid.UUID, quantity int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a fulfillment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.CreditPurchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.CreditPurchase, error) {
	var purchase models.CreditPurchase
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CreditPurchase{}).
		Where("purchase_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListDueForDelivery(ctx context.Context, asOf time.Time, limit int) ([]models.CreditPurchase, error) {
	var purchases []models.CreditPurchase
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND delivery_status <> ? AND expected_delivery_at IS NOT NULL AND expected_delivery_at <= ?",
			enums.PurchaseStatusApproved, enums.DeliveryStatusDelivered, asOf).
		Order("expected_delivery_at ASC").
		Limit(limit).
		Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// OldestOutstandingDate returns the creation date of the vendor's oldest
// approved purchase, or nil when the vendor has none.
func (r *repository) OldestOutstandingDate(ctx context.Context, vendorID uuid.UUID) (*time.Time, error) {
	var purchase models.CreditPurchase
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND status = ?", vendorID, enums.PurchaseStatusApproved).
		Order("created_at ASC").
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase.CreatedAt, nil
}

func (r *repository) Approve(ctx context.Context, id, reviewerID uuid.UUID, expectedDeliveryAt time.Time) error {
	return r.review(ctx, id, map[string]any{
		"status":               enums.PurchaseStatusApproved,
		"reviewed_by":          reviewerID,
		"reviewed_at":          time.Now().UTC(),
		"expected_delivery_at": expectedDeliveryAt,
	})
}

func (r *repository) Reject(ctx context.Context, id, reviewerID uuid.UUID, reason string) error {
	return r.review(ctx, id, map[string]any{
		"status":           enums.PurchaseStatusRejected,
		"reviewed_by":      reviewerID,
		"reviewed_at":      time.Now().UTC(),
		"rejection_reason": reason,
	})
}

// review applies a one-time decision; a purchase already reviewed is left
// untouched.
func (r *repository) review(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.CreditPurchase{}).
		Where("id = ? AND status = ?", id, enums.PurchaseStatusRequested).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeStateConflict, "credit purchase already reviewed")
	}
	return nil
}

func (r *repository) SetInTransit(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.CreditPurchase{}).
		Where("id = ? AND status = ? AND delivery_status = ?",
			id, enums.PurchaseStatusApproved, enums.DeliveryStatusScheduled).
		Update("delivery_status", enums.DeliveryStatusInTransit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeStateConflict, "delivery is not in a dispatchable state")
	}
	return nil
}

// MarkDelivered flips delivery exactly once; a second delivery attempt
// affects zero rows and reports a conflict so sweeps skip it.
func (r *repository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time, notes string) error {
	updates := map[string]any{
		"delivery_status": enums.DeliveryStatusDelivered,
		"delivered_at":    at,
	}
	if notes != "" {
		updates["delivery_notes"] = notes
	}
	res := r.db.WithContext(ctx).
		Model(&models.CreditPurchase{}).
		Where("id = ? AND status = ? AND delivery_status <> ?",
			id, enums.PurchaseStatusApproved, enums.DeliveryStatusDelivered).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeStateConflict, "credit purchase already delivered")
	}
	return nil
}

// AddStock upserts the vendor's assignment for a product, incrementing
// stock when the (vendor, product) row already exists.
func (r *repository) AddStock(ctx context.Context, assignment *models.InventoryAssignment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "vendor_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"stock":     gorm.Expr("stock + ?", assignment.Stock),
				"is_active": true,
			}),
		}).
		Create(assignment).Error
}

// ReserveStock decrements vendor stock for an outgoing order, refusing to
// go below zero.
func (r *repository) ReserveStock(ctx context.Context, vendorID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.InventoryAssignment{}).
		Where("vendor_id = ? AND product_id = ? AND stock >= ?", vendorID, productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeStateConflict, "insufficient stock")
	}
	return nil
}
