package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/internal/identifier"
	"github.com/agrimandi/agrimandi-backend/internal/ledger"
	"github.com/agrimandi/agrimandi-backend/internal/notifications"
	"github.com/agrimandi/agrimandi-backend/internal/vendors"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/money"
)

// Service tracks credit purchases from request through delivery into vendor
// inventory.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.CreditPurchase, error)
	Approve(ctx context.Context, purchaseID, reviewerID uuid.UUID, expectedDeliveryAt time.Time) error
	Reject(ctx context.Context, purchaseID, reviewerID uuid.UUID, reason string) error
	Dispatch(ctx context.Context, purchaseID uuid.UUID) error
	Deliver(ctx context.Context, purchaseID uuid.UUID, notes string) error
	ProcessDueDeliveries(ctx context.Context, batchSize int) (int, error)
}

// RequestInput opens a credit purchase for review.
type RequestInput struct {
	VendorID uuid.UUID
	Items    []RequestItem
}

// RequestItem is one product line on the request.
type RequestItem struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitCost    money.Amount
}

type service struct {
	db        *gorm.DB
	repo      Repository
	vendors   vendors.Repository
	ledger    ledger.Service
	notifier  notifications.Service
	allocator identifier.Allocator
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the fulfillment tracker and validates its dependencies.
func NewService(
	db *gorm.DB,
	repo Repository,
	vendorRepo vendors.Repository,
	ledgerSvc ledger.Service,
	notifier notifications.Service,
	allocator identifier.Allocator,
	logg *logger.Logger,
) (Service, error) {
	switch {
	case db == nil:
		return nil, fmt.Errorf("db handle required")
	case repo == nil:
		return nil, fmt.Errorf("fulfillment repository required")
	case vendorRepo == nil:
		return nil, fmt.Errorf("vendor repository required")
	case ledgerSvc == nil:
		return nil, fmt.Errorf("ledger service required")
	case notifier == nil:
		return nil, fmt.Errorf("notification service required")
	case allocator == nil:
		return nil, fmt.Errorf("identifier allocator required")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:        db,
		repo:      repo,
		vendors:   vendorRepo,
		ledger:    ledgerSvc,
		notifier:  notifier,
		allocator: allocator,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.CreditPurchase, error) {
	if input.VendorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "vendor id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one item is required")
	}

	var total money.Amount
	items := make([]models.CreditPurchaseItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("item %s quantity must be positive", item.ProductName))
		}
		if !item.UnitCost.IsPositive() {
			return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("item %s unit cost must be positive", item.ProductName))
		}
		total = total.Add(item.UnitCost.MulInt(item.Quantity))
		items = append(items, models.CreditPurchaseItem{
			ID:          uuid.New(),
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost.Paise(),
		})
	}

	code, err := s.allocator.NextWithProbe(ctx, identifier.PrefixCreditPurchase, s.repo.ExistsByCode)
	if err != nil {
		return nil, err
	}

	purchase := &models.CreditPurchase{
		ID:             uuid.New(),
		PurchaseCode:   code,
		VendorID:       input.VendorID,
		TotalAmount:    total.Paise(),
		Status:         enums.PurchaseStatusRequested,
		DeliveryStatus: enums.DeliveryStatusScheduled,
		Items:          items,
	}
	for i := range purchase.Items {
		purchase.Items[i].PurchaseID = purchase.ID
	}
	if err := s.repo.Create(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// Approve reviews the purchase exactly once and draws down the vendor's
// credit line by the purchase total.
func (s *service) Approve(ctx context.Context, purchaseID, reviewerID uuid.UUID, expectedDeliveryAt time.Time) error {
	if reviewerID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "reviewer id is required")
	}
	purchase, err := s.repo.GetByID(ctx, purchaseID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Approve(ctx, purchaseID, reviewerID, expectedDeliveryAt); err != nil {
			return err
		}
		if err := s.vendors.WithTx(tx).AddCreditUsed(ctx, purchase.VendorID, purchase.TotalAmount); err != nil {
			return err
		}
		metadata, _ := json.Marshal(map[string]any{"purchase_code": purchase.PurchaseCode})
		_, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordEntryInput{
			Activity:    enums.ActivityCreditPurchaseApproved,
			ActorKind:   enums.ActorVendor,
			ActorID:     purchase.VendorID,
			Amount:      money.Amount(purchase.TotalAmount),
			ReferenceID: &purchase.ID,
			Description: fmt.Sprintf("credit purchase %s approved", purchase.PurchaseCode),
			Metadata:    metadata,
		})
		return err
	})
}

func (s *service) Reject(ctx context.Context, purchaseID, reviewerID uuid.UUID, reason string) error {
	if reviewerID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "reviewer id is required")
	}
	if reason == "" {
		return apperrors.New(apperrors.CodeValidation, "rejection reason is required")
	}
	return s.repo.Reject(ctx, purchaseID, reviewerID, reason)
}

func (s *service) Dispatch(ctx context.Context, purchaseID uuid.UUID) error {
	return s.repo.SetInTransit(ctx, purchaseID)
}

// Deliver sweeps one purchase into the vendor's inventory. The delivery
// flip, the stock increments, the ledger record, and the notification
// commit together; a purchase already delivered is a no-op conflict.
func (s *service) Deliver(ctx context.Context, purchaseID uuid.UUID, notes string) error {
	purchase, err := s.repo.GetByID(ctx, purchaseID)
	if err != nil {
		return err
	}
	if purchase.ReviewedBy == nil {
		return apperrors.New(apperrors.CodeInternal, fmt.Sprintf("credit purchase %s has no approver", purchase.PurchaseCode))
	}
	if len(purchase.Items) == 0 {
		return apperrors.New(apperrors.CodeInternal, fmt.Sprintf("credit purchase %s has no items", purchase.PurchaseCode))
	}

	deliveredAt := s.now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.MarkDelivered(ctx, purchase.ID, deliveredAt, notes); err != nil {
			return err
		}

		for _, item := range purchase.Items {
			if item.ProductID == uuid.Nil {
				return apperrors.New(apperrors.CodeInternal, fmt.Sprintf("item %s has no product reference", item.ProductName))
			}
			code, err := s.allocator.Next(ctx, identifier.PrefixInventory)
			if err != nil {
				return err
			}
			if err := repo.AddStock(ctx, &models.InventoryAssignment{
				ID:             uuid.New(),
				AssignmentCode: code,
				VendorID:       purchase.VendorID,
				ProductID:      item.ProductID,
				Stock:          item.Quantity,
				IsActive:       true,
				CreatedBy:      *purchase.ReviewedBy,
			}); err != nil {
				return err
			}
		}

		metadata, _ := json.Marshal(map[string]any{
			"purchase_code": purchase.PurchaseCode,
			"items":         len(purchase.Items),
		})
		if _, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordEntryInput{
			Activity:    enums.ActivityCreditPurchaseDelivered,
			ActorKind:   enums.ActorVendor,
			ActorID:     purchase.VendorID,
			Amount:      money.Amount(purchase.TotalAmount),
			ReferenceID: &purchase.ID,
			Description: fmt.Sprintf("credit purchase %s delivered", purchase.PurchaseCode),
			Metadata:    metadata,
			OccurredAt:  deliveredAt,
		}); err != nil {
			return err
		}

		return s.notifier.Enqueue(ctx, tx, notifications.EnqueueInput{
			Channel:     enums.NotificationChannelVendor,
			Type:        enums.NotificationTypeStockDelivered,
			RecipientID: purchase.VendorID,
			Payload: map[string]any{
				"purchase_code": purchase.PurchaseCode,
				"delivered_at":  deliveredAt,
			},
		})
	})
}

// ProcessDueDeliveries sweeps approved purchases whose expected delivery
// date has passed. Each purchase is delivered in its own transaction; one
// broken purchase never blocks the rest of the batch.
func (s *service) ProcessDueDeliveries(ctx context.Context, batchSize int) (int, error) {
	due, err := s.repo.ListDueForDelivery(ctx, s.now().UTC(), batchSize)
	if err != nil {
		return 0, err
	}

	var delivered int
	var errs error
	for _, purchase := range due {
		if err := s.Deliver(ctx, purchase.ID, "auto-delivered by sweep"); err != nil {
			if apperrors.HasCode(err, apperrors.CodeStateConflict) {
				// another sweep got there first
				continue
			}
			s.logg.Warn(ctx, fmt.Sprintf("delivery sweep: purchase %s: %v", purchase.PurchaseCode, err))
			errs = multierr.Append(errs, fmt.Errorf("purchase %s: %w", purchase.PurchaseCode, err))
			continue
		}
		delivered++
	}
	return delivered, errs
}
