package settlement

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
	"github.com/agrimandi/agrimandi-backend/internal/sellers"
	"github.com/agrimandi/agrimandi-backend/internal/tiers"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/money"
)

// Service distributes a fully paid order's money: the vendor's margin per
// line item and the referring seller's tiered commission.
type Service interface {
	SettleOrder(ctx context.Context, orderID uuid.UUID) (*Result, error)
	ProcessUnsettled(ctx context.Context, batchSize int) (int, error)
}

// Result reports what one settlement produced.
type Result struct {
	Earnings   []models.VendorEarning
	Commission *models.Commission
}

type service struct {
	db        *gorm.DB
	repo      Repository
	sellers   sellers.Repository
	tiers     tiers.Service
	ledger    ledger.Service
	notifier  notifications.Service
	allocator identifier.Allocator
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the settlement engine and validates its dependencies.
func NewService(
	db *gorm.DB,
	repo Repository,
	sellerRepo sellers.Repository,
	tierSvc tiers.Service,
	ledgerSvc ledger.Service,
	notifier notifications.Service,
	allocator identifier.Allocator,
	logg *logger.Logger,
) (Service, error) {
	switch {
	case db == nil:
		return nil, fmt.Errorf("db handle required")
	case repo == nil:
		return nil, fmt.Errorf("settlement repository required")
	case sellerRepo == nil:
		return nil, fmt.Errorf("seller repository required")
	case tierSvc == nil:
		return nil, fmt.Errorf("tier service required")
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
		sellers:   sellerRepo,
		tiers:     tierSvc,
		ledger:    ledgerSvc,
		notifier:  notifier,
		allocator: allocator,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// SettleOrder runs both settlement sub-algorithms for one order. Earnings
// and commission are independent: an order can produce either, both, or
// neither. The settlement stamp, every record, the wallet credit, and the
// ledger entries commit in one transaction.
func (s *service) SettleOrder(ctx context.Context, orderID uuid.UUID) (*Result, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != enums.OrderPaymentStatusFullyPaid {
		return nil, apperrors.New(apperrors.CodeStateConflict, "order is not fully paid")
	}

	anchor := s.now().UTC()
	if order.FullyPaidAt != nil {
		anchor = order.FullyPaidAt.UTC()
	}

	result := &Result{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.MarkSettled(ctx, order.ID, anchor); err != nil {
			return err
		}
		if err := s.settleEarnings(ctx, tx, repo, order, result); err != nil {
			return err
		}
		return s.settleCommission(ctx, tx, repo, order, anchor, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// settleEarnings records the vendor's margin for each order line. Lines
// with zero or negative spread are skipped, not recorded as zero.
// Escalated orders fulfilled by the operator produce no vendor earnings.
func (s *service) settleEarnings(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, result *Result) error {
	if order.Assignee != enums.OrderAssigneeVendor {
		return nil
	}

	for _, item := range order.Items {
		unitMargin := item.UnitRetail - item.UnitWholesale
		amount := unitMargin * int64(item.Quantity)
		if amount <= 0 {
			continue
		}

		exists, err := repo.EarningExists(ctx, order.ID, item.ProductID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		code, err := s.allocator.NextWithProbe(ctx, identifier.PrefixVendorEarning, repo.EarningCodeExists)
		if err != nil {
			return err
		}
		earning := models.VendorEarning{
			ID:          uuid.New(),
			EarningCode: code,
			VendorID:    order.VendorID,
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitMargin:  unitMargin,
			Amount:      amount,
			Status:      enums.EarningStatusPending,
		}
		if err := repo.CreateEarning(ctx, &earning); err != nil {
			return err
		}

		metadata, _ := json.Marshal(map[string]any{
			"earning_code": code,
			"product_id":   item.ProductID,
			"order_code":   order.OrderCode,
		})
		if _, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordEntryInput{
			Activity:    enums.ActivityVendorEarningCredited,
			ActorKind:   enums.ActorVendor,
			ActorID:     order.VendorID,
			Amount:      money.Amount(amount),
			ReferenceID: &earning.ID,
			Description: fmt.Sprintf("earning %s on order %s", code, order.OrderCode),
			Metadata:    metadata,
		}); err != nil {
			return err
		}
		result.Earnings = append(result.Earnings, earning)
	}
	return nil
}

// settleCommission pays the referring seller, if any. The rate is a step
// function of the customer's monthly spend including this order: crossing
// the threshold re-rates the entire order at the higher rate, never just
// the portion above the threshold.
func (s *service) settleCommission(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, anchor time.Time, result *Result) error {
	if order.SellerID == nil {
		return nil
	}
	sellerID := *order.SellerID

	// The order's commission ledger entry is the idempotency guard for this leg.
	credited, err := s.ledger.WithTx(tx).Has(ctx, order.ID, enums.ActivitySellerCommissionCredited)
	if err != nil {
		return err
	}
	if credited {
		return nil
	}

	policy, err := s.tiers.Commission(ctx)
	if err != nil {
		return err
	}
	prior, err := repo.MonthVolume(ctx, order.CustomerID, order.ID, anchor)
	if err != nil {
		return err
	}
	newCumulative := prior + order.TotalAmount
	rate := policy.Rate(newCumulative)
	amount := money.Amount(order.TotalAmount).Percent(rate)

	code, err := s.allocator.NextWithProbe(ctx, identifier.PrefixCommission, repo.CommissionCodeExists)
	if err != nil {
		return err
	}
	commission := models.Commission{
		ID:             uuid.New(),
		CommissionCode: code,
		SellerID:       sellerID,
		OrderID:        order.ID,
		OrderAmount:    order.TotalAmount,
		MonthVolume:    newCumulative,
		RatePercent:    rate.StringFixed(2),
		Amount:         amount.Paise(),
		Status:         enums.CommissionStatusCredited,
	}
	if err := repo.CreateCommission(ctx, &commission); err != nil {
		return err
	}
	if err := s.sellers.WithTx(tx).CreditWallet(ctx, sellerID, amount.Paise()); err != nil {
		return err
	}

	metadata, _ := json.Marshal(map[string]any{
		"commission_code": code,
		"order_code":      order.OrderCode,
		"rate_percent":    rate.StringFixed(2),
		"month_volume":    newCumulative,
	})
	if _, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordEntryInput{
		Activity:    enums.ActivitySellerCommissionCredited,
		ActorKind:   enums.ActorSeller,
		ActorID:     sellerID,
		Amount:      amount,
		ReferenceID: &order.ID,
		Description: fmt.Sprintf("commission %s on order %s", code, order.OrderCode),
		Metadata:    metadata,
	}); err != nil {
		return err
	}

	if err := s.notifier.Enqueue(ctx, tx, notifications.EnqueueInput{
		Channel:     enums.NotificationChannelSeller,
		Type:        enums.NotificationTypeCommissionEarned,
		RecipientID: sellerID,
		Payload: map[string]any{
			"commission_code": code,
			"order_code":      order.OrderCode,
			"amount_paise":    amount.Paise(),
		},
	}); err != nil {
		return err
	}

	if policy.Crosses(prior, newCumulative) {
		if err := s.notifier.Enqueue(ctx, tx, notifications.EnqueueInput{
			Channel:     enums.NotificationChannelSeller,
			Type:        enums.NotificationTypeTierUpgraded,
			RecipientID: sellerID,
			Payload: map[string]any{
				"order_code":   order.OrderCode,
				"month_volume": newCumulative,
				"rate_percent": rate.StringFixed(2),
			},
		}); err != nil {
			return err
		}
	}

	result.Commission = &commission
	return nil
}

// ProcessUnsettled sweeps fully paid orders that have no settlement stamp.
// Each order settles in its own transaction; a failure on one order never
// blocks the rest of the batch.
func (s *service) ProcessUnsettled(ctx context.Context, batchSize int) (int, error) {
	orders, err := s.repo.ListUnsettled(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	var settled int
	var errs error
	for _, order := range orders {
		if _, err := s.SettleOrder(ctx, order.ID); err != nil {
			if apperrors.HasCode(err, apperrors.CodeStateConflict) {
				continue
			}
			s.logg.Warn(ctx, fmt.Sprintf("settlement sweep: order %s: %v", order.OrderCode, err))
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.OrderCode, err))
			continue
		}
		settled++
	}
	return settled, errs
}
