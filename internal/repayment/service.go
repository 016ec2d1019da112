package repayment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/internal/identifier"
	"github.com/agrimandi/agrimandi-backend/internal/ledger"
	"github.com/agrimandi/agrimandi-backend/internal/notifications"
	"github.com/agrimandi/agrimandi-backend/internal/tiers"
	"github.com/agrimandi/agrimandi-backend/internal/vendors"
	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/money"
)

// PurchaseSource resolves the credit purchase a repayment prices against.
type PurchaseSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.CreditPurchase, error)
	OldestOutstandingDate(ctx context.Context, vendorID uuid.UUID) (*time.Time, error)
}

// Service runs the repayment lifecycle: price, persist, charge, settle the
// vendor's credit balance.
type Service interface {
	Quote(ctx context.Context, principal money.Amount, purchaseDate time.Time) (*Breakdown, []ProjectionPoint, error)
	Initiate(ctx context.Context, input InitiateInput) (*models.CreditRepayment, error)
	Process(ctx context.Context, repaymentID uuid.UUID) (*models.CreditRepayment, error)
	Cancel(ctx context.Context, repaymentID uuid.UUID) error
	FailStaleProcessing(ctx context.Context, pendingTTL time.Duration) (int, error)
}

// InitiateInput captures a vendor's repayment request. PurchaseID is an
// optional link; when absent the vendor's oldest outstanding purchase dates
// the pricing window.
type InitiateInput struct {
	VendorID      uuid.UUID
	PurchaseID    *uuid.UUID
	Principal     money.Amount
	BankAccountID *uuid.UUID
}

type service struct {
	db        *gorm.DB
	repo      Repository
	vendors   vendors.Repository
	purchases PurchaseSource
	tiers     tiers.Service
	ledger    ledger.Service
	notifier  notifications.Service
	allocator identifier.Allocator
	gateway   Gateway
	cfg       config.CreditConfig
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the repayment processor and validates its dependencies.
func NewService(
	db *gorm.DB,
	repo Repository,
	vendorRepo vendors.Repository,
	purchases PurchaseSource,
	tierSvc tiers.Service,
	ledgerSvc ledger.Service,
	notifier notifications.Service,
	allocator identifier.Allocator,
	gateway Gateway,
	cfg config.CreditConfig,
	logg *logger.Logger,
) (Service, error) {
	switch {
	case db == nil:
		return nil, fmt.Errorf("db handle required")
	case repo == nil:
		return nil, fmt.Errorf("repayment repository required")
	case vendorRepo == nil:
		return nil, fmt.Errorf("vendor repository required")
	case purchases == nil:
		return nil, fmt.Errorf("purchase source required")
	case tierSvc == nil:
		return nil, fmt.Errorf("tier service required")
	case ledgerSvc == nil:
		return nil, fmt.Errorf("ledger service required")
	case notifier == nil:
		return nil, fmt.Errorf("notification service required")
	case allocator == nil:
		return nil, fmt.Errorf("identifier allocator required")
	case gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:        db,
		repo:      repo,
		vendors:   vendorRepo,
		purchases: purchases,
		tiers:     tierSvc,
		ledger:    ledgerSvc,
		notifier:  notifier,
		allocator: allocator,
		gateway:   gateway,
		cfg:       cfg,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Quote prices a hypothetical repayment of principal today plus the full
// boundary-day schedule, without writing anything.
func (s *service) Quote(ctx context.Context, principal money.Amount, purchaseDate time.Time) (*Breakdown, []ProjectionPoint, error) {
	snap, err := s.tiers.Active(ctx)
	if err != nil {
		return nil, nil, err
	}
	breakdown, err := Price(principal, purchaseDate, s.now(), snap)
	if err != nil {
		return nil, nil, err
	}
	points, err := Project(principal, purchaseDate, snap)
	if err != nil {
		return nil, nil, err
	}
	return &breakdown, points, nil
}

// Initiate validates the request, freezes the pricing breakdown, and creates
// the repayment in pending. The vendor row is locked for the duration of the
// transaction so concurrent attempts never read a stale credit balance.
func (s *service) Initiate(ctx context.Context, input InitiateInput) (*models.CreditRepayment, error) {
	if !input.Principal.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "principal must be positive")
	}
	if input.VendorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "vendor id is required")
	}

	var repaymentRow *models.CreditRepayment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vendor, err := s.vendors.WithTx(tx).LockByID(ctx, input.VendorID)
		if err != nil {
			return err
		}
		if input.Principal.Paise() > vendor.CreditUsed {
			return apperrors.New(apperrors.CodeStateConflict, "principal exceeds outstanding credit")
		}

		purchaseDate, err := s.resolvePurchaseDate(ctx, input)
		if err != nil {
			return err
		}

		snap, err := s.tiers.Active(ctx)
		if err != nil {
			return err
		}
		breakdown, err := Price(input.Principal, purchaseDate, s.now(), snap)
		if err != nil {
			return err
		}

		code, err := s.allocator.NextRepaymentCode(ctx, s.now())
		if err != nil {
			return err
		}

		repaymentRow = &models.CreditRepayment{
			ID:               uuid.New(),
			RepaymentCode:    code,
			VendorID:         vendor.ID,
			PurchaseID:       input.PurchaseID,
			Status:           enums.RepaymentStatusPending,
			DaysElapsed:      breakdown.DaysElapsed,
			TierKind:         breakdown.Kind,
			RatePercent:      breakdown.Applied.Rate.StringFixed(2),
			TierVersion:      breakdown.TierVersion,
			BaseAmount:       breakdown.BaseAmount.Paise(),
			DiscountAmount:   breakdown.DiscountDeduction.Paise(),
			InterestAmount:   breakdown.InterestAddition.Paise(),
			FinalPayable:     breakdown.FinalPayable.Paise(),
			BankAccountID:    input.BankAccountID,
			CreditUsedBefore: vendor.CreditUsed,
			CreditUsedAfter:  vendor.CreditUsed - input.Principal.Paise(),
			InitiatedAt:      s.now().UTC(),
		}
		return s.repo.WithTx(tx).Create(ctx, repaymentRow)
	})
	if err != nil {
		return nil, err
	}
	return repaymentRow, nil
}

// resolvePurchaseDate dates the pricing window. A linked purchase must be
// approved and delivered; without a link the vendor's oldest outstanding
// purchase is used, and a vendor with no datable purchase prices at day
// zero.
func (s *service) resolvePurchaseDate(ctx context.Context, input InitiateInput) (time.Time, error) {
	if input.PurchaseID != nil {
		purchase, err := s.purchases.GetByID(ctx, *input.PurchaseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return time.Time{}, apperrors.New(apperrors.CodeNotFound, "credit purchase not found")
			}
			return time.Time{}, err
		}
		if purchase.VendorID != input.VendorID {
			return time.Time{}, apperrors.New(apperrors.CodeValidation, "credit purchase belongs to a different vendor")
		}
		if purchase.Status != enums.PurchaseStatusApproved || purchase.DeliveryStatus != enums.DeliveryStatusDelivered {
			return time.Time{}, apperrors.New(apperrors.CodeStateConflict, "credit purchase is not delivered yet")
		}
		return purchase.CreatedAt, nil
	}

	oldest, err := s.purchases.OldestOutstandingDate(ctx, input.VendorID)
	if err != nil {
		return time.Time{}, err
	}
	if oldest == nil {
		return s.now(), nil
	}
	return *oldest, nil
}

// Process hands the repayment to the payment gateway and settles the
// outcome. The gateway call happens outside any transaction; its result is
// then committed atomically.
func (s *service) Process(ctx context.Context, repaymentID uuid.UUID) (*models.CreditRepayment, error) {
	if err := s.repo.MarkProcessing(ctx, repaymentID); err != nil {
		return nil, err
	}
	repaymentRow, err := s.repo.GetByID(ctx, repaymentID)
	if err != nil {
		return nil, err
	}

	result, chargeErr := s.gateway.Charge(ctx, ChargeRequest{
		RepaymentCode: repaymentRow.RepaymentCode,
		VendorID:      repaymentRow.VendorID,
		BankAccountID: repaymentRow.BankAccountID,
		Amount:        money.Amount(repaymentRow.FinalPayable),
	})
	if chargeErr != nil {
		if failErr := s.fail(ctx, repaymentRow, chargeErr.Error()); failErr != nil {
			return nil, failErr
		}
		return s.repo.GetByID(ctx, repaymentID)
	}

	if err := s.complete(ctx, repaymentRow, result.Reference); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, repaymentID)
}

// complete commits the financial outcome of a successful charge: the
// repayment flips to completed, the vendor's credit drops by exactly the
// principal, the ledger gains a record, and the vendor is notified.
func (s *service) complete(ctx context.Context, repaymentRow *models.CreditRepayment, gatewayRef string) error {
	completedAt := s.now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkCompleted(ctx, repaymentRow.ID, gatewayRef, completedAt); err != nil {
			return err
		}

		vendorRepo := s.vendors.WithTx(tx)
		if err := vendorRepo.ReduceCreditUsed(ctx, repaymentRow.VendorID, repaymentRow.BaseAmount); err != nil {
			return err
		}

		vendor, err := vendorRepo.GetByID(ctx, repaymentRow.VendorID)
		if err != nil {
			return err
		}
		history := vendors.ApplyRepayment(vendor.CreditHistory, vendors.RepaymentOutcome{
			Principal:   repaymentRow.BaseAmount,
			Discount:    repaymentRow.DiscountAmount,
			Interest:    repaymentRow.InterestAmount,
			DaysElapsed: repaymentRow.DaysElapsed,
			DueDays:     s.cfg.DueDays,
			CompletedAt: completedAt,
		})
		if err := vendorRepo.SaveCreditHistory(ctx, vendor.ID, history); err != nil {
			return err
		}

		metadata, _ := json.Marshal(map[string]any{
			"repayment_code": repaymentRow.RepaymentCode,
			"final_payable":  repaymentRow.FinalPayable,
			"tier_version":   repaymentRow.TierVersion,
			"gateway_ref":    gatewayRef,
		})
		if _, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordEntryInput{
			Activity:    enums.ActivityCreditRepaymentCompleted,
			ActorKind:   enums.ActorVendor,
			ActorID:     repaymentRow.VendorID,
			Amount:      money.Amount(repaymentRow.FinalPayable),
			ReferenceID: &repaymentRow.ID,
			Description: fmt.Sprintf("credit repayment %s completed", repaymentRow.RepaymentCode),
			Metadata:    metadata,
			OccurredAt:  completedAt,
		}); err != nil {
			return err
		}

		return s.notifier.Enqueue(ctx, tx, notifications.EnqueueInput{
			Channel:     enums.NotificationChannelVendor,
			Type:        enums.NotificationTypeRepaymentCompleted,
			RecipientID: repaymentRow.VendorID,
			Payload: map[string]any{
				"repayment_code": repaymentRow.RepaymentCode,
				"final_payable":  repaymentRow.FinalPayable,
			},
		})
	})
}

// fail marks the repayment failed with the gateway's reason. The vendor's
// balance is untouched; only the status, a ledger record, and a notification
// are written.
func (s *service) fail(ctx context.Context, repaymentRow *models.CreditRepayment, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkFailed(ctx, repaymentRow.ID, reason); err != nil {
			return err
		}
		if _, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordEntryInput{
			Activity:    enums.ActivityCreditRepaymentFailed,
			ActorKind:   enums.ActorVendor,
			ActorID:     repaymentRow.VendorID,
			Amount:      money.Amount(repaymentRow.FinalPayable),
			ReferenceID: &repaymentRow.ID,
			Description: fmt.Sprintf("credit repayment %s failed: %s", repaymentRow.RepaymentCode, reason),
		}); err != nil {
			return err
		}
		return s.notifier.Enqueue(ctx, tx, notifications.EnqueueInput{
			Channel:     enums.NotificationChannelVendor,
			Type:        enums.NotificationTypeRepaymentFailed,
			RecipientID: repaymentRow.VendorID,
			Payload:     map[string]any{"repayment_code": repaymentRow.RepaymentCode, "reason": reason},
		})
	})
}

func (s *service) Cancel(ctx context.Context, repaymentID uuid.UUID) error {
	return s.repo.MarkCancelled(ctx, repaymentID)
}

// FailStaleProcessing fails repayments stuck in processing longer than
// pendingTTL, e.g. after a crash between the gateway call and the commit.
func (s *service) FailStaleProcessing(ctx context.Context, pendingTTL time.Duration) (int, error) {
	stale, err := s.repo.ListStaleProcessing(ctx, s.now().Add(-pendingTTL))
	if err != nil {
		return 0, err
	}
	var failed int
	for _, row := range stale {
		row := row
		if err := s.fail(ctx, &row, "gateway response timed out"); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("failing stale repayment %s: %v", row.RepaymentCode, err))
			continue
		}
		failed++
	}
	return failed, nil
}
