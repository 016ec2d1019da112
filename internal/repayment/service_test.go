package repayment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
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

type fakeGateway struct {
	err     error
	charges []ChargeRequest
}

func (f *fakeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	f.charges = append(f.charges, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ChargeResult{Reference: "gw-" + req.RepaymentCode}, nil
}

type fakePurchases struct {
	byID   map[uuid.UUID]*models.CreditPurchase
	oldest *time.Time
}

func (f *fakePurchases) GetByID(ctx context.Context, id uuid.UUID) (*models.CreditPurchase, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakePurchases) OldestOutstandingDate(ctx context.Context, vendorID uuid.UUID) (*time.Time, error) {
	return f.oldest, nil
}

type noopSender struct{}

func (noopSender) Send(ctx context.Context, n models.NotificationOutbox) error { return nil }

var repaymentSchemas = []string{`
CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  vendor_code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  credit_limit_paise INTEGER NOT NULL DEFAULT 0,
  credit_used_paise INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  ch_total_credit_taken_paise INTEGER NOT NULL DEFAULT 0,
  ch_total_repaid_paise INTEGER NOT NULL DEFAULT 0,
  ch_total_discounts_earned_paise INTEGER NOT NULL DEFAULT 0,
  ch_total_interest_paid_paise INTEGER NOT NULL DEFAULT 0,
  ch_avg_repayment_days INTEGER NOT NULL DEFAULT 0,
  ch_on_time_repayments INTEGER NOT NULL DEFAULT 0,
  ch_late_repayments INTEGER NOT NULL DEFAULT 0,
  ch_total_repayments INTEGER NOT NULL DEFAULT 0,
  ch_last_repayment_days INTEGER NOT NULL DEFAULT 0,
  ch_last_repayment_at DATETIME,
  ch_credit_score INTEGER NOT NULL DEFAULT 100,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS credit_repayments (
  id TEXT PRIMARY KEY,
  repayment_code TEXT NOT NULL UNIQUE,
  vendor_id TEXT NOT NULL,
  purchase_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  days_elapsed INTEGER NOT NULL,
  tier_kind TEXT NOT NULL,
  rate_percent TEXT NOT NULL,
  tier_version INTEGER NOT NULL,
  base_amount_paise INTEGER NOT NULL,
  discount_amount_paise INTEGER NOT NULL DEFAULT 0,
  interest_amount_paise INTEGER NOT NULL DEFAULT 0,
  final_payable_paise INTEGER NOT NULL,
  credit_used_before_paise INTEGER NOT NULL,
  credit_used_after_paise INTEGER NOT NULL,
  bank_account_id TEXT,
  gateway_ref TEXT,
  failure_reason TEXT,
  initiated_at DATETIME NOT NULL,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payment_histories (
  id TEXT PRIMARY KEY,
  history_code TEXT NOT NULL UNIQUE,
  activity TEXT NOT NULL,
  actor_kind TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  amount_paise INTEGER NOT NULL,
  reference_id TEXT,
  description TEXT NOT NULL,
  metadata TEXT,
  occurred_at DATETIME NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS notification_outboxes (
  id TEXT PRIMARY KEY,
  channel TEXT NOT NULL,
  type TEXT NOT NULL,
  recipient_id TEXT NOT NULL,
  payload TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  sent_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS repayment_tiers (
  id TEXT PRIMARY KEY,
  version INTEGER NOT NULL,
  kind TEXT NOT NULL,
  name TEXT NOT NULL,
  period_start INTEGER NOT NULL,
  period_end INTEGER NOT NULL,
  rate_percent TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS id_sequences (
  prefix TEXT PRIMARY KEY,
  value INTEGER NOT NULL
);`}

type serviceFixture struct {
	db        *gorm.DB
	svc       Service
	gateway   *fakeGateway
	purchases *fakePurchases
	vendors   vendors.Repository
	now       time.Time
}

func setupService(t *testing.T) *serviceFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, schema := range repaymentSchemas {
		require.NoError(t, db.Exec(schema).Error)
	}
	t.Cleanup(func() {
		for _, table := range []string{"vendors", "credit_repayments", "payment_histories", "notification_outboxes", "repayment_tiers", "settings", "id_sequences"} {
			db.Exec("DELETE FROM " + table)
		}
	})

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})

	tierSvc, err := tiers.NewService(db, tiers.NewRepository(db), tiers.CommissionFromConfig(config.CommissionConfig{ThresholdPaise: 5000000, LowRate: 2, HighRate: 3}))
	require.NoError(t, err)
	_, err = tierSvc.Replace(context.Background(), []tiers.Tier{
		{Kind: enums.TierKindDiscount, Name: "early bird", PeriodStart: 0, PeriodEnd: 30, Rate: decimal.NewFromInt(10)},
		{Kind: enums.TierKindInterest, Name: "grace overdue", PeriodStart: 105, PeriodEnd: 120, Rate: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)

	alloc, err := identifier.NewAllocator(identifier.NewRepository(db))
	require.NoError(t, err)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(db), alloc)
	require.NoError(t, err)
	notifier, err := notifications.NewService(notifications.NewRepository(db), noopSender{}, logg)
	require.NoError(t, err)

	gateway := &fakeGateway{}
	purchases := &fakePurchases{byID: map[uuid.UUID]*models.CreditPurchase{}}

	vendorRepo := vendors.NewRepository(db)
	svc, err := NewService(db, NewRepository(db), vendorRepo, purchases, tierSvc, ledgerSvc, notifier, alloc, gateway, config.CreditConfig{DueDays: 30}, logg)
	require.NoError(t, err)

	fixture := &serviceFixture{
		db:        db,
		svc:       svc,
		gateway:   gateway,
		purchases: purchases,
		vendors:   vendorRepo,
		now:       time.Now().UTC(),
	}
	return fixture
}

func (f *serviceFixture) seedVendor(t *testing.T, creditUsed int64) *models.Vendor {
	t.Helper()
	vendor := &models.Vendor{
		ID:          uuid.New(),
		VendorCode:  "VEN-" + uuid.NewString()[:8],
		Name:        "Green Valley Traders",
		CreditLimit: 10000000,
		CreditUsed:  creditUsed,
		IsActive:    true,
	}
	require.NoError(t, f.db.Create(vendor).Error)
	return vendor
}

func TestInitiateFreezesBreakdown(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 2000000)

	purchaseDate := time.Now().UTC().AddDate(0, 0, -20)
	f.purchases.oldest = &purchaseDate

	repaymentRow, err := f.svc.Initiate(ctx, InitiateInput{
		VendorID:  vendor.ID,
		Principal: money.FromRupees(10000),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.RepaymentStatusPending, repaymentRow.Status)
	assert.Equal(t, 20, repaymentRow.DaysElapsed)
	assert.Equal(t, enums.TierKindDiscount, repaymentRow.TierKind)
	assert.Equal(t, int64(100000), repaymentRow.DiscountAmount)
	assert.Equal(t, int64(900000), repaymentRow.FinalPayable)
	assert.Equal(t, int64(2000000), repaymentRow.CreditUsedBefore)
	assert.Equal(t, int64(1000000), repaymentRow.CreditUsedAfter)
	assert.Equal(t, 1, repaymentRow.TierVersion)
	assert.Regexp(t, `^REP-\d{8}-\d{4}$`, repaymentRow.RepaymentCode)
}

func TestInitiateRejectsExcessPrincipal(t *testing.T) {
	f := setupService(t)
	vendor := f.seedVendor(t, 500000)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		VendorID:  vendor.ID,
		Principal: money.FromRupees(10000),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStateConflict))

	var count int64
	require.NoError(t, f.db.Model(&models.CreditRepayment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInitiateRejectsUndeliveredPurchase(t *testing.T) {
	f := setupService(t)
	vendor := f.seedVendor(t, 2000000)

	purchaseID := uuid.New()
	f.purchases.byID[purchaseID] = &models.CreditPurchase{
		ID:             purchaseID,
		VendorID:       vendor.ID,
		Status:         enums.PurchaseStatusApproved,
		DeliveryStatus: enums.DeliveryStatusInTransit,
		CreatedAt:      time.Now().UTC().AddDate(0, 0, -10),
	}

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		VendorID:   vendor.ID,
		PurchaseID: &purchaseID,
		Principal:  money.FromRupees(1000),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStateConflict))
}

func TestProcessSuccessSettlesBalanceAndLedger(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 2000000)

	purchaseDate := time.Now().UTC().AddDate(0, 0, -20)
	f.purchases.oldest = &purchaseDate

	repaymentRow, err := f.svc.Initiate(ctx, InitiateInput{
		VendorID:  vendor.ID,
		Principal: money.FromRupees(10000),
	})
	require.NoError(t, err)

	processed, err := f.svc.Process(ctx, repaymentRow.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RepaymentStatusCompleted, processed.Status)
	require.NotNil(t, processed.GatewayRef)
	assert.Equal(t, "gw-"+repaymentRow.RepaymentCode, *processed.GatewayRef)

	// credit drops by the principal, not the discounted payable
	got, err := f.vendors.GetByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), got.CreditUsed)
	assert.Equal(t, 1, got.CreditHistory.TotalRepayments)
	assert.Equal(t, 1, got.CreditHistory.OnTimeRepayments)
	assert.Equal(t, int64(100000), got.CreditHistory.TotalDiscountsEarned)

	var entries []models.PaymentHistory
	require.NoError(t, f.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.ActivityCreditRepaymentCompleted, entries[0].Activity)
	assert.Equal(t, int64(900000), entries[0].Amount)

	var outbox []models.NotificationOutbox
	require.NoError(t, f.db.Find(&outbox).Error)
	require.Len(t, outbox, 1)
	assert.Equal(t, enums.NotificationTypeRepaymentCompleted, outbox[0].Type)

	require.Len(t, f.gateway.charges, 1)
	assert.Equal(t, money.Amount(900000), f.gateway.charges[0].Amount)
}

func TestProcessGatewayFailureLeavesBalance(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 2000000)

	purchaseDate := time.Now().UTC().AddDate(0, 0, -20)
	f.purchases.oldest = &purchaseDate
	f.gateway.err = apperrors.New(apperrors.CodeDependency, "card declined")

	repaymentRow, err := f.svc.Initiate(ctx, InitiateInput{
		VendorID:  vendor.ID,
		Principal: money.FromRupees(10000),
	})
	require.NoError(t, err)

	processed, err := f.svc.Process(ctx, repaymentRow.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RepaymentStatusFailed, processed.Status)
	require.NotNil(t, processed.FailureReason)
	assert.Contains(t, *processed.FailureReason, "card declined")

	got, err := f.vendors.GetByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000000), got.CreditUsed)

	var outbox []models.NotificationOutbox
	require.NoError(t, f.db.Find(&outbox).Error)
	require.Len(t, outbox, 1)
	assert.Equal(t, enums.NotificationTypeRepaymentFailed, outbox[0].Type)
}

func TestProcessTwiceIsRejected(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 2000000)

	purchaseDate := time.Now().UTC().AddDate(0, 0, -20)
	f.purchases.oldest = &purchaseDate

	repaymentRow, err := f.svc.Initiate(ctx, InitiateInput{
		VendorID:  vendor.ID,
		Principal: money.FromRupees(10000),
	})
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, repaymentRow.ID)
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, repaymentRow.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStateConflict))

	got, err := f.vendors.GetByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), got.CreditUsed)
}

func TestCancelPendingRepayment(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 2000000)

	purchaseDate := time.Now().UTC()
	f.purchases.oldest = &purchaseDate

	repaymentRow, err := f.svc.Initiate(ctx, InitiateInput{
		VendorID:  vendor.ID,
		Principal: money.FromRupees(1000),
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, repaymentRow.ID))

	var got models.CreditRepayment
	require.NoError(t, f.db.First(&got, "id = ?", repaymentRow.ID).Error)
	assert.Equal(t, enums.RepaymentStatusCancelled, got.Status)

	require.Error(t, f.svc.Cancel(ctx, repaymentRow.ID))
}
