package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
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

type noopSender struct{}

func (noopSender) Send(ctx context.Context, n models.NotificationOutbox) error { return nil }

var fulfillmentSchemas = []string{`
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
CREATE TABLE IF NOT EXISTS credit_purchases (
  id TEXT PRIMARY KEY,
  purchase_code TEXT NOT NULL UNIQUE,
  vendor_id TEXT NOT NULL,
  total_amount_paise INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'requested',
  delivery_status TEXT NOT NULL DEFAULT 'scheduled',
  reviewed_by TEXT,
  reviewed_at DATETIME,
  rejection_reason TEXT,
  expected_delivery_at DATETIME,
  delivered_at DATETIME,
  delivery_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS credit_purchase_items (
  id TEXT PRIMARY KEY,
  purchase_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_cost_paise INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS inventory_assignments (
  id TEXT PRIMARY KEY,
  assignment_code TEXT NOT NULL UNIQUE,
  vendor_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (vendor_id, product_id)
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
CREATE TABLE IF NOT EXISTS id_sequences (
  prefix TEXT PRIMARY KEY,
  value INTEGER NOT NULL
);`}

type fulfillmentFixture struct {
	db      *gorm.DB
	svc     Service
	repo    Repository
	vendors vendors.Repository
}

func setupFulfillment(t *testing.T) *fulfillmentFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, schema := range fulfillmentSchemas {
		require.NoError(t, db.Exec(schema).Error)
	}
	t.Cleanup(func() {
		for _, table := range []string{"vendors", "credit_purchases", "credit_purchase_items", "inventory_assignments", "payment_histories", "notification_outboxes", "id_sequences"} {
			db.Exec("DELETE FROM " + table)
		}
	})

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})

	alloc, err := identifier.NewAllocator(identifier.NewRepository(db))
	require.NoError(t, err)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(db), alloc)
	require.NoError(t, err)
	notifier, err := notifications.NewService(notifications.NewRepository(db), noopSender{}, logg)
	require.NoError(t, err)

	repo := NewRepository(db)
	vendorRepo := vendors.NewRepository(db)
	svc, err := NewService(db, repo, vendorRepo, ledgerSvc, notifier, alloc, logg)
	require.NoError(t, err)

	return &fulfillmentFixture{db: db, svc: svc, repo: repo, vendors: vendorRepo}
}

func (f *fulfillmentFixture) seedVendor(t *testing.T, creditLimit, creditUsed int64) *models.Vendor {
	t.Helper()
	vendor := &models.Vendor{
		ID:          uuid.New(),
		VendorCode:  "VEN-" + uuid.NewString()[:8],
		Name:        "Sunrise Agro Store",
		CreditLimit: creditLimit,
		CreditUsed:  creditUsed,
		IsActive:    true,
	}
	require.NoError(t, f.db.Create(vendor).Error)
	return vendor
}

func (f *fulfillmentFixture) requestPurchase(t *testing.T, vendorID uuid.UUID) *models.CreditPurchase {
	t.Helper()
	purchase, err := f.svc.Request(context.Background(), RequestInput{
		VendorID: vendorID,
		Items: []RequestItem{
			{ProductID: uuid.New(), ProductName: "Urea 45kg", Quantity: 10, UnitCost: money.FromRupees(500)},
			{ProductID: uuid.New(), ProductName: "DAP 50kg", Quantity: 4, UnitCost: money.FromRupees(1250)},
		},
	})
	require.NoError(t, err)
	return purchase
}

func TestRequestComputesTotalAndCode(t *testing.T) {
	f := setupFulfillment(t)
	vendor := f.seedVendor(t, 10000000, 0)

	purchase := f.requestPurchase(t, vendor.ID)

	assert.Equal(t, int64(1000000), purchase.TotalAmount)
	assert.Equal(t, enums.PurchaseStatusRequested, purchase.Status)
	assert.Equal(t, enums.DeliveryStatusScheduled, purchase.DeliveryStatus)
	assert.Regexp(t, `^CRP-\d+$`, purchase.PurchaseCode)
	assert.Len(t, purchase.Items, 2)
}

func TestApproveDrawsCreditAndWritesLedger(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 10000000, 0)
	purchase := f.requestPurchase(t, vendor.ID)
	reviewer := uuid.New()

	eta := time.Now().UTC().AddDate(0, 0, 2)
	require.NoError(t, f.svc.Approve(ctx, purchase.ID, reviewer, eta))

	got, err := f.vendors.GetByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), got.CreditUsed)

	stored, err := f.repo.GetByID(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseStatusApproved, stored.Status)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, reviewer, *stored.ReviewedBy)

	var entries int64
	require.NoError(t, f.db.Model(&models.PaymentHistory{}).
		Where("activity = ? AND reference_id = ?", enums.ActivityCreditPurchaseApproved, purchase.ID).
		Count(&entries).Error)
	assert.Equal(t, int64(1), entries)
}

func TestApproveIsOnceOnly(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 10000000, 0)
	purchase := f.requestPurchase(t, vendor.ID)

	eta := time.Now().UTC().AddDate(0, 0, 2)
	require.NoError(t, f.svc.Approve(ctx, purchase.ID, uuid.New(), eta))

	err := f.svc.Approve(ctx, purchase.ID, uuid.New(), eta)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStateConflict))

	err = f.svc.Reject(ctx, purchase.ID, uuid.New(), "changed my mind")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStateConflict))

	// credit drawn exactly once
	got, err := f.vendors.GetByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), got.CreditUsed)
}

func TestApproveRejectsOverLimit(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 500000, 0)
	purchase := f.requestPurchase(t, vendor.ID)

	err := f.svc.Approve(ctx, purchase.ID, uuid.New(), time.Now().UTC())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStateConflict))

	// the status flip rolled back with the credit draw
	stored, err := f.repo.GetByID(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseStatusRequested, stored.Status)
}

func TestDeliverSweepsStockOnce(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 10000000, 0)
	purchase := f.requestPurchase(t, vendor.ID)
	require.NoError(t, f.svc.Approve(ctx, purchase.ID, uuid.New(), time.Now().UTC()))

	require.NoError(t, f.svc.Deliver(ctx, purchase.ID, "left at the counter"))

	stored, err := f.repo.GetByID(ctx, purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusDelivered, stored.DeliveryStatus)
	require.NotNil(t, stored.DeliveredAt)

	var assignments []models.InventoryAssignment
	require.NoError(t, f.db.Where("vendor_id = ?", vendor.ID).Order("stock DESC").Find(&assignments).Error)
	require.Len(t, assignments, 2)
	assert.Equal(t, 10, assignments[0].Stock)
	assert.Equal(t, 4, assignments[1].Stock)

	var outbox models.NotificationOutbox
	require.NoError(t, f.db.Where("type = ?", enums.NotificationTypeStockDelivered).First(&outbox).Error)
	assert.Equal(t, vendor.ID, outbox.RecipientID)

	// second delivery is a conflict and leaves stock untouched
	err = f.svc.Deliver(ctx, purchase.ID, "again")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStateConflict))

	var total int64
	require.NoError(t, f.db.Model(&models.InventoryAssignment{}).
		Where("vendor_id = ?", vendor.ID).
		Select("COALESCE(SUM(stock), 0)").Scan(&total).Error)
	assert.Equal(t, int64(14), total)
}

func TestDeliverMergesExistingStock(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 10000000, 0)
	productID := uuid.New()

	first, err := f.svc.Request(ctx, RequestInput{
		VendorID: vendor.ID,
		Items:    []RequestItem{{ProductID: productID, ProductName: "Urea 45kg", Quantity: 6, UnitCost: money.FromRupees(500)}},
	})
	require.NoError(t, err)
	second, err := f.svc.Request(ctx, RequestInput{
		VendorID: vendor.ID,
		Items:    []RequestItem{{ProductID: productID, ProductName: "Urea 45kg", Quantity: 9, UnitCost: money.FromRupees(500)}},
	})
	require.NoError(t, err)

	for _, p := range []*models.CreditPurchase{first, second} {
		require.NoError(t, f.svc.Approve(ctx, p.ID, uuid.New(), time.Now().UTC()))
		require.NoError(t, f.svc.Deliver(ctx, p.ID, ""))
	}

	var assignment models.InventoryAssignment
	require.NoError(t, f.db.Where("vendor_id = ? AND product_id = ?", vendor.ID, productID).First(&assignment).Error)
	assert.Equal(t, 15, assignment.Stock)
}

func TestProcessDueDeliveriesSweepsOnlyDue(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 20000000, 0)

	due := f.requestPurchase(t, vendor.ID)
	require.NoError(t, f.svc.Approve(ctx, due.ID, uuid.New(), time.Now().UTC().AddDate(0, 0, -1)))

	future := f.requestPurchase(t, vendor.ID)
	require.NoError(t, f.svc.Approve(ctx, future.ID, uuid.New(), time.Now().UTC().AddDate(0, 0, 3)))

	pending := f.requestPurchase(t, vendor.ID)
	_ = pending // never approved, never swept

	delivered, err := f.svc.ProcessDueDeliveries(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	stored, err := f.repo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusDelivered, stored.DeliveryStatus)

	stored, err = f.repo.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusScheduled, stored.DeliveryStatus)

	// second sweep finds nothing
	delivered, err = f.svc.ProcessDueDeliveries(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, delivered)
}

func TestOldestOutstandingDate(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 20000000, 0)

	got, err := f.repo.OldestOutstandingDate(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	purchase := f.requestPurchase(t, vendor.ID)
	require.NoError(t, f.svc.Approve(ctx, purchase.ID, uuid.New(), time.Now().UTC()))

	got, err = f.repo.OldestOutstandingDate(ctx, vendor.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.WithinDuration(t, time.Now().UTC(), *got, 5*time.Second)
}

func TestReserveStockNeverGoesNegative(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	vendor := f.seedVendor(t, 10000000, 0)
	productID := uuid.New()

	purchase, err := f.svc.Request(ctx, RequestInput{
		VendorID: vendor.ID,
		Items:    []RequestItem{{ProductID: productID, ProductName: "Urea 45kg", Quantity: 5, UnitCost: money.FromRupees(500)}},
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Approve(ctx, purchase.ID, uuid.New(), time.Now().UTC()))
	require.NoError(t, f.svc.Deliver(ctx, purchase.ID, ""))

	require.NoError(t, f.repo.ReserveStock(ctx, vendor.ID, productID, 3))

	err = f.repo.ReserveStock(ctx, vendor.ID, productID, 3)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStateConflict))

	var assignment models.InventoryAssignment
	require.NoError(t, f.db.Where("vendor_id = ? AND product_id = ?", vendor.ID, productID).First(&assignment).Error)
	assert.Equal(t, 2, assignment.Stock)
}
