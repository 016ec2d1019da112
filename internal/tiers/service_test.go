package tiers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/config"
)

func setupTierTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	tiersTable := `
CREATE TABLE IF NOT EXISTS repayment_tiers (
  id TEXT PRIMARY KEY,
  version INTEGER NOT NULL,
  kind TEXT NOT NULL,
  name TEXT NOT NULL,
  period_start INTEGER NOT NULL,
  period_end INTEGER NOT NULL,
  rate_percent TEXT NOT NULL,
  created_at DATETIME
);`
	settings := `
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(tiersTable).Error)
	require.NoError(t, db.Exec(settings).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM repayment_tiers")
		db.Exec("DELETE FROM settings")
	})
	return db
}

func newTierService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(db, NewRepository(db), CommissionFromConfig(config.CommissionConfig{ThresholdPaise: 5000000, LowRate: 2, HighRate: 3}))
	require.NoError(t, err)
	return svc
}

func TestReplacePublishesNewActiveVersion(t *testing.T) {
	db := setupTierTestDB(t)
	svc := newTierService(t, db)
	ctx := context.Background()

	snap, err := svc.Replace(ctx, validSet())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Version)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active.Version)
	require.Len(t, active.Tiers, 2)
	assert.Equal(t, "early bird", active.Tiers[0].Name)
	assert.True(t, active.Tiers[0].Rate.Equal(decimal.NewFromInt(10)))
}

func TestReplaceKeepsOldVersionsIntact(t *testing.T) {
	db := setupTierTestDB(t)
	svc := newTierService(t, db)
	ctx := context.Background()

	_, err := svc.Replace(ctx, validSet())
	require.NoError(t, err)

	updated := validSet()
	updated[0].Rate = decimal.NewFromInt(12)
	snap, err := svc.Replace(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Version)

	old, err := svc.ByVersion(ctx, 1)
	require.NoError(t, err)
	assert.True(t, old.Tiers[0].Rate.Equal(decimal.NewFromInt(10)))

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, active.Version)
}

func TestReplaceRejectsInvalidSetWithoutWriting(t *testing.T) {
	db := setupTierTestDB(t)
	svc := newTierService(t, db)
	ctx := context.Background()

	bad := validSet()
	bad[0].PeriodEnd = -1
	_, err := svc.Replace(ctx, bad)
	require.Error(t, err)

	_, err = svc.Active(ctx)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Table("repayment_tiers").Count(&count).Error)
	assert.Zero(t, count)
}

func TestActiveWithoutConfigurationFails(t *testing.T) {
	db := setupTierTestDB(t)
	svc := newTierService(t, db)

	_, err := svc.Active(context.Background())
	require.Error(t, err)
}

func TestByVersionUnknownFails(t *testing.T) {
	db := setupTierTestDB(t)
	svc := newTierService(t, db)

	_, err := svc.ByVersion(context.Background(), 99)
	require.Error(t, err)
}

func TestCommissionFallbackAndOverride(t *testing.T) {
	db := setupTierTestDB(t)
	svc := newTierService(t, db)
	ctx := context.Background()

	policy, err := svc.Commission(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5000000), policy.ThresholdPaise)
	assert.True(t, policy.LowRate.Equal(decimal.NewFromInt(2)))
	assert.True(t, policy.HighRate.Equal(decimal.NewFromInt(3)))

	require.NoError(t, svc.SetCommission(ctx, CommissionPolicy{
		ThresholdPaise: 7500000,
		LowRate:        decimal.NewFromFloat(1.5),
		HighRate:       decimal.NewFromFloat(2.5),
	}))

	policy, err = svc.Commission(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7500000), policy.ThresholdPaise)
	assert.True(t, policy.HighRate.Equal(decimal.NewFromFloat(2.5)))
}

func TestCommissionRateIsStepFunction(t *testing.T) {
	policy := CommissionPolicy{
		ThresholdPaise: 5000000,
		LowRate:        decimal.NewFromInt(2),
		HighRate:       decimal.NewFromInt(3),
	}

	assert.True(t, policy.Rate(0).Equal(decimal.NewFromInt(2)))
	assert.True(t, policy.Rate(4999999).Equal(decimal.NewFromInt(2)))
	assert.True(t, policy.Rate(5000000).Equal(decimal.NewFromInt(3)))
	assert.True(t, policy.Rate(20000000).Equal(decimal.NewFromInt(3)))

	assert.True(t, policy.Crosses(4500000, 6500000))
	assert.False(t, policy.Crosses(5000000, 6500000))
	assert.False(t, policy.Crosses(1000000, 2000000))
}
