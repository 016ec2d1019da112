package tiers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
)

// Service exposes the versioned tier table. Reads always resolve to a
// concrete Snapshot; writes validate the whole set and publish a new
// version atomically.
type Service interface {
	Active(ctx context.Context) (*Snapshot, error)
	ByVersion(ctx context.Context, version int) (*Snapshot, error)
	Replace(ctx context.Context, set []Tier) (*Snapshot, error)
	Commission(ctx context.Context) (CommissionPolicy, error)
	SetCommission(ctx context.Context, policy CommissionPolicy) error
}

type service struct {
	db       *gorm.DB
	repo     Repository
	fallback CommissionPolicy
}

// NewService wires a tier service. The fallback commission policy is used
// until an operator stores an override in the settings table.
func NewService(db *gorm.DB, repo Repository, fallback CommissionPolicy) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if repo == nil {
		return nil, fmt.Errorf("tier repository required")
	}
	return &service{db: db, repo: repo, fallback: fallback}, nil
}

func (s *service) Active(ctx context.Context) (*Snapshot, error) {
	version, err := s.repo.ActiveVersion(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, apperrors.New(apperrors.CodeStateConflict, "no active tier configuration")
	}
	return s.ByVersion(ctx, version)
}

func (s *service) ByVersion(ctx context.Context, version int) (*Snapshot, error) {
	rows, err := s.repo.ListByVersion(ctx, version)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("tier version %d not found", version))
	}
	return snapshotFromModels(version, rows)
}

// Replace validates the proposed tier set and publishes it as a new version.
// Older versions are never mutated so stored breakdowns stay reproducible.
func (s *service) Replace(ctx context.Context, set []Tier) (*Snapshot, error) {
	if err := ValidateSet(set); err != nil {
		return nil, err
	}

	var snap *Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		version, err := repo.NextVersion(ctx)
		if err != nil {
			return err
		}

		rows := make([]models.RepaymentTier, 0, len(set))
		for _, tier := range set {
			rows = append(rows, models.RepaymentTier{
				ID:          uuid.New(),
				Version:     version,
				Kind:        tier.Kind,
				Name:        tier.Name,
				PeriodStart: tier.PeriodStart,
				PeriodEnd:   tier.PeriodEnd,
				RatePercent: tier.Rate.StringFixed(2),
			})
		}
		if err := repo.Insert(ctx, rows); err != nil {
			return err
		}
		if err := repo.SetActiveVersion(ctx, version); err != nil {
			return err
		}

		snap = &Snapshot{Version: version, Tiers: append([]Tier(nil), set...)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Commission resolves the live commission policy: stored settings override
// the configured fallback key by key.
func (s *service) Commission(ctx context.Context) (CommissionPolicy, error) {
	policy := s.fallback

	if raw, ok, err := s.repo.GetSetting(ctx, models.SettingCommissionThreshold); err != nil {
		return CommissionPolicy{}, err
	} else if ok {
		threshold, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return CommissionPolicy{}, apperrors.New(apperrors.CodeInternal, fmt.Sprintf("malformed commission threshold setting %q", raw))
		}
		policy.ThresholdPaise = threshold
	}

	for _, override := range []struct {
		key  string
		dest *decimal.Decimal
	}{
		{models.SettingCommissionLowRate, &policy.LowRate},
		{models.SettingCommissionHighRate, &policy.HighRate},
	} {
		raw, ok, err := s.repo.GetSetting(ctx, override.key)
		if err != nil {
			return CommissionPolicy{}, err
		}
		if !ok {
			continue
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return CommissionPolicy{}, apperrors.New(apperrors.CodeInternal, fmt.Sprintf("malformed commission rate setting %q", raw))
		}
		*override.dest = rate
	}

	return policy, nil
}

// SetCommission stores the policy as settings overrides.
func (s *service) SetCommission(ctx context.Context, policy CommissionPolicy) error {
	if policy.ThresholdPaise <= 0 {
		return apperrors.New(apperrors.CodeValidation, "commission threshold must be positive")
	}
	if policy.LowRate.IsNegative() || policy.HighRate.IsNegative() {
		return apperrors.New(apperrors.CodeValidation, "commission rates must not be negative")
	}
	if policy.HighRate.LessThan(policy.LowRate) {
		return apperrors.New(apperrors.CodeValidation, "high commission rate must not undercut the low rate")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for key, value := range map[string]string{
			models.SettingCommissionThreshold: strconv.FormatInt(policy.ThresholdPaise, 10),
			models.SettingCommissionLowRate:   policy.LowRate.StringFixed(2),
			models.SettingCommissionHighRate:  policy.HighRate.StringFixed(2),
		} {
			if err := repo.PutSetting(ctx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}
