package tiers

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
)

// Repository manages persistence for versioned tier tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ActiveVersion(ctx context.Context) (int, error)
	ListByVersion(ctx context.Context, version int) ([]models.RepaymentTier, error)
	NextVersion(ctx context.Context) (int, error)
	Insert(ctx context.Context, rows []models.RepaymentTier) error
	SetActiveVersion(ctx context.Context, version int) error
	GetSetting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tier repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ActiveVersion(ctx context.Context) (int, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).
		Where("key = ?", models.SettingActiveTierVersion).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(setting.Value)
}

func (r *repository) ListByVersion(ctx context.Context, version int) ([]models.RepaymentTier, error) {
	var rows []models.RepaymentTier
	if err := r.db.WithContext(ctx).
		Where("version = ?", version).
		Order("period_start ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) NextVersion(ctx context.Context) (int, error) {
	var maxVersion int
	if err := r.db.WithContext(ctx).
		Model(&models.RepaymentTier{}).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error; err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

func (r *repository) Insert(ctx context.Context, rows []models.RepaymentTier) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) SetActiveVersion(ctx context.Context, version int) error {
	return r.PutSetting(ctx, models.SettingActiveTierVersion, strconv.Itoa(version))
}

func (r *repository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

func (r *repository) PutSetting(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Save(&models.Setting{Key: key, Value: value}).Error
}
