package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

// Repository manages persistence for payment history entries. The table is
// append-only: the repository exposes no update or delete operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.PaymentHistory) error
	CodeExists(ctx context.Context, code string) (bool, error)
	ExistsByReference(ctx context.Context, referenceID uuid.UUID, activity enums.ActivityType) (bool, error)
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PaymentHistory, error)
	ListByReference(ctx context.Context, referenceID uuid.UUID) ([]models.PaymentHistory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payment history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.PaymentHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentHistory{}).
		Where("history_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ExistsByReference(ctx context.Context, referenceID uuid.UUID, activity enums.ActivityType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentHistory{}).
		Where("reference_id = ? AND activity = ?", referenceID, activity).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByActor(ctx context.Context, actorID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PaymentHistory, error) {
	query := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.PaymentHistory
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByReference(ctx context.Context, referenceID uuid.UUID) ([]models.PaymentHistory, error) {
	var entries []models.PaymentHistory
	if err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
