package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// Repository manages the notification outbox table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.NotificationOutbox) error
	ListPending(ctx context.Context, limit int) ([]models.NotificationOutbox, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an outbox repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, row *models.NotificationOutbox) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) ListPending(ctx context.Context, limit int) ([]models.NotificationOutbox, error) {
	var rows []models.NotificationOutbox
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   enums.OutboxStatusSent,
			"sent_at":  now,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.OutboxStatusFailed,
			"last_error": reason,
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error
}
