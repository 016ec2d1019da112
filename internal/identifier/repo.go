package identifier

import (
	"context"

	"gorm.io/gorm"
)

// Repository hands out monotonically increasing sequence values per prefix.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextValue(ctx context.Context, prefix string, start int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sequence repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextValue bumps the sequence for prefix in a single atomic statement. The
// first allocation for a prefix returns start; concurrent callers can never
// observe the same value.
func (r *repository) NextValue(ctx context.Context, prefix string, start int64) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(`
INSERT INTO id_sequences (prefix, value) VALUES (?, ?)
ON CONFLICT (prefix) DO UPDATE SET value = id_sequences.value + 1
RETURNING value`, prefix, start).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
