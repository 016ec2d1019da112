package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// PaymentHistory is the append-only financial ledger. Rows are only ever
// inserted; updates and deletes are refused at the repository layer.
type PaymentHistory struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HistoryCode string             `gorm:"column:history_code;type:text;not null;uniqueIndex"`
	Activity    enums.ActivityType `gorm:"column:activity;type:activity_type_enum;not null;index"`
	ActorKind   enums.ActorKind    `gorm:"column:actor_kind;type:actor_kind_enum;not null"`
	ActorID     uuid.UUID          `gorm:"column:actor_id;type:uuid;not null;index:idx_payment_history_actor"`
	Amount      int64              `gorm:"column:amount_paise;not null"`
	ReferenceID *uuid.UUID         `gorm:"column:reference_id;type:uuid;index"`
	Description string             `gorm:"column:description;type:text;not null"`
	Metadata    json.RawMessage    `gorm:"column:metadata;type:jsonb"`
	OccurredAt  time.Time          `gorm:"column:occurred_at;not null;index"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
