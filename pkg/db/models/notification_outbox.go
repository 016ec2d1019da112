package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// NotificationOutbox is a pending notification written in the same
// transaction as the state change it announces. A dispatcher job drains
// pending rows and marks them sent or failed.
type NotificationOutbox struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Channel     enums.NotificationChannel `gorm:"column:channel;type:notification_channel_enum;not null"`
	Type        enums.NotificationType    `gorm:"column:type;type:notification_type_enum;not null"`
	RecipientID uuid.UUID                 `gorm:"column:recipient_id;type:uuid;not null;index"`
	Payload     json.RawMessage           `gorm:"column:payload;type:jsonb"`
	Status      enums.OutboxStatus        `gorm:"column:status;type:outbox_status_enum;not null;default:pending;index"`
	Attempts    int                       `gorm:"column:attempts;not null;default:0"`
	LastError   *string                   `gorm:"column:last_error;type:text"`
	SentAt      *time.Time                `gorm:"column:sent_at"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
