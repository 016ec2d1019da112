package enums

import "fmt"

// NotificationChannel identifies which audience a notification targets.
type NotificationChannel string

const (
	NotificationChannelVendor NotificationChannel = "vendor"
	NotificationChannelSeller NotificationChannel = "seller"
)

// IsValid reports whether the channel is known.
func (c NotificationChannel) IsValid() bool {
	return c == NotificationChannelVendor || c == NotificationChannelSeller
}

// NotificationType classifies outbound notifications raised by the engine.
type NotificationType string

const (
	NotificationTypeCommissionEarned   NotificationType = "commission_earned"
	NotificationTypeTierUpgraded       NotificationType = "tier_upgraded"
	NotificationTypeRepaymentCompleted NotificationType = "repayment_completed"
	NotificationTypeRepaymentFailed    NotificationType = "repayment_failed"
	NotificationTypeStockDelivered     NotificationType = "stock_delivered"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeCommissionEarned,
	NotificationTypeTierUpgraded,
	NotificationTypeRepaymentCompleted,
	NotificationTypeRepaymentFailed,
	NotificationTypeStockDelivered,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// OutboxStatus tracks delivery state for queued notifications.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// IsValid reports whether the outbox status is known.
func (s OutboxStatus) IsValid() bool {
	return s == OutboxStatusPending || s == OutboxStatusSent || s == OutboxStatusFailed
}
