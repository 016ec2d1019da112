package enums

import "fmt"

// DeliveryStatus tracks stock delivery for an approved credit purchase.
type DeliveryStatus string

const (
	DeliveryStatusScheduled DeliveryStatus = "scheduled"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusScheduled,
	DeliveryStatusInTransit,
	DeliveryStatusDelivered,
}

// deliveryTransitions is the closed forward-only transition table.
var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusScheduled: {DeliveryStatusInTransit, DeliveryStatusDelivered},
	DeliveryStatusInTransit: {DeliveryStatusDelivered},
	DeliveryStatusDelivered: {},
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}

// CanTransition reports whether the delivery status may advance to next.
func (d DeliveryStatus) CanTransition(next DeliveryStatus) bool {
	for _, candidate := range deliveryTransitions[d] {
		if candidate == next {
			return true
		}
	}
	return false
}
