package enums

import "fmt"

// OrderPaymentStatus tracks how much of an order has been paid.
type OrderPaymentStatus string

const (
	OrderPaymentStatusUnpaid        OrderPaymentStatus = "unpaid"
	OrderPaymentStatusAdvancePaid   OrderPaymentStatus = "advance_paid"
	OrderPaymentStatusPartiallyPaid OrderPaymentStatus = "partially_paid"
	OrderPaymentStatusFullyPaid     OrderPaymentStatus = "fully_paid"
)

var validOrderPaymentStatuses = []OrderPaymentStatus{
	OrderPaymentStatusUnpaid,
	OrderPaymentStatusAdvancePaid,
	OrderPaymentStatusPartiallyPaid,
	OrderPaymentStatusFullyPaid,
}

// IsValid reports whether the value is a known OrderPaymentStatus.
func (o OrderPaymentStatus) IsValid() bool {
	for _, candidate := range validOrderPaymentStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderPaymentStatus converts raw input into an OrderPaymentStatus.
func ParseOrderPaymentStatus(value string) (OrderPaymentStatus, error) {
	for _, candidate := range validOrderPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order payment status %q", value)
}

// OrderAssignee identifies who is fulfilling an order.
type OrderAssignee string

const (
	OrderAssigneeVendor OrderAssignee = "vendor"
	OrderAssigneeAdmin  OrderAssignee = "admin"
)

// IsValid reports whether the value is a known OrderAssignee.
func (o OrderAssignee) IsValid() bool {
	return o == OrderAssigneeVendor || o == OrderAssigneeAdmin
}
