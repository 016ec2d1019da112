package enums

import "fmt"

// PurchaseStatus tracks the review lifecycle of a credit purchase request.
type PurchaseStatus string

const (
	PurchaseStatusRequested PurchaseStatus = "requested"
	PurchaseStatusApproved  PurchaseStatus = "approved"
	PurchaseStatusRejected  PurchaseStatus = "rejected"
)

var validPurchaseStatuses = []PurchaseStatus{
	PurchaseStatusRequested,
	PurchaseStatusApproved,
	PurchaseStatusRejected,
}

// String implements fmt.Stringer.
func (p PurchaseStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseStatus.
func (p PurchaseStatus) IsValid() bool {
	for _, candidate := range validPurchaseStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePurchaseStatus converts raw input into a PurchaseStatus.
func ParsePurchaseStatus(value string) (PurchaseStatus, error) {
	for _, candidate := range validPurchaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase status %q", value)
}

// CanTransition reports whether the review status may move to next.
// Review happens exactly once: requested -> approved|rejected.
func (p PurchaseStatus) CanTransition(next PurchaseStatus) bool {
	if p != PurchaseStatusRequested {
		return false
	}
	return next == PurchaseStatusApproved || next == PurchaseStatusRejected
}
