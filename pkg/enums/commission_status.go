package enums

import "fmt"

// CommissionStatus tracks the payout lifecycle of a seller commission.
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusCredited  CommissionStatus = "credited"
	CommissionStatusWithdrawn CommissionStatus = "withdrawn"
)

var validCommissionStatuses = []CommissionStatus{
	CommissionStatusPending,
	CommissionStatusCredited,
	CommissionStatusWithdrawn,
}

// IsValid reports whether the value is a known CommissionStatus.
func (c CommissionStatus) IsValid() bool {
	for _, candidate := range validCommissionStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommissionStatus converts raw input into a CommissionStatus.
func ParseCommissionStatus(value string) (CommissionStatus, error) {
	for _, candidate := range validCommissionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission status %q", value)
}
