package enums

import "fmt"

// RepaymentStatus tracks the lifecycle of a credit repayment attempt.
type RepaymentStatus string

const (
	RepaymentStatusPending    RepaymentStatus = "pending"
	RepaymentStatusProcessing RepaymentStatus = "processing"
	RepaymentStatusCompleted  RepaymentStatus = "completed"
	RepaymentStatusFailed     RepaymentStatus = "failed"
	RepaymentStatusCancelled  RepaymentStatus = "cancelled"
)

var validRepaymentStatuses = []RepaymentStatus{
	RepaymentStatusPending,
	RepaymentStatusProcessing,
	RepaymentStatusCompleted,
	RepaymentStatusFailed,
	RepaymentStatusCancelled,
}

// repaymentTransitions is forward-only except cancellation, which is allowed
// from pending and processing.
var repaymentTransitions = map[RepaymentStatus][]RepaymentStatus{
	RepaymentStatusPending:    {RepaymentStatusProcessing, RepaymentStatusCompleted, RepaymentStatusFailed, RepaymentStatusCancelled},
	RepaymentStatusProcessing: {RepaymentStatusCompleted, RepaymentStatusFailed, RepaymentStatusCancelled},
	RepaymentStatusCompleted:  {},
	RepaymentStatusFailed:     {},
	RepaymentStatusCancelled:  {},
}

// String implements fmt.Stringer.
func (r RepaymentStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RepaymentStatus.
func (r RepaymentStatus) IsValid() bool {
	for _, candidate := range validRepaymentStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRepaymentStatus converts raw input into a RepaymentStatus.
func ParseRepaymentStatus(value string) (RepaymentStatus, error) {
	for _, candidate := range validRepaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repayment status %q", value)
}

// CanTransition reports whether the status may move to next.
func (r RepaymentStatus) CanTransition(next RepaymentStatus) bool {
	for _, candidate := range repaymentTransitions[r] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (r RepaymentStatus) IsTerminal() bool {
	return len(repaymentTransitions[r]) == 0
}
