package enums

import "testing"

func TestDeliveryStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to DeliveryStatus
		allowed  bool
	}{
		{DeliveryStatusScheduled, DeliveryStatusInTransit, true},
		{DeliveryStatusScheduled, DeliveryStatusDelivered, true},
		{DeliveryStatusInTransit, DeliveryStatusDelivered, true},
		{DeliveryStatusDelivered, DeliveryStatusScheduled, false},
		{DeliveryStatusDelivered, DeliveryStatusInTransit, false},
		{DeliveryStatusInTransit, DeliveryStatusScheduled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Fatalf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestRepaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to RepaymentStatus
		allowed  bool
	}{
		{RepaymentStatusPending, RepaymentStatusProcessing, true},
		{RepaymentStatusPending, RepaymentStatusCompleted, true},
		{RepaymentStatusPending, RepaymentStatusCancelled, true},
		{RepaymentStatusProcessing, RepaymentStatusCompleted, true},
		{RepaymentStatusProcessing, RepaymentStatusFailed, true},
		{RepaymentStatusProcessing, RepaymentStatusCancelled, true},
		{RepaymentStatusCompleted, RepaymentStatusPending, false},
		{RepaymentStatusCompleted, RepaymentStatusCancelled, false},
		{RepaymentStatusFailed, RepaymentStatusCompleted, false},
		{RepaymentStatusCancelled, RepaymentStatusProcessing, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Fatalf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}

	for _, terminal := range []RepaymentStatus{RepaymentStatusCompleted, RepaymentStatusFailed, RepaymentStatusCancelled} {
		if !terminal.IsTerminal() {
			t.Fatalf("%s should be terminal", terminal)
		}
	}
}

func TestPurchaseStatusTransitions(t *testing.T) {
	if !PurchaseStatusRequested.CanTransition(PurchaseStatusApproved) {
		t.Fatal("requested -> approved must be allowed")
	}
	if !PurchaseStatusRequested.CanTransition(PurchaseStatusRejected) {
		t.Fatal("requested -> rejected must be allowed")
	}
	if PurchaseStatusApproved.CanTransition(PurchaseStatusRejected) {
		t.Fatal("review happens exactly once")
	}
}

func TestActivityTypeParse(t *testing.T) {
	if _, err := ParseActivityType("vendor_earning_credited"); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if _, err := ParseActivityType("not_real"); err == nil {
		t.Fatal("expected error for unknown activity type")
	}
	if ActivityType("made_up").IsValid() {
		t.Fatal("unknown type cannot be valid")
	}
}
