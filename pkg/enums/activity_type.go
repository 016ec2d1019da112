package enums

import "fmt"

// ActivityType maps to the activity_type_enum enum in Postgres. It is the
// closed set of financial side-effects the payment history ledger records.
type ActivityType string

const (
	ActivityUserPaymentAdvance        ActivityType = "user_payment_advance"
	ActivityUserPaymentRemaining      ActivityType = "user_payment_remaining"
	ActivityVendorEarningCredited     ActivityType = "vendor_earning_credited"
	ActivitySellerCommissionCredited  ActivityType = "seller_commission_credited"
	ActivityCreditPurchaseApproved    ActivityType = "credit_purchase_approved"
	ActivityCreditPurchaseDelivered   ActivityType = "credit_purchase_delivered"
	ActivityCreditRepaymentCompleted  ActivityType = "credit_repayment_completed"
	ActivityCreditRepaymentFailed     ActivityType = "credit_repayment_failed"
	ActivityVendorWithdrawalRequested ActivityType = "vendor_withdrawal_requested"
	ActivityVendorWithdrawalApproved  ActivityType = "vendor_withdrawal_approved"
	ActivityVendorWithdrawalRejected  ActivityType = "vendor_withdrawal_rejected"
	ActivityVendorWithdrawalCompleted ActivityType = "vendor_withdrawal_completed"
	ActivitySellerWithdrawalRequested ActivityType = "seller_withdrawal_requested"
	ActivitySellerWithdrawalApproved  ActivityType = "seller_withdrawal_approved"
	ActivitySellerWithdrawalRejected  ActivityType = "seller_withdrawal_rejected"
	ActivitySellerWithdrawalCompleted ActivityType = "seller_withdrawal_completed"
	ActivityBankAccountAdded          ActivityType = "bank_account_added"
	ActivityBankAccountUpdated        ActivityType = "bank_account_updated"
	ActivityBankAccountDeleted        ActivityType = "bank_account_deleted"
)

var validActivityTypes = []ActivityType{
	ActivityUserPaymentAdvance,
	ActivityUserPaymentRemaining,
	ActivityVendorEarningCredited,
	ActivitySellerCommissionCredited,
	ActivityCreditPurchaseApproved,
	ActivityCreditPurchaseDelivered,
	ActivityCreditRepaymentCompleted,
	ActivityCreditRepaymentFailed,
	ActivityVendorWithdrawalRequested,
	ActivityVendorWithdrawalApproved,
	ActivityVendorWithdrawalRejected,
	ActivityVendorWithdrawalCompleted,
	ActivitySellerWithdrawalRequested,
	ActivitySellerWithdrawalApproved,
	ActivitySellerWithdrawalRejected,
	ActivitySellerWithdrawalCompleted,
	ActivityBankAccountAdded,
	ActivityBankAccountUpdated,
	ActivityBankAccountDeleted,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value matches the canonical activity enum.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
