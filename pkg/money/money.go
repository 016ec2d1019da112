// Package money provides fixed-point currency arithmetic for the settlement
// engine. Amounts are stored as integer paise so that sums are exact; rate
// application happens in decimal space and is rounded half-up to the paisa
// exactly once, never accumulated across intermediate steps.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in paise (1/100 rupee).
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// FromPaise wraps a raw paise value.
func FromPaise(paise int64) Amount {
	return Amount(paise)
}

// FromRupees converts whole rupees into an Amount.
func FromRupees(rupees int64) Amount {
	return Amount(rupees * 100)
}

// Paise returns the raw paise value.
func (a Amount) Paise() int64 {
	return int64(a)
}

// Rupees returns the amount as a decimal rupee value.
func (a Amount) Rupees() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return a + b
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return a - b
}

// Neg returns the negated amount.
func (a Amount) Neg() Amount {
	return -a
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// IsNegative reports whether the amount is strictly less than zero.
func (a Amount) IsNegative() bool {
	return a < 0
}

// Percent applies a percentage rate to the amount, rounding half-up to the
// paisa. Percent(rate) of ₹10,000.00 at rate 10 yields ₹1,000.00.
func (a Amount) Percent(rate decimal.Decimal) Amount {
	result := decimal.New(int64(a), 0).
		Mul(rate).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return Amount(result.IntPart())
}

// MulInt returns the amount multiplied by a whole quantity.
func (a Amount) MulInt(qty int) Amount {
	return a * Amount(qty)
}

// String renders the amount as rupees with two decimal places.
func (a Amount) String() string {
	return fmt.Sprintf("₹%s", a.Rupees().StringFixed(2))
}
