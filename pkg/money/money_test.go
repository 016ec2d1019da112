package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercentRoundsHalfUpOnce(t *testing.T) {
	tests := []struct {
		name   string
		amount Amount
		rate   string
		want   int64
	}{
		{name: "ten percent of ten thousand rupees", amount: FromRupees(10000), rate: "10", want: 100000},
		{name: "five percent of ten thousand rupees", amount: FromRupees(10000), rate: "5", want: 50000},
		{name: "half paisa rounds up", amount: FromPaise(25), rate: "50", want: 13},
		{name: "below half paisa rounds down", amount: FromPaise(24), rate: "50", want: 12},
		{name: "zero rate", amount: FromRupees(500), rate: "0", want: 0},
		{name: "fractional rate", amount: FromRupees(20000), rate: "2.5", want: 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := decimal.NewFromString(tt.rate)
			if err != nil {
				t.Fatalf("bad rate: %v", err)
			}
			if got := tt.amount.Percent(rate).Paise(); got != tt.want {
				t.Fatalf("Percent(%s) = %d paise, want %d", tt.rate, got, tt.want)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := FromRupees(120)
	b := FromRupees(100)
	if got := a.Sub(b).MulInt(5); got != FromRupees(100) {
		t.Fatalf("spread math: got %s, want %s", got, FromRupees(100))
	}
	if !a.IsPositive() || a.Neg().IsPositive() {
		t.Fatal("sign helpers misbehave")
	}
}

func TestString(t *testing.T) {
	if got := FromPaise(1050075).String(); got != "₹10500.75" {
		t.Fatalf("unexpected formatting: %s", got)
	}
}
