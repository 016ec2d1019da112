package identifier

import (
	"context"
	"fmt"
	"time"
)

// Human-readable code prefixes.
const (
	PrefixCreditPurchase = "CRP"
	PrefixVendorEarning  = "VNE"
	PrefixCommission     = "COM"
	PrefixPaymentHistory = "PH"
	PrefixInventory      = "INV"

	repaymentPrefix = "REP"

	// sequenceStart is the first value handed out for plain prefixes.
	sequenceStart = 101
	// maxSequenceValue bounds probing before the timestamp fallback kicks in.
	maxSequenceValue = 100000
)

// ExistsFunc reports whether a candidate code is already taken. Callers pass
// a lookup against their own table so seeded or imported rows cannot collide
// with freshly allocated codes.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Allocator produces unique human-readable identifiers like CRP-101.
type Allocator interface {
	Next(ctx context.Context, prefix string) (string, error)
	NextWithProbe(ctx context.Context, prefix string, exists ExistsFunc) (string, error)
	NextRepaymentCode(ctx context.Context, at time.Time) (string, error)
}

type allocator struct {
	repo Repository
	now  func() time.Time
}

// NewAllocator wires an allocator with the provided sequence repository.
func NewAllocator(repo Repository) (Allocator, error) {
	if repo == nil {
		return nil, fmt.Errorf("identifier repository required")
	}
	return &allocator{repo: repo, now: time.Now}, nil
}

func (a *allocator) Next(ctx context.Context, prefix string) (string, error) {
	return a.NextWithProbe(ctx, prefix, nil)
}

func (a *allocator) NextWithProbe(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("prefix is required")
	}
	for {
		value, err := a.repo.NextValue(ctx, prefix, sequenceStart)
		if err != nil {
			return "", fmt.Errorf("next value for %s: %w", prefix, err)
		}
		if value > maxSequenceValue {
			return a.fallback(prefix), nil
		}
		code := fmt.Sprintf("%s-%d", prefix, value)
		if exists == nil {
			return code, nil
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}
}

// NextRepaymentCode allocates REP-YYYYMMDD-NNNN codes with a per-day sequence.
func (a *allocator) NextRepaymentCode(ctx context.Context, at time.Time) (string, error) {
	if at.IsZero() {
		at = a.now().UTC()
	}
	day := at.UTC().Format("20060102")
	value, err := a.repo.NextValue(ctx, repaymentPrefix+":"+day, 1)
	if err != nil {
		return "", fmt.Errorf("next repayment value: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", repaymentPrefix, day, value), nil
}

// fallback produces a timestamp-based code once the sequence space for a
// prefix is exhausted.
func (a *allocator) fallback(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, a.now().UTC().UnixMilli())
}
