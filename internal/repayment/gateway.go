package repayment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/agrimandi/agrimandi-backend/pkg/config"
	apperrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/money"
)

// ChargeRequest asks the payment gateway to collect the final payable from
// the vendor's bank account.
type ChargeRequest struct {
	RepaymentCode string
	VendorID      uuid.UUID
	BankAccountID *uuid.UUID
	Amount        money.Amount
}

// ChargeResult carries the gateway's reference for a successful charge.
type ChargeResult struct {
	Reference string
}

// Gateway is the external payment collector. Implementations must be safe
// to call with the same RepaymentCode more than once.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// RetryingGateway wraps a Gateway with bounded exponential backoff. Only
// errors the inner gateway marks retryable are retried; a declined charge
// surfaces immediately.
type RetryingGateway struct {
	inner Gateway
	cfg   config.GatewayConfig
}

// NewRetryingGateway wraps the given gateway with the configured retry policy.
func NewRetryingGateway(inner Gateway, cfg config.GatewayConfig) (*RetryingGateway, error) {
	if inner == nil {
		return nil, fmt.Errorf("gateway required")
	}
	return &RetryingGateway{inner: inner, cfg: cfg}, nil
}

func (g *RetryingGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	timeout := g.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retries := g.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := retry.NewExponential(g.cfg.RetryDelay)
	backoff = retry.WithMaxRetries(uint64(retries), backoff)

	var result *ChargeResult
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := g.inner.Charge(ctx, req)
		if err != nil {
			// Untyped errors are treated as transient; a typed decline
			// surfaces immediately.
			if typed := apperrors.As(err); typed != nil && !apperrors.MetadataFor(typed.Code()).Retryable {
				return err
			}
			return retry.RetryableError(err)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DisabledGateway rejects every charge. Deployments that only run sweep
// jobs use it so a missing gateway configuration is an explicit error
// rather than a hung charge.
type DisabledGateway struct{}

func (DisabledGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	return nil, apperrors.New(apperrors.CodeValidation, "payment gateway is not configured")
}
