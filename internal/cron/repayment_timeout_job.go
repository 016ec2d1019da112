package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

const defaultRepaymentPendingTTL = 30 * time.Minute

// RepaymentTimeoutJobParams configure the stale-repayment monitor.
type RepaymentTimeoutJobParams struct {
	Logger     *logger.Logger
	Repayments staleRepaymentFailer
	PendingTTL time.Duration
}

type staleRepaymentFailer interface {
	FailStaleProcessing(ctx context.Context, pendingTTL time.Duration) (int, error)
}

// NewRepaymentTimeoutJob builds the job that fails repayments stuck waiting
// on a gateway response.
func NewRepaymentTimeoutJob(params RepaymentTimeoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repayments == nil {
		return nil, fmt.Errorf("repayment service required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultRepaymentPendingTTL
	}
	return &repaymentTimeoutJob{
		logg:       params.Logger,
		repayments: params.Repayments,
		pendingTTL: ttl,
	}, nil
}

type repaymentTimeoutJob struct {
	logg       *logger.Logger
	repayments staleRepaymentFailer
	pendingTTL time.Duration
}

func (j *repaymentTimeoutJob) Name() string { return "repayment-timeout" }

func (j *repaymentTimeoutJob) Run(ctx context.Context) error {
	failed, err := j.repayments.FailStaleProcessing(ctx, j.pendingTTL)
	logCtx := j.logg.WithFields(ctx, map[string]any{"failed": failed})
	if err != nil {
		j.logg.Warn(logCtx, "repayment timeout sweep finished with errors")
		return err
	}
	if failed > 0 {
		j.logg.Warn(logCtx, "stale repayments marked failed")
	} else {
		j.logg.Info(logCtx, "repayment timeout sweep complete")
	}
	return nil
}
