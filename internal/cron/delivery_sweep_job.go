package cron

import (
	"context"
	"fmt"

	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

const defaultDeliveryBatchSize = 100

// DeliverySweepJobParams configure the due-delivery sweep.
type DeliverySweepJobParams struct {
	Logger      *logger.Logger
	Fulfillment deliverySweeper
	BatchSize   int
}

type deliverySweeper interface {
	ProcessDueDeliveries(ctx context.Context, batchSize int) (int, error)
}

// NewDeliverySweepJob builds the job that moves overdue approved purchases
// into vendor inventory.
func NewDeliverySweepJob(params DeliverySweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Fulfillment == nil {
		return nil, fmt.Errorf("fulfillment service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultDeliveryBatchSize
	}
	return &deliverySweepJob{
		logg:      params.Logger,
		sweeper:   params.Fulfillment,
		batchSize: batchSize,
	}, nil
}

type deliverySweepJob struct {
	logg      *logger.Logger
	sweeper   deliverySweeper
	batchSize int
}

func (j *deliverySweepJob) Name() string { return "delivery-sweep" }

func (j *deliverySweepJob) Run(ctx context.Context) error {
	delivered, err := j.sweeper.ProcessDueDeliveries(ctx, j.batchSize)
	logCtx := j.logg.WithFields(ctx, map[string]any{"delivered": delivered})
	if err != nil {
		j.logg.Warn(logCtx, "delivery sweep finished with errors")
		return err
	}
	j.logg.Info(logCtx, "delivery sweep complete")
	return nil
}
