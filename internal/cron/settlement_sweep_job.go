package cron

import (
	"context"
	"fmt"

	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

const defaultSettlementBatchSize = 100

// SettlementSweepJobParams configure the unsettled-order sweep.
type SettlementSweepJobParams struct {
	Logger     *logger.Logger
	Settlement orderSettler
	BatchSize  int
}

type orderSettler interface {
	ProcessUnsettled(ctx context.Context, batchSize int) (int, error)
}

// NewSettlementSweepJob builds the job that settles fully paid orders that
// missed inline settlement.
func NewSettlementSweepJob(params SettlementSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultSettlementBatchSize
	}
	return &settlementSweepJob{
		logg:      params.Logger,
		settler:   params.Settlement,
		batchSize: batchSize,
	}, nil
}

type settlementSweepJob struct {
	logg      *logger.Logger
	settler   orderSettler
	batchSize int
}

func (j *settlementSweepJob) Name() string { return "settlement-sweep" }

func (j *settlementSweepJob) Run(ctx context.Context) error {
	settled, err := j.settler.ProcessUnsettled(ctx, j.batchSize)
	logCtx := j.logg.WithFields(ctx, map[string]any{"settled": settled})
	if err != nil {
		j.logg.Warn(logCtx, "settlement sweep finished with errors")
		return err
	}
	j.logg.Info(logCtx, "settlement sweep complete")
	return nil
}
