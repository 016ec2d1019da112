package cron

import (
	"context"
	"fmt"

	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

const defaultDispatchBatchSize = 200

// NotificationDispatchJobParams configure the outbox drain.
type NotificationDispatchJobParams struct {
	Logger    *logger.Logger
	Notifier  pendingDispatcher
	BatchSize int
}

type pendingDispatcher interface {
	DispatchPending(ctx context.Context, limit int) (int, error)
}

// NewNotificationDispatchJob builds the job that drains the notification
// outbox through the configured sender.
func NewNotificationDispatchJob(params NotificationDispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notification service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultDispatchBatchSize
	}
	return &notificationDispatchJob{
		logg:      params.Logger,
		notifier:  params.Notifier,
		batchSize: batchSize,
	}, nil
}

type notificationDispatchJob struct {
	logg      *logger.Logger
	notifier  pendingDispatcher
	batchSize int
}

func (j *notificationDispatchJob) Name() string { return "notification-dispatch" }

func (j *notificationDispatchJob) Run(ctx context.Context) error {
	sent, err := j.notifier.DispatchPending(ctx, j.batchSize)
	logCtx := j.logg.WithFields(ctx, map[string]any{"sent": sent})
	if err != nil {
		j.logg.Warn(logCtx, "notification dispatch finished with errors")
		return err
	}
	j.logg.Info(logCtx, "notification dispatch complete")
	return nil
}
