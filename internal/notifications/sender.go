package notifications

import (
	"context"
	"fmt"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

// LogSender writes notifications to the service log instead of an external
// channel. It stands in until a push or SMS provider is wired up.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender returns a Sender backed by the service log.
func NewLogSender(logg *logger.Logger) (*LogSender, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogSender{logg: logg}, nil
}

func (s *LogSender) Send(ctx context.Context, n models.NotificationOutbox) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"notification_id": n.ID,
		"channel":         n.Channel,
		"type":            n.Type,
		"recipient_id":    n.RecipientID,
	})
	s.logg.Info(logCtx, "notification dispatched")
	return nil
}
