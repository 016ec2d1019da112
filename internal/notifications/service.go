package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

// Sender delivers one notification to the outside world. Delivery failures
// never roll back the financial record that produced the notification.
type Sender interface {
	Send(ctx context.Context, notification models.NotificationOutbox) error
}

// Service enqueues notifications transactionally and drains them later.
type Service interface {
	Enqueue(ctx context.Context, tx *gorm.DB, input EnqueueInput) error
	DispatchPending(ctx context.Context, limit int) (int, error)
}

// EnqueueInput describes one notification to be written to the outbox.
type EnqueueInput struct {
	Channel     enums.NotificationChannel
	Type        enums.NotificationType
	RecipientID uuid.UUID
	Payload     any
}

type service struct {
	repo   Repository
	sender Sender
	logg   *logger.Logger
}

// NewService wires a notification service.
func NewService(repo Repository, sender Sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if sender == nil {
		return nil, fmt.Errorf("notification sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, sender: sender, logg: logg}, nil
}

// Enqueue writes an outbox row inside the caller's transaction so the
// notification exists exactly when the business change commits.
func (s *service) Enqueue(ctx context.Context, tx *gorm.DB, input EnqueueInput) error {
	if !input.Channel.IsValid() {
		return fmt.Errorf("invalid notification channel %q", input.Channel)
	}
	if !input.Type.IsValid() {
		return fmt.Errorf("invalid notification type %q", input.Type)
	}
	if input.RecipientID == uuid.Nil {
		return fmt.Errorf("recipient id is required")
	}

	payload, err := json.Marshal(input.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	row := &models.NotificationOutbox{
		ID:          uuid.New(),
		Channel:     input.Channel,
		Type:        input.Type,
		RecipientID: input.RecipientID,
		Payload:     payload,
		Status:      enums.OutboxStatusPending,
	}
	return s.repo.WithTx(tx).Create(ctx, row)
}

// DispatchPending drains up to limit pending rows. Each row is attempted
// independently; one broken notification never blocks the rest of the batch.
func (s *service) DispatchPending(ctx context.Context, limit int) (int, error) {
	rows, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	var sent int
	var errs error
	for _, row := range rows {
		if err := s.sender.Send(ctx, row); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("notification %s delivery failed: %v", row.ID, err))
			if markErr := s.repo.MarkFailed(ctx, row.ID, err.Error()); markErr != nil {
				errs = multierr.Append(errs, markErr)
			}
			errs = multierr.Append(errs, err)
			continue
		}
		if err := s.repo.MarkSent(ctx, row.ID); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sent++
	}
	return sent, errs
}
