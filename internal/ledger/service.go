package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/internal/identifier"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/money"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

// Service defines operations that record and query the payment history ledger.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Record(ctx context.Context, input RecordEntryInput) (*models.PaymentHistory, error)
	Has(ctx context.Context, referenceID uuid.UUID, activity enums.ActivityType) (bool, error)
	ListByActor(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

type service struct {
	repo      Repository
	allocator identifier.Allocator
}

// RecordEntryInput captures the immutable data a ledger entry requires.
type RecordEntryInput struct {
	Activity    enums.ActivityType
	ActorKind   enums.ActorKind
	ActorID     uuid.UUID
	Amount      money.Amount
	ReferenceID *uuid.UUID
	Description string
	Metadata    json.RawMessage
	OccurredAt  time.Time
}

// HistoryPage is one page of ledger entries plus the cursor for the next page.
type HistoryPage struct {
	Entries    []models.PaymentHistory
	NextCursor string
}

// NewService wires a ledger service with the provided repository and
// code allocator.
func NewService(repo Repository, allocator identifier.Allocator) (Service, error) {
	switch {
	case repo == nil:
		return nil, fmt.Errorf("ledger repository required")
	case allocator == nil:
		return nil, fmt.Errorf("identifier allocator required")
	}
	return &service{repo: repo, allocator: allocator}, nil
}

// WithTx returns a service whose writes join the given transaction.
func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), allocator: s.allocator}
}

func (s *service) Record(ctx context.Context, input RecordEntryInput) (*models.PaymentHistory, error) {
	if !input.Activity.IsValid() {
		return nil, fmt.Errorf("invalid activity %q", input.Activity)
	}
	if !input.ActorKind.IsValid() {
		return nil, fmt.Errorf("invalid actor kind %q", input.ActorKind)
	}
	if input.ActorID == uuid.Nil {
		return nil, fmt.Errorf("actor id is required")
	}
	if input.Description == "" {
		return nil, fmt.Errorf("description is required")
	}
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	code, err := s.allocator.NextWithProbe(ctx, identifier.PrefixPaymentHistory, s.repo.CodeExists)
	if err != nil {
		return nil, err
	}

	entry := &models.PaymentHistory{
		HistoryCode: code,
		Activity:    input.Activity,
		ActorKind:   input.ActorKind,
		ActorID:     input.ActorID,
		Amount:      input.Amount.Paise(),
		ReferenceID: input.ReferenceID,
		Description: input.Description,
		Metadata:    input.Metadata,
		OccurredAt:  occurredAt,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Has(ctx context.Context, referenceID uuid.UUID, activity enums.ActivityType) (bool, error) {
	if referenceID == uuid.Nil {
		return false, fmt.Errorf("reference id is required")
	}
	if !activity.IsValid() {
		return false, fmt.Errorf("invalid activity %q", activity)
	}
	return s.repo.ExistsByReference(ctx, referenceID, activity)
}

func (s *service) ListByActor(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if actorID == uuid.Nil {
		return nil, fmt.Errorf("actor id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("parse cursor: %w", err)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	entries, err := s.repo.ListByActor(ctx, actorID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, err
	}

	page := &HistoryPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
