package ledger

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/internal/identifier"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	"github.com/agrimandi/agrimandi-backend/pkg/money"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
)

type fakeRepo struct {
	entries []models.PaymentHistory
	created []*models.PaymentHistory
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, entry *models.PaymentHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.created = append(f.created, entry)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	for _, e := range f.entries {
		if e.HistoryCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ExistsByReference(ctx context.Context, referenceID uuid.UUID, activity enums.ActivityType) (bool, error) {
	for _, e := range f.entries {
		if e.ReferenceID != nil && *e.ReferenceID == referenceID && e.Activity == activity {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListByActor(ctx context.Context, actorID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PaymentHistory, error) {
	var out []models.PaymentHistory
	for _, e := range f.entries {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ListByReference(ctx context.Context, referenceID uuid.UUID) ([]models.PaymentHistory, error) {
	var out []models.PaymentHistory
	for _, e := range f.entries {
		if e.ReferenceID != nil && *e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAllocator struct {
	next int64
}

func (f *fakeAllocator) Next(ctx context.Context, prefix string) (string, error) {
	return f.NextWithProbe(ctx, prefix, nil)
}

func (f *fakeAllocator) NextWithProbe(ctx context.Context, prefix string, exists identifier.ExistsFunc) (string, error) {
	for {
		f.next++
		code := fmt.Sprintf("%s-%d", prefix, 100+f.next)
		if exists != nil {
			taken, err := exists(ctx, code)
			if err != nil {
				return "", err
			}
			if taken {
				continue
			}
		}
		return code, nil
	}
}

func (f *fakeAllocator) NextRepaymentCode(ctx context.Context, at time.Time) (string, error) {
	f.next++
	return fmt.Sprintf("REP-%s-%04d", at.UTC().Format("20060102"), f.next), nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeAllocator{})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestRecordValidatesInput(t *testing.T) {
	svc := newTestService(t, &fakeRepo{})
	ctx := context.Background()
	vendorID := uuid.New()

	cases := []struct {
		name  string
		input RecordEntryInput
	}{
		{"invalid activity", RecordEntryInput{Activity: "bogus", ActorKind: enums.ActorVendor, ActorID: vendorID, Description: "x"}},
		{"invalid actor kind", RecordEntryInput{Activity: enums.ActivityVendorEarningCredited, ActorKind: "robot", ActorID: vendorID, Description: "x"}},
		{"missing actor", RecordEntryInput{Activity: enums.ActivityVendorEarningCredited, ActorKind: enums.ActorVendor, Description: "x"}},
		{"missing description", RecordEntryInput{Activity: enums.ActivityVendorEarningCredited, ActorKind: enums.ActorVendor, ActorID: vendorID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Record(ctx, tc.input); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRecordDefaultsOccurredAt(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo)

	before := time.Now().UTC()
	entry, err := svc.Record(context.Background(), RecordEntryInput{
		Activity:    enums.ActivityVendorEarningCredited,
		ActorKind:   enums.ActorVendor,
		ActorID:     uuid.New(),
		Amount:      money.FromRupees(100),
		Description: "earning on order",
	})
	if err != nil {
		t.Fatal(err)
	}
	if entry.OccurredAt.Before(before) {
		t.Fatalf("OccurredAt not defaulted: %v", entry.OccurredAt)
	}
	if entry.Amount != 10000 {
		t.Fatalf("Amount = %d, want 10000 paise", entry.Amount)
	}
	if len(repo.created) != 1 {
		t.Fatalf("created %d entries, want 1", len(repo.created))
	}
}

func TestRecordAllocatesHistoryCode(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		entry, err := svc.Record(ctx, RecordEntryInput{
			Activity:    enums.ActivityVendorEarningCredited,
			ActorKind:   enums.ActorVendor,
			ActorID:     uuid.New(),
			Amount:      money.FromRupees(50),
			Description: "earning on order",
		})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(entry.HistoryCode, "PH-") {
			t.Fatalf("HistoryCode = %q, want PH- prefix", entry.HistoryCode)
		}
		if seen[entry.HistoryCode] {
			t.Fatalf("duplicate history code %q", entry.HistoryCode)
		}
		seen[entry.HistoryCode] = true
	}
}

func TestRecordSkipsTakenHistoryCodes(t *testing.T) {
	repo := &fakeRepo{}
	repo.entries = append(repo.entries, models.PaymentHistory{ID: uuid.New(), HistoryCode: "PH-101"})
	svc := newTestService(t, repo)

	entry, err := svc.Record(context.Background(), RecordEntryInput{
		Activity:    enums.ActivityVendorEarningCredited,
		ActorKind:   enums.ActorVendor,
		ActorID:     uuid.New(),
		Amount:      money.FromRupees(50),
		Description: "earning on order",
	})
	if err != nil {
		t.Fatal(err)
	}
	if entry.HistoryCode != "PH-102" {
		t.Fatalf("HistoryCode = %q, want PH-102 after probing past the seeded code", entry.HistoryCode)
	}
}

func TestHasFindsReferencedActivity(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()
	orderID := uuid.New()

	ok, err := svc.Has(ctx, orderID, enums.ActivitySellerCommissionCredited)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no entry yet")
	}

	if _, err := svc.Record(ctx, RecordEntryInput{
		Activity:    enums.ActivitySellerCommissionCredited,
		ActorKind:   enums.ActorSeller,
		ActorID:     uuid.New(),
		Amount:      money.FromRupees(600),
		ReferenceID: &orderID,
		Description: "commission on order",
	}); err != nil {
		t.Fatal(err)
	}

	ok, err = svc.Has(ctx, orderID, enums.ActivitySellerCommissionCredited)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected entry to be found")
	}
}

func TestListByActorPaginates(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()
	actorID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := svc.Record(ctx, RecordEntryInput{
			Activity:    enums.ActivityVendorEarningCredited,
			ActorKind:   enums.ActorVendor,
			ActorID:     actorID,
			Amount:      money.FromRupees(10),
			Description: "earning",
		}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := svc.ListByActor(ctx, actorID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(page.Entries))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor")
	}
}
