package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/timetrack/timeentries/internal/model"
)

// entryStore is the method set shared by every backend.
type entryStore interface {
	Scan(ctx context.Context) ([]*model.TimeEntry, error)
	Get(ctx context.Context, id string) (*model.TimeEntry, error)
	Put(ctx context.Context, entry *model.TimeEntry) error
	Update(ctx context.Context, id string, fields model.EntryFields) (*model.TimeEntry, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// runStoreContract exercises the storage contract the service relies on.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) entryStore) {
	t.Run("scan empty", func(t *testing.T) {
		store := newStore(t)
		entries, err := store.Scan(context.Background())
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", entries)
		}
	})

	t.Run("put then get and scan", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		entry := newTestEntry("1694685600.000000001")
		if err := store.Put(ctx, entry); err != nil {
			t.Fatalf("put: %v", err)
		}

		got, err := store.Get(ctx, entry.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		assertEntryEqual(t, entry, got)

		entries, err := store.Scan(ctx)
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		assertEntryEqual(t, entry, entries[0])
	})

	t.Run("get missing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "404")
		if !errors.Is(err, ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound, got %v", err)
		}
	})

	t.Run("update overwrites and keeps created_at", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		entry := newTestEntry("1694685600.000000002")
		if err := store.Put(ctx, entry); err != nil {
			t.Fatalf("put: %v", err)
		}

		fields := model.EntryFields{
			Project:  model.StringPtr("P2"),
			Name:     model.StringPtr("N2"),
			Duration: 90,
		}
		updated, err := store.Update(ctx, entry.ID, fields)
		if err != nil {
			t.Fatalf("update: %v", err)
		}

		if updated.ID != entry.ID {
			t.Errorf("ID = %q, want %q", updated.ID, entry.ID)
		}
		if updated.CreatedAt != entry.CreatedAt {
			t.Errorf("CreatedAt = %q, want %q", updated.CreatedAt, entry.CreatedAt)
		}
		if updated.StartTime != nil || updated.EndTime != nil {
			t.Errorf("expected start_time and end_time to be cleared, got %v %v", updated.StartTime, updated.EndTime)
		}
		if updated.Duration != 90 {
			t.Errorf("Duration = %v, want 90", updated.Duration)
		}

		again, err := store.Update(ctx, entry.ID, fields)
		if err != nil {
			t.Fatalf("second update: %v", err)
		}
		assertEntryEqual(t, updated, again)
	})

	t.Run("update missing creates", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		created, err := store.Update(ctx, "777", model.EntryFields{Project: model.StringPtr("new")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if created.ID != "777" || created.CreatedAt == "" {
			t.Fatalf("unexpected upserted entry: %+v", created)
		}

		got, err := store.Get(ctx, "777")
		if err != nil {
			t.Fatalf("get after upsert: %v", err)
		}
		assertEntryEqual(t, created, got)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		entry := newTestEntry("1694685600.000000003")
		if err := store.Put(ctx, entry); err != nil {
			t.Fatalf("put: %v", err)
		}

		for i := 0; i < 2; i++ {
			if err := store.Delete(ctx, entry.ID); err != nil {
				t.Fatalf("delete #%d: %v", i+1, err)
			}
		}

		if _, err := store.Get(ctx, entry.ID); !errors.Is(err, ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound after delete, got %v", err)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

func newTestEntry(id string) *model.TimeEntry {
	return model.NewEntry(id, time.Date(2023, 9, 14, 10, 0, 0, 0, time.UTC), model.EntryFields{
		Project:   model.StringPtr("Test Project"),
		Name:      model.StringPtr("Test Task"),
		StartTime: model.StringPtr("2023-09-14T10:00:00"),
		EndTime:   model.StringPtr("2023-09-14T11:00:00"),
		Duration:  60,
	})
}

func assertEntryEqual(t *testing.T, want, got *model.TimeEntry) {
	t.Helper()

	if got.ID != want.ID {
		t.Errorf("ID = %q, want %q", got.ID, want.ID)
	}
	assertStringPtr(t, "Project", want.Project, got.Project)
	assertStringPtr(t, "Name", want.Name, got.Name)
	assertStringPtr(t, "StartTime", want.StartTime, got.StartTime)
	assertStringPtr(t, "EndTime", want.EndTime, got.EndTime)
	if got.Duration != want.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, want.Duration)
	}
	if got.CreatedAt != want.CreatedAt {
		t.Errorf("CreatedAt = %q, want %q", got.CreatedAt, want.CreatedAt)
	}
}

func assertStringPtr(t *testing.T, field string, want, got *string) {
	t.Helper()

	switch {
	case want == nil && got == nil:
	case want == nil || got == nil:
		t.Errorf("%s = %v, want %v", field, got, want)
	case *want != *got:
		t.Errorf("%s = %q, want %q", field, *got, *want)
	}
}
