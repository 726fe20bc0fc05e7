package repository

import (
	"context"
	"testing"

	"github.com/timetrack/timeentries/internal/model"
)

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) entryStore {
		return NewMemoryStore()
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry := newTestEntry("1")
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	*entry.Project = "mutated by caller"

	got, err := store.Get(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got.Project != "Test Project" {
		t.Fatalf("store shares memory with caller: project = %q", *got.Project)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	if _, err := store.Scan(ctx); err == nil {
		t.Error("expected error from Scan with canceled context")
	}
	if _, err := store.Update(ctx, "1", model.EntryFields{}); err == nil {
		t.Error("expected error from Update with canceled context")
	}
}
