package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/timetrack/timeentries/internal/model"
)

// MemoryStore keeps entries in process memory.
// Used for development and as the storage double in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*model.TimeEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*model.TimeEntry),
		now:     time.Now,
	}
}

// Scan returns copies of all entries ordered by created_at then id.
func (m *MemoryStore) Scan(ctx context.Context) ([]*model.TimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entries := make([]*model.TimeEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt != entries[j].CreatedAt {
			return entries[i].CreatedAt < entries[j].CreatedAt
		}
		return entries[i].ID < entries[j].ID
	})

	return entries, nil
}

// Get returns a copy of the entry keyed by id.
func (m *MemoryStore) Get(ctx context.Context, id string) (*model.TimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return e.Clone(), nil
}

// Put stores a copy of the entry, replacing any existing one.
func (m *MemoryStore) Put(ctx context.Context, entry *model.TimeEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[entry.ID] = entry.Clone()
	m.mu.Unlock()

	return nil
}

// Update overwrites the replaceable fields, creating the entry if needed.
func (m *MemoryStore) Update(ctx context.Context, id string, fields model.EntryFields) (*model.TimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var stored *model.TimeEntry
	if e, ok := m.entries[id]; ok {
		stored = e.Clone()
		stored.Apply(fields)
		stored = stored.Clone()
	} else {
		stored = model.NewEntry(id, m.now(), fields).Clone()
	}
	m.entries[id] = stored

	return stored.Clone(), nil
}

// Delete removes the entry keyed by id, if present.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()

	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
