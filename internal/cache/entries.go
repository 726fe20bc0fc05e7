package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timetrack/timeentries/internal/metrics"
	"github.com/timetrack/timeentries/internal/model"
)

const (
	entryListKey = "entries:all"

	// DefaultListTTL is the TTL for the cached scan result.
	DefaultListTTL = 30 * time.Second
)

// ErrCacheMiss is returned when the requested key is absent.
var ErrCacheMiss = errors.New("cache miss")

// GetEntryList returns the cached scan result.
func (c *Cache) GetEntryList(ctx context.Context) ([]*model.TimeEntry, error) {
	data, err := c.client.Get(ctx, entryListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var entries []*model.TimeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode cached entries: %w", err)
	}
	if entries == nil {
		entries = []*model.TimeEntry{}
	}
	return entries, nil
}

// SetEntryList stores a scan result for ttl.
func (c *Cache) SetEntryList(ctx context.Context, entries []*model.TimeEntry, ttl time.Duration) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}

	if err := c.client.Set(ctx, entryListKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache entries: %w", err)
	}
	return nil
}

// InvalidateEntryList drops the cached scan result.
func (c *Cache) InvalidateEntryList(ctx context.Context) error {
	if err := c.client.Del(ctx, entryListKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate entries: %w", err)
	}
	return nil
}

// Store is the storage collaborator decorated by CachedStore.
type Store interface {
	Scan(ctx context.Context) ([]*model.TimeEntry, error)
	Get(ctx context.Context, id string) (*model.TimeEntry, error)
	Put(ctx context.Context, entry *model.TimeEntry) error
	Update(ctx context.Context, id string, fields model.EntryFields) (*model.TimeEntry, error)
	Delete(ctx context.Context, id string) error
}

// CachedStore serves Scan from Redis and invalidates the snapshot on every write.
// Redis failures are logged and never fail the call.
type CachedStore struct {
	store   Store
	cache   *Cache
	ttl     time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewCachedStore wraps store with a list cache.
func NewCachedStore(store Store, cache *Cache, ttl time.Duration, logger *slog.Logger, recorder metrics.Recorder) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CachedStore{
		store:   store,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		metrics: recorder,
	}
}

// Scan returns the cached snapshot or reads through and backfills it.
func (s *CachedStore) Scan(ctx context.Context) ([]*model.TimeEntry, error) {
	entries, err := s.cache.GetEntryList(ctx)
	if err == nil {
		s.metrics.IncListCacheHit()
		return entries, nil
	}

	s.metrics.IncListCacheMiss()
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("list cache read failed", slog.String("error", err.Error()))
	}

	entries, err = s.store.Scan(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetEntryList(ctx, entries, s.ttl); err != nil {
		s.logger.Warn("list cache backfill failed", slog.String("error", err.Error()))
	}

	return entries, nil
}

// Get reads straight from the store.
func (s *CachedStore) Get(ctx context.Context, id string) (*model.TimeEntry, error) {
	return s.store.Get(ctx, id)
}

// Put writes through and invalidates the snapshot.
func (s *CachedStore) Put(ctx context.Context, entry *model.TimeEntry) error {
	if err := s.store.Put(ctx, entry); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Update writes through and invalidates the snapshot.
func (s *CachedStore) Update(ctx context.Context, id string, fields model.EntryFields) (*model.TimeEntry, error) {
	entry, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return entry, nil
}

// Delete writes through and invalidates the snapshot.
func (s *CachedStore) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateEntryList(ctx); err != nil {
		s.logger.Warn("list cache invalidation failed", slog.String("error", err.Error()))
	}
}
