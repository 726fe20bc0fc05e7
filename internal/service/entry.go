// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/timetrack/timeentries/internal/metrics"
	"github.com/timetrack/timeentries/internal/model"
	"github.com/timetrack/timeentries/internal/repository"
)

// Store is the storage collaborator: a durable key-value table addressed by id.
type Store interface {
	Scan(ctx context.Context) ([]*model.TimeEntry, error)
	Get(ctx context.Context, id string) (*model.TimeEntry, error)
	Put(ctx context.Context, entry *model.TimeEntry) error
	// Update overwrites the entry's replaceable fields, creating it if absent,
	// and returns the stored record.
	Update(ctx context.Context, id string, fields model.EntryFields) (*model.TimeEntry, error)
	// Delete must succeed when id does not exist.
	Delete(ctx context.Context, id string) error
}

// EntryService handles time entry business logic.
type EntryService struct {
	store   Store
	ids     IDGenerator
	metrics metrics.Recorder
	now     func() time.Time
}

// NewEntryService creates a new EntryService.
func NewEntryService(store Store, ids IDGenerator, recorder metrics.Recorder) *EntryService {
	if ids == nil {
		ids = NewTimestampGenerator()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &EntryService{
		store:   store,
		ids:     ids,
		metrics: recorder,
		now:     time.Now,
	}
}

// CreateEntryInput defines input for creating an entry.
type CreateEntryInput struct {
	Project   *string  `json:"project" validate:"required"`
	Name      *string  `json:"name" validate:"required"`
	StartTime *string  `json:"start_time" validate:"required"`
	EndTime   *string  `json:"end_time"`
	Duration  *float64 `json:"duration"`
}

// UpdateEntryInput defines input for overwriting an entry.
// Nil fields are written as null; a nil duration is written as 0.
type UpdateEntryInput struct {
	Project   *string
	Name      *string
	StartTime *string
	EndTime   *string
	Duration  *float64
}

// ListEntries returns every stored entry.
func (s *EntryService) ListEntries(ctx context.Context) ([]*model.TimeEntry, error) {
	start := time.Now()
	entries, err := s.store.Scan(ctx)
	if err := s.observe(metrics.OpScan, start, err); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []*model.TimeEntry{}
	}
	s.metrics.IncEntriesListed()

	return entries, nil
}

// GetEntry retrieves a single entry by id.
func (s *EntryService) GetEntry(ctx context.Context, id string) (*model.TimeEntry, error) {
	start := time.Now()
	entry, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrEntryNotFound) {
		s.metrics.ObserveStorageDuration(metrics.OpGet, time.Since(start))
		return nil, ErrEntryNotFound
	}
	if err := s.observe(metrics.OpGet, start, err); err != nil {
		return nil, err
	}

	return entry, nil
}

// CreateEntry assigns an id and created_at and stores the entry unconditionally.
func (s *EntryService) CreateEntry(ctx context.Context, input CreateEntryInput) (*model.TimeEntry, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	entry := model.NewEntry(s.ids.NewID(), s.now(), model.EntryFields{
		Project:   input.Project,
		Name:      input.Name,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Duration:  durationOrZero(input.Duration),
	})

	start := time.Now()
	err := s.store.Put(ctx, entry)
	if err := s.observe(metrics.OpPut, start, err); err != nil {
		return nil, err
	}

	s.metrics.IncEntryCreated()

	return entry, nil
}

// UpdateEntry overwrites every replaceable field of the entry keyed by id.
// Whether the entry existed before is not checked; the store upserts.
func (s *EntryService) UpdateEntry(ctx context.Context, id string, input UpdateEntryInput) (*model.TimeEntry, error) {
	if id == "" {
		return nil, &ValidationError{Reason: "entry id is required"}
	}

	fields := model.EntryFields{
		Project:   input.Project,
		Name:      input.Name,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Duration:  durationOrZero(input.Duration),
	}

	start := time.Now()
	entry, err := s.store.Update(ctx, id, fields)
	if err := s.observe(metrics.OpUpdate, start, err); err != nil {
		return nil, err
	}

	s.metrics.IncEntryUpdated()

	return entry, nil
}

// DeleteEntry removes the entry keyed by id. Missing entries are not an error.
func (s *EntryService) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Reason: "entry id is required"}
	}

	start := time.Now()
	err := s.store.Delete(ctx, id)
	if err := s.observe(metrics.OpDelete, start, err); err != nil {
		return err
	}

	s.metrics.IncEntryDeleted()

	return nil
}

// observe records the storage call and wraps a failure as a StorageError.
func (s *EntryService) observe(op string, start time.Time, err error) error {
	s.metrics.ObserveStorageDuration(op, time.Since(start))
	if err == nil {
		return nil
	}
	s.metrics.IncStorageError(op)
	return &StorageError{Op: op, Err: err}
}

func durationOrZero(d *float64) float64 {
	if d == nil {
		return 0
	}
	return *d
}
