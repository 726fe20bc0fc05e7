package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/timetrack/timeentries/internal/model"
)

// entryRow is the gorm mapping of the time_entries table.
type entryRow struct {
	ID        string  `gorm:"primaryKey"`
	Project   *string
	Name      *string
	StartTime *string
	EndTime   *string
	Duration  float64 `gorm:"not null"`
	Created   string  `gorm:"column:created_at;not null;index"`
}

func (entryRow) TableName() string {
	return "time_entries"
}

func (r *entryRow) toEntry() *model.TimeEntry {
	return &model.TimeEntry{
		ID:        r.ID,
		Project:   r.Project,
		Name:      r.Name,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Duration:  r.Duration,
		CreatedAt: r.Created,
	}
}

func rowFromEntry(e *model.TimeEntry) *entryRow {
	return &entryRow{
		ID:        e.ID,
		Project:   e.Project,
		Name:      e.Name,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Duration:  e.Duration,
		Created:   e.CreatedAt,
	}
}

// SQLiteStore is a single-file entry store backed by gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database file at path and migrates the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&entryRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Scan returns every entry ordered by created_at then id.
func (s *SQLiteStore) Scan(ctx context.Context) ([]*model.TimeEntry, error) {
	var rows []entryRow
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to scan entries: %w", err)
	}

	entries := make([]*model.TimeEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toEntry())
	}
	return entries, nil
}

// Get retrieves an entry by its id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.TimeEntry, error) {
	var row entryRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return row.toEntry(), nil
}

// Put writes the whole entry, replacing any row with the same id.
func (s *SQLiteStore) Put(ctx context.Context, entry *model.TimeEntry) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rowFromEntry(entry)).Error
	if err != nil {
		return fmt.Errorf("failed to put entry: %w", err)
	}
	return nil
}

// Update overwrites the replaceable fields of the entry keyed by id and
// returns the stored row. A missing row is created with a fresh created_at.
func (s *SQLiteStore) Update(ctx context.Context, id string, fields model.EntryFields) (*model.TimeEntry, error) {
	row := rowFromEntry(model.NewEntry(id, time.Now(), fields))

	var stored entryRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"project", "name", "start_time", "end_time", "duration"}),
		}).Create(row).Error
		if err != nil {
			return err
		}
		return tx.First(&stored, "id = ?", id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	return stored.toEntry(), nil
}

// Delete removes the entry keyed by id. Deleting a missing id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&entryRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// Ping checks that the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
