package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/timetrack/timeentries/internal/model"
)

const entryColumns = `id, project, name, start_time, end_time, duration, created_at`

// Scan returns every entry in the table.
func (r *Repository) Scan(ctx context.Context) ([]*model.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*model.TimeEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

// Get retrieves an entry by its id.
func (r *Repository) Get(ctx context.Context, id string) (*model.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE id = $1`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return entry, nil
}

// Put writes the whole entry, replacing any row with the same id.
func (r *Repository) Put(ctx context.Context, entry *model.TimeEntry) error {
	query := `
		INSERT INTO time_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET project = EXCLUDED.project,
		    name = EXCLUDED.name,
		    start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    duration = EXCLUDED.duration,
		    created_at = EXCLUDED.created_at
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Project,
		entry.Name,
		entry.StartTime,
		entry.EndTime,
		entry.Duration,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put entry: %w", err)
	}

	return nil
}

// Update overwrites the replaceable fields of the entry keyed by id and
// returns the stored row. A missing row is created with a fresh created_at.
func (r *Repository) Update(ctx context.Context, id string, fields model.EntryFields) (*model.TimeEntry, error) {
	query := `
		INSERT INTO time_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET project = EXCLUDED.project,
		    name = EXCLUDED.name,
		    start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    duration = EXCLUDED.duration
		RETURNING ` + entryColumns

	entry, err := scanEntry(r.pool.QueryRow(ctx, query,
		id,
		fields.Project,
		fields.Name,
		fields.StartTime,
		fields.EndTime,
		fields.Duration,
		time.Now().UTC().Format(model.CreatedAtLayout),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	return entry, nil
}

// Delete removes the entry keyed by id. Deleting a missing id is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM time_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// scanEntry reads one row into a TimeEntry. pgx.Rows satisfies pgx.Row.
func scanEntry(row pgx.Row) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := row.Scan(
		&entry.ID,
		&entry.Project,
		&entry.Name,
		&entry.StartTime,
		&entry.EndTime,
		&entry.Duration,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
