package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	// Registers the "postgres" driver for database/sql.
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Direction selects which half of each migration is applied.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MigrationFiles returns the embedded migration file names for dir in apply order.
func MigrationFiles(dir Direction) ([]string, error) {
	names, err := fs.Glob(migrationFS, "migrations/*."+string(dir)+".sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	sort.Strings(names)
	if dir == Down {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}
	return names, nil
}

// MigrationSQL returns the contents of an embedded migration file.
func MigrationSQL(name string) (string, error) {
	data, err := migrationFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read migration %s: %w", name, err)
	}
	return string(data), nil
}

// Migrate applies every embedded migration in the given direction.
// The DDL is idempotent, so re-running Up is safe.
func Migrate(ctx context.Context, databaseURL string, dir Direction) ([]string, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	names, err := MigrationFiles(dir)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(names))
	for _, name := range names {
		query, err := MigrationSQL(name)
		if err != nil {
			return applied, err
		}
		if _, err := db.ExecContext(ctx, query); err != nil {
			return applied, fmt.Errorf("failed to apply %s: %w", name, err)
		}
		applied = append(applied, strings.TrimPrefix(name, "migrations/"))
	}

	return applied, nil
}
