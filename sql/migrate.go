package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// goose keeps its dialect and filesystem in package state.
var gooseMu sync.Mutex

// migrationDirs maps goose dialects to their embedded migration directory.
var migrationDirs = map[string]string{
	"sqlite3":  "sqlite",
	"sqlite":   "sqlite",
	"postgres": "postgres",
	"mysql":    "mysql",
}

// Migrate applies every pending migration for dialect (a goose dialect
// name) to db.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	dir, err := migrationDir(dialect)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current schema version of db.
func MigrationVersion(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	if _, err := migrationDir(dialect); err != nil {
		return 0, err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}

func migrationDir(dialect string) (string, error) {
	dir, ok := migrationDirs[dialect]
	if !ok {
		return "", fmt.Errorf("no migrations for dialect %q", dialect)
	}
	return path.Join("migrations", dir), nil
}
