package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/innovationhub/store"
)

// PureSQLiteAdapter implements the Adapter interface for SQLite through the
// cgo-free modernc driver.
type PureSQLiteAdapter struct {
	*BaseSQLAdapter
	sqliteDialect
}

// NewPureSQLiteAdapter creates a new modernc SQLite adapter.
func NewPureSQLiteAdapter() *PureSQLiteAdapter {
	return &PureSQLiteAdapter{
		BaseSQLAdapter: NewBaseSQLAdapter("sqlite", "sqlite-pure"),
	}
}

// Connect establishes a connection to SQLite and enables foreign keys.
func (a *PureSQLiteAdapter) Connect(ctx context.Context, config *store.Config) (*sql.DB, error) {
	return connectSQLite(ctx, a.BaseSQLAdapter, config, a.ConnectionString(config))
}

// ConnectionString builds a "file:" URI. Options become query parameters;
// the driver reads pragmas from _pragma parameters.
func (a *PureSQLiteAdapter) ConnectionString(config *store.Config) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	for _, key := range sortedKeys(config.Options) {
		params.Add(key, config.Options[key])
	}
	return fmt.Sprintf("file:%s?%s", sqlitePath(config), params.Encode())
}

// ClassifyError maps extended result codes, falling back to the error text.
func (a *PureSQLiteAdapter) ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrUniqueConstraint
		case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return store.ErrForeignKeyConstraint
		}
	}
	return a.classifyMessage(err)
}

func (a *PureSQLiteAdapter) IsUniqueConstraintViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrUniqueConstraint)
}

func (a *PureSQLiteAdapter) IsForeignKeyViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrForeignKeyConstraint)
}

// DefaultTxOptions returns default transaction options for SQLite.
func (a *PureSQLiteAdapter) DefaultTxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}
