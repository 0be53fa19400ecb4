package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/innovationhub/store"
)

// SQLiteAdapter implements the Adapter interface for SQLite through the cgo
// mattn driver.
type SQLiteAdapter struct {
	*BaseSQLAdapter
	sqliteDialect
}

// NewSQLiteAdapter creates a new SQLite adapter.
func NewSQLiteAdapter() *SQLiteAdapter {
	return &SQLiteAdapter{
		BaseSQLAdapter: NewBaseSQLAdapter("sqlite3", "sqlite"),
	}
}

// Connect establishes a connection to SQLite and enables foreign keys.
func (a *SQLiteAdapter) Connect(ctx context.Context, config *store.Config) (*sql.DB, error) {
	return connectSQLite(ctx, a.BaseSQLAdapter, config, a.ConnectionString(config))
}

// ConnectionString returns the database path, or ":memory:" when no file
// is configured, followed by any options.
func (a *SQLiteAdapter) ConnectionString(config *store.Config) string {
	dbPath := sqlitePath(config)
	var params []string
	for _, key := range sortedKeys(config.Options) {
		params = append(params, fmt.Sprintf("%s=%s", key, config.Options[key]))
	}
	if len(params) > 0 {
		return fmt.Sprintf("%s?%s", dbPath, strings.Join(params, "&"))
	}
	return dbPath
}

// ClassifyError maps sqlite3 result codes, falling back to the error text
// for schema errors, which SQLite reports with the generic code.
func (a *SQLiteAdapter) ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
		switch sqlErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return store.ErrUniqueConstraint
		case sqlite3.ErrConstraintForeignKey:
			return store.ErrForeignKeyConstraint
		}
	}
	return a.classifyMessage(err)
}

func (a *SQLiteAdapter) IsUniqueConstraintViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrUniqueConstraint)
}

func (a *SQLiteAdapter) IsForeignKeyViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrForeignKeyConstraint)
}

// IsConnectionError checks if an error is a connection-related error.
func (a *SQLiteAdapter) IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(),
		"database is locked",
		"database schema has changed",
		"no such file",
		"unable to open database")
}

// DefaultTxOptions returns default transaction options for SQLite.
func (a *SQLiteAdapter) DefaultTxOptions() *sql.TxOptions {
	return &sql.TxOptions{
		Isolation: sql.LevelSerializable, // SQLite default
		ReadOnly:  false,
	}
}

func sqlitePath(config *store.Config) string {
	dbPath := config.FilePath
	if dbPath == "" {
		return ":memory:"
	}
	if !filepath.IsAbs(dbPath) && !strings.HasPrefix(dbPath, ":") {
		dbPath = filepath.Clean(dbPath)
	}
	return dbPath
}

func connectSQLite(ctx context.Context, base *BaseSQLAdapter, config *store.Config, dsn string) (*sql.DB, error) {
	cfg := *config
	// SQLite works best with a single connection for writes, and every
	// connection to ":memory:" is a separate database.
	if cfg.MaxOpenConns <= 0 || cfg.FilePath == "" {
		cfg.MaxOpenConns = 1
	}
	db, err := base.open(ctx, &cfg, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, store.WrapConnectionError(err, "enable foreign keys", base.DriverName(), cfg.FilePath)
	}
	return db, nil
}

// sqliteDialect is shared by the mattn and modernc adapters.
type sqliteDialect struct{}

func (sqliteDialect) Placeholder(int) string { return "?" }

// QuoteIdentifier quotes a SQLite identifier.
func (sqliteDialect) QuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (sqliteDialect) ILike(column, placeholder string) string {
	return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", column, placeholder)
}

// JSONContains expands containment into json_each membership tests for
// array operands and json_extract comparisons for object operands.
func (sqliteDialect) JSONContains(column string, value any, b Binder) (string, error) {
	if m, ok := value.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			operand, err := sqliteOperand(m[k])
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("json_extract(%s, %s) = %s", column, b.Bind("$."+k), b.Bind(operand)))
		}
		if len(parts) == 0 {
			return fmt.Sprintf("json_type(%s) = 'object'", column), nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	}

	items := []any{value}
	if rv := reflect.ValueOf(value); value != nil && rv.Kind() == reflect.Slice {
		if _, isBytes := value.([]byte); !isBytes {
			items = make([]any, rv.Len())
			for i := range items {
				items[i] = rv.Index(i).Interface()
			}
		}
	}
	if len(items) == 0 {
		return fmt.Sprintf("json_type(%s) = 'array'", column), nil
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		operand, err := sqliteOperand(item)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE value = %s)", column, b.Bind(operand)))
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", nil
}

func (sqliteDialect) SupportsReturning() bool { return true }

func (sqliteDialect) GooseDialect() string { return "sqlite3" }

// sqliteOperand encodes nested arrays and objects as JSON text, which is how
// json_each and json_extract report them.
func sqliteOperand(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any:
		return jsonText(v)
	}
	return v, nil
}
