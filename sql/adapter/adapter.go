package adapter

import (
	"context"
	"database/sql"

	"github.com/innovationhub/store"
)

// Adapter represents a SQL database adapter (PostgreSQL, MySQL, SQLite).
type Adapter interface {
	Dialect

	// Name returns the adapter's unique identifier.
	Name() string

	// DriverName returns the database/sql driver the adapter opens.
	DriverName() string

	// Connect opens, configures and pings a connection pool.
	Connect(ctx context.Context, config *store.Config) (*sql.DB, error)

	// ConnectionString builds the connection string from config.
	ConnectionString(config *store.Config) string

	// Database capabilities
	SupportsTransactions() bool
	DefaultTxOptions() *sql.TxOptions

	// Error classification
	IsUniqueConstraintViolation(err error) bool
	IsForeignKeyViolation(err error) bool
	IsConnectionError(err error) bool

	// ClassifyError maps a driver error to one of the store sentinel errors
	// (store.ErrUndefinedColumn, store.ErrUndefinedTable,
	// store.ErrUniqueConstraint, store.ErrForeignKeyConstraint,
	// store.ErrConnectionFailed). It returns nil for anything else.
	ClassifyError(err error) error

	// Close releases any resources held by the adapter.
	Close() error
}

// Dialect holds the SQL syntax differences between databases.
type Dialect interface {
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(identifier string) string

	// ILike renders a case-insensitive LIKE of column against a bound
	// pattern.
	ILike(column, placeholder string) string

	// JSONContains renders a test that the JSON array or object in column
	// contains value, binding operands through b.
	JSONContains(column string, value any, b Binder) (string, error)

	// SupportsReturning reports whether INSERT/UPDATE ... RETURNING works.
	SupportsReturning() bool

	// GooseDialect names the dialect for goose migrations.
	GooseDialect() string
}

// Binder records a bound argument and returns its placeholder.
type Binder interface {
	Bind(value any) string
}
