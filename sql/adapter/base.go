package adapter

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/innovationhub/store"
)

// BaseSQLAdapter provides common functionality for all SQL adapters.
type BaseSQLAdapter struct {
	db         *sql.DB
	driverName string
	name       string
	Logger     *slog.Logger
}

// NewBaseSQLAdapter creates a new base SQL adapter.
func NewBaseSQLAdapter(driverName, name string) *BaseSQLAdapter {
	return &BaseSQLAdapter{
		driverName: driverName,
		name:       name,
		Logger:     slog.New(slog.DiscardHandler),
	}
}

// Name returns the adapter name.
func (a *BaseSQLAdapter) Name() string {
	return a.name
}

// DriverName returns the database/sql driver name.
func (a *BaseSQLAdapter) DriverName() string {
	return a.driverName
}

// SetLogger replaces the adapter's logger. A nil logger is ignored.
func (a *BaseSQLAdapter) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.Logger = logger
	}
}

// open opens a pool for connectionString, configures it and pings it.
func (a *BaseSQLAdapter) open(ctx context.Context, config *store.Config, connectionString string) (*sql.DB, error) {
	a.Logger.Debug("opening database",
		slog.String("adapter", a.name),
		slog.String("host", config.Host),
		slog.String("database", config.Database))

	db, err := sql.Open(a.driverName, connectionString)
	if err != nil {
		return nil, store.WrapConnectionError(err, "connect", a.driverName, config.Host)
	}

	a.configureConnectionPool(db, config)

	pingCtx := ctx
	if config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, store.WrapConnectionError(err, "ping", a.driverName, config.Host)
	}

	a.db = db
	return db, nil
}

func (a *BaseSQLAdapter) configureConnectionPool(db *sql.DB, config *store.Config) {
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}
	if config.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}
}

// Close closes the database connection.
func (a *BaseSQLAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// DB returns the underlying database connection.
func (a *BaseSQLAdapter) DB() *sql.DB {
	return a.db
}

func (a *BaseSQLAdapter) SupportsTransactions() bool {
	return true
}

// DefaultTxOptions returns default transaction options. Adapters override
// this for database-specific defaults.
func (a *BaseSQLAdapter) DefaultTxOptions() *sql.TxOptions {
	return &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
		ReadOnly:  false,
	}
}

var connectionErrors = []string{
	"connection refused",
	"connection reset",
	"connection closed",
	"network is unreachable",
	"timeout",
	"driver: bad connection",
}

func (a *BaseSQLAdapter) IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	return containsAny(err.Error(), connectionErrors...)
}

func (a *BaseSQLAdapter) IsUniqueConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), "unique constraint", "duplicate key", "duplicate entry")
}

func (a *BaseSQLAdapter) IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), "foreign key constraint", "violates foreign key")
}

// classifyMessage is the fallback classification for drivers that report
// errors as plain messages.
func (a *BaseSQLAdapter) classifyMessage(err error) error {
	msg := err.Error()
	switch {
	case containsAny(msg, "no such column", "has no column named", "unknown column"):
		return store.ErrUndefinedColumn
	case containsAny(msg, "no such table", "doesn't exist"):
		return store.ErrUndefinedTable
	case a.IsUniqueConstraintViolation(err):
		return store.ErrUniqueConstraint
	case a.IsForeignKeyViolation(err):
		return store.ErrForeignKeyConstraint
	case a.IsConnectionError(err):
		return store.ErrConnectionFailed
	}
	return nil
}

// containsAny reports whether s contains any of the patterns, ignoring case.
func containsAny(s string, patterns ...string) bool {
	lower := strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
