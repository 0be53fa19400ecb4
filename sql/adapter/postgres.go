package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/innovationhub/store"
)

// PostgreSQL SQLSTATE codes used for classification.
const (
	pgUndefinedColumn = "42703"
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
	pgForeignKey      = "23503"
)

// PostgreSQLAdapter implements the Adapter interface for PostgreSQL through
// lib/pq.
type PostgreSQLAdapter struct {
	*BaseSQLAdapter
	postgresDialect
}

// NewPostgreSQLAdapter creates a new PostgreSQL adapter.
func NewPostgreSQLAdapter() *PostgreSQLAdapter {
	return &PostgreSQLAdapter{
		BaseSQLAdapter: NewBaseSQLAdapter("postgres", "postgresql"),
	}
}

// Connect establishes a connection to PostgreSQL.
func (a *PostgreSQLAdapter) Connect(ctx context.Context, config *store.Config) (*sql.DB, error) {
	return a.open(ctx, config, a.ConnectionString(config))
}

// ConnectionString constructs a key=value PostgreSQL connection string.
func (a *PostgreSQLAdapter) ConnectionString(config *store.Config) string {
	return postgresDSN(config)
}

// ClassifyError maps pq and pgconn errors by SQLSTATE.
func (a *PostgreSQLAdapter) ClassifyError(err error) error {
	return classifyPostgres(a.BaseSQLAdapter, err)
}

func (a *PostgreSQLAdapter) IsUniqueConstraintViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrUniqueConstraint)
}

func (a *PostgreSQLAdapter) IsForeignKeyViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrForeignKeyConstraint)
}

func postgresDSN(config *store.Config) string {
	var parts []string

	host := config.Host
	if host == "" {
		host = "localhost"
	}
	parts = append(parts, fmt.Sprintf("host=%s", host))

	port := config.Port
	if port == 0 {
		port = 5432
	}
	parts = append(parts, fmt.Sprintf("port=%d", port))

	if config.Database != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", config.Database))
	}
	if config.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", config.Username))
	}
	if config.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", config.Password))
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", sslMode))

	if config.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(config.ConnectTimeout.Seconds())))
	}

	for _, key := range sortedKeys(config.Options) {
		parts = append(parts, fmt.Sprintf("%s=%s", key, config.Options[key]))
	}

	return strings.Join(parts, " ")
}

func classifyPostgres(base *BaseSQLAdapter, err error) error {
	if err == nil {
		return nil
	}
	var code string
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	default:
		if base.IsConnectionError(err) {
			return store.ErrConnectionFailed
		}
		return nil
	}
	switch code {
	case pgUndefinedColumn:
		return store.ErrUndefinedColumn
	case pgUndefinedTable:
		return store.ErrUndefinedTable
	case pgUniqueViolation:
		return store.ErrUniqueConstraint
	case pgForeignKey:
		return store.ErrForeignKeyConstraint
	}
	return nil
}

// postgresDialect is shared by the lib/pq and pgx adapters.
type postgresDialect struct{}

func (postgresDialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// QuoteIdentifier quotes a PostgreSQL identifier.
func (postgresDialect) QuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (postgresDialect) ILike(column, placeholder string) string {
	return fmt.Sprintf("%s ILIKE %s", column, placeholder)
}

// JSONContains uses jsonb containment. Scalars are wrapped in an array so
// that a scalar operand tests array membership.
func (postgresDialect) JSONContains(column string, value any, b Binder) (string, error) {
	doc, err := containmentJSON(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s @> %s::jsonb", column, b.Bind(doc)), nil
}

// SupportsReturning indicates PostgreSQL supports the RETURNING clause.
func (postgresDialect) SupportsReturning() bool { return true }

func (postgresDialect) GooseDialect() string { return "postgres" }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
