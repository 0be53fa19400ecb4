package adapter

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/innovationhub/store"
)

// PgxAdapter implements the Adapter interface for PostgreSQL through the pgx
// database/sql driver. It shares dialect and DSN format with
// PostgreSQLAdapter.
type PgxAdapter struct {
	*BaseSQLAdapter
	postgresDialect
}

// NewPgxAdapter creates a new pgx-backed PostgreSQL adapter.
func NewPgxAdapter() *PgxAdapter {
	return &PgxAdapter{
		BaseSQLAdapter: NewBaseSQLAdapter("pgx", "pgx"),
	}
}

// Connect establishes a connection to PostgreSQL.
func (a *PgxAdapter) Connect(ctx context.Context, config *store.Config) (*sql.DB, error) {
	return a.open(ctx, config, a.ConnectionString(config))
}

// ConnectionString constructs a key=value PostgreSQL connection string.
func (a *PgxAdapter) ConnectionString(config *store.Config) string {
	return postgresDSN(config)
}

// ClassifyError maps pgconn errors by SQLSTATE.
func (a *PgxAdapter) ClassifyError(err error) error {
	return classifyPostgres(a.BaseSQLAdapter, err)
}

func (a *PgxAdapter) IsUniqueConstraintViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrUniqueConstraint)
}

func (a *PgxAdapter) IsForeignKeyViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrForeignKeyConstraint)
}
