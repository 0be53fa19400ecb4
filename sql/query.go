package sqlstore

import (
	"context"
	"database/sql"
)

// QueryExecutor runs compiled statements on the pool, or on the transaction
// carried by the context when there is one.
type QueryExecutor struct{ db *sql.DB }

func NewQueryExecutor(db *sql.DB) *QueryExecutor { return &QueryExecutor{db: db} }

// Query runs a statement that returns rows.
func (qe *QueryExecutor) Query(ctx context.Context, c *CompiledSQL) (*sql.Rows, error) {
	if tx, ok := TransactionFromContext(ctx); ok && tx != nil {
		return tx.QueryContext(ctx, c.SQL, c.Args...)
	}
	return qe.db.QueryContext(ctx, c.SQL, c.Args...)
}

// QueryRow runs a statement expected to return a single row.
func (qe *QueryExecutor) QueryRow(ctx context.Context, c *CompiledSQL) *sql.Row {
	if tx, ok := TransactionFromContext(ctx); ok && tx != nil {
		return tx.QueryRowContext(ctx, c.SQL, c.Args...)
	}
	return qe.db.QueryRowContext(ctx, c.SQL, c.Args...)
}

// Exec runs a statement that doesn't return rows.
func (qe *QueryExecutor) Exec(ctx context.Context, c *CompiledSQL) (sql.Result, error) {
	if tx, ok := TransactionFromContext(ctx); ok && tx != nil {
		return tx.ExecContext(ctx, c.SQL, c.Args...)
	}
	return qe.db.ExecContext(ctx, c.SQL, c.Args...)
}
