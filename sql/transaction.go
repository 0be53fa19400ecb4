package sqlstore

import (
	"context"
	"database/sql"

	"github.com/innovationhub/store"
	"github.com/innovationhub/store/sql/adapter"
)

type txContextKey struct{}

// TransactionFromContext extracts an *sql.Tx from context when present.
func TransactionFromContext(ctx context.Context) (*sql.Tx, bool) {
	v := ctx.Value(txContextKey{})
	if v == nil {
		return nil, false
	}
	tx, ok := v.(*sql.Tx)
	return tx, ok
}

// TransactionHandler runs functions inside a database transaction carried
// by the context.
type TransactionHandler struct {
	db      *sql.DB
	adapter adapter.Adapter
}

func NewTransactionHandler(db *sql.DB, adpt adapter.Adapter) *TransactionHandler {
	return &TransactionHandler{db: db, adapter: adpt}
}

// Ensure TransactionHandler satisfies store.Transactor.
var _ store.Transactor = (*TransactionHandler)(nil)

func (t *TransactionHandler) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return t.run(ctx, t.adapter.DefaultTxOptions(), "", fn)
}

func (t *TransactionHandler) WithReadTx(ctx context.Context, fn func(context.Context) error) error {
	opts := t.adapter.DefaultTxOptions()
	if opts == nil {
		opts = &sql.TxOptions{}
	}
	ro := *opts
	ro.ReadOnly = true
	return t.run(ctx, &ro, "_read", fn)
}

func (t *TransactionHandler) run(ctx context.Context, opts *sql.TxOptions, suffix string, fn func(context.Context) error) error {
	// Reuse existing transaction if present
	if existing, ok := TransactionFromContext(ctx); ok && existing != nil {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, opts)
	if err != nil {
		return store.WrapTransactionError(err, "begin"+suffix)
	}
	ctxWithTx := context.WithValue(ctx, txContextKey{}, tx)
	if err := fn(ctxWithTx); err != nil {
		_ = tx.Rollback()
		return store.WrapTransactionError(err, "rollback"+suffix)
	}
	if err := tx.Commit(); err != nil {
		return store.WrapTransactionError(err, "commit"+suffix)
	}
	return nil
}
