// Package store provides generic entity access for the innovation hub: a
// single set of CRUD operations shared by every logical entity, translating
// MongoDB-style filter objects and string sort specifiers into queries
// against a relational backend.
//
// Core abstractions (records, the filter DSL, the predicate AST, handlers
// and the handler registry) live at the root level. Backend-specific
// implementations live in sub-packages: sql for database/sql drivers and
// memory for an in-process store.
package store

import (
	"context"
)

// Record is a single entity row: field name to value.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Backend is the relational substrate that entity handlers execute against.
// Each method is addressed by physical table name.
type Backend interface {
	// Find returns every row of table matching q, in q's order, capped at
	// q's limit.
	Find(ctx context.Context, table string, q Query) ([]Record, error)

	// Count returns the number of rows of table matching q's filter.
	Count(ctx context.Context, table string, q Query) (int64, error)

	// Insert adds one row and returns it as stored, including any fields the
	// backend generated.
	Insert(ctx context.Context, table string, m Insert) (Record, error)

	// Update applies m and returns the rows it changed, as stored.
	Update(ctx context.Context, table string, m Update) ([]Record, error)

	// Delete removes the rows matched by m and reports how many were removed.
	Delete(ctx context.Context, table string, m Delete) (int64, error)
}

// Service is a Backend with a connection lifecycle.
type Service interface {
	Backend

	// Connect establishes the connection to the storage backend
	Connect(ctx context.Context) error

	// Close closes the connection and releases resources
	Close() error

	// Stats returns backend-specific statistics
	Stats() interface{}
}

// Transactor provides a backend-agnostic transaction execution contract.
// Implementations may be no-ops if the backend does not support transactions.
type Transactor interface {
	// WithTx executes fn within a read-write transaction when supported.
	// The provided context may carry a backend-specific transaction handle.
	WithTx(ctx context.Context, fn func(context.Context) error) error

	// WithReadTx executes fn within a read-only transaction when supported.
	WithReadTx(ctx context.Context, fn func(context.Context) error) error
}
