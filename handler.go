package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Keys of the acknowledgement returned by a physical delete.
const (
	AckIDKey      = "id"
	AckDeletedKey = "deleted"
)

// Operation names used in logs and RepositoryError.
const (
	OpList   = "list"
	OpFilter = "filter"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpCount  = "count"
)

// Handler is the set of CRUD operations for one logical entity, bound to its
// physical table. A Handler holds no mutable state and is safe for
// concurrent use.
type Handler struct {
	entity  string
	table   string
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	idColumn         string
	softDeleteColumn string
	deletedAtColumn  string
	softDelete       bool
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the logger backend failures are reported to.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithColumns overrides the identifier, soft-delete flag and deletion
// timestamp columns. Empty arguments keep the current value.
func WithColumns(id, softDelete, deletedAt string) HandlerOption {
	return func(h *Handler) {
		if id != "" {
			h.idColumn = id
		}
		if softDelete != "" {
			h.softDeleteColumn = softDelete
		}
		if deletedAt != "" {
			h.deletedAtColumn = deletedAt
		}
	}
}

// WithoutSoftDelete disables the visibility guard and the soft-delete path,
// for tables that have no soft-delete column.
func WithoutSoftDelete() HandlerOption {
	return func(h *Handler) {
		h.softDelete = false
	}
}

// WithClock sets the time source for deletion timestamps.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates the handler for entity stored in table.
func NewHandler(backend Backend, entity, table string, opts ...HandlerOption) *Handler {
	h := &Handler{
		entity:           entity,
		table:            table,
		backend:          backend,
		logger:           slog.Default(),
		now:              func() time.Time { return time.Now().UTC() },
		idColumn:         DefaultIDColumn,
		softDeleteColumn: DefaultSoftDeleteColumn,
		deletedAtColumn:  DefaultDeletedAtColumn,
		softDelete:       true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Entity returns the logical entity name.
func (h *Handler) Entity() string { return h.entity }

// Table returns the physical table name.
func (h *Handler) Table() string { return h.table }

// SoftDelete reports whether the handler hides and soft-deletes rows.
func (h *Handler) SoftDelete() bool { return h.softDelete }

// List returns every visible record ordered by sort. A non-positive limit
// leaves the result uncapped.
func (h *Handler) List(ctx context.Context, sort string, limit int) ([]Record, error) {
	return h.find(ctx, OpList, nil, sort, limit)
}

// Filter is List narrowed by a filter object.
func (h *Handler) Filter(ctx context.Context, spec FilterSpec, sort string, limit int) ([]Record, error) {
	return h.find(ctx, OpFilter, spec, sort, limit)
}

func (h *Handler) find(ctx context.Context, op string, spec FilterSpec, sort string, limit int) ([]Record, error) {
	base := Compile(NewQuery(), spec)
	shape := func(q Query) Query {
		return q.Order(ParseSort(sort).Order()).WithLimit(limit)
	}

	rows, err := h.backend.Find(ctx, h.table, shape(h.visible(base, spec)))
	if err != nil && h.guardMissing(ctx, op, spec, err) {
		rows, err = h.backend.Find(ctx, h.table, shape(base))
	}
	if err != nil {
		return nil, h.fail(ctx, err, op, map[string]any{"filter": spec, "sort": sort, "limit": limit})
	}
	if rows == nil {
		rows = []Record{}
	}
	return rows, nil
}

// Get returns the single record with the given identifier. Soft-deleted
// records are returned too.
func (h *Handler) Get(ctx context.Context, id any) (Record, error) {
	q := NewQuery().Where(Eq(h.idColumn, id)).WithLimit(2)
	rows, err := h.backend.Find(ctx, h.table, q)
	if err != nil {
		return nil, h.fail(ctx, err, OpGet, map[string]any{"id": id})
	}
	if len(rows) != 1 {
		return nil, NewRecordNotFoundError(h.table, fmt.Sprint(id))
	}
	return rows[0], nil
}

// Create inserts data and returns the stored record with generated fields.
// An empty identifier is dropped so the backend assigns one; data itself is
// left untouched.
func (h *Handler) Create(ctx context.Context, data Record) (Record, error) {
	values := data.Clone()
	if id, ok := values[h.idColumn]; ok && isEmptyID(id) {
		delete(values, h.idColumn)
	}
	rec, err := h.backend.Insert(ctx, h.table, NewInsert(values))
	if err != nil {
		return nil, h.fail(ctx, err, OpCreate, nil)
	}
	return rec, nil
}

// Update applies a partial update to the record with the given identifier
// and returns it as stored.
func (h *Handler) Update(ctx context.Context, id any, updates Record) (Record, error) {
	rows, err := h.backend.Update(ctx, h.table, NewUpdate(updates.Clone(), Eq(h.idColumn, id)))
	if err != nil {
		return nil, h.fail(ctx, err, OpUpdate, map[string]any{"id": id})
	}
	if len(rows) == 0 {
		return nil, NewRecordNotFoundError(h.table, fmt.Sprint(id))
	}
	return rows[0], nil
}

// Delete soft-deletes the record and returns it. When the soft path fails,
// for example because the table has no soft-delete column, the row is
// removed instead and an acknowledgement {id, deleted: true} is returned;
// see IsDeletionAck. Removing an absent row is not an error.
func (h *Handler) Delete(ctx context.Context, id any) (Record, error) {
	if h.softDelete {
		rec, err := h.softDeleteRow(ctx, id)
		if err == nil {
			return rec, nil
		}
		h.logger.WarnContext(ctx, "soft delete failed, deleting row",
			"entity", h.entity,
			"table", h.table,
			"id", id,
			"error", err,
		)
	}

	if _, err := h.backend.Delete(ctx, h.table, NewDelete(Eq(h.idColumn, id))); err != nil {
		return nil, h.fail(ctx, err, OpDelete, map[string]any{"id": id})
	}
	return Record{AckIDKey: id, AckDeletedKey: true}, nil
}

func (h *Handler) softDeleteRow(ctx context.Context, id any) (Record, error) {
	set := Record{
		h.softDeleteColumn: true,
		h.deletedAtColumn:  h.now(),
	}
	rows, err := h.backend.Update(ctx, h.table, NewUpdate(set, Eq(h.idColumn, id)))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NewRecordNotFoundError(h.table, fmt.Sprint(id))
	}
	return rows[0], nil
}

// Count returns the number of visible records matching spec.
func (h *Handler) Count(ctx context.Context, spec FilterSpec) (int64, error) {
	base := Compile(NewQuery(), spec)
	n, err := h.backend.Count(ctx, h.table, h.visible(base, spec))
	if err != nil && h.guardMissing(ctx, OpCount, spec, err) {
		n, err = h.backend.Count(ctx, h.table, base)
	}
	if err != nil {
		return 0, h.fail(ctx, err, OpCount, map[string]any{"filter": spec})
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

func (h *Handler) visible(q Query, spec FilterSpec) Query {
	if !h.softDelete {
		return q
	}
	return ApplyVisibility(q, spec, h.softDeleteColumn)
}

// guardMissing reports whether a read failed because the table has no
// soft-delete column, in which case every row is live and the read is
// retried without the visibility guard.
func (h *Handler) guardMissing(ctx context.Context, op string, spec FilterSpec, err error) bool {
	if !h.softDelete || spec.Has(h.softDeleteColumn) || !IsUndefinedColumn(err) {
		return false
	}
	h.logger.WarnContext(ctx, "soft-delete column missing, reading without visibility guard",
		"entity", h.entity,
		"table", h.table,
		"op", op,
		"error", err,
	)
	return true
}

func (h *Handler) fail(ctx context.Context, err error, op string, details map[string]any) error {
	h.logger.ErrorContext(ctx, "entity operation failed",
		"entity", h.entity,
		"table", h.table,
		"op", op,
		"error", err,
	)
	return WrapRepositoryError(err, h.entity, op, details)
}

// IsDeletionAck reports whether r is the acknowledgement returned by a
// physical delete rather than a stored record.
func IsDeletionAck(r Record) bool {
	if len(r) != 2 {
		return false
	}
	_, hasID := r[AckIDKey]
	deleted, _ := r[AckDeletedKey].(bool)
	return hasID && deleted
}

func isEmptyID(v any) bool {
	switch id := v.(type) {
	case nil:
		return true
	case string:
		return id == ""
	}
	return false
}
