// Package memstore is an in-process store.Backend. Tables hold rows as
// records and queries are evaluated in Go, with SQL-like semantics for NULL
// comparisons and LIKE patterns. It backs the "memory" adapter type and the
// handler tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/innovationhub/store"
)

// Store implements store.Service in memory.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	stats  *Stats

	now        func() time.Time
	newID      func() any
	idColumn   string
	autoCreate bool
	closed     bool
}

// Stats tracks store activity.
type Stats struct {
	Tables       int64
	Rows         int64
	Finds        int64
	Counts       int64
	Inserts      int64
	Updates      int64
	Deletes      int64
	LastAccessed time.Time
}

type table struct {
	// columns is nil for schemaless tables, which accept any column.
	columns map[string]bool
	rows    []store.Record
}

func (t *table) has(column string) bool {
	return t.columns == nil || t.columns[column]
}

// Ensure Store implements the service interface.
var _ store.Service = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the generator for ids missing from inserts.
func WithIDGenerator(gen func() any) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// WithIDColumn sets the identifier column. Defaults to "id".
func WithIDColumn(column string) Option {
	return func(s *Store) {
		s.idColumn = column
	}
}

// WithAutoCreate creates a schemaless table the first time an unknown table
// is referenced.
func WithAutoCreate() Option {
	return func(s *Store) {
		s.autoCreate = true
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tables:   make(map[string]*table),
		stats:    &Stats{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() any { return uuid.NewString() },
		idColumn: store.DefaultIDColumn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTable declares a table. With no columns the table is schemaless;
// otherwise references to other columns fail with store.ErrUndefinedColumn.
// The id column is always part of a declared schema.
func (s *Store) CreateTable(name string, columns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tables[name]; exists {
		return fmt.Errorf("memstore: table %s already exists", name)
	}
	t := &table{}
	if len(columns) > 0 {
		t.columns = map[string]bool{s.idColumn: true}
		for _, c := range columns {
			t.columns[c] = true
		}
	}
	s.tables[name] = t
	s.stats.Tables++
	return nil
}

// Seed inserts rows verbatim, without id or timestamp generation.
func (s *Store) Seed(name string, rows ...store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(name, "seed")
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := s.checkColumns(t, name, "seed", keys(row)...); err != nil {
			return err
		}
		t.rows = append(t.rows, row.Clone())
		s.stats.Rows++
	}
	return nil
}

// Snapshot returns a copy of every table's rows, keyed by table name.
func (s *Store) Snapshot() map[string][]store.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]store.Record, len(s.tables))
	for name, t := range s.tables {
		rows := make([]store.Record, len(t.rows))
		for i, row := range t.rows {
			rows[i] = row.Clone()
		}
		out[name] = rows
	}
	return out
}

// Restore seeds rows from a snapshot, creating schemaless tables for names
// the store does not know yet.
func (s *Store) Restore(tables map[string][]store.Record) error {
	for name, rows := range tables {
		s.mu.Lock()
		if _, ok := s.tables[name]; !ok {
			s.tables[name] = &table{}
			s.stats.Tables++
		}
		s.mu.Unlock()
		if err := s.Seed(name, rows...); err != nil {
			return err
		}
	}
	return nil
}

// Connect is a no-op; a memory store is always available.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	return nil
}

// Close drops every table.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables = make(map[string]*table)
	s.stats = &Stats{}
	s.closed = true
	return nil
}

// Stats returns a snapshot of Stats.
func (s *Store) Stats() interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.stats
}

// Find returns matching rows, ordered and capped as q says.
func (s *Store) Find(ctx context.Context, name string, q store.Query) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(&s.stats.Finds)
	t, err := s.table(name, "find")
	if err != nil {
		return nil, err
	}
	if err := s.checkQuery(t, name, "find", q); err != nil {
		return nil, err
	}

	var out []store.Record
	for _, row := range t.rows {
		if match(q.Filter, row) {
			out = append(out, row)
		}
	}
	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i], out[j], q.OrderBy)
		})
	}
	if q.Limit != nil && len(out) > *q.Limit {
		out = out[:*q.Limit]
	}

	res := make([]store.Record, len(out))
	for i, row := range out {
		res[i] = project(row, q.SelectFields)
	}
	return res, nil
}

// Count returns the number of rows matching q's filter.
func (s *Store) Count(ctx context.Context, name string, q store.Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(&s.stats.Counts)
	t, err := s.table(name, "count")
	if err != nil {
		return 0, err
	}
	if err := s.checkQuery(t, name, "count", q); err != nil {
		return 0, err
	}
	var n int64
	for _, row := range t.rows {
		if match(q.Filter, row) {
			n++
		}
	}
	return n, nil
}

// Insert stores a row, assigning an id and timestamps when absent.
func (s *Store) Insert(ctx context.Context, name string, m store.Insert) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(&s.stats.Inserts)
	t, err := s.table(name, "insert")
	if err != nil {
		return nil, err
	}
	if err := s.checkColumns(t, name, "insert", keys(m.Values)...); err != nil {
		return nil, err
	}

	row := m.Values.Clone()
	if row[s.idColumn] == nil {
		row[s.idColumn] = s.newID()
	}
	for _, existing := range t.rows {
		if equal(existing[s.idColumn], row[s.idColumn]) {
			return nil, s.queryError(name, "insert", store.ErrUniqueConstraint,
				fmt.Errorf("duplicate key value for %s: %v", s.idColumn, row[s.idColumn]))
		}
	}
	now := s.now()
	for _, c := range []string{"created_at", "updated_at"} {
		if _, set := row[c]; !set && t.has(c) {
			row[c] = now
		}
	}
	t.rows = append(t.rows, row)
	s.stats.Rows++
	return row.Clone(), nil
}

// Update applies m.Set to every matching row and returns the changed rows.
func (s *Store) Update(ctx context.Context, name string, m store.Update) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(&s.stats.Updates)
	t, err := s.table(name, "update")
	if err != nil {
		return nil, err
	}
	if len(m.Set) == 0 {
		return nil, s.queryError(name, "update", store.ErrInvalidQuery, fmt.Errorf("no columns to update"))
	}
	if err := s.checkColumns(t, name, "update", keys(m.Set)...); err != nil {
		return nil, err
	}
	if err := s.checkColumns(t, name, "update", filterColumns(m.Where)...); err != nil {
		return nil, err
	}

	_, setsUpdatedAt := m.Set["updated_at"]
	now := s.now()
	var changed []store.Record
	for _, row := range t.rows {
		if !match(m.Where, row) {
			continue
		}
		for k, v := range m.Set {
			row[k] = v
		}
		if !setsUpdatedAt && t.columns != nil && t.columns["updated_at"] {
			row["updated_at"] = now
		}
		changed = append(changed, row.Clone())
	}
	return changed, nil
}

// Delete removes matching rows and reports how many were removed.
func (s *Store) Delete(ctx context.Context, name string, m store.Delete) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(&s.stats.Deletes)
	t, err := s.table(name, "delete")
	if err != nil {
		return 0, err
	}
	if err := s.checkColumns(t, name, "delete", filterColumns(m.Where)...); err != nil {
		return 0, err
	}

	kept := t.rows[:0]
	var removed int64
	for _, row := range t.rows {
		if match(m.Where, row) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	// Clear the tail so removed rows can be collected.
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = nil
	}
	t.rows = kept
	s.stats.Rows -= removed
	return removed, nil
}

func (s *Store) touch(counter *int64) {
	*counter++
	s.stats.LastAccessed = time.Now()
}

func (s *Store) table(name, op string) (*table, error) {
	if s.closed {
		return nil, store.ErrConnectionClosed
	}
	t, ok := s.tables[name]
	if !ok && s.autoCreate {
		t = &table{}
		s.tables[name] = t
		s.stats.Tables++
		return t, nil
	}
	if !ok {
		return nil, s.queryError(name, op, store.ErrUndefinedTable,
			fmt.Errorf("relation %q does not exist", name))
	}
	return t, nil
}

func (s *Store) checkQuery(t *table, name, op string, q store.Query) error {
	cols := filterColumns(q.Filter)
	for _, o := range q.OrderBy {
		cols = append(cols, o.Field)
	}
	cols = append(cols, q.SelectFields...)
	return s.checkColumns(t, name, op, cols...)
}

func (s *Store) checkColumns(t *table, name, op string, columns ...string) error {
	for _, c := range columns {
		if !t.has(c) {
			return s.queryError(name, op, store.ErrUndefinedColumn,
				fmt.Errorf("column %q of relation %q does not exist", c, name))
		}
	}
	return nil
}

func (s *Store) queryError(name, op string, kind, err error) error {
	qe := store.NewQueryError(err, op, name, "", nil)
	qe.Kind = kind
	return qe
}

func filterColumns(n store.Node) []string {
	conds := store.NewQuery().Where(n).Conditions()
	cols := make([]string, len(conds))
	for i, c := range conds {
		cols[i] = c.Field
	}
	return cols
}

func keys(r store.Record) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func project(row store.Record, fields []string) store.Record {
	if len(fields) == 0 {
		return row.Clone()
	}
	out := make(store.Record, len(fields))
	for _, f := range fields {
		if v, ok := row[f]; ok {
			out[f] = v
		}
	}
	return out
}
