package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationhub/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	n := 0
	s := New(
		WithClock(func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() any {
			n++
			return n
		}),
	)
	require.NoError(t, s.CreateTable("pilots", "title", "stage", "budget", "tags", "meta", "created_at", "updated_at"))
	return s
}

func TestCreateTable(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateTable("pilots", "title"))
	assert.Error(t, s.CreateTable("pilots"))

	stats := s.Stats().(Stats)
	assert.Equal(t, int64(1), stats.Tables)
}

func TestInsertAssignsIDAndTimestamps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Insert(ctx, "pilots", store.NewInsert(store.Record{"title": "Smart bins"}))
	require.NoError(t, err)
	assert.Equal(t, 1, rec["id"])
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rec["created_at"])
	assert.Equal(t, rec["created_at"], rec["updated_at"])

	rec["title"] = "mutated"
	rows, err := s.Find(ctx, "pilots", store.NewQuery())
	require.NoError(t, err)
	assert.Equal(t, "Smart bins", rows[0]["title"])
}

func TestInsertDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Insert(ctx, "pilots", store.NewInsert(store.Record{"id": int64(7), "title": "a"}))
	require.NoError(t, err)
	_, err = s.Insert(ctx, "pilots", store.NewInsert(store.Record{"id": 7.0, "title": "b"}))
	assert.ErrorIs(t, err, store.ErrUniqueConstraint)
	assert.True(t, store.IsQueryError(err))
}

func TestUnknownTableAndColumn(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Find(ctx, "missing", store.NewQuery())
	assert.ErrorIs(t, err, store.ErrUndefinedTable)

	_, err = s.Find(ctx, "pilots", store.NewQuery().Where(store.Eq("is_deleted", false)))
	assert.ErrorIs(t, err, store.ErrUndefinedColumn)
	assert.True(t, store.IsUndefinedColumn(err))

	_, err = s.Find(ctx, "pilots", store.NewQuery().Order(store.Asc("nope")))
	assert.ErrorIs(t, err, store.ErrUndefinedColumn)

	_, err = s.Insert(ctx, "pilots", store.NewInsert(store.Record{"nope": 1}))
	assert.ErrorIs(t, err, store.ErrUndefinedColumn)

	_, err = s.Count(ctx, "pilots", store.NewQuery().Where(store.IsNull("nope")))
	assert.ErrorIs(t, err, store.ErrUndefinedColumn)

	_, err = s.Delete(ctx, "pilots", store.NewDelete(store.Eq("nope", 1)))
	assert.ErrorIs(t, err, store.ErrUndefinedColumn)
}

func TestFindOrderLimitProject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Seed("pilots",
		store.Record{"id": 1, "title": "b", "budget": 300.5},
		store.Record{"id": 2, "title": "a", "budget": nil},
		store.Record{"id": 3, "title": "c", "budget": 100},
		store.Record{"id": 4, "title": "a", "budget": 200},
	))

	rows, err := s.Find(ctx, "pilots", store.NewQuery().Order(store.Asc("budget")))
	require.NoError(t, err)
	assert.Equal(t, []any{2, 3, 4, 1}, column(rows, "id"))

	rows, err = s.Find(ctx, "pilots", store.NewQuery().Order(store.Desc("budget")))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 4, 3, 2}, column(rows, "id"))

	rows, err = s.Find(ctx, "pilots", store.NewQuery().
		Order(store.Asc("title")).
		Order(store.Desc("id")).
		WithLimit(3).
		Select("id"))
	require.NoError(t, err)
	assert.Equal(t, []store.Record{{"id": 4}, {"id": 2}, {"id": 1}}, rows)
}

func TestFindConditions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Seed("pilots",
		store.Record{"id": 1, "title": "Water Sensors", "stage": "pilot", "budget": 50, "tags": []any{"water", "iot"}, "meta": map[string]any{"lead": "ops", "year": 2025}},
		store.Record{"id": 2, "title": "bus lanes", "stage": "scale", "budget": 90.0, "tags": []string{"transport"}},
		store.Record{"id": 3, "title": "Street_lights", "stage": nil, "budget": int64(120)},
	))

	tests := []struct {
		name string
		node store.Node
		want []any
	}{
		{"eq normalizes numbers", store.Eq("budget", 90), []any{2}},
		{"ne skips nulls", store.Ne("stage", "pilot"), []any{2}},
		{"gt across int kinds", store.Gt("budget", 60), []any{2, 3}},
		{"le", store.Le("budget", 90), []any{1, 2}},
		{"in", store.In("stage", "pilot", "scale"), []any{1, 2}},
		{"in empty", store.In("stage"), []any{}},
		{"is null", store.IsNull("stage"), []any{3}},
		{"ilike", store.ILike("title", "%SENSOR%"), []any{1}},
		{"ilike underscore is any char", store.ILike("title", "street_lights"), []any{3}},
		{"ilike literal dot", store.ILike("title", "bus.lanes"), []any{}},
		{"contains scalar", store.Contains("tags", "iot"), []any{1}},
		{"contains typed slice", store.Contains("tags", []any{"transport"}), []any{2}},
		{"contains object", store.Contains("meta", map[string]any{"year": 2025.0}), []any{1}},
		{"eq on null is false", store.Eq("stage", nil), []any{}},
		{"or", store.AnyOf(store.IsNull("stage"), store.Eq("stage", "scale")), []any{2, 3}},
		{"and", store.AllOf(store.Ge("budget", 50), store.Lt("budget", 100)), []any{1, 2}},
		{"mismatched kinds", store.Gt("title", 1), []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.Find(ctx, "pilots", store.NewQuery().Where(tt.node).Order(store.Asc("id")))
			require.NoError(t, err)
			assert.Equal(t, tt.want, column(rows, "id"))

			n, err := s.Count(ctx, "pilots", store.NewQuery().Where(tt.node))
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), n)
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Seed("pilots",
		store.Record{"id": 1, "title": "a", "stage": "pilot"},
		store.Record{"id": 2, "title": "b", "stage": "pilot"},
		store.Record{"id": 3, "title": "c", "stage": "scale"},
	))

	rows, err := s.Update(ctx, "pilots", store.NewUpdate(store.Record{"stage": "done"}, store.Eq("stage", "pilot")))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, column(rows, "id"))
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rows[0]["updated_at"])

	n, err := s.Count(ctx, "pilots", store.NewQuery().Where(store.Eq("stage", "done")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err = s.Update(ctx, "pilots", store.NewUpdate(store.Record{"stage": "x"}, store.Eq("id", 99)))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = s.Update(ctx, "pilots", store.NewUpdate(store.Record{}, nil))
	assert.ErrorIs(t, err, store.ErrInvalidQuery)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Seed("pilots",
		store.Record{"id": 1, "title": "a"},
		store.Record{"id": 2, "title": "b"},
	))

	n, err := s.Delete(ctx, "pilots", store.NewDelete(store.Eq("id", 1)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Delete(ctx, "pilots", store.NewDelete(store.Eq("id", 1)))
	require.NoError(t, err)
	assert.Zero(t, n)

	stats := s.Stats().(Stats)
	assert.Equal(t, int64(1), stats.Rows)
	assert.Equal(t, int64(2), stats.Deletes)
}

func TestSchemalessAndAutoCreate(t *testing.T) {
	ctx := context.Background()
	s := New(WithAutoCreate())

	rec, err := s.Insert(ctx, "ideas", store.NewInsert(store.Record{"anything": true}))
	require.NoError(t, err)
	assert.NotEmpty(t, rec["id"])
	assert.Contains(t, rec, "created_at")

	rows, err := s.Find(ctx, "ideas", store.NewQuery().Where(store.Eq("whatever", 1)))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = s.Find(ctx, "other", store.NewQuery())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	require.NoError(t, src.Seed("pilots", store.Record{"id": 1, "title": "a"}))

	snap := src.Snapshot()
	snap["pilots"][0]["title"] = "changed"

	dst := New()
	require.NoError(t, dst.Restore(src.Snapshot()))
	rows, err := dst.Find(ctx, "pilots", store.NewQuery())
	require.NoError(t, err)
	assert.Equal(t, []store.Record{{"id": 1, "title": "a"}}, rows)
}

func TestCloseAndContext(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Find(ctx, "pilots", store.NewQuery())
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, s.Close())
	_, err = s.Find(context.Background(), "pilots", store.NewQuery())
	assert.ErrorIs(t, err, store.ErrConnectionClosed)

	require.NoError(t, s.Connect(context.Background()))
	_, err = s.Find(context.Background(), "pilots", store.NewQuery())
	assert.ErrorIs(t, err, store.ErrUndefinedTable)
}

func column(rows []store.Record, name string) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r[name]
	}
	return out
}
