package adapter

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationhub/store"
)

type testBinder struct {
	dialect Dialect
	args    []any
}

func (b *testBinder) Bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{"mysql", "pgx", "postgres", "postgresql", "sqlite", "sqlite-pure", "sqlite3"}, r.List())

	tests := map[string]string{
		"postgres":    "postgres",
		"POSTGRESQL":  "postgres",
		"pgx":         "pgx",
		"mysql":       "mysql",
		"sqlite":      "sqlite3",
		"sqlite3":     "sqlite3",
		"sqlite-pure": "sqlite",
	}
	for name, driver := range tests {
		t.Run(name, func(t *testing.T) {
			a, err := r.Get(name)
			require.NoError(t, err)
			assert.Equal(t, driver, a.DriverName())
			assert.True(t, r.Exists(name))
		})
	}

	_, err := r.Get("oracle")
	assert.ErrorIs(t, err, store.ErrDriverNotFound)
	assert.False(t, r.Exists("oracle"))
}

func TestGlobalRegistry(t *testing.T) {
	assert.True(t, Exists("pgx"))
	a, err := Get("mysql")
	require.NoError(t, err)
	assert.Equal(t, "mysql", a.Name())
	assert.Contains(t, List(), "sqlite-pure")
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := store.NewConfig(store.PostgreSQLOptions("hub", "app", "secret",
		store.WithHost("db.internal"),
		store.WithConnectTimeout(5*time.Second),
		store.WithOption("search_path", "hub"),
		store.WithOption("application_name", "entityctl"),
	)...)

	want := "host=db.internal port=5432 dbname=hub user=app password=secret sslmode=disable connect_timeout=5 application_name=entityctl search_path=hub"
	assert.Equal(t, want, NewPostgreSQLAdapter().ConnectionString(&cfg))
	assert.Equal(t, want, NewPgxAdapter().ConnectionString(&cfg))
}

func TestPostgresConnectionStringDefaults(t *testing.T) {
	cfg := &store.Config{Database: "hub"}
	assert.Equal(t, "host=localhost port=5432 dbname=hub sslmode=disable", NewPostgreSQLAdapter().ConnectionString(cfg))
}

func TestMySQLConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  store.Config
		want string
	}{
		{
			"full",
			store.NewConfig(store.MySQLOptions("hub", "app", "secret",
				store.WithHost("db.internal"),
				store.WithConnectTimeout(10*time.Second))...),
			"app:secret@tcp(db.internal:3306)/hub?parseTime=true&charset=utf8mb4&timeout=10s",
		},
		{
			"explicit charset",
			store.Config{Database: "hub", Options: map[string]string{"charset": "latin1"}},
			"/hub?parseTime=true&charset=latin1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMySQLAdapter().ConnectionString(&tt.cfg))
		})
	}
}

func TestSQLiteConnectionString(t *testing.T) {
	mem := &store.Config{}
	assert.Equal(t, ":memory:", NewSQLiteAdapter().ConnectionString(mem))
	assert.Equal(t, "file::memory:?_pragma=foreign_keys%281%29", NewPureSQLiteAdapter().ConnectionString(mem))

	file := &store.Config{FilePath: "data/../hub.db", Options: map[string]string{"_busy_timeout": "5000"}}
	assert.Equal(t, "hub.db?_busy_timeout=5000", NewSQLiteAdapter().ConnectionString(file))
}

func TestDialects(t *testing.T) {
	tests := []struct {
		name        string
		dialect     Dialect
		placeholder string
		quoted      string
		ilike       string
		returning   bool
		goose       string
	}{
		{"postgres", NewPostgreSQLAdapter(), "$3", `"we""ird"`, `"title" ILIKE $1`, true, "postgres"},
		{"pgx", NewPgxAdapter(), "$3", `"we""ird"`, `"title" ILIKE $1`, true, "postgres"},
		{"mysql", NewMySQLAdapter(), "?", "`we\"ird`", "LOWER(`title`) LIKE LOWER(?)", false, "mysql"},
		{"sqlite", NewSQLiteAdapter(), "?", `"we""ird"`, `LOWER("title") LIKE LOWER(?)`, true, "sqlite3"},
		{"sqlite-pure", NewPureSQLiteAdapter(), "?", `"we""ird"`, `LOWER("title") LIKE LOWER(?)`, true, "sqlite3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.dialect
			assert.Equal(t, tt.placeholder, d.Placeholder(3))
			assert.Equal(t, tt.quoted, d.QuoteIdentifier(`we"ird`))
			assert.Equal(t, tt.ilike, d.ILike(d.QuoteIdentifier("title"), d.Placeholder(1)))
			assert.Equal(t, tt.returning, d.SupportsReturning())
			assert.Equal(t, tt.goose, d.GooseDialect())
		})
	}
}

func TestJSONContains(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		value    any
		wantSQL  string
		wantArgs []any
	}{
		{"postgres scalar", postgresDialect{}, "water", `"tags" @> $1::jsonb`, []any{`["water"]`}},
		{"postgres array", postgresDialect{}, []string{"a", "b"}, `"tags" @> $1::jsonb`, []any{`["a","b"]`}},
		{"postgres object", postgresDialect{}, map[string]any{"lead": "ops"}, `"tags" @> $1::jsonb`, []any{`{"lead":"ops"}`}},
		{"mysql scalar", NewMySQLAdapter(), 3, "JSON_CONTAINS(`tags`, ?)", []any{`[3]`}},
		{"sqlite scalar", sqliteDialect{}, "water", `EXISTS (SELECT 1 FROM json_each("tags") WHERE value = ?)`, []any{"water"}},
		{
			"sqlite array", sqliteDialect{}, []any{"a", 2},
			`(EXISTS (SELECT 1 FROM json_each("tags") WHERE value = ?) AND EXISTS (SELECT 1 FROM json_each("tags") WHERE value = ?))`,
			[]any{"a", 2},
		},
		{
			"sqlite object", sqliteDialect{}, map[string]any{"year": 2025, "lead": "ops"},
			`(json_extract("tags", ?) = ? AND json_extract("tags", ?) = ?)`,
			[]any{"$.lead", "ops", "$.year", 2025},
		},
		{"sqlite empty array", sqliteDialect{}, []any{}, `json_type("tags") = 'array'`, nil},
		{"sqlite empty object", sqliteDialect{}, map[string]any{}, `json_type("tags") = 'object'`, nil},
		{"sqlite nested", sqliteDialect{}, []any{[]any{1, 2}}, `EXISTS (SELECT 1 FROM json_each("tags") WHERE value = ?)`, []any{"[1,2]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &testBinder{dialect: tt.dialect}
			got, err := tt.dialect.JSONContains(tt.dialect.QuoteIdentifier("tags"), tt.value, b)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, got)
			assert.Equal(t, tt.wantArgs, b.args)
		})
	}
}

func TestClassifyPostgres(t *testing.T) {
	adapters := []Adapter{NewPostgreSQLAdapter(), NewPgxAdapter()}
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"pq undefined column", &pq.Error{Code: "42703"}, store.ErrUndefinedColumn},
		{"pq undefined table", &pq.Error{Code: "42P01"}, store.ErrUndefinedTable},
		{"pq unique", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), store.ErrUniqueConstraint},
		{"pgconn foreign key", &pgconn.PgError{Code: "23503"}, store.ErrForeignKeyConstraint},
		{"pgconn undefined column", &pgconn.PgError{Code: "42703"}, store.ErrUndefinedColumn},
		{"other sqlstate", &pq.Error{Code: "22001"}, nil},
		{"connection refused", errors.New("dial tcp: connection refused"), store.ErrConnectionFailed},
		{"conn done", sql.ErrConnDone, store.ErrConnectionFailed},
		{"unknown", errors.New("boom"), nil},
		{"nil", nil, nil},
	}
	for _, a := range adapters {
		for _, tt := range tests {
			t.Run(a.Name()+"/"+tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, a.ClassifyError(tt.err))
			})
		}
	}
	assert.True(t, NewPostgreSQLAdapter().IsUniqueConstraintViolation(&pq.Error{Code: "23505"}))
	assert.True(t, NewPgxAdapter().IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
}

func TestClassifyMySQL(t *testing.T) {
	a := NewMySQLAdapter()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"bad field", &mysql.MySQLError{Number: 1054, Message: "Unknown column 'is_deleted'"}, store.ErrUndefinedColumn},
		{"no table", &mysql.MySQLError{Number: 1146}, store.ErrUndefinedTable},
		{"duplicate", &mysql.MySQLError{Number: 1062}, store.ErrUniqueConstraint},
		{"no parent", &mysql.MySQLError{Number: 1452}, store.ErrForeignKeyConstraint},
		{"referenced", &mysql.MySQLError{Number: 1451}, store.ErrForeignKeyConstraint},
		{"other", &mysql.MySQLError{Number: 1064}, nil},
		{"invalid conn", mysql.ErrInvalidConn, store.ErrConnectionFailed},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ClassifyError(tt.err))
		})
	}
	assert.True(t, a.IsUniqueConstraintViolation(&mysql.MySQLError{Number: 1062}))
	assert.Equal(t, sql.LevelRepeatableRead, a.DefaultTxOptions().Isolation)
}

func TestClassifySQLite(t *testing.T) {
	a := NewSQLiteAdapter()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, store.ErrUniqueConstraint},
		{"primary key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, store.ErrUniqueConstraint},
		{"foreign key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, store.ErrForeignKeyConstraint},
		{"no such column", errors.New("no such column: is_deleted"), store.ErrUndefinedColumn},
		{"no column named", errors.New("table follows has no column named is_deleted"), store.ErrUndefinedColumn},
		{"no such table", errors.New("no such table: widgets"), store.ErrUndefinedTable},
		{"other", errors.New("syntax error"), nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ClassifyError(tt.err))
		})
	}
	assert.True(t, a.IsConnectionError(errors.New("database is locked")))
	assert.False(t, a.IsConnectionError(nil))

	pure := NewPureSQLiteAdapter()
	assert.Equal(t, store.ErrUndefinedColumn, pure.ClassifyError(errors.New("SQL logic error: no such column: is_deleted (1)")))
	assert.Equal(t, store.ErrUniqueConstraint, pure.ClassifyError(errors.New("constraint failed: UNIQUE constraint failed: challenges.id")))
}

func TestContainmentJSON(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"x", `["x"]`},
		{nil, `[null]`},
		{[]int{1, 2}, `[1,2]`},
		{[2]string{"a", "b"}, `["a","b"]`},
		{map[string]int{"a": 1}, `{"a":1}`},
		{[]byte("raw"), `["cmF3"]`},
	}
	for _, tt := range tests {
		got, err := containmentJSON(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
