package sqlstore

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationDirs(t *testing.T) {
	for dialect, dir := range map[string]string{
		"sqlite3":  "migrations/sqlite",
		"postgres": "migrations/postgres",
		"mysql":    "migrations/mysql",
	} {
		got, err := migrationDir(dialect)
		require.NoError(t, err)
		assert.Equal(t, dir, got)

		files, err := fs.Glob(migrations, got+"/*.sql")
		require.NoError(t, err)
		assert.NotEmpty(t, files, dialect)
	}

	_, err := migrationDir("oracle")
	assert.Error(t, err)
}

func TestConvertValue(t *testing.T) {
	assert.Equal(t, map[string]any{"k": "v"}, convertValue([]byte(`{"k":"v"}`), "JSON"))
	assert.Equal(t, "not json", convertValue([]byte("not json"), "JSONB"))
	assert.Equal(t, []any{1.0}, convertValue("[1]", "JSON"))
	assert.Equal(t, "[1]", convertValue("[1]", "TEXT"))
	assert.Equal(t, true, convertValue(int64(1), "BOOLEAN"))
	assert.Equal(t, int64(1), convertValue(int64(1), "INTEGER"))
	assert.Nil(t, convertValue(nil, "JSON"))
}
