package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationhub/store"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entitystore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("type", "", "")
	fs.String("database", "", "")
	fs.Int("port", 0, "")
	fs.String("file", "", "")
	fs.String("output", "", "")
	fs.String("log-level", "", "")
	fs.Bool("verbose", false, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "localhost", cfg.Store.Host)
	assert.Equal(t, 30*time.Second, cfg.Store.ConnectTimeout)
	assert.Equal(t, time.Hour, cfg.Store.ConnMaxLifetime)
	assert.Equal(t, store.DefaultIDColumn, cfg.Store.Entities.IDColumn)
	assert.Equal(t, store.DefaultSoftDeleteColumn, cfg.Store.Entities.SoftDeleteColumn)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.File)
	assert.NotNil(t, cfg.Store.Options)
	assert.NotNil(t, cfg.Store.Entities.Tables)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
store:
  type: postgres
  host: db.internal
  port: 5433
  database: hub
  connect_timeout: 5s
  options:
    application_name: entityctl
  entities:
    tables:
      Challenge: municipal_challenges
    hard_delete:
      - UserFollow
log:
  level: debug
  format: json
output: yaml
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "postgres", cfg.Store.Type)
	assert.Equal(t, "db.internal", cfg.Store.Host)
	assert.Equal(t, 5433, cfg.Store.Port)
	assert.Equal(t, 5*time.Second, cfg.Store.ConnectTimeout)
	assert.Equal(t, "entityctl", cfg.Store.Options["application_name"])
	assert.Equal(t, "municipal_challenges", cfg.Store.Entities.Tables["Challenge"])
	assert.Equal(t, []string{"UserFollow"}, cfg.Store.Entities.HardDelete)
	assert.Equal(t, store.DefaultDeletedAtColumn, cfg.Store.Entities.DeletedAtColumn)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, OutputYAML, cfg.Output)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, `
store:
  type: sqlite
  file_path: from-file.db
output: yaml
`)
	t.Setenv("ENTITYSTORE_STORE__FILE_PATH", "from-env.db")
	t.Setenv("ENTITYSTORE_OUTPUT", "json")

	t.Run("env overrides file", func(t *testing.T) {
		cfg, err := Load(path, testFlags())
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Store.Type)
		assert.Equal(t, "from-env.db", cfg.Store.FilePath)
		assert.Equal(t, OutputJSON, cfg.Output)
	})

	t.Run("changed flags override env", func(t *testing.T) {
		fs := testFlags()
		require.NoError(t, fs.Parse([]string{"--file", "from-flag.db", "--output", "yaml"}))
		cfg, err := Load(path, fs)
		require.NoError(t, err)
		assert.Equal(t, "from-flag.db", cfg.Store.FilePath)
		assert.Equal(t, OutputYAML, cfg.Output)
	})

	t.Run("unchanged flags keep lower layers", func(t *testing.T) {
		fs := testFlags()
		require.NoError(t, fs.Parse([]string{"--verbose"}))
		cfg, err := Load(path, fs)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Store.Type)
		assert.Equal(t, "from-env.db", cfg.Store.FilePath)
	})
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown type", "store:\n  type: oracle\n"},
		{"postgres without database", "store:\n  type: postgres\n"},
		{"bad output", "output: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.yaml), nil)
			require.Error(t, err)
			assert.True(t, store.IsConfigError(err))
		})
	}
}

func TestPasswordExpansion(t *testing.T) {
	t.Setenv("HUB_DB_PASSWORD", "s3cret")
	path := writeFile(t, `
store:
  type: mysql
  database: hub
  password: ${HUB_DB_PASSWORD}
  username: ${HUB_DB_USER_UNSET}
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Store.Password)
	assert.Equal(t, "${HUB_DB_USER_UNSET}", cfg.Store.Username)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "store.file_path", envKey("ENTITYSTORE_STORE__FILE_PATH"))
	assert.Equal(t, "output", envKey("ENTITYSTORE_OUTPUT"))
	assert.Equal(t, "store.entities.id_column", envKey("ENTITYSTORE_STORE__ENTITIES__ID_COLUMN"))
}

func TestFlagKey(t *testing.T) {
	key, ok := FlagKey("file")
	assert.True(t, ok)
	assert.Equal(t, "store.file_path", key)

	_, ok = FlagKey("verbose")
	assert.False(t, ok)
}
