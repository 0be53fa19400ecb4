// Package config loads entityctl configuration from defaults, a YAML file,
// ENTITYSTORE_ environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/innovationhub/store"
)

// EnvPrefix is the prefix of environment overrides. Nested keys use a double
// underscore: ENTITYSTORE_STORE__FILE_PATH sets store.file_path.
const EnvPrefix = "ENTITYSTORE_"

// Output formats.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// DefaultFiles are looked up in the working directory when no file is given.
var DefaultFiles = []string{"entitystore.yaml", "entitystore.yml"}

// Config is the complete entityctl configuration.
type Config struct {
	Store  store.Config `koanf:"store"`
	Log    LogConfig    `koanf:"log"`
	Output string       `koanf:"output"`

	// File is the configuration file that was read, if any.
	File string `koanf:"-"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// flagKeys maps flag names onto configuration keys. Flags not listed here are
// not configuration.
var flagKeys = map[string]string{
	"type":       "store.type",
	"host":       "store.host",
	"port":       "store.port",
	"username":   "store.username",
	"password":   "store.password",
	"database":   "store.database",
	"file":       "store.file_path",
	"ssl-mode":   "store.ssl_mode",
	"log-level":  "log.level",
	"log-format": "log.format",
	"output":     "output",
}

// FlagKey returns the configuration key bound to a flag name.
func FlagKey(name string) (string, bool) {
	key, ok := flagKeys[name]
	return key, ok
}

func defaults() map[string]any {
	d := store.DefaultConfig()
	return map[string]any{
		"store.type":                        "memory",
		"store.host":                        d.Host,
		"store.port":                        d.Port,
		"store.ssl_mode":                    d.SSLMode,
		"store.max_open_conns":              d.MaxOpenConns,
		"store.max_idle_conns":              d.MaxIdleConns,
		"store.conn_max_lifetime":           d.ConnMaxLifetime.String(),
		"store.conn_max_idle_time":          d.ConnMaxIdleTime.String(),
		"store.connect_timeout":             d.ConnectTimeout.String(),
		"store.entities.id_column":          d.Entities.IDColumn,
		"store.entities.soft_delete_column": d.Entities.SoftDeleteColumn,
		"store.entities.deleted_at_column":  d.Entities.DeletedAtColumn,
		"log.level":                         "info",
		"log.format":                        "text",
		"output":                            OutputJSON,
	}
}

// Load reads the configuration. An empty path falls back to DefaultFiles; a
// nil flag set skips the flag layer. Only flags the user changed override
// lower layers.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findFile(path)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	cfg.Store.Password = expandEnvVars(cfg.Store.Password)
	cfg.Store.Username = expandEnvVars(cfg.Store.Username)
	if cfg.Store.Options == nil {
		cfg.Store.Options = map[string]string{}
	}
	if cfg.Store.Entities.Tables == nil {
		cfg.Store.Entities.Tables = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the store settings and the output format.
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}
	switch c.Output {
	case OutputJSON, OutputYAML:
	default:
		return store.NewConfigErrorForField("output", c.Output, "output must be json or yaml")
	}
	return nil
}

// envKey turns ENTITYSTORE_STORE__FILE_PATH into store.file_path.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func findFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the variable's value, leaving unset
// variables as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}
