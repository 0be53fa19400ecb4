package store

import (
	"strings"
	"time"
)

// Default column conventions shared by every entity table.
const (
	DefaultIDColumn         = "id"
	DefaultSoftDeleteColumn = "is_deleted"
	DefaultDeletedAtColumn  = "deleted_at"
)

// Config contains the backend connection settings and the entity column
// conventions. Field tags drive koanf unmarshaling.
type Config struct {
	// Basic connection info
	Type     string `koanf:"type"` // adapter type (postgres, pgx, mysql, sqlite, sqlite-pure, memory)
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	FilePath string `koanf:"file_path"` // sqlite database file; empty means in-memory
	SSLMode  string `koanf:"ssl_mode"`

	// Connection pooling
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`

	// Timeouts
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	// Backend-specific options, appended to the connection string
	Options map[string]string `koanf:"options"`

	Entities EntityConfig `koanf:"entities"`
}

// EntityConfig holds the column conventions and per-entity overrides used by
// the handler registry.
type EntityConfig struct {
	IDColumn         string `koanf:"id_column"`
	SoftDeleteColumn string `koanf:"soft_delete_column"`
	DeletedAtColumn  string `koanf:"deleted_at_column"`

	// Tables maps logical entity names to physical tables, ahead of the
	// built-in mapping.
	Tables map[string]string `koanf:"tables"`

	// HardDelete lists entities whose tables have no soft-delete column.
	HardDelete []string `koanf:"hard_delete"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            0, // Backend-specific default
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		ConnectTimeout:  30 * time.Second,
		Options:         make(map[string]string),
		Entities: EntityConfig{
			IDColumn:         DefaultIDColumn,
			SoftDeleteColumn: DefaultSoftDeleteColumn,
			DeletedAtColumn:  DefaultDeletedAtColumn,
			Tables:           make(map[string]string),
		},
	}
}

var knownTypes = map[string]bool{
	"postgres":    true,
	"postgresql":  true,
	"pgx":         true,
	"mysql":       true,
	"sqlite":      true,
	"sqlite3":     true,
	"sqlite-pure": true,
	"memory":      true,
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Type == "" {
		return NewConfigErrorForField("type", c.Type, "adapter type is required")
	}
	if !knownTypes[strings.ToLower(c.Type)] {
		return NewConfigErrorForField("type", c.Type, "unknown adapter type")
	}
	switch strings.ToLower(c.Type) {
	case "postgres", "postgresql", "pgx", "mysql":
		if c.Database == "" {
			return NewConfigErrorForField("database", c.Database, "database name is required")
		}
		if c.Port < 0 || c.Port > 65535 {
			return NewConfigErrorForField("port", c.Port, "port out of range")
		}
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return NewConfigErrorForField("max_open_conns", c.MaxOpenConns, "pool sizes cannot be negative")
	}
	if c.Entities.IDColumn == "" {
		return NewConfigErrorForField("entities.id_column", c.Entities.IDColumn, "id column is required")
	}
	if c.Entities.SoftDeleteColumn == "" {
		return NewConfigErrorForField("entities.soft_delete_column", c.Entities.SoftDeleteColumn, "soft-delete column is required")
	}
	if c.Entities.DeletedAtColumn == "" {
		return NewConfigErrorForField("entities.deleted_at_column", c.Entities.DeletedAtColumn, "deletion timestamp column is required")
	}
	return nil
}
