package store

import (
	"time"
)

// Option configures a store configuration.
type Option func(*Config)

// Database connection options

// WithConnection sets basic connection parameters for network-based backends.
func WithConnection(host string, port int, username, password, database string) Option {
	return func(c *Config) {
		c.Host = host
		c.Port = port
		c.Username = username
		c.Password = password
		c.Database = database
	}
}

// WithType sets the adapter type.
func WithType(typ string) Option {
	return func(c *Config) {
		c.Type = typ
	}
}

// WithHost sets the connection host.
func WithHost(host string) Option {
	return func(c *Config) {
		c.Host = host
	}
}

// WithPort sets the connection port.
func WithPort(port int) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithCredentials sets username and password.
func WithCredentials(username, password string) Option {
	return func(c *Config) {
		c.Username = username
		c.Password = password
	}
}

// WithDatabase sets the database name.
func WithDatabase(database string) Option {
	return func(c *Config) {
		c.Database = database
	}
}

// WithFilePath sets the file path for SQLite.
func WithFilePath(path string) Option {
	return func(c *Config) {
		c.FilePath = path
	}
}

// WithPooling configures connection pooling settings.
func WithPooling(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(c *Config) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
		c.ConnMaxLifetime = maxLifetime
	}
}

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(max int) Option {
	return func(c *Config) {
		c.MaxOpenConns = max
	}
}

// WithConnectTimeout sets the connection timeout.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ConnectTimeout = timeout
	}
}

// Security options

// WithSSL configures SSL/TLS settings.
func WithSSL(mode string) Option {
	return func(c *Config) {
		c.SSLMode = mode
	}
}

// WithSSLRequired requires SSL (equivalent to WithSSL("require")).
func WithSSLRequired() Option {
	return WithSSL("require")
}

// Custom options

// WithOption sets a custom option in the Options map.
func WithOption(key, value string) Option {
	return func(c *Config) {
		if c.Options == nil {
			c.Options = make(map[string]string)
		}
		c.Options[key] = value
	}
}

// Entity options

// WithSoftDeleteColumns overrides the soft-delete flag and deletion
// timestamp column names.
func WithSoftDeleteColumns(flag, deletedAt string) Option {
	return func(c *Config) {
		c.Entities.SoftDeleteColumn = flag
		c.Entities.DeletedAtColumn = deletedAt
	}
}

// WithTable maps a logical entity name to a physical table.
func WithTable(entity, table string) Option {
	return func(c *Config) {
		if c.Entities.Tables == nil {
			c.Entities.Tables = make(map[string]string)
		}
		c.Entities.Tables[entity] = table
	}
}

// WithHardDelete marks entities whose tables carry no soft-delete column.
func WithHardDelete(entities ...string) Option {
	return func(c *Config) {
		c.Entities.HardDelete = append(c.Entities.HardDelete, entities...)
	}
}

// Backend-specific convenience functions

// PostgreSQLOptions returns common PostgreSQL configuration options.
func PostgreSQLOptions(database, username, password string, opts ...Option) []Option {
	base := []Option{
		WithType("postgres"),
		WithPort(5432),
		WithDatabase(database),
		WithCredentials(username, password),
		WithSSL("disable"),
	}
	return append(base, opts...)
}

// MySQLOptions returns common MySQL configuration options.
func MySQLOptions(database, username, password string, opts ...Option) []Option {
	base := []Option{
		WithType("mysql"),
		WithPort(3306),
		WithDatabase(database),
		WithCredentials(username, password),
	}
	return append(base, opts...)
}

// SQLiteOptions returns common SQLite configuration options.
func SQLiteOptions(filePath string, opts ...Option) []Option {
	base := []Option{
		WithType("sqlite"),
		WithFilePath(filePath),
		WithMaxOpenConns(1), // SQLite works best with single connection
	}
	return append(base, opts...)
}

// MemoryOptions returns in-memory storage configuration options.
func MemoryOptions(opts ...Option) []Option {
	base := []Option{
		WithType("memory"),
	}
	return append(base, opts...)
}

// NewConfig creates a new configuration with the given options.
func NewConfig(opts ...Option) Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// Apply applies multiple options to an existing configuration.
func (c *Config) Apply(opts ...Option) *Config {
	for _, opt := range opts {
		opt(c)
	}
	return c
}
