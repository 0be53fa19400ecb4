package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/innovationhub/store"
)

// MySQL server error numbers used for classification.
const (
	mysqlBadField        = 1054
	mysqlNoSuchTable     = 1146
	mysqlDupEntry        = 1062
	mysqlNoReferenced    = 1452
	mysqlRowIsReferenced = 1451
)

// MySQLAdapter implements the Adapter interface for MySQL.
type MySQLAdapter struct {
	*BaseSQLAdapter
}

// NewMySQLAdapter creates a new MySQL adapter.
func NewMySQLAdapter() *MySQLAdapter {
	return &MySQLAdapter{
		BaseSQLAdapter: NewBaseSQLAdapter("mysql", "mysql"),
	}
}

// Connect establishes a connection to MySQL.
func (a *MySQLAdapter) Connect(ctx context.Context, config *store.Config) (*sql.DB, error) {
	return a.open(ctx, config, a.ConnectionString(config))
}

// ConnectionString constructs a MySQL connection string.
// Format: [username[:password]@][protocol[(address)]]/dbname[?param1=value1&...&paramN=valueN]
func (a *MySQLAdapter) ConnectionString(config *store.Config) string {
	var connStr strings.Builder

	if config.Username != "" {
		connStr.WriteString(config.Username)
		if config.Password != "" {
			connStr.WriteString(":")
			connStr.WriteString(config.Password)
		}
		connStr.WriteString("@")
	}

	if config.Host != "" || config.Port > 0 {
		connStr.WriteString("tcp(")
		if config.Host != "" {
			connStr.WriteString(config.Host)
		} else {
			connStr.WriteString("localhost")
		}
		if config.Port > 0 {
			connStr.WriteString(fmt.Sprintf(":%d", config.Port))
		}
		connStr.WriteString(")")
	}

	connStr.WriteString("/")
	connStr.WriteString(config.Database)

	// parseTime is required to scan DATETIME columns into time.Time
	params := []string{"parseTime=true"}

	hasCharset := false
	for key := range config.Options {
		if strings.EqualFold(key, "charset") {
			hasCharset = true
			break
		}
	}
	if !hasCharset {
		params = append(params, "charset=utf8mb4")
	}
	if config.ConnectTimeout > 0 {
		params = append(params, fmt.Sprintf("timeout=%s", config.ConnectTimeout))
	}

	for _, key := range sortedKeys(config.Options) {
		params = append(params, fmt.Sprintf("%s=%s", key, config.Options[key]))
	}

	connStr.WriteString("?")
	connStr.WriteString(strings.Join(params, "&"))
	return connStr.String()
}

// DefaultTxOptions returns MySQL-specific transaction options.
func (a *MySQLAdapter) DefaultTxOptions() *sql.TxOptions {
	return &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead, // MySQL default
		ReadOnly:  false,
	}
}

// ClassifyError maps MySQL server error numbers.
func (a *MySQLAdapter) ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		if a.IsConnectionError(err) || errors.Is(err, mysql.ErrInvalidConn) {
			return store.ErrConnectionFailed
		}
		return nil
	}
	switch myErr.Number {
	case mysqlBadField:
		return store.ErrUndefinedColumn
	case mysqlNoSuchTable:
		return store.ErrUndefinedTable
	case mysqlDupEntry:
		return store.ErrUniqueConstraint
	case mysqlNoReferenced, mysqlRowIsReferenced:
		return store.ErrForeignKeyConstraint
	}
	return nil
}

func (a *MySQLAdapter) IsUniqueConstraintViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrUniqueConstraint)
}

func (a *MySQLAdapter) IsForeignKeyViolation(err error) bool {
	return errors.Is(a.ClassifyError(err), store.ErrForeignKeyConstraint)
}

func (a *MySQLAdapter) Placeholder(int) string { return "?" }

// QuoteIdentifier quotes a MySQL identifier.
func (a *MySQLAdapter) QuoteIdentifier(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func (a *MySQLAdapter) ILike(column, placeholder string) string {
	return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", column, placeholder)
}

func (a *MySQLAdapter) JSONContains(column string, value any, b Binder) (string, error) {
	doc, err := containmentJSON(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("JSON_CONTAINS(%s, %s)", column, b.Bind(doc)), nil
}

// SupportsReturning is false: MySQL has no RETURNING clause.
func (a *MySQLAdapter) SupportsReturning() bool { return false }

func (a *MySQLAdapter) GooseDialect() string { return "mysql" }
