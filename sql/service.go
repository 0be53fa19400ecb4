package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/innovationhub/store"
	"github.com/innovationhub/store/sql/adapter"
)

// Service is a store.Service over a database/sql connection pool.
type Service struct {
	adapter  adapter.Adapter
	db       *sql.DB
	config   *store.Config
	compiler *Compiler
	logger   *slog.Logger

	idColumn    string
	generateIDs bool
}

// Ensure Service implements the service interface.
var _ store.Service = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDColumn sets the identifier column used to re-read rows and to
// assign generated ids. Defaults to "id".
func WithIDColumn(column string) Option {
	return func(s *Service) {
		if column != "" {
			s.idColumn = column
		}
	}
}

// WithGenerateIDs controls whether inserts without an id get a UUID.
// Enabled by default; disable for tables with database-generated keys.
func WithGenerateIDs(enabled bool) Option {
	return func(s *Service) {
		s.generateIDs = enabled
	}
}

// NewService creates a new SQL service with the given adapter.
func NewService(adpt adapter.Adapter, config *store.Config, opts ...Option) *Service {
	s := &Service{
		adapter:     adpt,
		config:      config,
		compiler:    NewCompiler(adpt),
		logger:      slog.Default(),
		idColumn:    store.DefaultIDColumn,
		generateIDs: true,
	}
	if config != nil && config.Entities.IDColumn != "" {
		s.idColumn = config.Entities.IDColumn
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceWithDB creates a service over an already open pool.
func NewServiceWithDB(adpt adapter.Adapter, db *sql.DB, opts ...Option) *Service {
	s := NewService(adpt, nil, opts...)
	s.db = db
	return s
}

// Connect establishes the database connection.
func (s *Service) Connect(ctx context.Context) error {
	if s.config == nil {
		return store.NewConfigErrorForField("config", nil, "sql service has no configuration")
	}
	db, err := s.adapter.Connect(ctx, s.config)
	if err != nil {
		return err
	}
	s.db = db
	s.logger.Info("connected to database",
		slog.String("adapter", s.adapter.Name()),
		slog.String("host", s.config.Host),
		slog.String("database", s.config.Database))
	return nil
}

// DB returns the underlying database connection.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Adapter returns the underlying adapter.
func (s *Service) Adapter() adapter.Adapter {
	return s.adapter
}

// Close closes the database connection.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Stats returns database connection statistics.
func (s *Service) Stats() interface{} {
	if s.db != nil {
		return s.db.Stats()
	}
	return sql.DBStats{}
}

// QueryExecutor returns a new query executor.
func (s *Service) QueryExecutor() *QueryExecutor {
	return NewQueryExecutor(s.db)
}

// TransactionHandler returns a new transaction handler.
func (s *Service) TransactionHandler() *TransactionHandler {
	return NewTransactionHandler(s.db, s.adapter)
}

// ExecuteSQL executes raw SQL (for migrations, table creation, etc.).
func (s *Service) ExecuteSQL(ctx context.Context, query string, args ...interface{}) error {
	_, err := s.QueryExecutor().Exec(ctx, &CompiledSQL{SQL: query, Args: args})
	if err != nil {
		return s.queryError(err, "execute_sql", "", &CompiledSQL{SQL: query, Args: args})
	}
	return nil
}

// Migrate applies the embedded schema migrations for the adapter's dialect.
func (s *Service) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.db, s.adapter.GooseDialect())
}

// Find returns the rows of table matching q.
func (s *Service) Find(ctx context.Context, table string, q store.Query) ([]store.Record, error) {
	c, err := s.compiler.Select(table, q)
	if err != nil {
		return nil, s.queryError(err, "find", table, nil)
	}
	return s.query(ctx, "find", table, c)
}

// Count returns the number of rows of table matching q's filter.
func (s *Service) Count(ctx context.Context, table string, q store.Query) (int64, error) {
	c, err := s.compiler.Count(table, q)
	if err != nil {
		return 0, s.queryError(err, "count", table, nil)
	}
	var n sql.NullInt64
	if err := s.QueryExecutor().QueryRow(ctx, c).Scan(&n); err != nil {
		return 0, s.queryError(err, "count", table, c)
	}
	return n.Int64, nil
}

// Insert adds a row and returns it as stored. Missing ids are generated
// when enabled.
func (s *Service) Insert(ctx context.Context, table string, m store.Insert) (store.Record, error) {
	values := m.Values.Clone()
	if s.generateIDs && values[s.idColumn] == nil {
		values[s.idColumn] = uuid.NewString()
	}
	m = store.NewInsert(values)

	if s.adapter.SupportsReturning() {
		c, err := s.compiler.Insert(table, m, true)
		if err != nil {
			return nil, s.queryError(err, "insert", table, nil)
		}
		rows, err := s.query(ctx, "insert", table, c)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, s.queryError(errors.New("insert returned no row"), "insert", table, c)
		}
		return rows[0], nil
	}

	var out store.Record
	err := s.TransactionHandler().WithTx(ctx, func(ctx context.Context) error {
		c, err := s.compiler.Insert(table, m, false)
		if err != nil {
			return s.queryError(err, "insert", table, nil)
		}
		res, err := s.QueryExecutor().Exec(ctx, c)
		if err != nil {
			return s.queryError(err, "insert", table, c)
		}
		id := values[s.idColumn]
		if id == nil {
			if id, err = res.LastInsertId(); err != nil {
				return s.queryError(err, "insert", table, c)
			}
		}
		rows, err := s.reread(ctx, "insert", table, []any{id})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return s.queryError(errors.New("inserted row not found"), "insert", table, c)
		}
		out = rows[0]
		return nil
	})
	return out, err
}

// Update applies m and returns the changed rows as stored.
func (s *Service) Update(ctx context.Context, table string, m store.Update) ([]store.Record, error) {
	if s.adapter.SupportsReturning() {
		c, err := s.compiler.Update(table, m, true)
		if err != nil {
			return nil, s.queryError(err, "update", table, nil)
		}
		return s.query(ctx, "update", table, c)
	}

	var out []store.Record
	err := s.TransactionHandler().WithTx(ctx, func(ctx context.Context) error {
		// Collect the ids first: the update may change the filtered columns.
		sel, err := s.compiler.Select(table, store.NewQuery().Select(s.idColumn).Where(m.Where))
		if err != nil {
			return s.queryError(err, "update", table, nil)
		}
		matched, err := s.query(ctx, "update", table, sel)
		if err != nil {
			return err
		}
		c, err := s.compiler.Update(table, m, false)
		if err != nil {
			return s.queryError(err, "update", table, nil)
		}
		if _, err := s.QueryExecutor().Exec(ctx, c); err != nil {
			return s.queryError(err, "update", table, c)
		}
		if len(matched) == 0 {
			out = []store.Record{}
			return nil
		}
		ids := make([]any, len(matched))
		for i, row := range matched {
			ids[i] = row[s.idColumn]
		}
		out, err = s.reread(ctx, "update", table, ids)
		return err
	})
	return out, err
}

// Delete removes the rows matched by m.
func (s *Service) Delete(ctx context.Context, table string, m store.Delete) (int64, error) {
	c, err := s.compiler.Delete(table, m)
	if err != nil {
		return 0, s.queryError(err, "delete", table, nil)
	}
	res, err := s.QueryExecutor().Exec(ctx, c)
	if err != nil {
		return 0, s.queryError(err, "delete", table, c)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.queryError(err, "delete", table, c)
	}
	return n, nil
}

func (s *Service) reread(ctx context.Context, op, table string, ids []any) ([]store.Record, error) {
	c, err := s.compiler.Select(table, store.NewQuery().Where(store.In(s.idColumn, ids...)))
	if err != nil {
		return nil, s.queryError(err, op, table, nil)
	}
	return s.query(ctx, op, table, c)
}

func (s *Service) query(ctx context.Context, op, table string, c *CompiledSQL) ([]store.Record, error) {
	s.logger.Debug("executing query", slog.String("op", op), slog.String("sql", c.SQL))
	rows, err := s.QueryExecutor().Query(ctx, c)
	if err != nil {
		return nil, s.queryError(err, op, table, c)
	}
	out, err := scanRows(rows)
	if err != nil {
		return nil, s.queryError(err, op, table, c)
	}
	return out, nil
}

// queryError wraps err with the statement and the adapter's classification.
func (s *Service) queryError(err error, op, table string, c *CompiledSQL) error {
	var qe *store.QueryError
	if errors.As(err, &qe) {
		return err
	}
	qe = store.NewQueryError(err, op, table, "", nil)
	if c != nil {
		qe.Query = c.SQL
		qe.Args = c.Args
	}
	switch {
	case errors.Is(err, store.ErrInvalidQuery):
		qe.Kind = store.ErrInvalidQuery
	default:
		qe.Kind = s.adapter.ClassifyError(err)
	}
	return qe
}

// Open creates and connects a new SQL service using the specified adapter.
func Open(ctx context.Context, adpt adapter.Adapter, config *store.Config, opts ...Option) (*Service, error) {
	service := NewService(adpt, config, opts...)
	if err := service.Connect(ctx); err != nil {
		return nil, err
	}
	return service, nil
}

// OpenConfig validates config, looks its adapter up in the registry and
// connects.
func OpenConfig(ctx context.Context, config *store.Config, opts ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	adpt, err := adapter.Get(config.Type)
	if err != nil {
		return nil, store.WrapDriverError(err, config.Type, "get adapter")
	}
	svc, err := Open(ctx, adpt, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", config.Type, err)
	}
	return svc, nil
}
