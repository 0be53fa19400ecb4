package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for common storage operations.
var (
	// Connection errors
	ErrConnectionFailed = errors.New("connection failed")
	ErrConnectionClosed = errors.New("connection closed")

	// Driver errors
	ErrDriverNotFound = errors.New("driver not found")

	// Transaction errors
	ErrTransactionFailed = errors.New("transaction failed")

	// Query errors
	ErrInvalidQuery    = errors.New("invalid query")
	ErrUndefinedColumn = errors.New("undefined column")
	ErrUndefinedTable  = errors.New("undefined table")

	// Record errors
	ErrRecordNotFound = errors.New("record not found")

	// Constraint errors
	ErrUniqueConstraint     = errors.New("unique constraint violation")
	ErrForeignKeyConstraint = errors.New("foreign key constraint violation")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// Generic errors
	ErrNotSupported = errors.New("operation not supported")
)

// ConnectionError represents connection-related errors.
type ConnectionError struct {
	Operation string
	Driver    string
	Host      string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s with %s driver at %s: %v",
		e.Operation, e.Driver, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// DriverError represents driver-related errors.
type DriverError struct {
	Driver    string
	Operation string
	Err       error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver error with %s during %s: %v",
		e.Driver, e.Operation, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// TransactionError represents transaction-related errors.
type TransactionError struct {
	Operation string
	Err       error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction error during %s: %v", e.Operation, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailed
}

// QueryError represents query execution errors. Kind, when set, is one of the
// sentinel errors above and classifies the driver error in Err.
type QueryError struct {
	Operation string
	Table     string
	Query     string
	Args      []any
	Kind      error
	Err       error
}

func (e *QueryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("query error during %s on table %s: %v",
			e.Operation, e.Table, e.Err)
	}
	return fmt.Sprintf("query error during %s: %v", e.Operation, e.Err)
}

func (e *QueryError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// RecordNotFoundError represents a record not found error.
type RecordNotFoundError struct {
	Table string
	ID    string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record not found in table %s with ID %s", e.Table, e.ID)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// ValidationError represents validation errors.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConfigError represents configuration errors.
type ConfigError struct {
	Field   string
	Value   any
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// RepositoryError carries the entity and operation a backend failure
// happened in.
type RepositoryError struct {
	EntityName string
	Operation  string
	Context    map[string]any
	Err        error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository error in %s.%s: %v", e.EntityName, e.Operation, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// Constructor functions for custom errors

// NewConnectionError creates a new connection error.
func NewConnectionError(err error, operation, driver, host string) *ConnectionError {
	return &ConnectionError{
		Operation: operation,
		Driver:    driver,
		Host:      host,
		Err:       err,
	}
}

// NewDriverError creates a new driver error.
func NewDriverError(err error, driver, operation string) *DriverError {
	return &DriverError{
		Driver:    driver,
		Operation: operation,
		Err:       err,
	}
}

// NewTransactionError creates a new transaction error.
func NewTransactionError(err error, operation string) *TransactionError {
	return &TransactionError{
		Operation: operation,
		Err:       err,
	}
}

// NewQueryError creates a new query error.
func NewQueryError(err error, operation, table, query string, args []any) *QueryError {
	return &QueryError{
		Operation: operation,
		Table:     table,
		Query:     query,
		Args:      args,
		Err:       err,
	}
}

// NewRecordNotFoundError creates a new record not found error.
func NewRecordNotFoundError(table, id string) *RecordNotFoundError {
	return &RecordNotFoundError{
		Table: table,
		ID:    id,
	}
}

// NewValidationErrorForField creates a new validation error for a specific field.
func NewValidationErrorForField(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewConfigErrorForField creates a new config error for a specific field.
func NewConfigErrorForField(field string, value any, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrapper functions for adding context to errors

// WrapConnectionError wraps an error as a connection error.
func WrapConnectionError(err error, operation, driver, host string) error {
	if err == nil {
		return nil
	}
	return NewConnectionError(err, operation, driver, host)
}

// WrapDriverError wraps an error as a driver error.
func WrapDriverError(err error, driver, operation string) error {
	if err == nil {
		return nil
	}
	return NewDriverError(err, driver, operation)
}

// WrapTransactionError wraps an error as a transaction error.
func WrapTransactionError(err error, operation string) error {
	if err == nil {
		return nil
	}
	return NewTransactionError(err, operation)
}

// WrapRepositoryError wraps an error with repository context.
func WrapRepositoryError(err error, entityName, operation string, context map[string]any) error {
	if err == nil {
		return nil
	}
	return &RepositoryError{
		EntityName: entityName,
		Operation:  operation,
		Context:    context,
		Err:        err,
	}
}

// Error checking functions

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// IsQueryError checks if an error is a query error.
func IsQueryError(err error) bool {
	var queryErr *QueryError
	return errors.As(err, &queryErr)
}

// IsRecordNotFoundError checks if an error is a record not found error.
func IsRecordNotFoundError(err error) bool {
	var notFoundErr *RecordNotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsConfigError checks if an error is a config error.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsUndefinedColumn reports whether err was caused by a reference to a column
// the target table does not have.
func IsUndefinedColumn(err error) bool {
	return errors.Is(err, ErrUndefinedColumn)
}
