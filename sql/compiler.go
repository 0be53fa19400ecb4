package sqlstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/innovationhub/store"
	"github.com/innovationhub/store/sql/adapter"
)

// CompiledSQL represents a compiled SQL statement with arguments.
type CompiledSQL struct {
	SQL  string
	Args []any
}

// Compiler turns store queries and mutations into SQL for one dialect.
// Identifiers are quoted and every value is bound as an argument.
type Compiler struct {
	dialect adapter.Dialect
}

// NewCompiler creates a compiler for dialect.
func NewCompiler(dialect adapter.Dialect) *Compiler {
	return &Compiler{dialect: dialect}
}

// binder collects arguments and numbers placeholders in order.
type binder struct {
	dialect adapter.Dialect
	args    []any
}

func (b *binder) Bind(v any) string {
	b.args = append(b.args, bindValue(v))
	return b.dialect.Placeholder(len(b.args))
}

// bindValue encodes arrays and objects as JSON text; drivers cannot bind
// them directly.
func bindValue(v any) any {
	if v == nil {
		return nil
	}
	if _, ok := v.([]byte); ok {
		return v
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return v
}

// Select compiles q against table.
func (c *Compiler) Select(table string, q store.Query) (*CompiledSQL, error) {
	b := &binder{dialect: c.dialect}

	cols := "*"
	if len(q.SelectFields) > 0 {
		quoted := make([]string, len(q.SelectFields))
		for i, f := range q.SelectFields {
			quoted[i] = c.quote(f)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, c.quote(table))
	if err := c.writeWhere(&sb, q.Filter, b); err != nil {
		return nil, err
	}

	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = c.quote(o.Field) + " " + dir
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}

	if q.Limit != nil {
		sb.WriteString(" LIMIT " + b.Bind(*q.Limit))
	}

	return &CompiledSQL{SQL: sb.String(), Args: b.args}, nil
}

// Count compiles a COUNT(*) over q's filter. Ordering and limit are ignored.
func (c *Compiler) Count(table string, q store.Query) (*CompiledSQL, error) {
	b := &binder{dialect: c.dialect}
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT COUNT(*) FROM %s", c.quote(table))
	if err := c.writeWhere(&sb, q.Filter, b); err != nil {
		return nil, err
	}
	return &CompiledSQL{SQL: sb.String(), Args: b.args}, nil
}

func (c *Compiler) writeWhere(sb *strings.Builder, n store.Node, b *binder) error {
	if n == nil {
		return nil
	}
	where, err := c.compileNode(n, b)
	if err != nil {
		return err
	}
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	return nil
}

func (c *Compiler) compileNode(n store.Node, b *binder) (string, error) {
	switch v := n.(type) {
	case store.Condition:
		return c.compileCondition(v, b)
	case store.And:
		return c.compileGroup(v.Children, " AND ", b)
	case store.Or:
		return c.compileGroup(v.Children, " OR ", b)
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported filter node %T: %w", n, store.ErrInvalidQuery)
	}
}

func (c *Compiler) compileGroup(children []store.Node, sep string, b *binder) (string, error) {
	parts := make([]string, 0, len(children))
	for _, ch := range children {
		s, err := c.compileNode(ch, b)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (c *Compiler) compileCondition(cond store.Condition, b *binder) (string, error) {
	f := c.quote(cond.Field)
	switch cond.Op {
	case store.OpEq:
		return fmt.Sprintf("%s = %s", f, b.Bind(cond.Value)), nil
	case store.OpNe:
		return fmt.Sprintf("%s <> %s", f, b.Bind(cond.Value)), nil
	case store.OpGt:
		return fmt.Sprintf("%s > %s", f, b.Bind(cond.Value)), nil
	case store.OpGe:
		return fmt.Sprintf("%s >= %s", f, b.Bind(cond.Value)), nil
	case store.OpLt:
		return fmt.Sprintf("%s < %s", f, b.Bind(cond.Value)), nil
	case store.OpLe:
		return fmt.Sprintf("%s <= %s", f, b.Bind(cond.Value)), nil
	case store.OpIn:
		vals, _ := cond.Value.([]any)
		if len(vals) == 0 {
			return "1=0", nil
		}
		ph := make([]string, len(vals))
		for i, v := range vals {
			ph[i] = b.Bind(v)
		}
		return fmt.Sprintf("%s IN (%s)", f, strings.Join(ph, ", ")), nil
	case store.OpILike:
		return c.dialect.ILike(f, b.Bind(fmt.Sprint(cond.Value))), nil
	case store.OpContains:
		return c.dialect.JSONContains(f, cond.Value, b)
	case store.OpIsNull:
		return fmt.Sprintf("%s IS NULL", f), nil
	default:
		return "", fmt.Errorf("unsupported operator %q: %w", cond.Op, store.ErrInvalidQuery)
	}
}

func (c *Compiler) quote(identifier string) string {
	return c.dialect.QuoteIdentifier(identifier)
}
