package sqlstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/innovationhub/store"
)

// Mutation compiles a mutation for table. With returning set, inserts and
// updates end in RETURNING * so the stored rows come back.
func (c *Compiler) Mutation(table string, m store.Mutation, returning bool) (*CompiledSQL, error) {
	switch mt := m.(type) {
	case store.Insert:
		return c.Insert(table, mt, returning)
	case store.Update:
		return c.Update(table, mt, returning)
	case store.Delete:
		return c.Delete(table, mt)
	default:
		return nil, fmt.Errorf("unsupported mutation type %T: %w", m, store.ErrInvalidQuery)
	}
}

// Insert compiles an INSERT with columns in lexical order.
func (c *Compiler) Insert(table string, m store.Insert, returning bool) (*CompiledSQL, error) {
	if len(m.Values) == 0 {
		return nil, fmt.Errorf("insert has no values: %w", store.ErrInvalidQuery)
	}
	b := &binder{dialect: c.dialect}
	cols := sortedColumns(m.Values)
	quoted := make([]string, len(cols))
	ph := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = c.quote(col)
		ph[i] = b.Bind(m.Values[col])
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.quote(table), strings.Join(quoted, ", "), strings.Join(ph, ", "))
	if returning {
		sql += " RETURNING *"
	}
	return &CompiledSQL{SQL: sql, Args: b.args}, nil
}

// Update compiles an UPDATE with SET columns in lexical order.
func (c *Compiler) Update(table string, m store.Update, returning bool) (*CompiledSQL, error) {
	if len(m.Set) == 0 {
		return nil, fmt.Errorf("update has no set values: %w", store.ErrInvalidQuery)
	}
	b := &binder{dialect: c.dialect}
	cols := sortedColumns(m.Set)
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s = %s", c.quote(col), b.Bind(m.Set[col]))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET %s", c.quote(table), strings.Join(parts, ", "))
	if err := c.writeWhere(&sb, m.Where, b); err != nil {
		return nil, err
	}
	if returning {
		sb.WriteString(" RETURNING *")
	}
	return &CompiledSQL{SQL: sb.String(), Args: b.args}, nil
}

// Delete compiles a DELETE.
func (c *Compiler) Delete(table string, m store.Delete) (*CompiledSQL, error) {
	b := &binder{dialect: c.dialect}
	var sb strings.Builder
	fmt.Fprintf(&sb, "DELETE FROM %s", c.quote(table))
	if err := c.writeWhere(&sb, m.Where, b); err != nil {
		return nil, err
	}
	return &CompiledSQL{SQL: sb.String(), Args: b.args}, nil
}

func sortedColumns(r store.Record) []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
