package store

// Operator represents a comparison operation in filters.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGe       Operator = "ge"
	OpLt       Operator = "lt"
	OpLe       Operator = "le"
	OpIn       Operator = "in"
	OpContains Operator = "contains" // array/JSON containment
	OpILike    Operator = "ilike"    // case-insensitive LIKE
	OpIsNull   Operator = "isnull"
)

// Node is a predicate in a query filter: a Condition, an And or an Or.
type Node interface{ isNode() }

// Condition is a simple filter condition (field op value).
type Condition struct {
	Field string
	Op    Operator
	// Value is a single value, []any for OpIn, a LIKE pattern for OpILike
	// and nil for OpIsNull.
	Value any
}

// And holds when every child holds.
type And struct {
	Children []Node
}

// Or holds when at least one child holds.
type Or struct {
	Children []Node
}

func (Condition) isNode() {}
func (And) isNode()       {}
func (Or) isNode()        {}

// Order defines ordering on a field.
type Order struct {
	Field string
	Desc  bool
}

// Query is a backend-agnostic select. Its methods return modified copies, so
// a Query can be shared and extended without affecting other holders.
type Query struct {
	SelectFields []string
	Filter       Node
	OrderBy      []Order
	Limit        *int
}

// NewQuery returns an empty query selecting all columns.
func NewQuery() Query { return Query{} }

// Where ANDs n onto the query's filter.
func (q Query) Where(n Node) Query {
	if n == nil {
		return q
	}
	switch cur := q.Filter.(type) {
	case nil:
		q.Filter = n
	case And:
		children := make([]Node, 0, len(cur.Children)+1)
		children = append(children, cur.Children...)
		q.Filter = And{Children: append(children, n)}
	default:
		q.Filter = And{Children: []Node{cur, n}}
	}
	return q
}

// Order appends an ordering term.
func (q Query) Order(o Order) Query {
	orders := make([]Order, 0, len(q.OrderBy)+1)
	orders = append(orders, q.OrderBy...)
	q.OrderBy = append(orders, o)
	return q
}

// WithLimit caps the result count. Non-positive values leave it uncapped.
func (q Query) WithLimit(n int) Query {
	if n <= 0 {
		q.Limit = nil
		return q
	}
	q.Limit = &n
	return q
}

// Select restricts the returned columns.
func (q Query) Select(fields ...string) Query {
	q.SelectFields = append([]string(nil), fields...)
	return q
}

// Conditions flattens the filter into its leaf conditions, descending into
// And and Or nodes.
func (q Query) Conditions() []Condition {
	var out []Condition
	var walk func(n Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case Condition:
			out = append(out, v)
		case And:
			for _, ch := range v.Children {
				walk(ch)
			}
		case Or:
			for _, ch := range v.Children {
				walk(ch)
			}
		}
	}
	if q.Filter != nil {
		walk(q.Filter)
	}
	return out
}

// Helper functions for creating conditions
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

func Ne(field string, value any) Condition {
	return Condition{Field: field, Op: OpNe, Value: value}
}

func Gt(field string, value any) Condition {
	return Condition{Field: field, Op: OpGt, Value: value}
}

func Ge(field string, value any) Condition {
	return Condition{Field: field, Op: OpGe, Value: value}
}

func Lt(field string, value any) Condition {
	return Condition{Field: field, Op: OpLt, Value: value}
}

func Le(field string, value any) Condition {
	return Condition{Field: field, Op: OpLe, Value: value}
}

func In(field string, values ...any) Condition {
	return Condition{Field: field, Op: OpIn, Value: values}
}

func Contains(field string, value any) Condition {
	return Condition{Field: field, Op: OpContains, Value: value}
}

func ILike(field string, pattern string) Condition {
	return Condition{Field: field, Op: OpILike, Value: pattern}
}

func IsNull(field string) Condition {
	return Condition{Field: field, Op: OpIsNull, Value: nil}
}

// AnyOf builds an Or node.
func AnyOf(children ...Node) Or {
	return Or{Children: children}
}

// AllOf builds an And node.
func AllOf(children ...Node) And {
	return And{Children: children}
}

// Helper functions for creating orders
func Asc(field string) Order {
	return Order{Field: field, Desc: false}
}

func Desc(field string) Order {
	return Order{Field: field, Desc: true}
}
