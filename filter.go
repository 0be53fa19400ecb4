package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// FilterSpec is a MongoDB-style query-by-example object. Each key is a field;
// each value is a literal (equality), a sequence (membership), nil (IS NULL)
// or an operator object keyed by "$"-prefixed operators.
type FilterSpec map[string]any

// Has reports whether the filter constrains field.
func (f FilterSpec) Has(field string) bool {
	_, ok := f[field]
	return ok
}

// Recognized filter operators.
const (
	OpKeyRegex    = "$regex"
	OpKeyOptions  = "$options"
	OpKeyEq       = "$eq"
	OpKeyNeq      = "$neq"
	OpKeyNe       = "$ne"
	OpKeyGt       = "$gt"
	OpKeyGte      = "$gte"
	OpKeyLt       = "$lt"
	OpKeyLte      = "$lte"
	OpKeyIn       = "$in"
	OpKeyContains = "$contains"
)

// Compile ANDs every predicate parsed from spec onto q. It never fails:
// shapes it does not understand degrade to equality.
func Compile(q Query, spec FilterSpec) Query {
	for _, n := range ParseFilter(spec) {
		q = q.Where(n)
	}
	return q
}

// ParseFilter turns a filter object into predicate nodes, one or more per
// field. Fields and operator keys are visited in lexical order.
func ParseFilter(spec FilterSpec) []Node {
	if len(spec) == 0 {
		return nil
	}
	fields := make([]string, 0, len(spec))
	for k := range spec {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	nodes := make([]Node, 0, len(fields))
	for _, field := range fields {
		nodes = append(nodes, parseField(field, spec[field])...)
	}
	return nodes
}

func parseField(field string, value any) []Node {
	if value == nil {
		return []Node{IsNull(field)}
	}
	if ops, ok := operatorObject(value); ok {
		return parseOperators(field, ops)
	}
	if items, ok := toSlice(value); ok {
		return []Node{In(field, items...)}
	}
	return []Node{Eq(field, value)}
}

func parseOperators(field string, ops map[string]any) []Node {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var nodes []Node
	fallback := false
	for _, op := range keys {
		operand := ops[op]
		switch op {
		case OpKeyRegex:
			nodes = append(nodes, ILike(field, "%"+fmt.Sprint(operand)+"%"))
		case OpKeyOptions:
			// modifies $regex only
		case OpKeyEq:
			nodes = append(nodes, Eq(field, operand))
		case OpKeyNeq, OpKeyNe:
			nodes = append(nodes, Ne(field, operand))
		case OpKeyGt:
			nodes = append(nodes, Gt(field, operand))
		case OpKeyGte:
			nodes = append(nodes, Ge(field, operand))
		case OpKeyLt:
			nodes = append(nodes, Lt(field, operand))
		case OpKeyLte:
			nodes = append(nodes, Le(field, operand))
		case OpKeyIn:
			items, ok := toSlice(operand)
			if !ok {
				items = []any{operand}
			}
			nodes = append(nodes, In(field, items...))
		case OpKeyContains:
			nodes = append(nodes, Contains(field, operand))
		default:
			fallback = true
		}
	}
	if fallback {
		// Unknown operator: compare the field against the whole object.
		nodes = append(nodes, Eq(field, ops))
	}
	return nodes
}

// operatorObject reports whether v is a map whose keys look like operators.
// A map with any key not starting with "$" is treated as a literal value.
func operatorObject(v any) (map[string]any, bool) {
	var m map[string]any
	switch t := v.(type) {
	case map[string]any:
		m = t
	case FilterSpec:
		m = map[string]any(t)
	case Record:
		m = map[string]any(t)
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

// toSlice converts any slice or array value (other than []byte) to []any.
func toSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
