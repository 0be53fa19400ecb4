package memstore

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/innovationhub/store"
)

// match evaluates n against row. A nil node matches everything. Comparisons
// involving NULL are false, as in SQL.
func match(n store.Node, row store.Record) bool {
	switch v := n.(type) {
	case nil:
		return true
	case store.And:
		for _, ch := range v.Children {
			if !match(ch, row) {
				return false
			}
		}
		return true
	case store.Or:
		for _, ch := range v.Children {
			if match(ch, row) {
				return true
			}
		}
		return false
	case store.Condition:
		return matchCondition(v, row[v.Field])
	}
	return false
}

func matchCondition(c store.Condition, value any) bool {
	if c.Op == store.OpIsNull {
		return value == nil
	}
	if value == nil {
		return false
	}
	switch c.Op {
	case store.OpEq:
		return equal(value, c.Value)
	case store.OpNe:
		return c.Value != nil && !equal(value, c.Value)
	case store.OpGt, store.OpGe, store.OpLt, store.OpLe:
		cmp, ok := compare(value, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case store.OpGt:
			return cmp > 0
		case store.OpGe:
			return cmp >= 0
		case store.OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case store.OpIn:
		items, _ := c.Value.([]any)
		for _, item := range items {
			if equal(value, item) {
				return true
			}
		}
		return false
	case store.OpContains:
		return contains(value, c.Value)
	case store.OpILike:
		pattern, ok := c.Value.(string)
		return ok && like(fmt.Sprint(value), pattern)
	}
	return false
}

// equal compares with numeric normalization, so 3, int64(3) and 3.0 are
// equal.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := toTime(b); ok {
			return ta.Equal(tb)
		}
		return false
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		return ok && sa == sb
	}
	switch na := normalize(a).(type) {
	case []any:
		nb, ok := normalize(b).([]any)
		if !ok || len(na) != len(nb) {
			return false
		}
		for i := range na {
			if !equal(na[i], nb[i]) && !(na[i] == nil && nb[i] == nil) {
				return false
			}
		}
		return true
	case map[string]any:
		nb, ok := normalize(b).(map[string]any)
		if !ok || len(na) != len(nb) {
			return false
		}
		for k, va := range na {
			vb, ok := nb[k]
			if !ok || (!equal(va, vb) && !(va == nil && vb == nil)) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// compare orders numbers, strings, times and booleans. ok is false for
// values of different kinds.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := toTime(b)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case ba == bb:
			return 0, true
		case !ba:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// contains follows jsonb @> semantics for arrays and objects: every element
// (or key) of want must be present in have. A scalar want is one element.
func contains(have, want any) bool {
	switch h := normalize(have).(type) {
	case []any:
		wants, ok := normalize(want).([]any)
		if !ok {
			wants = []any{want}
		}
		for _, w := range wants {
			found := false
			for _, item := range h {
				if equal(item, w) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case map[string]any:
		w, ok := normalize(want).(map[string]any)
		if !ok {
			return false
		}
		for k, wv := range w {
			if hv, ok := h[k]; !ok || !equal(hv, wv) {
				return false
			}
		}
		return true
	}
	return false
}

// like matches a SQL LIKE pattern case-insensitively.
func like(s, pattern string) bool {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// less orders rows by the given terms. NULLs sort first ascending.
func less(a, b store.Record, orders []store.Order) bool {
	for _, o := range orders {
		va, vb := a[o.Field], b[o.Field]
		var cmp int
		switch {
		case va == nil && vb == nil:
			cmp = 0
		case va == nil:
			cmp = -1
		case vb == nil:
			cmp = 1
		default:
			c, ok := compare(va, vb)
			if !ok {
				c = strings.Compare(fmt.Sprint(va), fmt.Sprint(vb))
			}
			cmp = c
		}
		if cmp == 0 {
			continue
		}
		if o.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

// normalize converts typed slices and maps to []any and map[string]any so
// values decoded from JSON compare equal to values built in Go.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, []any:
		return v
	case map[string]any:
		return t
	case store.Record:
		return map[string]any(t)
	case store.FilterSpec:
		return map[string]any(t)
	case []byte:
		return string(t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out
	}
	return v
}
