package store

import "strings"

// DefaultSortColumn is used when no sort specifier is given.
const DefaultSortColumn = "created_at"

// sortAliases maps legacy field names to their physical columns.
var sortAliases = map[string]string{
	"created_date": "created_at",
	"createdDate":  "created_at",
	"updated_date": "updated_at",
	"updatedDate":  "updated_at",
}

// Sort is a parsed sort specifier.
type Sort struct {
	Column    string
	Ascending bool
}

// Order converts the sort into a query ordering term.
func (s Sort) Order() Order {
	return Order{Field: s.Column, Desc: !s.Ascending}
}

// ParseSort parses "field" (ascending) or "-field" (descending). An empty
// specifier yields created_at descending. The column is not validated.
func ParseSort(spec string) Sort {
	if spec == "" {
		return Sort{Column: DefaultSortColumn, Ascending: false}
	}
	asc := true
	field := spec
	if strings.HasPrefix(spec, "-") {
		asc = false
		field = spec[1:]
	}
	if alias, ok := sortAliases[field]; ok {
		field = alias
	}
	return Sort{Column: field, Ascending: asc}
}
