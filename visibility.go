package store

// ApplyVisibility hides soft-deleted rows: unless callerFilter constrains
// column itself, q is narrowed to rows where column is null or false.
func ApplyVisibility(q Query, callerFilter FilterSpec, column string) Query {
	if column == "" || callerFilter.Has(column) {
		return q
	}
	return q.Where(Visible(column))
}

// Visible is the predicate matching rows that are not soft-deleted.
func Visible(column string) Node {
	return AnyOf(IsNull(column), Eq(column, false))
}
