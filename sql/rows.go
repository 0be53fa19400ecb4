package sqlstore

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/innovationhub/store"
)

// scanRows reads every row into a record keyed by column name and closes
// rows. Text arrives as string; JSON columns are decoded.
func scanRows(rows *sql.Rows) ([]store.Record, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	typeNames := make([]string, len(cols))
	for i := range cols {
		if i < len(types) && types[i] != nil {
			typeNames[i] = strings.ToUpper(types[i].DatabaseTypeName())
		}
	}

	out := []store.Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(store.Record, len(cols))
		for i, col := range cols {
			rec[col] = convertValue(values[i], typeNames[i])
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func convertValue(v any, dbType string) any {
	switch t := v.(type) {
	case []byte:
		if isJSONType(dbType) {
			if decoded, ok := decodeJSON(t); ok {
				return decoded
			}
		}
		return string(t)
	case string:
		if isJSONType(dbType) {
			if decoded, ok := decodeJSON([]byte(t)); ok {
				return decoded
			}
		}
	case int64:
		if isBoolType(dbType) {
			return t != 0
		}
	}
	return v
}

func decodeJSON(b []byte) (any, bool) {
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

func isJSONType(t string) bool {
	return t == "JSON" || t == "JSONB"
}

func isBoolType(t string) bool {
	return t == "BOOLEAN" || t == "BOOL"
}
