package adapter

import (
	"encoding/json"
	"reflect"
)

// containmentJSON encodes the right-hand side of a JSON containment test.
// Arrays and objects are encoded as-is; a scalar becomes a one-element
// array.
func containmentJSON(value any) (string, error) {
	if value != nil {
		switch reflect.ValueOf(value).Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			if _, isBytes := value.([]byte); !isBytes {
				return jsonText(value)
			}
		}
	}
	return jsonText([]any{value})
}

func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
