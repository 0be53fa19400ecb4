package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/innovationhub/store"
)

// readObject decodes a JSON object given inline, or read from stdin when
// raw is "-". An empty string yields nil.
func readObject(cmd *cobra.Command, flag, raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var r io.Reader = strings.NewReader(raw)
	if raw == "-" {
		r = cmd.InOrStdin()
	}
	var out map[string]any
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("--%s must be a JSON object: %w", flag, err)
	}
	return out, nil
}

func readFilter(cmd *cobra.Command, raw string) (store.FilterSpec, error) {
	obj, err := readObject(cmd, "where", raw)
	if err != nil || obj == nil {
		return nil, err
	}
	return store.FilterSpec(obj), nil
}

func readRecord(cmd *cobra.Command, raw string) (store.Record, error) {
	obj, err := readObject(cmd, "data", raw)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, store.NewValidationErrorForField("data", raw, "a JSON object is required")
	}
	return store.Record(obj), nil
}
