package cli

import (
	"github.com/spf13/cobra"

	"github.com/innovationhub/store"
)

type queryFlags struct {
	where string
	sort  string
	limit int
}

func (f *queryFlags) bind(cmd *cobra.Command, withWhere bool) {
	if withWhere {
		cmd.Flags().StringVarP(&f.where, "where", "w", "", `filter object as JSON, or "-" for stdin`)
	}
	cmd.Flags().StringVarP(&f.sort, "sort", "s", "", `sort column, "-" prefix for descending (default -created_at)`)
	cmd.Flags().IntVarP(&f.limit, "limit", "l", 0, "maximum number of records (0 for no limit)")
}

// withHandler opens a session, resolves the entity's handler and runs fn.
func withHandler(cmd *cobra.Command, entity string, persist bool, fn func(h *store.Handler) error) (err error) {
	s, cleanup, err := newSession(cmd, persist)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cleanup(); err == nil {
			err = cerr
		}
	}()

	h, err := s.handler(entity)
	if err != nil {
		return err
	}
	return fn(h)
}

func newListCommand() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "list <Entity>",
		Short: "List visible records of an entity",
		Example: `  entityctl list Challenge
  entityctl list Pilot --sort title --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandler(cmd, args[0], false, func(h *store.Handler) error {
				records, err := h.List(cmd.Context(), f.sort, f.limit)
				if err != nil {
					return err
				}
				return render(cmd, records)
			})
		},
	}
	f.bind(cmd, false)
	return cmd
}

func newFilterCommand() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "filter <Entity>",
		Short: "List records matching a filter object",
		Example: `  entityctl filter Challenge --where '{"status":"open"}'
  entityctl filter Challenge --where '{"title":{"$regex":"water"}}' --sort -score
  entityctl filter Challenge --where '{"is_deleted":true}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readFilter(cmd, f.where)
			if err != nil {
				return err
			}
			return withHandler(cmd, args[0], false, func(h *store.Handler) error {
				records, err := h.Filter(cmd.Context(), spec, f.sort, f.limit)
				if err != nil {
					return err
				}
				return render(cmd, records)
			})
		},
	}
	f.bind(cmd, true)
	return cmd
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <Entity> <id>",
		Short: "Fetch one record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandler(cmd, args[0], false, func(h *store.Handler) error {
				rec, err := h.Get(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				return render(cmd, rec)
			})
		},
	}
}

func newCreateCommand() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:     "create <Entity>",
		Short:   "Insert a record",
		Example: `  entityctl create Challenge --data '{"title":"Flood sensors","status":"open"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(cmd, data)
			if err != nil {
				return err
			}
			return withHandler(cmd, args[0], true, func(h *store.Handler) error {
				created, err := h.Create(cmd.Context(), rec)
				if err != nil {
					return err
				}
				return render(cmd, created)
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", `record as JSON, or "-" for stdin`)
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newUpdateCommand() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:     "update <Entity> <id>",
		Short:   "Apply a partial update to one record",
		Example: `  entityctl update Challenge 6f1c... --data '{"status":"closed"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(cmd, data)
			if err != nil {
				return err
			}
			return withHandler(cmd, args[0], true, func(h *store.Handler) error {
				updated, err := h.Update(cmd.Context(), args[1], rec)
				if err != nil {
					return err
				}
				return render(cmd, updated)
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", `fields to change as JSON, or "-" for stdin`)
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <Entity> <id>",
		Short: "Delete a record, softly when the table supports it",
		Long: `Delete marks the record as deleted when its table has the soft-delete
column. Otherwise the row is removed and an acknowledgment {id, deleted: true}
is printed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandler(cmd, args[0], true, func(h *store.Handler) error {
				rec, err := h.Delete(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				return render(cmd, rec)
			})
		},
	}
}

type countResult struct {
	Entity string `json:"entity" yaml:"entity"`
	Count  int64  `json:"count" yaml:"count"`
}

func newCountCommand() *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "count <Entity>",
		Short: "Count visible records, optionally filtered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readFilter(cmd, where)
			if err != nil {
				return err
			}
			return withHandler(cmd, args[0], false, func(h *store.Handler) error {
				n, err := h.Count(cmd.Context(), spec)
				if err != nil {
					return err
				}
				return render(cmd, countResult{Entity: h.Entity(), Count: n})
			})
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", `filter object as JSON, or "-" for stdin`)
	return cmd
}
