package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/innovationhub/store"
	sqlstore "github.com/innovationhub/store/sql"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the bundled schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			s, cleanup, err := newSession(cmd, false)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := cleanup(); err == nil {
					err = cerr
				}
			}()

			svc, ok := s.service.(*sqlstore.Service)
			if !ok {
				return fmt.Errorf("migrate on %s store: %w", s.cfg.Store.Type, store.ErrNotSupported)
			}
			if err := svc.Migrate(cmd.Context()); err != nil {
				return err
			}
			version, err := sqlstore.MigrationVersion(cmd.Context(), svc.DB(), svc.Adapter().GooseDialect())
			if err != nil {
				return err
			}
			s.logger.Info("schema migrated", slog.Int64("version", version))
			return render(cmd, map[string]any{"version": version})
		},
	}
}

type resolution struct {
	Entity string `json:"entity" yaml:"entity"`
	Table  string `json:"table" yaml:"table"`
	Known  bool   `json:"known" yaml:"known"`
}

func newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <Entity>...",
		Short: "Show the physical table each entity name maps to",
		Example: `  entityctl resolve UserFollow RDProject Widget
  entityctl resolve --type memory Challenge -o yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd.Context())
			resolver := store.NewResolver(GetLogger(cmd.Context()), cfg.Store.Entities.Tables)
			out := make([]resolution, len(args))
			for i, entity := range args {
				out[i] = resolution{
					Entity: entity,
					Table:  resolver.Resolve(entity),
					Known:  resolver.Known(entity),
				}
			}
			return render(cmd, out)
		},
	}
}
