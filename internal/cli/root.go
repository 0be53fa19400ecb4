// Package cli provides the entityctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/innovationhub/store/internal/config"
	"github.com/innovationhub/store/internal/logging"
)

// Version is set at build time.
var Version = "0.1.0"

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "entityctl",
		Short: "Generic CRUD access to innovation hub entities",
		Long: `entityctl lists, filters, reads and writes innovation hub entities by their
logical name (Challenge, Pilot, UserFollow, ...). Filters use the same
MongoDB-style objects as the dashboard, for example:

  entityctl filter Challenge --where '{"status":"open","score":{"$gte":5}}'`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.File != "" {
				logger.Debug("using config file", slog.String("path", cfg.File))
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./entitystore.yaml)")
	flags.String("type", "", "store type (memory|postgres|pgx|mysql|sqlite|sqlite-pure)")
	flags.String("host", "", "database host")
	flags.Int("port", 0, "database port")
	flags.String("username", "", "database user")
	flags.String("password", "", "database password")
	flags.String("database", "", "database name")
	flags.String("file", "", "sqlite database file, or snapshot file for the memory store")
	flags.String("ssl-mode", "", "postgres sslmode")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")
	flags.StringP("output", "o", "", "output format (json|yaml)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputJSON, config.OutputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"memory", "postgres", "pgx", "mysql", "sqlite", "sqlite-pure"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newFilterCommand())
	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newCountCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the loaded configuration from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return nil
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
