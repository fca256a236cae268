package cmd

import (
	"fmt"
	"os"

	"github.com/beemailley/final-project-backend-bm/internal/config"
	"github.com/beemailley/final-project-backend-bm/internal/storage/postgres"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back PostgreSQL schema migrations",
		Long: `Manage the PostgreSQL schema with golang-migrate. Only meaningful when
STORE_DRIVER=postgres; the MongoDB store creates its indexes on startup.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := postgresConfig(opts)
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(cfg.Database.URL, cfg.Database.MigrationsPath, cliLogger(cfg)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := postgresConfig(opts)
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(cfg.Database.URL, cfg.Database.MigrationsPath, steps, cliLogger(cfg)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := postgresConfig(opts)
			if err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationVersion(cfg.Database.URL, cfg.Database.MigrationsPath, cliLogger(cfg))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d\ndirty:   %t\n", version, dirty)
			return nil
		},
	})
	return cmd
}

// cliLogger writes migration progress to stderr so stdout stays clean for
// the command's own output.
func cliLogger(cfg config.Config) zerolog.Logger {
	return config.NewLoggerTo(os.Stderr, cfg.Logging)
}

func postgresConfig(opts *globalOptions) (config.Config, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if cfg.Store.Driver != config.StoreDriverPostgres {
		return config.Config{}, fmt.Errorf("migrations only apply to STORE_DRIVER=%s, got %q", config.StoreDriverPostgres, cfg.Store.Driver)
	}
	return cfg, nil
}
