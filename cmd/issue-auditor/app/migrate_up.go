package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/issue-auditor/database"
)

func newMigrateUpCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending database migrations to bring the schema up to date.
This command will read the database connection parameters from the config file
and apply all migrations that haven't been run yet.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateUp(cmd, v)
		},
	}
}

func runMigrateUp(cmd *cobra.Command, v *viper.Viper) error {
	cfg, connString, err := migrationConnString(v)
	if err != nil {
		return err
	}

	if !v.GetBool("yes") {
		prompt := fmt.Sprintf("About to apply migrations to %s@%s:%d/%s. Continue?",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	slog.Info("Applying database migrations")
	if err := database.MigrateUp(connString); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	displayMigrationVersion(connString)
	return nil
}
