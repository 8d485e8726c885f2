package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/issue-auditor/database"
)

func newMigrateDownCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  issue-auditor migrate down --config config.yaml --num-steps 1 --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateDown(cmd, v)
		},
	}
	cmd.Flags().IntP("num-steps", "n", 1, "Number of steps to revert")
	return cmd
}

func runMigrateDown(cmd *cobra.Command, v *viper.Viper) error {
	steps := v.GetInt("num-steps")
	if steps <= 0 {
		return fmt.Errorf("num-steps must be positive, got %d", steps)
	}

	_, connString, err := migrationConnString(v)
	if err != nil {
		return err
	}

	if !v.GetBool("yes") {
		prompt := fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", steps)
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
			slog.Info("Migration cancelled by user")
			return fmt.Errorf("migration cancelled by user")
		}
	}

	slog.Info("Reverting database migrations", "steps", steps)
	if err := database.MigrateDown(connString, steps); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	displayMigrationVersion(connString)
	return nil
}
