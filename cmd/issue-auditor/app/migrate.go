package app

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/issue-auditor/database"
	"github.com/stacklok/issue-auditor/internal/config"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")

	cmd.AddCommand(newMigrateUpCmd(v))
	cmd.AddCommand(newMigrateDownCmd(v))
	return cmd
}

// migrationConnString loads the config and returns the database connection string
func migrationConnString(v *viper.Viper) (*config.Config, string, error) {
	configPath, err := requireConfig(v)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database == nil {
		return nil, "", fmt.Errorf("database configuration is required")
	}

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build connection string: %w", err)
	}
	return cfg, connString, nil
}

// confirm asks a yes/no question on out and reads the answer from in
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s (yes/no): ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

func displayMigrationVersion(connString string) {
	version, dirty, err := database.Version(connString)
	switch {
	case err != nil:
		slog.Warn("Unable to get migration version", "error", err)
	case dirty:
		slog.Warn("Database is in a dirty state, manual intervention may be required", "version", version)
	default:
		slog.Info("Current migration version", "version", version)
	}
}
