// Package app provides the command line interface of the issue auditor.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/issue-auditor/internal/config"
	"github.com/stacklok/issue-auditor/internal/versions"
)

const defaultServerURL = "http://localhost:8080"

// NewRootCmd creates the root command with every subcommand attached.
// Flags are bound to a fresh viper instance so AUDITOR_* variables can supply them.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "issue-auditor",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Issue auditor sync server and client",
		Long: `The issue auditor synchronises issues, pull requests and comments from
GitHub into PostgreSQL with background jobs, and tracks per-repository sync status.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Explicit flags win over AUDITOR_* variables, which win over flag defaults
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			envFile := v.GetString("env-file")
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
			slog.Debug("Loaded environment file", "path", envFile)
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().String("env-file", "", "Load environment variables from this file before running")
	rootCmd.PersistentFlags().String("server", defaultServerURL, "Base URL of the auditor API used by client commands")

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newMigrateCmd(v))
	rootCmd.AddCommand(newEnqueueCmd(v))
	rootCmd.AddCommand(newJobsCmd(v))
	rootCmd.AddCommand(newStatusCmd(v))
	rootCmd.AddCommand(newTargetsCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// requireConfig returns the configuration path from --config or AUDITOR_CONFIG
func requireConfig(v *viper.Viper) (string, error) {
	path := v.GetString("config")
	if path == "" {
		return "", fmt.Errorf("--config (or %s_CONFIG) is required", config.EnvPrefix)
	}
	return path, nil
}
