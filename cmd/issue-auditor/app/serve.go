package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	auditor "github.com/stacklok/issue-auditor/internal/app"
	"github.com/stacklok/issue-auditor/internal/config"
	"github.com/stacklok/issue-auditor/internal/telemetry"
)

const telemetryShutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auditor API server and job coordinator",
		Long: `Start the auditor API server and the background job coordinator.

The server requires a configuration file (--config) that specifies:
- The storage backend (database or memory) and database connection
- Job concurrency and retention
- GitHub endpoint, request spacing and page sizes
- Targets to register on startup and telemetry settings`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath, err := requireConfig(v)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"storage", cfg.GetStorageType(),
		"targets", len(cfg.Targets))

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	app, err := auditor.NewAuditorApp(ctx,
		auditor.WithConfig(cfg),
		auditor.WithAddress(v.GetString("address")),
		auditor.WithMeterProvider(tel.MeterProvider()),
		auditor.WithTracerProvider(tel.TracerProvider()),
		auditor.WithMetricsHandler(tel.MetricsHandler()),
	)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	if err := app.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
