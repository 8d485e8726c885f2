// Package app provides application lifecycle management for the issue auditor.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/issue-auditor/internal/app/storage"
	"github.com/stacklok/issue-auditor/internal/config"
)

// AuditorApp encapsulates all components needed to run the auditor: the job
// coordinator, the HTTP API and the storage they share.
type AuditorApp struct {
	config          *config.Config
	components      *AppComponents
	httpServer      *http.Server
	storageFactory  storage.Factory
	shutdownTimeout time.Duration
}

// Start listens on the configured address and serves until ctx is cancelled
func (app *AuditorApp) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		app.storageFactory.Cleanup()
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	return app.Serve(ctx, lis)
}

// Serve runs the job coordinator and the HTTP server on lis. It blocks until
// ctx is cancelled or either component fails, then shuts both down and
// releases storage. Serve takes ownership of lis.
func (app *AuditorApp) Serve(ctx context.Context, lis net.Listener) error {
	defer app.storageFactory.Cleanup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := app.components.Coordinator.Start(gctx)
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("job coordinator failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("Server listening", "address", lis.Addr().String())
		if err := app.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown stops accepting requests, then stops the coordinator. Jobs cut off
// mid-run stay processing and are recovered on the next start.
func (app *AuditorApp) shutdown() error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if err := app.components.Coordinator.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop job coordinator: %w", err))
	}

	slog.Info("Server shutdown complete")
	return errors.Join(errs...)
}

// GetConfig returns the application configuration
func (app *AuditorApp) GetConfig() *config.Config {
	return app.config
}

// Components returns the wired application components
func (app *AuditorApp) Components() *AppComponents {
	return app.components
}
