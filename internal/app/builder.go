package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/issue-auditor/internal/api"
	"github.com/stacklok/issue-auditor/internal/app/storage"
	"github.com/stacklok/issue-auditor/internal/config"
	"github.com/stacklok/issue-auditor/internal/github"
	"github.com/stacklok/issue-auditor/internal/handlers"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/service"
	"github.com/stacklok/issue-auditor/internal/telemetry"
)

const (
	defaultHTTPAddress     = ":8080"
	defaultRequestTimeout  = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	tracerName = "github.com/stacklok/issue-auditor"
)

// AuditorAppOptions is a function that configures the auditor app builder
type AuditorAppOptions func(*auditorAppConfig) error

// auditorAppConfig collects the builder inputs.
// It supports dependency injection for testing while providing sensible defaults for production
type auditorAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory storage.Factory
	sourceFactory  handlers.SourceFactory

	// HTTP server options
	address         string
	middlewares     []func(http.Handler) http.Handler
	requestTimeout  time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...AuditorAppOptions) (*auditorAppConfig, error) {
	cfg := &auditorAppConfig{
		address:         defaultHTTPAddress,
		requestTimeout:  defaultRequestTimeout,
		readTimeout:     defaultReadTimeout,
		writeTimeout:    defaultWriteTimeout,
		idleTimeout:     defaultIdleTimeout,
		shutdownTimeout: defaultShutdownTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return cfg, nil
}

// NewAuditorApp wires storage, the sync client, the handler registry, the job
// coordinator and the HTTP API into a runnable application
func NewAuditorApp(
	ctx context.Context,
	opts ...AuditorAppOptions,
) (*AuditorApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	// Single decision point for database vs memory
	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded {
			cfg.storageFactory.Cleanup()
		}
	}()

	components, err := buildJobComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build job components: %w", err)
	}

	if err := SeedTargets(ctx, cfg.config.Targets, components.Directory); err != nil {
		return nil, fmt.Errorf("failed to seed targets: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, components.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	// Cleanup is now handled by the app, not in defer
	cleanupNeeded = false

	return &AuditorApp{
		config:          cfg.config,
		components:      components,
		httpServer:      httpServer,
		storageFactory:  cfg.storageFactory,
		shutdownTimeout: cfg.shutdownTimeout,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) AuditorAppOptions {
	return func(cfg *auditorAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) AuditorAppOptions {
	return func(cfg *auditorAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) AuditorAppOptions {
	return func(cfg *auditorAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithShutdownTimeout bounds how long in-flight requests may take to drain
func WithShutdownTimeout(d time.Duration) AuditorAppOptions {
	return func(cfg *auditorAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("shutdown timeout must be positive")
		}
		cfg.shutdownTimeout = d
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) AuditorAppOptions {
	return func(cfg *auditorAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithSourceFactory replaces the GitHub-backed sources (for testing)
func WithSourceFactory(f handlers.SourceFactory) AuditorAppOptions {
	return func(cfg *auditorAppConfig) error {
		cfg.sourceFactory = f
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for job, sync and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) AuditorAppOptions {
	return func(cfg *auditorAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) AuditorAppOptions {
	return func(cfg *auditorAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) AuditorAppOptions {
	return func(cfg *auditorAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildJobComponents builds the stores, the sync client, the handler registry,
// the coordinator and the service on top of them
func buildJobComponents(
	ctx context.Context,
	b *auditorAppConfig,
) (*AppComponents, error) {
	slog.Info("Initializing job components")

	jobStore, err := b.storageFactory.CreateJobStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create job store: %w", err)
	}
	tracker, err := b.storageFactory.CreateTracker(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create status tracker: %w", err)
	}
	directory, err := b.storageFactory.CreateDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create targets directory: %w", err)
	}
	issueStore, err := b.storageFactory.CreateIssueStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue store: %w", err)
	}

	// Both constructors return nil metrics for a nil provider
	jobMetrics, err := telemetry.NewJobMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create job metrics: %w", err)
	}
	syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}

	var tracer trace.Tracer
	if b.tracerProvider != nil {
		tracer = b.tracerProvider.Tracer(tracerName)
	}

	ghCfg := b.config.GitHub
	if b.sourceFactory == nil {
		limiter := github.NewLimiter(ghCfg.GetMinRequestInterval(), github.WithLimiterMetrics(syncMetrics))
		clients := github.NewFactory(limiter,
			github.WithEndpoint(ghCfg.GetEndpoint()),
			github.WithTimeout(ghCfg.GetTimeout()),
			github.WithPageSize(ghCfg.GetPageSize()),
			github.WithSyncMetrics(syncMetrics),
			github.WithTracer(tracer),
		)
		b.sourceFactory = handlers.GitHubSources(clients)
		slog.Info("GitHub sync client configured",
			"endpoint", ghCfg.GetEndpoint(),
			"min_request_interval", limiter.Interval())
	}

	registry, err := handlers.NewDefaultRegistry(directory, b.sourceFactory, issueStore, handlers.SyncOptions{
		PageSize:    ghCfg.GetPageSize(),
		MaxComments: ghCfg.GetMaxSubResourceItems(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build handler registry: %w", err)
	}

	coordinator := jobs.NewCoordinator(jobStore, tracker, registry,
		jobs.WithConcurrency(b.config.Jobs.GetConcurrency()),
		jobs.WithRetention(b.config.Jobs.GetRetention()),
		jobs.WithJobMetrics(jobMetrics),
		jobs.WithTracer(tracer),
	)

	svc := service.New(coordinator, jobStore, tracker, directory, b.storageFactory.CheckReadiness)

	slog.Info("Job components initialized successfully",
		"storage", b.config.GetStorageType(),
		"concurrency", b.config.Jobs.GetConcurrency())

	return &AppComponents{
		Coordinator: coordinator,
		Service:     svc,
		Directory:   directory,
	}, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	b *auditorAppConfig,
	svc service.Service,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing go first so they see every request
	if b.meterProvider != nil {
		httpMetrics, err := telemetry.NewHTTPMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{httpMetrics.Middleware}, b.middlewares...)
		slog.Info("HTTP metrics middleware enabled")
	}
	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, b.middlewares...)
	}

	router := api.NewServer(svc,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(b.metricsHandler),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
