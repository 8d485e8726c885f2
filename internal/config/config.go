// Package config provides configuration loading and management for the auditor.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/issue-auditor/internal/telemetry"
)

const (
	// StorageTypeDatabase keeps jobs, status and sync results in PostgreSQL
	StorageTypeDatabase = "database"

	// StorageTypeMemory keeps everything in process memory. Nothing survives a restart.
	StorageTypeMemory = "memory"
)

const (
	// DefaultConcurrency is the maximum number of jobs processing at once
	DefaultConcurrency = 5

	// DefaultRetention is how long completed and failed jobs are kept
	DefaultRetention = 7 * 24 * time.Hour

	// DefaultGitHubEndpoint is the GraphQL endpoint used by the sync client
	DefaultGitHubEndpoint = "https://api.github.com/graphql"

	// DefaultMinRequestInterval is the minimum spacing between two sync requests
	DefaultMinRequestInterval = 500 * time.Millisecond

	// DefaultPageSize is the page size requested from the provider
	DefaultPageSize = 50

	// DefaultMaxSubResourceItems caps comment listings per issue or pull request
	DefaultMaxSubResourceItems = 100

	// DefaultRequestTimeout bounds a single provider request
	DefaultRequestTimeout = 30 * time.Second

	// EnvPrefix is the prefix of every environment variable read by the CLI
	EnvPrefix = "AUDITOR"

	// DatabasePasswordEnvVar is consulted when no password file is configured
	DatabasePasswordEnvVar = "AUDITOR_DATABASE_PASSWORD"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Storage   StorageConfig     `yaml:"storage"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Jobs      JobsConfig        `yaml:"jobs,omitempty"`
	GitHub    GitHubConfig      `yaml:"github,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`

	// Targets are registered on every startup
	Targets []TargetConfig `yaml:"targets,omitempty"`
}

// TargetConfig declares a repository to audit and the owner whose token syncs it
type TargetConfig struct {
	// Repository is "namespace/name"
	Repository string `yaml:"repository"`

	// Owner is the login the token belongs to
	Owner string `yaml:"owner"`

	// TokenFile is the path to a file containing the access token
	TokenFile string `yaml:"tokenFile,omitempty"`

	// TokenEnv names an environment variable holding the access token
	TokenEnv string `yaml:"tokenEnv,omitempty"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	// Type is either "database" or "memory". Defaults to "database".
	Type string `yaml:"type,omitempty"`
}

// JobsConfig defines the job coordinator settings
type JobsConfig struct {
	// Concurrency is the ceiling on jobs in the processing state
	Concurrency int `yaml:"concurrency,omitempty"`

	// Retention is how long finished jobs are kept before the startup sweep removes them
	Retention string `yaml:"retention,omitempty"`
}

// GitHubConfig defines the sync client settings
type GitHubConfig struct {
	// Endpoint is the GraphQL API URL
	Endpoint string `yaml:"endpoint,omitempty"`

	// MinRequestInterval is the minimum spacing between two requests, e.g. "500ms"
	MinRequestInterval string `yaml:"minRequestInterval,omitempty"`

	PageSize            int `yaml:"pageSize,omitempty"`
	MaxSubResourceItems int `yaml:"maxSubResourceItems,omitempty"`

	// Timeout bounds a single HTTP request, e.g. "30s"
	Timeout string `yaml:"timeout,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from AUDITOR_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(DatabasePasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", DatabasePasswordEnvVar,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML configuration document
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetStorageType returns the configured storage type, defaulting to database
func (c *Config) GetStorageType() string {
	if c.Storage.Type == "" {
		return StorageTypeDatabase
	}
	return c.Storage.Type
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch c.GetStorageType() {
	case StorageTypeDatabase:
		if c.Database == nil {
			return fmt.Errorf("database configuration is required when storage.type is %q", StorageTypeDatabase)
		}
		if err := c.Database.validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	case StorageTypeMemory:
	default:
		return fmt.Errorf("storage.type must be %q or %q, got %q", StorageTypeDatabase, StorageTypeMemory, c.Storage.Type)
	}

	if err := c.Jobs.validate(); err != nil {
		return fmt.Errorf("jobs: %w", err)
	}

	if err := c.GitHub.validate(); err != nil {
		return fmt.Errorf("github: %w", err)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	seen := make(map[string]bool, len(c.Targets))
	for i := range c.Targets {
		t := &c.Targets[i]
		if err := t.validate(); err != nil {
			return fmt.Errorf("targets[%d]: %w", i, err)
		}
		if seen[t.Repository] {
			return fmt.Errorf("targets[%d]: duplicate repository %q", i, t.Repository)
		}
		seen[t.Repository] = true
	}

	return nil
}

func (t *TargetConfig) validate() error {
	parts := strings.Split(t.Repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("repository must be of the form namespace/name, got %q", t.Repository)
	}
	if t.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if (t.TokenFile == "") == (t.TokenEnv == "") {
		return fmt.Errorf("exactly one of tokenFile or tokenEnv is required")
	}
	return nil
}

// GetToken reads the access token from the configured file or environment variable
func (t *TargetConfig) GetToken() (string, error) {
	if t.TokenFile != "" {
		data, err := os.ReadFile(filepath.Clean(t.TokenFile))
		if err != nil {
			return "", fmt.Errorf("failed to read token for %s: %w", t.Repository, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	token := os.Getenv(t.TokenEnv)
	if token == "" {
		return "", fmt.Errorf("environment variable %s for %s is empty", t.TokenEnv, t.Repository)
	}
	return token, nil
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("host is required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", d.Port)
	}
	if d.User == "" {
		return fmt.Errorf("user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database is required")
	}
	if d.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(d.ConnMaxLifetime); err != nil {
			return fmt.Errorf("connMaxLifetime must be a valid duration: %w", err)
		}
	}
	return nil
}

func (j *JobsConfig) validate() error {
	if j.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", j.Concurrency)
	}
	if j.Retention != "" {
		if _, err := parsePositiveDuration(j.Retention); err != nil {
			return fmt.Errorf("retention %w", err)
		}
	}
	return nil
}

func (g *GitHubConfig) validate() error {
	if g.Endpoint != "" {
		u, err := url.Parse(g.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("endpoint must be an absolute URL, got %q", g.Endpoint)
		}
	}
	if g.MinRequestInterval != "" {
		if _, err := time.ParseDuration(g.MinRequestInterval); err != nil {
			return fmt.Errorf("minRequestInterval must be a valid duration: %w", err)
		}
	}
	if g.Timeout != "" {
		if _, err := parsePositiveDuration(g.Timeout); err != nil {
			return fmt.Errorf("timeout %w", err)
		}
	}
	if g.PageSize < 0 || g.PageSize > 100 {
		return fmt.Errorf("pageSize must be between 1 and 100, got %d", g.PageSize)
	}
	if g.MaxSubResourceItems < 0 {
		return fmt.Errorf("maxSubResourceItems must not be negative, got %d", g.MaxSubResourceItems)
	}
	return nil
}

func parsePositiveDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("must be a valid duration (e.g., '30s', '168h'): %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", value)
	}
	return d, nil
}

// GetConcurrency returns the processing ceiling
func (j *JobsConfig) GetConcurrency() int {
	if j.Concurrency == 0 {
		return DefaultConcurrency
	}
	return j.Concurrency
}

// GetRetention returns the finished-job retention window
func (j *JobsConfig) GetRetention() time.Duration {
	d, err := time.ParseDuration(j.Retention)
	if err != nil || d <= 0 {
		return DefaultRetention
	}
	return d
}

// GetEndpoint returns the GraphQL endpoint
func (g *GitHubConfig) GetEndpoint() string {
	if g.Endpoint == "" {
		return DefaultGitHubEndpoint
	}
	return g.Endpoint
}

// GetMinRequestInterval returns the minimum request spacing.
// An explicit "0s" disables spacing.
func (g *GitHubConfig) GetMinRequestInterval() time.Duration {
	if g.MinRequestInterval == "" {
		return DefaultMinRequestInterval
	}
	d, err := time.ParseDuration(g.MinRequestInterval)
	if err != nil || d < 0 {
		return DefaultMinRequestInterval
	}
	return d
}

// GetPageSize returns the provider page size
func (g *GitHubConfig) GetPageSize() int {
	if g.PageSize == 0 {
		return DefaultPageSize
	}
	return g.PageSize
}

// GetMaxSubResourceItems returns the cap applied to comment listings
func (g *GitHubConfig) GetMaxSubResourceItems() int {
	if g.MaxSubResourceItems == 0 {
		return DefaultMaxSubResourceItems
	}
	return g.MaxSubResourceItems
}

// GetTimeout returns the per-request timeout
func (g *GitHubConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(g.Timeout)
	if err != nil || d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}
