package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/issue-auditor/internal/app/storage"
	"github.com/stacklok/issue-auditor/internal/app/storage/mocks"
	"github.com/stacklok/issue-auditor/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{Storage: config.StorageConfig{Type: config.StorageTypeMemory}}
}

func TestBaseConfigDefaults(t *testing.T) {
	t.Parallel()

	built, err := baseConfig(WithConfig(memoryConfig()))
	require.NoError(t, err)
	assert.Equal(t, defaultHTTPAddress, built.address)
	assert.Equal(t, defaultShutdownTimeout, built.shutdownTimeout)
	assert.Nil(t, built.middlewares)
}

func TestBaseConfigRequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := baseConfig(WithAddress(":9090"))
	require.EqualError(t, err, "config cannot be nil")
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr string
	}{
		{name: "port only", addr: ":9090"},
		{name: "localhost", addr: "localhost:8080"},
		{name: "ipv4", addr: "10.0.0.1:443"},
		{name: "empty", addr: "", wantErr: "address cannot be empty"},
		{name: "no port", addr: "10.0.0.1", wantErr: "address is not a valid port"},
		{name: "empty port", addr: "10.0.0.1:", wantErr: "address is not a valid port"},
		{name: "port out of range", addr: ":70000", wantErr: "address is not a valid port"},
		{name: "hostname", addr: "example.com:80", wantErr: "address is not a valid port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			built, err := baseConfig(WithConfig(memoryConfig()), WithAddress(tt.addr))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, built.address)
		})
	}
}

func TestWithShutdownTimeoutRejectsNonPositive(t *testing.T) {
	t.Parallel()

	_, err := baseConfig(WithConfig(memoryConfig()), WithShutdownTimeout(0))
	require.EqualError(t, err, "shutdown timeout must be positive")

	built, err := baseConfig(WithConfig(memoryConfig()), WithShutdownTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Second, built.shutdownTimeout)
}

func TestNewAuditorAppWithMemoryStorage(t *testing.T) {
	t.Parallel()

	app, err := NewAuditorApp(context.Background(), WithConfig(memoryConfig()), WithAddress(":0"))
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.Equal(t, ":0", app.httpServer.Addr)
	assert.Same(t, app.GetConfig(), app.config)
	require.NotNil(t, app.Components().Coordinator)
	require.NotNil(t, app.Components().Service)
	require.NoError(t, app.Components().Service.CheckReadiness(context.Background()))
}

func TestNewAuditorAppCleansUpOnError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	factory := mocks.NewMockFactory(ctrl)

	factory.EXPECT().CreateJobStore(gomock.Any()).Return(nil, errors.New("database unavailable"))
	factory.EXPECT().Cleanup()

	_, err := NewAuditorApp(context.Background(),
		WithConfig(memoryConfig()),
		WithStorageFactory(factory),
	)
	require.ErrorContains(t, err, "failed to create job store: database unavailable")
}

func TestNewAuditorAppFailsOnBadSeed(t *testing.T) {
	t.Setenv("AUDITOR_TEST_MISSING_TOKEN", "")

	cfg := memoryConfig()
	cfg.Targets = []config.TargetConfig{
		{Repository: "octo-org/hello-world", Owner: "octocat", TokenEnv: "AUDITOR_TEST_MISSING_TOKEN"},
	}

	ctrl := gomock.NewController(t)
	factory := mocks.NewMockFactory(ctrl)
	memory := storage.NewMemoryFactory()

	factory.EXPECT().CreateJobStore(gomock.Any()).DoAndReturn(memory.CreateJobStore)
	factory.EXPECT().CreateTracker(gomock.Any()).DoAndReturn(memory.CreateTracker)
	factory.EXPECT().CreateDirectory(gomock.Any()).DoAndReturn(memory.CreateDirectory)
	factory.EXPECT().CreateIssueStore(gomock.Any()).DoAndReturn(memory.CreateIssueStore)
	factory.EXPECT().Cleanup()

	_, err := NewAuditorApp(context.Background(), WithConfig(cfg), WithStorageFactory(factory))
	require.ErrorContains(t, err, "failed to seed targets")
}

func TestCustomMiddlewaresReplaceDefaults(t *testing.T) {
	t.Parallel()

	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	app, err := NewAuditorApp(context.Background(), WithConfig(memoryConfig()), WithMiddlewares(mw))
	require.NoError(t, err)

	rr := newRecorder(t, app.httpServer.Handler, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}
