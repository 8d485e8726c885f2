package db

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/issue-auditor/internal/config"
)

type flakyPinger struct {
	failures int32
	calls    atomic.Int32
}

func (p *flakyPinger) Ping(_ context.Context) error {
	if p.calls.Add(1) <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForDatabase(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		p := &flakyPinger{failures: 2}
		require.NoError(t, waitForDatabase(context.Background(), p, 10*time.Second))
		assert.Equal(t, int32(3), p.calls.Load())
	})

	t.Run("gives up after timeout", func(t *testing.T) {
		t.Parallel()

		p := &flakyPinger{failures: 1 << 30}
		err := waitForDatabase(context.Background(), p, 300*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ping database")
	})
}

func TestNewPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPool(context.Background(), nil)
	require.EqualError(t, err, "database configuration is required")

	cfg := &config.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "auditor",
		Database:        "auditor",
		PasswordFile:    "/nonexistent/password",
		ConnMaxLifetime: "1h",
	}
	_, err = NewPool(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build connection string")
}
