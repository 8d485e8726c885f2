package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/issue-auditor/internal/config"
	"github.com/stacklok/issue-auditor/internal/targets"
)

// SeedTargets ensures every target declared in the configuration is registered.
// It is idempotent and safe to call on every startup: owners get their
// credential replaced and existing targets are reassigned to their owner.
func SeedTargets(ctx context.Context, declared []config.TargetConfig, directory targets.Directory) error {
	if directory == nil {
		return fmt.Errorf("directory is required")
	}

	if len(declared) == 0 {
		slog.Debug("No targets declared in config")
		return nil
	}

	for i := range declared {
		tc := &declared[i]

		namespace, name, err := targets.ParseFullName(tc.Repository)
		if err != nil {
			return fmt.Errorf("target %q: %w", tc.Repository, err)
		}

		token, err := tc.GetToken()
		if err != nil {
			return err
		}

		owner, err := directory.RegisterOwner(ctx, tc.Owner, token)
		if err != nil {
			return fmt.Errorf("failed to register owner %q: %w", tc.Owner, err)
		}

		target, err := directory.RegisterTarget(ctx, owner.ID, namespace, name)
		if err != nil {
			return fmt.Errorf("failed to register target %q: %w", tc.Repository, err)
		}

		slog.Info("Seeded target",
			"target_id", target.ID,
			"repository", target.FullName(),
			"owner", owner.Login)
	}

	slog.Info("Targets seeded from config", "count", len(declared))
	return nil
}
