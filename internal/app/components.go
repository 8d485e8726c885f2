package app

import (
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/service"
	"github.com/stacklok/issue-auditor/internal/targets"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Coordinator admits and executes background jobs
	Coordinator *jobs.Coordinator

	// Service provides the auditor business logic
	Service service.Service

	// Directory stores owners and targets
	Directory targets.Directory
}
