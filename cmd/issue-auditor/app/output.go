package app

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/status"
	"github.com/stacklok/issue-auditor/internal/targets"
)

func renderJobs(w io.Writer, list []*jobs.Job) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Type", "Target", "Status", "Priority", "Created", "Finished", "Error")
	for _, job := range list {
		if err := table.Append(
			job.ID.String(),
			string(job.Kind),
			job.TargetID.String(),
			string(job.Status),
			strconv.Itoa(job.Priority),
			formatTime(&job.CreatedAt),
			formatTime(job.CompletedAt),
			job.Error,
		); err != nil {
			return fmt.Errorf("failed to render job %s: %w", job.ID, err)
		}
	}
	return table.Render()
}

func renderTargets(w io.Writer, list []*targets.Target) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Repository", "Owner", "Created")
	for _, target := range list {
		if err := table.Append(
			target.ID.String(),
			target.FullName(),
			target.OwnerID.String(),
			formatTime(&target.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to render target %s: %w", target.ID, err)
		}
	}
	return table.Render()
}

func renderStatus(w io.Writer, targetID string, st *status.TargetStatus) error {
	current := "-"
	if st.CurrentJobType != nil {
		current = *st.CurrentJobType
	}

	table := tablewriter.NewWriter(w)
	table.Header("Target", "Status", "Current job", "Updated")
	if err := table.Append(targetID, string(st.Phase), current, formatTime(st.UpdatedAt)); err != nil {
		return fmt.Errorf("failed to render status: %w", err)
	}
	return table.Render()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
