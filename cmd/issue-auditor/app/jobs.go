package app

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	v1 "github.com/stacklok/issue-auditor/internal/api/v1"
	"github.com/stacklok/issue-auditor/internal/jobs"
)

func newEnqueueCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue <type>",
		Short: "Submit a sync job for a target",
		Long: `Submit a job to a running auditor. Job types are issue-fetch, pr-fetch,
sentiment, single-issue-refresh and single-pr-refresh.

An equivalent job that is already pending or processing absorbs the submission.

Examples:
  issue-auditor enqueue issue-fetch --target 5b3c... --args '{"full":true}'
  issue-auditor enqueue single-pr-refresh --target 5b3c... --args '{"number":42}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(v.GetString("server"))
			if err != nil {
				return err
			}

			targetID, err := uuid.Parse(v.GetString("target"))
			if err != nil {
				return fmt.Errorf("--target must be a target id: %w", err)
			}

			req := v1.SubmitJobRequest{
				Type:     jobs.Kind(args[0]),
				TargetID: targetID,
				Priority: v.GetInt("priority"),
			}
			if raw := v.GetString("args"); raw != "" {
				if !json.Valid([]byte(raw)) {
					return fmt.Errorf("--args must be a JSON object")
				}
				req.Args = json.RawMessage(raw)
			}

			resp, err := client.submitJob(cmd.Context(), req)
			if err != nil {
				return err
			}

			if resp.Queued {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Queued %s job for target %s\n", req.Type, targetID)
			} else {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "An equivalent %s job is already active for target %s\n", req.Type, targetID)
			}
			return err
		},
	}

	cmd.Flags().String("target", "", "Target id (required)")
	cmd.Flags().String("args", "", "Job arguments as a JSON object")
	cmd.Flags().Int("priority", 0, "Priority, lower runs first")
	if err := cmd.MarkFlagRequired("target"); err != nil {
		panic(err)
	}
	return cmd
}

func newJobsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient(v.GetString("server"))
			if err != nil {
				return err
			}

			var targetID uuid.UUID
			if raw := v.GetString("target"); raw != "" {
				if targetID, err = uuid.Parse(raw); err != nil {
					return fmt.Errorf("--target must be a target id: %w", err)
				}
			}

			resp, err := client.listJobs(cmd.Context(), v.GetString("status"), targetID, v.GetInt("limit"))
			if err != nil {
				return err
			}
			return renderJobs(cmd.OutOrStdout(), resp.Jobs)
		},
	}
	list.Flags().String("status", "", "Only jobs in this status (pending, processing, completed, failed)")
	list.Flags().String("target", "", "Only jobs for this target id")
	list.Flags().Int("limit", 0, "Maximum number of jobs to show")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(v.GetString("server"))
			if err != nil {
				return err
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid job id: %w", err)
			}

			job, err := client.getJob(cmd.Context(), id)
			if err != nil {
				return err
			}
			return renderJobs(cmd.OutOrStdout(), []*jobs.Job{job})
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func newStatusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status <target-id>",
		Short: "Show the sync status of a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(v.GetString("server"))
			if err != nil {
				return err
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid target id: %w", err)
			}

			st, err := client.targetStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			return renderStatus(cmd.OutOrStdout(), id.String(), st)
		},
	}
}
