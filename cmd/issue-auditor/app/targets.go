package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	v1 "github.com/stacklok/issue-auditor/internal/api/v1"
	"github.com/stacklok/issue-auditor/internal/config"
	"github.com/stacklok/issue-auditor/internal/targets"
)

const defaultTokenEnv = "AUDITOR_ACCESS_TOKEN"

func newTargetsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Manage audited repositories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	register := &cobra.Command{
		Use:   "register <namespace/name>",
		Short: "Register a repository and the owner whose token syncs it",
		Long: `Register a repository with a running auditor. The access token is read from
--token-file, or from the environment variable named by --token-env.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(v.GetString("server"))
			if err != nil {
				return err
			}

			source := config.TargetConfig{
				Repository: args[0],
				Owner:      v.GetString("login"),
				TokenFile:  v.GetString("token-file"),
			}
			if source.TokenFile == "" {
				source.TokenEnv = v.GetString("token-env")
			}
			token, err := source.GetToken()
			if err != nil {
				return err
			}

			target, err := client.registerTarget(cmd.Context(), v1.RegisterTargetRequest{
				Login:       source.Owner,
				AccessToken: token,
				FullName:    source.Repository,
			})
			if err != nil {
				return err
			}
			return renderTargets(cmd.OutOrStdout(), []*targets.Target{target})
		},
	}
	register.Flags().String("login", "", "Login of the token owner (required)")
	register.Flags().String("token-file", "", "File containing the access token")
	register.Flags().String("token-env", defaultTokenEnv, "Environment variable holding the access token")
	if err := register.MarkFlagRequired("login"); err != nil {
		panic(err)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered repositories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient(v.GetString("server"))
			if err != nil {
				return err
			}

			resp, err := client.listTargets(cmd.Context())
			if err != nil {
				return err
			}
			if resp.Count == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No targets registered")
				return err
			}
			return renderTargets(cmd.OutOrStdout(), resp.Targets)
		},
	}

	cmd.AddCommand(register, list)
	return cmd
}
