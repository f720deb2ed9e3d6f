package cli

import (
	"github.com/spf13/cobra"

	"bulkpilot.dev/bulkpilot/internal/github"
	"bulkpilot.dev/bulkpilot/internal/output"
	"bulkpilot.dev/bulkpilot/internal/runtime"
)

// newPRsCmd creates the prs command
func newPRsCmd() *cobra.Command {
	var merged bool

	cmd := &cobra.Command{
		Use:   "prs",
		Short: "List pull requests for a repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			repo, err := requireRepo(cmd)
			if err != nil {
				return err
			}

			var prs []github.PullRequest
			if merged {
				prs, err = ctx.Client.ListMergedPRs(ctx.Context, repo)
			} else {
				prs, err = ctx.Client.ListOpenPRs(ctx.Context, repo)
			}
			if err != nil {
				return err
			}

			for _, pr := range prs {
				mergeable := "mergeable: unknown"
				if pr.Mergeable != nil {
					if *pr.Mergeable {
						mergeable = "mergeable: yes"
					} else {
						mergeable = "mergeable: no"
					}
				}
				ctx.Splog.Info("#%d %s %s", pr.Number, pr.Title, output.Dim("("+mergeable+") "+pr.HTMLURL))
			}
			ctx.Splog.Info("%d pull requests", len(prs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&merged, "merged", false, "list merged pull requests instead of open ones")
	return cmd
}

// newReposCmd creates the repos command
func newReposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List repositories visible to the authenticated user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			names, err := ctx.Client.ListRepositories(ctx.Context)
			if err != nil {
				return err
			}
			for _, name := range names {
				ctx.Splog.Info("%s", name)
			}
			return nil
		},
	}
}
