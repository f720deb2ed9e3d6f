package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bulkpilot.dev/bulkpilot/internal/engine"
	bperrors "bulkpilot.dev/bulkpilot/internal/errors"
	"bulkpilot.dev/bulkpilot/internal/output"
	"bulkpilot.dev/bulkpilot/internal/runtime"
)

// newBranchesCmd creates the branches command group
func newBranchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List and delete remote branches",
	}
	cmd.AddCommand(newBranchesListCmd())
	cmd.AddCommand(newBranchesDeleteCmd())
	return cmd
}

func newBranchesListCmd() *cobra.Command {
	var (
		contains string
		after    string
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remote branches with last-commit metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			repo, err := requireRepo(cmd)
			if err != nil {
				return err
			}

			filter := engine.BranchFilter{NameContains: contains}
			if after != "" {
				t, err := time.Parse("2006-01-02", after)
				if err != nil {
					return fmt.Errorf("invalid date %q, use YYYY-MM-DD", after)
				}
				filter.CommittedAfter = t
			}

			branches, err := ctx.Engine.GetBranches(ctx.Context, repo, refresh)
			if err != nil {
				return err
			}

			for _, br := range engine.FilterBranches(branches, filter) {
				date := ""
				if !br.CommittedAt.IsZero() {
					date = br.CommittedAt.Format("2006-01-02")
				}
				ctx.Splog.Info("%s %s", br.Name, output.Dim(date+" "+br.Author))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contains, "contains", "", "only branches whose name contains this substring")
	cmd.Flags().StringVar(&after, "after", "", "only branches committed after this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and refetch")
	return cmd
}

func newBranchesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <names...>",
		Short: "Delete remote branches, tolerating partial failure",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			repo, err := requireRepo(cmd)
			if err != nil {
				return err
			}

			for _, r := range ctx.Engine.DeleteBranches(ctx.Context, repo, args) {
				switch {
				case r.Outcome == engine.OutcomeDeleted:
					ctx.Splog.Info("%s deleted %s", output.Success("✓"), r.Name)
				case errors.Is(r.Err, bperrors.ErrNotFound):
					ctx.Splog.Info("%s %s already gone", output.Dim("-"), r.Name)
				default:
					ctx.Splog.Warn("failed to delete %s: %v", r.Name, r.Err)
				}
			}
			return nil
		},
	}
}
