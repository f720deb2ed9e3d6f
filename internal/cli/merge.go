package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"bulkpilot.dev/bulkpilot/internal/github"
	"bulkpilot.dev/bulkpilot/internal/runtime"
)

// newMergeCmd creates the merge command
func newMergeCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "merge [pr numbers...]",
		Short: "Merge the selected pull requests, falling back to a local merge on conflict",
		Long: `Merge the selected pull requests. Each PR is first merged through the
hosted merge endpoint; on conflict, bulkpilot clones the repository into a
scratch directory, merges the source branch preferring its content for every
conflicting path, and pushes the result. Items fail independently; the batch
always reports one result per PR in the order given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			repo, err := requireRepo(cmd)
			if err != nil {
				return err
			}

			numbers, err := selectPRs(ctx, repo, args, interactive, false)
			if err != nil {
				return err
			}
			if len(numbers) == 0 {
				ctx.Splog.Info("nothing selected")
				return nil
			}

			batch := ctx.Engine.SubmitMergeBatch(ctx.Context, repo, numbers)
			printMergeBatch(ctx, batch)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick pull requests from a list")
	return cmd
}

// newRevertCmd creates the revert command
func newRevertCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "revert [pr numbers...]",
		Short: "Revert previously merged pull requests with inverse commits",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			repo, err := requireRepo(cmd)
			if err != nil {
				return err
			}

			numbers, err := selectPRs(ctx, repo, args, interactive, true)
			if err != nil {
				return err
			}
			if len(numbers) == 0 {
				ctx.Splog.Info("nothing selected")
				return nil
			}

			batch := ctx.Engine.SubmitRevertBatch(ctx.Context, repo, numbers)
			printRevertBatch(ctx, batch)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick pull requests from a list")
	return cmd
}

// newCloseCmd creates the close command
func newCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <pr numbers...>",
		Short: "Close pull requests without merging",
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
			numbers, err := parsePRNumbers(args)
			if err != nil {
				return err
			}

			for _, r := range ctx.Engine.ClosePRs(ctx.Context, repo, numbers) {
				if r.Closed {
					ctx.Splog.Info("closed PR #%d", r.PRNumber)
				} else {
					ctx.Splog.Warn("failed to close PR #%d: %v", r.PRNumber, r.Err)
				}
			}
			return nil
		},
	}
}

// selectPRs resolves the PR set either from args or interactively
func selectPRs(ctx *runtime.Context, repo github.Repo, args []string, interactive, mergedOnly bool) ([]int, error) {
	if !interactive {
		if len(args) == 0 {
			return nil, fmt.Errorf("pass PR numbers or use --interactive")
		}
		return parsePRNumbers(args)
	}

	var prs []github.PullRequest
	var err error
	if mergedOnly {
		prs, err = ctx.Client.ListMergedPRs(ctx.Context, repo)
	} else {
		prs, err = ctx.Client.ListOpenPRs(ctx.Context, repo)
	}
	if err != nil {
		return nil, err
	}
	if len(prs) == 0 {
		return nil, nil
	}

	options := make([]string, len(prs))
	for i, pr := range prs {
		options[i] = fmt.Sprintf("#%d: %s", pr.Number, pr.Title)
	}

	var picked []int
	prompt := &survey.MultiSelect{
		Message:  "Select pull requests",
		Options:  options,
		PageSize: 15,
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return nil, fmt.Errorf("canceled")
	}

	numbers := make([]int, 0, len(picked))
	for _, idx := range picked {
		numbers = append(numbers, prs[idx].Number)
	}
	return numbers, nil
}
