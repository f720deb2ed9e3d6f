package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bulkpilot.dev/bulkpilot/internal/engine"
	"bulkpilot.dev/bulkpilot/internal/github"
	"bulkpilot.dev/bulkpilot/internal/output"
	"bulkpilot.dev/bulkpilot/internal/runtime"
)

// requireRepo resolves the --repo flag into a Repo
func requireRepo(cmd *cobra.Command) (github.Repo, error) {
	value, _ := cmd.Flags().GetString("repo")
	if value == "" {
		return github.Repo{}, fmt.Errorf("--repo owner/name is required")
	}
	return github.ParseRepo(value)
}

// parsePRNumbers converts positional args into PR numbers
func parsePRNumbers(args []string) ([]int, error) {
	numbers := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid PR number %q", arg)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

// printMergeBatch reports one line per item, in submission order
func printMergeBatch(ctx *runtime.Context, batch *engine.BatchOperation) {
	for _, r := range batch.MergeResults {
		switch r.Outcome {
		case engine.OutcomeMergedRemote:
			ctx.Splog.Info("%s PR #%d merged (%s)", output.Success("✓"), r.PRNumber, shortSHA(r.CommitSHA))
		case engine.OutcomeMergedLocal:
			ctx.Splog.Info("%s PR #%d merged via local fallback (%s)", output.Fallback("✓"), r.PRNumber, shortSHA(r.CommitSHA))
		case engine.OutcomeConflict:
			ctx.Splog.Info("%s PR #%d conflict unresolved: %v", output.Failure("✗"), r.PRNumber, r.Err)
		default:
			ctx.Splog.Info("%s PR #%d failed: %v", output.Failure("✗"), r.PRNumber, r.Err)
		}
	}
	if batch.Aborted {
		ctx.Splog.Warn("batch stopped before attempting all items")
	}
}

// printRevertBatch reports one line per item, in submission order
func printRevertBatch(ctx *runtime.Context, batch *engine.BatchOperation) {
	for _, r := range batch.RevertResults {
		switch r.Outcome {
		case engine.OutcomeReverted:
			ctx.Splog.Info("%s PR #%d reverted (%s)", output.Success("✓"), r.PRNumber, shortSHA(r.CommitSHA))
		case engine.OutcomeRevertConflict:
			ctx.Splog.Info("%s PR #%d revert conflict: %v", output.Failure("✗"), r.PRNumber, r.Err)
		default:
			ctx.Splog.Info("%s PR #%d failed: %v", output.Failure("✗"), r.PRNumber, r.Err)
		}
	}
	if batch.Aborted {
		ctx.Splog.Warn("batch stopped before attempting all items")
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	if sha == "" {
		return "no sha"
	}
	return sha
}
