// Package cli wires the cobra command surface over the engine.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bulkpilot",
		Short:   "Bulkpilot batch-merges and reverts pull requests with an automatic local fallback",
		Version: version,
		Long: `Bulkpilot batch-processes pull requests against a GitHub repository:
merge a chosen set, or revert previously merged ones. When the hosted merge
endpoint reports a conflict, bulkpilot falls back to a scratch clone and
resolves conflicting paths by preferring the pull request's source branch.`,
	}

	rootCmd.PersistentFlags().StringP("repo", "r", "", "repository as owner/name")

	rootCmd.AddCommand(newReposCmd())
	rootCmd.AddCommand(newPRsCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newRevertCmd())
	rootCmd.AddCommand(newCloseCmd())
	rootCmd.AddCommand(newBranchesCmd())

	return rootCmd
}
