package git

import (
	"context"
	"errors"
	"fmt"

	bperrors "bulkpilot.dev/bulkpilot/internal/errors"
)

// Fallback performs merges and reverts in a scratch clone when the hosted
// merge endpoint cannot complete them. Each call creates and discards its
// own workspace.
type Fallback struct {
	baseDir string
}

// NewFallback creates a Fallback that roots its scratch clones under baseDir
func NewFallback(baseDir string) *Fallback {
	return &Fallback{baseDir: baseDir}
}

// LocalMerge merges head into base in a scratch clone and pushes the result.
// Conflicting paths are resolved by taking the head branch's version verbatim.
// Returns the SHA of the merge commit.
func (f *Fallback) LocalMerge(ctx context.Context, remoteURL string, prNumber int, base, head string) (string, error) {
	ws, err := NewWorkspace(ctx, f.baseDir, remoteURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = ws.Close() }()

	if err := ws.Fetch(ctx, base, head); err != nil {
		return "", err
	}
	if err := ws.CheckoutTracking(ctx, base); err != nil {
		return "", err
	}

	message := fmt.Sprintf("Merge pull request #%d from %s", prNumber, head)
	_, mergeErr := ws.runner.Run(ctx, "merge", "--no-ff", "--no-edit", "-m", message, "origin/"+head)
	if mergeErr != nil {
		if err := f.resolvePreferringHead(ctx, ws, prNumber, head, message); err != nil {
			return "", err
		}
	}

	if err := ws.Push(ctx, base); err != nil {
		return "", err
	}
	return ws.Head()
}

// resolvePreferringHead applies the naive conflict policy after a failed
// merge: every conflicting path gets the head branch's content wholesale,
// no hunk-level merging. This predictability is the contract; do not make
// it smarter.
func (f *Fallback) resolvePreferringHead(ctx context.Context, ws *Workspace, prNumber int, head, message string) error {
	paths, err := ws.UnmergedPaths(ctx)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		// Merge failed for a reason other than content conflicts
		return bperrors.NewLocalConflictError(prNumber, nil, "merge failed without conflicting paths")
	}

	for _, path := range paths {
		if _, err := ws.runner.Run(ctx, "checkout", "--theirs", "--", path); err != nil {
			// Path does not exist on the head branch (delete/modify conflict):
			// the head side deleted it, so deletion wins
			if _, rmErr := ws.runner.Run(ctx, "rm", "-f", "--", path); rmErr != nil {
				_, _ = ws.runner.Run(ctx, "merge", "--abort")
				return bperrors.NewLocalConflictError(prNumber, paths, "")
			}
			continue
		}
		if _, err := ws.runner.Run(ctx, "add", "--", path); err != nil {
			_, _ = ws.runner.Run(ctx, "merge", "--abort")
			return bperrors.NewLocalConflictError(prNumber, paths, "")
		}
	}

	if _, err := ws.runner.Run(ctx, "commit", "--no-edit", "-m", message); err != nil {
		_, _ = ws.runner.Run(ctx, "merge", "--abort")
		return bperrors.NewLocalConflictError(prNumber, paths, "")
	}
	return nil
}

// LocalRevert creates an inverse commit for a previously merged PR and
// pushes it to the base branch. Returns the SHA of the revert commit.
func (f *Fallback) LocalRevert(ctx context.Context, remoteURL string, prNumber int, base, mergeCommitSHA string) (string, error) {
	if mergeCommitSHA == "" {
		return "", bperrors.NewNotFoundError("merge commit for pull request", fmt.Sprintf("#%d", prNumber))
	}

	ws, err := NewWorkspace(ctx, f.baseDir, remoteURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = ws.Close() }()

	if err := ws.Fetch(ctx, base); err != nil {
		return "", err
	}
	if err := ws.CheckoutTracking(ctx, base); err != nil {
		return "", err
	}

	if _, err := ws.runner.Run(ctx, "revert", "-m", "1", "--no-edit", mergeCommitSHA); err != nil {
		_, _ = ws.runner.Run(ctx, "revert", "--abort")
		var cmdErr *bperrors.GitCommandError
		if errors.As(err, &cmdErr) {
			return "", bperrors.NewLocalConflictError(prNumber, nil, cmdErr.Stderr)
		}
		return "", bperrors.NewLocalConflictError(prNumber, nil, err.Error())
	}

	if err := ws.Push(ctx, base); err != nil {
		return "", err
	}
	return ws.Head()
}
