package engine

import (
	"context"
	"strings"
	"time"

	"bulkpilot.dev/bulkpilot/internal/github"
)

// GetBranches returns the repository's branch listing. A cache hit is
// returned as-is unless forceRefresh is set; a miss always fetches.
func (e *Engine) GetBranches(ctx context.Context, repo github.Repo, forceRefresh bool) ([]github.BranchInfo, error) {
	if !forceRefresh {
		if branches, ok := e.branches.Get(repo); ok {
			return branches, nil
		}
	}
	return e.branches.Refresh(ctx, repo)
}

// InvalidateBranches drops the cached branch listing for repo
func (e *Engine) InvalidateBranches(repo github.Repo) {
	e.branches.Invalidate(repo)
}

// DeleteBranches deletes the named remote branches. Attempts are
// independent: one failure never aborts the rest, and each name gets its
// own outcome. Any successful deletion invalidates the repository's cached
// branch listing so the next read refetches.
func (e *Engine) DeleteBranches(ctx context.Context, repo github.Repo, names []string) []DeleteResult {
	results := make([]DeleteResult, 0, len(names))
	anyDeleted := false

	for _, name := range names {
		err := e.remote.DeleteBranch(ctx, repo, name)
		if err != nil {
			results = append(results, DeleteResult{Name: name, Outcome: OutcomeDeleteFailed, Err: err})
			continue
		}
		anyDeleted = true
		results = append(results, DeleteResult{Name: name, Outcome: OutcomeDeleted})
	}

	if anyDeleted {
		e.branches.Invalidate(repo)
	}
	return results
}

// ClosePRs closes the selected open pull requests without merging them.
// Partial failure is reported per item.
func (e *Engine) ClosePRs(ctx context.Context, repo github.Repo, numbers []int) []CloseResult {
	results := make([]CloseResult, 0, len(numbers))
	for _, number := range numbers {
		if err := e.remote.ClosePR(ctx, repo, number); err != nil {
			results = append(results, CloseResult{PRNumber: number, Err: err})
			continue
		}
		results = append(results, CloseResult{PRNumber: number, Closed: true})
	}
	return results
}

// BranchFilter narrows a branch listing. Zero values match everything.
type BranchFilter struct {
	// NameContains keeps branches whose name contains the substring,
	// case-insensitively
	NameContains string
	// CommittedAfter keeps branches whose last commit is at or after the
	// given time. Branches with no known commit time are kept.
	CommittedAfter time.Time
}

// FilterBranches applies a filter to a branch snapshot. The input is not
// modified.
func FilterBranches(branches []github.BranchInfo, filter BranchFilter) []github.BranchInfo {
	needle := strings.ToLower(filter.NameContains)

	var out []github.BranchInfo
	for _, br := range branches {
		if needle != "" && !strings.Contains(strings.ToLower(br.Name), needle) {
			continue
		}
		if !filter.CommittedAfter.IsZero() && !br.CommittedAt.IsZero() && br.CommittedAt.Before(filter.CommittedAfter) {
			continue
		}
		out = append(out, br)
	}
	return out
}
