// Package engine implements the merge/revert orchestrator: per-item
// remote-first-then-fallback sequencing, batch result collection in
// submission order, and the branch management operations built on top of
// the branch cache.
package engine

import (
	"context"
	"errors"
	"fmt"

	"bulkpilot.dev/bulkpilot/internal/cache"
	bperrors "bulkpilot.dev/bulkpilot/internal/errors"
	"bulkpilot.dev/bulkpilot/internal/github"
	"bulkpilot.dev/bulkpilot/internal/output"
)

// Engine orchestrates batch merge, revert, and branch operations
type Engine struct {
	remote    RemoteClient
	fallback  LocalFallback
	branches  *cache.BranchCache
	splog     *output.Splog
	workers   int
	pushLocks *lockSet
}

// Options configures an Engine
type Options struct {
	// Workers bounds concurrent execution across batch items. 1 (the
	// default) processes items strictly sequentially.
	Workers int
}

// New creates an Engine
func New(remote RemoteClient, fallback LocalFallback, splog *output.Splog, opts Options) *Engine {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		remote:    remote,
		fallback:  fallback,
		branches:  cache.NewBranchCache(remote),
		splog:     splog,
		workers:   workers,
		pushLocks: newLockSet(),
	}
}

// SubmitMergeBatch merges the selected pull requests. The returned batch has
// one MergeResult per submitted PR in submission order, unless the batch was
// aborted by an authentication failure or cancellation.
func (e *Engine) SubmitMergeBatch(ctx context.Context, repo github.Repo, prNumbers []int) *BatchOperation {
	batch := &BatchOperation{
		Kind:      KindMerge,
		Repo:      repo,
		PRNumbers: prNumbers,
	}

	results := make([]*MergeResult, len(prNumbers))
	aborted := e.runItems(ctx, len(prNumbers), func(ctx context.Context, idx int) bool {
		result, authFailed := e.mergeOne(ctx, repo, prNumbers[idx])
		results[idx] = &result
		return authFailed
	})

	for _, r := range results {
		if r != nil {
			batch.MergeResults = append(batch.MergeResults, *r)
		}
	}
	batch.Aborted = aborted
	return batch
}

// SubmitRevertBatch reverts the selected previously merged pull requests
func (e *Engine) SubmitRevertBatch(ctx context.Context, repo github.Repo, prNumbers []int) *BatchOperation {
	batch := &BatchOperation{
		Kind:      KindRevert,
		Repo:      repo,
		PRNumbers: prNumbers,
	}

	results := make([]*RevertResult, len(prNumbers))
	aborted := e.runItems(ctx, len(prNumbers), func(ctx context.Context, idx int) bool {
		result, authFailed := e.revertOne(ctx, repo, prNumbers[idx])
		results[idx] = &result
		return authFailed
	})

	for _, r := range results {
		if r != nil {
			batch.RevertResults = append(batch.RevertResults, *r)
		}
	}
	batch.Aborted = aborted
	return batch
}

// mergeOne runs the per-item state machine for a merge. The second return
// is true when the failure was an authentication error, which aborts the
// whole batch: no item can succeed without valid credentials.
func (e *Engine) mergeOne(ctx context.Context, repo github.Repo, number int) (MergeResult, bool) {
	pr, err := e.remote.GetPR(ctx, repo, number)
	if err != nil {
		return MergeResult{PRNumber: number, Outcome: OutcomeFailed, Err: err}, errors.Is(err, bperrors.ErrAuth)
	}
	if pr.State != "open" {
		err := fmt.Errorf("pull request #%d is %s, not open", number, pr.State)
		return MergeResult{PRNumber: number, Outcome: OutcomeFailed, Err: err}, false
	}

	// Remote path first: cheaper and authoritative
	st := e.advance(number, StatePending, StateRemoteAttempted)
	sha, err := e.remote.AttemptMerge(ctx, repo, *pr)
	if err == nil {
		e.advance(number, st, StateDone)
		e.splog.Debug("merged PR #%d via remote endpoint (%s)", number, sha)
		return MergeResult{PRNumber: number, Outcome: OutcomeMergedRemote, CommitSHA: sha}, false
	}
	if errors.Is(err, bperrors.ErrAuth) {
		return MergeResult{PRNumber: number, Outcome: OutcomeFailed, Err: err}, true
	}
	if !errors.Is(err, bperrors.ErrRemoteConflict) && !errors.Is(err, bperrors.ErrRemoteUnavailable) {
		return MergeResult{PRNumber: number, Outcome: OutcomeFailed, Err: err}, false
	}

	// Conflict, or remote retries exhausted: one local-fallback attempt.
	// The fallback's own push fails fast if connectivity is truly gone.
	st = e.advance(number, st, StateLocalAttempted)
	e.splog.Debug("PR #%d: remote merge reported %v, attempting local fallback", number, err)

	unlock := e.pushLocks.acquire(pushKey(repo, pr.BaseBranch))
	sha, err = e.fallback.LocalMerge(ctx, e.remote.CloneURL(repo), number, pr.BaseBranch, pr.HeadBranch)
	unlock()

	e.advance(number, st, StateDone)
	if err == nil {
		return MergeResult{PRNumber: number, Outcome: OutcomeMergedLocal, CommitSHA: sha}, false
	}
	if errors.Is(err, bperrors.ErrLocalConflict) {
		return MergeResult{PRNumber: number, Outcome: OutcomeConflict, Err: err}, false
	}
	return MergeResult{PRNumber: number, Outcome: OutcomeFailed, Err: err}, false
}

// revertOne runs the per-item state machine for a revert
func (e *Engine) revertOne(ctx context.Context, repo github.Repo, number int) (RevertResult, bool) {
	pr, err := e.remote.GetPR(ctx, repo, number)
	if err != nil {
		return RevertResult{PRNumber: number, Outcome: OutcomeRevertFailed, Err: err}, errors.Is(err, bperrors.ErrAuth)
	}
	if pr.State != "merged" {
		err := fmt.Errorf("pull request #%d is not merged; nothing to revert", number)
		return RevertResult{PRNumber: number, Outcome: OutcomeRevertFailed, Err: err}, false
	}

	st := e.advance(number, StatePending, StateRemoteAttempted)
	sha, err := e.remote.AttemptRevert(ctx, repo, *pr)
	if err == nil {
		e.advance(number, st, StateDone)
		return RevertResult{PRNumber: number, Outcome: OutcomeReverted, CommitSHA: sha}, false
	}
	if errors.Is(err, bperrors.ErrAuth) {
		return RevertResult{PRNumber: number, Outcome: OutcomeRevertFailed, Err: err}, true
	}
	if !errors.Is(err, bperrors.ErrRemoteConflict) && !errors.Is(err, bperrors.ErrRemoteUnavailable) {
		return RevertResult{PRNumber: number, Outcome: OutcomeRevertFailed, Err: err}, false
	}

	st = e.advance(number, st, StateLocalAttempted)
	e.splog.Debug("PR #%d: reverting via local inverse commit", number)

	unlock := e.pushLocks.acquire(pushKey(repo, pr.BaseBranch))
	sha, err = e.fallback.LocalRevert(ctx, e.remote.CloneURL(repo), number, pr.BaseBranch, pr.MergeCommitSHA)
	unlock()

	e.advance(number, st, StateDone)
	if err == nil {
		return RevertResult{PRNumber: number, Outcome: OutcomeReverted, CommitSHA: sha}, false
	}
	if errors.Is(err, bperrors.ErrLocalConflict) {
		return RevertResult{PRNumber: number, Outcome: OutcomeRevertConflict, Err: err}, false
	}
	return RevertResult{PRNumber: number, Outcome: OutcomeRevertFailed, Err: err}, false
}

// advance moves an item through the state machine, logging any transition
// the machine does not permit
func (e *Engine) advance(prNumber int, from, to ItemState) ItemState {
	if !CanTransition(from, to) {
		e.splog.Debug("PR #%d: invalid state transition %d -> %d", prNumber, from, to)
	}
	return to
}

func pushKey(repo github.Repo, branch string) string {
	return repo.String() + "#" + branch
}
