package engine

import (
	"bulkpilot.dev/bulkpilot/internal/github"
)

// BatchKind is the operation a batch performs
type BatchKind string

const (
	// KindMerge merges the selected pull requests
	KindMerge BatchKind = "merge"
	// KindRevert reverts previously merged pull requests
	KindRevert BatchKind = "revert"
)

// ItemState tracks a single pull request through the batch state machine:
// Pending -> RemoteAttempted -> Done, or
// Pending -> RemoteAttempted -> LocalAttempted -> Done.
type ItemState int

const (
	// StatePending means the item has not been attempted yet
	StatePending ItemState = iota
	// StateRemoteAttempted means the hosted endpoint has been tried
	StateRemoteAttempted
	// StateLocalAttempted means the local fallback has been tried
	StateLocalAttempted
	// StateDone means the item has a terminal result
	StateDone
)

// CanTransition reports whether the per-item state machine permits moving
// from one state to another. The remote path is always attempted before the
// local one, and Done is terminal.
func CanTransition(from, to ItemState) bool {
	switch from {
	case StatePending:
		return to == StateRemoteAttempted
	case StateRemoteAttempted:
		return to == StateLocalAttempted || to == StateDone
	case StateLocalAttempted:
		return to == StateDone
	}
	return false
}

// MergeOutcome classifies the result of one merge item
type MergeOutcome string

const (
	// OutcomeMergedRemote means the hosted merge endpoint succeeded
	OutcomeMergedRemote MergeOutcome = "merged-remote"
	// OutcomeMergedLocal means the local fallback produced the merge
	OutcomeMergedLocal MergeOutcome = "merged-local-fallback"
	// OutcomeConflict means the fallback could not resolve the conflict
	OutcomeConflict MergeOutcome = "conflict-unresolved"
	// OutcomeFailed means the item failed for any other reason
	OutcomeFailed MergeOutcome = "failed"
)

// RevertOutcome classifies the result of one revert item
type RevertOutcome string

const (
	// OutcomeReverted means an inverse commit was created and pushed
	OutcomeReverted RevertOutcome = "reverted"
	// OutcomeRevertConflict means the inverse change did not apply cleanly
	OutcomeRevertConflict RevertOutcome = "revert-conflict"
	// OutcomeRevertFailed means the item failed for any other reason
	OutcomeRevertFailed RevertOutcome = "failed"
)

// MergeResult is the immutable outcome of one merge item. A retry produces
// a new result; results are never mutated after creation.
type MergeResult struct {
	PRNumber  int
	Outcome   MergeOutcome
	CommitSHA string
	Err       error
}

// RevertResult is the immutable outcome of one revert item
type RevertResult struct {
	PRNumber  int
	Outcome   RevertOutcome
	CommitSHA string
	Err       error
}

// DeleteOutcome classifies the result of one branch deletion
type DeleteOutcome string

const (
	// OutcomeDeleted means the branch was removed
	OutcomeDeleted DeleteOutcome = "deleted"
	// OutcomeDeleteFailed means the deletion failed; Err carries the reason
	OutcomeDeleteFailed DeleteOutcome = "failed"
)

// DeleteResult is the outcome of deleting one branch
type DeleteResult struct {
	Name    string
	Outcome DeleteOutcome
	Err     error
}

// CloseResult is the outcome of closing one pull request
type CloseResult struct {
	PRNumber int
	Closed   bool
	Err      error
}

// BatchOperation collects the results of one submitted batch. Results are
// appended as items complete and always follow submission order. The batch
// is terminal when every submitted item has a result; an aborted batch
// stops short and reports only the items it reached.
type BatchOperation struct {
	Kind      BatchKind
	Repo      github.Repo
	PRNumbers []int

	// MergeResults is populated for KindMerge batches
	MergeResults []MergeResult
	// RevertResults is populated for KindRevert batches
	RevertResults []RevertResult

	// Aborted is set when the batch stopped before attempting all items
	// (authentication failure or cancellation)
	Aborted bool
}

// Terminal reports whether every submitted item has a result
func (b *BatchOperation) Terminal() bool {
	switch b.Kind {
	case KindMerge:
		return len(b.MergeResults) == len(b.PRNumbers)
	case KindRevert:
		return len(b.RevertResults) == len(b.PRNumbers)
	}
	return false
}
