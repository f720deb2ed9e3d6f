package engine

import (
	"context"

	"bulkpilot.dev/bulkpilot/internal/github"
)

// RemoteClient is the slice of the hosted API the engine consumes.
// github.Client satisfies it.
type RemoteClient interface {
	ListOpenPRs(ctx context.Context, repo github.Repo) ([]github.PullRequest, error)
	ListMergedPRs(ctx context.Context, repo github.Repo) ([]github.PullRequest, error)
	GetPR(ctx context.Context, repo github.Repo, number int) (*github.PullRequest, error)
	AttemptMerge(ctx context.Context, repo github.Repo, pr github.PullRequest) (string, error)
	AttemptRevert(ctx context.Context, repo github.Repo, pr github.PullRequest) (string, error)
	ClosePR(ctx context.Context, repo github.Repo, number int) error
	ListBranches(ctx context.Context, repo github.Repo) ([]github.BranchInfo, error)
	DeleteBranch(ctx context.Context, repo github.Repo, name string) error
	ListRepositories(ctx context.Context) ([]string, error)
	CloneURL(repo github.Repo) string
}

// LocalFallback drives the scratch-clone merge/revert path.
// git.Fallback satisfies it.
type LocalFallback interface {
	LocalMerge(ctx context.Context, remoteURL string, prNumber int, base, head string) (string, error)
	LocalRevert(ctx context.Context, remoteURL string, prNumber int, base, mergeCommitSHA string) (string, error)
}
