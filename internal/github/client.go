// Package github provides a client for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Repo identifies a repository by owner and name
type Repo struct {
	Owner string
	Name  string
}

// ParseRepo parses an "owner/name" string into a Repo
func ParseRepo(s string) (Repo, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("invalid repository %q (want owner/name)", s)
	}
	return Repo{Owner: parts[0], Name: parts[1]}, nil
}

// String returns the canonical "owner/name" form
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// PullRequest contains information about a pull request.
// This is a simplified snapshot to avoid coupling to the go-github library.
// It is fetched at list time; staleness is acceptable and surfaced via
// explicit refresh, never silently assumed fresh.
type PullRequest struct {
	Number         int
	Title          string
	State          string // "open", "merged", "closed"
	BaseBranch     string
	HeadBranch     string
	HeadSHA        string
	MergeCommitSHA string
	// Mergeable is tri-state: nil means the host has not finished computing it
	Mergeable *bool
	HTMLURL   string
}

// BranchInfo contains information about a remote branch
type BranchInfo struct {
	Name          string
	LastCommitSHA string
	CommittedAt   time.Time
	Author        string
}

// Client is an interface for GitHub API interactions
type Client interface {
	// ListOpenPRs lists the repository's open pull requests, oldest first
	ListOpenPRs(ctx context.Context, repo Repo) ([]PullRequest, error)

	// ListMergedPRs lists the repository's merged pull requests, oldest first
	ListMergedPRs(ctx context.Context, repo Repo) ([]PullRequest, error)

	// GetPR fetches a single pull request snapshot
	GetPR(ctx context.Context, repo Repo, number int) (*PullRequest, error)

	// AttemptMerge merges a pull request via the hosted merge endpoint and
	// returns the merge commit SHA. Conflicts surface as ErrRemoteConflict.
	AttemptMerge(ctx context.Context, repo Repo, pr PullRequest) (string, error)

	// AttemptRevert attempts a hosted revert for a previously merged pull
	// request. GitHub's REST API has no revert endpoint, so this reports
	// ErrRemoteConflict for merged PRs to route the item to the local
	// fallback, and ErrNotFound for PRs that were never merged.
	AttemptRevert(ctx context.Context, repo Repo, pr PullRequest) (string, error)

	// ClosePR closes an open pull request without merging it
	ClosePR(ctx context.Context, repo Repo, number int) error

	// ListBranches lists the repository's branches with last-commit metadata
	ListBranches(ctx context.Context, repo Repo) ([]BranchInfo, error)

	// DeleteBranch deletes a remote branch. A branch that is already gone
	// surfaces as ErrNotFound.
	DeleteBranch(ctx context.Context, repo Repo, name string) error

	// ListRepositories lists repositories visible to the authenticated user
	ListRepositories(ctx context.Context) ([]string, error)

	// CloneURL returns a token-authenticated https clone URL for repo,
	// for use by the local fallback's scratch clones
	CloneURL(repo Repo) string
}
