package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	bperrors "bulkpilot.dev/bulkpilot/internal/errors"
	"bulkpilot.dev/bulkpilot/internal/git"
)

const listPageSize = 100

// defaultMaxAttempts bounds rate-limit retries per call (first try included)
const defaultMaxAttempts = 3

var _ Client = (*RealClient)(nil)

// RealClient implements Client using the GitHub REST API
type RealClient struct {
	client         *github.Client
	token          string
	maxAttempts    uint64
	initialBackoff time.Duration
}

// Options tunes retry behavior of the RealClient
type Options struct {
	// MaxAttempts is the total number of tries for rate-limited calls (>= 1)
	MaxAttempts int
	// InitialBackoff is the first retry delay
	InitialBackoff time.Duration
}

// NewClient creates a RealClient using the token from GITHUB_TOKEN or the gh CLI
func NewClient(ctx context.Context, opts Options) (*RealClient, error) {
	token, err := getGitHubToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub token: %w", err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return NewFromGitHub(github.NewClient(tc), token, opts), nil
}

// NewFromGitHub wraps an existing go-github client. Used by tests to point
// the adapter at a mock server.
func NewFromGitHub(gh *github.Client, token string, opts Options) *RealClient {
	maxAttempts := uint64(defaultMaxAttempts)
	if opts.MaxAttempts > 0 {
		maxAttempts = uint64(opts.MaxAttempts)
	}
	initial := 500 * time.Millisecond
	if opts.InitialBackoff > 0 {
		initial = opts.InitialBackoff
	}
	return &RealClient{
		client:         gh,
		token:          token,
		maxAttempts:    maxAttempts,
		initialBackoff: initial,
	}
}

// getGitHubToken gets the GitHub token from the environment or the gh CLI
func getGitHubToken(ctx context.Context) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	output, err := git.RunGHCommand(ctx, "auth", "token")
	if err != nil {
		return "", fmt.Errorf("failed to get GitHub token: %w", err)
	}
	token := strings.TrimSpace(output)
	if token == "" {
		return "", fmt.Errorf("empty GitHub token")
	}
	return token, nil
}

// withRetry runs op with bounded exponential backoff. Only rate-limit
// responses are retried; auth failures and every other error are permanent.
func (c *RealClient) withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff

	attempt := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isRateLimit(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxAttempts-1), ctx))
	if err != nil && isRateLimit(err) {
		return bperrors.NewRemoteStatusError(http.StatusForbidden, "rate limited", err)
	}
	return err
}

func isRateLimit(err error) bool {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	return errors.As(err, &rateErr) || errors.As(err, &abuseErr)
}

// mapError translates go-github errors into the adapter's error taxonomy
func mapError(err error, prNumber int) error {
	if err == nil {
		return nil
	}
	// Already mapped (e.g. by withRetry on exhausted rate limits)
	if errors.Is(err, bperrors.ErrAuth) || errors.Is(err, bperrors.ErrRemoteUnavailable) ||
		errors.Is(err, bperrors.ErrRemoteConflict) || errors.Is(err, bperrors.ErrNotFound) {
		return err
	}
	if isRateLimit(err) {
		return bperrors.NewRemoteStatusError(http.StatusForbidden, "rate limited", err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		status := 0
		if respErr.Response != nil {
			status = respErr.Response.StatusCode
		}
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return bperrors.NewAuthError(status, respErr.Message)
		case http.StatusNotFound:
			return bperrors.NewNotFoundError("resource", respErr.Message)
		case http.StatusMethodNotAllowed, http.StatusConflict:
			return bperrors.NewRemoteConflictError(prNumber, respErr.Message)
		case http.StatusUnprocessableEntity:
			// GitHub reports deleting a missing ref as 422 "Reference does not exist"
			if strings.Contains(respErr.Message, "does not exist") {
				return bperrors.NewNotFoundError("reference", respErr.Message)
			}
			return bperrors.NewRemoteStatusError(status, respErr.Message, err)
		default:
			return bperrors.NewRemoteStatusError(status, respErr.Message, err)
		}
	}

	// Transport-level failure
	return bperrors.NewRemoteStatusError(0, err.Error(), err)
}

// ListOpenPRs lists the repository's open pull requests, oldest first
func (c *RealClient) ListOpenPRs(ctx context.Context, repo Repo) ([]PullRequest, error) {
	return c.listPRs(ctx, repo, "open", false)
}

// ListMergedPRs lists the repository's merged pull requests, oldest first
func (c *RealClient) ListMergedPRs(ctx context.Context, repo Repo) ([]PullRequest, error) {
	return c.listPRs(ctx, repo, "closed", true)
}

func (c *RealClient) listPRs(ctx context.Context, repo Repo, state string, mergedOnly bool) ([]PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:     state,
		Sort:      "created",
		Direction: "asc",
		ListOptions: github.ListOptions{
			PerPage: listPageSize,
		},
	}

	var result []PullRequest
	for {
		var prs []*github.PullRequest
		var resp *github.Response
		err := c.withRetry(ctx, func() error {
			var err error
			prs, resp, err = c.client.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
			return err
		})
		if err != nil {
			return nil, mapError(err, 0)
		}

		for _, pr := range prs {
			if mergedOnly && pr.MergedAt == nil {
				continue
			}
			result = append(result, toPullRequest(pr, mergedOnly))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// GetPR fetches a single pull request snapshot
func (c *RealClient) GetPR(ctx context.Context, repo Repo, number int) (*PullRequest, error) {
	var pr *github.PullRequest
	err := c.withRetry(ctx, func() error {
		var err error
		pr, _, err = c.client.PullRequests.Get(ctx, repo.Owner, repo.Name, number)
		return err
	})
	if err != nil {
		return nil, mapError(err, number)
	}
	merged := pr.Merged != nil && *pr.Merged
	snapshot := toPullRequest(pr, merged)
	return &snapshot, nil
}

// AttemptMerge merges a pull request via the hosted merge endpoint
func (c *RealClient) AttemptMerge(ctx context.Context, repo Repo, pr PullRequest) (string, error) {
	var result *github.PullRequestMergeResult
	err := c.withRetry(ctx, func() error {
		var err error
		result, _, err = c.client.PullRequests.Merge(ctx, repo.Owner, repo.Name, pr.Number, "", nil)
		return err
	})
	if err != nil {
		return "", mapError(err, pr.Number)
	}
	if result.Merged == nil || !*result.Merged {
		msg := ""
		if result.Message != nil {
			msg = *result.Message
		}
		return "", bperrors.NewRemoteConflictError(pr.Number, msg)
	}
	if result.SHA != nil {
		return *result.SHA, nil
	}
	return "", nil
}

// AttemptRevert attempts a hosted revert. The REST API cannot revert a merge,
// so merged PRs are routed to the local fallback via ErrRemoteConflict.
func (c *RealClient) AttemptRevert(ctx context.Context, repo Repo, pr PullRequest) (string, error) {
	if pr.State != "merged" && pr.MergeCommitSHA == "" {
		current, err := c.GetPR(ctx, repo, pr.Number)
		if err != nil {
			return "", err
		}
		pr = *current
	}
	if pr.State != "merged" {
		return "", bperrors.NewNotFoundError("merged pull request", fmt.Sprintf("#%d", pr.Number))
	}
	return "", bperrors.NewRemoteConflictError(pr.Number, "revert requires a local inverse commit")
}

// ClosePR closes an open pull request without merging it
func (c *RealClient) ClosePR(ctx context.Context, repo Repo, number int) error {
	closed := "closed"
	err := c.withRetry(ctx, func() error {
		_, _, err := c.client.PullRequests.Edit(ctx, repo.Owner, repo.Name, number, &github.PullRequest{
			State: &closed,
		})
		return err
	})
	return mapError(err, number)
}

// ListBranches lists the repository's branches with last-commit metadata
func (c *RealClient) ListBranches(ctx context.Context, repo Repo) ([]BranchInfo, error) {
	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: listPageSize},
	}

	var branches []*github.Branch
	for {
		var page []*github.Branch
		var resp *github.Response
		err := c.withRetry(ctx, func() error {
			var err error
			page, resp, err = c.client.Repositories.ListBranches(ctx, repo.Owner, repo.Name, opts)
			return err
		})
		if err != nil {
			return nil, mapError(err, 0)
		}
		branches = append(branches, page...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	result := make([]BranchInfo, 0, len(branches))
	for _, br := range branches {
		info := BranchInfo{}
		if br.Name != nil {
			info.Name = *br.Name
		}
		if br.Commit != nil && br.Commit.SHA != nil {
			info.LastCommitSHA = *br.Commit.SHA
			// Branch listings carry only the SHA; commit metadata needs a
			// second fetch, matching how the original tool resolved dates
			commit, _, err := c.client.Repositories.GetCommit(ctx, repo.Owner, repo.Name, info.LastCommitSHA, nil)
			if err == nil && commit.Commit != nil && commit.Commit.Author != nil {
				if commit.Commit.Author.Date != nil {
					info.CommittedAt = commit.Commit.Author.Date.Time
				}
				if commit.Commit.Author.Name != nil {
					info.Author = *commit.Commit.Author.Name
				}
			}
		}
		result = append(result, info)
	}
	return result, nil
}

// DeleteBranch deletes a remote branch
func (c *RealClient) DeleteBranch(ctx context.Context, repo Repo, name string) error {
	err := c.withRetry(ctx, func() error {
		_, err := c.client.Git.DeleteRef(ctx, repo.Owner, repo.Name, "heads/"+name)
		return err
	})
	if err != nil {
		mapped := mapError(err, 0)
		if errors.Is(mapped, bperrors.ErrNotFound) {
			return bperrors.NewNotFoundError("branch", name)
		}
		return mapped
	}
	return nil
}

// ListRepositories lists repositories visible to the authenticated user
func (c *RealClient) ListRepositories(ctx context.Context) ([]string, error) {
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		ListOptions: github.ListOptions{PerPage: listPageSize},
	}

	var names []string
	for {
		var repos []*github.Repository
		var resp *github.Response
		err := c.withRetry(ctx, func() error {
			var err error
			repos, resp, err = c.client.Repositories.ListByAuthenticatedUser(ctx, opts)
			return err
		})
		if err != nil {
			return nil, mapError(err, 0)
		}
		for _, r := range repos {
			if r.FullName != nil {
				names = append(names, *r.FullName)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

// CloneURL returns a token-authenticated https clone URL for repo
func (c *RealClient) CloneURL(repo Repo) string {
	return fmt.Sprintf("https://%s@github.com/%s/%s.git", c.token, repo.Owner, repo.Name)
}

// toPullRequest converts a github.PullRequest to a PullRequest snapshot
func toPullRequest(pr *github.PullRequest, merged bool) PullRequest {
	info := PullRequest{}

	if pr.Number != nil {
		info.Number = *pr.Number
	}
	if pr.Title != nil {
		info.Title = *pr.Title
	}
	if pr.State != nil {
		info.State = *pr.State
	}
	if merged || (pr.Merged != nil && *pr.Merged) {
		info.State = "merged"
	}
	if pr.Base != nil && pr.Base.Ref != nil {
		info.BaseBranch = *pr.Base.Ref
	}
	if pr.Head != nil {
		if pr.Head.Ref != nil {
			info.HeadBranch = *pr.Head.Ref
		}
		if pr.Head.SHA != nil {
			info.HeadSHA = *pr.Head.SHA
		}
	}
	if pr.MergeCommitSHA != nil {
		info.MergeCommitSHA = *pr.MergeCommitSHA
	}
	info.Mergeable = pr.Mergeable
	if pr.HTMLURL != nil {
		info.HTMLURL = *pr.HTMLURL
	}

	return info
}
