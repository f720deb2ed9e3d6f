package github

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bperrors "bulkpilot.dev/bulkpilot/internal/errors"
	"bulkpilot.dev/bulkpilot/testhelpers"
)

func newTestClient(t *testing.T, mock *testhelpers.MockGitHubServer) *RealClient {
	t.Helper()
	return NewFromGitHub(mock.NewGitHubClient(t), "test-token", Options{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})
}

var testRepo = Repo{Owner: "octo", Name: "example"}

func TestListPRs(t *testing.T) {
	mergeable := true
	mergedAt := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
		PRs: []*testhelpers.MockPR{
			{Number: 1, Title: "add login", State: "open", BaseBranch: "main", HeadBranch: "feature-login", HeadSHA: "abc", Mergeable: &mergeable},
			{Number: 2, Title: "add billing", State: "closed", Merged: true, BaseBranch: "main", HeadBranch: "feature-billing", MergeCommitSHA: "def", MergedAt: &mergedAt},
			{Number: 3, Title: "abandoned", State: "closed"},
		},
	})
	client := newTestClient(t, mock)

	t.Run("open PRs only", func(t *testing.T) {
		prs, err := client.ListOpenPRs(context.Background(), testRepo)
		require.NoError(t, err)
		require.Len(t, prs, 1)
		require.Equal(t, 1, prs[0].Number)
		require.Equal(t, "open", prs[0].State)
		require.Equal(t, "main", prs[0].BaseBranch)
		require.Equal(t, "feature-login", prs[0].HeadBranch)
		require.NotNil(t, prs[0].Mergeable)
		require.True(t, *prs[0].Mergeable)
	})

	t.Run("merged PRs exclude closed-unmerged", func(t *testing.T) {
		prs, err := client.ListMergedPRs(context.Background(), testRepo)
		require.NoError(t, err)
		require.Len(t, prs, 1)
		require.Equal(t, 2, prs[0].Number)
		require.Equal(t, "merged", prs[0].State)
		require.Equal(t, "def", prs[0].MergeCommitSHA)
	})
}

func TestGetPR(t *testing.T) {
	mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
		PRs: []*testhelpers.MockPR{
			{Number: 1, Title: "add login", State: "open", BaseBranch: "main", HeadBranch: "feature-login"},
		},
	})
	client := newTestClient(t, mock)

	t.Run("existing PR", func(t *testing.T) {
		pr, err := client.GetPR(context.Background(), testRepo, 1)
		require.NoError(t, err)
		require.Equal(t, "add login", pr.Title)
	})

	t.Run("missing PR maps to not found", func(t *testing.T) {
		_, err := client.GetPR(context.Background(), testRepo, 99)
		require.ErrorIs(t, err, bperrors.ErrNotFound)
	})
}

func TestAttemptMerge(t *testing.T) {
	t.Run("success returns the merge commit", func(t *testing.T) {
		mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
			PRs: []*testhelpers.MockPR{
				{Number: 1, State: "open", MergeCommitSHA: "abc123"},
			},
		})
		client := newTestClient(t, mock)

		sha, err := client.AttemptMerge(context.Background(), testRepo, PullRequest{Number: 1})
		require.NoError(t, err)
		require.Equal(t, "abc123", sha)
	})

	t.Run("405 maps to remote conflict", func(t *testing.T) {
		mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
			PRs:            []*testhelpers.MockPR{{Number: 1, State: "open"}},
			MergeConflicts: map[int]bool{1: true},
		})
		client := newTestClient(t, mock)

		_, err := client.AttemptMerge(context.Background(), testRepo, PullRequest{Number: 1})
		require.ErrorIs(t, err, bperrors.ErrRemoteConflict)
	})

	t.Run("401 maps to auth failure without retries", func(t *testing.T) {
		mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
			AuthFailure: true,
		})
		client := newTestClient(t, mock)

		_, err := client.AttemptMerge(context.Background(), testRepo, PullRequest{Number: 1})
		require.ErrorIs(t, err, bperrors.ErrAuth)
	})

	t.Run("rate limit is retried until it clears", func(t *testing.T) {
		mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
			PRs:               []*testhelpers.MockPR{{Number: 1, State: "open", MergeCommitSHA: "abc123"}},
			RateLimitFailures: 2,
		})
		client := newTestClient(t, mock)

		sha, err := client.AttemptMerge(context.Background(), testRepo, PullRequest{Number: 1})
		require.NoError(t, err)
		require.Equal(t, "abc123", sha)
		require.Equal(t, 3, mock.MergeRequests())
	})

	t.Run("exhausted rate limit maps to remote unavailable", func(t *testing.T) {
		mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
			PRs:               []*testhelpers.MockPR{{Number: 1, State: "open"}},
			RateLimitFailures: 10,
		})
		client := newTestClient(t, mock)

		_, err := client.AttemptMerge(context.Background(), testRepo, PullRequest{Number: 1})
		require.ErrorIs(t, err, bperrors.ErrRemoteUnavailable)
		require.Equal(t, 3, mock.MergeRequests())
	})

	t.Run("503 is not retried", func(t *testing.T) {
		mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
			PRs:                 []*testhelpers.MockPR{{Number: 1, State: "open"}},
			UnavailableFailures: 1,
		})
		client := newTestClient(t, mock)

		_, err := client.AttemptMerge(context.Background(), testRepo, PullRequest{Number: 1})
		require.ErrorIs(t, err, bperrors.ErrRemoteUnavailable)
		require.Equal(t, 1, mock.MergeRequests())
	})
}

func TestAttemptRevert(t *testing.T) {
	t.Run("merged PR routes to the local fallback", func(t *testing.T) {
		mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{})
		client := newTestClient(t, mock)

		_, err := client.AttemptRevert(context.Background(), testRepo, PullRequest{
			Number: 1, State: "merged", MergeCommitSHA: "abc",
		})
		require.ErrorIs(t, err, bperrors.ErrRemoteConflict)
	})

	t.Run("unmerged PR is not found", func(t *testing.T) {
		mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
			PRs: []*testhelpers.MockPR{{Number: 1, State: "open"}},
		})
		client := newTestClient(t, mock)

		_, err := client.AttemptRevert(context.Background(), testRepo, PullRequest{Number: 1})
		require.ErrorIs(t, err, bperrors.ErrNotFound)
	})
}

func TestClosePR(t *testing.T) {
	mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
		PRs: []*testhelpers.MockPR{{Number: 4, State: "open"}},
	})
	client := newTestClient(t, mock)

	require.NoError(t, client.ClosePR(context.Background(), testRepo, 4))
	require.Equal(t, []int{4}, mock.ClosedPRs())

	err := client.ClosePR(context.Background(), testRepo, 99)
	require.ErrorIs(t, err, bperrors.ErrNotFound)
}

func TestListBranches(t *testing.T) {
	committed := time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)
	mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
		Branches: []testhelpers.MockBranch{
			{Name: "main", SHA: "aaa", CommittedAt: committed, Author: "Dev One"},
			{Name: "feature-x", SHA: "bbb", CommittedAt: committed.AddDate(0, 1, 0), Author: "Dev Two"},
		},
	})
	client := newTestClient(t, mock)

	branches, err := client.ListBranches(context.Background(), testRepo)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	require.Equal(t, "main", branches[0].Name)
	require.Equal(t, "aaa", branches[0].LastCommitSHA)
	require.Equal(t, committed, branches[0].CommittedAt.UTC())
	require.Equal(t, "Dev One", branches[0].Author)
	require.Equal(t, "Dev Two", branches[1].Author)
}

func TestDeleteBranch(t *testing.T) {
	mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
		Branches: []testhelpers.MockBranch{{Name: "stale", SHA: "ccc"}},
	})
	client := newTestClient(t, mock)

	t.Run("existing branch", func(t *testing.T) {
		require.NoError(t, client.DeleteBranch(context.Background(), testRepo, "stale"))
		require.Equal(t, []string{"stale"}, mock.DeletedBranches())
	})

	t.Run("missing branch maps to not found", func(t *testing.T) {
		err := client.DeleteBranch(context.Background(), testRepo, "never-existed")
		require.ErrorIs(t, err, bperrors.ErrNotFound)
	})
}

func TestListRepositories(t *testing.T) {
	mock := testhelpers.NewMockGitHubServer(t, &testhelpers.MockGitHubConfig{
		Repos: []string{"octo/example", "octo/other"},
	})
	client := newTestClient(t, mock)

	repos, err := client.ListRepositories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"octo/example", "octo/other"}, repos)
}

func TestCloneURL(t *testing.T) {
	client := NewFromGitHub(nil, "secret-token", Options{})
	require.Equal(t, "https://secret-token@github.com/octo/example.git", client.CloneURL(testRepo))
}
