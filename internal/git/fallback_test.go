package git

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	bperrors "bulkpilot.dev/bulkpilot/internal/errors"
	"bulkpilot.dev/bulkpilot/testhelpers"
)

func TestLocalMerge(t *testing.T) {
	t.Run("clean merge pushes a merge commit", func(t *testing.T) {
		remote := testhelpers.NewRemoteRepo(t)
		remote.CreateBranch("feature-login", "main", map[string]string{
			"login.go": "package login\n",
		}, "add login")

		fallback := NewFallback(t.TempDir())
		sha, err := fallback.LocalMerge(context.Background(), remote.URL(), 1, "main", "feature-login")
		require.NoError(t, err)
		require.Equal(t, remote.BranchSHA("main"), sha)
		require.Equal(t, "package login\n", remote.FileAt("main", "login.go"))
	})

	t.Run("conflicting paths take the head branch verbatim", func(t *testing.T) {
		remote := testhelpers.NewRemoteRepo(t)
		remote.CommitOnBranch("main", map[string]string{"shared.txt": "base\n"}, "add shared")

		remote.CreateBranch("feature-pay", "main", map[string]string{
			"shared.txt": "incoming change\n",
		}, "rework shared")
		remote.CommitOnBranch("main", map[string]string{
			"shared.txt": "mainline change\n",
		}, "tweak shared on main")

		fallback := NewFallback(t.TempDir())
		sha, err := fallback.LocalMerge(context.Background(), remote.URL(), 2, "main", "feature-pay")
		require.NoError(t, err)
		require.Equal(t, remote.BranchSHA("main"), sha)
		require.Equal(t, "incoming change\n", remote.FileAt("main", "shared.txt"))
	})

	t.Run("deletion on the head branch wins delete-modify conflicts", func(t *testing.T) {
		remote := testhelpers.NewRemoteRepo(t)
		remote.CommitOnBranch("main", map[string]string{"doomed.txt": "original\n"}, "add doomed")

		remote.CreateBranch("cleanup", "main", nil, "branch point")
		remote.RemoveOnBranch("cleanup", []string{"doomed.txt"}, "drop doomed")
		remote.CommitOnBranch("main", map[string]string{"doomed.txt": "edited\n"}, "edit doomed on main")

		fallback := NewFallback(t.TempDir())
		_, err := fallback.LocalMerge(context.Background(), remote.URL(), 3, "main", "cleanup")
		require.NoError(t, err)
		require.NotContains(t, remote.Files("main"), "doomed.txt")
	})

	t.Run("scratch clone is removed after the operation", func(t *testing.T) {
		remote := testhelpers.NewRemoteRepo(t)
		remote.CreateBranch("feature-x", "main", map[string]string{"x.txt": "x\n"}, "add x")

		scratchDir := t.TempDir()
		fallback := NewFallback(scratchDir)
		_, err := fallback.LocalMerge(context.Background(), remote.URL(), 4, "main", "feature-x")
		require.NoError(t, err)

		entries, err := os.ReadDir(scratchDir)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("scratch clone is removed on failure too", func(t *testing.T) {
		remote := testhelpers.NewRemoteRepo(t)

		scratchDir := t.TempDir()
		fallback := NewFallback(scratchDir)
		_, err := fallback.LocalMerge(context.Background(), remote.URL(), 5, "main", "no-such-branch")
		require.Error(t, err)

		entries, err := os.ReadDir(scratchDir)
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}

func TestLocalRevert(t *testing.T) {
	t.Run("reverting a merge removes its changes", func(t *testing.T) {
		remote := testhelpers.NewRemoteRepo(t)
		remote.CreateBranch("feature-y", "main", map[string]string{"y.txt": "y\n"}, "add y")
		mergeSHA := remote.MergeBranch("main", "feature-y")

		fallback := NewFallback(t.TempDir())
		sha, err := fallback.LocalRevert(context.Background(), remote.URL(), 6, "main", mergeSHA)
		require.NoError(t, err)
		require.Equal(t, remote.BranchSHA("main"), sha)
		require.NotContains(t, remote.Files("main"), "y.txt")
	})

	t.Run("missing merge commit is not found", func(t *testing.T) {
		fallback := NewFallback(t.TempDir())
		_, err := fallback.LocalRevert(context.Background(), "unused", 7, "main", "")
		require.ErrorIs(t, err, bperrors.ErrNotFound)
	})

	t.Run("conflicting revert reports an unresolved conflict", func(t *testing.T) {
		remote := testhelpers.NewRemoteRepo(t)
		remote.CommitOnBranch("main", map[string]string{"shared.txt": "base\n"}, "add shared")
		remote.CreateBranch("feature-z", "main", map[string]string{"shared.txt": "feature version\n"}, "rework shared")
		mergeSHA := remote.MergeBranch("main", "feature-z")
		remote.CommitOnBranch("main", map[string]string{"shared.txt": "post-merge edit\n"}, "edit after merge")

		fallback := NewFallback(t.TempDir())
		_, err := fallback.LocalRevert(context.Background(), remote.URL(), 8, "main", mergeSHA)
		require.ErrorIs(t, err, bperrors.ErrLocalConflict)

		// The failed revert must leave the remote untouched
		require.Equal(t, "post-merge edit\n", remote.FileAt("main", "shared.txt"))
	})
}
