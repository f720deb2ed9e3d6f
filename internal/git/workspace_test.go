package git

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"bulkpilot.dev/bulkpilot/testhelpers"
)

func TestWorkspace(t *testing.T) {
	remote := testhelpers.NewRemoteRepo(t)
	remote.CreateBranch("feature-a", "main", map[string]string{"a.txt": "a\n"}, "add a")

	baseDir := t.TempDir()
	ws, err := NewWorkspace(context.Background(), baseDir, remote.URL())
	require.NoError(t, err)

	t.Run("clone lives under the base dir", func(t *testing.T) {
		entries, err := os.ReadDir(baseDir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("checkout tracking and head", func(t *testing.T) {
		require.NoError(t, ws.Fetch(context.Background(), "feature-a"))
		require.NoError(t, ws.CheckoutTracking(context.Background(), "feature-a"))

		head, err := ws.Head()
		require.NoError(t, err)
		require.Equal(t, remote.BranchSHA("feature-a"), head)

		names, err := ws.BranchNames()
		require.NoError(t, err)
		require.Contains(t, names, "feature-a")
	})

	t.Run("file content at head", func(t *testing.T) {
		content, err := ws.FileContent("a.txt")
		require.NoError(t, err)
		require.Equal(t, "a\n", string(content))
	})

	t.Run("close removes the clone", func(t *testing.T) {
		require.NoError(t, ws.Close())
		entries, err := os.ReadDir(baseDir)
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}
