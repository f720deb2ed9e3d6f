package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"bulkpilot.dev/bulkpilot/internal/github"
)

type stubLister struct {
	branches map[github.Repo][]github.BranchInfo
	err      error
	calls    int
}

func (s *stubLister) ListBranches(ctx context.Context, repo github.Repo) ([]github.BranchInfo, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.branches[repo], nil
}

var (
	repoA = github.Repo{Owner: "octo", Name: "alpha"}
	repoB = github.Repo{Owner: "octo", Name: "beta"}
)

func TestBranchCache(t *testing.T) {
	t.Run("get misses until a refresh", func(t *testing.T) {
		lister := &stubLister{branches: map[github.Repo][]github.BranchInfo{
			repoA: {{Name: "main"}},
		}}
		cache := NewBranchCache(lister)

		_, ok := cache.Get(repoA)
		require.False(t, ok)

		branches, err := cache.Refresh(context.Background(), repoA)
		require.NoError(t, err)
		require.Len(t, branches, 1)

		cached, ok := cache.Get(repoA)
		require.True(t, ok)
		require.Equal(t, "main", cached[0].Name)
		require.Equal(t, 1, lister.calls)
	})

	t.Run("entries are isolated per repository", func(t *testing.T) {
		lister := &stubLister{branches: map[github.Repo][]github.BranchInfo{
			repoA: {{Name: "main"}},
			repoB: {{Name: "develop"}},
		}}
		cache := NewBranchCache(lister)

		_, err := cache.Refresh(context.Background(), repoA)
		require.NoError(t, err)

		_, ok := cache.Get(repoB)
		require.False(t, ok)

		cache.Invalidate(repoA)
		_, ok = cache.Get(repoA)
		require.False(t, ok)
	})

	t.Run("failed refresh keeps the stale entry", func(t *testing.T) {
		lister := &stubLister{branches: map[github.Repo][]github.BranchInfo{
			repoA: {{Name: "main"}, {Name: "feature"}},
		}}
		cache := NewBranchCache(lister)

		_, err := cache.Refresh(context.Background(), repoA)
		require.NoError(t, err)
		fetchedAt, ok := cache.FetchedAt(repoA)
		require.True(t, ok)

		lister.err = errors.New("remote down")
		_, err = cache.Refresh(context.Background(), repoA)
		require.Error(t, err)

		stale, ok := cache.Get(repoA)
		require.True(t, ok)
		require.Len(t, stale, 2)

		staleAt, ok := cache.FetchedAt(repoA)
		require.True(t, ok)
		require.Equal(t, fetchedAt, staleAt)
	})

	t.Run("failed refresh on a miss stays a miss", func(t *testing.T) {
		lister := &stubLister{err: errors.New("remote down")}
		cache := NewBranchCache(lister)

		_, err := cache.Refresh(context.Background(), repoA)
		require.Error(t, err)

		_, ok := cache.Get(repoA)
		require.False(t, ok)
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		lister := &stubLister{branches: map[github.Repo][]github.BranchInfo{
			repoA: {{Name: "main"}},
		}}
		cache := NewBranchCache(lister)

		_, err := cache.Refresh(context.Background(), repoA)
		require.NoError(t, err)

		first, _ := cache.Get(repoA)
		first[0].Name = "mutated"

		second, _ := cache.Get(repoA)
		require.Equal(t, "main", second[0].Name)
	})
}
