// Package cache provides a per-repository in-memory store of branch metadata
// with explicit invalidation. There is no time-based expiry; entries live
// until a caller invalidates or refreshes them.
package cache

import (
	"context"
	"sync"
	"time"

	"bulkpilot.dev/bulkpilot/internal/github"
)

// BranchLister is the subset of the remote client the cache needs
type BranchLister interface {
	ListBranches(ctx context.Context, repo github.Repo) ([]github.BranchInfo, error)
}

type entry struct {
	branches  []github.BranchInfo
	fetchedAt time.Time
}

// BranchCache stores branch listings keyed by repository. An entry is either
// absent or fully populated; a failed refresh never replaces a prior entry.
type BranchCache struct {
	mu      sync.RWMutex
	lister  BranchLister
	entries map[github.Repo]*entry
}

// NewBranchCache creates a BranchCache backed by lister
func NewBranchCache(lister BranchLister) *BranchCache {
	return &BranchCache{
		lister:  lister,
		entries: make(map[github.Repo]*entry),
	}
}

// Get returns the cached branch listing for repo, or ok=false on a miss.
// The returned slice is a copy; callers may not mutate cache state.
func (c *BranchCache) Get(repo github.Repo) ([]github.BranchInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[repo]
	if !ok {
		return nil, false
	}
	return copyBranches(e.branches), true
}

// FetchedAt returns when the entry for repo was last refreshed
func (c *BranchCache) FetchedAt(repo github.Repo) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[repo]
	if !ok {
		return time.Time{}, false
	}
	return e.fetchedAt, true
}

// Refresh fetches repo's branches from the remote and replaces the cached
// entry atomically. On failure any prior entry is left untouched: a stale
// listing is preferred over losing data.
//
// The remote call runs outside the lock so a refresh of one repository
// never blocks reads for another.
func (c *BranchCache) Refresh(ctx context.Context, repo github.Repo) ([]github.BranchInfo, error) {
	branches, err := c.lister.ListBranches(ctx, repo)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[repo] = &entry{
		branches:  copyBranches(branches),
		fetchedAt: time.Now(),
	}
	c.mu.Unlock()

	return branches, nil
}

// Invalidate drops the cached entry for repo, forcing the next Get to miss
func (c *BranchCache) Invalidate(repo github.Repo) {
	c.mu.Lock()
	delete(c.entries, repo)
	c.mu.Unlock()
}

func copyBranches(in []github.BranchInfo) []github.BranchInfo {
	out := make([]github.BranchInfo, len(in))
	copy(out, in)
	return out
}
