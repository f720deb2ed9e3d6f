package engine

import (
	"context"
	"sync"
)

// runItems executes one call of run per item index. With one worker, items
// run strictly sequentially in submission order. With more, a bounded pool
// runs them concurrently; callers collect results into index-addressed
// slices so reporting order stays the submission order either way.
//
// Cancellation is cooperative between items: the current item finishes,
// no further item starts. A run returning true (auth failure) stops the
// batch the same way. Returns whether the batch stopped early.
func (e *Engine) runItems(ctx context.Context, count int, run func(ctx context.Context, idx int) bool) bool {
	if e.workers <= 1 {
		for i := 0; i < count; i++ {
			if ctx.Err() != nil {
				return true
			}
			if run(ctx, i) {
				return true
			}
		}
		return false
	}

	itemCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	stopped := false

	sem := make(chan struct{}, e.workers)
	for i := 0; i < count; i++ {
		if itemCtx.Err() != nil {
			mu.Lock()
			stopped = true
			mu.Unlock()
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			// An item that slipped past the gate before cancellation still
			// checks once more; started items always run to completion
			if itemCtx.Err() != nil {
				mu.Lock()
				stopped = true
				mu.Unlock()
				return
			}
			if run(itemCtx, idx) {
				mu.Lock()
				stopped = true
				mu.Unlock()
				cancel()
			}
		}(i)
	}

	wg.Wait()
	return stopped
}

// lockSet provides a mutex per key. Used to serialize fallback pushes to
// the same repository+branch so two scratch clones cannot race a
// non-fast-forward push.
type lockSet struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for key and returns the unlock func
func (s *lockSet) acquire(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
