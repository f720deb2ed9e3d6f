package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Workspace is a scratch clone used for exactly one fallback operation.
// It is never reused across pull requests so that conflict resolutions
// cannot leak from one item into another.
type Workspace struct {
	runner *CommandRunner
	path   string
}

// NewWorkspace clones remoteURL into a fresh directory under baseDir.
// The caller must Close the workspace when done; Close removes the clone.
func NewWorkspace(ctx context.Context, baseDir, remoteURL string) (*Workspace, error) {
	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create workspace dir: %w", err)
	}

	path, err := os.MkdirTemp(baseDir, "scratch-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}

	cloneRunner := NewCommandRunner(baseDir)
	if _, err := cloneRunner.Run(ctx, "clone", "--no-tags", remoteURL, path); err != nil {
		_ = os.RemoveAll(path)
		return nil, fmt.Errorf("failed to clone into scratch workspace: %w", err)
	}

	ws := &Workspace{
		runner: NewCommandRunner(path),
		path:   path,
	}
	if err := ws.ensureIdentity(ctx); err != nil {
		_ = ws.Close()
		return nil, err
	}
	return ws, nil
}

// ensureIdentity sets a local committer identity when the environment has
// none configured; merge and revert commits fail without one
func (w *Workspace) ensureIdentity(ctx context.Context) error {
	if _, err := w.runner.Run(ctx, "config", "user.email"); err == nil {
		return nil
	}
	if _, err := w.runner.Run(ctx, "config", "user.name", "bulkpilot"); err != nil {
		return fmt.Errorf("failed to set committer identity: %w", err)
	}
	if _, err := w.runner.Run(ctx, "config", "user.email", "bulkpilot@localhost"); err != nil {
		return fmt.Errorf("failed to set committer identity: %w", err)
	}
	return nil
}

// Path returns the root directory of the scratch clone
func (w *Workspace) Path() string {
	return w.path
}

// Close removes the scratch clone. It is safe to call on every exit path,
// including cancellation.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.path)
}

// Fetch fetches the given refs from origin
func (w *Workspace) Fetch(ctx context.Context, refs ...string) error {
	args := append([]string{"fetch", "origin"}, refs...)
	if _, err := w.runner.Run(ctx, args...); err != nil {
		return fmt.Errorf("failed to fetch %v: %w", refs, err)
	}
	return nil
}

// CheckoutTracking checks out branch tracking origin/branch, resetting any
// previous local state for that branch
func (w *Workspace) CheckoutTracking(ctx context.Context, branch string) error {
	if _, err := w.runner.Run(ctx, "checkout", "-B", branch, "origin/"+branch); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", branch, err)
	}
	return nil
}

// Push pushes branch to origin. A rejected push surfaces as a GitCommandError;
// it is not retried since it implies a race with another writer.
func (w *Workspace) Push(ctx context.Context, branch string) error {
	_, err := w.runner.Run(ctx, "push", "origin", branch)
	return err
}

// UnmergedPaths lists paths with unresolved conflicts after a failed merge
func (w *Workspace) UnmergedPaths(ctx context.Context) ([]string, error) {
	return w.runner.RunLines(ctx, "diff", "--name-only", "--diff-filter=U")
}

// Head returns the SHA of the current HEAD, read through go-git
func (w *Workspace) Head() (string, error) {
	repo, err := gogit.PlainOpen(w.path)
	if err != nil {
		return "", fmt.Errorf("failed to open scratch repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// BranchNames returns local branch names in the scratch clone
func (w *Workspace) BranchNames() ([]string, error) {
	repo, err := gogit.PlainOpen(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scratch repository: %w", err)
	}
	branches, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to get branches: %w", err)
	}

	var names []string
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		if ref.Name().IsBranch() {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate branches: %w", err)
	}
	return names, nil
}

// FileContent returns the committed content of a path at HEAD
func (w *Workspace) FileContent(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(w.path, path))
}
