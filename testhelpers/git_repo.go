// Package testhelpers provides fixtures for exercising bulkpilot against a
// local git remote and a mock GitHub API server.
package testhelpers

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RemoteRepo is a local bare repository standing in for the hosted remote,
// plus a seeding clone used to create branches and commits.
type RemoteRepo struct {
	BareDir string
	WorkDir string
	t       *testing.T
}

// NewRemoteRepo creates a bare repository with an initial commit on main
func NewRemoteRepo(t *testing.T) *RemoteRepo {
	t.Helper()

	base := t.TempDir()
	bareDir := filepath.Join(base, "origin.git")
	workDir := filepath.Join(base, "seed")

	r := &RemoteRepo{BareDir: bareDir, WorkDir: workDir, t: t}

	r.git(base, "init", "--bare", "-b", "main", bareDir)
	r.git(base, "clone", bareDir, workDir)
	r.git(workDir, "config", "user.name", "Test User")
	r.git(workDir, "config", "user.email", "test@example.com")

	r.WriteFile("README.md", "seed\n")
	r.git(workDir, "add", ".")
	r.git(workDir, "commit", "-m", "initial commit")
	r.git(workDir, "push", "origin", "main")

	return r
}

// URL returns a clone URL for the bare repository
func (r *RemoteRepo) URL() string {
	return r.BareDir
}

// WriteFile writes a file in the seeding clone
func (r *RemoteRepo) WriteFile(path, content string) {
	r.t.Helper()
	full := filepath.Join(r.WorkDir, path)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0750))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0600))
}

// CreateBranch creates a branch from base with the given file contents and
// pushes it
func (r *RemoteRepo) CreateBranch(name, base string, files map[string]string, message string) {
	r.t.Helper()
	r.git(r.WorkDir, "checkout", base)
	r.git(r.WorkDir, "checkout", "-b", name)
	for path, content := range files {
		r.WriteFile(path, content)
	}
	r.git(r.WorkDir, "add", ".")
	r.git(r.WorkDir, "commit", "--allow-empty", "-m", message)
	r.git(r.WorkDir, "push", "origin", name)
}

// CommitOnBranch adds a commit to an existing branch and pushes it
func (r *RemoteRepo) CommitOnBranch(name string, files map[string]string, message string) {
	r.t.Helper()
	r.git(r.WorkDir, "checkout", name)
	r.git(r.WorkDir, "pull", "origin", name)
	for path, content := range files {
		r.WriteFile(path, content)
	}
	r.git(r.WorkDir, "add", ".")
	r.git(r.WorkDir, "commit", "--allow-empty", "-m", message)
	r.git(r.WorkDir, "push", "origin", name)
}

// RemoveOnBranch deletes paths on an existing branch and pushes the commit
func (r *RemoteRepo) RemoveOnBranch(name string, paths []string, message string) {
	r.t.Helper()
	r.git(r.WorkDir, "checkout", name)
	r.git(r.WorkDir, "pull", "origin", name)
	for _, path := range paths {
		r.git(r.WorkDir, "rm", "--", path)
	}
	r.git(r.WorkDir, "commit", "-m", message)
	r.git(r.WorkDir, "push", "origin", name)
}

// MergeBranch creates a merge commit of branch into base in the seeding
// clone, pushes it, and returns the merge commit SHA. Used to simulate a
// previously merged pull request for revert tests.
func (r *RemoteRepo) MergeBranch(base, branch string) string {
	r.t.Helper()
	r.git(r.WorkDir, "checkout", base)
	r.git(r.WorkDir, "pull", "origin", base)
	r.git(r.WorkDir, "merge", "--no-ff", "--no-edit", branch)
	r.git(r.WorkDir, "push", "origin", base)
	return r.BranchSHA(base)
}

// BranchSHA returns the SHA a branch points at on the remote
func (r *RemoteRepo) BranchSHA(name string) string {
	r.t.Helper()
	out := r.gitOutput(r.WorkDir, "ls-remote", "origin", "refs/heads/"+name)
	fields := strings.Fields(out)
	require.NotEmpty(r.t, fields, "branch %s not found on remote", name)
	return fields[0]
}

// Files returns the paths tracked on the remote at the tip of a branch
func (r *RemoteRepo) Files(branch string) []string {
	r.t.Helper()
	r.git(r.WorkDir, "fetch", "origin", branch)
	out := r.gitOutput(r.WorkDir, "ls-tree", "-r", "--name-only", "origin/"+branch)
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// FileAt returns a file's content on the remote at the tip of a branch
func (r *RemoteRepo) FileAt(branch, path string) string {
	r.t.Helper()
	r.git(r.WorkDir, "fetch", "origin", branch)
	return r.gitOutput(r.WorkDir, "show", "origin/"+branch+":"+path)
}

func (r *RemoteRepo) git(dir string, args ...string) {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	out, err := cmd.CombinedOutput()
	require.NoError(r.t, err, "git %v: %s", args, out)
}

func (r *RemoteRepo) gitOutput(dir string, args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	out, err := cmd.Output()
	require.NoError(r.t, err, "git %v", args)
	return strings.TrimSpace(string(out))
}
