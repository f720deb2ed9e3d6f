package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/require"
)

// MockPR describes a pull request served by the mock GitHub API.
type MockPR struct {
	Number         int
	Title          string
	State          string
	Merged         bool
	BaseBranch     string
	HeadBranch     string
	HeadSHA        string
	MergeCommitSHA string
	Mergeable      *bool
	MergedAt       *time.Time
}

// MockBranch describes a branch served by the mock GitHub API.
type MockBranch struct {
	Name        string
	SHA         string
	CommittedAt time.Time
	Author      string
}

// MockGitHubConfig configures the behaviors of a mock GitHub server.
type MockGitHubConfig struct {
	Owner string
	Repo  string

	PRs      []*MockPR
	Branches []MockBranch
	Repos    []string

	// MergeConflicts lists PR numbers whose merge attempt returns 405.
	MergeConflicts map[int]bool

	// AuthFailure makes every request fail with 401.
	AuthFailure bool

	// RateLimitFailures fails that many merge requests with a rate limit
	// response before allowing them through.
	RateLimitFailures int

	// UnavailableFailures fails that many merge requests with 503 before
	// allowing them through.
	UnavailableFailures int
}

// MockGitHubServer is an httptest server that speaks enough of the GitHub
// REST API for the client adapter.
type MockGitHubServer struct {
	Server *httptest.Server
	Config *MockGitHubConfig

	mu              sync.Mutex
	deletedBranches []string
	mergeRequests   int
	closedPRs       []int
}

// NewMockGitHubServer starts a mock GitHub server. It is shut down when the
// test finishes.
func NewMockGitHubServer(t *testing.T, config *MockGitHubConfig) *MockGitHubServer {
	t.Helper()

	if config.MergeConflicts == nil {
		config.MergeConflicts = map[int]bool{}
	}

	m := &MockGitHubServer{Config: config}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/pulls", m.handleListPRs)
	mux.HandleFunc("GET /repos/{owner}/{repo}/pulls/{number}", m.handleGetPR)
	mux.HandleFunc("PUT /repos/{owner}/{repo}/pulls/{number}/merge", m.handleMerge)
	mux.HandleFunc("PATCH /repos/{owner}/{repo}/pulls/{number}", m.handleEditPR)
	mux.HandleFunc("GET /repos/{owner}/{repo}/branches", m.handleListBranches)
	mux.HandleFunc("GET /repos/{owner}/{repo}/commits/{sha}", m.handleGetCommit)
	mux.HandleFunc("DELETE /repos/{owner}/{repo}/git/refs/{ref...}", m.handleDeleteRef)
	mux.HandleFunc("GET /user/repos", m.handleUserRepos)

	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if config.AuthFailure {
			writeError(w, http.StatusUnauthorized, "Bad credentials")
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(m.Server.Close)

	return m
}

// NewGitHubClient returns a go-github client pointed at the mock server
func (m *MockGitHubServer) NewGitHubClient(t *testing.T) *gh.Client {
	t.Helper()

	client := gh.NewClient(m.Server.Client())
	base, err := url.Parse(m.Server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return client
}

// DeletedBranches returns the branch names deleted so far
func (m *MockGitHubServer) DeletedBranches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletedBranches...)
}

// ClosedPRs returns the PR numbers closed via edit so far
func (m *MockGitHubServer) ClosedPRs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.closedPRs...)
}

// MergeRequests returns how many merge attempts the server received
func (m *MockGitHubServer) MergeRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mergeRequests
}

func (m *MockGitHubServer) findPR(number int) *MockPR {
	for _, pr := range m.Config.PRs {
		if pr.Number == number {
			return pr
		}
	}
	return nil
}

func (m *MockGitHubServer) handleListPRs(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		state = "open"
	}

	var out []map[string]any
	for _, pr := range m.Config.PRs {
		if state != "all" && pr.State != state {
			continue
		}
		out = append(out, prJSON(pr))
	}
	writeJSON(w, out)
}

func (m *MockGitHubServer) handleGetPR(w http.ResponseWriter, r *http.Request) {
	number, _ := strconv.Atoi(r.PathValue("number"))
	pr := m.findPR(number)
	if pr == nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, prJSON(pr))
}

func (m *MockGitHubServer) handleMerge(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.mergeRequests++
	if m.Config.RateLimitFailures > 0 {
		m.Config.RateLimitFailures--
		m.mu.Unlock()
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(-time.Second).Unix(), 10))
		writeError(w, http.StatusForbidden, "API rate limit exceeded")
		return
	}
	if m.Config.UnavailableFailures > 0 {
		m.Config.UnavailableFailures--
		m.mu.Unlock()
		writeError(w, http.StatusServiceUnavailable, "Service Unavailable")
		return
	}
	m.mu.Unlock()

	number, _ := strconv.Atoi(r.PathValue("number"))
	pr := m.findPR(number)
	if pr == nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if m.Config.MergeConflicts[number] {
		writeError(w, http.StatusMethodNotAllowed, "Pull Request is not mergeable")
		return
	}

	pr.State = "closed"
	pr.Merged = true
	if pr.MergeCommitSHA == "" {
		pr.MergeCommitSHA = fmt.Sprintf("merge%08d", number)
	}
	now := time.Now()
	pr.MergedAt = &now

	writeJSON(w, map[string]any{
		"sha":     pr.MergeCommitSHA,
		"merged":  true,
		"message": "Pull Request successfully merged",
	})
}

func (m *MockGitHubServer) handleEditPR(w http.ResponseWriter, r *http.Request) {
	number, _ := strconv.Atoi(r.PathValue("number"))
	pr := m.findPR(number)
	if pr == nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	var body struct {
		State *string `json:"state"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.State != nil {
		pr.State = *body.State
		if *body.State == "closed" {
			m.mu.Lock()
			m.closedPRs = append(m.closedPRs, number)
			m.mu.Unlock()
		}
	}
	writeJSON(w, prJSON(pr))
}

func (m *MockGitHubServer) handleListBranches(w http.ResponseWriter, r *http.Request) {
	var out []map[string]any
	for _, b := range m.Config.Branches {
		out = append(out, map[string]any{
			"name":   b.Name,
			"commit": map[string]any{"sha": b.SHA},
		})
	}
	writeJSON(w, out)
}

func (m *MockGitHubServer) handleGetCommit(w http.ResponseWriter, r *http.Request) {
	sha := r.PathValue("sha")
	for _, b := range m.Config.Branches {
		if b.SHA == sha {
			writeJSON(w, map[string]any{
				"sha": sha,
				"commit": map[string]any{
					"author": map[string]any{
						"name": b.Author,
						"date": b.CommittedAt.Format(time.RFC3339),
					},
				},
			})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Not Found")
}

func (m *MockGitHubServer) handleDeleteRef(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	name := strings.TrimPrefix(ref, "heads/")

	for _, b := range m.Config.Branches {
		if b.Name == name {
			m.mu.Lock()
			m.deletedBranches = append(m.deletedBranches, name)
			m.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusUnprocessableEntity, "Reference does not exist")
}

func (m *MockGitHubServer) handleUserRepos(w http.ResponseWriter, r *http.Request) {
	var out []map[string]any
	for _, full := range m.Config.Repos {
		out = append(out, map[string]any{"full_name": full})
	}
	writeJSON(w, out)
}

func prJSON(pr *MockPR) map[string]any {
	out := map[string]any{
		"number":           pr.Number,
		"title":            pr.Title,
		"state":            pr.State,
		"merged":           pr.Merged,
		"merge_commit_sha": pr.MergeCommitSHA,
		"base":             map[string]any{"ref": pr.BaseBranch},
		"head": map[string]any{
			"ref": pr.HeadBranch,
			"sha": pr.HeadSHA,
		},
		"html_url": fmt.Sprintf("https://github.com/example/example/pull/%d", pr.Number),
	}
	if pr.Mergeable != nil {
		out["mergeable"] = *pr.Mergeable
	}
	if pr.MergedAt != nil {
		out["merged_at"] = pr.MergedAt.Format(time.RFC3339)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
