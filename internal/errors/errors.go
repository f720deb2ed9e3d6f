// Package errors provides sentinel errors and custom error types for the bulkpilot application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrAuth indicates that the hosted API rejected the caller's credentials.
	// Auth failures are never retried and abort an entire batch.
	ErrAuth = errors.New("authentication failed")

	// ErrRemoteUnavailable indicates that the hosted API could not be reached,
	// or kept rate-limiting after the adapter exhausted its retries
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrRemoteConflict indicates that the hosted merge endpoint refused the
	// merge because of conflicts. This routes the item to the local fallback.
	ErrRemoteConflict = errors.New("remote merge conflict")

	// ErrLocalConflict indicates that the local fallback could not resolve
	// a conflict with the prefer-source policy
	ErrLocalConflict = errors.New("local conflict unresolved")

	// ErrNotFound indicates that the referenced PR or branch does not exist
	ErrNotFound = errors.New("not found")

	// ErrBatchAborted indicates that a batch stopped before attempting all items
	ErrBatchAborted = errors.New("batch aborted")
)

// AuthError represents a credential rejection from the hosted API
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authentication failed (HTTP %d)", e.StatusCode)
}

// Is returns true if the target error is ErrAuth
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// NewAuthError creates a new AuthError
func NewAuthError(statusCode int, message string) *AuthError {
	return &AuthError{StatusCode: statusCode, Message: message}
}

// RemoteConflictError represents a hosted merge refused because of conflicts
type RemoteConflictError struct {
	PRNumber int
	Message  string
}

func (e *RemoteConflictError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote merge conflict on PR #%d: %s", e.PRNumber, e.Message)
	}
	return fmt.Sprintf("remote merge conflict on PR #%d", e.PRNumber)
}

// Is returns true if the target error is ErrRemoteConflict
func (e *RemoteConflictError) Is(target error) bool {
	return target == ErrRemoteConflict
}

// NewRemoteConflictError creates a new RemoteConflictError
func NewRemoteConflictError(prNumber int, message string) *RemoteConflictError {
	return &RemoteConflictError{PRNumber: prNumber, Message: message}
}

// RemoteStatusError represents an unexpected HTTP status from the hosted API
type RemoteStatusError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteStatusError) Error() string {
	msg := fmt.Sprintf("remote request failed (HTTP %d)", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *RemoteStatusError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrRemoteUnavailable
func (e *RemoteStatusError) Is(target error) bool {
	return target == ErrRemoteUnavailable
}

// NewRemoteStatusError creates a new RemoteStatusError
func NewRemoteStatusError(statusCode int, message string, err error) *RemoteStatusError {
	return &RemoteStatusError{StatusCode: statusCode, Message: message, Err: err}
}

// LocalConflictError represents a fallback merge or revert that could not
// be completed even with the prefer-source resolution policy
type LocalConflictError struct {
	PRNumber int
	Paths    []string
	Message  string
}

func (e *LocalConflictError) Error() string {
	if len(e.Paths) > 0 {
		return fmt.Sprintf("unresolved conflict on PR #%d: %v", e.PRNumber, e.Paths)
	}
	if e.Message != "" {
		return fmt.Sprintf("unresolved conflict on PR #%d: %s", e.PRNumber, e.Message)
	}
	return fmt.Sprintf("unresolved conflict on PR #%d", e.PRNumber)
}

// Is returns true if the target error is ErrLocalConflict
func (e *LocalConflictError) Is(target error) bool {
	return target == ErrLocalConflict
}

// NewLocalConflictError creates a new LocalConflictError
func NewLocalConflictError(prNumber int, paths []string, message string) *LocalConflictError {
	return &LocalConflictError{PRNumber: prNumber, Paths: paths, Message: message}
}

// NotFoundError represents a missing PR or branch
type NotFoundError struct {
	Kind string // "pull request" or "branch"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Name)
}

// Is returns true if the target error is ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(kind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
