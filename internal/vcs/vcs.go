// Package vcs presents one capability surface over the two version-control
// tools vcspilot can drive: Jujutsu and Git. Hook and CLI code talk to the
// Backend interface and never branch on which tool is present.
package vcs

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// Kind identifies which backend manages a repository.
type Kind string

const (
	// KindJujutsu is the distributed-history backend (.jj marker).
	KindJujutsu Kind = "jujutsu"
	// KindGit is the staging-based backend (.git marker).
	KindGit Kind = "git"
)

// maxDiffBytes caps the diff text captured into RepoState. Diffs are fed to
// prompt templates, so anything past this is noise for the model.
const maxDiffBytes = 5000

// truncationMarker is appended when diff output is cut at maxDiffBytes.
const truncationMarker = "\n... (truncated)"

// RepoState is a snapshot of the working copy, recomputed on every
// invocation and never cached across hook calls.
type RepoState struct {
	HasChanges bool
	StatusText string
	DiffText   string
}

// Unit is one step of edit history: a revision under Jujutsu, a branch
// under Git.
type Unit struct {
	ID   string
	Name string
}

// CommitRecord is a single entry from the backend's history, newest first.
type CommitRecord struct {
	ID        string
	Message   string
	Author    string
	Timestamp time.Time
}

// Backend is implemented once per version-control system.
type Backend interface {
	Kind() Kind

	// Root returns the repository root directory.
	Root(ctx context.Context) (string, error)

	// Status captures the current working-copy state.
	Status(ctx context.Context) (RepoState, error)

	// StartNewUnit opens a fresh unit of work. Backends that require a
	// clean working copy return ErrDirtyState when changes are pending.
	StartNewUnit(ctx context.Context, name, description string) (Unit, error)

	// Commit records all pending changes with the given message. When
	// Status reports no changes this is a no-op success and the underlying
	// commit subcommand is never invoked.
	Commit(ctx context.Context, message string) error

	// Log returns up to limit records, newest first.
	Log(ctx context.Context, limit int) ([]CommitRecord, error)

	// Squash combines the source units into the target, preserving the
	// target's identity, and sets its message when non-empty. Unknown ids
	// and units already shared with a remote are refused with
	// InvalidRangeError.
	Squash(ctx context.Context, sourceIDs []string, targetID, message string) error

	// DiffStat returns the diffstat text for one unit.
	DiffStat(ctx context.Context, id string) (string, error)

	// ChangedFiles lists the file paths touched by one unit.
	ChangedFiles(ctx context.Context, id string) ([]string, error)

	// CommitMessage returns the message of one unit.
	CommitMessage(ctx context.Context, id string) (string, error)

	// UpdateMessage rewrites the message of one unit.
	UpdateMessage(ctx context.Context, id, message string) error

	// CreateBackupRef records the current position under name so a
	// destructive rewrite can be undone. Returns the ref name created.
	CreateBackupRef(ctx context.Context, name string) (string, error)
}

// Sentinel errors shared by all backends. Subprocess failures are reported
// as *CommandError, bad history ranges as *InvalidRangeError.
var (
	ErrNotARepository = errors.New("not a version-controlled repository")
	ErrDirtyState     = errors.New("working copy has uncommitted changes")
)

// CommandError reports a backend subprocess that exited non-zero or timed
// out. Hook callers treat it as skip-and-continue, never as fatal.
type CommandError struct {
	Cmd      string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return e.Cmd + ": " + e.Stderr
	}
	return e.Cmd + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error { return e.Err }

// InvalidRangeError reports a squash request naming units that do not exist
// or that have already been published to a remote.
type InvalidRangeError struct {
	ID     string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return "invalid history range: " + e.ID + ": " + e.Reason
}

func truncateDiff(diff string) string {
	if len(diff) <= maxDiffBytes {
		return diff
	}
	// Back up to a rune boundary so the prompt never carries a split
	// multi-byte character.
	cut := maxDiffBytes
	for cut > 0 && !utf8.RuneStart(diff[cut]) {
		cut--
	}
	return diff[:cut] + truncationMarker
}
