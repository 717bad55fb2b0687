package vcs

import (
	"context"
	"io"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// Git drives a repository through the git binary. History reads go through
// go-git so log parsing never depends on porcelain output formats.
type Git struct {
	dir    string
	runner Runner
	log    *zap.Logger

	// openRepo is swappable for tests that have no on-disk repository.
	openRepo func(path string) (*gogit.Repository, error)
}

// NewGit returns a Git backend rooted at dir.
func NewGit(dir string, runner Runner, log *zap.Logger) *Git {
	if log == nil {
		log = zap.NewNop()
	}
	return &Git{dir: dir, runner: runner, log: log.Named("git"), openRepo: gogit.PlainOpen}
}

func (g *Git) Kind() Kind { return KindGit }

func (g *Git) Root(ctx context.Context) (string, error) {
	return run(ctx, g.runner, g.dir, probeTimeout, "git", "rev-parse", "--show-toplevel")
}

func (g *Git) Status(ctx context.Context) (RepoState, error) {
	status, err := run(ctx, g.runner, g.dir, statusTimeout, "git", "status", "--porcelain")
	if err != nil {
		return RepoState{}, err
	}

	state := RepoState{
		StatusText: status,
		HasChanges: status != "",
	}

	// HEAD-relative diff covers both staged and unstaged changes.
	diff, err := run(ctx, g.runner, g.dir, mutateTimeout, "git", "diff", "HEAD")
	if err != nil {
		g.log.Debug("git diff failed", zap.Error(err))
		return state, nil
	}
	state.DiffText = truncateDiff(diff)
	return state, nil
}

// StartNewUnit creates and checks out a new branch. Git requires a clean
// working copy first: carrying uncommitted edits onto a fresh branch would
// entangle them with the previous unit of work.
func (g *Git) StartNewUnit(ctx context.Context, name, description string) (Unit, error) {
	state, err := g.Status(ctx)
	if err != nil {
		return Unit{}, err
	}
	if state.HasChanges {
		return Unit{}, ErrDirtyState
	}

	if _, err := run(ctx, g.runner, g.dir, statusTimeout+probeTimeout, "git", "checkout", "-b", name); err != nil {
		return Unit{}, err
	}

	if description != "" {
		// Mark the branch point. Failure here does not undo branch creation.
		if _, err := run(ctx, g.runner, g.dir, statusTimeout+probeTimeout,
			"git", "commit", "--allow-empty", "-m", description); err != nil {
			g.log.Warn("empty marker commit failed", zap.Error(err))
		}
	}
	return Unit{ID: name, Name: name}, nil
}

func (g *Git) Commit(ctx context.Context, message string) error {
	state, err := g.Status(ctx)
	if err != nil {
		return err
	}
	if !state.HasChanges {
		g.log.Debug("no changes, skipping commit")
		return nil
	}

	if _, err := run(ctx, g.runner, g.dir, statusTimeout+probeTimeout, "git", "add", "-A"); err != nil {
		return err
	}
	_, err = run(ctx, g.runner, g.dir, mutateTimeout, "git", "commit", "-m", message)
	return err
}

func (g *Git) Log(ctx context.Context, limit int) ([]CommitRecord, error) {
	repo, err := g.openRepo(g.dir)
	if err != nil {
		return nil, &CommandError{Cmd: "git log", Err: err}
	}

	iter, err := repo.Log(&gogit.LogOptions{})
	if err != nil {
		return nil, &CommandError{Cmd: "git log", Err: err}
	}
	defer iter.Close()

	var records []CommitRecord
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(records) >= limit {
			return io.EOF
		}
		records = append(records, CommitRecord{
			ID:        c.Hash.String(),
			Message:   strings.TrimSpace(c.Message),
			Author:    c.Author.Name,
			Timestamp: c.Author.When,
		})
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, &CommandError{Cmd: "git log", Err: err}
	}
	return records, nil
}

// Squash folds a contiguous run of the newest commits into one. The range
// is replayed with a soft reset to the oldest source's parent followed by a
// single commit carrying the target's new message.
func (g *Git) Squash(ctx context.Context, sourceIDs []string, targetID, message string) error {
	if len(sourceIDs) == 0 {
		return &InvalidRangeError{ID: targetID, Reason: "no source units named"}
	}

	records, err := g.Log(ctx, maxRangeLookback)
	if err != nil {
		return err
	}

	ids := append([]string{targetID}, sourceIDs...)
	for _, id := range ids {
		if !rangeContains(records, id) {
			return &InvalidRangeError{ID: id, Reason: "unknown commit"}
		}
		published, err := g.isPublished(ctx, id)
		if err != nil {
			return err
		}
		if published {
			return &InvalidRangeError{ID: id, Reason: "commit is already on a remote"}
		}
	}

	oldest := sourceIDs[len(sourceIDs)-1]
	parent, err := run(ctx, g.runner, g.dir, statusTimeout, "git", "rev-parse", oldest+"^")
	if err != nil {
		return &InvalidRangeError{ID: oldest, Reason: "cannot squash past the initial commit"}
	}

	if _, err := run(ctx, g.runner, g.dir, statusTimeout+probeTimeout, "git", "reset", "--soft", parent); err != nil {
		return err
	}
	_, err = run(ctx, g.runner, g.dir, mutateTimeout, "git", "commit", "-m", message)
	return err
}

// maxRangeLookback bounds how far back squash range validation searches.
const maxRangeLookback = 200

// isPublished reports whether any remote branch already contains the
// commit. Published history is never rewritten.
func (g *Git) isPublished(ctx context.Context, id string) (bool, error) {
	out, err := run(ctx, g.runner, g.dir, statusTimeout, "git", "branch", "-r", "--contains", id)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func (g *Git) DiffStat(ctx context.Context, id string) (string, error) {
	return run(ctx, g.runner, g.dir, statusTimeout, "git", "show", "--stat", "--format=", id)
}

func (g *Git) ChangedFiles(ctx context.Context, id string) ([]string, error) {
	out, err := run(ctx, g.runner, g.dir, statusTimeout, "git", "show", "--name-only", "--format=", id)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (g *Git) CommitMessage(ctx context.Context, id string) (string, error) {
	return run(ctx, g.runner, g.dir, statusTimeout, "git", "log", "-1", "--pretty=format:%s", id)
}

// UpdateMessage rewrites a commit message. Git can only do this in place
// for the current HEAD; anything older needs the squash path, which sets
// the message as part of the rewrite.
func (g *Git) UpdateMessage(ctx context.Context, id, message string) error {
	head, err := run(ctx, g.runner, g.dir, probeTimeout, "git", "rev-parse", "HEAD")
	if err != nil {
		return err
	}
	if !strings.HasPrefix(head, id) && !strings.HasPrefix(id, head) {
		return &InvalidRangeError{ID: id, Reason: "only the newest commit's message can be rewritten in place"}
	}
	_, err = run(ctx, g.runner, g.dir, mutateTimeout, "git", "commit", "--amend", "-m", message)
	return err
}

func (g *Git) CreateBackupRef(ctx context.Context, name string) (string, error) {
	if _, err := run(ctx, g.runner, g.dir, statusTimeout, "git", "branch", name); err != nil {
		return "", err
	}
	return name, nil
}

func rangeContains(records []CommitRecord, id string) bool {
	for _, rec := range records {
		if rec.ID == id || strings.HasPrefix(rec.ID, id) {
			return true
		}
	}
	return false
}
