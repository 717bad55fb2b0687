package vcs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// jjNoChanges is the sentinel jj prints when the working copy is clean.
const jjNoChanges = "The working copy has no changes"

// jjLogTemplate emits one tab-separated record per revision. Descriptions
// are collapsed to their first line so records stay line-oriented.
const jjLogTemplate = `commit_id.short() ++ "\t" ++ author.name() ++ "\t" ++ committer.timestamp().format("%Y-%m-%dT%H:%M:%S%z") ++ "\t" ++ description.first_line() ++ "\n"`

// jjLogTimestamp is the Go layout matching jjLogTemplate's format string.
const jjLogTimestamp = "2006-01-02T15:04:05-0700"

// Jujutsu drives a repository through the jj binary.
type Jujutsu struct {
	dir    string
	runner Runner
	log    *zap.Logger
}

// NewJujutsu returns a Jujutsu backend rooted at dir.
func NewJujutsu(dir string, runner Runner, log *zap.Logger) *Jujutsu {
	if log == nil {
		log = zap.NewNop()
	}
	return &Jujutsu{dir: dir, runner: runner, log: log.Named("jj")}
}

func (j *Jujutsu) Kind() Kind { return KindJujutsu }

func (j *Jujutsu) Root(ctx context.Context) (string, error) {
	return run(ctx, j.runner, j.dir, probeTimeout, "jj", "root")
}

func (j *Jujutsu) Status(ctx context.Context) (RepoState, error) {
	status, err := run(ctx, j.runner, j.dir, statusTimeout, "jj", "status")
	if err != nil {
		return RepoState{}, err
	}

	state := RepoState{
		StatusText: status,
		HasChanges: status != "" && !strings.Contains(status, jjNoChanges),
	}

	diff, err := run(ctx, j.runner, j.dir, mutateTimeout, "jj", "diff")
	if err != nil {
		// Status alone is still useful to callers; diff text stays empty.
		j.log.Debug("jj diff failed", zap.Error(err))
		return state, nil
	}
	state.DiffText = truncateDiff(diff)
	return state, nil
}

// StartNewUnit creates a fresh working revision with jj new. Jujutsu
// snapshots pending changes into the previous revision automatically, so
// there is no clean-state precondition.
func (j *Jujutsu) StartNewUnit(ctx context.Context, name, description string) (Unit, error) {
	args := []string{"new"}
	if description != "" {
		args = append(args, "-m", description)
	}
	if _, err := run(ctx, j.runner, j.dir, statusTimeout+probeTimeout, "jj", args...); err != nil {
		return Unit{}, err
	}

	id, err := run(ctx, j.runner, j.dir, probeTimeout, "jj", "log", "-r", "@", "--no-graph", "-T", "commit_id")
	if err != nil {
		return Unit{}, err
	}
	return Unit{ID: id, Name: name}, nil
}

func (j *Jujutsu) Commit(ctx context.Context, message string) error {
	state, err := j.Status(ctx)
	if err != nil {
		return err
	}
	if !state.HasChanges {
		j.log.Debug("no changes, skipping commit")
		return nil
	}
	_, err = run(ctx, j.runner, j.dir, mutateTimeout, "jj", "commit", "-m", message)
	return err
}

func (j *Jujutsu) Log(ctx context.Context, limit int) ([]CommitRecord, error) {
	out, err := run(ctx, j.runner, j.dir, statusTimeout+probeTimeout,
		"jj", "log", "-r", "::@", "--limit", fmt.Sprint(limit), "--no-graph", "-T", jjLogTemplate)
	if err != nil {
		return nil, err
	}

	var records []CommitRecord
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 4)
		if len(fields) < 4 {
			continue
		}
		rec := CommitRecord{ID: fields[0], Author: fields[1], Message: fields[3]}
		if ts, perr := time.Parse(jjLogTimestamp, fields[2]); perr == nil {
			rec.Timestamp = ts
		}
		records = append(records, rec)
	}
	return records, nil
}

func (j *Jujutsu) Squash(ctx context.Context, sourceIDs []string, targetID, message string) error {
	if len(sourceIDs) == 0 {
		return &InvalidRangeError{ID: targetID, Reason: "no source units named"}
	}

	ids := append([]string{targetID}, sourceIDs...)
	if err := j.validateRange(ctx, ids); err != nil {
		return err
	}

	for _, source := range sourceIDs {
		if source == targetID {
			continue
		}
		if _, err := run(ctx, j.runner, j.dir, mutateTimeout,
			"jj", "squash", "--from", source, "--into", targetID); err != nil {
			return err
		}
	}

	if message != "" {
		return j.UpdateMessage(ctx, targetID, message)
	}
	return nil
}

// validateRange checks that every id resolves and nothing in the range is
// immutable. Immutable revisions are jj's notion of published history, and
// rewriting them is always refused.
func (j *Jujutsu) validateRange(ctx context.Context, ids []string) error {
	for _, id := range ids {
		out, err := run(ctx, j.runner, j.dir, statusTimeout,
			"jj", "log", "-r", id, "--no-graph", "-T", `if(immutable, "immutable", "mutable")`)
		if err != nil {
			return &InvalidRangeError{ID: id, Reason: "unknown revision"}
		}
		if strings.Contains(out, "immutable") {
			return &InvalidRangeError{ID: id, Reason: "revision is already published"}
		}
	}
	return nil
}

func (j *Jujutsu) DiffStat(ctx context.Context, id string) (string, error) {
	return run(ctx, j.runner, j.dir, statusTimeout, "jj", "diff", "-r", id, "--stat")
}

func (j *Jujutsu) ChangedFiles(ctx context.Context, id string) ([]string, error) {
	out, err := run(ctx, j.runner, j.dir, statusTimeout, "jj", "diff", "-r", id, "--name-only")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (j *Jujutsu) CommitMessage(ctx context.Context, id string) (string, error) {
	return run(ctx, j.runner, j.dir, statusTimeout, "jj", "log", "-r", id, "--no-graph", "-T", "description")
}

func (j *Jujutsu) UpdateMessage(ctx context.Context, id, message string) error {
	_, err := run(ctx, j.runner, j.dir, statusTimeout+probeTimeout, "jj", "describe", "-r", id, "-m", message)
	return err
}

func (j *Jujutsu) CreateBackupRef(ctx context.Context, name string) (string, error) {
	if _, err := run(ctx, j.runner, j.dir, statusTimeout, "jj", "bookmark", "create", name, "-r", "@"); err != nil {
		return "", err
	}
	return name, nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
