package vcs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo builds an in-memory repository with one commit per message,
// oldest first, and returns it with the commit hashes in the same order.
func memRepo(t *testing.T, messages ...string) (*gogit.Repository, []string) {
	t.Helper()

	fs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	var hashes []string
	for i, msg := range messages {
		path := fmt.Sprintf("file%d.txt", i)
		require.NoError(t, util.WriteFile(fs, path, []byte(msg), 0o644))
		_, err = wt.Add(path)
		require.NoError(t, err)

		hash, err := wt.Commit(msg, &gogit.CommitOptions{
			Author: &object.Signature{
				Name:  "Tester",
				Email: "tester@example.com",
				When:  time.Date(2026, 3, 1, 10, i, 0, 0, time.UTC),
			},
		})
		require.NoError(t, err)
		hashes = append(hashes, hash.String())
	}
	return repo, hashes
}

func newTestGit(runner *fakeRunner, repo *gogit.Repository) *Git {
	g := NewGit("/repo", runner, nil)
	if repo != nil {
		g.openRepo = func(string) (*gogit.Repository, error) { return repo, nil }
	}
	return g
}

func TestGit_Status(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{responses: map[string]string{
		"git status --porcelain": " M foo.txt",
		"git diff HEAD":          "diff --git a/foo.txt b/foo.txt",
	}}
	g := newTestGit(runner, nil)

	state, err := g.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, state.HasChanges)
	assert.Contains(t, state.DiffText, "diff --git")
}

func TestGit_StartNewUnitRefusesDirtyTree(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{responses: map[string]string{
		"git status --porcelain": " M foo.txt",
		"git diff HEAD":          "diff",
	}}
	g := newTestGit(runner, nil)

	_, err := g.StartNewUnit(context.Background(), "feature-x", "start feature x")
	assert.ErrorIs(t, err, ErrDirtyState)
	assert.False(t, runner.called("git checkout"))
}

func TestGit_StartNewUnit(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{responses: map[string]string{
		"git status --porcelain":                       "",
		"git diff HEAD":                                "",
		"git checkout -b feature-x":                    "",
		"git commit --allow-empty -m start feature x":  "",
	}}
	g := newTestGit(runner, nil)

	unit, err := g.StartNewUnit(context.Background(), "feature-x", "start feature x")
	require.NoError(t, err)
	assert.Equal(t, "feature-x", unit.Name)
	assert.True(t, runner.called("git checkout -b feature-x"))
}

func TestGit_CommitSkipsWhenClean(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{responses: map[string]string{
		"git status --porcelain": "",
		"git diff HEAD":          "",
	}}
	g := newTestGit(runner, nil)

	require.NoError(t, g.Commit(context.Background(), "nothing"))
	assert.False(t, runner.called("git add"))
	assert.False(t, runner.called("git commit"))
}

func TestGit_CommitStagesEverything(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{responses: map[string]string{
		"git status --porcelain":     "?? new.txt",
		"git diff HEAD":              "",
		"git add -A":                 "",
		"git commit -m Add new file": "",
	}}
	g := newTestGit(runner, nil)

	require.NoError(t, g.Commit(context.Background(), "Add new file"))
	assert.True(t, runner.called("git add -A"))
	assert.True(t, runner.called("git commit -m Add new file"))
}

func TestGit_LogNewestFirst(t *testing.T) {
	t.Parallel()

	repo, hashes := memRepo(t, "first commit", "second commit", "third commit")
	g := newTestGit(&fakeRunner{}, repo)

	records, err := g.Log(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, hashes[2], records[0].ID)
	assert.Equal(t, "third commit", records[0].Message)
	assert.Equal(t, hashes[1], records[1].ID)
	assert.Equal(t, "Tester", records[0].Author)
}

func TestGit_SquashUnknownCommit(t *testing.T) {
	t.Parallel()

	repo, hashes := memRepo(t, "first commit", "second commit")
	runner := &fakeRunner{responses: map[string]string{
		"git branch -r --contains " + hashes[1]: "",
	}}
	g := newTestGit(runner, repo)

	err := g.Squash(context.Background(), []string{"deadbeef"}, hashes[1], "merged")
	var rangeErr *InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "deadbeef", rangeErr.ID)
	assert.False(t, runner.called("git reset"))
}

func TestGit_SquashRefusesPublishedHistory(t *testing.T) {
	t.Parallel()

	repo, hashes := memRepo(t, "first commit", "second commit")
	runner := &fakeRunner{responses: map[string]string{
		"git branch -r --contains " + hashes[1]: "  origin/main",
	}}
	g := newTestGit(runner, repo)

	err := g.Squash(context.Background(), []string{hashes[0]}, hashes[1], "merged")
	var rangeErr *InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Contains(t, rangeErr.Reason, "remote")
	assert.False(t, runner.called("git reset"))
}

func TestGit_Squash(t *testing.T) {
	t.Parallel()

	repo, hashes := memRepo(t, "first commit", "second commit", "fix typo")
	runner := &fakeRunner{responses: map[string]string{
		"git branch -r --contains " + hashes[1]: "",
		"git branch -r --contains " + hashes[2]: "",
		"git rev-parse " + hashes[1] + "^":      hashes[0],
		"git reset --soft " + hashes[0]:         "",
		"git commit -m second commit":           "",
	}}
	g := newTestGit(runner, repo)

	// Sources newest first, the oldest source last.
	err := g.Squash(context.Background(), []string{hashes[2], hashes[1]}, hashes[1], "second commit")
	require.NoError(t, err)
	assert.True(t, runner.called("git reset --soft "+hashes[0]))
	assert.True(t, runner.called("git commit -m second commit"))
}

func TestGit_UpdateMessageOnlyAmendsHead(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{responses: map[string]string{
		"git rev-parse HEAD": "aaa111222333",
	}}
	g := newTestGit(runner, nil)

	err := g.UpdateMessage(context.Background(), "bbb999", "new message")
	var rangeErr *InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.False(t, runner.called("git commit --amend"))
}

func TestGit_UpdateMessageAmendsHead(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{responses: map[string]string{
		"git rev-parse HEAD":                 "aaa111222333",
		"git commit --amend -m new message": "",
	}}
	g := newTestGit(runner, nil)

	require.NoError(t, g.UpdateMessage(context.Background(), "aaa111", "new message"))
	assert.True(t, runner.called("git commit --amend"))
}
