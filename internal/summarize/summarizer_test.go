package summarize

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcspilot/vcspilot/internal/completion"
	"github.com/vcspilot/vcspilot/internal/config"
	"github.com/vcspilot/vcspilot/internal/template"
	"github.com/vcspilot/vcspilot/internal/vcs"
)

// stubClient answers every completion with a fixed response or error.
type stubClient struct {
	response string
	err      error
	calls    int
}

func (s *stubClient) Complete(context.Context, completion.Request) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubClient) Ping(context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{
		Model:       config.DefaultModel,
		Language:    config.LanguageEnglish,
		MaxTokens:   config.DefaultMaxTokens,
		Temperature: config.DefaultTemperature,
	}
}

func newTestSummarizer(client completion.Client) *Summarizer {
	cfg := testConfig()
	return New(cfg, client, template.NewLoader(cfg), nil)
}

func TestCommitSummary(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: "Add login form validation"}
	s := newTestSummarizer(client)

	msg, err := s.CommitSummary(context.Background(), vcs.RepoState{
		HasChanges: true,
		StatusText: "M internal/login/form.go",
		DiffText:   "diff --git ...",
	})
	require.NoError(t, err)
	assert.Equal(t, "Add login form validation", msg)
	assert.Equal(t, 1, client.calls)
}

func TestCommitSummary_StripsModelDecoration(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: "\"Add login form\"\nand some trailing chatter"}
	s := newTestSummarizer(client)

	msg, err := s.CommitSummary(context.Background(), vcs.RepoState{
		HasChanges: true,
		StatusText: "M form.go",
	})
	require.NoError(t, err)
	assert.Equal(t, "Add login form", msg)
}

func TestCommitSummary_CompletionFailureFallsBack(t *testing.T) {
	t.Parallel()

	client := &stubClient{err: errors.Wrap(completion.ErrNetwork, "connection refused")}
	s := newTestSummarizer(client)

	msg, err := s.CommitSummary(context.Background(), vcs.RepoState{
		HasChanges: true,
		StatusText: "M foo.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "Update foo.txt", msg)
}

func TestCommitSummary_NilClientFallsBack(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(nil)

	msg, err := s.CommitSummary(context.Background(), vcs.RepoState{
		HasChanges: true,
		StatusText: "M  src/app/main.go\n?? notes.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "Update main.go", msg)
}

func TestCommitSummary_EmptyResponseFallsBack(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: "   \n"}
	s := newTestSummarizer(client)

	msg, err := s.CommitSummary(context.Background(), vcs.RepoState{
		HasChanges: true,
		StatusText: "A new.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "Update new.txt", msg)
}

func TestFallbackMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Update foo.txt",
		FallbackMessage(vcs.RepoState{StatusText: "M foo.txt"}))
	assert.Equal(t, "Update form.go",
		FallbackMessage(vcs.RepoState{StatusText: "Working copy changes:\nM internal/login/form.go"}))
	assert.Equal(t, "Update working copy",
		FallbackMessage(vcs.RepoState{StatusText: ""}))
	// Hint lines with more than a flag and a path are not file entries.
	assert.Equal(t, "Update working copy",
		FallbackMessage(vcs.RepoState{StatusText: "nothing to commit, working tree clean"}))
}

func TestUnitName(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: "Add User Login"}
	s := newTestSummarizer(client)

	name := s.UnitName(context.Background(), "implement user login with sessions")
	assert.Equal(t, "add-user-login", name)
}

func TestUnitName_CompletionFailureUsesPromptWords(t *testing.T) {
	t.Parallel()

	client := &stubClient{err: completion.ErrNetwork}
	s := newTestSummarizer(client)

	name := s.UnitName(context.Background(), "Implement user login with sessions")
	assert.Equal(t, "implement-user-login", name)
}

func TestUnitName_TerminalFallback(t *testing.T) {
	t.Parallel()

	client := &stubClient{err: completion.ErrNetwork}
	s := newTestSummarizer(client)

	// Nothing kebab-safe survives this prompt.
	name := s.UnitName(context.Background(), "ログイン機能を追加")
	assert.Equal(t, "feature-work", name)
}

func TestUnitName_CapsLength(t *testing.T) {
	t.Parallel()

	client := &stubClient{response: "implement-the-whole-authentication-subsystem-end-to-end"}
	s := newTestSummarizer(client)

	name := s.UnitName(context.Background(), "big prompt")
	assert.LessOrEqual(t, len(name), 20)
	assert.NotEmpty(t, name)
}

func TestRevisionDescription(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(nil)
	desc := s.RevisionDescription("Edit", "/work/project/internal/app/main.go")
	assert.Contains(t, desc, "Edit")
	assert.Contains(t, desc, "main.go")
}
