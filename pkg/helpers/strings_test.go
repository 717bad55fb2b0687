package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "exactly", TruncateString("exactly", 7))
	assert.Equal(t, "hello...", TruncateString("hello world", 8))
	// Rune-safe: multibyte input is measured in runes, not bytes.
	assert.Equal(t, "テスト", TruncateString("テスト", 3))
	assert.Equal(t, "ログイン機能を...", TruncateString("ログイン機能を追加する作業", 10))
}

func TestSanitizeCommitMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Add login form", SanitizeCommitMessage(`"Add login form"`))
	assert.Equal(t, "Add login form", SanitizeCommitMessage("  Add login form  "))
	assert.Equal(t, "Add login form", SanitizeCommitMessage("```\nAdd login form\n```"))
	assert.Equal(t, "Fix typo", SanitizeCommitMessage("'Fix typo'"))
}

func TestSanitizeUnitName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "add-login-form", SanitizeUnitName("Add Login Form", 20))
	assert.Equal(t, "fix-bug-123", SanitizeUnitName("fix_bug 123!?", 20))
	assert.Equal(t, "", SanitizeUnitName("!!??", 20))
	assert.Equal(t, "", SanitizeUnitName("日本語のみ", 20))

	// The cap never leaves a trailing hyphen behind.
	name := SanitizeUnitName("implement the new login feature", 20)
	assert.LessOrEqual(t, len(name), 20)
	assert.NotEqual(t, "-", name[len(name)-1:])
}

func TestFirstWords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "implement-user-login", FirstWords("Implement user login with sessions", 3))
	assert.Equal(t, "fix", FirstWords("fix", 3))
	assert.Equal(t, "", FirstWords("", 3))
}
