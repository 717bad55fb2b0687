package install

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcspilot/vcspilot/internal/config"
	"github.com/vcspilot/vcspilot/internal/template"
)

func testInstaller(out *bytes.Buffer) *Installer {
	cfg := &config.Config{Language: config.LanguageEnglish}
	return New(cfg, template.NewLoader(cfg), out, nil)
}

func readSettingsFile(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var settings map[string]any
	require.NoError(t, json.Unmarshal(data, &settings))
	return settings
}

func hookEvents(t *testing.T, settings map[string]any) map[string]any {
	t.Helper()
	hooks, ok := settings["hooks"].(map[string]any)
	require.True(t, ok, "settings must carry a hooks object")
	return hooks
}

func TestHooks_FreshInstall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, testInstaller(&out).Hooks(Options{Path: dir}))

	settings := readSettingsFile(t, filepath.Join(dir, ".claude", "settings.json"))
	hooks := hookEvents(t, settings)
	for _, event := range []string{"PreToolUse", "PostToolUse", "UserPromptSubmit"} {
		entries, ok := hooks[event].([]any)
		require.True(t, ok, event)
		require.Len(t, entries, 1, event)
	}

	pre := hooks["PreToolUse"].([]any)[0].(map[string]any)
	assert.Equal(t, "Edit|Write|MultiEdit", pre["matcher"])
	inner := pre["hooks"].([]any)[0].(map[string]any)
	assert.Equal(t, "vcspilot pre-tool-use", inner["command"])
}

func TestHooks_PreservesForeignHooks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	claudeDir := filepath.Join(dir, ".claude")
	require.NoError(t, os.MkdirAll(claudeDir, 0o755))
	existing := `{
		"model": "opus",
		"hooks": {
			"PreToolUse": [
				{"matcher": "Bash", "hooks": [{"type": "command", "command": "linter check"}]}
			]
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(claudeDir, "settings.json"), []byte(existing), 0o644))

	var out bytes.Buffer
	require.NoError(t, testInstaller(&out).Hooks(Options{Path: dir}))

	settings := readSettingsFile(t, filepath.Join(claudeDir, "settings.json"))
	// Unrelated top-level keys survive the merge.
	assert.Equal(t, "opus", settings["model"])

	pre := hookEvents(t, settings)["PreToolUse"].([]any)
	require.Len(t, pre, 2)
	foreign := pre[0].(map[string]any)
	assert.Equal(t, "Bash", foreign["matcher"])
}

func TestHooks_ReinstallIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	installer := testInstaller(&out)

	require.NoError(t, installer.Hooks(Options{Path: dir}))
	require.NoError(t, installer.Hooks(Options{Path: dir}))

	settings := readSettingsFile(t, filepath.Join(dir, ".claude", "settings.json"))
	hooks := hookEvents(t, settings)
	for _, event := range []string{"PreToolUse", "PostToolUse", "UserPromptSubmit"} {
		assert.Len(t, hooks[event].([]any), 1, event)
	}
}

func TestHooks_BacksUpExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	claudeDir := filepath.Join(dir, ".claude")
	require.NoError(t, os.MkdirAll(claudeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(claudeDir, "settings.json"), []byte(`{"hooks": {}}`), 0o644))

	var out bytes.Buffer
	require.NoError(t, testInstaller(&out).Hooks(Options{Path: dir}))

	entries, err := filepath.Glob(filepath.Join(claudeDir, "settings.json.backup.*"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHooks_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, testInstaller(&out).Hooks(Options{Path: dir, DryRun: true}))

	_, err := os.Stat(filepath.Join(dir, ".claude", "settings.json"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, out.String(), "vcspilot pre-tool-use")
}

func TestHooks_CorruptSettingsRefused(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	claudeDir := filepath.Join(dir, ".claude")
	require.NoError(t, os.MkdirAll(claudeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(claudeDir, "settings.json"), []byte("{truncated"), 0o644))

	var out bytes.Buffer
	assert.Error(t, testInstaller(&out).Hooks(Options{Path: dir}))
}

func TestGlobalAndPathConflict(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := testInstaller(&out).Hooks(Options{Global: true, Path: "/somewhere"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--global")
}

func TestAgent_WritesRenderedDefinition(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, testInstaller(&out).Agent(Options{Path: dir}))

	data, err := os.ReadFile(filepath.Join(dir, ".claude", "agents", "commit-organizer.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "commit-organizer")
	// The language placeholder is substituted at install time.
	assert.Contains(t, string(data), "english")
	assert.NotContains(t, string(data), "{language}")
}

func TestSlashCommand_WritesRenderedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, testInstaller(&out).SlashCommand(Options{Path: dir}))

	data, err := os.ReadFile(filepath.Join(dir, ".claude", "commands", "organize-commits.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "vcspilot organize")
}

func TestAll_InstallsEverything(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, testInstaller(&out).All(Options{Path: dir}))

	for _, rel := range []string{
		filepath.Join(".claude", "settings.json"),
		filepath.Join(".claude", "agents", "commit-organizer.md"),
		filepath.Join(".claude", "commands", "organize-commits.md"),
	} {
		_, err := os.Stat(filepath.Join(dir, rel))
		assert.NoError(t, err, rel)
	}
}
