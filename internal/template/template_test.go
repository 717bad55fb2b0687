package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcspilot/vcspilot/internal/config"
)

func englishLoader() *Loader {
	return NewLoader(&config.Config{Language: config.LanguageEnglish})
}

func TestRender_SubstitutesPlaceholders(t *testing.T) {
	t.Parallel()

	out, err := englishLoader().Render("revision_description", map[string]string{
		"tool_name": "Edit",
		"file_name": "main.go",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Edit")
	assert.Contains(t, out, "main.go")
}

func TestRender_MissingPlaceholderIsConfigError(t *testing.T) {
	t.Parallel()

	_, err := englishLoader().Render("revision_description", map[string]string{
		"tool_name": "Edit",
	})
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
	assert.Contains(t, err.Error(), "file_name")
}

func TestRender_UnknownTemplateIsConfigError(t *testing.T) {
	t.Parallel()

	_, err := englishLoader().Render("no_such_template", nil)
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
}

func TestRender_EscapedBracesSurvive(t *testing.T) {
	t.Parallel()

	// The analysis prompt embeds a JSON example with doubled braces; they
	// must come out as single braces, never as missing placeholders.
	out, err := englishLoader().Render("organize_analysis", map[string]string{
		"log":     "aaa111 fix typo",
		"details": "aaa111: 1 file, 2 lines",
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"proposals"`)
	assert.Contains(t, out, "{")
	assert.NotContains(t, out, "{{")
}

func TestRender_JapaneseVariantSelected(t *testing.T) {
	t.Parallel()

	loader := NewLoader(&config.Config{Language: config.LanguageJapanese})
	out, err := loader.Render("commit_summary", map[string]string{
		"status": "M foo.txt",
		"diff":   "diff",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "日本語")
}

func TestRender_JapaneseFallsBackWithoutVariant(t *testing.T) {
	t.Parallel()

	// revision_description has no _ja variant; the shared template serves
	// both languages.
	loader := NewLoader(&config.Config{Language: config.LanguageJapanese})
	out, err := loader.Render("revision_description", map[string]string{
		"tool_name": "Write",
		"file_name": "api.go",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "api.go")
}

func TestRender_OverrideDirShadowsEmbedded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "unit_name.md"),
		[]byte("custom prompt: {prompt}"), 0o644))

	loader := NewLoader(&config.Config{Language: config.LanguageEnglish, TemplateDir: dir})
	out, err := loader.Render("unit_name", map[string]string{"prompt": "add caching"})
	require.NoError(t, err)
	assert.Equal(t, "custom prompt: add caching", out)
}
