// Package template loads prompt templates and substitutes their named
// placeholders. Templates are embedded in the binary; a user directory can
// shadow individual files.
package template

import (
	"embed"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vcspilot/vcspilot/internal/config"
)

//go:embed templates/*.md
var embedded embed.FS

// placeholderPattern matches {name} tokens. Doubled braces escape a
// literal brace, mirroring how the templates were originally written.
var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Loader resolves template names to rendered text.
type Loader struct {
	// overrideDir, when non-empty, shadows embedded templates per file.
	overrideDir string

	// language picks the _ja variants when set to japanese.
	language string
}

// NewLoader builds a loader from the application config.
func NewLoader(cfg *config.Config) *Loader {
	return &Loader{overrideDir: cfg.TemplateDir, language: cfg.Language}
}

// Render loads the named template, applies the language suffix, and
// substitutes vars. A placeholder with no value is a ConfigError: the
// installation is broken and silently sending a blank to the model would
// only produce garbage commits.
func (l *Loader) Render(name string, vars map[string]string) (string, error) {
	content, err := l.read(l.localizedName(name))
	if err != nil {
		return "", err
	}

	// Shield escaped braces so {{literal}} text never looks like a
	// placeholder.
	content = strings.ReplaceAll(content, "{{", "\x00")
	content = strings.ReplaceAll(content, "}}", "\x01")

	var missing string
	rendered := placeholderPattern.ReplaceAllStringFunc(content, func(token string) string {
		key := token[1 : len(token)-1]
		value, ok := vars[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return token
		}
		return value
	})
	if missing != "" {
		return "", &config.ConfigError{
			Option: "template " + name,
			Reason: "no value for placeholder {" + missing + "}",
		}
	}

	rendered = strings.ReplaceAll(rendered, "\x00", "{")
	rendered = strings.ReplaceAll(rendered, "\x01", "}")
	return rendered, nil
}

// localizedName appends the _ja suffix for Japanese when that variant
// exists; templates without a variant are shared across languages.
func (l *Loader) localizedName(name string) string {
	if l.language != config.LanguageJapanese {
		return name
	}
	localized := name + "_ja"
	if _, err := l.read(localized); err == nil {
		return localized
	}
	return name
}

func (l *Loader) read(name string) (string, error) {
	filename := name + ".md"

	if l.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(l.overrideDir, filename))
		if err == nil {
			return string(data), nil
		}
	}

	data, err := embedded.ReadFile("templates/" + filename)
	if err != nil {
		return "", &config.ConfigError{Option: "template " + name, Reason: "template file not found"}
	}
	return string(data), nil
}
