// Package config builds the process-wide configuration once at startup.
// Everything downstream receives the struct explicitly; nothing reads the
// environment after loading.
package config

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// Prompt languages accepted by the language option.
const (
	LanguageEnglish  = "english"
	LanguageJapanese = "japanese"
)

// Default option values.
const (
	DefaultModel         = "qwen2.5:14b"
	DefaultLanguage      = LanguageEnglish
	DefaultMaxTokens     = 100
	DefaultTemperature   = 0.1
	DefaultCommandWait   = 30 * time.Second
	DefaultOrganizeLimit = 10
	DefaultTinyThreshold = 5
)

// ConfigError marks a broken installation: unlike backend or completion
// failures it is fatal and surfaced at startup.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Option, e.Reason)
}

// Config is the application configuration.
type Config struct {
	// Model is the completion model identifier.
	Model string `mapstructure:"model"`

	// Language selects the prompt language: english or japanese.
	Language string `mapstructure:"language"`

	// MaxTokens bounds completion responses.
	MaxTokens int `mapstructure:"max_tokens"`

	// Temperature is the completion sampling temperature in [0, 1].
	Temperature float64 `mapstructure:"temperature"`

	// Timeouts groups subprocess deadlines.
	Timeouts TimeoutConfig `mapstructure:"timeouts"`

	// Organize groups the history-organizer tunables.
	Organize OrganizeConfig `mapstructure:"organize"`

	// TemplateDir optionally shadows the embedded prompt templates.
	TemplateDir string `mapstructure:"template_dir"`
}

// TimeoutConfig holds subprocess deadlines.
type TimeoutConfig struct {
	Command time.Duration `mapstructure:"command"`
}

// OrganizeConfig holds the history-organizer tunables.
type OrganizeConfig struct {
	// Limit is how many commits an analysis examines.
	Limit int `mapstructure:"limit"`

	// TinyThreshold is the changed-line cutoff for tiny-commit detection.
	TinyThreshold int `mapstructure:"tiny_threshold"`
}

// Validate checks option values. Any violation is a ConfigError and fatal.
func (c *Config) Validate() error {
	if c.Model == "" {
		return &ConfigError{Option: "model", Reason: "must not be empty"}
	}
	if c.Language != LanguageEnglish && c.Language != LanguageJapanese {
		return &ConfigError{Option: "language", Reason: fmt.Sprintf("must be %q or %q, got %q", LanguageEnglish, LanguageJapanese, c.Language)}
	}
	if c.MaxTokens <= 0 {
		return &ConfigError{Option: "max_tokens", Reason: "must be positive"}
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return &ConfigError{Option: "temperature", Reason: "must be in [0, 1]"}
	}
	if c.Timeouts.Command <= 0 {
		return &ConfigError{Option: "timeouts.command", Reason: "must be positive"}
	}
	if c.Organize.Limit <= 0 {
		return &ConfigError{Option: "organize.limit", Reason: "must be positive"}
	}
	if c.Organize.TinyThreshold < 0 {
		return &ConfigError{Option: "organize.tiny_threshold", Reason: "must not be negative"}
	}
	return nil
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
