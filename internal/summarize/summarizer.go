// Package summarize turns repository state into commit messages and unit
// names via the completion service, with deterministic fallbacks so a hook
// invocation always has something usable.
package summarize

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vcspilot/vcspilot/internal/completion"
	"github.com/vcspilot/vcspilot/internal/config"
	"github.com/vcspilot/vcspilot/internal/template"
	"github.com/vcspilot/vcspilot/internal/vcs"
	"github.com/vcspilot/vcspilot/pkg/helpers"
)

// maxUnitNameLen caps generated unit names.
const maxUnitNameLen = 20

// fallbackUnitName is the terminal fallback when nothing can be derived
// from the prompt.
const fallbackUnitName = "feature-work"

// unitNameTokens bounds the completion response for unit names, which are
// a handful of kebab-case words at most.
const unitNameTokens = 30

// Summarizer generates commit messages and unit names.
type Summarizer struct {
	cfg       *config.Config
	client    completion.Client
	templates *template.Loader
	log       *zap.Logger
}

// New builds a Summarizer. The client may be nil, in which case every
// generation takes the fallback path.
func New(cfg *config.Config, client completion.Client, templates *template.Loader, log *zap.Logger) *Summarizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Summarizer{cfg: cfg, client: client, templates: templates, log: log.Named("summarize")}
}

// CommitSummary produces a one-line commit message for the given state.
// On any completion failure it returns the deterministic fallback derived
// from the first changed file; the error reports what went wrong but the
// message is always usable.
func (s *Summarizer) CommitSummary(ctx context.Context, state vcs.RepoState) (string, error) {
	prompt, err := s.templates.Render("commit_summary", map[string]string{
		"status": state.StatusText,
		"diff":   state.DiffText,
	})
	if err != nil {
		// Broken template store is a configuration problem, but the hook
		// still gets its fallback.
		return FallbackMessage(state), err
	}

	if s.client == nil {
		return FallbackMessage(state), nil
	}

	text, err := s.client.Complete(ctx, completion.Request{
		Prompt:      prompt,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		s.log.Debug("completion failed, using fallback", zap.Error(err))
		return FallbackMessage(state), nil
	}

	message := firstLine(helpers.SanitizeCommitMessage(text))
	// A quote pair around the first line survives whole-text sanitizing
	// when the model appends chatter after it.
	message = strings.TrimSpace(strings.Trim(message, "\"'`"))
	if message == "" {
		return FallbackMessage(state), nil
	}
	return message, nil
}

// UnitName derives a kebab-case unit name from a user prompt. Completion
// failures fall back to the prompt's first words, then to a fixed name.
func (s *Summarizer) UnitName(ctx context.Context, prompt string) string {
	rendered, err := s.templates.Render("unit_name", map[string]string{"prompt": prompt})
	if err == nil && s.client != nil {
		text, cerr := s.client.Complete(ctx, completion.Request{
			Prompt:      rendered,
			MaxTokens:   unitNameTokens,
			Temperature: s.cfg.Temperature,
		})
		if cerr == nil {
			if name := helpers.SanitizeUnitName(firstLine(text), maxUnitNameLen); name != "" {
				return name
			}
		} else {
			s.log.Debug("unit name completion failed", zap.Error(cerr))
		}
	}

	if name := helpers.FirstWords(prompt, 3); name != "" {
		return name
	}
	return fallbackUnitName
}

// RevisionDescription renders the pre-edit unit description for a tool
// call. Falls back to "<tool> <file>" when the template store is broken.
func (s *Summarizer) RevisionDescription(toolName, filePath string) string {
	fileName := filepath.Base(filePath)
	desc, err := s.templates.Render("revision_description", map[string]string{
		"tool_name": toolName,
		"file_name": fileName,
	})
	if err != nil {
		return strings.TrimSpace(toolName + " " + fileName)
	}
	return strings.TrimSpace(desc)
}

// FallbackMessage derives a deterministic commit message from the first
// changed file in the status text, so a failed completion call never
// yields an empty or crashing result.
func FallbackMessage(state vcs.RepoState) string {
	if file := firstChangedFile(state.StatusText); file != "" {
		return "Update " + filepath.Base(file)
	}
	return "Update working copy"
}

// firstChangedFile finds the first "<flag> <path>" line in status output.
// Both git porcelain ("M  path") and jj status ("M path") fit the shape;
// section headers and hints have more than one leading word.
func firstChangedFile(status string) string {
	for _, line := range strings.Split(status, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && len(fields[0]) <= 2 {
			return fields[1]
		}
	}
	return ""
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
