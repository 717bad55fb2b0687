// Package hook implements the editor-assistant lifecycle handlers. Each
// handler reads one JSON envelope from stdin, does its VCS work, and maps
// the outcome to an exit code. Hooks degrade instead of blocking: the only
// non-zero exit that stops the assistant is a failed commit.
package hook

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/vcspilot/vcspilot/internal/config"
	"github.com/vcspilot/vcspilot/internal/models"
	"github.com/vcspilot/vcspilot/internal/summarize"
	"github.com/vcspilot/vcspilot/internal/vcs"
	"github.com/vcspilot/vcspilot/pkg/helpers"
)

// Exit codes understood by the editor-assistant hook protocol.
const (
	ExitOK    = 0
	ExitError = 1
	// ExitBlock tells the assistant the tool result must not stand; the
	// stdout payload carries the reason.
	ExitBlock = 2
)

// maxInputBytes caps the stdin envelope. Tool inputs can carry whole file
// contents, but anything past this is not a hook envelope.
const maxInputBytes = 1 << 20

// maxDescriptionRunes caps the unit description derived from a prompt.
const maxDescriptionRunes = 60

// minPromptRunes is the shortest prompt worth opening a unit for.
const minPromptRunes = 10

// editTools are the tool calls that modify files and therefore bracket a
// unit of work.
var editTools = map[string]bool{
	"Edit":      true,
	"Write":     true,
	"MultiEdit": true,
}

// transientPathPatterns mark scratch files that never deserve their own
// unit of work.
var transientPathPatterns = []string{
	"/tmp/", "/temp/", "/.claude/", "/.git/", ".tmp", ".temp", ".cache",
}

// questionPatterns match prompts that ask rather than instruct, in both
// supported prompt languages.
var questionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(what|how|why|when|where|which)`),
	regexp.MustCompile(`[?？]`),
	regexp.MustCompile(`^(教えて|説明|どう)`),
	regexp.MustCompile(`(とは|って何|について)`),
}

// Detector resolves a working directory to a VCS backend.
type Detector func(dir string) (vcs.Backend, error)

// Handler runs the lifecycle hooks against one repository detection
// strategy and one summarizer.
type Handler struct {
	cfg        *config.Config
	summarizer *summarize.Summarizer
	detect     Detector
	stdout     io.Writer
	log        *zap.Logger
}

// New builds a Handler. A nil detector falls back to marker-directory
// detection with the default subprocess runner.
func New(cfg *config.Config, summarizer *summarize.Summarizer, detect Detector, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if detect == nil {
		detect = func(dir string) (vcs.Backend, error) {
			return vcs.Detect(dir, "", nil, log)
		}
	}
	return &Handler{
		cfg:        cfg,
		summarizer: summarizer,
		detect:     detect,
		stdout:     os.Stdout,
		log:        log.Named("hook"),
	}
}

// SetStdout redirects the block-payload stream, for tests.
func (h *Handler) SetStdout(w io.Writer) { h.stdout = w }

// ReadInput decodes one hook envelope from r, bounded at maxInputBytes.
func ReadInput(r io.Reader) (*models.HookInput, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		return nil, errors.Wrap(err, "reading hook input")
	}
	var in models.HookInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.Wrap(err, "decoding hook input")
	}
	if in.Cwd == "" {
		in.Cwd, _ = os.Getwd()
	}
	return &in, nil
}

// PreToolUse opens a fresh unit of work before a file-editing tool call.
// Every failure is log-and-continue; this hook never stops an edit.
func (h *Handler) PreToolUse(ctx context.Context, in *models.HookInput) int {
	if !editTools[in.ToolName] {
		return ExitOK
	}
	if isTransientPath(in.ToolInput.FilePath) {
		h.log.Debug("transient path, no new unit", zap.String("path", in.ToolInput.FilePath))
		return ExitOK
	}

	backend, err := h.detect(in.Cwd)
	if err != nil {
		h.logDetectFailure(err)
		return ExitOK
	}

	description := h.summarizer.RevisionDescription(in.ToolName, in.ToolInput.FilePath)
	name := unitNameForEdit(in.ToolName, in.ToolInput.FilePath)
	unit, err := backend.StartNewUnit(ctx, name, description)
	if err != nil {
		// A dirty tree or a flaky subprocess must not stop the edit.
		h.log.Warn("could not start unit", zap.Error(err))
		return ExitOK
	}
	h.log.Info("started unit",
		zap.String("id", unit.ID),
		zap.String("description", description))
	return ExitOK
}

// PostToolUse commits the changes a file-editing tool call left behind.
// Completion failures fall back to a deterministic message; only a failed
// commit blocks, with a decision payload on stdout.
func (h *Handler) PostToolUse(ctx context.Context, in *models.HookInput) int {
	if !editTools[in.ToolName] {
		return ExitOK
	}

	backend, err := h.detect(in.Cwd)
	if err != nil {
		h.logDetectFailure(err)
		return ExitOK
	}

	state, err := backend.Status(ctx)
	if err != nil {
		h.log.Warn("status failed", zap.Error(err))
		return ExitOK
	}
	if !state.HasChanges {
		h.log.Debug("no changes, nothing to commit")
		return ExitOK
	}

	message, err := h.summarizer.CommitSummary(ctx, state)
	if err != nil {
		h.log.Warn("commit summary degraded", zap.Error(err))
	}

	if err := backend.Commit(ctx, message); err != nil {
		h.log.Error("commit failed", zap.Error(err))
		h.block("automatic commit failed: " + err.Error())
		return ExitBlock
	}
	h.log.Info("committed", zap.String("message", message))
	return ExitOK
}

// UserPromptSubmit opens a unit of work named after the submitted prompt.
// Question-like and trivially short prompts are left alone.
func (h *Handler) UserPromptSubmit(ctx context.Context, in *models.HookInput) int {
	prompt := strings.TrimSpace(in.Prompt)
	if !shouldStartUnitFor(prompt) {
		return ExitOK
	}

	backend, err := h.detect(in.Cwd)
	if err != nil {
		h.logDetectFailure(err)
		return ExitOK
	}

	name := h.summarizer.UnitName(ctx, prompt)
	description := helpers.TruncateString(prompt, maxDescriptionRunes)
	unit, err := backend.StartNewUnit(ctx, name, description)
	if err != nil {
		h.log.Warn("could not start unit", zap.Error(err))
		return ExitOK
	}
	h.log.Info("started unit",
		zap.String("id", unit.ID),
		zap.String("name", name))
	return ExitOK
}

// block writes the decision payload the assistant parses on exit code 2.
func (h *Handler) block(reason string) {
	payload := models.HookDecision{Decision: "block", Reason: reason}
	if err := json.NewEncoder(h.stdout).Encode(payload); err != nil {
		h.log.Error("writing block payload", zap.Error(err))
	}
}

func (h *Handler) logDetectFailure(err error) {
	if errors.Is(err, vcs.ErrNotARepository) {
		h.log.Debug("not a repository, skipping")
		return
	}
	h.log.Warn("backend detection failed", zap.Error(err))
}

// isTransientPath reports whether the path points at scratch space.
func isTransientPath(path string) bool {
	if path == "" {
		return false
	}
	lower := strings.ToLower(path)
	for _, pattern := range transientPathPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// shouldStartUnitFor filters out prompts that do not describe work.
func shouldStartUnitFor(prompt string) bool {
	if len([]rune(prompt)) < minPromptRunes {
		return false
	}
	lower := strings.ToLower(prompt)
	for _, pattern := range questionPatterns {
		if pattern.MatchString(lower) {
			return false
		}
	}
	return true
}

// unitNameForEdit derives a branch-safe name from the tool call, for the
// backend kinds that need one.
func unitNameForEdit(toolName, filePath string) string {
	base := filePath
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if name := helpers.SanitizeUnitName(toolName+"-"+base, 30); name != "" {
		return name
	}
	return strings.ToLower(toolName)
}
