// Package install wires vcspilot into the editor-assistant's configuration:
// hook entries in settings.json, the commit-organizer agent file, and the
// organize slash command.
package install

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/vcspilot/vcspilot/internal/config"
	"github.com/vcspilot/vcspilot/internal/template"
)

// Settings-relative install targets.
const (
	settingsFileName = "settings.json"
	agentFileName    = "commit-organizer.md"
	commandFileName  = "organize-commits.md"
)

// backupStamp formats the settings backup suffix.
const backupStamp = "20060102_150405"

// hookBinary is the command name the assistant invokes. Hook entries owned
// by earlier installs are recognized by this substring during the merge.
const hookBinary = "vcspilot"

// Per-event subprocess timeouts written into the hook entries, in seconds.
const (
	preHookTimeout    = 15
	postHookTimeout   = 30
	promptHookTimeout = 15
)

// editToolMatcher selects the file-editing tool calls in settings.json.
const editToolMatcher = "Edit|Write|MultiEdit"

// Options selects where and how to install.
type Options struct {
	// Global installs under ~/.claude instead of the project directory.
	Global bool

	// Path overrides the project directory. Incompatible with Global.
	Path string

	// DryRun prints what would be written without touching anything.
	DryRun bool
}

// commandHook is one executable entry inside a settings.json hook matcher.
type commandHook struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// hookMatcher groups command hooks under a tool-name matcher.
type hookMatcher struct {
	Matcher string        `json:"matcher,omitempty"`
	Hooks   []commandHook `json:"hooks"`
}

// Installer writes the assistant-side configuration.
type Installer struct {
	cfg       *config.Config
	templates *template.Loader
	out       io.Writer
	log       *zap.Logger
}

// New builds an Installer writing progress to out.
func New(cfg *config.Config, templates *template.Loader, out io.Writer, log *zap.Logger) *Installer {
	if out == nil {
		out = os.Stdout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Installer{cfg: cfg, templates: templates, out: out, log: log.Named("install")}
}

// Hooks merges the PreToolUse, PostToolUse, and UserPromptSubmit entries
// into settings.json. Foreign hooks are preserved; entries from earlier
// vcspilot installs are replaced. The previous file is backed up first.
func (i *Installer) Hooks(opts Options) error {
	claudeDir, err := resolveClaudeDir(opts)
	if err != nil {
		return err
	}
	settingsFile := filepath.Join(claudeDir, settingsFileName)

	existing, err := readSettings(settingsFile)
	if err != nil {
		// A corrupt file is not silently clobbered.
		return errors.Wrapf(err, "reading %s", settingsFile)
	}

	merged := mergeHookSettings(existing, hookSettings())

	if opts.DryRun {
		color.New(color.FgYellow).Fprintln(i.out, "dry run, settings not written")
		return i.printJSON(merged)
	}

	if backup, err := backupFile(settingsFile); err != nil {
		return err
	} else if backup != "" {
		fmt.Fprintf(i.out, "backed up existing settings to %s\n", backup)
	}

	if err := writeSettings(settingsFile, merged); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(i.out, "hooks installed: %s\n", settingsFile)
	return nil
}

// Agent writes the commit-organizer agent definition under .claude/agents/.
func (i *Installer) Agent(opts Options) error {
	return i.renderedFile(opts, "agents", agentFileName, "agent_organizer")
}

// SlashCommand writes the /organize-commits command under .claude/commands/.
func (i *Installer) SlashCommand(opts Options) error {
	return i.renderedFile(opts, "commands", commandFileName, "slash_organize")
}

// All runs the hook, agent, and slash-command installs in order.
func (i *Installer) All(opts Options) error {
	if err := i.Hooks(opts); err != nil {
		return err
	}
	if err := i.Agent(opts); err != nil {
		return err
	}
	return i.SlashCommand(opts)
}

func (i *Installer) renderedFile(opts Options, subdir, fileName, templateName string) error {
	claudeDir, err := resolveClaudeDir(opts)
	if err != nil {
		return err
	}
	dir := filepath.Join(claudeDir, subdir)
	target := filepath.Join(dir, fileName)

	content, err := i.templates.Render(templateName, map[string]string{
		"language": i.cfg.Language,
	})
	if err != nil {
		return err
	}

	if opts.DryRun {
		color.New(color.FgYellow).Fprintf(i.out, "dry run, would write %s\n", target)
		fmt.Fprintln(i.out, content)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", target)
	}
	color.New(color.FgGreen).Fprintf(i.out, "installed %s\n", target)
	return nil
}

func (i *Installer) printJSON(v any) error {
	enc := json.NewEncoder(i.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resolveClaudeDir picks the .claude directory the options point at.
func resolveClaudeDir(opts Options) (string, error) {
	if opts.Global && opts.Path != "" {
		return "", errors.New("--global and --path cannot be combined")
	}
	if opts.Global {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolving home directory")
		}
		return filepath.Join(home, ".claude"), nil
	}
	base := opts.Path
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		base = cwd
	}
	return filepath.Join(base, ".claude"), nil
}

// hookSettings builds the settings fragment this tool owns.
func hookSettings() map[string][]hookMatcher {
	return map[string][]hookMatcher{
		"PreToolUse": {{
			Matcher: editToolMatcher,
			Hooks: []commandHook{{
				Type: "command", Command: hookBinary + " pre-tool-use", Timeout: preHookTimeout,
			}},
		}},
		"PostToolUse": {{
			Matcher: editToolMatcher,
			Hooks: []commandHook{{
				Type: "command", Command: hookBinary + " post-tool-use", Timeout: postHookTimeout,
			}},
		}},
		"UserPromptSubmit": {{
			Hooks: []commandHook{{
				Type: "command", Command: hookBinary + " user-prompt-submit", Timeout: promptHookTimeout,
			}},
		}},
	}
}

// readSettings loads settings.json as loosely typed JSON so unknown keys
// survive the round trip. A missing file yields an empty document.
func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

// mergeHookSettings splices ours into existing, dropping stale entries of
// ours by the hook-binary substring and leaving everything else untouched.
func mergeHookSettings(existing map[string]any, ours map[string][]hookMatcher) map[string]any {
	hooksAny, _ := existing["hooks"].(map[string]any)
	if hooksAny == nil {
		hooksAny = map[string]any{}
	}

	for event, matchers := range ours {
		var kept []any
		if current, ok := hooksAny[event].([]any); ok {
			for _, entry := range current {
				if !ownsEntry(entry) {
					kept = append(kept, entry)
				}
			}
		}
		for _, m := range matchers {
			kept = append(kept, toAny(m))
		}
		hooksAny[event] = kept
	}

	existing["hooks"] = hooksAny
	return existing
}

// ownsEntry reports whether a settings hook entry invokes this binary.
func ownsEntry(entry any) bool {
	matcher, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	hooks, ok := matcher["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		cmd, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if command, ok := cmd["command"].(string); ok && strings.Contains(command, hookBinary) {
			return true
		}
	}
	return false
}

// toAny round-trips a typed matcher through JSON so it merges with the
// loosely typed settings document.
func toAny(m hookMatcher) any {
	data, _ := json.Marshal(m)
	var out any
	_ = json.Unmarshal(data, &out)
	return out
}

// backupFile copies path aside with a timestamp suffix. No file, no backup.
func backupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	backup := path + ".backup." + time.Now().Format(backupStamp)
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "backing up %s", path)
	}
	return backup, nil
}

func writeSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
