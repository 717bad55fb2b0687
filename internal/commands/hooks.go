package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vcspilot/vcspilot/internal/hook"
	"github.com/vcspilot/vcspilot/internal/models"
)

// The hook subcommands are invoked by the assistant, not by people, so
// they stay out of the help output.

func newPreToolUseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:    "pre-tool-use",
		Short:  "Hook: open a unit of work before a file edit",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHook(app, cmd, func(h *hook.Handler, ctx context.Context, in *models.HookInput) int {
				return h.PreToolUse(ctx, in)
			})
		},
	}
}

func newPostToolUseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:    "post-tool-use",
		Short:  "Hook: commit the changes a file edit left behind",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHook(app, cmd, func(h *hook.Handler, ctx context.Context, in *models.HookInput) int {
				return h.PostToolUse(ctx, in)
			})
		},
	}
}

func newUserPromptSubmitCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:    "user-prompt-submit",
		Short:  "Hook: open a unit of work named from the prompt",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHook(app, cmd, func(h *hook.Handler, ctx context.Context, in *models.HookInput) int {
				return h.UserPromptSubmit(ctx, in)
			})
		},
	}
}

// runHook reads the stdin envelope and dispatches. A non-zero handler
// result becomes the process exit code directly; the block payload is
// already on stdout by then.
func runHook(app *App, cmd *cobra.Command, fn func(*hook.Handler, context.Context, *models.HookInput) int) error {
	in, err := hook.ReadInput(cmd.InOrStdin())
	if err != nil {
		return err
	}
	h := hook.New(app.Config(), app.Summarizer(), nil, app.Logger())
	h.SetStdout(cmd.OutOrStdout())
	if code := fn(h, cmd.Context(), in); code != hook.ExitOK {
		_ = app.Logger().Sync()
		os.Exit(code)
	}
	return nil
}
