package commands

import (
	"github.com/spf13/cobra"

	"github.com/vcspilot/vcspilot/internal/install"
)

// installFlags registers the shared install target flags.
func installFlags(cobraCmd *cobra.Command, opts *install.Options) {
	cobraCmd.Flags().BoolVar(&opts.Global, "global", false, "install into ~/.claude instead of the project")
	cobraCmd.Flags().StringVarP(&opts.Path, "path", "p", "", "project directory (default current directory)")
	cobraCmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print what would be written")
}

func newInstallCommand(app *App) *cobra.Command {
	var opts install.Options

	cobraCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the lifecycle hooks into Claude Code settings",
		Long: `Merge the vcspilot hook entries into .claude/settings.json (or
~/.claude/settings.json with --global). Hooks installed by other tools
are left untouched; an existing file is backed up first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installer(app, cmd).Hooks(opts)
		},
	}

	installFlags(cobraCmd, &opts)
	return cobraCmd
}

func newInstallAgentCommand(app *App) *cobra.Command {
	var opts install.Options

	cobraCmd := &cobra.Command{
		Use:   "install-agent",
		Short: "Install the commit-organizer agent definition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installer(app, cmd).Agent(opts)
		},
	}

	installFlags(cobraCmd, &opts)
	return cobraCmd
}

func newInstallSlashCommandCommand(app *App) *cobra.Command {
	var opts install.Options

	cobraCmd := &cobra.Command{
		Use:   "install-slash-command",
		Short: "Install the /organize-commits slash command",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installer(app, cmd).SlashCommand(opts)
		},
	}

	installFlags(cobraCmd, &opts)
	return cobraCmd
}

func newInstallAllCommand(app *App) *cobra.Command {
	var opts install.Options

	cobraCmd := &cobra.Command{
		Use:   "install-all",
		Short: "Install hooks, agent, and slash command in one go",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installer(app, cmd).All(opts)
		},
	}

	installFlags(cobraCmd, &opts)
	return cobraCmd
}

func installer(app *App, cmd *cobra.Command) *install.Installer {
	return install.New(app.Config(), app.Templates(), cmd.OutOrStdout(), app.Logger())
}
