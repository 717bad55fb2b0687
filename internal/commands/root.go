package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the vcspilot CLI.
func NewRootCommand(version string) *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "vcspilot",
		Short: "VCS automation for the Claude Code tool-use lifecycle",
		Long: `vcspilot hooks into Claude Code's tool-use lifecycle: before a file
edit it opens a fresh unit of work, after an edit it commits the change
with an AI-generated message, and on prompt submission it starts a unit
named from the prompt. It drives Jujutsu or Git, whichever the project
uses, and can analyze recent history to propose squash cleanups.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.Init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config file path (default .vcspilot.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newInstallCommand(app),
		newInstallAgentCommand(app),
		newInstallSlashCommandCommand(app),
		newInstallAllCommand(app),
		newAuthCommand(app),
		newSummarizeCommand(app),
		newOrganizeCommand(app),
		newPreToolUseCommand(app),
		newPostToolUseCommand(app),
		newUserPromptSubmitCommand(app),
		versionCmd(version),
	)

	return rootCmd
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// The app setup is not needed to print a version string.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "vcspilot %s\n", version)
		},
	}
}
