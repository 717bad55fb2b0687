package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cockroachdb/errors"
)

// summarizeCommand holds the flags for the summarize command.
type summarizeCommand struct {
	app  *App
	path string
}

func newSummarizeCommand(app *App) *cobra.Command {
	sc := &summarizeCommand{app: app}

	cobraCmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print an AI commit message for the current changes",
		Long: `Generate the commit message vcspilot would use for the pending
changes, without committing anything. Useful for checking the model and
prompt setup.`,
		RunE: sc.run,
	}

	cobraCmd.Flags().StringVarP(&sc.path, "path", "p", "", "repository path (default current directory)")

	return cobraCmd
}

func (sc *summarizeCommand) run(cmd *cobra.Command, _ []string) error {
	backend, err := sc.app.Backend(sc.path)
	if err != nil {
		return err
	}
	state, err := backend.Status(cmd.Context())
	if err != nil {
		return err
	}
	if !state.HasChanges {
		return errors.New("no changes to summarize")
	}

	message, err := sc.app.Summarizer().CommitSummary(cmd.Context(), state)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}
