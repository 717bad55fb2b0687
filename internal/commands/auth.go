package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/vcspilot/vcspilot/internal/auth"
)

func newAuthCommand(app *App) *cobra.Command {
	var check bool

	cobraCmd := &cobra.Command{
		Use:   "auth [provider]",
		Short: "Authenticate with a completion provider",
		Long: `Run the provider's device-code flow and store the resulting token
under ~/.config/vcspilot/. Currently supports github-copilot.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := auth.ProviderGitHubCopilot
			if len(args) > 0 {
				provider = args[0]
			}
			if provider != auth.ProviderGitHubCopilot {
				return errors.Newf("unsupported provider %q, only %s is available", provider, auth.ProviderGitHubCopilot)
			}

			storePath, err := auth.DefaultStorePath()
			if err != nil {
				return err
			}
			authenticator := auth.New(auth.NewStore(storePath), cmd.OutOrStdout())

			if check {
				return authenticator.Check(cmd.Context())
			}
			return authenticator.Login(cmd.Context())
		},
	}

	cobraCmd.Flags().BoolVar(&check, "check", false, "validate the stored token instead of authenticating")

	return cobraCmd
}
