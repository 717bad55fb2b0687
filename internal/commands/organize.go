package commands

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/vcspilot/vcspilot/internal/models"
	"github.com/vcspilot/vcspilot/internal/organize"
	"github.com/vcspilot/vcspilot/internal/ui"
)

// organizeCommand holds the flags for the organize command.
type organizeCommand struct {
	app            *App
	path           string
	dryRun         bool
	auto           bool
	aggressive     bool
	limit          int
	tinyThreshold  int
	excludePattern string
}

func newOrganizeCommand(app *App) *cobra.Command {
	oc := &organizeCommand{app: app}

	cobraCmd := &cobra.Command{
		Use:   "organize",
		Short: "Analyze recent history and squash noisy commits",
		Long: `Analyze the most recent commits and propose squash operations for
tiny, trivial, or closely related commits. Proposals come from fixed
rules and, when a model is reachable, an AI analysis pass.

Nothing is rewritten without confirmation: the default mode reviews each
proposal interactively, --dry-run only prints the proposal table, and
--auto applies every proposal above the confidence cutoff. A backup
reference is created before the first rewrite either way.`,
		RunE: oc.run,
	}

	cobraCmd.Flags().StringVarP(&oc.path, "path", "p", "", "repository path (default current directory)")
	cobraCmd.Flags().BoolVar(&oc.dryRun, "dry-run", false, "print proposals without rewriting anything")
	cobraCmd.Flags().BoolVar(&oc.auto, "auto", false, "apply proposals without confirmation")
	cobraCmd.Flags().BoolVar(&oc.aggressive, "aggressive", false, "also apply low-confidence proposals")
	cobraCmd.Flags().IntVar(&oc.limit, "limit", 0, "commits to examine (default from config)")
	cobraCmd.Flags().IntVar(&oc.tinyThreshold, "tiny-threshold", 0, "changed-line cutoff for tiny commits (default from config)")
	cobraCmd.Flags().StringVar(&oc.excludePattern, "exclude-pattern", "", "skip proposals touching commits whose message or files match this regexp")

	return cobraCmd
}

func (oc *organizeCommand) run(cmd *cobra.Command, _ []string) error {
	cfg := oc.app.Config()

	backend, err := oc.app.Backend(oc.path)
	if err != nil {
		return err
	}

	opts := organize.Options{
		Limit:         cfg.Organize.Limit,
		TinyThreshold: cfg.Organize.TinyThreshold,
		Aggressive:    oc.aggressive,
	}
	if oc.limit > 0 {
		opts.Limit = oc.limit
	}
	if oc.tinyThreshold > 0 {
		opts.TinyThreshold = oc.tinyThreshold
	}
	if oc.excludePattern != "" {
		pattern, err := regexp.Compile(oc.excludePattern)
		if err != nil {
			return errors.Wrap(err, "invalid --exclude-pattern")
		}
		opts.ExcludePattern = pattern
	}

	organizer := organize.New(cfg, backend, oc.app.Client(), oc.app.Templates(), oc.app.Logger())

	proposals, err := organizer.Analyze(cmd.Context(), opts)
	if err != nil {
		return err
	}

	reporter := ui.NewReporter(cmd.OutOrStdout())
	if oc.dryRun {
		reporter.ProposalTable(proposals)
		return nil
	}
	if len(proposals) == 0 {
		reporter.ProposalTable(proposals)
		return nil
	}

	if oc.auto {
		return oc.applyAll(cmd.Context(), organizer, reporter, proposals)
	}
	return oc.review(cmd.Context(), organizer, proposals)
}

// applyAll executes eligible proposals without confirmation.
func (oc *organizeCommand) applyAll(ctx context.Context, organizer *organize.Organizer, reporter *ui.Reporter, proposals []models.SquashProposal) error {
	var failed int
	for _, p := range proposals {
		if !organize.Eligible(p, oc.aggressive) {
			reporter.Skipped(p, fmt.Sprintf("confidence %.2f below cutoff, use --aggressive", p.Confidence))
			continue
		}
		backupRef, err := organizer.Execute(ctx, p)
		if err != nil {
			reporter.Error(p, err)
			failed++
			continue
		}
		reporter.Applied(p, backupRef)
	}
	if failed > 0 {
		return errors.Newf("%d proposal(s) failed", failed)
	}
	return nil
}

// review walks the proposals one by one in the full-screen view, asking
// for confirmation before each rewrite.
func (oc *organizeCommand) review(ctx context.Context, organizer *organize.Organizer, proposals []models.SquashProposal) error {
	ui.SetupTUI()
	ui.TotalProposals = len(proposals)
	ui.AppliedProposals = 0
	ui.LastApplied.SetText("[yellow]No proposals applied yet[white]")
	ui.UpdateProgressBar()

	go func() {
		defer ui.App.Stop()

		for _, p := range proposals {
			ui.UpdateProposalDetails(p)
			if !organize.Eligible(p, oc.aggressive) {
				ui.LogInfo("Skipping low-confidence proposal targeting %s, use --aggressive to include it", p.TargetCommit)
				continue
			}

			message := fmt.Sprintf("Squash %d commit(s) into %s?\n\n%s\n\n'No' is selected by default. Use Tab to select 'Yes' if you want to proceed.",
				len(p.SourceCommits), p.TargetCommit, p.Reason)
			if !ui.ShowConfirmationDialog(message) {
				ui.LogInfo("Skipped proposal targeting %s", p.TargetCommit)
				continue
			}

			ui.UpdateStatus(fmt.Sprintf("Squashing into %s...", p.TargetCommit))
			backupRef, err := organizer.Execute(ctx, p)
			if err != nil {
				ui.LogError("Squash into %s failed: %v", p.TargetCommit, err)
				continue
			}
			ui.LogSuccess("Squashed into %s (backup: %s)", p.TargetCommit, backupRef)
			ui.MoveToLastApplied()
			ui.AppliedProposals++
			ui.UpdateProgressBar()
		}
		ui.UpdateStatus("Done")
	}()

	return ui.App.SetRoot(ui.MainFlex, true).Run()
}
