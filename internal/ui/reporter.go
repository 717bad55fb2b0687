package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vcspilot/vcspilot/internal/models"
)

// Reporter writes organize results as plain console output, for --dry-run
// and non-interactive runs where the full-screen view is wrong.
type Reporter struct {
	out io.Writer
}

// NewReporter builds a Reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// ProposalTable renders the proposals as a table, newest first.
func (r *Reporter) ProposalTable(proposals []models.SquashProposal) {
	if len(proposals) == 0 {
		color.New(color.FgGreen).Fprintln(r.out, "history looks tidy, nothing to squash")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"#", "Squash", "Into", "Conf", "Reason", "New Message"})
	for i, p := range proposals {
		t.AppendRow(table.Row{
			i + 1,
			strings.Join(shortIDs(p.SourceCommits), "\n"),
			shortID(p.TargetCommit),
			fmt.Sprintf("%.2f", p.Confidence),
			p.Reason,
			p.SuggestedMessage,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// Applied reports one executed proposal and the backup ref guarding it.
func (r *Reporter) Applied(p models.SquashProposal, backupRef string) {
	color.New(color.FgGreen).Fprintf(r.out, "squashed %s into %s\n",
		strings.Join(shortIDs(p.SourceCommits), ", "), shortID(p.TargetCommit))
	if backupRef != "" {
		fmt.Fprintf(r.out, "backup ref: %s\n", backupRef)
	}
}

// Skipped reports a proposal left alone and why.
func (r *Reporter) Skipped(p models.SquashProposal, reason string) {
	color.New(color.FgYellow).Fprintf(r.out, "skipped %s: %s\n", shortID(p.TargetCommit), reason)
}

// Error reports a failed proposal.
func (r *Reporter) Error(p models.SquashProposal, err error) {
	color.New(color.FgRed).Fprintf(r.out, "failed %s: %v\n", shortID(p.TargetCommit), err)
}

// shortID trims a unit id to the familiar 8-character display form.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = shortID(id)
	}
	return out
}
