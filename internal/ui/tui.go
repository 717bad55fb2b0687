package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/vcspilot/vcspilot/internal/models"
)

// TUI components
var (
	App                *tview.Application
	MainFlex           *tview.Flex
	ProgressBar        *tview.TextView
	LogView            *tview.TextView
	StatusBar          *tview.TextView
	ProposalDetails    *tview.TextView
	LastApplied        *tview.TextView
	TotalProposals     int
	AppliedProposals   int
	ConfirmationResult bool
	ConfirmationDone   bool
)

// SetupTUI initializes the terminal UI components
func SetupTUI() {
	App = tview.NewApplication()
	MainFlex = tview.NewFlex().SetDirection(tview.FlexRow)

	header := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("vcspilot organize").
		SetTextColor(tcell.ColorYellow)

	ProgressBar = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	// Configure log view with auto-scrolling
	LogView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true).
		SetChangedFunc(func() {
			App.QueueUpdateDraw(func() {
				LogView.ScrollToEnd()
			})
		})
	LogView.SetBorder(true)
	LogView.SetTitle("Log")
	LogView.SetTitleColor(tcell.ColorGreen)

	ProposalDetails = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true).
		SetChangedFunc(func() {
			App.Draw()
		})
	ProposalDetails.SetBorder(true)
	ProposalDetails.SetTitle("Current Proposal")
	ProposalDetails.SetTitleColor(tcell.ColorBlue)

	LastApplied = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true).
		SetChangedFunc(func() {
			App.Draw()
		})
	LastApplied.SetBorder(true)
	LastApplied.SetTitle("Last Applied")
	LastApplied.SetTitleColor(tcell.ColorPurple)

	StatusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[yellow]Press Ctrl+C to exit[white]")

	detailsFlex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ProposalDetails, 0, 1, false).
		AddItem(LastApplied, 0, 1, false)

	MainFlex.AddItem(header, 1, 1, false).
		AddItem(ProgressBar, 1, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(LogView, 0, 3, false).
			AddItem(detailsFlex, 0, 2, false),
			0, 10, false).
		AddItem(StatusBar, 1, 1, false)

	App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			App.Stop()
		case tcell.KeyPgUp:
			scrollLog(-1)
		case tcell.KeyPgDn:
			scrollLog(1)
		case tcell.KeyEnd:
			LogView.ScrollToEnd()
		case tcell.KeyHome:
			LogView.ScrollTo(0, 0)
		default:
			return event
		}
		return nil
	})
}

// scrollLog pages the log view up or down by one screen.
func scrollLog(direction int) {
	_, _, _, height := LogView.GetInnerRect()
	row, _ := LogView.GetScrollOffset()
	LogView.ScrollTo(row+direction*(height-1), 0)
}

// ShowConfirmationDialog displays a confirmation dialog and waits for user
// input. "No" holds focus so a stray Enter never rewrites history.
func ShowConfirmationDialog(message string) bool {
	ConfirmationResult = false
	ConfirmationDone = false

	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"Yes", "No"}).
		SetFocus(1).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			ConfirmationResult = (buttonLabel == "Yes")
			ConfirmationDone = true
			App.SetRoot(MainFlex, true)
		}).
		SetBackgroundColor(tcell.ColorDefault).
		SetTextColor(tcell.ColorRed)

	App.SetRoot(modal, true)
	App.Draw()

	for !ConfirmationDone {
		time.Sleep(100 * time.Millisecond)
	}

	return ConfirmationResult
}

// UpdateProgressBar updates the progress bar with the current status
func UpdateProgressBar() {
	if TotalProposals == 0 {
		ProgressBar.SetText("[yellow]No proposals to apply[white]")
		return
	}
	const barWidth = 50
	done := barWidth * AppliedProposals / TotalProposals
	bar := "[green]" + strings.Repeat("█", done) + "[gray]" + strings.Repeat("░", barWidth-done)
	ProgressBar.SetText(fmt.Sprintf("%s[white] [green]%d/%d proposals applied (%.1f%%)[white]",
		bar, AppliedProposals, TotalProposals,
		float64(AppliedProposals)/float64(TotalProposals)*100))
	App.Draw()
}

// logLine writes one timestamped, tagged entry to the log view.
func logLine(tag, format string, args ...interface{}) {
	fmt.Fprintf(LogView, "[blue]%s[white] %s: %s\n",
		time.Now().Format("15:04:05"), tag, fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...interface{}) {
	logLine("[yellow]INFO[white]", format, args...)
}

func LogError(format string, args ...interface{}) {
	logLine("[red]ERROR[white]", format, args...)
}

func LogSuccess(format string, args ...interface{}) {
	logLine("[green]SUCCESS[white]", format, args...)
}

// UpdateProposalDetails shows the proposal currently awaiting confirmation
func UpdateProposalDetails(p models.SquashProposal) {
	ProposalDetails.Clear()
	fmt.Fprintf(ProposalDetails, "[yellow]Squash:[white]\n%s\n\n", strings.Join(p.SourceCommits, "\n"))
	fmt.Fprintf(ProposalDetails, "[yellow]Into:[white]\n%s\n\n", p.TargetCommit)
	fmt.Fprintf(ProposalDetails, "[red]Reason:[white]\n%s\n\n", p.Reason)
	fmt.Fprintf(ProposalDetails, "[green]New Message:[white]\n%s\n\n", p.SuggestedMessage)
	fmt.Fprintf(ProposalDetails, "[blue]Confidence:[white] %.2f\n", p.Confidence)
}

// MoveToLastApplied moves the current proposal into the applied panel
func MoveToLastApplied() {
	LastApplied.Clear()
	LastApplied.SetText(ProposalDetails.GetText(true))
}

// UpdateStatus updates the status bar text
func UpdateStatus(text string) {
	StatusBar.SetText(fmt.Sprintf("[yellow]%s[white]", text))
	App.Draw()
}
