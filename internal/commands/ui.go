package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const defaultTerminalWidth = 80

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true)
	bracketStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#c0caf5"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7"))
)

// isInteractive reports whether stdin and stdout are both attached to a
// terminal.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return width
}

// sectionHeader renders "-- [LABEL] name -----" filled to width.
func sectionHeader(label, name string, width int) string {
	left := fmt.Sprintf("%s %s%s%s %s ",
		dividerStyle.Render("--"),
		bracketStyle.Render("["),
		labelStyle.Render(label),
		bracketStyle.Render("]"),
		nameStyle.Render(name),
	)

	fill := max(width-lipgloss.Width(left), 0)
	return left + dividerStyle.Render(strings.Repeat("-", fill))
}

// withSpinner runs action behind a spinner when attached to a terminal and
// directly otherwise.
func withSpinner(title string, action func()) error {
	if !isInteractive() {
		action()
		return nil
	}

	return spinner.New().
		Type(spinner.Line).
		Style(spinnerStyle).
		Title(" " + title).
		Action(action).
		Run()
}
