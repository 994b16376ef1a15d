// Package styles contains the shared styles for the terminal UI components.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type RenderFunc func(string ...string) string

const (
	Check  = "✔"
	Cross  = "✘"
	Arrow  = "→"
	Folder = ""
	Dot    = "•"
)

const (
	ColorSuccess = "#22c55e"
	ColorError   = "#d75f6b"
	ColorSubtle  = "#a3a3a3"
	ColorMuted   = "#6b7280"
)

var (
	Bold    = lipgloss.NewStyle().Bold(true).Render
	Padding = lipgloss.NewStyle().PaddingLeft(1).Render

	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).PaddingLeft(1).Render
	Subtle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSubtle)).PaddingLeft(1).Render
	Muted   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted)).Render
)

// ErrorBox renders title above message inside a left border. Each line of a
// multi-line message gets its own border segment.
func ErrorBox(title, message string) string {
	red := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	subtle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSubtle))

	lines := []string{red.Render("╭ " + title)}
	for line := range strings.Lines(strings.TrimRight(message, "\n")) {
		lines = append(lines, red.Render("│")+" "+subtle.Render(strings.TrimRight(line, "\n")))
	}
	lines = append(lines, red.Render("╵"))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
