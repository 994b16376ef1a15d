package templates

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/qgen/internal/core"
)

var (
	// template: name:line:col: message
	positionWithColumnRe = regexp.MustCompile(`template: [^:]+:(\d+):(\d+): (.+)`)
	// template: name:line: message
	positionRe = regexp.MustCompile(`template: [^:]+:(\d+): (.+)`)
)

// newRenderError builds a *core.TemplateRenderError from a text/template
// error, extracting the position and the surrounding template lines.
func newRenderError(path, text string, err error) *core.TemplateRenderError {
	re := &core.TemplateRenderError{
		Path:    path,
		Message: err.Error(),
		Cause:   err,
	}

	parsePosition(re, err.Error())
	re.Context = contextLines(text, re.Line)
	cleanMessage(re)

	return re
}

func parsePosition(re *core.TemplateRenderError, errStr string) {
	matches := positionWithColumnRe.FindStringSubmatch(errStr)
	if len(matches) > 3 {
		if line, err := strconv.Atoi(matches[1]); err == nil {
			re.Line = line
		}
		if col, err := strconv.Atoi(matches[2]); err == nil {
			re.Column = col
		}
		re.Message = matches[3]
		return
	}

	matches = positionRe.FindStringSubmatch(errStr)
	if len(matches) > 2 {
		if line, err := strconv.Atoi(matches[1]); err == nil {
			re.Line = line
		}
		re.Message = matches[2]
	}
}

// contextLines returns up to two lines either side of line.
func contextLines(text string, line int) []string {
	if line == 0 {
		return nil
	}

	lines := strings.Split(text, "\n")
	start := max(line-3, 0)
	end := min(line+2, len(lines))
	if start >= end {
		return nil
	}

	return lines[start:end]
}

func cleanMessage(re *core.TemplateRenderError) {
	replacements := []struct{ old, new string }{
		{"can't evaluate field", "unknown field"},
		{"map has no entry for key", "missing key"},
		{"executing", "error in"},
		{"at <", "accessing variable <"},
	}

	for _, r := range replacements {
		re.Message = strings.ReplaceAll(re.Message, r.old, r.new)
	}

	baseName := filepath.Base(re.Path)
	re.Message = strings.ReplaceAll(re.Message, fmt.Sprintf(`error in "%s" `, baseName), "")
	re.Message = strings.ReplaceAll(re.Message, fmt.Sprintf(`"%s" `, baseName), "")
}

// FormatRenderError renders re as a styled code frame for terminal output.
func FormatRenderError(re *core.TemplateRenderError) string {
	if re.Line == 0 {
		return re.Error()
	}

	var (
		errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		fileStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Underline(true)
		lineNumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		errorLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
		contextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		pointerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	)

	var sb strings.Builder

	sb.WriteString(errorStyle.Render("Template Error") + "\n\n")

	location := fmt.Sprintf("%s:%d", re.Path, re.Line)
	if re.Column > 0 {
		location += fmt.Sprintf(":%d", re.Column)
	}
	sb.WriteString(fileStyle.Render(location) + "\n\n")

	if len(re.Context) > 0 {
		startLine := max(re.Line-2, 1)

		for i, line := range re.Context {
			currentLine := startLine + i
			lineNumStr := fmt.Sprintf("%4d │ ", currentLine)

			if currentLine != re.Line {
				sb.WriteString(lineNumStyle.Render(lineNumStr))
				sb.WriteString(contextStyle.Render(line) + "\n")
				continue
			}

			sb.WriteString(errorLineStyle.Render(lineNumStr))
			sb.WriteString(errorLineStyle.Render(line) + "\n")

			if re.Column > 0 && re.Column <= len(line) {
				spaces := strings.Repeat(" ", 6+re.Column)
				sb.WriteString(spaces + pointerStyle.Render("^") + "\n")
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(errorStyle.Render("Error: ") + re.Message + "\n")

	return sb.String()
}
