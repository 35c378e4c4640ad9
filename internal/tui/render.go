package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"traceview/internal/loader"
	"traceview/internal/view"
)

// renderHeader renders the run header line.
func renderHeader(page view.Page, noColor bool) string {
	return stylize("Run "+page.RunID, noColor, lipgloss.Color("33"))
}

// renderSummary renders the visible and error counts.
func renderSummary(page view.Page, noColor bool) string {
	line := "Showing " + strconv.Itoa(len(page.Rows)) + " of " + strconv.Itoa(page.Total) +
		" steps | Errors: " + strconv.Itoa(page.ErrorCount)
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderFilters renders the active filter state.
func renderFilters(state view.State, noColor bool) string {
	errors := "off"
	if state.ErrorsOnly {
		errors = "on"
	}
	line := "Errors only: " + errors
	if state.Query != "" {
		line += " | Search: " + strconv.Quote(state.Query)
	}
	return stylize(line, noColor, lipgloss.Color("240"))
}

// renderFooter renders the key help line.
func renderFooter(searching bool, noColor bool) string {
	help := "up/down move | enter select | esc close | e errors | / search | r reload | q quit"
	if searching {
		help = "type to filter | enter/esc done"
	}
	return stylize(help, noColor, lipgloss.Color("244"))
}

// renderLoadError renders a failed load. Validation failures keep their own prefix.
func renderLoadError(err error, noColor bool) string {
	color := lipgloss.Color("160")
	if loader.Classify(err) == loader.FailureValidation {
		color = lipgloss.Color("178")
	}
	return stylize(loader.Message(err), noColor, color) + "\n" + stylize("press r to retry", noColor, lipgloss.Color("244"))
}

func emptyMessage(page view.Page) string {
	if page.Total == 0 {
		return "This run has no steps."
	}
	return "No steps match the current filters."
}

// renderDetail renders every field of the selected step.
func renderDetail(detail view.Detail, noColor bool) string {
	var b strings.Builder
	b.WriteString(stylize(detail.Label, noColor, lipgloss.Color("39")))
	b.WriteString("\n")
	fields := [][2]string{
		{"Step id", detail.ID},
		{"Tool", detail.Tool},
		{"Started", detail.Start},
		{"Ended", detail.End},
		{"Duration", detail.Duration},
		{"Status", detail.Status},
	}
	for _, field := range fields {
		b.WriteString(stylize(padRight(field[0], 9), noColor, lipgloss.Color("244")))
		b.WriteString(field[1])
		b.WriteString("\n")
	}
	b.WriteString("Input:\n")
	b.WriteString(indent(orNone(detail.Input)))
	b.WriteString("\nOutput:\n")
	b.WriteString(indent(orNone(detail.Output)))
	if detail.Failed {
		b.WriteString("\n")
		errLine := "Error: " + detail.ErrorMsg
		if detail.ErrorType != "" {
			errLine += " (" + detail.ErrorType + ")"
		}
		b.WriteString(stylize(errLine, noColor, lipgloss.Color("160")))
	}
	return b.String()
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
