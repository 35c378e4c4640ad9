package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"traceview/internal/trace"
	"traceview/internal/view"
)

// RenderPlain writes the page as a static text table followed by the selected
// step, for non-interactive output.
func RenderPlain(w io.Writer, page view.Page, noColor bool) error {
	lines := []string{
		renderHeader(page, noColor),
		renderSummary(page, noColor),
		renderFilters(page.State, noColor),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(page.Rows) == 0 {
		_, err := fmt.Fprintln(w, emptyMessage(page))
		if err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, plainTable(page, noColor)); err != nil {
			return err
		}
	}
	if page.Detail != nil {
		if _, err := fmt.Fprintf(w, "\n%s\n", renderDetail(*page.Detail, noColor)); err != nil {
			return err
		}
	}
	return nil
}

func plainTable(page view.Page, noColor bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Start", "Step", "Tool", "Duration", "Status", "Id")
	for _, row := range page.Rows {
		t.Row(row.StartText, truncate(row.Label, 60), row.Tool, row.DurationText, row.Status, row.ID)
	}
	t.StyleFunc(func(rowIndex, col int) lipgloss.Style {
		style := lipgloss.NewStyle().Padding(0, 1)
		if noColor || rowIndex == table.HeaderRow || rowIndex < 0 || rowIndex >= len(page.Rows) {
			return style
		}
		if page.Rows[rowIndex].Status == trace.StatusError {
			style = style.Foreground(lipgloss.Color("160"))
		}
		if page.Rows[rowIndex].Selected {
			style = style.Bold(true)
		}
		return style
	})
	return t.String()
}
