package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"traceview/internal/view"
)

// tableStyles returns table styles for the viewer.
func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	if noColor {
		styles.Selected = lipgloss.NewStyle().Reverse(true)
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

func defaultColumns() []table.Column {
	return columnsForWidth(100)
}

// columnsForWidth gives the step label whatever the fixed columns leave.
func columnsForWidth(width int) []table.Column {
	const (
		startWidth    = 12
		toolWidth     = 14
		durationWidth = 10
		statusWidth   = 8
		padding       = 10
	)
	labelWidth := max(width-startWidth-toolWidth-durationWidth-statusWidth-padding, 12)
	return []table.Column{
		{Title: "Start", Width: startWidth},
		{Title: "Step", Width: labelWidth},
		{Title: "Tool", Width: toolWidth},
		{Title: "Duration", Width: durationWidth},
		{Title: "Status", Width: statusWidth},
	}
}

// rowsForPage converts the derived page rows into table rows.
func rowsForPage(page view.Page) []table.Row {
	rows := make([]table.Row, 0, len(page.Rows))
	for _, row := range page.Rows {
		marker := " "
		if row.Selected {
			marker = ">"
		}
		rows = append(rows, table.Row{
			marker + row.StartText,
			truncate(row.Label, 80),
			row.Tool,
			row.DurationText,
			row.Status,
		})
	}
	return rows
}
