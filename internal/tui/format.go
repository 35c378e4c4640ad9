package tui

import "strings"

// truncate shortens single-line text for table cells.
func truncate(text string, limit int) string {
	normalized := []rune(strings.Join(strings.Fields(text), " "))
	if len(normalized) <= limit {
		return string(normalized)
	}
	return string(normalized[:limit-3]) + "..."
}

func padRight(text string, width int) string {
	if len(text) >= width {
		return text + " "
	}
	return text + strings.Repeat(" ", width-len(text))
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

func orNone(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}
