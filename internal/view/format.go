package view

import (
	"strconv"
	"time"
)

// Timestamp layouts use UTC with millisecond precision so output never depends on locale.
const (
	TimestampLayout = "2006-01-02 15:04:05.000"
	ClockLayout     = "15:04:05.000"
)

// FormatTimestamp renders a full calendar timestamp, e.g. "2024-01-01 00:00:00.500 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout) + " UTC"
}

// FormatClock renders the time of day for list rows.
func FormatClock(t time.Time) string {
	return t.UTC().Format(ClockLayout)
}

// FormatDuration renders a duration in whole milliseconds, e.g. "1234ms".
func FormatDuration(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}
