package web

import (
	"slices"
	"strconv"

	"traceview/internal/trace"
	"traceview/internal/view"
)

//go:generate go run github.com/a-h/templ/cmd/templ generate

const sampleRunID = "run_123"

// layoutProps configures the page shell.
type layoutProps struct {
	Title    string
	StyleURL string
	Refresh  bool
}

// param is one name/value pair shown by a page.
type param struct {
	Key   string
	Value string
}

func summaryText(page view.Page) string {
	return "Showing " + strconv.Itoa(len(page.Rows)) + " of " + strconv.Itoa(page.Total) +
		" steps, " + strconv.Itoa(page.ErrorCount) + " with errors"
}

func toggleErrorsLabel(page view.Page) string {
	if page.State.ErrorsOnly {
		return "Show all steps"
	}
	return "Show errors only"
}

// carriedParams lists the query values the filter form does not own, sorted by
// key, so submitting it keeps them.
func carriedParams(page view.Page) []param {
	values := page.Search().Values()
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == view.ParamErrors || key == view.ParamQuery {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	var params []param
	for _, key := range keys {
		for _, value := range values[key] {
			params = append(params, param{Key: key, Value: value})
		}
	}
	return params
}

func rowClass(row view.Row) string {
	class := "step"
	if row.Status == trace.StatusError {
		class += " failed"
	}
	if row.Selected {
		class += " selected"
	}
	return class
}

func rowCells(row view.Row) []string {
	return []string{row.StartText, row.Label, row.Tool, row.DurationText, row.Status}
}

func detailFields(detail view.Detail) []param {
	return []param{
		{"Step id", detail.ID},
		{"Tool", detail.Tool},
		{"Started", detail.Start},
		{"Ended", detail.End},
		{"Duration", detail.Duration},
		{"Status", detail.Status},
	}
}

func orNone(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}
