package view

import "traceview/internal/trace"

// Page is everything a renderer needs for one trace view. It is rebuilt from
// the fetched trace and the current search on every render.
type Page struct {
	RunID      string
	State      State
	Rows       []Row
	Total      int
	ErrorCount int
	Detail     *Detail

	search Search
}

// BuildPage derives the rows, counts and selected detail for a run.
// An unknown selected id yields no detail.
func BuildPage(runID string, resp trace.Response, search Search) Page {
	state := search.State()
	page := Page{
		RunID:      runID,
		State:      state,
		Rows:       Rows(resp.Steps, state),
		Total:      len(resp.Steps),
		ErrorCount: ErrorCount(resp.Steps),
		search:     search,
	}
	if step, ok := Find(resp.Steps, state.SelectedStepID); ok {
		detail := NewDetail(step)
		page.Detail = &detail
	}
	return page
}

// Search returns the search the page was built from.
func (p Page) Search() Search {
	return p.search
}

// SelectHref links to the page with stepID selected.
func (p Page) SelectHref(stepID string) string {
	return RunPath(p.RunID) + p.search.WithSelection(stepID)
}

// CloseHref links to the page with the selection cleared.
func (p Page) CloseHref() string {
	return RunPath(p.RunID) + p.search.ClearSelection()
}

// ToggleErrorsHref links to the page with errors-only flipped.
func (p Page) ToggleErrorsHref() string {
	return RunPath(p.RunID) + p.search.WithErrorsOnly(!p.State.ErrorsOnly)
}

// SelfHref links to the page as it is currently shown.
func (p Page) SelfHref() string {
	return RunPath(p.RunID) + p.search.String()
}
