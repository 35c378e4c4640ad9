package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"traceview/internal/loader"
	"traceview/internal/trace"
	"traceview/internal/view"
)

// Source loads traces and can drop a cached one for reloads.
type Source interface {
	Load(ctx context.Context, runID string) (trace.Response, error)
	Invalidate(runID string)
}

// Model renders a run trace in the terminal. Its view state is only the
// encoded search string; rows, counts and the selection are re-derived from it
// on every update.
type Model struct {
	ctx    context.Context
	source Source
	runID  string
	search view.Search

	resp    trace.Response
	loaded  bool
	loading bool
	err     error

	page      view.Page
	table     table.Model
	input     textinput.Model
	detail    viewport.Model
	searching bool
	width     int
	height    int
	noColor   bool
}

// Options configures the terminal viewer model.
type Options struct {
	Context context.Context
	Source  Source
	RunID   string
	Search  view.Search
	NoColor bool
}

// NewModel constructs a viewer model for one run.
func NewModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	t := table.New(
		table.WithColumns(defaultColumns()),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles(opts.NoColor))
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "search tool, input, output, error"
	input.SetValue(opts.Search.State().Query)
	m := Model{
		ctx:     ctx,
		source:  opts.Source,
		runID:   opts.RunID,
		search:  opts.Search,
		loading: true,
		table:   t,
		input:   input,
		detail:  viewport.New(80, 8),
		noColor: opts.NoColor,
	}
	m.refresh()
	return m
}

// Search returns the current view state as a search string.
func (m Model) Search() view.Search {
	return m.search
}

// Page returns the page derived from the current trace and search.
func (m Model) Page() view.Page {
	return m.page
}

// LoadErr returns the last load failure, or nil once a trace is shown.
func (m Model) LoadErr() error {
	return m.err
}

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// loadedMsg carries a finished load.
type loadedMsg struct {
	resp trace.Response
	err  error
}

func (m Model) load() tea.Cmd {
	ctx, source, runID := m.ctx, m.source, m.runID
	return func() tea.Msg {
		if source == nil {
			return loadedMsg{err: loader.ErrEmptyRunID}
		}
		resp, err := source.Load(ctx, runID)
		return loadedMsg{resp: resp, err: err}
	}
}

// Update handles loads, resizes and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = typed.Width, typed.Height
		m.table.SetWidth(typed.Width)
		m.table.SetColumns(columnsForWidth(typed.Width))
		m.layout()
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = typed.err
		if typed.err == nil {
			m.resp = typed.resp
			m.loaded = true
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(typed)
		}
		return m.updateKeys(typed)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter", "esc":
		m.searching = false
		m.input.Blur()
		m.table.Focus()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.search.State().Query {
		m.search = view.ParseSearch(m.search.WithQuery(m.input.Value()))
		m.refresh()
	}
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.table.MoveUp(1)
	case "down", "j":
		m.table.MoveDown(1)
	case "enter":
		if id, ok := m.cursorStepID(); ok {
			m.search = view.ParseSearch(m.search.WithSelection(id))
			m.refresh()
		}
	case "esc":
		if m.search.State().HasSelection() {
			m.search = view.ParseSearch(m.search.ClearSelection())
			m.refresh()
		}
	case "e":
		m.search = view.ParseSearch(m.search.WithErrorsOnly(!m.search.State().ErrorsOnly))
		m.refresh()
	case "/":
		m.searching = true
		m.table.Blur()
		return m, m.input.Focus()
	case "r":
		if m.source != nil {
			m.source.Invalidate(m.runID)
		}
		m.loading = true
		m.err = nil
		return m, m.load()
	case "pgup":
		m.detail.PageUp()
	case "pgdown":
		m.detail.PageDown()
	}
	return m, nil
}

func (m Model) cursorStepID() (string, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.page.Rows) {
		return "", false
	}
	return m.page.Rows[cursor].ID, true
}

// refresh re-derives the page, rows and detail from the trace and search.
func (m *Model) refresh() {
	m.page = view.BuildPage(m.runID, m.resp, m.search)
	m.table.SetRows(rowsForPage(m.page))
	for i, row := range m.page.Rows {
		if row.Selected {
			m.table.SetCursor(i)
			break
		}
	}
	if m.table.Cursor() >= len(m.page.Rows) {
		m.table.SetCursor(max(len(m.page.Rows)-1, 0))
	}
	if m.page.Detail != nil {
		m.detail.SetContent(renderDetail(*m.page.Detail, m.noColor))
	} else {
		m.detail.SetContent("")
	}
	m.detail.GotoTop()
	m.layout()
}

// layout splits the height between the table and the detail pane.
func (m *Model) layout() {
	if m.height <= 0 {
		return
	}
	available := max(m.height-6, 2)
	if m.page.Detail == nil {
		m.table.SetHeight(available)
		return
	}
	tableHeight := max(available/2, 1)
	m.table.SetHeight(tableHeight)
	m.detail.Width = max(m.width, 20)
	m.detail.Height = max(available-tableHeight, 1)
}

// View renders the viewer.
func (m Model) View() string {
	parts := []string{renderHeader(m.page, m.noColor)}
	switch {
	case m.err != nil:
		parts = append(parts, renderLoadError(m.err, m.noColor))
	case m.loading && !m.loaded:
		parts = append(parts, stylize("Loading trace data...", m.noColor, lipgloss.Color("244")))
	default:
		parts = append(parts, renderSummary(m.page, m.noColor), renderFilters(m.page.State, m.noColor))
		if m.searching {
			parts = append(parts, m.input.View())
		}
		if len(m.page.Rows) == 0 {
			parts = append(parts, emptyMessage(m.page))
		} else {
			parts = append(parts, m.table.View())
		}
		if m.page.Detail != nil {
			parts = append(parts, m.detail.View())
		}
	}
	parts = append(parts, renderFooter(m.searching, m.noColor))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
