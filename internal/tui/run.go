package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"traceview/internal/view"
)

// RunOptions configures an interactive session.
type RunOptions struct {
	Source  Source
	RunID   string
	Search  view.Search
	NoColor bool
	Input   io.Reader
	Output  io.Writer
}

// Result is how an interactive session ended.
type Result struct {
	Search view.Search
	// LoadErr is the failure still on screen when the user quit, if any.
	LoadErr error
}

// Run starts the interactive viewer and blocks until the user quits or ctx is
// done. It returns the final view state so callers can print a resumable URL.
func Run(ctx context.Context, opts RunOptions) (Result, error) {
	model := NewModel(Options{
		Context: ctx,
		Source:  opts.Source,
		RunID:   opts.RunID,
		Search:  opts.Search,
		NoColor: opts.NoColor,
	})
	programOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	final, err := tea.NewProgram(model, programOpts...).Run()
	if err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return Result{Search: opts.Search}, err
	}
	if finished, ok := final.(Model); ok {
		return Result{Search: finished.Search(), LoadErr: finished.LoadErr()}, nil
	}
	return Result{Search: opts.Search}, nil
}

// PrintPlain loads the trace once and writes it as static text.
func PrintPlain(ctx context.Context, w io.Writer, source Source, runID string, search view.Search, noColor bool) error {
	resp, err := source.Load(ctx, runID)
	if err != nil {
		return err
	}
	return RenderPlain(w, view.BuildPage(runID, resp, search), noColor)
}
