package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"traceview/internal/trace"
	"traceview/internal/view"
)

// Summary reports what WriteTrace stored.
type Summary struct {
	RunID      string
	Steps      int
	Errors     int
	ExportedAt time.Time
}

const upsertRunSQL = `INSERT INTO runs (run_id, exported_at, step_count, error_count, first_start, last_end)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id) DO UPDATE SET
  exported_at = excluded.exported_at,
  step_count = excluded.step_count,
  error_count = excluded.error_count,
  first_start = excluded.first_start,
  last_end = excluded.last_end`

const insertStepSQL = `INSERT INTO steps (run_id, step_id, ordinal, label, tool_name, tool_json,
  start_time, end_time, duration_ms, status, input, output, error_message, error_type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// WriteTrace stores a normalized trace, replacing any previous export of the
// same run. Steps are numbered in chronological order.
func WriteTrace(ctx context.Context, db *sql.DB, runID string, resp trace.Response, exportedAt time.Time) (Summary, error) {
	if ctx == nil {
		return Summary{}, errors.New("export: context is nil")
	}
	if db == nil {
		return Summary{}, errors.New("export: db is nil")
	}
	if runID == "" {
		return Summary{}, errors.New("export: run id is required")
	}
	ordered := view.Order(resp.Steps)
	summary := Summary{
		RunID:      runID,
		Steps:      len(ordered),
		Errors:     view.ErrorCount(ordered),
		ExportedAt: exportedAt.UTC(),
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin export: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var firstStart, lastEnd any
	if len(ordered) > 0 {
		firstStart = ordered[0].StartTime
		end := ordered[0].EndTime
		for _, step := range ordered[1:] {
			if step.EndTime.After(end) {
				end = step.EndTime
			}
		}
		lastEnd = end
	}
	if _, err := tx.ExecContext(ctx, upsertRunSQL, runID, summary.ExportedAt, summary.Steps, summary.Errors, firstStart, lastEnd); err != nil {
		return Summary{}, fmt.Errorf("upsert run %s: %w", runID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM steps WHERE run_id = ?", runID); err != nil {
		return Summary{}, fmt.Errorf("clear steps for %s: %w", runID, err)
	}
	for i, step := range ordered {
		toolJSON, err := json.Marshal(step.Tool)
		if err != nil {
			return Summary{}, fmt.Errorf("encode tool for step %s: %w", step.ID, err)
		}
		var errMsg, errType any
		if step.Error != nil {
			errMsg = step.Error.Message
			errType = nullable(step.Error.Type)
		}
		_, err = tx.ExecContext(ctx, insertStepSQL,
			runID,
			step.ID,
			i,
			step.Label,
			step.Tool.Name,
			string(toolJSON),
			step.StartTime,
			step.EndTime,
			step.Duration().Milliseconds(),
			step.Status(),
			nullable(step.Input),
			nullable(step.Output),
			errMsg,
			errType,
		)
		if err != nil {
			return Summary{}, fmt.Errorf("insert step %s: %w", step.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit export: %w", err)
	}
	return summary, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
