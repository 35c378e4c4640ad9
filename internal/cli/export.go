package cli

import (
	"flag"
	"fmt"
	"io"
	"time"

	"traceview/internal/export"
	"traceview/internal/loader"
)

// exportNow is a test seam for the exported_at timestamp.
var exportNow = time.Now

// runExport builds the handler for the export command.
func runExport(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		var common commonFlags
		common.bind(fs, "warn")
		out := fs.String("out", "", "DuckDB file to create or update")
		runIDs, code, ok := parseFlags(cmd, fs, args, stdout, stderr)
		if !ok {
			return code
		}
		if *out == "" {
			fmt.Fprintln(stderr, "Missing --out")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if len(runIDs) == 0 {
			fmt.Fprintln(stderr, "Missing <run-id>")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		env, err := common.resolve(stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Config error:\n%v\n", err)
			return ExitError
		}
		defer env.close()
		ctx, stop := signalContext()
		defer stop()

		db, err := export.Open(ctx, *out)
		if err != nil {
			fmt.Fprintf(stderr, "Export failed: %v\n", err)
			return ExitError
		}
		defer db.Close()

		exit := ExitOK
		for _, runID := range runIDs {
			resp, err := env.loader.Load(ctx, runID)
			if err != nil {
				fmt.Fprintf(stderr, "%s: %s\n", runID, loader.Message(err))
				exit = ExitError
				continue
			}
			summary, err := export.WriteTrace(ctx, db, runID, resp, exportNow())
			if err != nil {
				fmt.Fprintf(stderr, "%s: export failed: %v\n", runID, err)
				exit = ExitError
				continue
			}
			fmt.Fprintf(stdout, "Exported %s: %d steps, %d with errors\n", summary.RunID, summary.Steps, summary.Errors)
		}
		return exit
	}
}
