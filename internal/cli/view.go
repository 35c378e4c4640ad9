package cli

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"

	"traceview/internal/loader"
	"traceview/internal/tui"
	"traceview/internal/view"
)

// runLive is a test seam for the interactive viewer.
var runLive = tui.Run

// runView builds the handler for the view command.
func runView(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		var common commonFlags
		common.bind(fs, "warn")
		errorsOnly := fs.Bool("errors", false, "Show only failed steps")
		query := fs.String("q", "", "Search text matched against tool, input, output and error")
		stepID := fs.String("step", "", "Open the detail panel for a step id")
		uiMode := fs.String("ui", "", "UI mode (auto|live|plain; default from config)")
		noColor := fs.Bool("no-color", false, "Disable colored output")
		positional, code, ok := parseFlags(cmd, fs, args, stdout, stderr)
		if !ok {
			return code
		}
		if len(positional) != 1 {
			fmt.Fprintln(stderr, "Expected exactly one <run-id|viewer-url>")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		runID, search, err := parseViewTarget(positional[0])
		if err != nil {
			fmt.Fprintf(stderr, "Invalid target: %v\n", err)
			return ExitUsage
		}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "errors":
				search = view.ParseSearch(search.WithErrorsOnly(*errorsOnly))
			case "q":
				search = view.ParseSearch(search.WithQuery(*query))
			case "step":
				if *stepID == "" {
					search = view.ParseSearch(search.ClearSelection())
				} else {
					search = view.ParseSearch(search.WithSelection(*stepID))
				}
			}
		})

		env, err := common.resolve(stderr)
		if err != nil {
			fmt.Fprintf(stderr, "Config error:\n%v\n", err)
			return ExitError
		}
		defer env.close()
		mode := env.cfg.UI.Mode
		if *uiMode != "" {
			mode = *uiMode
		}
		decision, err := resolveUIMode(mode, strings.EqualFold(common.logLevel, "debug"), stdout)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return ExitUsage
		}
		if decision.warning != "" {
			fmt.Fprintln(stderr, decision.warning)
		}
		colorOff := *noColor || env.cfg.UI.NoColor

		ctx, stop := signalContext()
		defer stop()
		if decision.useLive {
			result, err := runLive(ctx, tui.RunOptions{
				Source:  env.loader,
				RunID:   runID,
				Search:  search,
				NoColor: colorOff,
				Output:  stdout,
			})
			if err != nil {
				fmt.Fprintf(stderr, "Viewer error: %v\n", err)
				return ExitError
			}
			fmt.Fprintf(stdout, "Last view: %s%s\n", view.RunPath(runID), result.Search.String())
			if result.LoadErr != nil {
				fmt.Fprintln(stderr, loader.Message(result.LoadErr))
				return ExitError
			}
			return ExitOK
		}
		if err := tui.PrintPlain(ctx, stdout, env.loader, runID, search, colorOff); err != nil {
			if message := loader.Message(err); message != "" {
				fmt.Fprintln(stderr, message)
			}
			return ExitError
		}
		return ExitOK
	}
}

// parseViewTarget accepts a bare run id or a viewer URL such as
// http://host/run/run_123?errors=true, whose query becomes the initial view.
func parseViewTarget(target string) (string, view.Search, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", view.Search{}, fmt.Errorf("run id is empty")
	}
	if !strings.Contains(target, "/run/") {
		return target, view.ParseSearch(""), nil
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return "", view.Search{}, err
	}
	_, escaped, found := strings.Cut(parsed.EscapedPath(), "/run/")
	if !found || escaped == "" || strings.Contains(escaped, "/") {
		return "", view.Search{}, fmt.Errorf("%q is not a run URL", target)
	}
	runID, err := url.PathUnescape(escaped)
	if err != nil {
		return "", view.Search{}, err
	}
	return runID, view.ParseSearch(parsed.RawQuery), nil
}
