package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"traceview/internal/config"
	"traceview/internal/trace"
	"traceview/internal/view"
)

// runValidate builds the handler for the validate command.
func runValidate(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", "", "Path to config file (default: search for .traceview/config.yml)")
		maxBytes := flags.Int64("max-bytes", config.DefaultMaxPayloadBytes, "Largest trace payload accepted, in bytes")
		files, code, ok := parseFlags(cmd, flags, args, stdout, stderr)
		if !ok {
			return code
		}

		if len(files) == 0 {
			return validateConfig(*configPath, stdout, stderr)
		}
		exit := ExitOK
		for _, path := range files {
			if !validateTraceFile(path, *maxBytes, stdout, stderr) {
				exit = ExitError
			}
		}
		return exit
	}
}

func validateConfig(configPath string, stdout, stderr io.Writer) int {
	path := configPath
	if path == "" {
		found, err := config.FindConfigPath("")
		if err != nil {
			fmt.Fprintf(stderr, "Validation failed:\n%v\n", err)
			return ExitError
		}
		path = found
	}
	if _, err := config.Load(path); err != nil {
		fmt.Fprintf(stderr, "Validation failed:\n%s\n", err.Error())
		return ExitError
	}
	fmt.Fprintln(stdout, "Config OK")
	return ExitOK
}

// validateTraceFile decodes one payload and reports its issues.
func validateTraceFile(path string, maxBytes int64, stdout, stderr io.Writer) bool {
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return false
	}
	defer file.Close()

	resp, err := trace.Decode(file, maxBytes)
	if err != nil {
		var validationErr *trace.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Fprintf(stderr, "%s: invalid trace payload\n", path)
			for _, issue := range validationErr.Issues {
				fmt.Fprintf(stderr, "  %s: %s\n", issue.Path, issue.Message)
			}
			return false
		}
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return false
	}
	fmt.Fprintf(stdout, "%s: OK (%d steps, %d with errors)\n", path, len(resp.Steps), view.ErrorCount(resp.Steps))
	return true
}
