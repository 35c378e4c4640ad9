package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"traceview/internal/config"
)

// initInput allows tests to override stdin for init prompts.
var initInput io.Reader = os.Stdin

// runInit builds the handler for the init command.
func runInit(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		dir := flags.String("dir", "", "Project root (default: current directory)")
		apiBaseURL := flags.String("api", "", "Trace API base URL to write")
		assumeYes := flags.Bool("yes", false, "Accept defaults without prompting")
		positional, code, ok := parseFlags(cmd, flags, args, stdout, stderr)
		if !ok {
			return code
		}
		if len(positional) > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(positional, " "))
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		root := strings.TrimSpace(*dir)
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				fmt.Fprintf(stderr, "Init failed: %v\n", err)
				return ExitError
			}
			root = wd
		}
		root, err := filepath.Abs(root)
		if err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}
		target := config.ConfigPath(root)
		if _, err := os.Stat(target); err == nil {
			fmt.Fprintf(stderr, "Init failed: config already exists at %q\n", target)
			return ExitError
		}

		in := initInput
		if in == nil {
			in = os.Stdin
		}
		ask := newPrompter(in, stdout)

		baseURL := strings.TrimSpace(*apiBaseURL)
		addGitignore := isGitRoot(root)
		if !*assumeYes {
			confirm, err := ask.confirm(fmt.Sprintf("Initialize traceview config in %s?", config.ConfigDir(root)), true)
			if err != nil {
				fmt.Fprintf(stderr, "Init failed: %v\n", err)
				return ExitError
			}
			if !confirm {
				fmt.Fprintln(stderr, "Init cancelled.")
				return ExitError
			}
			if baseURL == "" {
				baseURL, err = ask.text("Trace API base URL", config.DefaultBaseURL)
				if err != nil {
					fmt.Fprintf(stderr, "Init failed: %v\n", err)
					return ExitError
				}
			}
			if addGitignore {
				addGitignore, err = ask.confirm("Add .env to .gitignore?", true)
				if err != nil {
					fmt.Fprintf(stderr, "Init failed: %v\n", err)
					return ExitError
				}
			}
		}

		path, err := config.WriteScaffold(root, baseURL)
		if err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		if addGitignore {
			updated, err := addGitignoreEntry(root, config.DotEnvFileName)
			if err != nil {
				fmt.Fprintf(stderr, "Init failed: update .gitignore: %v\n", err)
				return ExitError
			}
			if updated {
				fmt.Fprintf(stdout, "Updated %s\n", filepath.Join(root, ".gitignore"))
			}
		}
		return ExitOK
	}
}

// isGitRoot reports whether root holds a git checkout.
func isGitRoot(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}
