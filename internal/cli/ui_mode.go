package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Viewer modes accepted by --ui and ui.mode.
const (
	uiModeAuto  = "auto"
	uiModeLive  = "live"
	uiModePlain = "plain"
)

// uiModeDecision says whether view starts the interactive viewer.
type uiModeDecision struct {
	useLive bool
	warning string
}

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

// resolveUIMode picks the interactive viewer only for a terminal stdout.
// Debug logging forces plain output so log lines do not tear the screen.
func resolveUIMode(mode string, debugLogs bool, stdout io.Writer) (uiModeDecision, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized == "" {
		normalized = uiModeAuto
	}
	switch normalized {
	case uiModeAuto, uiModeLive, uiModePlain:
	default:
		return uiModeDecision{}, fmt.Errorf("invalid ui mode %q (expected auto|live|plain)", mode)
	}
	if normalized == uiModePlain || debugLogs {
		return uiModeDecision{}, nil
	}
	if isTerminal(stdout) {
		return uiModeDecision{useLive: true}, nil
	}
	if normalized == uiModeLive {
		return uiModeDecision{warning: "Live UI requested but stdout is not a TTY; falling back to plain output."}, nil
	}
	return uiModeDecision{}, nil
}

// defaultIsTerminal inspects stdout for TTY support.
func defaultIsTerminal(stdout io.Writer) bool {
	switch w := stdout.(type) {
	case *os.File:
		return term.IsTerminal(int(w.Fd()))
	case interface{ Fd() uintptr }:
		return term.IsTerminal(int(w.Fd()))
	default:
		return false
	}
}
