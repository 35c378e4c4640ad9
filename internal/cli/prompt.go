package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// prompter asks init questions on out and reads answers from in.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// answer reads one trimmed line. eof is true when input ended on this line.
func (p *prompter) answer() (line string, eof bool, err error) {
	raw, err := p.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		return strings.TrimSpace(raw), true, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(raw), false, nil
}

// text asks for a value, returning fallback on an empty answer.
func (p *prompter) text(label, fallback string) (string, error) {
	for {
		if fallback != "" {
			fmt.Fprintf(p.out, "%s [%s]: ", label, fallback)
		} else {
			fmt.Fprintf(p.out, "%s: ", label)
		}
		line, eof, err := p.answer()
		if err != nil {
			return "", err
		}
		switch {
		case line != "":
			return line, nil
		case fallback != "":
			return fallback, nil
		case eof:
			return "", fmt.Errorf("missing input for %s", label)
		}
	}
}

// confirm asks a yes/no question; an empty answer picks fallback.
func (p *prompter) confirm(label string, fallback bool) (bool, error) {
	hint := "y/N"
	if fallback {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", label, hint)
		line, eof, err := p.answer()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return fallback, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if eof {
			return false, fmt.Errorf("invalid response %q", line)
		}
		fmt.Fprintln(p.out, "Please answer yes or no.")
	}
}
