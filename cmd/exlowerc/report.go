package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/lhaig/exlower/internal/diagnostic"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// reporter prints diagnostics, colouring severities when the destination
// is a terminal.
type reporter struct {
	out   *os.File
	color bool
}

func newReporter(out *os.File) *reporter {
	return &reporter{out: out, color: useColor(out)}
}

func useColor(f *os.File) bool {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *reporter) print(d *diagnostic.Diagnostics, filename string) {
	if d == nil || d.Count() == 0 {
		return
	}
	text := d.Format(filename)
	if r.color {
		text = r.colorize(text)
	}
	fmt.Fprintln(r.out, text)
}

// colorize highlights the severity prefix of each diagnostic line and the
// hint and trace continuation lines.
func (r *reporter) colorize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "error["):
			lines[i] = ansiRed + "error" + ansiReset + line[len("error"):]
		case strings.HasPrefix(line, "warning["):
			lines[i] = ansiYellow + "warning" + ansiReset + line[len("warning"):]
		case strings.HasPrefix(line, "  hint:"), strings.HasPrefix(line, "  trace:"):
			lines[i] = ansiCyan + line + ansiReset
		}
	}
	return strings.Join(lines, "\n")
}
