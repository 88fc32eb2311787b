// Package diagnostic collects positioned errors and warnings produced while
// decoding, lowering and linting units.
package diagnostic

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single lowering error, warning, or info message
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
	File     string   // optional; Format falls back to its filename argument
	Hint     string   // optional suggestion
	Trace    []string // active node-visit trace, innermost last
}

// Diagnostics is an ordered collection of diagnostics. The zero value is
// not ready for use; call New.
type Diagnostics struct {
	items []Diagnostic
}

// New creates a new empty Diagnostics collection
func New() *Diagnostics {
	return &Diagnostics{items: make([]Diagnostic, 0)}
}

func (d *Diagnostics) add(item Diagnostic) {
	d.items = append(d.items, item)
}

// Errorf adds an error with no file; Format supplies one.
func (d *Diagnostics) Errorf(line, col int, format string, args ...interface{}) {
	d.add(Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...), Line: line, Column: col})
}

// ErrorfInFile adds an error positioned in file.
func (d *Diagnostics) ErrorfInFile(file string, line, col int, format string, args ...interface{}) {
	d.add(Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...), Line: line, Column: col, File: file})
}

// WarningfInFile adds a warning positioned in file.
func (d *Diagnostics) WarningfInFile(file string, line, col int, format string, args ...interface{}) {
	d.add(Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...), Line: line, Column: col, File: file})
}

// WarningWithHintInFile adds a warning with a suggestion line.
func (d *Diagnostics) WarningWithHintInFile(file string, line, col int, msg, hint string) {
	d.add(Diagnostic{Severity: Warning, Message: msg, Line: line, Column: col, File: file, Hint: hint})
}

// ErrorWithTrace adds an error carrying the node-visit trace that led to
// it. The trace is copied.
func (d *Diagnostics) ErrorWithTrace(file string, line, col int, msg string, trace []string) {
	d.add(Diagnostic{
		Severity: Error,
		Message:  msg,
		Line:     line,
		Column:   col,
		File:     file,
		Trace:    append([]string(nil), trace...),
	})
}

// Merge appends all diagnostics from other, keeping their order.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.items = append(d.items, other.items...)
}

// HasErrors returns true if there are any error-level diagnostics
func (d *Diagnostics) HasErrors() bool {
	return d.count(Error) > 0
}

// Errors returns only the error-level diagnostics
func (d *Diagnostics) Errors() []Diagnostic {
	errs := make([]Diagnostic, 0)
	for _, item := range d.items {
		if item.Severity == Error {
			errs = append(errs, item)
		}
	}
	return errs
}

// All returns all diagnostics regardless of severity
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns the total number of diagnostics
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// WarningCount returns the number of warning-level diagnostics
func (d *Diagnostics) WarningCount() int {
	return d.count(Warning)
}

func (d *Diagnostics) count(sev Severity) int {
	n := 0
	for _, item := range d.items {
		if item.Severity == sev {
			n++
		}
	}
	return n
}

// Format renders every diagnostic, one per line, with hint and trace
// continuation lines. There is no trailing newline.
//
// Output format:
//
//	error[todo.yaml:3:10]: no lowering rule for *typed.New
//	  hint: wrap the construct in a raw escape
//	warning[todo.yaml:5:1]: extraction of Ok[0] kept
func (d *Diagnostics) Format(filename string) string {
	lines := make([]string, 0, len(d.items))
	for _, item := range d.items {
		file := item.File
		if file == "" {
			file = filename
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s[%s:%d:%d]: %s", item.Severity, file, item.Line, item.Column, item.Message)
		if item.Hint != "" {
			sb.WriteString("\n  hint: " + item.Hint)
		}
		if len(item.Trace) > 0 {
			sb.WriteString("\n  trace: " + strings.Join(item.Trace, " > "))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}
