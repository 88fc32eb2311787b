package compiler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lhaig/exlower/internal/backend"
	"github.com/lhaig/exlower/internal/diagnostic"
	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/linter"
	"github.com/lhaig/exlower/internal/lower"
	"github.com/lhaig/exlower/internal/typed"
	"github.com/lhaig/exlower/internal/unitfile"
)

// Options select what the pipeline does after lowering.
type Options struct {
	Lower lower.Options
	// Target names the output backend; empty means "elixir".
	Target string
	// Lint adds the idiom warnings of the linter to the diagnostics.
	Lint bool
	// Jobs bounds how many units a project lowers at once; zero means
	// GOMAXPROCS.
	Jobs int
}

func (o Options) logger() *slog.Logger {
	if o.Lower.Logger != nil {
		return o.Lower.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Result holds the output of a compilation
type Result struct {
	Path        string
	Unit        *typed.Unit
	Module      *exast.Module
	Export      lower.Export
	Diagnostics *diagnostic.Diagnostics
	Output      string
	// Runaway is set when lowering of the unit was aborted.
	Runaway *lower.RunawayError
}

// Compile runs the pipeline on an already decoded unit:
// lower -> validate -> (lint) -> print.
// Lowering problems become diagnostics; the output is still produced so
// placeholders show where they are. Only a runaway unit has no output.
func Compile(u *typed.Unit, opts Options) *Result {
	res := &Result{Path: u.Path, Unit: u, Diagnostics: diagnostic.New()}

	be, err := backend.Get(targetOf(opts))
	if err != nil {
		res.Diagnostics.Errorf(0, 0, "%s", err)
		return res
	}

	lowered, err := lower.Unit(u, opts.Lower)
	if lowered != nil {
		res.Diagnostics.Merge(lowered.Diagnostics)
		res.Export = lowered.Export
	}
	if err != nil {
		var re *lower.RunawayError
		if !errors.As(err, &re) {
			res.Diagnostics.ErrorfInFile(u.Path, 0, 0, "%s", err)
			return res
		}
		opts.logger().Warn("unit aborted", "unit", u.Module, "function", re.Function, "visits", re.Visits, "cyclic", re.Cyclic)
		res.Runaway = re
		return res
	}
	res.Module = lowered.Module

	for _, msg := range exast.Validate(res.Module) {
		res.Diagnostics.ErrorfInFile(u.Path, 0, 0, "invalid output: %s", msg)
	}
	if opts.Lint {
		res.Diagnostics.Merge(linter.Lint(res.Module, u.Path))
	}

	res.Output = be.Generate(res.Module)
	opts.logger().Debug("unit compiled", "unit", u.Module, "target", be.Name(), "diagnostics", res.Diagnostics.Count())
	return res
}

// CompileSource decodes a unit document and compiles it.
// path is used for positions and error messages.
func CompileSource(data []byte, path string, opts Options) *Result {
	u, err := unitfile.Decode(data, path)
	if err != nil {
		return decodeFailure(path, err)
	}
	return Compile(u, opts)
}

// CompileFile reads, decodes and compiles a unit file.
func CompileFile(path string, opts Options) *Result {
	data, err := os.ReadFile(path)
	if err != nil {
		res := &Result{Path: path, Diagnostics: diagnostic.New()}
		res.Diagnostics.ErrorfInFile(path, 0, 0, "reading unit: %s", err)
		return res
	}
	return CompileSource(data, path, opts)
}

// Check runs decode + lower + validate only (no output).
func Check(path string, opts Options) *diagnostic.Diagnostics {
	opts.Lint = false
	opts.Target = "ast"
	return CompileFile(path, opts).Diagnostics
}

// Emit compiles path and writes the output next to outBase, adding the
// backend's extension. It returns the written path.
func Emit(path, outBase string, opts Options) (string, error) {
	res := CompileFile(path, opts)
	if res.Diagnostics.HasErrors() {
		return "", fmt.Errorf("compilation errors:\n%s", res.Diagnostics.Format(path))
	}
	be, err := backend.Get(targetOf(opts))
	if err != nil {
		return "", err
	}
	outPath := outBase + be.Extension()
	if err := os.WriteFile(outPath, []byte(res.Output), 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return outPath, nil
}

func decodeFailure(path string, err error) *Result {
	res := &Result{Path: path, Diagnostics: diagnostic.New()}
	var derr *unitfile.Error
	if errors.As(err, &derr) {
		res.Diagnostics.ErrorfInFile(derr.Path, derr.Line, derr.Column, "%s", derr.Msg)
		return res
	}
	res.Diagnostics.ErrorfInFile(path, 0, 0, "%s", err)
	return res
}

func targetOf(opts Options) string {
	if opts.Target == "" {
		return "elixir"
	}
	return opts.Target
}
