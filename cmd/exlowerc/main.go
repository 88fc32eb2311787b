package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lhaig/exlower/internal/backend"
	"github.com/lhaig/exlower/internal/compiler"
	"github.com/lhaig/exlower/internal/config"
	"github.com/lhaig/exlower/internal/exast"
	"github.com/lhaig/exlower/internal/lower"
	"github.com/lhaig/exlower/internal/typed"
	"github.com/lhaig/exlower/internal/unitfile"
)

const usage = `exlowerc - lower typed units to Elixir

Usage:
  exlowerc lower [options] <unit.yaml|dir>   Lower a unit (or every unit in a directory)
  exlowerc check [options] <unit.yaml|dir>   Decode and lower only, report diagnostics
  exlowerc lint [options] <unit.yaml|dir>    Lower and report idiom warnings
  exlowerc dump [options] <unit.yaml>        Print the typed tree and the lowered tree

Options:
  --target <name>   Output backend: elixir (default) or ast
  --config <file>   Options file (default: nearest exlower.yaml)
  -o <file>         Write output to file instead of stdout
  --jobs <n>        Units lowered at once in directory mode (default: CPU count)
  --verbose         Log pass details to stderr

Examples:
  exlowerc lower todo.yaml              Print the Elixir module for todo.yaml
  exlowerc lower -o lib/todo.ex todo.yaml
  exlowerc lower --target ast todo.yaml Print the lowered tree
  exlowerc check units/                 Check every unit under units/
`

// cliOptions holds the flags shared by every command.
type cliOptions struct {
	target  string
	config  string
	output  string
	jobs    int
	verbose bool
	path    string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "lower":
		os.Exit(handleLower(os.Args[2:]))
	case "check":
		os.Exit(handleCheck(os.Args[2:]))
	case "lint":
		os.Exit(handleLint(os.Args[2:]))
	case "dump":
		os.Exit(handleDump(os.Args[2:]))
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func parseArgs(args []string) (*cliOptions, error) {
	opts := &cliOptions{}
	value := func(i int, name string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("option %s requires a value", name)
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--target", "--config", "-o", "--jobs":
			v, err := value(i, arg)
			if err != nil {
				return nil, err
			}
			i++
			switch arg {
			case "--target":
				opts.target = v
			case "--config":
				opts.config = v
			case "-o":
				opts.output = v
			case "--jobs":
				n, err := strconv.Atoi(v)
				if err != nil || n < 1 {
					return nil, fmt.Errorf("--jobs must be a positive number, got %q", v)
				}
				opts.jobs = n
			}
		case "--verbose", "-v":
			opts.verbose = true
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown option: %s", arg)
			}
			if opts.path != "" {
				return nil, fmt.Errorf("unexpected argument: %s", arg)
			}
			opts.path = arg
		}
	}

	if opts.path == "" {
		return nil, fmt.Errorf("no input file specified")
	}
	if opts.target != "" {
		if _, err := backend.Get(opts.target); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// setup parses the flags, loads the options file and builds the pipeline
// options. It prints errors itself and returns nil on failure.
func setup(args []string) (*cliOptions, compiler.Options, bool) {
	cli, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return nil, compiler.Options{}, false
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return nil, compiler.Options{}, false
	}

	level := cfg.LogLevel()
	if cli.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	lopts := cfg.Options()
	lopts.Logger = logger
	return cli, compiler.Options{Lower: lopts, Target: cli.target, Jobs: cli.jobs}, true
}

// loadConfig reads --config, or the nearest exlower.yaml above the input.
func loadConfig(cli *cliOptions) (*config.Config, error) {
	if cli.config != "" {
		return config.Load(cli.config)
	}
	dir := cli.path
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	path, err := config.FindConfig(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// signalContext is cancelled on interrupt so a long project run stops
// between units.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func handleLower(args []string) int {
	cli, opts, ok := setup(args)
	if !ok {
		return 1
	}

	var (
		output string
		diags  = newReporter(os.Stderr)
		failed bool
	)
	if isDir(cli.path) {
		ctx, cancel := signalContext()
		defer cancel()
		res, err := compiler.CompileProject(ctx, cli.path, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
		diags.print(res.Diagnostics, cli.path)
		failed = res.Diagnostics.HasErrors()
		output = res.Output
	} else {
		res := compiler.CompileFile(cli.path, opts)
		diags.print(res.Diagnostics, cli.path)
		failed = res.Diagnostics.HasErrors()
		output = res.Output
	}

	if output == "" {
		return 1
	}
	if err := writeOutput(cli.output, output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	if cli.output != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", cli.output)
	}
	if failed {
		return 1
	}
	return 0
}

func handleCheck(args []string) int {
	cli, opts, ok := setup(args)
	if !ok {
		return 1
	}

	diags := newReporter(os.Stderr)
	if isDir(cli.path) {
		ctx, cancel := signalContext()
		defer cancel()
		d, err := compiler.CheckProject(ctx, cli.path, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
		diags.print(d, cli.path)
		if d.HasErrors() {
			return 1
		}
	} else {
		d := compiler.Check(cli.path, opts)
		diags.print(d, cli.path)
		if d.HasErrors() {
			return 1
		}
	}

	fmt.Println("No errors found.")
	return 0
}

func handleLint(args []string) int {
	cli, opts, ok := setup(args)
	if !ok {
		return 1
	}
	opts.Lint = true
	opts.Target = "ast"

	diags := newReporter(os.Stdout)
	var warnings int
	if isDir(cli.path) {
		ctx, cancel := signalContext()
		defer cancel()
		res, err := compiler.CompileProject(ctx, cli.path, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return 1
		}
		diags.print(res.Diagnostics, cli.path)
		if res.Diagnostics.HasErrors() {
			return 1
		}
		warnings = res.Diagnostics.WarningCount()
	} else {
		res := compiler.CompileFile(cli.path, opts)
		diags.print(res.Diagnostics, cli.path)
		if res.Diagnostics.HasErrors() {
			return 1
		}
		warnings = res.Diagnostics.WarningCount()
	}

	if warnings == 0 {
		fmt.Println("No lint warnings.")
		return 0
	}
	fmt.Printf("%d warning(s) found.\n", warnings)
	return 0
}

// handleDump prints the decoded typed tree followed by the lowered tree,
// for inspecting what the pass did with a unit.
func handleDump(args []string) int {
	cli, opts, ok := setup(args)
	if !ok {
		return 1
	}

	u, err := unitfile.Load(cli.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	var sb strings.Builder
	sb.WriteString("== typed ==\n")
	sb.WriteString(typed.PrintUnit(u))

	res, err := lower.Unit(u, opts.Lower)
	if res != nil {
		newReporter(os.Stderr).print(res.Diagnostics, cli.path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	sb.WriteString("\n== lowered ==\n")
	sb.WriteString(exast.Dump(res.Module))

	if err := writeOutput(cli.output, sb.String()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

func writeOutput(path, content string) error {
	if path == "" {
		_, err := fmt.Print(content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
