package compiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lhaig/exlower/internal/config"
	"github.com/lhaig/exlower/internal/diagnostic"
	"github.com/lhaig/exlower/internal/typed"
	"github.com/lhaig/exlower/internal/unitfile"
)

// UnitRegistry manages the decoded units of a project directory and the
// dependency graph formed by their requires lists. It provides topological
// ordering with cycle detection.
type UnitRegistry struct {
	units        map[string]*typed.Unit // module name -> decoded unit
	paths        map[string]string      // module name -> unit file path
	dependencies map[string][]string    // module name -> required module names
	root         string                 // project directory
}

// NewUnitRegistry creates a new registry rooted at the given directory.
func NewUnitRegistry(dir string) (*UnitRegistry, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", dir)
	}

	return &UnitRegistry{
		units:        make(map[string]*typed.Unit),
		paths:        make(map[string]string),
		dependencies: make(map[string][]string),
		root:         absDir,
	}, nil
}

// Discover decodes every *.yaml and *.yml unit file under the project
// directory, skipping the options file. Decode errors and unknown or
// duplicate modules are returned as diagnostics; a walk failure is an error.
func (r *UnitRegistry) Discover() (*diagnostic.Diagnostics, error) {
	diag := diagnostic.New()

	var files []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != r.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if (ext == ".yaml" || ext == ".yml") && !slices.Contains(config.FileNames, d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return diag, fmt.Errorf("scanning %s: %w", r.root, err)
	}
	// WalkDir visits in lexical order, so files is sorted.

	for _, path := range files {
		u, err := unitfile.Load(path)
		if err != nil {
			d := decodeFailure(path, err).Diagnostics
			diag.Merge(d)
			continue
		}
		if prev, dup := r.paths[u.Module]; dup {
			diag.ErrorfInFile(path, 0, 0, "module %s is already defined in %s", u.Module, prev)
			continue
		}
		r.units[u.Module] = u
		r.paths[u.Module] = path
	}

	for _, name := range r.Modules() {
		u := r.units[name]
		var deps []string
		for _, req := range u.Requires {
			if _, ok := r.units[req]; !ok {
				diag.ErrorfInFile(r.paths[name], 0, 0, "module %s requires unknown module %s", name, req)
				continue
			}
			deps = append(deps, req)
		}
		r.dependencies[name] = deps
	}

	if len(r.units) == 0 && !diag.HasErrors() {
		diag.Errorf(0, 0, "no unit files found in %s", r.root)
	}
	return diag, nil
}

// TopologicalSort returns module names in dependency order (required
// modules first). Returns an error if a require cycle is detected, with a
// message showing the cycle path.
func (r *UnitRegistry) TopologicalSort() ([]string, error) {
	var sorted []string
	visiting := make(map[string]bool) // recursion stack (currently being visited)
	visited := make(map[string]bool)  // completed nodes

	var visit func(name string, stack []string) error
	visit = func(name string, stack []string) error {
		if visiting[name] {
			cycleStart := slices.Index(stack, name)
			cyclePath := append(slices.Clone(stack[cycleStart:]), name)
			return fmt.Errorf("require cycle detected: %s", strings.Join(cyclePath, " -> "))
		}
		if visited[name] {
			return nil
		}

		visiting[name] = true
		stack = append(stack, name)

		for _, dep := range r.dependencies[name] {
			if err := visit(dep, stack); err != nil {
				return err
			}
		}

		visiting[name] = false
		visited[name] = true
		sorted = append(sorted, name)
		return nil
	}

	// Visit in name order for deterministic output.
	for _, name := range r.Modules() {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

// Modules returns the discovered module names in sorted order.
func (r *UnitRegistry) Modules() []string {
	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Unit returns the decoded unit for a module, or nil if it was not
// discovered.
func (r *UnitRegistry) Unit(name string) *typed.Unit {
	return r.units[name]
}

// Path returns the unit file a module was decoded from.
func (r *UnitRegistry) Path(name string) string {
	return r.paths[name]
}

// Dependencies returns the modules name requires, in declaration order.
func (r *UnitRegistry) Dependencies(name string) []string {
	return r.dependencies[name]
}
