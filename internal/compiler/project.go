package compiler

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lhaig/exlower/internal/backend"
	"github.com/lhaig/exlower/internal/diagnostic"
	"github.com/lhaig/exlower/internal/exast"
)

// ProjectResult holds the output of a project compilation.
type ProjectResult struct {
	// Order lists module names with required modules first.
	Order []string
	// Units holds one result per module, in Order.
	Units       []*Result
	Diagnostics *diagnostic.Diagnostics
	// Output is every module's output concatenated in Order.
	Output string
}

// CompileProject discovers every unit under dir, orders them by their
// requires lists and lowers them concurrently. Units are independent once
// decoded, so the order only affects how results are reported and joined.
// A unit that runs away is left out of the output; the rest still compile.
func CompileProject(ctx context.Context, dir string, opts Options) (*ProjectResult, error) {
	log := opts.logger()

	reg, err := NewUnitRegistry(dir)
	if err != nil {
		return nil, err
	}
	diag, err := reg.Discover()
	if err != nil {
		return nil, err
	}
	res := &ProjectResult{Diagnostics: diag}
	if diag.HasErrors() {
		return res, nil
	}

	order, err := reg.TopologicalSort()
	if err != nil {
		res.Diagnostics.Errorf(0, 0, "%s", err)
		return res, nil
	}
	res.Order = order

	be, err := backend.Get(targetOf(opts))
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	log.Info("compiling project", "dir", dir, "units", len(order), "jobs", jobs)

	res.Units = make([]*Result, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, name := range order {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := Compile(reg.Unit(name), opts)
			r.Path = reg.Path(name)
			res.Units[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compiling %s: %w", dir, err)
	}

	var mods []*exast.Module
	for _, u := range res.Units {
		res.Diagnostics.Merge(u.Diagnostics)
		if u.Module != nil {
			mods = append(mods, u.Module)
		}
	}
	res.Output = be.GenerateAll(mods)
	return res, nil
}

// CheckProject runs discovery, ordering and lowering without producing
// output.
func CheckProject(ctx context.Context, dir string, opts Options) (*diagnostic.Diagnostics, error) {
	opts.Lint = false
	opts.Target = "ast"
	res, err := CompileProject(ctx, dir, opts)
	if err != nil {
		return nil, err
	}
	return res.Diagnostics, nil
}
