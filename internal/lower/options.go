package lower

import (
	"io"
	"log/slog"
)

// Options are the feature toggles of the lowering pass.
type Options struct {
	// SynthesizeLoops enables loop intent classification. When false every
	// loop takes the structural fallback.
	SynthesizeLoops bool
	// Comprehensions enables the filter/map accumulation intent.
	Comprehensions bool
	// UnusedPrefix is prepended to bindings that are never referenced.
	UnusedPrefix string
	// KeepUnusedNames renders unused clause parameters as _name instead of _.
	KeepUnusedNames bool
	// NameHeuristics also treats variables named like _g, _g1 as
	// infrastructure when the front end did not flag them.
	NameHeuristics bool
	// MaxVisits is the node-visit ceiling per function.
	MaxVisits int

	Logger *slog.Logger
}

// DefaultMaxVisits bounds lowering of a single function.
const DefaultMaxVisits = 200000

// DefaultOptions returns the options used when no config file is present.
func DefaultOptions() Options {
	return Options{
		SynthesizeLoops: true,
		Comprehensions:  true,
		UnusedPrefix:    "_",
		KeepUnusedNames: true,
		MaxVisits:       DefaultMaxVisits,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
