package lower

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RunawayError reports a function whose lowering exceeded the visit ceiling
// or whose source tree contains a cycle. Only the unit that contains it fails.
type RunawayError struct {
	Unit     uuid.UUID
	Module   string
	Function string
	Visits   int
	Cyclic   bool
	Trace    []string
}

func (e *RunawayError) Error() string {
	what := "visit ceiling exceeded"
	if e.Cyclic {
		what = "cyclic source tree"
	}
	return fmt.Sprintf("%s.%s: %s after %d visits (unit %s): %s",
		e.Module, e.Function, what, e.Visits, e.Unit, strings.Join(e.Trace, " > "))
}

// bailout unwinds the lowering of one function. It is recovered in Unit.
type bailout struct {
	err *RunawayError
}

// traceLimit caps how many trailing frames a RunawayError carries.
const traceLimit = 24

func tail(trace []string) []string {
	if len(trace) > traceLimit {
		trace = trace[len(trace)-traceLimit:]
	}
	return append([]string(nil), trace...)
}
