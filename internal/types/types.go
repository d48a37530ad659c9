package types

import "time"

// Label identifies a single program point or projection state. Labels are
// opaque: the engine only ever compares them and keeps them in sets. Program
// labels are minted by the labeling pass ("L0", "L1", ...); projection state
// labels come from whoever built the projection ("q0", ...). The two spaces
// share the type but never the values.
type Label string

// CheckResult classifies the outcome of one refinement check.
type CheckResult int

const (
	// ResultRefines means every behavior of the program is permitted by the
	// projection.
	ResultRefines CheckResult = iota
	// ResultViolates means the start state fell out of the relation: the
	// program can exhibit behavior the projection does not allow.
	ResultViolates
	// ResultFatal means the check aborted with no verdict (malformed input,
	// solver failure).
	ResultFatal
)

func (r CheckResult) String() string {
	switch r {
	case ResultRefines:
		return "refines"
	case ResultViolates:
		return "violates"
	case ResultFatal:
		return "fatal"
	default:
		return "?"
	}
}

// Verdict is the per-participant outcome reported by the verify facade.
type Verdict struct {
	Scenario    string
	Participant string
	Path        string // scenario file, empty when checked from memory
	Result      CheckResult
	Err         string // set when Result == ResultFatal
	Expected    string // "refines", "violates", or "" when the scenario states no expectation
	Elapsed     time.Duration
	Report      *RefinementReport // nil unless tracing was enabled
}

// Mismatch reports whether the verdict contradicts the scenario's stated
// expectation. A fatal check always counts as a mismatch.
func (v Verdict) Mismatch() bool {
	if v.Result == ResultFatal {
		return true
	}
	if v.Expected == "" {
		return false
	}
	return v.Expected != v.Result.String()
}

// TraceEvent records one removal performed by the fixpoint loop: during
// pass Pass, projection state State was removed from the compatibility set
// of program point Point.
type TraceEvent struct {
	Pass  int
	Point Label
	State Label
}

// RefinementReport is the optional diagnostic trail of a check: the ordered
// removals, the number of full passes until quiescence, and the final
// relation. It is tooling output only; the boolean verdict is the contract.
type RefinementReport struct {
	Passes  int
	Events  []TraceEvent
	Final   map[Label][]Label // program point -> surviving states, sorted
	Queries int               // implication oracle invocations (after caching)
	Evals   int               // compatibility evaluations across all passes
}
