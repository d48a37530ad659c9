package refine

import (
	"github.com/ensemblelab/rolecheck/internal/guard"
)

// oracle answers implication queries through the configured solver, with
// per-check memoization. The same guard pair is re-queried on every outer
// pass of the fixpoint loop, so the cache pays for itself immediately.
type oracle struct {
	solver  guard.Solver
	cache   map[[2]string]bool
	queries int
}

func newOracle(s guard.Solver) *oracle {
	return &oracle{solver: s, cache: make(map[[2]string]bool)}
}

// implies reports whether a entails b: it asks the solver whether a && !b
// is satisfiable and reads unsat as proof of the implication. Solver
// failures surface as OracleError and abort the check.
func (o *oracle) implies(a, b guard.Cond) (bool, error) {
	key := [2]string{guard.Key(a), guard.Key(b)}
	if v, ok := o.cache[key]; ok {
		return v, nil
	}
	query := guard.And(a, guard.Not(b))
	res, err := o.solver.Decide(query)
	if err != nil {
		return false, &OracleError{Query: query.String(), Err: err}
	}
	o.queries++
	v := res == guard.Unsat
	o.cache[key] = v
	return v, nil
}
