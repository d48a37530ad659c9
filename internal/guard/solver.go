package guard

import (
	"fmt"
	"math"
)

// Result is a solver's answer to a satisfiability query.
type Result int

const (
	// Unsat means the condition has no satisfying assignment.
	Unsat Result = iota
	// Sat means at least one satisfying assignment exists.
	Sat
)

func (r Result) String() string {
	if r == Sat {
		return "sat"
	}
	return "unsat"
}

// Solver decides satisfiability of guard conditions. Implementations must
// be exact: an answer of Unsat is a proof, and anything a solver cannot
// decide is an error, never a guess.
type Solver interface {
	Decide(c Cond) (Result, error)
}

// ErrUnsupported is returned by solvers for conditions outside the fragment
// they decide. The caller treats it like any other solver failure.
type ErrUnsupported struct {
	Detail string
}

func (e *ErrUnsupported) Error() string {
	return "unsupported condition: " + e.Detail
}

// Syntactic decides the fragment where every atom is linear in a single
// variable. Conditions are rewritten to disjunctive normal form and each
// conjunct is checked for an empty feasible region per variable. Guards in
// control programs and projections are almost always of this shape, which
// makes Syntactic a solver that needs no external tooling. Anything outside
// the fragment yields ErrUnsupported.
type Syntactic struct{}

func (Syntactic) Decide(c Cond) (Result, error) {
	conjuncts, err := dnf(nnf(c, false))
	if err != nil {
		return Unsat, err
	}
	for _, lits := range conjuncts {
		sat, err := conjunctSat(lits)
		if err != nil {
			return Unsat, err
		}
		if sat {
			return Sat, nil
		}
	}
	return Unsat, nil
}

// atom is a normalized literal: variable op constant, or a bare boolean.
type atom struct {
	boolLit bool
	boolVal bool
	name    string
	op      CmpOp
	val     float64
}

// nnf pushes negations down to atoms. neg tracks whether the current
// subtree sits under an odd number of negations.
func nnf(c Cond, neg bool) Cond {
	switch v := c.(type) {
	case Lit:
		if neg {
			return Lit{Val: !v.Val}
		}
		return v
	case Cmp:
		if neg {
			return Cmp{Op: negateOp(v.Op), Left: v.Left, Right: v.Right}
		}
		return v
	case NotCond:
		return nnf(v.C, !neg)
	case AndCond:
		sub := make([]Cond, len(v.Cs))
		for i, s := range v.Cs {
			sub[i] = nnf(s, neg)
		}
		if neg {
			return OrCond{Cs: sub}
		}
		return AndCond{Cs: sub}
	case OrCond:
		sub := make([]Cond, len(v.Cs))
		for i, s := range v.Cs {
			sub[i] = nnf(s, neg)
		}
		if neg {
			return AndCond{Cs: sub}
		}
		return OrCond{Cs: sub}
	default:
		panic(fmt.Sprintf("guard: unknown condition %T", c))
	}
}

func negateOp(op CmpOp) CmpOp {
	switch op {
	case OpEq:
		return OpNe
	case OpNe:
		return OpEq
	case OpLt:
		return OpGe
	case OpLe:
		return OpGt
	case OpGt:
		return OpLe
	case OpGe:
		return OpLt
	default:
		return op
	}
}

// dnf expands a negation-normal condition into a disjunction of conjunctions
// of atoms. Guard expressions are small, so the worst-case blowup is not a
// concern in practice.
func dnf(c Cond) ([][]atom, error) {
	switch v := c.(type) {
	case Lit:
		return [][]atom{{{boolLit: true, boolVal: v.Val}}}, nil
	case Cmp:
		a, err := normalizeCmp(v)
		if err != nil {
			return nil, err
		}
		return [][]atom{{a}}, nil
	case AndCond:
		acc := [][]atom{{}}
		for _, s := range v.Cs {
			sub, err := dnf(s)
			if err != nil {
				return nil, err
			}
			var next [][]atom
			for _, left := range acc {
				for _, right := range sub {
					merged := make([]atom, 0, len(left)+len(right))
					merged = append(merged, left...)
					merged = append(merged, right...)
					next = append(next, merged)
				}
			}
			acc = next
		}
		return acc, nil
	case OrCond:
		var acc [][]atom
		for _, s := range v.Cs {
			sub, err := dnf(s)
			if err != nil {
				return nil, err
			}
			acc = append(acc, sub...)
		}
		return acc, nil
	case NotCond:
		return nil, &ErrUnsupported{Detail: "negation below atom level after normalization"}
	default:
		return nil, &ErrUnsupported{Detail: fmt.Sprintf("condition %T", c)}
	}
}

// normalizeCmp rewrites a comparison into variable-op-constant form. Both
// sides are flattened to linear form and subtracted, so the variable may sit
// inside a calculation: (x + 1) <= 5 becomes x <= 4. A comparison relating
// several variables is outside the fragment.
func normalizeCmp(c Cmp) (atom, error) {
	l, err := linearize(c.Left)
	if err != nil {
		return atom{}, err
	}
	r, err := linearize(c.Right)
	if err != nil {
		return atom{}, err
	}
	diff := l.plus(r, -1)
	switch len(diff.coeffs) {
	case 0:
		return atom{boolLit: true, boolVal: evalConstCmp(c.Op, diff.konst, 0)}, nil
	case 1:
		var name string
		var coeff float64
		for n, co := range diff.coeffs {
			name, coeff = n, co
		}
		// a*x + b op 0 is x op -b/a, with the inequality flipped when a < 0.
		op := c.Op
		if coeff < 0 {
			op = flipOp(op)
		}
		return atom{name: name, op: op, val: -diff.konst / coeff}, nil
	default:
		return atom{}, &ErrUnsupported{Detail: "comparison relates several variables: " + c.String()}
	}
}

func flipOp(op CmpOp) CmpOp {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return op
	}
}

func evalConstCmp(op CmpOp, l, r float64) bool {
	switch op {
	case OpEq:
		return l == r
	case OpNe:
		return l != r
	case OpLt:
		return l < r
	case OpLe:
		return l <= r
	case OpGt:
		return l > r
	case OpGe:
		return l >= r
	default:
		return false
	}
}

// interval tracks the feasible region of one variable within a conjunct.
type interval struct {
	lo, hi             float64
	loStrict, hiStrict bool
	eq                 *float64
	eqConflict         bool
	neqs               []float64
}

func newInterval() *interval {
	return &interval{lo: math.Inf(-1), hi: math.Inf(1)}
}

func (iv *interval) apply(a atom) {
	switch a.op {
	case OpEq:
		if iv.eq != nil && *iv.eq != a.val {
			iv.eqConflict = true
			return
		}
		v := a.val
		iv.eq = &v
	case OpNe:
		iv.neqs = append(iv.neqs, a.val)
	case OpLt:
		if a.val < iv.hi || (a.val == iv.hi && !iv.hiStrict) {
			iv.hi, iv.hiStrict = a.val, true
		}
	case OpLe:
		if a.val < iv.hi {
			iv.hi, iv.hiStrict = a.val, false
		}
	case OpGt:
		if a.val > iv.lo || (a.val == iv.lo && !iv.loStrict) {
			iv.lo, iv.loStrict = a.val, true
		}
	case OpGe:
		if a.val > iv.lo {
			iv.lo, iv.loStrict = a.val, false
		}
	}
}

// feasible reports whether any real number satisfies the accumulated
// constraints. Excluded points cannot empty a non-degenerate interval
// over the reals.
func (iv *interval) feasible() bool {
	if iv.eqConflict {
		return false
	}
	if iv.eq != nil {
		v := *iv.eq
		if v < iv.lo || (v == iv.lo && iv.loStrict) {
			return false
		}
		if v > iv.hi || (v == iv.hi && iv.hiStrict) {
			return false
		}
		for _, ne := range iv.neqs {
			if ne == v {
				return false
			}
		}
		return true
	}
	if iv.lo > iv.hi {
		return false
	}
	if iv.lo == iv.hi {
		if iv.loStrict || iv.hiStrict {
			return false
		}
		for _, ne := range iv.neqs {
			if ne == iv.lo {
				return false
			}
		}
	}
	return true
}

func conjunctSat(lits []atom) (bool, error) {
	ivs := make(map[string]*interval)
	for _, a := range lits {
		if a.boolLit {
			if !a.boolVal {
				return false, nil
			}
			continue
		}
		iv, ok := ivs[a.name]
		if !ok {
			iv = newInterval()
			ivs[a.name] = iv
		}
		iv.apply(a)
	}
	for _, iv := range ivs {
		if !iv.feasible() {
			return false, nil
		}
	}
	return true, nil
}
