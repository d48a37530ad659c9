// Package guard models the boolean guard expressions attached to projection
// transitions, and the decision procedures that compare them. The refinement
// engine treats guards as opaque values: it combines them with And/Not,
// tests for the literal true, and hands them to a Solver. Everything else
// about their structure is this package's business.
package guard

import (
	"fmt"
	"strconv"
	"strings"
)

// Cond is a boolean-valued expression over real variables.
type Cond interface {
	isCond()
	String() string
}

// Term is a real-valued expression appearing inside comparisons.
type Term interface {
	isTerm()
	String() string
}

// Lit is the boolean literal true or false.
type Lit struct {
	Val bool
}

func (Lit) isCond() {}
func (l Lit) String() string {
	if l.Val {
		return "true"
	}
	return "false"
}

// CmpOp enumerates comparison operators.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op CmpOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Cmp compares two real terms.
type Cmp struct {
	Op    CmpOp
	Left  Term
	Right Term
}

func (Cmp) isCond() {}
func (c Cmp) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

// NotCond negates a condition.
type NotCond struct {
	C Cond
}

func (NotCond) isCond() {}
func (n NotCond) String() string {
	return "!(" + n.C.String() + ")"
}

// AndCond is an n-ary conjunction.
type AndCond struct {
	Cs []Cond
}

func (AndCond) isCond() {}
func (a AndCond) String() string {
	return joinCond(a.Cs, " && ")
}

// OrCond is an n-ary disjunction.
type OrCond struct {
	Cs []Cond
}

func (OrCond) isCond() {}
func (o OrCond) String() string {
	return joinCond(o.Cs, " || ")
}

func joinCond(cs []Cond, sep string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Num is a numeric constant.
type Num struct {
	Val float64
}

func (Num) isTerm() {}
func (n Num) String() string {
	return strconv.FormatFloat(n.Val, 'g', -1, 64)
}

// Sym is a real-valued variable.
type Sym struct {
	Name string
}

func (Sym) isTerm() {}
func (s Sym) String() string {
	return s.Name
}

// ArithOp enumerates arithmetic operators on terms.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// Arith combines two terms with an arithmetic operator.
type Arith struct {
	Op    ArithOp
	Left  Term
	Right Term
}

func (Arith) isTerm() {}
func (a Arith) String() string {
	return "(" + a.Left.String() + " " + a.Op.String() + " " + a.Right.String() + ")"
}

// Constructors. Guards are built once by upstream collaborators and treated
// as immutable values afterwards.

// True returns the boolean literal true.
func True() Cond { return Lit{Val: true} }

// False returns the boolean literal false.
func False() Cond { return Lit{Val: false} }

// Not negates c.
func Not(c Cond) Cond { return NotCond{C: c} }

// And conjoins conditions. And() is true; And(c) is c.
func And(cs ...Cond) Cond {
	switch len(cs) {
	case 0:
		return True()
	case 1:
		return cs[0]
	}
	return AndCond{Cs: cs}
}

// Or disjoins conditions. Or() is false; Or(c) is c.
func Or(cs ...Cond) Cond {
	switch len(cs) {
	case 0:
		return False()
	case 1:
		return cs[0]
	}
	return OrCond{Cs: cs}
}

// V returns the variable named name.
func V(name string) Term { return Sym{Name: name} }

// N returns the numeric constant v.
func N(v float64) Term { return Num{Val: v} }

// Compare builds a comparison condition.
func Compare(op CmpOp, l, r Term) Cond { return Cmp{Op: op, Left: l, Right: r} }

// Eq is l == r.
func Eq(l, r Term) Cond { return Cmp{Op: OpEq, Left: l, Right: r} }

// Ne is l != r.
func Ne(l, r Term) Cond { return Cmp{Op: OpNe, Left: l, Right: r} }

// Lt is l < r.
func Lt(l, r Term) Cond { return Cmp{Op: OpLt, Left: l, Right: r} }

// Le is l <= r.
func Le(l, r Term) Cond { return Cmp{Op: OpLe, Left: l, Right: r} }

// Gt is l > r.
func Gt(l, r Term) Cond { return Cmp{Op: OpGt, Left: l, Right: r} }

// Ge is l >= r.
func Ge(l, r Term) Cond { return Cmp{Op: OpGe, Left: l, Right: r} }

// Add is l + r.
func Add(l, r Term) Term { return Arith{Op: OpAdd, Left: l, Right: r} }

// Sub is l - r.
func Sub(l, r Term) Term { return Arith{Op: OpSub, Left: l, Right: r} }

// Mul is l * r.
func Mul(l, r Term) Term { return Arith{Op: OpMul, Left: l, Right: r} }

// Div is l / r.
func Div(l, r Term) Term { return Arith{Op: OpDiv, Left: l, Right: r} }

// IsTrue reports whether c is the literal true. The refinement engine uses
// this for the While(true) and trivial-If-branch rules; it is a literal
// check, not a validity query.
func IsTrue(c Cond) bool {
	l, ok := c.(Lit)
	return ok && l.Val
}

// Key returns the canonical form used as a cache key. Conditions are
// immutable, so two structurally equal conditions always share a key.
func Key(c Cond) string {
	return c.String()
}

// Vars returns the free variables of c in first-appearance order.
func Vars(c Cond) []string {
	var names []string
	seen := make(map[string]bool)
	walkCondVars(c, func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	})
	return names
}

func walkCondVars(c Cond, visit func(string)) {
	switch v := c.(type) {
	case Lit:
	case Cmp:
		walkTermVars(v.Left, visit)
		walkTermVars(v.Right, visit)
	case NotCond:
		walkCondVars(v.C, visit)
	case AndCond:
		for _, sub := range v.Cs {
			walkCondVars(sub, visit)
		}
	case OrCond:
		for _, sub := range v.Cs {
			walkCondVars(sub, visit)
		}
	default:
		panic(fmt.Sprintf("guard: unknown condition %T", c))
	}
}

func walkTermVars(t Term, visit func(string)) {
	switch v := t.(type) {
	case Num:
	case Sym:
		visit(v.Name)
	case Arith:
		walkTermVars(v.Left, visit)
		walkTermVars(v.Right, visit)
	default:
		panic(fmt.Sprintf("guard: unknown term %T", t))
	}
}
