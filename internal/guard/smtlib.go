package guard

import (
	"fmt"
	"strconv"
	"strings"
)

// Script renders c as a complete SMT-LIB 2 satisfiability query. Every free
// variable is declared as a Real constant. The script ends with (check-sat)
// so it can be piped straight into a solver process.
func Script(c Cond, logic string) string {
	var b strings.Builder
	if logic != "" {
		fmt.Fprintf(&b, "(set-logic %s)\n", logic)
	}
	for _, name := range Vars(c) {
		fmt.Fprintf(&b, "(declare-const %s Real)\n", name)
	}
	fmt.Fprintf(&b, "(assert %s)\n", sexpCond(c))
	b.WriteString("(check-sat)\n")
	return b.String()
}

func sexpCond(c Cond) string {
	switch v := c.(type) {
	case Lit:
		if v.Val {
			return "true"
		}
		return "false"
	case Cmp:
		return sexpCmp(v)
	case NotCond:
		return "(not " + sexpCond(v.C) + ")"
	case AndCond:
		return sexpNary("and", v.Cs)
	case OrCond:
		return sexpNary("or", v.Cs)
	default:
		panic(fmt.Sprintf("guard: unknown condition %T", c))
	}
}

func sexpCmp(c Cmp) string {
	l, r := sexpTerm(c.Left), sexpTerm(c.Right)
	switch c.Op {
	case OpEq:
		return "(= " + l + " " + r + ")"
	case OpNe:
		return "(not (= " + l + " " + r + "))"
	default:
		return "(" + c.Op.String() + " " + l + " " + r + ")"
	}
}

func sexpNary(op string, cs []Cond) string {
	if len(cs) == 0 {
		if op == "and" {
			return "true"
		}
		return "false"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = sexpCond(c)
	}
	return "(" + op + " " + strings.Join(parts, " ") + ")"
}

func sexpTerm(t Term) string {
	switch v := t.(type) {
	case Num:
		// SMT-LIB has no negative numerals, only unary minus.
		if v.Val < 0 {
			return "(- " + strconv.FormatFloat(-v.Val, 'g', -1, 64) + ")"
		}
		return strconv.FormatFloat(v.Val, 'g', -1, 64)
	case Sym:
		return v.Name
	case Arith:
		return "(" + v.Op.String() + " " + sexpTerm(v.Left) + " " + sexpTerm(v.Right) + ")"
	default:
		panic(fmt.Sprintf("guard: unknown term %T", t))
	}
}
