package guard

import (
	"errors"
	"strings"
	"testing"
)

// =======================
// Condition Value Tests
// =======================

func TestCondString(t *testing.T) {
	tests := []struct {
		cond Cond
		want string
	}{
		{True(), "true"},
		{False(), "false"},
		{Le(V("batt"), N(20)), "batt <= 20"},
		{Not(Lt(V("x"), N(0))), "!(x < 0)"},
		{And(Ge(V("x"), N(1)), Lt(V("x"), N(5))), "(x >= 1 && x < 5)"},
		{Or(Eq(V("x"), N(0)), Ne(V("y"), N(1))), "(x == 0 || y != 1)"},
		{Gt(Add(V("x"), N(1)), Mul(V("y"), N(2))), "(x + 1) > (y * 2)"},
	}

	for _, tt := range tests {
		if got := tt.cond.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKeyStableAcrossEqualValues(t *testing.T) {
	a := And(Le(V("x"), N(5)), Not(Gt(V("y"), N(0))))
	b := And(Le(V("x"), N(5)), Not(Gt(V("y"), N(0))))

	if Key(a) != Key(b) {
		t.Errorf("structurally equal conditions produced different keys: %q vs %q", Key(a), Key(b))
	}
	if Key(a) == Key(Le(V("x"), N(5))) {
		t.Error("distinct conditions should not share a key")
	}
}

func TestIsTrueIsLiteral(t *testing.T) {
	if !IsTrue(True()) {
		t.Error("IsTrue(true literal) should hold")
	}
	if IsTrue(False()) {
		t.Error("IsTrue(false literal) should not hold")
	}
	// Only the literal counts, even for tautologies.
	if IsTrue(Not(False())) {
		t.Error("IsTrue must not evaluate, !(false) is not the literal true")
	}
	if IsTrue(Or(True(), False())) {
		t.Error("IsTrue must not evaluate disjunctions")
	}
}

func TestVarsFirstAppearanceOrder(t *testing.T) {
	c := And(Le(V("b"), N(1)), Or(Gt(V("a"), N(0)), Eq(V("b"), N(2))), Lt(Sub(V("c"), V("a")), N(3)))
	got := Vars(c)
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("Vars() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Vars()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmptyConnectives(t *testing.T) {
	if !IsTrue(And()) {
		t.Error("And() should be the literal true")
	}
	if IsTrue(Or()) {
		t.Error("Or() should be the literal false")
	}
	if And(False()).String() != "false" {
		t.Error("And of a single condition should be that condition")
	}
}

// =======================
// Syntactic Solver Tests
// =======================

func TestSyntacticLiterals(t *testing.T) {
	var s Syntactic

	res, err := s.Decide(True())
	if err != nil || res != Sat {
		t.Errorf("true: got %v, %v", res, err)
	}
	res, err = s.Decide(False())
	if err != nil || res != Unsat {
		t.Errorf("false: got %v, %v", res, err)
	}
	res, err = s.Decide(Not(True()))
	if err != nil || res != Unsat {
		t.Errorf("!true: got %v, %v", res, err)
	}
}

func TestSyntacticIntervals(t *testing.T) {
	tests := []struct {
		name string
		cond Cond
		want Result
	}{
		{"disjoint bounds", And(Le(V("x"), N(5)), Gt(V("x"), N(10))), Unsat},
		{"touching closed bounds", And(Le(V("x"), N(5)), Ge(V("x"), N(5))), Sat},
		{"touching half-open bounds", And(Lt(V("x"), N(5)), Ge(V("x"), N(5))), Unsat},
		{"open window", And(Gt(V("x"), N(3)), Lt(V("x"), N(5))), Sat},
		{"flipped operand order", And(Ge(N(5), V("x")), Gt(V("x"), N(10))), Unsat},
		{"independent variables", And(Lt(V("x"), N(0)), Gt(V("y"), N(0))), Sat},
	}

	var s Syntactic
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Decide(tt.cond)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide(%s) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestSyntacticImplicationShape(t *testing.T) {
	var s Syntactic

	// x <= 5 implies x <= 10, so the conjunction with the negation is unsat.
	res, err := s.Decide(And(Le(V("x"), N(5)), Not(Le(V("x"), N(10)))))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res != Unsat {
		t.Error("x <= 5 && !(x <= 10) should be unsat")
	}

	// The converse implication fails: a witness like x = 7 exists.
	res, err = s.Decide(And(Le(V("x"), N(10)), Not(Le(V("x"), N(5)))))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res != Sat {
		t.Error("x <= 10 && !(x <= 5) should be sat")
	}
}

func TestSyntacticEqualities(t *testing.T) {
	tests := []struct {
		name string
		cond Cond
		want Result
	}{
		{"eq inside bounds", And(Eq(V("x"), N(3)), Le(V("x"), N(5))), Sat},
		{"eq outside bounds", And(Eq(V("x"), N(3)), Gt(V("x"), N(5))), Unsat},
		{"eq against neq", And(Eq(V("x"), N(3)), Ne(V("x"), N(3))), Unsat},
		{"conflicting eqs", And(Eq(V("x"), N(3)), Eq(V("x"), N(4))), Unsat},
		{"point interval excluded", And(Ge(V("x"), N(5)), Le(V("x"), N(5)), Ne(V("x"), N(5))), Unsat},
		{"point interval kept", And(Ge(V("x"), N(5)), Le(V("x"), N(5))), Sat},
		{"neq cannot empty a continuum", And(Gt(V("x"), N(0)), Lt(V("x"), N(1)), Ne(V("x"), N(0.5))), Sat},
	}

	var s Syntactic
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Decide(tt.cond)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide(%s) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestSyntacticDisjunction(t *testing.T) {
	var s Syntactic

	// One infeasible disjunct does not sink the query.
	res, err := s.Decide(Or(And(Lt(V("x"), N(0)), Gt(V("x"), N(0))), Le(V("x"), N(1))))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res != Sat {
		t.Error("disjunction with one feasible branch should be sat")
	}

	// De Morgan: !(x < 0 || x > 10) leaves the closed interval [0, 10].
	res, err = s.Decide(Not(Or(Lt(V("x"), N(0)), Gt(V("x"), N(10)))))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res != Sat {
		t.Error("negated disjunction should normalize and stay sat")
	}

	// All disjuncts infeasible.
	res, err = s.Decide(Or(False(), And(Lt(V("x"), N(0)), Gt(V("x"), N(0)))))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if res != Unsat {
		t.Error("disjunction of infeasible branches should be unsat")
	}
}

func TestSyntacticConstantComparison(t *testing.T) {
	var s Syntactic

	res, err := s.Decide(Lt(N(1), N(2)))
	if err != nil || res != Sat {
		t.Errorf("1 < 2: got %v, %v", res, err)
	}
	res, err = s.Decide(And(True(), Lt(N(2), N(1))))
	if err != nil || res != Unsat {
		t.Errorf("2 < 1: got %v, %v", res, err)
	}
}

func TestSyntacticLinearTerms(t *testing.T) {
	tests := []struct {
		name string
		cond Cond
		want Result
	}{
		{"constant folds left", And(Le(Add(V("x"), N(1)), N(5)), Gt(V("x"), N(4))), Unsat},
		{"negative coefficient flips", And(Lt(Sub(N(10), V("x")), N(4)), Le(V("x"), N(6))), Unsat},
		{"division rescales", And(Ge(Div(V("x"), N(2)), N(5)), Lt(V("x"), N(10))), Unsat},
		{"scaled window", And(Gt(Mul(N(2), V("x")), N(4)), Lt(V("x"), N(3))), Sat},
		{"variable cancels out", Lt(Sub(V("x"), V("x")), N(1)), Sat},
		{"same variable both sides", Lt(Add(V("x"), N(1)), V("x")), Unsat},
	}

	var s Syntactic
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Decide(tt.cond)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide(%s) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestSyntacticRejectsOutsideFragment(t *testing.T) {
	var s Syntactic

	// Comparisons relating two variables are beyond the interval fragment.
	// The solver must refuse rather than guess.
	_, err := s.Decide(Lt(V("x"), V("y")))
	var unsup *ErrUnsupported
	if !errors.As(err, &unsup) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}

	_, err = s.Decide(Gt(Mul(V("x"), V("y")), N(0)))
	if !errors.As(err, &unsup) {
		t.Fatalf("expected ErrUnsupported for a product of variables, got %v", err)
	}

	_, err = s.Decide(Eq(Div(N(1), V("x")), N(2)))
	if !errors.As(err, &unsup) {
		t.Fatalf("expected ErrUnsupported for division by a variable, got %v", err)
	}
}

// =======================
// SMT-LIB Rendering Tests
// =======================

func TestScriptRendering(t *testing.T) {
	c := And(Le(V("batt"), N(20)), Not(Eq(V("mode"), N(-1))))
	script := Script(c, "QF_NRA")

	for _, want := range []string{
		"(set-logic QF_NRA)",
		"(declare-const batt Real)",
		"(declare-const mode Real)",
		"(assert (and (<= batt 20) (not (= mode (- 1)))))",
		"(check-sat)",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}
}

func TestScriptWithoutLogic(t *testing.T) {
	script := Script(True(), "")
	if strings.Contains(script, "set-logic") {
		t.Error("empty logic should omit set-logic")
	}
	if !strings.Contains(script, "(assert true)") {
		t.Errorf("unexpected script:\n%s", script)
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		output string
		want   Result
		ok     bool
	}{
		{"unsat\n", Unsat, true},
		{"sat\n", Sat, true},
		{"delta-sat with delta = 0.00100000000000000\n", Sat, true},
		{"dReal v4.21.06.2\nunsat\n", Unsat, true},
		{"unknown\n", Unsat, false},
		{"", Unsat, false},
		{"error: parse failure", Unsat, false},
	}

	for _, tt := range tests {
		got, ok := parseVerdict(tt.output)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseVerdict(%q) = %v, %v; want %v, %v", tt.output, got, ok, tt.want, tt.ok)
		}
	}
}

func TestProcessSolverRequiresBinary(t *testing.T) {
	p := &Process{}
	if _, err := p.Decide(True()); err == nil {
		t.Error("Decide without a configured binary should fail")
	}
}
