// Package scenario loads check scenarios from YAML files. A scenario pairs
// participant control programs with their projected roles and an optional
// expected verdict. Programs and guards are written in structured form, one
// mapping key per node kind; there is no expression language to parse.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ensemblelab/rolecheck/internal/ast"
	"github.com/ensemblelab/rolecheck/internal/chor"
	"github.com/ensemblelab/rolecheck/internal/guard"
	"github.com/ensemblelab/rolecheck/internal/types"
)

// Scenario is one loaded scenario file.
type Scenario struct {
	Name   string  `yaml:"name"`
	Checks []Check `yaml:"checks"`
}

// Check pairs one participant's program with its role.
type Check struct {
	Participant string     `yaml:"participant"`
	Expect      string     `yaml:"expect"` // "refines", "violates", or empty
	Program     []StmtSpec `yaml:"program"`
	Projection  ProjSpec   `yaml:"projection"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario has no name")
	}
	if len(sc.Checks) == 0 {
		return nil, fmt.Errorf("scenario %q has no checks", sc.Name)
	}
	for i, c := range sc.Checks {
		if c.Participant == "" {
			return nil, fmt.Errorf("scenario %q: check %d has no participant", sc.Name, i)
		}
		switch c.Expect {
		case "", "refines", "violates":
		default:
			return nil, fmt.Errorf("scenario %q: participant %s: expect must be refines or violates, got %q",
				sc.Name, c.Participant, c.Expect)
		}
		if len(c.Program) == 0 {
			return nil, fmt.Errorf("scenario %q: participant %s has no program", sc.Name, c.Participant)
		}
		if c.Projection.Start == "" || len(c.Projection.States) == 0 {
			return nil, fmt.Errorf("scenario %q: participant %s has no projection", sc.Name, c.Participant)
		}
	}
	return &sc, nil
}

// Build assembles the check's program tree and projection.
func (c *Check) Build() (ast.Stmt, *chor.Projection, error) {
	program, err := buildSeq(c.Program)
	if err != nil {
		return nil, nil, fmt.Errorf("participant %s: program: %w", c.Participant, err)
	}
	proj, err := c.Projection.build(c.Participant)
	if err != nil {
		return nil, nil, fmt.Errorf("participant %s: projection: %w", c.Participant, err)
	}
	return program, proj, nil
}

// StmtSpec is the YAML form of one statement: exactly one kind key is set.
type StmtSpec struct {
	Assign  *AssignSpec  `yaml:"assign"`
	While   *WhileSpec   `yaml:"while"`
	If      *IfSpec      `yaml:"if"`
	Receive *ReceiveSpec `yaml:"receive"`
	Send    *SendSpec    `yaml:"send"`
	Motion  *MotionSpec  `yaml:"motion"`
	Print   *string      `yaml:"print"`
	Skip    bool         `yaml:"skip"`
	Exit    bool         `yaml:"exit"`
}

// AssignSpec is x = expr; the expression may be omitted.
type AssignSpec struct {
	Var  string    `yaml:"var"`
	Expr *TermSpec `yaml:"expr"`
}

type WhileSpec struct {
	Cond CondSpec   `yaml:"cond"`
	Body []StmtSpec `yaml:"body"`
}

type IfSpec struct {
	Branches []BranchSpec `yaml:"branches"`
}

type BranchSpec struct {
	Cond CondSpec   `yaml:"cond"`
	Body []StmtSpec `yaml:"body"`
}

type ReceiveSpec struct {
	Motion MotionSpec `yaml:"motion"`
	Arms   []ArmSpec  `yaml:"arms"`
}

type ArmSpec struct {
	Msg  string     `yaml:"msg"`
	Body []StmtSpec `yaml:"body"`
}

type SendSpec struct {
	To  string `yaml:"to"`
	Msg string `yaml:"msg"`
}

type MotionSpec struct {
	Name string     `yaml:"name"`
	Args []TermSpec `yaml:"args"`
}

func (s *StmtSpec) build() (ast.Stmt, error) {
	kinds := 0
	for _, set := range []bool{
		s.Assign != nil, s.While != nil, s.If != nil, s.Receive != nil,
		s.Send != nil, s.Motion != nil, s.Print != nil, s.Skip, s.Exit,
	} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, fmt.Errorf("statement needs exactly one kind key, found %d", kinds)
	}

	switch {
	case s.Assign != nil:
		var expr guard.Term
		if s.Assign.Expr != nil {
			t, err := s.Assign.Expr.build()
			if err != nil {
				return nil, err
			}
			expr = t
		}
		return ast.Assign(s.Assign.Var, expr), nil
	case s.While != nil:
		cond, err := s.While.Cond.build()
		if err != nil {
			return nil, err
		}
		body, err := buildSeq(s.While.Body)
		if err != nil {
			return nil, err
		}
		return ast.While(cond, body), nil
	case s.If != nil:
		branches := make([]ast.IfBranch, 0, len(s.If.Branches))
		for _, b := range s.If.Branches {
			cond, err := b.Cond.build()
			if err != nil {
				return nil, err
			}
			body, err := buildSeq(b.Body)
			if err != nil {
				return nil, err
			}
			branches = append(branches, ast.Branch(cond, body))
		}
		if len(branches) == 0 {
			return nil, fmt.Errorf("if has no branches")
		}
		return ast.If(branches...), nil
	case s.Receive != nil:
		motion, err := s.Receive.Motion.build()
		if err != nil {
			return nil, err
		}
		arms := make([]*ast.ActionStmt, 0, len(s.Receive.Arms))
		for _, a := range s.Receive.Arms {
			body, err := buildSeq(a.Body)
			if err != nil {
				return nil, err
			}
			arms = append(arms, ast.Action(a.Msg, body))
		}
		if len(arms) == 0 {
			return nil, fmt.Errorf("receive has no arms")
		}
		return ast.Receive(motion, arms...), nil
	case s.Send != nil:
		return ast.Send(s.Send.To, s.Send.Msg), nil
	case s.Motion != nil:
		return s.Motion.build()
	case s.Print != nil:
		return ast.Print(*s.Print), nil
	case s.Skip:
		return ast.Skip(), nil
	default:
		return ast.Exit(), nil
	}
}

func (m *MotionSpec) build() (*ast.MotionStmt, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("motion has no name")
	}
	args := make([]guard.Term, 0, len(m.Args))
	for _, a := range m.Args {
		t, err := a.build()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	return ast.Motion(m.Name, args...), nil
}

// buildSeq turns a statement list into a tree. A single statement stays
// bare; longer lists become a sequence.
func buildSeq(specs []StmtSpec) (ast.Stmt, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("empty statement list")
	}
	stmts := make([]ast.Stmt, 0, len(specs))
	for i := range specs {
		st, err := specs[i].build()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return ast.Seq(stmts...), nil
}

// CondSpec is the YAML form of a guard condition.
type CondSpec struct {
	Lit *bool      `yaml:"lit"`
	Not *CondSpec  `yaml:"not"`
	And []CondSpec `yaml:"and"`
	Or  []CondSpec `yaml:"or"`
	Cmp *CmpSpec   `yaml:"cmp"`
}

type CmpSpec struct {
	Op    string   `yaml:"op"`
	Left  TermSpec `yaml:"left"`
	Right TermSpec `yaml:"right"`
}

func (c *CondSpec) build() (guard.Cond, error) {
	kinds := 0
	for _, set := range []bool{c.Lit != nil, c.Not != nil, c.And != nil, c.Or != nil, c.Cmp != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, fmt.Errorf("condition needs exactly one of lit/not/and/or/cmp, found %d", kinds)
	}

	switch {
	case c.Lit != nil:
		if *c.Lit {
			return guard.True(), nil
		}
		return guard.False(), nil
	case c.Not != nil:
		sub, err := c.Not.build()
		if err != nil {
			return nil, err
		}
		return guard.Not(sub), nil
	case c.And != nil:
		subs, err := buildConds(c.And)
		if err != nil {
			return nil, err
		}
		return guard.And(subs...), nil
	case c.Or != nil:
		subs, err := buildConds(c.Or)
		if err != nil {
			return nil, err
		}
		return guard.Or(subs...), nil
	default:
		return c.Cmp.build()
	}
}

func buildConds(specs []CondSpec) ([]guard.Cond, error) {
	out := make([]guard.Cond, 0, len(specs))
	for i := range specs {
		c, err := specs[i].build()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (c *CmpSpec) build() (guard.Cond, error) {
	ops := map[string]guard.CmpOp{
		"==": guard.OpEq, "!=": guard.OpNe,
		"<": guard.OpLt, "<=": guard.OpLe,
		">": guard.OpGt, ">=": guard.OpGe,
	}
	op, ok := ops[c.Op]
	if !ok {
		return nil, fmt.Errorf("unknown comparison operator %q", c.Op)
	}
	l, err := c.Left.build()
	if err != nil {
		return nil, err
	}
	r, err := c.Right.build()
	if err != nil {
		return nil, err
	}
	return guard.Compare(op, l, r), nil
}

// TermSpec is the YAML form of an arithmetic term.
type TermSpec struct {
	Num  *float64  `yaml:"num"`
	Var  *string   `yaml:"var"`
	Calc *CalcSpec `yaml:"calc"`
}

type CalcSpec struct {
	Op    string   `yaml:"op"`
	Left  TermSpec `yaml:"left"`
	Right TermSpec `yaml:"right"`
}

func (t *TermSpec) build() (guard.Term, error) {
	kinds := 0
	for _, set := range []bool{t.Num != nil, t.Var != nil, t.Calc != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, fmt.Errorf("term needs exactly one of num/var/calc, found %d", kinds)
	}

	switch {
	case t.Num != nil:
		return guard.N(*t.Num), nil
	case t.Var != nil:
		return guard.V(*t.Var), nil
	default:
		ops := map[string]guard.ArithOp{
			"+": guard.OpAdd, "-": guard.OpSub,
			"*": guard.OpMul, "/": guard.OpDiv,
		}
		op, ok := ops[t.Calc.Op]
		if !ok {
			return nil, fmt.Errorf("unknown arithmetic operator %q", t.Calc.Op)
		}
		l, err := t.Calc.Left.build()
		if err != nil {
			return nil, err
		}
		r, err := t.Calc.Right.build()
		if err != nil {
			return nil, err
		}
		return guard.Arith{Op: op, Left: l, Right: r}, nil
	}
}

// ProjSpec is the YAML form of a projection.
type ProjSpec struct {
	Start  string               `yaml:"start"`
	States map[string]StateSpec `yaml:"states"`
}

// StateSpec is the YAML form of one projection state: one kind key.
type StateSpec struct {
	Motion   *MotionStateSpec `yaml:"motion"`
	Send     *SendStateSpec   `yaml:"send"`
	Recv     *RecvStateSpec   `yaml:"recv"`
	Choice   []ChoiceSpec     `yaml:"choice"`
	External []string         `yaml:"external"`
	End      bool             `yaml:"end"`
}

type MotionStateSpec struct {
	Name string `yaml:"name"`
	End  string `yaml:"end"`
}

type SendStateSpec struct {
	To  string `yaml:"to"`
	Msg string `yaml:"msg"`
	End string `yaml:"end"`
}

type RecvStateSpec struct {
	Msg string `yaml:"msg"`
	End string `yaml:"end"`
}

type ChoiceSpec struct {
	Guard  CondSpec `yaml:"guard"`
	Target string   `yaml:"target"`
}

func (p *ProjSpec) build(participant string) (*chor.Projection, error) {
	nodes := make(map[types.Label]chor.Node, len(p.States))
	for name, spec := range p.States {
		node, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", name, err)
		}
		nodes[types.Label(name)] = node
	}
	if _, ok := nodes[types.Label(p.Start)]; !ok {
		return nil, fmt.Errorf("start state %s is not declared", p.Start)
	}
	return &chor.Projection{
		Participant: participant,
		Start:       types.Label(p.Start),
		Nodes:       nodes,
	}, nil
}

func (s *StateSpec) build() (chor.Node, error) {
	kinds := 0
	for _, set := range []bool{
		s.Motion != nil, s.Send != nil, s.Recv != nil,
		s.Choice != nil, s.External != nil, s.End,
	} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, fmt.Errorf("state needs exactly one kind key, found %d", kinds)
	}

	switch {
	case s.Motion != nil:
		return chor.Motion{Name: s.Motion.Name, End: types.Label(s.Motion.End)}, nil
	case s.Send != nil:
		return chor.SendMessage{Receiver: s.Send.To, Msg: s.Send.Msg, End: types.Label(s.Send.End)}, nil
	case s.Recv != nil:
		return chor.ReceiveMessage{Msg: s.Recv.Msg, End: types.Label(s.Recv.End)}, nil
	case s.Choice != nil:
		branches := make([]chor.GuardedBranch, 0, len(s.Choice))
		for i := range s.Choice {
			g, err := s.Choice[i].Guard.build()
			if err != nil {
				return nil, err
			}
			branches = append(branches, chor.GuardedBranch{Guard: g, Target: types.Label(s.Choice[i].Target)})
		}
		return chor.GuardedChoice{Branches: branches}, nil
	case s.External != nil:
		targets := make([]types.Label, len(s.External))
		for i, t := range s.External {
			targets[i] = types.Label(t)
		}
		return chor.ExternalChoice{Targets: targets}, nil
	default:
		return chor.End{}, nil
	}
}
