// Package ast defines the syntax tree of a participant's control program.
// Trees are built once by a loader or by hand in tests, labeled with
// AssignLabels, and treated as read-only afterwards.
package ast

import (
	"strings"

	"github.com/ensemblelab/rolecheck/internal/guard"
	"github.com/ensemblelab/rolecheck/internal/types"
)

// Stmt represents a statement in a control program. Every statement carries
// exactly one label, minted by AssignLabels before any analysis runs.
type Stmt interface {
	isStmt()
	Label() types.Label
	String() string
}

// stmtLabel is embedded by every statement kind.
type stmtLabel struct {
	lbl types.Label
}

func (s *stmtLabel) Label() types.Label { return s.lbl }

// SeqStmt represents a sequence of statements: S1; S2; ...; Sn
type SeqStmt struct {
	stmtLabel
	Stmts []Stmt
}

func (*SeqStmt) isStmt() {}
func (s *SeqStmt) String() string {
	parts := make([]string, len(s.Stmts))
	for i, st := range s.Stmts {
		parts[i] = st.String()
	}
	return strings.Join(parts, "; ")
}

// ReceiveStmt blocks for a message while the given motion runs. Each arm
// names a message type and the continuation taken when it arrives.
type ReceiveStmt struct {
	stmtLabel
	Motion *MotionStmt
	Arms   []*ActionStmt
}

func (*ReceiveStmt) isStmt() {}
func (s *ReceiveStmt) String() string {
	parts := make([]string, len(s.Arms))
	for i, a := range s.Arms {
		parts[i] = a.String()
	}
	return "receive(" + s.Motion.String() + ") { " + strings.Join(parts, ", ") + " }"
}

// ActionStmt is one arm of a receive: a message type and its continuation.
type ActionStmt struct {
	stmtLabel
	Msg  string
	Body Stmt
}

func (*ActionStmt) isStmt() {}
func (s *ActionStmt) String() string {
	return "on " + s.Msg + " => " + s.Body.String()
}

// IfBranch is one guarded branch of an IfStmt. It is not a statement of its
// own; the branch body's label is the branch entry point.
type IfBranch struct {
	Cond guard.Cond
	Body Stmt
}

// IfStmt represents a guarded conditional: an ordered list of branches,
// each taken when its condition holds. An if/else surface form arrives here
// as two branches with complementary conditions.
type IfStmt struct {
	stmtLabel
	Branches []IfBranch
}

func (*IfStmt) isStmt() {}
func (s *IfStmt) String() string {
	parts := make([]string, len(s.Branches))
	for i, b := range s.Branches {
		parts[i] = b.Cond.String() + " -> " + b.Body.String()
	}
	return "if { " + strings.Join(parts, " | ") + " }"
}

// WhileStmt represents a guarded loop.
type WhileStmt struct {
	stmtLabel
	Cond guard.Cond
	Body Stmt
}

func (*WhileStmt) isStmt() {}
func (s *WhileStmt) String() string {
	return "while " + s.Cond.String() + " { " + s.Body.String() + " }"
}

// MotionStmt invokes a motion primitive by name.
type MotionStmt struct {
	stmtLabel
	Name string
	Args []guard.Term
}

func (*MotionStmt) isStmt() {}
func (s *MotionStmt) String() string {
	return s.Name + "(" + joinTerms(s.Args) + ")"
}

// AssignStmt represents an assignment: x = e
type AssignStmt struct {
	stmtLabel
	Var  string
	Expr guard.Term
}

func (*AssignStmt) isStmt() {}
func (s *AssignStmt) String() string {
	if s.Expr == nil {
		return s.Var + " = ?"
	}
	return s.Var + " = " + s.Expr.String()
}

// SendStmt sends a message to another participant.
type SendStmt struct {
	stmtLabel
	To   string
	Msg  string
	Args []guard.Term
}

func (*SendStmt) isStmt() {}
func (s *SendStmt) String() string {
	out := "send(" + s.To + ", " + s.Msg
	if len(s.Args) > 0 {
		out += ", " + joinTerms(s.Args)
	}
	return out + ")"
}

// PrintStmt logs a message on the participant; it has no protocol effect.
type PrintStmt struct {
	stmtLabel
	Text string
}

func (*PrintStmt) isStmt() {}
func (s *PrintStmt) String() string {
	return "print(" + s.Text + ")"
}

// SkipStmt does nothing.
type SkipStmt struct {
	stmtLabel
}

func (*SkipStmt) isStmt() {}
func (*SkipStmt) String() string {
	return "skip"
}

// ExitStmt terminates the participant.
type ExitStmt struct {
	stmtLabel
	Code guard.Term
}

func (*ExitStmt) isStmt() {}
func (s *ExitStmt) String() string {
	if s.Code == nil {
		return "exit"
	}
	return "exit(" + s.Code.String() + ")"
}

func joinTerms(ts []guard.Term) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// Helper functions to construct AST nodes

// Seq creates a sequence of statements.
func Seq(stmts ...Stmt) *SeqStmt {
	return &SeqStmt{Stmts: stmts}
}

// Receive creates a receive statement with a waiting motion and arms.
func Receive(motion *MotionStmt, arms ...*ActionStmt) *ReceiveStmt {
	return &ReceiveStmt{Motion: motion, Arms: arms}
}

// Action creates one receive arm.
func Action(msg string, body Stmt) *ActionStmt {
	return &ActionStmt{Msg: msg, Body: body}
}

// If creates a guarded conditional from explicit branches.
func If(branches ...IfBranch) *IfStmt {
	return &IfStmt{Branches: branches}
}

// Branch pairs a condition with a branch body.
func Branch(cond guard.Cond, body Stmt) IfBranch {
	return IfBranch{Cond: cond, Body: body}
}

// IfElse creates the common two-branch conditional, guarding the else
// branch with the negated condition.
func IfElse(cond guard.Cond, then, els Stmt) *IfStmt {
	return If(Branch(cond, then), Branch(guard.Not(cond), els))
}

// While creates a guarded loop.
func While(cond guard.Cond, body Stmt) *WhileStmt {
	return &WhileStmt{Cond: cond, Body: body}
}

// Motion creates a motion primitive invocation.
func Motion(name string, args ...guard.Term) *MotionStmt {
	return &MotionStmt{Name: name, Args: args}
}

// Assign creates an assignment statement.
func Assign(v string, e guard.Term) *AssignStmt {
	return &AssignStmt{Var: v, Expr: e}
}

// Send creates a send statement.
func Send(to, msg string, args ...guard.Term) *SendStmt {
	return &SendStmt{To: to, Msg: msg, Args: args}
}

// Print creates a print statement.
func Print(text string) *PrintStmt {
	return &PrintStmt{Text: text}
}

// Skip creates a no-op statement.
func Skip() *SkipStmt {
	return &SkipStmt{}
}

// Exit creates an exit statement.
func Exit() *ExitStmt {
	return &ExitStmt{}
}

// ExitWith creates an exit statement carrying a status expression.
func ExitWith(code guard.Term) *ExitStmt {
	return &ExitStmt{Code: code}
}
