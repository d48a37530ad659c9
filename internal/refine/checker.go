// Package refine implements the refinement check between a participant's
// control program and its projected role: a greatest-fixpoint computation
// over the relation "execution may continue from this program point while
// the role is in this state". The relation starts universal and only
// shrinks; the program refines its role when the start pair survives.
package refine

import (
	"fmt"
	"sort"

	set "github.com/hashicorp/go-set/v3"
	"go.uber.org/zap"

	"github.com/ensemblelab/rolecheck/internal/ast"
	"github.com/ensemblelab/rolecheck/internal/cfa"
	"github.com/ensemblelab/rolecheck/internal/chor"
	"github.com/ensemblelab/rolecheck/internal/guard"
	"github.com/ensemblelab/rolecheck/internal/types"
)

// Config adjusts one check. The zero value is usable: syntactic solver,
// standard name prefixes, no trace, no logging.
type Config struct {
	// Solver decides implication queries.
	Solver guard.Solver
	// Names overrides the motion/message prefix convention.
	Names NameRules
	// Trace records every removed pair in the report.
	Trace bool
	// Logger receives per-pass debug output when set.
	Logger *zap.Logger
}

// Checker runs the refinement check for one program against one projection.
// A Checker owns its relation and its implication cache, so independent
// checks may run concurrently over the same (immutable) inputs.
type Checker struct {
	program ast.Stmt
	index   ast.Index
	proj    *chor.Projection
	graph   *cfa.Graph
	oracle  *oracle
	names   NameRules
	trace   bool
	log     *zap.Logger

	compat map[types.Label]*set.Set[types.Label]
	events []types.TraceEvent
	passes int
	evals  int
}

// New labels the program, derives its control-flow automaton, and prepares
// a check against proj.
func New(program ast.Stmt, proj *chor.Projection, cfg Config) *Checker {
	if cfg.Solver == nil {
		cfg.Solver = guard.Syntactic{}
	}
	if cfg.Names == (NameRules{}) {
		cfg.Names = DefaultNames()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Checker{
		program: program,
		index:   ast.AssignLabels(program),
		proj:    proj,
		graph:   cfa.Build(program),
		oracle:  newOracle(cfg.Solver),
		names:   cfg.Names,
		trace:   cfg.Trace,
		log:     cfg.Logger,
	}
}

// Graph exposes the control-flow automaton, for rendering.
func (c *Checker) Graph() *cfa.Graph { return c.graph }

// Index exposes the label index, for rendering.
func (c *Checker) Index() ast.Index { return c.index }

// Run computes the greatest fixpoint and returns the verdict. Any of the
// fatal error kinds aborts with no verdict. Run is not idempotent cheaply,
// but re-running simply recomputes the same fixpoint.
func (c *Checker) Run() (bool, error) {
	labels := c.index.Labels()
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	states := c.proj.States()

	c.compat = make(map[types.Label]*set.Set[types.Label], len(labels))
	for _, l := range labels {
		c.compat[l] = set.From(states)
	}
	c.events = nil
	c.passes = 0
	c.evals = 0

	changed := true
	for changed {
		changed = false
		c.passes++
		for _, l := range labels {
			// Snapshot the membership being iterated; removals elsewhere in
			// the relation stay visible to compatible, which is what makes
			// the outer loop converge to the greatest fixpoint.
			current := c.compat[l].Slice()
			sort.Slice(current, func(i, j int) bool { return current[i] < current[j] })
			for _, s := range current {
				c.evals++
				ok, err := c.compatible(l, s)
				if err != nil {
					return false, err
				}
				if !ok {
					c.compat[l].Remove(s)
					changed = true
					if c.trace {
						c.events = append(c.events, types.TraceEvent{Pass: c.passes, Point: l, State: s})
					}
					c.log.Debug("removed pair",
						zap.Int("pass", c.passes),
						zap.String("point", string(l)),
						zap.String("state", string(s)))
				}
			}
		}
	}

	root := c.program.Label()
	verdict := c.compat[root].Contains(c.proj.Start)
	c.log.Debug("fixpoint reached",
		zap.Int("passes", c.passes),
		zap.Int("evals", c.evals),
		zap.Bool("refines", verdict))
	return verdict, nil
}

// Report returns the diagnostic trail of the last Run.
func (c *Checker) Report() *types.RefinementReport {
	final := make(map[types.Label][]types.Label, len(c.compat))
	for l, ss := range c.compat {
		states := ss.Slice()
		sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
		final[l] = states
	}
	return &types.RefinementReport{
		Passes:  c.passes,
		Events:  c.events,
		Final:   final,
		Queries: c.oracle.queries,
		Evals:   c.evals,
	}
}

// refines is the coinductive membership read: can execution continue from
// program point target with the role in state? It consults the current,
// possibly not yet converged, relation.
func (c *Checker) refines(target, state types.Label) (bool, error) {
	ss, ok := c.compat[target]
	if !ok {
		return false, &UnresolvedLabelError{Label: target, Scope: "program"}
	}
	return ss.Contains(state), nil
}

// refinesAfter continues past l's unique fallthrough successor. A point
// with no successor ran off the end of the program, which is faithful only
// if the role state is End.
func (c *Checker) refinesAfter(l, state types.Label) (bool, error) {
	succs := c.graph.Successors(l)
	switch len(succs) {
	case 0:
		node, ok := c.proj.NodeAt(state)
		if !ok {
			return false, &UnresolvedLabelError{Label: state, Scope: "projection"}
		}
		_, isEnd := node.(chor.End)
		return isEnd, nil
	case 1:
		return c.refines(succs[0], state)
	default:
		return false, &AmbiguousSuccessorError{Point: l, Successors: succs}
	}
}

// compatible decides whether the program point l may sit in role state s,
// reading continuations from the current relation. It dispatches on the
// pair of node kinds; pairings outside the table are plain mismatches, not
// errors, except for a statement kind the table does not know at all.
func (c *Checker) compatible(l, s types.Label) (bool, error) {
	stmt, ok := c.index.At(l)
	if !ok {
		return false, &UnresolvedLabelError{Label: l, Scope: "program"}
	}
	node, ok := c.proj.NodeAt(s)
	if !ok {
		return false, &UnresolvedLabelError{Label: s, Scope: "projection"}
	}

	switch v := stmt.(type) {
	case *ast.MotionStmt:
		m, ok := node.(chor.Motion)
		if !ok || !c.names.SameMotion(v.Name, m.Name) {
			return false, nil
		}
		return c.refinesAfter(l, m.End)

	case *ast.AssignStmt:
		// Environment effects are not modeled; the role state is unchanged.
		return c.refinesAfter(l, s)

	case *ast.WhileStmt:
		return c.compatibleWhile(l, v, s, node)

	case *ast.IfStmt:
		return c.compatibleIf(v, s, node)

	case *ast.SendStmt:
		sm, ok := node.(chor.SendMessage)
		if !ok || v.To != sm.Receiver || !c.names.SameMsg(v.Msg, sm.Msg) {
			return false, nil
		}
		return c.refinesAfter(l, sm.End)

	case *ast.ReceiveStmt:
		return c.compatibleReceive(v, s, node)

	case *ast.ActionStmt:
		rm, ok := node.(chor.ReceiveMessage)
		if !ok || v.Msg != rm.Msg {
			return false, nil
		}
		return c.refinesAfter(l, rm.End)

	case *ast.SeqStmt, *ast.PrintStmt, *ast.SkipStmt:
		return c.refinesAfter(l, s)

	case *ast.ExitStmt:
		_, isEnd := node.(chor.End)
		return isEnd, nil

	default:
		return false, &UnknownNodeKindError{Point: l, Kind: fmt.Sprintf("%T", stmt)}
	}
}

// compatibleWhile: a trivially-true loop just enters its body. Otherwise
// the role must offer a guarded choice with one branch the loop may enter
// under its condition and one branch it may leave through under the
// negation.
func (c *Checker) compatibleWhile(l types.Label, w *ast.WhileStmt, s types.Label, node chor.Node) (bool, error) {
	if guard.IsTrue(w.Cond) {
		return c.refines(w.Body.Label(), s)
	}
	gc, ok := node.(chor.GuardedChoice)
	if !ok {
		return false, nil
	}

	enters := false
	for _, b := range gc.Branches {
		imp, err := c.oracle.implies(w.Cond, b.Guard)
		if err != nil {
			return false, err
		}
		if !imp {
			continue
		}
		ref, err := c.refines(w.Body.Label(), b.Target)
		if err != nil {
			return false, err
		}
		if ref {
			enters = true
			break
		}
	}
	if !enters {
		return false, nil
	}

	negated := guard.Not(w.Cond)
	for _, b := range gc.Branches {
		imp, err := c.oracle.implies(negated, b.Guard)
		if err != nil {
			return false, err
		}
		if !imp {
			continue
		}
		ref, err := c.refinesAfter(l, b.Target)
		if err != nil {
			return false, err
		}
		if ref {
			return true, nil
		}
	}
	return false, nil
}

// compatibleIf: against a guarded choice, every program branch must be
// covered by a choice branch of the state being matched whose guard is
// implied and whose target admits the branch body. Against anything else,
// only a branch guarded by the literal true can stand in for the whole
// conditional.
func (c *Checker) compatibleIf(f *ast.IfStmt, s types.Label, node chor.Node) (bool, error) {
	gc, ok := node.(chor.GuardedChoice)
	if !ok {
		for _, b := range f.Branches {
			if !guard.IsTrue(b.Cond) {
				continue
			}
			ref, err := c.refines(b.Body.Label(), s)
			if err != nil {
				return false, err
			}
			if ref {
				return true, nil
			}
		}
		return false, nil
	}

	for _, br := range f.Branches {
		covered := false
		for _, gb := range gc.Branches {
			imp, err := c.oracle.implies(br.Cond, gb.Guard)
			if err != nil {
				return false, err
			}
			if !imp {
				continue
			}
			ref, err := c.refines(br.Body.Label(), gb.Target)
			if err != nil {
				return false, err
			}
			if ref {
				covered = true
				break
			}
		}
		if !covered {
			return false, nil
		}
	}
	return true, nil
}

// compatibleReceive: a receive stands for its waiting motion, for any one
// of its arms, or for an external choice every alternative of which is
// covered by the motion or some arm.
func (c *Checker) compatibleReceive(r *ast.ReceiveStmt, s types.Label, node chor.Node) (bool, error) {
	switch n := node.(type) {
	case chor.ReceiveMessage:
		for _, a := range r.Arms {
			ref, err := c.refines(a.Label(), s)
			if err != nil {
				return false, err
			}
			if ref {
				return true, nil
			}
		}
		return false, nil

	case chor.Motion:
		return c.refines(r.Motion.Label(), s)

	case chor.ExternalChoice:
		for _, target := range n.Targets {
			ok, err := c.receiveCovers(r, target)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	default:
		return false, nil
	}
}

func (c *Checker) receiveCovers(r *ast.ReceiveStmt, target types.Label) (bool, error) {
	ref, err := c.refines(r.Motion.Label(), target)
	if err != nil || ref {
		return ref, err
	}
	for _, a := range r.Arms {
		ref, err := c.refines(a.Label(), target)
		if err != nil {
			return false, err
		}
		if ref {
			return true, nil
		}
	}
	return false, nil
}
