// Package cfa derives the control-flow automaton of a control program: for
// every statement label, the set of labels execution falls through to when
// the statement completes normally. Branch entries are not in this graph;
// the refinement check reads those straight off the syntax tree.
package cfa

import (
	"sort"

	set "github.com/hashicorp/go-set/v3"

	"github.com/ensemblelab/rolecheck/internal/ast"
	"github.com/ensemblelab/rolecheck/internal/types"
)

// Graph holds the fallthrough-successor relation. It is built once per
// program and never mutated afterwards.
type Graph struct {
	next map[types.Label]*set.Set[types.Label]
}

// Build constructs the graph for a labeled program. The builder itself
// never fails; a label ending up with several fallthrough successors is
// only rejected when a consumer actually asks for the unique successor.
func Build(root ast.Stmt) *Graph {
	g := &Graph{next: make(map[types.Label]*set.Set[types.Label])}
	g.build(set.New[types.Label](0), root)
	return g
}

// build wires every predecessor to s's own label, recurses per kind, and
// returns the exit labels to be wired to whatever follows s.
func (g *Graph) build(preds *set.Set[types.Label], s ast.Stmt) *set.Set[types.Label] {
	l := s.Label()
	for _, p := range preds.Slice() {
		g.connect(p, l)
	}
	own := set.From([]types.Label{l})

	switch v := s.(type) {
	case *ast.SeqStmt:
		exits := own
		for _, c := range v.Stmts {
			exits = g.build(exits, c)
		}
		return exits
	case *ast.ReceiveStmt:
		// The waiting motion rejoins the receive, which then fans out into
		// one arm per message alternative.
		for _, m := range g.build(own, v.Motion).Slice() {
			g.connect(m, l)
		}
		exits := set.New[types.Label](0)
		for _, a := range v.Arms {
			exits.InsertSlice(g.build(own, a).Slice())
		}
		return exits
	case *ast.ActionStmt:
		return g.build(own, v.Body)
	case *ast.IfStmt:
		exits := set.New[types.Label](0)
		for _, b := range v.Branches {
			exits.InsertSlice(g.build(own, b.Body).Slice())
		}
		return exits
	case *ast.WhileStmt:
		// The body entry gets no edge here; the check reaches it through
		// the syntax tree. Body exits loop back to re-evaluate the guard,
		// and the while's own label doubles as the loop-exit point.
		for _, m := range g.build(set.New[types.Label](0), v.Body).Slice() {
			g.connect(m, l)
		}
		return own
	default:
		return own
	}
}

func (g *Graph) connect(from, to types.Label) {
	s, ok := g.next[from]
	if !ok {
		s = set.New[types.Label](1)
		g.next[from] = s
	}
	s.Insert(to)
}

// Successors returns l's fallthrough successors in sorted order. A label
// with no entry has none.
func (g *Graph) Successors(l types.Label) []types.Label {
	s, ok := g.next[l]
	if !ok || s.Empty() {
		return nil
	}
	out := s.Slice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether the edge from -> to is present.
func (g *Graph) Contains(from, to types.Label) bool {
	s, ok := g.next[from]
	return ok && s.Contains(to)
}

// Labels returns every label with at least one outgoing edge, sorted.
func (g *Graph) Labels() []types.Label {
	out := make([]types.Label, 0, len(g.next))
	for l := range g.next {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
