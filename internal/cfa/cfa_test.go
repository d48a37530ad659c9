package cfa

import (
	"strings"
	"testing"

	"github.com/ensemblelab/rolecheck/internal/ast"
	"github.com/ensemblelab/rolecheck/internal/guard"
	"github.com/ensemblelab/rolecheck/internal/types"
)

func edge(t *testing.T, g *Graph, from, to types.Label) {
	t.Helper()
	if !g.Contains(from, to) {
		t.Errorf("missing edge %s -> %s", from, to)
	}
}

func TestBuildStraightLine(t *testing.T) {
	// L0: seq, L1: assign, L2: motion, L3: exit
	root := ast.Seq(
		ast.Assign("x", guard.N(0)),
		ast.Motion("m_move"),
		ast.Exit(),
	)
	ast.AssignLabels(root)
	g := Build(root)

	edge(t, g, "L0", "L1")
	edge(t, g, "L1", "L2")
	edge(t, g, "L2", "L3")
	if got := g.Successors("L3"); got != nil {
		t.Errorf("exit should have no successors, got %v", got)
	}
	for _, l := range []types.Label{"L0", "L1", "L2"} {
		if n := len(g.Successors(l)); n != 1 {
			t.Errorf("label %s has %d successors, want 1", l, n)
		}
	}
}

func TestBuildWhile(t *testing.T) {
	// L0: seq, L1: while, L2: body motion, L3: exit
	root := ast.Seq(
		ast.While(guard.Lt(guard.V("x"), guard.N(5)), ast.Motion("m_step")),
		ast.Exit(),
	)
	ast.AssignLabels(root)
	g := Build(root)

	// Body exits loop back to the guard; the while label continues to the
	// statement after the loop. The body entry has no incoming edge at all.
	edge(t, g, "L2", "L1")
	edge(t, g, "L1", "L3")
	for _, from := range g.Labels() {
		if g.Contains(from, "L2") {
			t.Errorf("loop body entry reached from %s; it must stay outside the fallthrough graph", from)
		}
	}
}

func TestBuildReceive(t *testing.T) {
	// L0: receive, L1: motion, L2: arm Go, L3: send, L4: arm Stop, L5: exit
	r := ast.Receive(
		ast.Motion("m_idle"),
		ast.Action("Go", ast.Send("Cart", "Ack")),
		ast.Action("Stop", ast.Exit()),
	)
	ast.AssignLabels(r)
	g := Build(r)

	edge(t, g, "L0", "L1") // into the waiting motion
	edge(t, g, "L1", "L0") // motion rejoins the receive
	edge(t, g, "L0", "L2") // fan out to both arms
	edge(t, g, "L0", "L4")
	edge(t, g, "L2", "L3") // arm pass-through into its body
	edge(t, g, "L4", "L5")

	if n := len(g.Successors("L0")); n != 3 {
		t.Errorf("receive has %d successors, want 3", n)
	}
}

func TestBuildReceiveExitsJoin(t *testing.T) {
	// Arm bodies are alternative continuations; both wire to what follows.
	// L0: seq, L1: receive, L2: motion, L3: arm A, L4: skip, L5: arm B,
	// L6: print, L7: exit
	root := ast.Seq(
		ast.Receive(
			ast.Motion("m_idle"),
			ast.Action("A", ast.Skip()),
			ast.Action("B", ast.Print("late")),
		),
		ast.Exit(),
	)
	ast.AssignLabels(root)
	g := Build(root)

	edge(t, g, "L4", "L7")
	edge(t, g, "L6", "L7")
}

func TestBuildIf(t *testing.T) {
	// L0: seq, L1: if, L2: then motion, L3: else motion, L4: exit
	cond := guard.Le(guard.V("batt"), guard.N(20))
	root := ast.Seq(
		ast.IfElse(cond, ast.Motion("m_dock"), ast.Motion("m_work")),
		ast.Exit(),
	)
	ast.AssignLabels(root)
	g := Build(root)

	edge(t, g, "L0", "L1")
	edge(t, g, "L1", "L2")
	edge(t, g, "L1", "L3")
	edge(t, g, "L2", "L4") // branches rejoin after the conditional
	edge(t, g, "L3", "L4")
}

func TestSharedNodeMakesAmbiguousSuccessors(t *testing.T) {
	shared := ast.Motion("m_spin")
	root := ast.Seq(
		ast.Assign("x", guard.N(0)),
		shared,
		ast.Skip(),
		shared,
		ast.Exit(),
	)
	ast.AssignLabels(root)
	g := Build(root)

	// The shared node keeps one label used at two distinct sequence
	// positions, so that label falls through to two different places.
	succs := g.Successors(shared.Label())
	if len(succs) != 2 {
		t.Fatalf("shared label has successors %v, want two", succs)
	}
}

func TestPrintDot(t *testing.T) {
	root := ast.Seq(ast.Motion("m_move"), ast.Exit())
	ix := ast.AssignLabels(root)
	g := Build(root)

	var buf strings.Builder
	g.PrintDot(&buf, ix)
	out := buf.String()

	for _, want := range []string{
		`digraph cfa {`,
		`"L0: m_move(); exit" -> "L1: m_move()"`,
		`"L1: m_move()" -> "L2: exit"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output missing %q:\n%s", want, out)
		}
	}
}
