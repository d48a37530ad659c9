package ast

import (
	"fmt"

	"github.com/ensemblelab/rolecheck/internal/types"
)

// Index maps every minted label to its statement.
type Index map[types.Label]Stmt

// At looks a label up in the index.
func (ix Index) At(l types.Label) (Stmt, bool) {
	s, ok := ix[l]
	return s, ok
}

// Labels returns the domain of the index.
func (ix Index) Labels() []types.Label {
	out := make([]types.Label, 0, len(ix))
	for l := range ix {
		out = append(out, l)
	}
	return out
}

// AssignLabels mints a fresh label for every statement reachable from root,
// in preorder, and returns the label index. It is called exactly once per
// tree, before the tree is handed to any analysis.
func AssignLabels(root Stmt) Index {
	lb := labeler{index: make(Index)}
	lb.visit(root)
	return lb.index
}

type labeler struct {
	next  int
	index Index
}

func (lb *labeler) visit(s Stmt) {
	l := types.Label(fmt.Sprintf("L%d", lb.next))
	lb.next++
	lb.index[l] = s

	switch v := s.(type) {
	case *SeqStmt:
		v.lbl = l
		for _, c := range v.Stmts {
			lb.visit(c)
		}
	case *ReceiveStmt:
		v.lbl = l
		lb.visit(v.Motion)
		for _, a := range v.Arms {
			lb.visit(a)
		}
	case *ActionStmt:
		v.lbl = l
		lb.visit(v.Body)
	case *IfStmt:
		v.lbl = l
		for _, b := range v.Branches {
			lb.visit(b.Body)
		}
	case *WhileStmt:
		v.lbl = l
		lb.visit(v.Body)
	case *MotionStmt:
		v.lbl = l
	case *AssignStmt:
		v.lbl = l
	case *SendStmt:
		v.lbl = l
	case *PrintStmt:
		v.lbl = l
	case *SkipStmt:
		v.lbl = l
	case *ExitStmt:
		v.lbl = l
	default:
		panic(fmt.Sprintf("ast: unknown statement %T", s))
	}
}
