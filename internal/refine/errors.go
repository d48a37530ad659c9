package refine

import (
	"fmt"
	"strings"

	"github.com/ensemblelab/rolecheck/internal/types"
)

// The four failure kinds below abort a check with no verdict. Ordinary
// incompatibility is not an error; it just shrinks the relation.

// AmbiguousSuccessorError reports a program point with more than one
// fallthrough successor, a malformed control-flow shape.
type AmbiguousSuccessorError struct {
	Point      types.Label
	Successors []types.Label
}

func (e *AmbiguousSuccessorError) Error() string {
	parts := make([]string, len(e.Successors))
	for i, s := range e.Successors {
		parts[i] = string(s)
	}
	return fmt.Sprintf("ambiguous successors for %s: {%s}", e.Point, strings.Join(parts, ", "))
}

// UnknownNodeKindError reports a node kind the compatibility table does not
// cover. With the statement union closed this cannot happen on well-formed
// input, but a verdict must never be fabricated for it.
type UnknownNodeKindError struct {
	Point types.Label
	Kind  string
}

func (e *UnknownNodeKindError) Error() string {
	return fmt.Sprintf("no compatibility rule for %s node at %s", e.Kind, e.Point)
}

// OracleError reports that the decision procedure failed on a query.
type OracleError struct {
	Query string
	Err   error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle failed on %s: %v", e.Query, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// UnresolvedLabelError reports a referenced label with no backing node.
type UnresolvedLabelError struct {
	Label types.Label
	Scope string // "program" or "projection"
}

func (e *UnresolvedLabelError) Error() string {
	return fmt.Sprintf("label %s resolves to no %s node", e.Label, e.Scope)
}
