// Package chor models the local role a choreography assigns to one
// participant: a labeled transition system over guarded message and motion
// steps, produced upstream by projecting the global protocol. Projections
// are read-only inputs to the refinement check.
package chor

import (
	"sort"
	"strings"

	"github.com/ensemblelab/rolecheck/internal/guard"
	"github.com/ensemblelab/rolecheck/internal/types"
)

// Node describes the behavior at one projection state.
type Node interface {
	isNode()
	String() string
}

// Motion executes a motion primitive, then moves to End.
type Motion struct {
	Name string
	End  types.Label
}

func (Motion) isNode() {}
func (n Motion) String() string {
	return "motion " + n.Name + " -> " + string(n.End)
}

// SendMessage emits a message to a participant, then moves to End.
type SendMessage struct {
	Receiver string
	Msg      string
	End      types.Label
}

func (SendMessage) isNode() {}
func (n SendMessage) String() string {
	return "send " + n.Msg + " to " + n.Receiver + " -> " + string(n.End)
}

// ReceiveMessage waits for a message of the given type, then moves to End.
type ReceiveMessage struct {
	Msg string
	End types.Label
}

func (ReceiveMessage) isNode() {}
func (n ReceiveMessage) String() string {
	return "recv " + n.Msg + " -> " + string(n.End)
}

// GuardedBranch is one alternative of a GuardedChoice.
type GuardedBranch struct {
	Guard  guard.Cond
	Target types.Label
}

// GuardedChoice branches on guard conditions decided by the participant.
type GuardedChoice struct {
	Branches []GuardedBranch
}

func (GuardedChoice) isNode() {}
func (n GuardedChoice) String() string {
	parts := make([]string, len(n.Branches))
	for i, b := range n.Branches {
		parts[i] = "[" + b.Guard.String() + "] -> " + string(b.Target)
	}
	return "choice { " + strings.Join(parts, " | ") + " }"
}

// ExternalChoice branches on which event arrives first; the participant
// does not control the outcome.
type ExternalChoice struct {
	Targets []types.Label
}

func (ExternalChoice) isNode() {}
func (n ExternalChoice) String() string {
	parts := make([]string, len(n.Targets))
	for i, t := range n.Targets {
		parts[i] = string(t)
	}
	return "external { " + strings.Join(parts, " | ") + " }"
}

// End marks successful termination of the role.
type End struct{}

func (End) isNode() {}
func (End) String() string {
	return "end"
}

// Projection is one participant's local role.
type Projection struct {
	// Participant is the role's owner, used in reports.
	Participant string
	// Start is the initial state.
	Start types.Label
	// Nodes maps every state to its behavior.
	Nodes map[types.Label]Node
}

// NodeAt returns the behavior at state l.
func (p *Projection) NodeAt(l types.Label) (Node, bool) {
	n, ok := p.Nodes[l]
	return n, ok
}

// States returns all state labels in sorted order, so iteration over a
// projection is deterministic.
func (p *Projection) States() []types.Label {
	out := make([]types.Label, 0, len(p.Nodes))
	for l := range p.Nodes {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *Projection) String() string {
	var b strings.Builder
	b.WriteString(p.Participant + " @ " + string(p.Start) + "\n")
	for _, l := range p.States() {
		b.WriteString("  " + string(l) + ": " + p.Nodes[l].String() + "\n")
	}
	return b.String()
}
