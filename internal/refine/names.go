package refine

import "strings"

// NameRules bridges the naming conventions between program identifiers and
// projection names. Generated projections prefix motion primitives with
// "m_" and message types with "msg_"; hand-written programs often keep the
// prefix while the choreography drops it. This is a fixed convention, not
// identifier resolution, and it is kept behind these two predicates so a
// different convention (or an explicit mapping table) can replace it.
type NameRules struct {
	MotionPrefix string
	MsgPrefix    string
}

// DefaultNames returns the standard prefix convention.
func DefaultNames() NameRules {
	return NameRules{MotionPrefix: "m_", MsgPrefix: "msg_"}
}

// SameMotion reports whether a program motion name implements a projection
// motion name. Matching is case-insensitive and tolerates the prefix on the
// program side only.
func (r NameRules) SameMotion(prog, proj string) bool {
	return samePrefixed(prog, proj, r.MotionPrefix)
}

// SameMsg is SameMotion for message types.
func (r NameRules) SameMsg(prog, proj string) bool {
	return samePrefixed(prog, proj, r.MsgPrefix)
}

func samePrefixed(prog, proj, prefix string) bool {
	l1 := strings.ToLower(prog)
	l2 := strings.ToLower(proj)
	return l1 == l2 || l1 == strings.ToLower(prefix)+l2
}
