package guard

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultSolverTimeout = 30 * time.Second

// Process decides conditions by piping an SMT-LIB 2 script into an external
// solver binary such as dreal or z3 and reading its verdict from stdout.
// A delta-sat answer counts as sat: delta-complete solvers only weaken
// toward sat, so unsat answers stay proofs.
type Process struct {
	// Path is the solver binary. Required.
	Path string
	// Args are passed before the script is written to stdin.
	Args []string
	// Logic is the value for (set-logic ...); QF_NRA when empty.
	Logic string
	// Timeout bounds one invocation. Defaults to 30s.
	Timeout time.Duration
}

func (p *Process) Decide(c Cond) (Result, error) {
	if p.Path == "" {
		return Unsat, fmt.Errorf("process solver: no binary configured")
	}
	logic := p.Logic
	if logic == "" {
		logic = "QF_NRA"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultSolverTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Path, p.Args...)
	cmd.Stdin = strings.NewReader(Script(c, logic))
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return Unsat, fmt.Errorf("process solver: %s timed out after %s", p.Path, timeout)
	}

	if res, ok := parseVerdict(out.String()); ok {
		return res, nil
	}
	if err != nil {
		return Unsat, fmt.Errorf("process solver: %s: %w: %s", p.Path, err, excerpt(out.String()))
	}
	return Unsat, fmt.Errorf("process solver: %s gave no verdict: %s", p.Path, excerpt(out.String()))
}

// parseVerdict scans solver output for the final sat/unsat token. Solvers
// differ in banners and trailing detail, so each line is inspected.
func parseVerdict(output string) (Result, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "unsat":
			return Unsat, true
		case line == "sat" || strings.HasPrefix(line, "delta-sat"):
			return Sat, true
		}
	}
	return Unsat, false
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "(no output)"
	}
	return s
}
