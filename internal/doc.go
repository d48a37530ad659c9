// Package internal provides the core functionality of the refinement checker.
//
// This package implements the engine that coordinates checking scenario files:
// loading scenarios, running each participant's refinement check, caching
// verdicts, and re-running checks when watched files change.
//
// Key components:
//
// Engine: The main checking engine. It owns the solver and name-rule
// configuration, fans scenario checks out across goroutines, and assembles
// the per-participant verdicts.
//
// Cache: A verdict cache keyed by file content hash, so unchanged scenario
// files are not re-checked between runs. Entries expire and are invalidated
// when configured dependency files (such as the checker configuration) change.
//
// Watch: File watching support that re-runs an engine whenever a scenario
// file changes in a watched directory tree.
//
// The refinement semantics live in the subpackages: ast models control
// programs, chor models projected roles, cfa derives control-flow successors,
// guard holds conditions and solvers, refine runs the compatibility fixpoint,
// and scenario loads the YAML input format.
//
// Usage:
//
//	engine, err := internal.NewEngine(nil, refine.DefaultNames(), logger)
//	if err != nil {
//	    // handle error
//	}
//
//	verdicts, err := engine.Run("path/to/patrol.chor.yaml")
//	if err != nil {
//	    // handle error
//	}
//
//	for _, v := range verdicts {
//	    fmt.Printf("%s / %s: %s\n", v.Participant, v.Scenario, v.Result)
//	}
//
// This package is intended for internal use within the checker and should not
// be imported by external packages.
package internal
