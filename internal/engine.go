package internal

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ensemblelab/rolecheck/internal/guard"
	"github.com/ensemblelab/rolecheck/internal/refine"
	"github.com/ensemblelab/rolecheck/internal/scenario"
	tt "github.com/ensemblelab/rolecheck/internal/types"
)

// Engine manages the refinement checking process.
type Engine struct {
	solver       guard.Solver
	names        refine.NameRules
	trace        bool
	logger       *zap.Logger
	ignoredPaths map[string]bool
	cache        *Cache

	watcher    *fsnotify.Watcher
	watchDirs  []string
	isWatching bool

	// OnResult is called with fresh verdicts for a path during watch mode.
	// When nil, verdicts are logged.
	OnResult func(path string, verdicts []tt.Verdict)
}

// NewEngine creates a new check engine. A nil solver falls back to the
// built-in syntactic one, a nil logger to a no-op logger.
func NewEngine(solver guard.Solver, names refine.NameRules, logger *zap.Logger) (*Engine, error) {
	if solver == nil {
		solver = guard.Syntactic{}
	}
	if names == (refine.NameRules{}) {
		names = refine.DefaultNames()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		solver: solver,
		names:  names,
		logger: logger,
	}, nil
}

// SetTrace records removed pairs in each verdict's report.
func (e *Engine) SetTrace(trace bool) {
	e.trace = trace
}

// SetCache attaches a verdict cache to the engine.
func (e *Engine) SetCache(cache *Cache) {
	e.cache = cache
}

func (e *Engine) IgnorePath(path string) {
	if e.ignoredPaths == nil {
		e.ignoredPaths = make(map[string]bool)
	}
	e.ignoredPaths[path] = true
}

// Run checks every participant of a scenario file and returns one verdict
// per check, in file order.
func (e *Engine) Run(path string) ([]tt.Verdict, error) {
	if e.ignoredPaths[path] {
		return nil, nil
	}

	if e.cache != nil {
		if verdicts, ok := e.cache.Get(path); ok {
			e.logger.Debug("cache hit", zap.String("path", path))
			return verdicts, nil
		}
	}

	sc, err := scenario.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	verdicts := e.runScenario(sc)
	for i := range verdicts {
		verdicts[i].Path = path
	}

	if e.cache != nil {
		if err := e.cache.Set(path, verdicts); err != nil {
			e.logger.Warn("cache update failed", zap.String("path", path), zap.Error(err))
		}
	}
	return verdicts, nil
}

// RunSource checks scenario content that is not backed by a file.
func (e *Engine) RunSource(source []byte) ([]tt.Verdict, error) {
	sc, err := scenario.Parse(source)
	if err != nil {
		return nil, err
	}
	return e.runScenario(sc), nil
}

// runScenario fans the checks out, one goroutine per participant. Checker
// state is never shared between checks.
func (e *Engine) runScenario(sc *scenario.Scenario) []tt.Verdict {
	verdicts := make([]tt.Verdict, len(sc.Checks))

	var wg sync.WaitGroup
	for i := range sc.Checks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			verdicts[i] = e.checkOne(sc.Name, &sc.Checks[i])
		}(i)
	}
	wg.Wait()

	return verdicts
}

func (e *Engine) checkOne(scenarioName string, check *scenario.Check) tt.Verdict {
	v := tt.Verdict{
		Scenario:    scenarioName,
		Participant: check.Participant,
		Expected:    check.Expect,
	}

	start := time.Now()
	program, proj, err := check.Build()
	if err != nil {
		v.Result = tt.ResultFatal
		v.Err = err.Error()
		v.Elapsed = time.Since(start)
		return v
	}

	checker := refine.New(program, proj, refine.Config{
		Solver: e.solver,
		Names:  e.names,
		Trace:  e.trace,
		Logger: e.logger,
	})
	ok, err := checker.Run()
	v.Elapsed = time.Since(start)
	if e.trace {
		v.Report = checker.Report()
	}

	switch {
	case err != nil:
		v.Result = tt.ResultFatal
		v.Err = err.Error()
	case ok:
		v.Result = tt.ResultRefines
	default:
		v.Result = tt.ResultViolates
	}

	e.logger.Debug("check finished",
		zap.String("scenario", scenarioName),
		zap.String("participant", check.Participant),
		zap.String("result", v.Result.String()),
		zap.Duration("elapsed", v.Elapsed))
	return v
}

// SortVerdicts orders verdicts by scenario then participant. Used when
// verdicts from several files are merged into one report.
func SortVerdicts(verdicts []tt.Verdict) {
	sort.SliceStable(verdicts, func(i, j int) bool {
		if verdicts[i].Scenario != verdicts[j].Scenario {
			return verdicts[i].Scenario < verdicts[j].Scenario
		}
		return verdicts[i].Participant < verdicts[j].Participant
	})
}
