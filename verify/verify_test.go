package verify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensemblelab/rolecheck/internal/guard"
	tt "github.com/ensemblelab/rolecheck/internal/types"
)

const patrolScenario = `
name: patrol
checks:
  - participant: Rover
    expect: refines
    program:
      - while:
          cond: { cmp: { op: "<", left: { var: x }, right: { num: 5 } } }
          body:
            - motion: { name: m_step }
      - exit: true
    projection:
      start: S0
      states:
        S0:
          choice:
            - guard: { cmp: { op: "<", left: { var: x }, right: { num: 5 } } }
              target: S1
            - guard: { cmp: { op: ">=", left: { var: x }, right: { num: 5 } } }
              target: S2
        S1: { motion: { name: step, end: S0 } }
        S2: { end: true }
`

const driftScenario = `
name: drift
checks:
  - participant: Rover
    program:
      - motion: { name: m_spin }
      - exit: true
    projection:
      start: S0
      states:
        S0: { motion: { name: step, end: S1 } }
        S1: { end: true }
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHasDesiredExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"patrol.chor.yaml", true},
		{"sub/dir/patrol.chor.yml", true},
		{"patrol.yaml", false},
		{"patrol.chor", false},
		{"main.go", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, hasDesiredExtension(tc.path), tc.path)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	t.Parallel()

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, config)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	const configSrc = `
name: fleet
solver:
  kind: process
  path: /usr/local/bin/dreal
  args: ["--in"]
  logic: QF_NRA
  timeout: 45s
names:
  motion_prefix: "mot_"
  msg_prefix: "ev_"
trace: true
ignore:
  - legacy/old.chor.yaml
`
	path := writeFile(t, t.TempDir(), ".rolecheck.yaml", configSrc)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "fleet", config.Name)
	assert.Equal(t, "process", config.Solver.Kind)
	assert.Equal(t, "/usr/local/bin/dreal", config.Solver.Path)
	assert.Equal(t, []string{"--in"}, config.Solver.Args)
	assert.Equal(t, "QF_NRA", config.Solver.Logic)
	assert.Equal(t, "45s", config.Solver.Timeout)
	assert.Equal(t, "mot_", config.Names.MotionPrefix)
	assert.Equal(t, "ev_", config.Names.MsgPrefix)
	assert.True(t, config.Trace)
	assert.Equal(t, []string{"legacy/old.chor.yaml"}, config.Ignore)
}

func TestBuildSolver(t *testing.T) {
	t.Parallel()

	t.Run("default is syntactic", func(t *testing.T) {
		solver, err := buildSolver(SolverConfig{})
		require.NoError(t, err)
		assert.IsType(t, guard.Syntactic{}, solver)
	})

	t.Run("process", func(t *testing.T) {
		solver, err := buildSolver(SolverConfig{
			Kind:    "process",
			Path:    "/opt/solvers/z3",
			Args:    []string{"-in"},
			Logic:   "QF_LRA",
			Timeout: "10s",
		})
		require.NoError(t, err)
		proc, ok := solver.(*guard.Process)
		require.True(t, ok)
		assert.Equal(t, "/opt/solvers/z3", proc.Path)
		assert.Equal(t, "QF_LRA", proc.Logic)
		assert.Equal(t, 10*time.Second, proc.Timeout)
	})

	t.Run("process without path", func(t *testing.T) {
		_, err := buildSolver(SolverConfig{Kind: "process"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a binary path")
	})

	t.Run("bad timeout", func(t *testing.T) {
		_, err := buildSolver(SolverConfig{Kind: "process", Path: "/bin/x", Timeout: "soon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid solver timeout")
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := buildSolver(SolverConfig{Kind: "quantum"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown solver kind "quantum"`)
	})
}

func TestNamesConfigDefaults(t *testing.T) {
	t.Parallel()

	rules := NamesConfig{}.rules()
	assert.Equal(t, "m_", rules.MotionPrefix)
	assert.Equal(t, "msg_", rules.MsgPrefix)

	rules = NamesConfig{MotionPrefix: "mot_"}.rules()
	assert.Equal(t, "mot_", rules.MotionPrefix)
	assert.Equal(t, "msg_", rules.MsgPrefix)
}

func TestNewWithDefaults(t *testing.T) {
	t.Parallel()

	engine, err := New("", nil)
	require.NoError(t, err)
	require.NotNil(t, engine)

	verdicts, err := engine.RunSource([]byte(patrolScenario))
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, tt.ResultRefines, verdicts[0].Result)
}

func TestNewAppliesNameOverrides(t *testing.T) {
	t.Parallel()

	const configSrc = `
names:
  motion_prefix: "mot_"
`
	// The program uses the overridden prefix; the default "m_" would fail.
	const scenarioSrc = `
name: custom-prefix
checks:
  - participant: Rover
    program:
      - motion: { name: mot_step }
      - exit: true
    projection:
      start: S0
      states:
        S0: { motion: { name: step, end: S1 } }
        S1: { end: true }
`
	configPath := writeFile(t, t.TempDir(), ".rolecheck.yaml", configSrc)

	engine, err := New(configPath, nil)
	require.NoError(t, err)

	verdicts, err := engine.RunSource([]byte(scenarioSrc))
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, tt.ResultRefines, verdicts[0].Result)

	defaultEngine, err := New("", nil)
	require.NoError(t, err)
	verdicts, err = defaultEngine.RunSource([]byte(scenarioSrc))
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, tt.ResultViolates, verdicts[0].Result)
}

func TestNewRejectsBadSolverConfig(t *testing.T) {
	t.Parallel()

	configPath := writeFile(t, t.TempDir(), ".rolecheck.yaml", "solver:\n  kind: quantum\n")
	_, err := New(configPath, nil)
	assert.Error(t, err)
}

func TestNewAppliesIgnorePaths(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	scenarioPath := writeFile(t, tempDir, "patrol.chor.yaml", patrolScenario)
	configPath := writeFile(t, tempDir, ".rolecheck.yaml", "ignore:\n  - "+scenarioPath+"\n")

	engine, err := New(configPath, nil)
	require.NoError(t, err)

	verdicts, err := engine.Run(scenarioPath)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}
