package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/ensemblelab/rolecheck/internal/types"
)

// TestProcessPathContextCancellation tests that context cancellation is handled properly
func TestProcessPathContextCancellation(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFile(t, tempDir, "patrol.chor.yaml", patrolScenario)

	engine, err := New("", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	verdicts, err := ProcessPath(ctx, nil, engine, tempDir, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, verdicts)
}

func TestProcessPathSingleFile(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	path := writeFile(t, tempDir, "patrol.chor.yaml", patrolScenario)

	engine, err := New("", nil)
	require.NoError(t, err)

	verdicts, err := ProcessPath(context.Background(), nil, engine, path, ProcessFile)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, tt.ResultRefines, verdicts[0].Result)
}

func TestProcessPathSingleFileWrongExtension(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	path := writeFile(t, tempDir, "patrol.yaml", patrolScenario)

	engine, err := New("", nil)
	require.NoError(t, err)

	verdicts, err := ProcessPath(context.Background(), nil, engine, path, ProcessFile)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}

func TestProcessPathDirectory(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFile(t, tempDir, "patrol.chor.yaml", patrolScenario)
	writeFile(t, tempDir, "drift.chor.yaml", driftScenario)
	writeFile(t, tempDir, "notes.yaml", "not a scenario")

	engine, err := New("", nil)
	require.NoError(t, err)

	verdicts, err := ProcessPath(context.Background(), nil, engine, tempDir, ProcessFile)
	require.NoError(t, err)
	require.Len(t, verdicts, 2)

	// Directory results come back sorted by scenario name.
	assert.Equal(t, "drift", verdicts[0].Scenario)
	assert.Equal(t, tt.ResultViolates, verdicts[0].Result)
	assert.Equal(t, "patrol", verdicts[1].Scenario)
	assert.Equal(t, tt.ResultRefines, verdicts[1].Result)
}

// TestProcessPathDirectorySkipsBrokenFiles ensures one malformed scenario
// does not block verdicts from the rest of the directory.
func TestProcessPathDirectorySkipsBrokenFiles(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeFile(t, tempDir, "patrol.chor.yaml", patrolScenario)
	writeFile(t, tempDir, "broken.chor.yaml", ":\n  - [")

	engine, err := New("", nil)
	require.NoError(t, err)

	verdicts, err := ProcessPath(context.Background(), nil, engine, tempDir, ProcessFile)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, "patrol", verdicts[0].Scenario)
}

// TestErrorPropagationSingleFile tests that errors are properly propagated for single files
func TestErrorPropagationSingleFile(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	path := writeFile(t, tempDir, "broken.chor.yaml", ":\n  - [")

	engine, err := New("", nil)
	require.NoError(t, err)

	verdicts, err := ProcessPath(context.Background(), nil, engine, path, ProcessFile)
	assert.Error(t, err)
	assert.Nil(t, verdicts)
}

func TestProcessPathMissingPath(t *testing.T) {
	t.Parallel()

	engine, err := New("", nil)
	require.NoError(t, err)

	_, err = ProcessPath(context.Background(), nil, engine, "/no/such/path", ProcessFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error accessing")
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()

	dirA := t.TempDir()
	dirB := t.TempDir()
	pathA := writeFile(t, dirA, "patrol.chor.yaml", patrolScenario)
	pathB := writeFile(t, dirB, "drift.chor.yaml", driftScenario)

	engine, err := New("", nil)
	require.NoError(t, err)

	verdicts, err := ProcessFiles(context.Background(), nil, engine, []string{pathA, pathB}, ProcessFile)
	require.NoError(t, err)
	require.Len(t, verdicts, 2)
	assert.Equal(t, "patrol", verdicts[0].Scenario)
	assert.Equal(t, "drift", verdicts[1].Scenario)
}

func TestProcessSources(t *testing.T) {
	t.Parallel()

	engine, err := New("", nil)
	require.NoError(t, err)

	verdicts, err := ProcessSources(context.Background(), nil, engine,
		[][]byte{[]byte(patrolScenario), []byte(driftScenario)}, ProcessSource)
	require.NoError(t, err)
	assert.Len(t, verdicts, 2)

	_, err = ProcessSources(context.Background(), nil, engine,
		[][]byte{[]byte("not: [valid")}, ProcessSource)
	assert.Error(t, err)
}
