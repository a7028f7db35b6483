package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/vertex-source/internal/sink"
)

func TestRunWritesOneVertexPerEvent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pg.yaml"), []byte(`
name: pg
spatial:
  voxels:
    - {min: [0, 0, 0], max: [1, 1, 1], weight: 1}
energy:
  edges: [1, 2]
  weights: [1]
direction:
  isotropic: true
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
log_level: error
seed: 9
source: {path: pg.yaml}
placement:
  translation: [10, 0, 0]
clock: {type: periodic, interval_ns: 50}
run: {events: 25}
`), 0o600))

	outPath := filepath.Join(dir, "vertices.jsonl")
	require.NoError(t, run(filepath.Join(dir, "config.yaml"), outPath, 0, ""))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	var lines []sink.Line
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var l sink.Line
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &l))
		lines = append(lines, l)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 25)
	for i, l := range lines {
		require.Equal(t, float64(i)*50, l.Time)
		require.GreaterOrEqual(t, l.Position.X, 10.0)
		require.LessOrEqual(t, l.Position.X, 11.0)
		require.GreaterOrEqual(t, l.Energy, 1.0)
		require.Less(t, l.Energy, 2.0)
		require.InDelta(t, l.Energy, l.MomentumMagnitude(), 1e-9)
	}
}

func TestRunFailsOnBadSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("source: {path: missing.yaml}\n"), 0o600))
	require.Error(t, run(filepath.Join(dir, "config.yaml"), filepath.Join(dir, "out.jsonl"), 3, "error"))
}
