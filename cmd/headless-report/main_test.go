package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/formation-grid/internal/config"
	"github.com/Garsondee/formation-grid/internal/sim"
)

func TestSummarize(t *testing.T) {
	all := []runStats{
		{report: sim.Report{Rotations: 1, MeanTravel: 2, MaxTravel: 3, SettledTick: 40}},
		{report: sim.Report{Rotations: 2, MeanTravel: 4, MaxTravel: 7, SettledTick: -1, MeanRemaining: 0.5}},
		{report: sim.Report{Rotations: 1, MeanTravel: 0, MaxTravel: 1, SettledTick: 20}},
	}
	agg := summarize(all)
	assert.Equal(t, 3, agg.runs)
	assert.Equal(t, 4, agg.rotations)
	assert.Equal(t, 2, agg.settledRuns)
	assert.InDelta(t, 2.0, agg.meanTravel, 1e-9)
	assert.Equal(t, 7.0, agg.maxTravel)
	assert.Equal(t, []int{20, 40}, agg.settleTicks)
}

func TestTopDepartures_OrdersByCountThenLabel(t *testing.T) {
	got := topDepartures(map[string]int{"A02": 3, "A01": 3, "A07": 9, "A04": 1}, 3)
	assert.Equal(t, "A07=9 A01=3 A02=3", got)
	assert.Equal(t, "none", topDepartures(nil, 3))
}

func TestTickRange(t *testing.T) {
	assert.Equal(t, "n/a", tickRange(nil))
	assert.Equal(t, "min=10 median=20 max=30 avg=20.0", tickRange([]int{10, 20, 30}))
}

func TestRunScenario_Pivot(t *testing.T) {
	cfg := config.Default()
	cfg.Sim.Scenario = "pivot"
	cfg.Sim.Jitter = 0

	rs, s, err := runScenario(cfg, 1, 42, 60, false)
	require.NoError(t, err)
	assert.Equal(t, 1, rs.report.Rotations)
	assert.Equal(t, 30, rs.firstRotateTick)
	assert.Equal(t, rs.firstRotateTick, rs.lastRotateTick)
	assert.Less(t, rs.report.TotalTravel, 1e-6)
	assert.Equal(t, 60, s.CurrentTick())
}

func TestRootCmd_PrintsReport(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--runs", "2", "--ticks", "200", "--scenario", "orbit"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "scenario=orbit")
	assert.Contains(t, out.String(), "--- Run 2 (seed=43) ---")
	assert.Contains(t, out.String(), "=== Aggregate (2 runs) ===")
}

func TestRootCmd_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formation.yaml")
	require.NoError(t, os.WriteFile(path, []byte("formation:\n  rows: 3\n  columns: 3\nsim:\n  scenario: turn-left\n"), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--config", path, "--runs", "1", "--ticks", "50"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "scenario=turn-left grid=3x3")
}

func TestRootCmd_RejectsBadInput(t *testing.T) {
	for _, args := range [][]string{
		{"--runs", "0"},
		{"--ticks=-1"},
		{"--scenario", "zigzag"},
	} {
		cmd := newRootCmd(&bytes.Buffer{})
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), "args %v", args)
	}
}
