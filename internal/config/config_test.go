package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/formation-grid/internal/formation"
)

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	fc, err := cfg.FormationConfig()
	require.NoError(t, err)
	assert.Equal(t, 16, fc.Total())
	assert.Equal(t, formation.AnchorCentered, fc.Anchor)
	assert.Equal(t, formation.DefaultThresholds(), fc.Thresholds)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
formation:
  rows: 5
  columns: 5
  anchor: legacy
sim:
  scenario: orbit
`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Formation.Rows)
	assert.Equal(t, 2.0, cfg.Formation.RowSpacing, "unset keys keep their default")
	assert.Equal(t, "orbit", cfg.Sim.Scenario)
	assert.Equal(t, 0.15, cfg.Sim.WalkerSpeed)

	fc, err := cfg.FormationConfig()
	require.NoError(t, err)
	assert.Equal(t, formation.AnchorLegacy, fc.Anchor)
}

func TestParse_EmptyIsDefault(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "formation:\n  rowz: 3\n",
		"rectangular":      "formation:\n  rows: 2\n  columns: 3\n",
		"zero rows":        "formation:\n  rows: 0\n  columns: 0\n",
		"negative spacing": "formation:\n  row_spacing: -1\n",
		"bad anchor":       "formation:\n  anchor: diagonal\n",
		"bad thresholds":   "formation:\n  fresh_turn_deg: 120\n  continued_turn_deg: 60\n",
		"zero speed":       "sim:\n  walker_speed: 0\n",
		"negative jitter":  "sim:\n  jitter: -0.1\n",
		"not yaml":         "formation: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParse_InvalidShapeWrapsSentinel(t *testing.T) {
	_, err := Parse([]byte("formation:\n  rows: 2\n  columns: 3\n"))
	assert.ErrorIs(t, err, formation.ErrInvalidConfig)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formation.yaml")
	require.NoError(t, os.WriteFile(path, []byte("formation:\n  rows: 3\n  columns: 3\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Formation.Columns)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
