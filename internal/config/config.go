// Package config loads formation and simulation settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Garsondee/formation-grid/internal/formation"
)

type Config struct {
	Formation FormationConfig `yaml:"formation"`
	Sim       SimConfig       `yaml:"sim"`
}

type FormationConfig struct {
	Rows               int     `yaml:"rows"`
	Columns            int     `yaml:"columns"`
	RowSpacing         float64 `yaml:"row_spacing"`
	ColumnSpacing      float64 `yaml:"column_spacing"`
	Anchor             string  `yaml:"anchor"`
	FreshTurnDeg       float64 `yaml:"fresh_turn_deg"`
	ContinuedTurnDeg   float64 `yaml:"continued_turn_deg"`
	DebugVisualization bool    `yaml:"debug_visualization"`
}

type SimConfig struct {
	Scenario      string  `yaml:"scenario"`
	WalkerSpeed   float64 `yaml:"walker_speed"`
	Jitter        float64 `yaml:"jitter"`
	ArriveEpsilon float64 `yaml:"arrive_epsilon"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	th := formation.DefaultThresholds()
	return Config{
		Formation: FormationConfig{
			Rows:             4,
			Columns:          4,
			RowSpacing:       2,
			ColumnSpacing:    2,
			Anchor:           formation.AnchorCentered.String(),
			FreshTurnDeg:     th.FreshTurn,
			ContinuedTurnDeg: th.ContinuedTurn,
		},
		Sim: SimConfig{
			Scenario:      "turn-right",
			WalkerSpeed:   0.15,
			Jitter:        0.25,
			ArriveEpsilon: 0.05,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks everything the formation solver and the sim will need.
func (c Config) Validate() error {
	if _, err := c.FormationConfig(); err != nil {
		return err
	}
	if c.Sim.WalkerSpeed <= 0 {
		return fmt.Errorf("sim.walker_speed must be > 0, got %g: %w", c.Sim.WalkerSpeed, formation.ErrInvalidConfig)
	}
	if c.Sim.Jitter < 0 {
		return fmt.Errorf("sim.jitter must be >= 0, got %g: %w", c.Sim.Jitter, formation.ErrInvalidConfig)
	}
	if c.Sim.ArriveEpsilon <= 0 {
		return fmt.Errorf("sim.arrive_epsilon must be > 0, got %g: %w", c.Sim.ArriveEpsilon, formation.ErrInvalidConfig)
	}
	return nil
}

// FormationConfig converts the formation section into a solver config.
// The frame provider is left for the caller to set.
func (c Config) FormationConfig() (formation.Config, error) {
	anchor, err := formation.ParseAnchor(c.Formation.Anchor)
	if err != nil {
		return formation.Config{}, err
	}
	fc := formation.Config{
		Shape: formation.Shape{
			Rows:          c.Formation.Rows,
			Columns:       c.Formation.Columns,
			RowSpacing:    c.Formation.RowSpacing,
			ColumnSpacing: c.Formation.ColumnSpacing,
		},
		Anchor: anchor,
		Thresholds: formation.Thresholds{
			FreshTurn:     c.Formation.FreshTurnDeg,
			ContinuedTurn: c.Formation.ContinuedTurnDeg,
		},
		DebugVisualization: c.Formation.DebugVisualization,
	}
	if err := fc.Validate(); err != nil {
		return formation.Config{}, err
	}
	return fc, nil
}
