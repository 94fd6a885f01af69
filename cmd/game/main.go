package main

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Garsondee/formation-grid/internal/config"
	"github.com/Garsondee/formation-grid/internal/sim"
	"github.com/Garsondee/formation-grid/internal/viz"
)

const (
	windowWidth  = 1280
	windowHeight = 800
)

func main() {
	var configPath string
	var scenario string
	var seed int64

	cmd := &cobra.Command{
		Use:           "game",
		Short:         "Watch a formation follow a scripted reference frame",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			cfg := config.Default()
			if configPath != "" {
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if scenario != "" {
				cfg.Sim.Scenario = scenario
			}
			fc, err := cfg.FormationConfig()
			if err != nil {
				return err
			}
			path, err := sim.Scenario(cfg.Sim.Scenario)
			if err != nil {
				return err
			}

			viewer := viz.NewViewer(windowWidth, windowHeight)
			s, err := sim.NewSim(
				sim.WithFormation(fc),
				sim.WithPath(path),
				sim.WithSeed(seed),
				sim.WithJitter(cfg.Sim.Jitter),
				sim.WithWalkerSpeed(cfg.Sim.WalkerSpeed),
				sim.WithArriveEpsilon(cfg.Sim.ArriveEpsilon),
				sim.WithLogger(logger),
				sim.WithObserver(viewer),
			)
			if err != nil {
				return err
			}
			viewer.Attach(s)

			logger.Info("starting viewer",
				zap.String("scenario", cfg.Sim.Scenario),
				zap.Int("rows", fc.Rows),
				zap.Int("columns", fc.Columns))

			ebiten.SetWindowTitle("Formation Grid")
			ebiten.SetWindowSize(windowWidth, windowHeight)
			return ebiten.RunGame(viewer)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&scenario, "scenario", "", "reference path scenario (overrides config)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "RNG seed for start positions")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
