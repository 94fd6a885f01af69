package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Garsondee/formation-grid/internal/config"
	"github.com/Garsondee/formation-grid/internal/sim"
)

type runStats struct {
	runIndex int
	seed     int64
	report   sim.Report

	firstRotateTick int
	lastRotateTick  int
	departures      map[string]int // walker label -> depart events
}

type options struct {
	configPath string
	runs       int
	ticks      int
	seedBase   int64
	seedStep   int64
	scenario   string
	verbose    bool
	showLog    bool
}

var logger *zap.Logger

func newRootCmd(out io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "headless-report",
		Short:         "Run seeded headless formation simulations and print metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			zc := zap.NewProductionConfig()
			if opts.verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(out, opts, cmd.Flags().Changed("scenario"))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.IntVar(&opts.runs, "runs", 5, "number of headless simulation runs")
	f.IntVar(&opts.ticks, "ticks", 1200, "ticks per run")
	f.Int64Var(&opts.seedBase, "seed-base", 42, "base RNG seed for run 1")
	f.Int64Var(&opts.seedStep, "seed-step", 1, "seed increment between runs")
	f.StringVar(&opts.scenario, "scenario", "turn-right",
		fmt.Sprintf("scenario name (%s)", strings.Join(sim.ScenarioNames(), ", ")))
	f.BoolVar(&opts.verbose, "verbose", false, "debug logging and per-tick sim log entries")
	f.BoolVar(&opts.showLog, "log", false, "print each run's sim log")
	return cmd
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(out io.Writer, opts options, scenarioSet bool) error {
	if opts.runs <= 0 {
		return fmt.Errorf("--runs must be > 0")
	}
	if opts.ticks <= 0 {
		return fmt.Errorf("--ticks must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}
	if scenarioSet || opts.configPath == "" {
		cfg.Sim.Scenario = opts.scenario
	}
	if _, err := sim.Scenario(cfg.Sim.Scenario); err != nil {
		return err
	}

	fmt.Fprintf(out, "=== Headless Formation Report ===\n")
	fmt.Fprintf(out, "scenario=%s grid=%dx%d spacing=%.2fx%.2f anchor=%s runs=%d ticks=%d seed_base=%d seed_step=%d\n\n",
		cfg.Sim.Scenario, cfg.Formation.Rows, cfg.Formation.Columns,
		cfg.Formation.RowSpacing, cfg.Formation.ColumnSpacing, cfg.Formation.Anchor,
		opts.runs, opts.ticks, opts.seedBase, opts.seedStep)

	all := make([]runStats, 0, opts.runs)
	for i := 0; i < opts.runs; i++ {
		seed := opts.seedBase + int64(i)*opts.seedStep
		rs, s, err := runScenario(cfg, i+1, seed, opts.ticks, opts.verbose)
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		logger.Debug("run finished",
			zap.Int("run", rs.runIndex),
			zap.Int64("seed", rs.seed),
			zap.Int("rotations", rs.report.Rotations))
		all = append(all, rs)
		printRun(out, rs)
		if opts.showLog {
			fmt.Fprint(out, s.SimLog.Format())
			fmt.Fprintln(out)
		}
	}

	printAggregate(out, all)
	return nil
}

func runScenario(cfg config.Config, runIndex int, seed int64, ticks int, verbose bool) (runStats, *sim.Sim, error) {
	fc, err := cfg.FormationConfig()
	if err != nil {
		return runStats{}, nil, err
	}
	path, err := sim.Scenario(cfg.Sim.Scenario)
	if err != nil {
		return runStats{}, nil, err
	}
	s, err := sim.NewSim(
		sim.WithFormation(fc),
		sim.WithPath(path),
		sim.WithSeed(seed),
		sim.WithJitter(cfg.Sim.Jitter),
		sim.WithWalkerSpeed(cfg.Sim.WalkerSpeed),
		sim.WithArriveEpsilon(cfg.Sim.ArriveEpsilon),
		sim.WithVerbose(verbose),
		sim.WithLogger(logger),
	)
	if err != nil {
		return runStats{}, nil, err
	}
	if err := s.RunTicks(ticks); err != nil {
		return runStats{}, nil, err
	}

	departures := map[string]int{}
	for _, e := range s.SimLog.Filter("move", "depart") {
		departures[e.Agent]++
	}
	return runStats{
		runIndex:        runIndex,
		seed:            seed,
		report:          s.Report(),
		firstRotateTick: firstTick(s.SimLog.Entries(), "rotate"),
		lastRotateTick:  lastTick(s.SimLog.Entries(), "rotate"),
		departures:      departures,
	}, s, nil
}

func firstTick(entries []sim.SimLogEntry, category string) int {
	for _, e := range entries {
		if e.Category == category {
			return e.Tick
		}
	}
	return -1
}

func lastTick(entries []sim.SimLogEntry, category string) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Category == category {
			return entries[i].Tick
		}
	}
	return -1
}

func printRun(out io.Writer, rs runStats) {
	fmt.Fprintf(out, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Fprint(out, rs.report.Format())
	fmt.Fprintf(out, "rotate_window: first=%d last=%d\n", rs.firstRotateTick, rs.lastRotateTick)
	fmt.Fprintf(out, "restless_agents: %s\n", topDepartures(rs.departures, 5))
	fmt.Fprintln(out)
}

// topDepartures lists the walkers that left their slot most often.
func topDepartures(m map[string]int, limit int) string {
	if len(m) == 0 {
		return "none"
	}
	type kv struct {
		label string
		n     int
	}
	list := make([]kv, 0, len(m))
	for k, v := range m {
		list = append(list, kv{k, v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].n != list[j].n {
			return list[i].n > list[j].n
		}
		return list[i].label < list[j].label
	})
	if len(list) > limit {
		list = list[:limit]
	}
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = fmt.Sprintf("%s=%d", e.label, e.n)
	}
	return strings.Join(parts, " ")
}

type aggregate struct {
	runs          int
	rotations     int
	settledRuns   int
	meanTravel    float64
	maxTravel     float64
	meanRemaining float64
	settleTicks   []int
}

func summarize(all []runStats) aggregate {
	var agg aggregate
	agg.runs = len(all)
	for _, rs := range all {
		agg.rotations += rs.report.Rotations
		agg.meanTravel += rs.report.MeanTravel
		agg.meanRemaining += rs.report.MeanRemaining
		if rs.report.MaxTravel > agg.maxTravel {
			agg.maxTravel = rs.report.MaxTravel
		}
		if rs.report.SettledTick >= 0 {
			agg.settledRuns++
			agg.settleTicks = append(agg.settleTicks, rs.report.SettledTick)
		}
	}
	if agg.runs > 0 {
		agg.meanTravel /= float64(agg.runs)
		agg.meanRemaining /= float64(agg.runs)
	}
	sort.Ints(agg.settleTicks)
	return agg
}

func printAggregate(out io.Writer, all []runStats) {
	agg := summarize(all)
	fmt.Fprintf(out, "=== Aggregate (%d runs) ===\n", agg.runs)
	fmt.Fprintf(out, "rotations_total=%d settled_runs=%d/%d\n", agg.rotations, agg.settledRuns, agg.runs)
	fmt.Fprintf(out, "travel: mean_per_agent=%.2f max_agent=%.2f\n", agg.meanTravel, agg.maxTravel)
	fmt.Fprintf(out, "remaining_mean=%.3f\n", agg.meanRemaining)
	fmt.Fprintf(out, "settle_tick: %s\n", tickRange(agg.settleTicks))
}

func tickRange(ticks []int) string {
	if len(ticks) == 0 {
		return "n/a"
	}
	sum := 0
	for _, t := range ticks {
		sum += t
	}
	return fmt.Sprintf("min=%d median=%d max=%d avg=%.1f",
		ticks[0], ticks[len(ticks)/2], ticks[len(ticks)-1], float64(sum)/float64(len(ticks)))
}
