package sim

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Garsondee/formation-grid/internal/formation"
)

// Sim is a headless formation run: a scripted Path drives the reference
// frame, a Solver assigns targets, and Walkers chase them. It mirrors the
// viewer's update loop without any Ebiten dependency and supports
// deterministic seeding and structured logging.
type Sim struct {
	Formation formation.Config
	Path      Path
	Walkers   []*Walker
	Solver    *formation.Solver
	SimLog    *SimLog

	walkerSpeed float64
	jitter      float64
	arriveEps   float64
	rng         *rand.Rand
	logger      *zap.Logger
	observers   []formation.Observer

	tick              int
	settled           []bool
	rotations         int
	firstRotationTick int
	settledTick       int
}

// SimOption is a builder function applied to a Sim during construction.
type SimOption func(*Sim)

// WithFormation replaces the formation config. Its Frame is ignored; the
// Sim always drives the solver from its Path.
func WithFormation(cfg formation.Config) SimOption {
	return func(s *Sim) {
		s.Formation = cfg
	}
}

// WithShape sets a rows×cols grid, keeping the current spacing.
func WithShape(rows, cols int) SimOption {
	return func(s *Sim) {
		s.Formation.Rows = rows
		s.Formation.Columns = cols
	}
}

// WithSpacing sets the row and column spacing.
func WithSpacing(row, col float64) SimOption {
	return func(s *Sim) {
		s.Formation.RowSpacing = row
		s.Formation.ColumnSpacing = col
	}
}

// WithAnchor selects the grid layout anchor.
func WithAnchor(a formation.Anchor) SimOption {
	return func(s *Sim) {
		s.Formation.Anchor = a
	}
}

// WithThresholds sets the fresh/continued turn thresholds in degrees.
func WithThresholds(fresh, continued float64) SimOption {
	return func(s *Sim) {
		s.Formation.Thresholds = formation.Thresholds{FreshTurn: fresh, ContinuedTurn: continued}
	}
}

// WithPath sets the reference frame script.
func WithPath(p Path) SimOption {
	return func(s *Sim) {
		s.Path = p
	}
}

// WithSeed sets the RNG seed used to jitter starting positions.
func WithSeed(seed int64) SimOption {
	return func(s *Sim) {
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation only
	}
}

// WithJitter sets the maximum random offset of each walker's start position.
func WithJitter(j float64) SimOption {
	return func(s *Sim) {
		s.jitter = j
	}
}

// WithWalkerSpeed sets every walker's speed in units per tick.
func WithWalkerSpeed(v float64) SimOption {
	return func(s *Sim) {
		s.walkerSpeed = v
	}
}

// WithArriveEpsilon sets the distance under which a walker counts as arrived.
func WithArriveEpsilon(eps float64) SimOption {
	return func(s *Sim) {
		s.arriveEps = eps
	}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return func(s *Sim) {
		s.SimLog = NewSimLog(v)
	}
}

// WithLogger passes a process logger down to the solver.
func WithLogger(l *zap.Logger) SimOption {
	return func(s *Sim) {
		s.logger = l
	}
}

// WithObserver registers a debug visualization observer and turns debug
// visualization on.
func WithObserver(o formation.Observer) SimOption {
	return func(s *Sim) {
		s.observers = append(s.observers, o)
		s.Formation.DebugVisualization = true
	}
}

// NewSim builds a Sim from the given options, places one walker per cell on
// the tick-0 layout (plus jitter) and initializes the solver.
func NewSim(opts ...SimOption) (*Sim, error) {
	s := &Sim{
		Formation: formation.Config{
			Shape:      formation.Shape{Rows: 4, Columns: 4, RowSpacing: 2, ColumnSpacing: 2},
			Thresholds: formation.DefaultThresholds(),
		},
		SimLog:            NewSimLog(false),
		walkerSpeed:       0.15,
		jitter:            0.25,
		arriveEps:         0.05,
		rng:               rand.New(rand.NewSource(1)), // #nosec G404 -- simulation default
		logger:            zap.NewNop(),
		firstRotationTick: -1,
		settledTick:       -1,
	}
	for _, o := range opts {
		o(s)
	}
	if s.Path == nil {
		p, err := Scenario("turn-right")
		if err != nil {
			return nil, err
		}
		s.Path = p
	}
	if s.walkerSpeed <= 0 {
		return nil, fmt.Errorf("walker speed must be > 0, got %g: %w", s.walkerSpeed, formation.ErrInvalidConfig)
	}

	s.Formation.Frame = s
	if err := s.Formation.Shape.Validate(); err != nil {
		return nil, err
	}
	start := formation.ComputePoints(s.Formation.Shape, s.Path.At(0), s.Formation.Anchor, nil)
	movers := make([]formation.Mover, len(start))
	s.Walkers = make([]*Walker, len(start))
	for k, p := range start {
		off := mgl64.Vec3{s.jitterOffset(), 0, s.jitterOffset()}
		s.Walkers[k] = NewWalker(k, p.Position.Add(off), s.walkerSpeed)
		movers[k] = s.Walkers[k]
	}
	s.settled = make([]bool, len(s.Walkers))

	solverOpts := []formation.Option{formation.WithLogger(s.logger)}
	for _, o := range s.observers {
		solverOpts = append(solverOpts, formation.WithObserver(o))
	}
	solver, err := formation.New(s.Formation, movers, solverOpts...)
	if err != nil {
		return nil, err
	}
	s.Solver = solver
	return s, nil
}

func (s *Sim) jitterOffset() float64 {
	if s.jitter <= 0 {
		return 0
	}
	return (s.rng.Float64()*2 - 1) * s.jitter
}

// Frame implements formation.FrameProvider from the scripted path.
func (s *Sim) Frame() formation.Frame {
	return s.Path.At(s.tick)
}

// CurrentTick returns the current simulation tick.
func (s *Sim) CurrentTick() int {
	return s.tick
}

// RunTicks advances the simulation n ticks, logging events to SimLog.
func (s *Sim) RunTicks(n int) error {
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (s *Sim) RunUntil(predicate func(*Sim) bool, maxTicks int) (int, error) {
	for i := 0; i < maxTicks; i++ {
		if err := s.Step(); err != nil {
			return -1, err
		}
		if predicate(s) {
			return s.tick, nil
		}
	}
	return -1, nil
}

// Step runs one tick: solver first, then every walker moves.
func (s *Sim) Step() error {
	s.tick++
	tick := s.tick

	if _, err := s.Solver.Tick(); err != nil {
		return fmt.Errorf("tick %d: %w", tick, err)
	}

	if dir := s.Solver.LastRotation(); dir != formation.None {
		s.rotations++
		if s.firstRotationTick < 0 {
			s.firstRotationTick = tick
		}
		s.settledTick = -1
		yaw := s.Solver.LastYaw()
		s.SimLog.Add(tick, "--", "rotate", dir.String(), fmt.Sprintf("yaw=%.1f", yaw), yaw)
	}

	if s.SimLog.Verbose() {
		f := s.Frame()
		yaw := formation.Yaw(f.Orientation)
		s.SimLog.AddVerbose(tick, "--", "frame", "pose",
			fmt.Sprintf("(%.2f,%.2f,%.2f) yaw=%.1f", f.Position.X(), f.Position.Y(), f.Position.Z(), yaw), yaw)
	}

	all := true
	for k, w := range s.Walkers {
		w.Step()
		arrived := w.Arrived(s.arriveEps)
		switch {
		case arrived && !s.settled[k]:
			s.SimLog.Add(tick, w.Label, "move", "arrive",
				fmt.Sprintf("travelled %.2f", w.Travelled), w.Travelled)
		case !arrived && s.settled[k]:
			s.SimLog.Add(tick, w.Label, "move", "depart",
				fmt.Sprintf("remaining %.2f", w.Remaining()), w.Remaining())
		}
		s.settled[k] = arrived
		if !arrived {
			all = false
		}
		s.SimLog.AddVerbose(tick, w.Label, "move", "position",
			fmt.Sprintf("(%.2f,%.2f)", w.Pos.X(), w.Pos.Z()), w.Remaining())
	}

	if all && s.settledTick < 0 {
		s.settledTick = tick
		s.SimLog.Add(tick, "--", "formation", "settled", fmt.Sprintf("%d agents", len(s.Walkers)), 0)
	}
	return nil
}

// AgentSnapshot is a lightweight copy of one walker's state.
type AgentSnapshot struct {
	Label     string
	Row, Col  int
	Pos, Dest mgl64.Vec3
	Remaining float64
}

// SimSnapshot captures the frame and every walker at a tick.
type SimSnapshot struct {
	Tick   int
	Frame  formation.Frame
	Agents []AgentSnapshot
}

// Snapshot returns the current state, with walkers in slot order.
func (s *Sim) Snapshot() SimSnapshot {
	snap := SimSnapshot{Tick: s.tick, Frame: s.Frame()}
	shape := s.Formation.Shape
	for i := 0; i < shape.Rows; i++ {
		for j := 0; j < shape.Columns; j++ {
			w, ok := s.Solver.Agent(i, j).(*Walker)
			if !ok {
				continue
			}
			snap.Agents = append(snap.Agents, AgentSnapshot{
				Label:     w.Label,
				Row:       i,
				Col:       j,
				Pos:       w.Pos,
				Dest:      w.Dest,
				Remaining: w.Remaining(),
			})
		}
	}
	return snap
}
