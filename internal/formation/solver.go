package formation

import (
	"fmt"

	"go.uber.org/zap"
)

// Mover is an externally owned agent that travels to whatever destination
// it was last given. SetDestination must not block.
type Mover interface {
	SetDestination(target Point)
}

// FrameProvider supplies the reference frame once per tick.
type FrameProvider interface {
	Frame() Frame
}

// Observer receives every tick's points and assignments when debug
// visualization is enabled. The slices are only valid during the call.
type Observer interface {
	ObserveFormation(tick int, points []Point, assignments []Assignment)
}

// Assignment pairs the agent in slot (Row, Col) with that cell's target.
type Assignment struct {
	Row    int
	Col    int
	Agent  Mover
	Target Point
}

// Config is the setup surface of a Solver.
type Config struct {
	Shape
	Anchor             Anchor
	Thresholds         Thresholds
	DebugVisualization bool          // notify observers each tick
	Frame              FrameProvider // nil: the solver's own pose (see SetPose)
	Pose               Frame         // initial own pose
}

// withDefaults fills zero thresholds with DefaultThresholds.
func (c Config) withDefaults() Config {
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = DefaultThresholds()
	}
	return c
}

// Validate checks the shape and thresholds. Rotation is always enabled, so
// the shape must be square.
func (c Config) Validate() error {
	if err := c.Shape.Validate(); err != nil {
		return err
	}
	if !c.Shape.Square() {
		return fmt.Errorf("grid rotation needs rows == columns, got %dx%d: %w",
			c.Rows, c.Columns, ErrInvalidConfig)
	}
	if c.Anchor != AnchorCentered && c.Anchor != AnchorLegacy {
		return fmt.Errorf("unknown anchor %d: %w", int(c.Anchor), ErrInvalidConfig)
	}
	return c.Thresholds.Validate()
}

// Option configures optional Solver collaborators.
type Option func(*Solver)

// WithLogger logs committed grid rotations at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver registers a debug visualization observer.
func WithObserver(o Observer) Option {
	return func(s *Solver) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// Solver lays out a square formation around a moving frame and keeps a grid
// of agents assigned to its cells. It is not safe for concurrent use; one
// Solver belongs to one formation and is ticked by one loop.
type Solver struct {
	cfg       Config
	log       *zap.Logger
	observers []Observer

	ownPose Frame
	points  []Point
	agents  *Grid[Mover]
	tracker Tracker

	assignments  []Assignment
	lastRotation Direction
	tick         int
	ready        bool
}

// New validates cfg and assigns agents to cells row-major: agents[i*Columns+j]
// starts in slot (i,j). Zero thresholds mean DefaultThresholds.
// Nothing is built when an error is returned.
func New(cfg Config, agents []Mover, opts ...Option) (*Solver, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(agents) != cfg.Total() {
		return nil, fmt.Errorf("got %d agents for a %dx%d formation: %w",
			len(agents), cfg.Rows, cfg.Columns, ErrInvalidConfig)
	}
	grid := NewGrid[Mover](cfg.Rows, cfg.Columns)
	for k, a := range agents {
		if a == nil {
			return nil, fmt.Errorf("agent %d is nil: %w", k, ErrInvalidConfig)
		}
		grid.cells[k] = a
	}

	s := &Solver{
		cfg:         cfg,
		log:         zap.NewNop(),
		ownPose:     cfg.Pose,
		agents:      grid,
		assignments: make([]Assignment, 0, cfg.Total()),
	}
	for _, o := range opts {
		o(s)
	}

	frame := s.currentFrame()
	s.tracker = NewTracker(frame.Orientation, cfg.Thresholds)
	s.points = ComputePoints(cfg.Shape, frame, cfg.Anchor, nil)
	s.ready = true

	s.log.Debug("formation initialized",
		zap.Int("rows", cfg.Rows),
		zap.Int("columns", cfg.Columns),
		zap.Stringer("anchor", cfg.Anchor),
		zap.Float64("yaw", s.tracker.LastYaw()))
	return s, nil
}

// SetPose moves the solver's own pose, used when no FrameProvider is set.
func (s *Solver) SetPose(f Frame) {
	s.ownPose = f
}

func (s *Solver) currentFrame() Frame {
	if s.cfg.Frame != nil {
		return s.cfg.Frame.Frame()
	}
	return s.ownPose
}

// Tick runs one step: recompute points, rotate the agent grid if the frame
// has turned far enough, then hand every agent its cell's target. The
// returned slice is reused by the next Tick.
func (s *Solver) Tick() ([]Assignment, error) {
	if s == nil || !s.ready {
		return nil, ErrNotInitialized
	}
	s.tick++

	frame := s.currentFrame()
	s.points = ComputePoints(s.cfg.Shape, frame, s.cfg.Anchor, s.points)

	s.lastRotation = s.tracker.Update(frame.Orientation)
	if s.lastRotation != None {
		if err := s.agents.Rotate(s.lastRotation); err != nil {
			return nil, err
		}
		s.log.Debug("agent grid rotated",
			zap.Int("tick", s.tick),
			zap.Stringer("direction", s.lastRotation),
			zap.Float64("yaw", s.tracker.LastYaw()))
	}

	s.assignments = s.assignments[:0]
	cols := s.cfg.Columns
	for i := 0; i < s.cfg.Rows; i++ {
		for j := 0; j < cols; j++ {
			a := s.agents.At(i, j)
			target := s.points[i*cols+j]
			a.SetDestination(target)
			s.assignments = append(s.assignments, Assignment{Row: i, Col: j, Agent: a, Target: target})
		}
	}

	if s.cfg.DebugVisualization {
		for _, o := range s.observers {
			o.ObserveFormation(s.tick, s.points, s.assignments)
		}
	}
	return s.assignments, nil
}

// Shape returns the configured shape.
func (s *Solver) Shape() Shape { return s.cfg.Shape }

// CurrentTick returns the number of completed ticks.
func (s *Solver) CurrentTick() int { return s.tick }

// Points returns the most recently computed points, row-major.
func (s *Solver) Points() []Point { return s.points }

// Assignments returns the last tick's assignments.
func (s *Solver) Assignments() []Assignment { return s.assignments }

// Agent returns the agent currently in slot (row, col).
func (s *Solver) Agent(row, col int) Mover { return s.agents.At(row, col) }

// LastRotation returns the rotation committed during the last tick, or None.
func (s *Solver) LastRotation() Direction { return s.lastRotation }

// LastYaw returns the committed yaw in degrees.
func (s *Solver) LastYaw() float64 { return s.tracker.LastYaw() }

// Direction returns the direction of the last committed rotation.
func (s *Solver) Direction() Direction { return s.tracker.LastDirection() }
