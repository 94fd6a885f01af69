package formation

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// standingAgent records its destination and never moves.
type standingAgent struct {
	pos  mgl64.Vec3
	dest mgl64.Vec3
	sets int
}

func (a *standingAgent) SetDestination(p Point) {
	a.dest = p.Position
	a.sets++
}

// fixedFrame is a FrameProvider the test moves by hand.
type fixedFrame struct{ f Frame }

func (p *fixedFrame) Frame() Frame { return p.f }

type recordingObserver struct {
	calls    int
	lastTick int
	points   int
}

func (o *recordingObserver) ObserveFormation(tick int, points []Point, assignments []Assignment) {
	o.calls++
	o.lastTick = tick
	o.points = len(points)
}

func square3() Config {
	return Config{Shape: Shape{Rows: 3, Columns: 3, RowSpacing: 2, ColumnSpacing: 2}}
}

// agentsAtPoints places one standing agent on each initial formation point.
func agentsAtPoints(cfg Config, frame Frame) ([]*standingAgent, []Mover) {
	pts := ComputePoints(cfg.Shape, frame, cfg.Anchor, nil)
	agents := make([]*standingAgent, len(pts))
	movers := make([]Mover, len(pts))
	for k, p := range pts {
		agents[k] = &standingAgent{pos: p.Position}
		movers[k] = agents[k]
	}
	return agents, movers
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	three := func() []Mover {
		_, m := agentsAtPoints(square3(), Frame{})
		return m
	}
	cases := []struct {
		name   string
		cfg    Config
		agents []Mover
	}{
		{"zero rows", Config{Shape: Shape{Rows: 0, Columns: 3}}, nil},
		{"negative columns", Config{Shape: Shape{Rows: 3, Columns: -1}}, nil},
		{"rectangular", Config{Shape: Shape{Rows: 2, Columns: 3, RowSpacing: 1, ColumnSpacing: 1}}, make([]Mover, 6)},
		{"negative spacing", Config{Shape: Shape{Rows: 3, Columns: 3, RowSpacing: -1}}, three()},
		{"bad thresholds", Config{Shape: square3().Shape, Thresholds: Thresholds{FreshTurn: 100, ContinuedTurn: 50}}, three()},
		{"unknown anchor", Config{Shape: square3().Shape, Anchor: Anchor(9)}, three()},
		{"too few agents", square3(), three()[:8]},
		{"nil agent", square3(), append(three()[:8], nil)},
	}
	for _, c := range cases {
		s, err := New(c.cfg, c.agents)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", c.name, err)
		}
		if s != nil {
			t.Fatalf("%s: expected no solver on error", c.name)
		}
	}
}

func TestTick_UninitializedFailsLoudly(t *testing.T) {
	var zero Solver
	if _, err := zero.Tick(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from zero Solver, got %v", err)
	}
	var nilSolver *Solver
	if _, err := nilSolver.Tick(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from nil Solver, got %v", err)
	}
}

func TestTick_AssignsEveryCell(t *testing.T) {
	cfg := square3()
	frame := &fixedFrame{f: FrameAt(mgl64.Vec3{5, 0, 5}, 0)}
	cfg.Frame = frame
	agents, movers := agentsAtPoints(cfg, frame.f)

	s, err := New(cfg, movers)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	frame.f.Position = mgl64.Vec3{6, 0, 5}
	as, err := s.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(as) != 9 {
		t.Fatalf("expected 9 assignments, got %d", len(as))
	}
	for k, a := range as {
		if a.Row*3+a.Col != k {
			t.Fatalf("assignment %d has cell (%d,%d)", k, a.Row, a.Col)
		}
		if a.Agent != movers[k] {
			t.Fatalf("cell (%d,%d) should still hold its starting agent", a.Row, a.Col)
		}
		want := agents[k].pos.Add(mgl64.Vec3{1, 0, 0})
		if !near(agents[k].dest, want) {
			t.Fatalf("agent %d: expected destination %v, got %v", k, want, agents[k].dest)
		}
		if agents[k].sets != 1 {
			t.Fatalf("agent %d: expected one destination per tick, got %d", k, agents[k].sets)
		}
	}
	if s.LastRotation() != None {
		t.Fatalf("translation alone should not rotate, got %s", s.LastRotation())
	}
}

func TestTick_QuarterTurnKeepsAgentsOnTheirSpot(t *testing.T) {
	// A square centered grid maps onto itself under a 90° turn, so the
	// remapped agents should be sent exactly where they already stand.
	for _, yaw := range []float64{90, -90} {
		cfg := square3()
		frame := &fixedFrame{}
		cfg.Frame = frame
		agents, movers := agentsAtPoints(cfg, frame.f)

		s, err := New(cfg, movers)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		frame.f = FrameAt(mgl64.Vec3{}, yaw)
		if _, err := s.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}

		wantDir := Counterclockwise
		if yaw < 0 {
			wantDir = Clockwise
		}
		if s.LastRotation() != wantDir {
			t.Fatalf("yaw %.0f: expected %s rotation, got %s", yaw, wantDir, s.LastRotation())
		}
		for k, a := range agents {
			if !a.pos.ApproxEqualThreshold(a.dest, 1e-6) {
				t.Fatalf("yaw %.0f agent %d: expected target at its own position %v, got %v", yaw, k, a.pos, a.dest)
			}
		}
	}
}

func TestTick_WithoutRemapAgentsWouldCrossTheGrid(t *testing.T) {
	// Same quarter turn below the fresh threshold never remaps: the corner
	// agent is sent to the far corner's rotated spot.
	cfg := square3()
	cfg.Thresholds = Thresholds{FreshTurn: 170, ContinuedTurn: 175}
	frame := &fixedFrame{}
	cfg.Frame = frame
	agents, movers := agentsAtPoints(cfg, frame.f)

	s, err := New(cfg, movers)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	frame.f = FrameAt(mgl64.Vec3{}, 90)
	_, _ = s.Tick()

	if s.LastRotation() != None {
		t.Fatalf("expected no rotation, got %s", s.LastRotation())
	}
	if d := agents[0].dest.Sub(agents[0].pos).Len(); d < 3.9 {
		t.Fatalf("expected the corner agent to be sent to another corner, moved %.2f", d)
	}
}

func TestTick_HysteresisSequence(t *testing.T) {
	cfg := square3()
	frame := &fixedFrame{}
	cfg.Frame = frame
	_, movers := agentsAtPoints(cfg, frame.f)
	s, err := New(cfg, movers)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	steps := []struct {
		yaw  float64
		want Direction
	}{
		{30, None},
		{50, Counterclockwise},
		{120, None}, // 70° continuing
		{145, Counterclockwise},
		{105, None}, // 40° reversal
	}

	for _, st := range steps {
		frame.f = FrameAt(mgl64.Vec3{}, st.yaw)
		if _, err := s.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
		if s.LastRotation() != st.want {
			t.Fatalf("yaw %.0f: expected %s, got %s", st.yaw, st.want, s.LastRotation())
		}
	}

	frame.f = FrameAt(mgl64.Vec3{}, 90)
	_, _ = s.Tick()
	if s.LastRotation() != Clockwise {
		t.Fatalf("55° reversal should rotate cw, got %s", s.LastRotation())
	}
	if s.Direction() != Clockwise {
		t.Fatalf("expected committed direction cw, got %s", s.Direction())
	}
}

func TestTick_OwnPoseWhenNoProvider(t *testing.T) {
	cfg := square3()
	cfg.Pose = FrameAt(mgl64.Vec3{0, 0, 0}, 0)
	agents, movers := agentsAtPoints(cfg, cfg.Pose)
	s, err := New(cfg, movers)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.SetPose(FrameAt(mgl64.Vec3{0, 0, 10}, 0))
	if _, err := s.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	want := agents[4].pos.Add(mgl64.Vec3{0, 0, 10})
	if !near(agents[4].dest, want) {
		t.Fatalf("centre agent: expected %v, got %v", want, agents[4].dest)
	}
}

func TestTick_ObserverOnlyWithDebugVisualization(t *testing.T) {
	for _, debug := range []bool{false, true} {
		cfg := square3()
		cfg.DebugVisualization = debug
		_, movers := agentsAtPoints(cfg, Frame{})
		obs := &recordingObserver{}
		s, err := New(cfg, movers, WithObserver(obs))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for i := 0; i < 3; i++ {
			_, _ = s.Tick()
		}
		if !debug && obs.calls != 0 {
			t.Fatalf("observer should be silent without debug visualization, got %d calls", obs.calls)
		}
		if debug && (obs.calls != 3 || obs.lastTick != 3 || obs.points != 9) {
			t.Fatalf("expected 3 calls ending at tick 3 with 9 points, got %+v", obs)
		}
	}
}

func TestTick_LogsRotation(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := square3()
	frame := &fixedFrame{}
	cfg.Frame = frame
	_, movers := agentsAtPoints(cfg, frame.f)
	s, err := New(cfg, movers, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	frame.f = FrameAt(mgl64.Vec3{}, -60)
	_, _ = s.Tick()

	entries := logs.FilterMessage("agent grid rotated").All()
	if len(entries) != 1 {
		t.Fatalf("expected one rotation log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["direction"]; got != "cw" {
		t.Fatalf("expected direction=cw, got %v", got)
	}
}
