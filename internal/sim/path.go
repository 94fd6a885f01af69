package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/formation-grid/internal/formation"
)

// Path scripts the formation's reference frame over time. At must be a pure
// function of tick so runs replay exactly.
type Path interface {
	At(tick int) formation.Frame
}

// forward returns the unit heading vector for a yaw in degrees (+Z at 0°, +X at 90°).
func forward(yawDeg float64) mgl64.Vec3 {
	r := mgl64.DegToRad(yawDeg)
	return mgl64.Vec3{math.Sin(r), 0, math.Cos(r)}
}

// advance moves from pos along heading for ticks at speed units/tick while
// turning at rate degrees/tick, returning the end position and heading.
func advance(pos mgl64.Vec3, heading, speed, rate, ticks float64) (mgl64.Vec3, float64) {
	if ticks <= 0 {
		return pos, heading
	}
	if rate == 0 {
		return pos.Add(forward(heading).Mul(speed * ticks)), heading
	}
	end := heading + rate*ticks
	w := mgl64.DegToRad(rate)
	a0, a1 := mgl64.DegToRad(heading), mgl64.DegToRad(end)
	dx := speed * (math.Cos(a0) - math.Cos(a1)) / w
	dz := speed * (math.Sin(a1) - math.Sin(a0)) / w
	return pos.Add(mgl64.Vec3{dx, 0, dz}), end
}

// StraightPath drives at a constant heading and speed.
type StraightPath struct {
	Start   mgl64.Vec3
	Heading float64 // degrees
	Speed   float64 // units per tick
}

func (p StraightPath) At(tick int) formation.Frame {
	pos, h := advance(p.Start, p.Heading, p.Speed, 0, float64(tick))
	return formation.FrameAt(pos, h)
}

// TurnPath drives straight, turns by TurnBy degrees starting at TurnAt, then
// drives straight again. A TurnRate of zero turns instantly.
type TurnPath struct {
	Start    mgl64.Vec3
	Heading  float64 // degrees
	Speed    float64 // units per tick
	TurnAt   int     // tick the turn starts
	TurnBy   float64 // degrees, positive turns +Z toward +X
	TurnRate float64 // degrees per tick, magnitude
}

func (p TurnPath) At(tick int) formation.Frame {
	t := float64(tick)
	turnAt := float64(p.TurnAt)

	pos, h := advance(p.Start, p.Heading, p.Speed, 0, math.Min(t, turnAt))
	if t < turnAt {
		return formation.FrameAt(pos, h)
	}

	dur := 0.0
	if p.TurnRate > 0 {
		dur = math.Abs(p.TurnBy) / p.TurnRate
		rate := math.Copysign(p.TurnRate, p.TurnBy)
		pos, h = advance(pos, h, p.Speed, rate, math.Min(t-turnAt, dur))
		// Snap the heading once the arc is done so it lands exactly on TurnBy.
		if t-turnAt >= dur {
			h = p.Heading + p.TurnBy
		}
	} else {
		h += p.TurnBy
	}

	pos, h = advance(pos, h, p.Speed, 0, t-turnAt-dur)
	return formation.FrameAt(pos, h)
}

// OrbitPath circles Center at Radius, sweeping AngularSpeed degrees per tick.
// The frame faces along the direction of travel, so its yaw turns at the
// same rate.
type OrbitPath struct {
	Center       mgl64.Vec3
	Radius       float64
	AngularSpeed float64 // degrees per tick, sign sets the turn direction
	Phase        float64 // degrees
}

func (p OrbitPath) At(tick int) formation.Frame {
	phi := p.Phase + p.AngularSpeed*float64(tick)
	pos := p.Center.Add(forward(phi).Mul(p.Radius))
	heading := phi + 90
	if p.AngularSpeed < 0 {
		heading = phi - 90
	}
	return formation.FrameAt(pos, heading)
}

// scenarios are the named reference paths shared by the CLI and the viewer.
var scenarios = map[string]func() Path{
	"straight": func() Path {
		return StraightPath{Speed: 0.05}
	},
	"turn-right": func() Path {
		return TurnPath{Speed: 0.05, TurnAt: 120, TurnBy: 90, TurnRate: 1.5}
	},
	"turn-left": func() Path {
		return TurnPath{Speed: 0.05, TurnAt: 120, TurnBy: -90, TurnRate: 1.5}
	},
	"u-turn": func() Path {
		return TurnPath{Speed: 0.05, TurnAt: 120, TurnBy: 180, TurnRate: 1.5}
	},
	"pivot": func() Path {
		return TurnPath{TurnAt: 30, TurnBy: 90}
	},
	"orbit": func() Path {
		return OrbitPath{Radius: 12, AngularSpeed: 0.35}
	},
}

// Scenario returns the named path.
func Scenario(name string) (Path, error) {
	mk, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (supported: %v)", name, ScenarioNames())
	}
	return mk(), nil
}

// ScenarioNames lists the supported scenario names, sorted.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
