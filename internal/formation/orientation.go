package formation

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Direction is the sense of a committed 90° grid rotation.
type Direction int

const (
	None             Direction = 0
	Counterclockwise Direction = 1  // positive yaw delta
	Clockwise        Direction = -1 // negative yaw delta
)

func (d Direction) String() string {
	switch d {
	case None:
		return "none"
	case Counterclockwise:
		return "ccw"
	case Clockwise:
		return "cw"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

var upAxis = mgl64.Vec3{0, 1, 0}

// YawQuat returns a rotation of deg degrees about +Y.
func YawQuat(deg float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), upAxis)
}

// Yaw returns q's heading about +Y in degrees, measured from +Z toward +X.
func Yaw(q mgl64.Quat) float64 {
	f := q.Normalize().Rotate(mgl64.Vec3{0, 0, 1})
	return mgl64.RadToDeg(math.Atan2(f.X(), f.Z()))
}

// SignedAngleDelta returns the shortest signed angle from `from` to `to`
// in degrees, in (-180, 180].
func SignedAngleDelta(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

func directionOf(delta float64) Direction {
	switch {
	case delta > 0:
		return Counterclockwise
	case delta < 0:
		return Clockwise
	}
	return None
}

// Thresholds are the yaw sweeps (degrees) that trigger a grid rotation.
// A fresh turn (first turn, or a reversal) commits at FreshTurn; a turn
// continuing the last committed direction waits for ContinuedTurn.
type Thresholds struct {
	FreshTurn     float64
	ContinuedTurn float64
}

// DefaultThresholds returns 45°/90°.
func DefaultThresholds() Thresholds {
	return Thresholds{FreshTurn: 45, ContinuedTurn: 90}
}

// Validate requires 0 < FreshTurn <= ContinuedTurn < 180.
func (t Thresholds) Validate() error {
	if !(t.FreshTurn > 0) || t.FreshTurn >= 180 {
		return fmt.Errorf("fresh turn threshold must be in (0,180), got %g: %w", t.FreshTurn, ErrInvalidConfig)
	}
	if !(t.ContinuedTurn >= t.FreshTurn) || t.ContinuedTurn >= 180 {
		return fmt.Errorf("continued turn threshold must be in [%g,180), got %g: %w", t.FreshTurn, t.ContinuedTurn, ErrInvalidConfig)
	}
	return nil
}

// ShouldRotate decides whether the sweep from lastYaw to currentYaw commits
// a grid rotation, given the direction of the previous commit.
func ShouldRotate(lastYaw float64, lastDir Direction, currentYaw float64, th Thresholds) Direction {
	delta := SignedAngleDelta(lastYaw, currentYaw)
	dir := directionOf(delta)
	if dir == None {
		return None
	}
	mag := math.Abs(delta)
	if (lastDir == None || dir != lastDir) && mag > th.FreshTurn {
		return dir
	}
	if dir == lastDir && mag > th.ContinuedTurn {
		return dir
	}
	return None
}

// Tracker holds the last committed yaw and rotation direction.
type Tracker struct {
	lastYaw float64
	lastDir Direction
	th      Thresholds
}

// NewTracker starts tracking from the initial orientation with no direction.
func NewTracker(initial mgl64.Quat, th Thresholds) Tracker {
	return Tracker{lastYaw: Yaw(initial), th: th}
}

// Update checks current against the committed state and commits on rotation.
// State is left untouched when None is returned.
func (t *Tracker) Update(current mgl64.Quat) Direction {
	yaw := Yaw(current)
	dir := ShouldRotate(t.lastYaw, t.lastDir, yaw, t.th)
	if dir != None {
		t.lastYaw = yaw
		t.lastDir = dir
	}
	return dir
}

// LastYaw returns the committed yaw in degrees.
func (t Tracker) LastYaw() float64 { return t.lastYaw }

// LastDirection returns the direction of the last commit.
func (t Tracker) LastDirection() Direction { return t.lastDir }
