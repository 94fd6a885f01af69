package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/formation-grid/internal/formation"
)

// Walker is a minimal formation.Mover: each tick it steps straight toward
// its last destination, never faster than Speed.
type Walker struct {
	ID    int
	Label string

	Pos     mgl64.Vec3
	Dest    mgl64.Vec3
	Heading float64 // degrees, direction of the last step
	Speed   float64 // units per tick

	Travelled float64 // total distance walked
	hasDest   bool
}

// NewWalker places a walker at pos with no destination.
func NewWalker(id int, pos mgl64.Vec3, speed float64) *Walker {
	return &Walker{
		ID:    id,
		Label: fmt.Sprintf("A%02d", id),
		Pos:   pos,
		Dest:  pos,
		Speed: speed,
	}
}

// SetDestination implements formation.Mover.
func (w *Walker) SetDestination(p formation.Point) {
	w.Dest = p.Position
	w.hasDest = true
}

// Step advances one tick toward the destination.
func (w *Walker) Step() {
	if !w.hasDest {
		return
	}
	d := w.Dest.Sub(w.Pos)
	dist := d.Len()
	if dist == 0 {
		return
	}
	w.Heading = mgl64.RadToDeg(math.Atan2(d.X(), d.Z()))
	if dist <= w.Speed {
		w.Pos = w.Dest
		w.Travelled += dist
		return
	}
	w.Pos = w.Pos.Add(d.Mul(w.Speed / dist))
	w.Travelled += w.Speed
}

// Remaining returns the distance left to the destination.
func (w *Walker) Remaining() float64 {
	return w.Dest.Sub(w.Pos).Len()
}

// Arrived reports whether the walker is within eps of its destination.
func (w *Walker) Arrived(eps float64) bool {
	return w.Remaining() <= eps
}
