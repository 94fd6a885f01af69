package formation

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Anchor selects how the grid is positioned relative to the frame origin.
type Anchor int

const (
	// AnchorCentered places the grid symmetrically about the frame origin.
	AnchorCentered Anchor = iota
	// AnchorLegacy reproduces the 2i/n-1 layout exactly: cells run from
	// -halfExtent to +halfExtent-spacing, one spacing short on the far side.
	AnchorLegacy
)

func (a Anchor) String() string {
	switch a {
	case AnchorCentered:
		return "centered"
	case AnchorLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("anchor(%d)", int(a))
	}
}

// ParseAnchor maps a config string to an Anchor. The empty string is centered.
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "centered", "centred":
		return AnchorCentered, nil
	case "legacy":
		return AnchorLegacy, nil
	}
	return 0, fmt.Errorf("unknown anchor %q (want centered or legacy): %w", s, ErrInvalidConfig)
}

// Frame is the moving reference the formation is built around.
// The zero Frame is the identity frame at the origin.
type Frame struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// FrameAt builds a frame at pos facing yawDeg degrees about +Y.
func FrameAt(pos mgl64.Vec3, yawDeg float64) Frame {
	return Frame{Position: pos, Orientation: YawQuat(yawDeg)}
}

// Point is the world-space target pose of one grid cell.
type Point struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// localOffset returns cell (i,j)'s offset in the frame's local space.
// Rows run along local X, columns along local Z.
func localOffset(shape Shape, anchor Anchor, i, j int) mgl64.Vec3 {
	rowHalf := float64(shape.Rows) * shape.RowSpacing / 2
	colHalf := float64(shape.Columns) * shape.ColumnSpacing / 2

	x := rowHalf * (float64(i)*2/float64(shape.Rows) - 1)
	z := colHalf * (float64(j)*2/float64(shape.Columns) - 1)
	if anchor == AnchorCentered {
		x += shape.RowSpacing / 2
		z += shape.ColumnSpacing / 2
	}
	return mgl64.Vec3{x, 0, z}
}

// ComputePoints returns the world pose of every cell, row-major
// (cell (i,j) at index i*Columns+j). dst is reused when it has room.
// Every point shares the frame's orientation.
func ComputePoints(shape Shape, frame Frame, anchor Anchor, dst []Point) []Point {
	total := shape.Total()
	if cap(dst) < total {
		dst = make([]Point, total)
	}
	dst = dst[:total]

	rot := frame.Orientation.Normalize()
	base := mgl64.Translate3D(frame.Position.Elem()).Mul4(rot.Mat4())

	for i := 0; i < shape.Rows; i++ {
		for j := 0; j < shape.Columns; j++ {
			m := base.Mul4(mgl64.Translate3D(localOffset(shape, anchor, i, j).Elem()))
			p := &dst[i*shape.Columns+j]
			p.Position = m.Col(3).Vec3()
			p.Orientation = rot
		}
	}
	return dst
}
