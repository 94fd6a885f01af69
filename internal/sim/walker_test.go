package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Garsondee/formation-grid/internal/formation"
)

func TestWalker_IdleWithoutDestination(t *testing.T) {
	w := NewWalker(0, mgl64.Vec3{1, 0, 1}, 0.5)
	w.Step()
	if w.Travelled != 0 || w.Pos != (mgl64.Vec3{1, 0, 1}) {
		t.Fatalf("walker without a destination should not move, pos=%v travelled=%.2f", w.Pos, w.Travelled)
	}
}

func TestWalker_StepsCappedBySpeed(t *testing.T) {
	w := NewWalker(3, mgl64.Vec3{}, 0.5)
	w.SetDestination(formation.Point{Position: mgl64.Vec3{2, 0, 0}})

	w.Step()
	if !w.Pos.ApproxEqualThreshold(mgl64.Vec3{0.5, 0, 0}, 1e-9) {
		t.Fatalf("expected (0.5,0,0) after one step, got %v", w.Pos)
	}
	if math.Abs(w.Heading-90) > 1e-9 {
		t.Fatalf("expected heading 90 toward +X, got %.3f", w.Heading)
	}
	for i := 0; i < 10; i++ {
		w.Step()
	}
	if !w.Arrived(1e-12) {
		t.Fatalf("expected arrival, remaining %.6f", w.Remaining())
	}
	if math.Abs(w.Travelled-2) > 1e-9 {
		t.Fatalf("expected 2 units travelled, got %.6f", w.Travelled)
	}
	if w.Label != "A03" {
		t.Fatalf("expected label A03, got %s", w.Label)
	}
}
