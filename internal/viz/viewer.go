// Package viz draws a running formation with Ebiten. The Viewer is a
// formation.Observer: it only sees what the solver hands to observers.
package viz

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/formation-grid/internal/formation"
	"github.com/Garsondee/formation-grid/internal/sim"
)

const (
	defaultPixelsPerUnit = 24.0
	gridSpacing          = 2.0 // world units between background grid lines
	hudLineSpacing       = 15
	logTailLines         = 12
)

var (
	bgColor      = color.RGBA{R: 28, G: 36, B: 30, A: 255}
	gridColor    = color.RGBA{R: 255, G: 255, B: 255, A: 14}
	slotColor    = color.RGBA{R: 240, G: 200, B: 80, A: 150}
	linkColor    = color.RGBA{R: 255, G: 255, B: 255, A: 40}
	agentColor   = color.RGBA{R: 90, G: 160, B: 240, A: 255}
	arrivedColor = color.RGBA{R: 110, G: 220, B: 120, A: 255}
	axisXColor   = color.RGBA{R: 230, G: 70, B: 70, A: 220}
	axisZColor   = color.RGBA{R: 70, G: 120, B: 240, A: 220}
)

// slotView is the observer's copy of one assignment.
type slotView struct {
	row, col int
	target   mgl64.Vec3
	walker   *sim.Walker
}

type Viewer struct {
	width  int
	height int
	sim    *sim.Sim
	face   *text.GoXFace

	// Latest observer snapshot.
	observedTick int
	points       []formation.Point
	slots        []slotView

	camX, camZ    float64
	pixelsPerUnit float64
	follow        bool
	showLinks     bool
	showHUD       bool
	prevKeys      map[ebiten.Key]bool

	simSpeed  float64 // multiplier: 0=paused, 0.5, 1, 2, 4
	tickAccum float64
	status    string
}

// NewViewer creates a viewer of the given window size. Attach a Sim before
// running it.
func NewViewer(width, height int) *Viewer {
	return &Viewer{
		width:         width,
		height:        height,
		face:          text.NewGoXFace(basicfont.Face7x13),
		pixelsPerUnit: defaultPixelsPerUnit,
		follow:        true,
		showLinks:     true,
		showHUD:       true,
		prevKeys:      make(map[ebiten.Key]bool),
		simSpeed:      1,
	}
}

// Attach sets the simulation the viewer steps and draws.
func (v *Viewer) Attach(s *sim.Sim) {
	v.sim = s
}

// ObserveFormation implements formation.Observer.
func (v *Viewer) ObserveFormation(tick int, points []formation.Point, assignments []formation.Assignment) {
	v.observedTick = tick
	v.points = append(v.points[:0], points...)
	v.slots = v.slots[:0]
	for _, a := range assignments {
		w, _ := a.Agent.(*sim.Walker)
		v.slots = append(v.slots, slotView{row: a.Row, col: a.Col, target: a.Target.Position, walker: w})
	}
}

func (v *Viewer) Update() error {
	v.handleInput()
	if v.sim == nil || v.simSpeed <= 0 {
		return nil
	}
	v.tickAccum += v.simSpeed
	for v.tickAccum >= 1.0 {
		v.tickAccum -= 1.0
		if err := v.sim.Step(); err != nil {
			return err
		}
	}
	if v.follow {
		f := v.sim.Frame()
		v.camX, v.camZ = f.Position.X(), f.Position.Z()
	}
	return nil
}

// pressed reports a key-down edge and records the key state.
func (v *Viewer) pressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !v.prevKeys[k]
}

// handleInput processes keypresses (edge-triggered).
func (v *Viewer) handleInput() {
	cur := map[ebiten.Key]bool{}

	if v.pressed(cur, ebiten.KeySpace) {
		if v.simSpeed > 0 {
			v.simSpeed = 0
		} else {
			v.simSpeed = 1
		}
	}
	speeds := map[ebiten.Key]float64{ebiten.Key1: 1, ebiten.Key2: 2, ebiten.Key4: 4, ebiten.Key0: 0.5}
	for k, sp := range speeds {
		if v.pressed(cur, k) {
			v.simSpeed = sp
		}
	}
	if v.pressed(cur, ebiten.KeyF) {
		v.follow = !v.follow
	}
	if v.pressed(cur, ebiten.KeyL) {
		v.showLinks = !v.showLinks
	}
	if v.pressed(cur, ebiten.KeyH) {
		v.showHUD = !v.showHUD
	}
	if v.pressed(cur, ebiten.KeyC) {
		v.copyReport()
	}

	// Zoom: mouse wheel or =/- keys.
	const zoomMin, zoomMax = 4.0, 120.0
	_, wy := ebiten.Wheel()
	if wy != 0 {
		v.pixelsPerUnit *= math.Pow(1.12, wy)
	}
	if v.pressed(cur, ebiten.KeyEqual) {
		v.pixelsPerUnit *= 1.25
	}
	if v.pressed(cur, ebiten.KeyMinus) {
		v.pixelsPerUnit /= 1.25
	}
	v.pixelsPerUnit = math.Max(zoomMin, math.Min(zoomMax, v.pixelsPerUnit))

	if !v.follow {
		pan := 6.0 / v.pixelsPerUnit
		if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
			v.camZ += pan
		}
		if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
			v.camZ -= pan
		}
		if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
			v.camX -= pan
		}
		if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
			v.camX += pan
		}
	}

	v.prevKeys = cur
}

// copyReport puts the run report and the recent log on the clipboard.
func (v *Viewer) copyReport() {
	if v.sim == nil {
		return
	}
	if err := clipboard.WriteAll(v.reportText()); err != nil {
		v.status = fmt.Sprintf("clipboard: %v", err)
		return
	}
	v.status = fmt.Sprintf("report copied at T=%d", v.sim.CurrentTick())
}

func (v *Viewer) reportText() string {
	var sb strings.Builder
	sb.WriteString(v.sim.Report().Format())
	sb.WriteString("--- recent events ---\n")
	tick := v.sim.CurrentTick()
	sb.WriteString(v.sim.SimLog.FormatRange(tick-300, tick))
	return sb.String()
}

// worldToScreen maps world (x, z) to screen pixels; +Z points up the screen.
func (v *Viewer) worldToScreen(p mgl64.Vec3) (float32, float32) {
	sx := float64(v.width)/2 + (p.X()-v.camX)*v.pixelsPerUnit
	sy := float64(v.height)/2 - (p.Z()-v.camZ)*v.pixelsPerUnit
	return float32(sx), float32(sy)
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	v.drawGrid(screen)
	v.drawFormationSlots(screen)
	v.drawAgents(screen)
	v.drawFrameAxes(screen)
	if v.showHUD {
		v.drawHUD(screen)
	}
}

// drawGrid draws world-aligned background lines that scroll with the camera.
func (v *Viewer) drawGrid(screen *ebiten.Image) {
	halfW := float64(v.width) / 2 / v.pixelsPerUnit
	halfH := float64(v.height) / 2 / v.pixelsPerUnit
	x0 := math.Floor((v.camX-halfW)/gridSpacing) * gridSpacing
	for x := x0; x <= v.camX+halfW; x += gridSpacing {
		sx, _ := v.worldToScreen(mgl64.Vec3{x, 0, 0})
		vector.StrokeLine(screen, sx, 0, sx, float32(v.height), 1.0, gridColor, false)
	}
	z0 := math.Floor((v.camZ-halfH)/gridSpacing) * gridSpacing
	for z := z0; z <= v.camZ+halfH; z += gridSpacing {
		_, sy := v.worldToScreen(mgl64.Vec3{0, 0, z})
		vector.StrokeLine(screen, 0, sy, float32(v.width), sy, 1.0, gridColor, false)
	}
}

// drawFormationSlots renders a small diamond at each formation point and a
// faint line from each agent to its assigned slot.
func (v *Viewer) drawFormationSlots(screen *ebiten.Image) {
	d := float32(5.0)
	for _, p := range v.points {
		sx, sy := v.worldToScreen(p.Position)
		vector.StrokeLine(screen, sx-d, sy, sx, sy-d, 1.0, slotColor, false)
		vector.StrokeLine(screen, sx, sy-d, sx+d, sy, 1.0, slotColor, false)
		vector.StrokeLine(screen, sx+d, sy, sx, sy+d, 1.0, slotColor, false)
		vector.StrokeLine(screen, sx, sy+d, sx-d, sy, 1.0, slotColor, false)
	}
	if !v.showLinks {
		return
	}
	for _, s := range v.slots {
		if s.walker == nil {
			continue
		}
		ax, ay := v.worldToScreen(s.walker.Pos)
		tx, ty := v.worldToScreen(s.target)
		vector.StrokeLine(screen, ax, ay, tx, ty, 1.0, linkColor, false)
	}
}

func (v *Viewer) drawAgents(screen *ebiten.Image) {
	if v.sim == nil {
		return
	}
	r := float32(math.Max(3, v.pixelsPerUnit*0.3))
	for _, w := range v.sim.Walkers {
		sx, sy := v.worldToScreen(w.Pos)
		c := agentColor
		if w.Arrived(0.05) {
			c = arrivedColor
		}
		vector.FillCircle(screen, sx, sy, r, c, true)
		// Heading tick.
		h := mgl64.DegToRad(w.Heading)
		hx, hy := v.worldToScreen(w.Pos.Add(mgl64.Vec3{math.Sin(h), 0, math.Cos(h)}.Mul(0.6)))
		vector.StrokeLine(screen, sx, sy, hx, hy, 1.5, color.White, true)
	}
}

// drawFrameAxes draws the reference frame's local X (red) and Z (blue) axes.
func (v *Viewer) drawFrameAxes(screen *ebiten.Image) {
	if v.sim == nil {
		return
	}
	f := v.sim.Frame()
	q := f.Orientation.Normalize()
	ox, oy := v.worldToScreen(f.Position)
	xx, xy := v.worldToScreen(f.Position.Add(q.Rotate(mgl64.Vec3{1.5, 0, 0})))
	zx, zy := v.worldToScreen(f.Position.Add(q.Rotate(mgl64.Vec3{0, 0, 1.5})))
	vector.StrokeLine(screen, ox, oy, xx, xy, 2, axisXColor, true)
	vector.StrokeLine(screen, ox, oy, zx, zy, 2, axisZColor, true)
	vector.FillCircle(screen, ox, oy, 3, color.White, true)
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	lines := []string{v.hudSummary()}
	lines = append(lines,
		"[space] pause  [0/1/2/4] speed  [F] follow  [L] links  [H] hud  [C] copy report  [-/=] zoom",
	)
	if v.status != "" {
		lines = append(lines, v.status)
	}
	if v.sim != nil {
		entries := v.sim.SimLog.Entries()
		from := len(entries) - logTailLines
		if from < 0 {
			from = 0
		}
		for _, e := range entries[from:] {
			lines = append(lines, e.String())
		}
	}

	op := &text.DrawOptions{}
	op.GeoM.Translate(10, 8)
	op.ColorScale.ScaleWithColor(color.White)
	op.LineSpacing = hudLineSpacing
	text.Draw(screen, strings.Join(lines, "\n"), v.face, op)
}

func (v *Viewer) hudSummary() string {
	if v.sim == nil {
		return "no simulation attached"
	}
	s := v.sim.Solver
	shape := s.Shape()
	return fmt.Sprintf("T=%d  %dx%d  speed=%.1fx  yaw=%.1f  committed=%.1f (%s)  observed=%d",
		v.sim.CurrentTick(), shape.Rows, shape.Columns, v.simSpeed,
		formation.Yaw(v.sim.Frame().Orientation), s.LastYaw(), s.Direction(), v.observedTick)
}

func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}
