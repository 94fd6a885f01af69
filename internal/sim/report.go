package sim

import (
	"fmt"
	"strings"
)

// Report summarises one run for the headless CLI and the viewer's clipboard dump.
type Report struct {
	Ticks             int
	Agents            int
	Rotations         int
	ClockwiseTurns    int
	CounterTurns      int
	FirstRotationTick int // -1 if the grid never rotated
	SettledTick       int // first tick after the last rotation with every walker arrived, -1 if never

	TotalTravel   float64
	MeanTravel    float64
	MaxTravel     float64
	MeanRemaining float64
	MaxRemaining  float64
	Arrivals      int
	Departures    int
}

// Report builds the run summary from walker state and the SimLog.
func (s *Sim) Report() Report {
	r := Report{
		Ticks:             s.tick,
		Agents:            len(s.Walkers),
		Rotations:         s.rotations,
		ClockwiseTurns:    s.SimLog.CountCategory("rotate", "cw"),
		CounterTurns:      s.SimLog.CountCategory("rotate", "ccw"),
		FirstRotationTick: s.firstRotationTick,
		SettledTick:       s.settledTick,
		Arrivals:          s.SimLog.CountCategory("move", "arrive"),
		Departures:        s.SimLog.CountCategory("move", "depart"),
	}
	for _, w := range s.Walkers {
		r.TotalTravel += w.Travelled
		if w.Travelled > r.MaxTravel {
			r.MaxTravel = w.Travelled
		}
		rem := w.Remaining()
		r.MeanRemaining += rem
		if rem > r.MaxRemaining {
			r.MaxRemaining = rem
		}
	}
	if n := float64(len(s.Walkers)); n > 0 {
		r.MeanTravel = r.TotalTravel / n
		r.MeanRemaining /= n
	}
	return r
}

// Format renders the report as key=value lines.
func (r Report) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ticks=%d agents=%d\n", r.Ticks, r.Agents)
	fmt.Fprintf(&sb, "rotations: total=%d cw=%d ccw=%d first_tick=%d settled_tick=%d\n",
		r.Rotations, r.ClockwiseTurns, r.CounterTurns, r.FirstRotationTick, r.SettledTick)
	fmt.Fprintf(&sb, "travel: total=%.2f mean=%.2f max=%.2f\n", r.TotalTravel, r.MeanTravel, r.MaxTravel)
	fmt.Fprintf(&sb, "remaining: mean=%.3f max=%.3f\n", r.MeanRemaining, r.MaxRemaining)
	fmt.Fprintf(&sb, "move_events: arrive=%d depart=%d\n", r.Arrivals, r.Departures)
	return sb.String()
}
