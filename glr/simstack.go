package glr

import "github.com/npillmayer/inklr/lr"

// SimulatedStack mirrors a stack's state and frames so that reductions can
// be scanned without mutating the real stack. Zero-depth reductions copy
// the frame array on first write; deeper reductions only move the logical
// base backwards.
type SimulatedStack struct {
	state  int
	start  *Stack
	frames []int
	base   int
	owned  bool // frames copied, safe to append
}

func newSimulatedStack(start *Stack) *SimulatedStack {
	return &SimulatedStack{
		state:  start.state,
		start:  start,
		frames: start.frames,
		base:   len(start.frames),
	}
}

// reduce mirrors the frame arithmetic of Stack.reduce without writing back.
// It reports false when the reduction runs off the bottom of the frames or
// has no goto target; sim.state is negative afterwards.
func (sim *SimulatedStack) reduce(action int) bool {
	term := action & lr.ValueMask
	depth := action >> lr.ReduceDepthShift
	if depth == 0 {
		if !sim.owned {
			sim.frames = append([]int(nil), sim.frames...)
			sim.owned = true
		}
		sim.frames = append(sim.frames, sim.state, 0, 0)
		sim.base += 3
	} else {
		sim.base -= (depth - 1) * 3
	}
	if sim.base < 3 {
		sim.state = -1
		return false
	}
	sim.state = sim.start.p.parser.Table.Goto(sim.frames[sim.base-3], term, true)
	return sim.state >= 0
}
