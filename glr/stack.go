package glr

import (
	"fmt"

	"github.com/npillmayer/inklr/lr"
	"github.com/npillmayer/inklr/tree"
)

// Recovery tuning constants. Scores are subtracted from a stack's score
// for each recovery measure; higher scores win when the driver has to pick
// between stacks.
const (
	// RecoverInsert is the penalty for recovering by inserting a token.
	RecoverInsert = 200
	// RecoverDelete is the penalty for recovering by deleting a token.
	RecoverDelete = 190
	// RecoverReduce is the penalty for an invalid forced reduction.
	RecoverReduce = 100
	// RecoverMaxNext caps the number of stacks forked per insert recovery.
	RecoverMaxNext = 4
	// RecoverMaxInsertStackDepth stops insert recovery for deep stacks.
	RecoverMaxInsertStackDepth = 300
	// RecoverDampenInsertStackDepth restricts insert recovery to promising
	// candidates once stacks grow this deep. Depths are measured in frame
	// array entries (3 per frame).
	RecoverDampenInsertStackDepth = 120
)

// lookaheadMargin is the distance between reducePos and pos beyond which a
// reduction flushes a lookahead marker, so that incremental reuse notices
// decisions influenced by far-away input.
const lookaheadMargin = 25

// A Stack is one parse head: an LR state, the frames leading up to it, and
// the output buffer produced along the way. Stacks are persistent in the
// copy-on-split sense: Split creates an independent head that shares all
// buffer content up to the split point through its parent chain, and
// ancestors are never mutated once a descendant exists.
type Stack struct {
	p *Parse

	// frames holds (state, startPos, bufferBase) triples, one per push.
	frames []int
	// state is the current LR state id.
	state int
	// reducePos is the position the next reduction should nominally end at.
	// It trails pos while skipped tokens have been shifted but not yet
	// absorbed into a reduction.
	reducePos int
	// pos is the input position the stack has consumed up to.
	pos int
	// score accumulates dynamic precedence and recovery penalties.
	score int
	// buffer is this stack's local slice of the output buffer, flat
	// (term, start, end, size) records.
	buffer []int
	// bufferBase is the absolute offset at which buffer begins; the
	// logical buffer is the parent chain's content followed by buffer.
	bufferBase int
	// curContext is the optional context-tracker value.
	curContext *StackContext
	// lookAhead is the maximum position that influenced decisions on this
	// stack.
	lookAhead int
	// parent is the stack this one was forked from, always with a strictly
	// smaller bufferBase.
	parent *Stack

	id uint32 // stable identity for side tables
}

// StartStack creates a parse head in the given state. The frame array
// starts empty; the base frame materializes with the first push.
func StartStack(p *Parse, state, pos int) *Stack {
	s := &Stack{
		p:         p,
		state:     state,
		reducePos: pos,
		pos:       pos,
		id:        p.newStackID(),
	}
	if cx := p.parser.Context; cx != nil {
		var start interface{}
		if cx.Start != nil {
			start = cx.Start()
		}
		s.curContext = newStackContext(cx, start)
	}
	return s
}

func (s *Stack) String() string {
	return fmt.Sprintf("[%d frames, state %d, pos %d]", len(s.frames)/3, s.state, s.pos)
}

// Pos returns the input position the stack has consumed up to.
func (s *Stack) Pos() int { return s.pos }

// ReducePos returns the position the next reduction nominally ends at.
func (s *Stack) ReducePos() int { return s.reducePos }

// Score returns the stack's current score.
func (s *Stack) Score() int { return s.score }

// State returns the current LR state id.
func (s *Stack) State() int { return s.state }

// Depth returns the number of frames on the stack.
func (s *Stack) Depth() int { return len(s.frames) / 3 }

// BufferBase returns the absolute offset of the stack's local buffer.
func (s *Stack) BufferBase() int { return s.bufferBase }

// Parent returns the stack this one was forked from, or nil.
func (s *Stack) Parent() *Stack { return s.parent }

// Context returns the stack's context wrapper, or nil.
func (s *Stack) Context() *StackContext { return s.curContext }

// PushState appends the current state as a frame and enters state. start is
// the input position the new frame begins at.
func (s *Stack) PushState(state, start int) {
	s.frames = append(s.frames, s.state, start, s.bufferBase+len(s.buffer))
	s.state = state
}

// Apply executes a parse action: a reduction if the action carries the
// reduce bit, a shift otherwise. These are the only mutating entry points
// the driver uses while a stack is healthy.
func (s *Stack) Apply(action, next, nextStart, nextEnd int) {
	if action&lr.ReduceFlag != 0 {
		s.reduce(action)
	} else {
		s.shift(action, next, nextStart, nextEnd)
	}
}

// shift pushes the action's target state and emits a buffer record for
// terminals. Goto-flagged actions are non-consuming state changes;
// stay-flagged actions consume a skipped token without pushing a state.
func (s *Stack) shift(action, next, nextStart, nextEnd int) {
	table := s.p.parser.Table
	if action&lr.GotoFlag != 0 {
		s.PushState(action&lr.ValueMask, s.pos)
	} else if action&lr.StayFlag == 0 { // regular shift
		nextState := action
		prevPos := s.pos
		if nextEnd > s.pos || next <= table.MaxNode {
			s.pos = nextEnd
			if !table.StateFlag(nextState, lr.FlagSkipped) {
				s.reducePos = nextEnd
			}
		}
		if next <= table.MaxNode {
			// Gaps crossed before the token become siblings, so emit them
			// before the frame records its buffer base.
			s.emitGapNodes(prevPos, nextStart)
		}
		s.PushState(nextState, nextStart)
		s.shiftContext(next, nextStart)
		if next <= table.MaxNode {
			extra := s.emitGapNodes(nextStart, nextEnd)
			s.buffer = append(s.buffer, next, nextStart, nextEnd, 4+extra)
			s.checkNesting(next, nextStart, nextEnd)
		}
	} else { // shift-and-stay: a skipped token
		prevPos := s.pos
		s.pos = nextEnd
		s.shiftContext(next, nextStart)
		if next <= table.MaxNode {
			s.emitGapNodes(prevPos, nextStart)
			extra := s.emitGapNodes(nextStart, nextEnd)
			s.buffer = append(s.buffer, next, nextStart, nextEnd, 4+extra)
			s.checkNesting(next, nextStart, nextEnd)
		}
	}
}

// emitGapNodes appends a placeholder record for every gap contained in
// [from,to) and returns the number of buffer entries added. Records emitted
// for gaps inside a node's span become that node's children, inflating its
// size.
func (s *Stack) emitGapNodes(from, to int) int {
	if len(s.p.stream.gaps) == 0 {
		return 0
	}
	extra := 0
	for _, g := range s.p.stream.gaps {
		if g.From >= to {
			break
		}
		if g.From >= from && g.To <= to {
			s.buffer = append(s.buffer, s.p.parser.Table.PlaceHolder, g.From, g.To, 4)
			extra += 4
		}
	}
	return extra
}

// reduce pops the action's depth in frames and emits one parent record
// covering everything produced since the base frame.
func (s *Stack) reduce(action int) {
	depth := action >> lr.ReduceDepthShift
	term := action & lr.ValueMask
	table := s.p.parser.Table
	if s.reducePos < s.pos-lookaheadMargin {
		s.setLookAhead(s.pos)
	}
	if dPrec := table.DynamicPrecedence(term); dPrec != 0 {
		s.score += dPrec
	}
	if depth == 0 {
		// Zero-depth reductions add to the stack without popping anything.
		s.PushState(table.Goto(s.state, term, true), s.reducePos)
		if term < table.MinRepeatTerm {
			s.storeNode(term, s.reducePos, s.reducePos, 4, true)
		}
		s.reduceContext(term, s.reducePos)
		return
	}
	// The base index into frames, content after which is dropped. A
	// stay-flagged reduction consumes two extra frames: the dummy frame for
	// the skipped expression and the state that pushed it.
	base := len(s.frames) - (depth-1)*3
	if action&lr.StayFlag != 0 {
		base -= 6
	}
	start, bufferBase := 0, 0
	if base > 0 {
		start = s.frames[base-2]
		bufferBase = s.frames[base-1]
	}
	count := s.bufferBase + len(s.buffer) - bufferBase
	if term < table.MinRepeatTerm || action&lr.RepeatFlag != 0 {
		endPos := s.reducePos
		if table.StateFlag(s.state, lr.FlagSkipped) {
			endPos = s.pos
		}
		s.storeNode(term, start, endPos, count+4, true)
	}
	if action&lr.StayFlag != 0 {
		s.state = s.frames[base]
	} else if base >= 3 {
		s.state = table.Goto(s.frames[base-3], term, true)
	}
	s.frames = s.frames[:base]
	s.reduceContext(term, start)
}

// storeNode appends a (term, start, end, size) record. Adjacent error
// records are merged; a record ending before the current position sinks
// below trailing records for skipped tokens that it does not cover.
func (s *Stack) storeNode(term, start, end, size int, mustSink bool) {
	if term == lr.TermErr &&
		(len(s.frames) == 0 || s.frames[len(s.frames)-1] < len(s.buffer)+s.bufferBase) {
		// Try to omit or merge adjacent error nodes.
		cur, top := s, len(s.buffer)
		if top == 0 && cur.parent != nil {
			top = cur.bufferBase - cur.parent.bufferBase
			cur = cur.parent
		}
		if top > 0 && cur.buffer[top-4] == lr.TermErr && cur.buffer[top-1] > -1 {
			if start == end {
				return
			}
			if cur.buffer[top-2] >= start {
				cur.buffer[top-2] = end
				return
			}
		}
	}

	if !mustSink || s.pos == end { // simple case, just append
		s.buffer = append(s.buffer, term, start, end, size)
	} else {
		// There may be skipped records that have to move above the new one.
		index := len(s.buffer)
		if index > 0 && s.buffer[index-4] != lr.TermErr {
			mustMove := false
			for scan := index; scan > 0 && s.buffer[scan-2] > end; scan -= 4 {
				if s.buffer[scan-1] >= 0 {
					mustMove = true
					break
				}
			}
			if mustMove {
				s.buffer = append(s.buffer, 0, 0, 0, 0)
				for index > 0 && s.buffer[index-2] > end {
					// Slide this record one slot forward.
					s.buffer[index] = s.buffer[index-4]
					s.buffer[index+1] = s.buffer[index-3]
					s.buffer[index+2] = s.buffer[index-2]
					s.buffer[index+3] = s.buffer[index-1]
					index -= 4
					if size > 4 {
						size -= 4 // moved records are no longer covered
					}
				}
				s.buffer[index] = term
				s.buffer[index+1] = start
				s.buffer[index+2] = end
				s.buffer[index+3] = size
				s.checkNesting(term, start, end)
				return
			}
		}
		s.buffer = append(s.buffer, term, start, end, size)
	}
	s.checkNesting(term, start, end)
}

// checkNesting records the appended range as a nesting candidate when the
// grammar registers a nested-parser factory for term.
func (s *Stack) checkNesting(term, start, end int) {
	if s.p.parser.Nested == nil {
		return
	}
	if _, ok := s.p.parser.Nested[term]; ok {
		s.p.noteNesting(s, term, start, end)
	}
}

// Split forks the stack. Frames and context are cloned; buffer content up
// to the last record within reducePos stays shared through the parent
// chain, while records beyond it (outstanding skipped tokens, which may
// still be reordered) move into the fork's private buffer. This keeps
// ancestor buffers immutable.
func (s *Stack) Split() *Stack {
	parent := s
	off := len(parent.buffer)
	for off > 0 && parent.buffer[off-2] > parent.reducePos {
		off -= 4
	}
	buffer := append([]int(nil), s.buffer[off:]...)
	base := s.bufferBase + off
	// Make sure parent points to an actual parent with content, if any.
	for parent != nil && base == parent.bufferBase {
		parent = parent.parent
	}
	return &Stack{
		p:          s.p,
		frames:     append([]int(nil), s.frames...),
		state:      s.state,
		reducePos:  s.reducePos,
		pos:        s.pos,
		score:      s.score,
		buffer:     buffer,
		bufferBase: base,
		curContext: s.curContext,
		lookAhead:  s.lookAhead,
		parent:     parent,
		id:         s.p.newStackID(),
	}
}

// CanShift reports whether some finite sequence of default reductions
// followed by an explicit shift of term exists from the current state. The
// scan runs on a simulated stack and does not mutate the real one.
func (s *Stack) CanShift(term int) bool {
	table := s.p.parser.Table
	for sim := newSimulatedStack(s); ; {
		action := table.StateSlot(sim.state, lr.SlotDefaultReduce)
		if action == 0 {
			action = table.HasAction(sim.state, term)
		}
		if action == 0 {
			return false
		}
		if action&lr.ReduceFlag == 0 {
			return true
		}
		sim.reduce(action)
		if sim.state < 0 {
			return false
		}
	}
}

// StartOf follows the pending forced reductions and returns the start
// position of the topmost one producing a term from terms. With before
// set to a non-negative position, only starts preceding it qualify.
// Returns -1 when no such reduction exists.
func (s *Stack) StartOf(terms []int, before int) int {
	table := s.p.parser.Table
	sim := newSimulatedStack(s)
	for steps := len(s.frames) + 48; steps > 0; steps -= 3 {
		force := table.StateSlot(sim.state, lr.SlotForcedReduce)
		if force&lr.ReduceFlag == 0 {
			return -1
		}
		depth := force >> lr.ReduceDepthShift
		if depth > 0 && containsTerm(terms, force&lr.ValueMask) {
			base := sim.base - (depth-1)*3
			start := 0
			if base > 0 {
				start = sim.frames[base-2]
			}
			if before < 0 || start < before {
				return start
			}
		}
		sim.reduce(force)
		if sim.state < 0 || sim.base < 3 {
			return -1
		}
	}
	return -1
}

// MayNestFrom returns the earliest position at which a pending reduction
// producing one of the given terms begins, or -1. Drivers use it to decide
// whether starting a nested parse is worthwhile.
func (s *Stack) MayNestFrom(terms []int) int {
	table := s.p.parser.Table
	sim := newSimulatedStack(s)
	earliest := -1
	for steps := len(s.frames) + 48; steps > 0; steps -= 3 {
		force := table.StateSlot(sim.state, lr.SlotForcedReduce)
		if force&lr.ReduceFlag == 0 {
			break
		}
		depth := force >> lr.ReduceDepthShift
		if depth > 0 && containsTerm(terms, force&lr.ValueMask) {
			base := sim.base - (depth-1)*3
			start := 0
			if base > 0 {
				start = sim.frames[base-2]
			}
			if earliest < 0 || start < earliest {
				earliest = start
			}
		}
		sim.reduce(force)
		if sim.state < 0 || sim.base < 3 {
			break
		}
	}
	return earliest
}

func containsTerm(terms []int, term int) bool {
	for _, t := range terms {
		if t == term {
			return true
		}
	}
	return false
}

// RecoverByInsert forks the stack for up to RecoverMaxNext candidate states
// that could follow the current one, preferring states that can act on
// next. Each fork carries a zero-width error node and an Insert penalty.
func (s *Stack) RecoverByInsert(next int) []*Stack {
	if len(s.frames) >= RecoverMaxInsertStackDepth {
		return nil
	}
	table := s.p.parser.Table
	nextStates := table.NextStates(s.state)
	if len(nextStates) > RecoverMaxNext || len(s.frames) >= RecoverDampenInsertStackDepth {
		var best []lr.NextState
		for _, n := range nextStates {
			if n.State != s.state && table.HasAction(n.State, next) != 0 {
				best = append(best, n)
			}
		}
		if len(s.frames) < RecoverDampenInsertStackDepth {
			for _, n := range nextStates {
				if len(best) >= RecoverMaxNext {
					break
				}
				dup := false
				for _, b := range best {
					if b.State == n.State {
						dup = true
						break
					}
				}
				if !dup {
					best = append(best, n)
				}
			}
		}
		nextStates = best
	}
	var result []*Stack
	for _, n := range nextStates {
		if len(result) >= RecoverMaxNext {
			break
		}
		if n.State == s.state {
			continue
		}
		fork := s.Split()
		fork.PushState(n.State, s.pos)
		fork.storeNode(lr.TermErr, fork.pos, fork.pos, 4, true)
		fork.shiftContext(n.Term, s.pos)
		fork.reducePos = s.pos
		fork.score -= RecoverInsert
		result = append(result, fork)
	}
	return result
}

// RecoverByDelete skips the next token: terminals are still emitted, an
// error node covers the deleted range, and the stack takes a Delete
// penalty.
func (s *Stack) RecoverByDelete(next, nextEnd int) {
	isNode := next <= s.p.parser.Table.MaxNode
	if isNode {
		s.storeNode(next, s.pos, nextEnd, 4, false)
		s.storeNode(lr.TermErr, s.pos, nextEnd, 8, false)
	} else {
		s.storeNode(lr.TermErr, s.pos, nextEnd, 4, false)
	}
	s.pos = nextEnd
	s.reducePos = nextEnd
	s.score -= RecoverDelete
}

// ForceReduce takes the state's forced reduction. When that reduction is
// not currently valid, an error node is emitted first and the score
// penalized, but the reduction still happens. Reports whether a reduction
// was applied.
func (s *Stack) ForceReduce() bool {
	table := s.p.parser.Table
	reduce := table.StateSlot(s.state, lr.SlotForcedReduce)
	if reduce&lr.ReduceFlag == 0 {
		return false
	}
	if !table.ValidAction(s.state, reduce) {
		depth := reduce >> lr.ReduceDepthShift
		term := reduce & lr.ValueMask
		target := len(s.frames) - depth*3
		if target < 0 || table.Goto(s.frames[target], term, false) < 0 {
			backup := s.findForcedReduction()
			if backup == 0 {
				return false
			}
			reduce = backup
		}
		s.storeNode(lr.TermErr, s.pos, s.pos, 4, true)
		s.score -= RecoverReduce
	}
	s.reducePos = s.pos
	s.reduce(reduce)
	return true
}

// findForcedReduction looks for a reduction that can be applied in place of
// an invalid forced reduction, scanning shift targets depth-first for a
// reduce deep enough to reach below the current frame top.
func (s *Stack) findForcedReduction() int {
	table := s.p.parser.Table
	var seen []int
	var explore func(state, depth int) int
	explore = func(state, depth int) int {
		for _, v := range seen {
			if v == state {
				return 0
			}
		}
		seen = append(seen, state)
		found := 0
		table.AllActions(state, func(action int) bool {
			if action&(lr.StayFlag|lr.GotoFlag) != 0 {
				return false
			}
			if action&lr.ReduceFlag != 0 {
				rDepth := (action >> lr.ReduceDepthShift) - depth
				if rDepth > 1 {
					term := action & lr.ValueMask
					target := len(s.frames) - rDepth*3
					if target >= 0 && table.Goto(s.frames[target], term, false) >= 0 {
						found = rDepth<<lr.ReduceDepthShift | lr.ReduceFlag | term
						return true
					}
				}
				return false
			}
			if f := explore(action, depth+1); f != 0 {
				found = f
				return true
			}
			return false
		})
		return found
	}
	return explore(s.state, 0)
}

// ForceAll drains the stack with forced reductions until it reaches an
// accepting state. Idempotent on an accepting stack.
func (s *Stack) ForceAll() *Stack {
	for !s.p.parser.Table.StateFlag(s.state, lr.FlagAccepting) && s.ForceReduce() {
	}
	return s
}

// UseNode installs a prebuilt subtree at the current position: the tree is
// appended to the shared reused table (deduplicated against the last
// entry), referenced from the buffer, and the stack advances past it.
func (s *Stack) UseNode(value *tree.Tree, next int) {
	index := len(s.p.reused) - 1
	if index < 0 || s.p.reused[index] != value {
		s.p.reused = append(s.p.reused, value)
		index++
	}
	start := s.pos
	s.pos = start + value.Length()
	s.reducePos = s.pos
	s.PushState(next, start)
	s.buffer = append(s.buffer, index, start, s.reducePos, tree.SizeReused)
	if s.curContext != nil && s.curContext.tracker.Reuse != nil {
		s.updateContext(s.curContext.tracker.Reuse(
			s.curContext.context, value, s, s.p.stream.Reset(s.pos, nil)))
	}
}

// MaterializeTopNode converts the top buffer record, together with the
// records it covers, into an entry of the shared reused table, shrinking
// the stack's buffer. When the covered slice reaches into ancestor buffers,
// the stack is rerooted to the ancestor beyond the consumed region.
// Reports whether a node was materialized.
func (s *Stack) MaterializeTopNode() bool {
	if len(s.buffer) < 4 {
		return false
	}
	size := s.buffer[len(s.buffer)-1]
	if size < 4 {
		return false
	}
	end := s.bufferBase + len(s.buffer)
	newLen := end - size
	if newLen < 0 {
		return false
	}
	for i := 0; i < len(s.frames); i += 3 {
		if s.frames[i+2] > newLen {
			return false
		}
	}
	table := s.p.parser.Table
	tr := tree.Build(NewBufferCursor(s), table.NodeSet, s.p.reused, s.p.propValues)
	if newLen >= s.bufferBase {
		s.buffer = s.buffer[:newLen-s.bufferBase]
	} else {
		// The node consumed ancestor content; hang the stack below the
		// first ancestor that lies entirely before the consumed region.
		a := s.parent
		for a != nil && a.bufferBase+len(a.buffer) > newLen {
			a = a.parent
		}
		s.parent = a
		s.bufferBase = newLen
		s.buffer = nil
	}
	index := len(s.p.reused) - 1
	if index < 0 || s.p.reused[index] != tr {
		s.p.reused = append(s.p.reused, tr)
		index++
	}
	s.buffer = append(s.buffer, index, tr.From, tr.To, tree.SizeReused)
	return true
}

// Mount attaches a tree produced by a nested parse as a property of the
// current node.
func (s *Stack) Mount(mounted *tree.Tree) {
	s.p.propValues = append(s.p.propValues, mounted)
	s.buffer = append(s.buffer,
		len(s.p.propValues)-1, s.reducePos, tree.PropMounted, tree.SizeProp)
}

// Close flushes the incremental-reuse markers: the context hash for strict
// trackers and the lookahead extent when any decision looked ahead.
func (s *Stack) Close() {
	if s.curContext != nil && s.curContext.tracker.Strict {
		s.emitContext()
	}
	if s.lookAhead > 0 {
		s.emitLookAhead()
	}
}

// DeadEnd reports whether the stack is at its initial depth with no
// actions available in its state.
func (s *Stack) DeadEnd() bool {
	if len(s.frames) != 3 {
		return false
	}
	table := s.p.parser.Table
	return int(table.Data[table.StateSlot(s.state, lr.SlotActions)]) == lr.SeqEnd &&
		table.StateSlot(s.state, lr.SlotDefaultReduce) == 0
}

// Restart drops the stack back to its base frame, leaving a zero-width
// error node behind.
func (s *Stack) Restart() {
	s.storeNode(lr.TermErr, s.pos, s.pos, 4, true)
	s.state = s.frames[0]
	s.frames = s.frames[:3]
}

// SameState reports whether two stacks are in the same state with the same
// frame states and the same context hash, which makes them interchangeable
// for the driver.
func (s *Stack) SameState(other *Stack) bool {
	if s.state != other.state || len(s.frames) != len(other.frames) {
		return false
	}
	if s.curContext != nil && other.curContext != nil &&
		s.curContext.hash != other.curContext.hash {
		return false
	}
	for i := 0; i < len(s.frames); i += 3 {
		if s.frames[i] != other.frames[i] {
			return false
		}
	}
	return true
}

// DialectEnabled reports whether the dialect with the given id is enabled
// for this parse.
func (s *Stack) DialectEnabled(dialectID int) bool {
	flags := s.p.parser.Dialect.Flags
	return dialectID >= 0 && dialectID < len(flags) && flags[dialectID]
}

// --- Context plumbing -------------------------------------------------

func (s *Stack) shiftContext(term, start int) {
	if s.curContext != nil && s.curContext.tracker.Shift != nil {
		s.updateContext(s.curContext.tracker.Shift(
			s.curContext.context, term, s, s.p.stream.Reset(start, nil)))
	}
}

func (s *Stack) reduceContext(term, start int) {
	if s.curContext != nil && s.curContext.tracker.Reduce != nil {
		s.updateContext(s.curContext.tracker.Reduce(
			s.curContext.context, term, s, s.p.stream.Reset(start, nil)))
	}
}

// updateContext installs a changed context value, emitting a context
// marker when the hash changed.
func (s *Stack) updateContext(context interface{}) {
	if context != s.curContext.context {
		newCx := newStackContext(s.curContext.tracker, context)
		if newCx.hash != s.curContext.hash {
			s.emitContext()
		}
		s.curContext = newCx
	}
}

// emitContext records the current context hash, unless the top record
// already is a context marker.
func (s *Stack) emitContext() {
	last := len(s.buffer) - 1
	if last < 0 || s.buffer[last] != tree.SizeContext {
		s.buffer = append(s.buffer,
			s.curContext.hash, s.reducePos, s.reducePos, tree.SizeContext)
	}
}

// emitLookAhead records the current lookahead extent, unless the top
// record already is a lookahead marker.
func (s *Stack) emitLookAhead() {
	last := len(s.buffer) - 1
	if last < 0 || s.buffer[last] != tree.SizeLookAhead {
		s.buffer = append(s.buffer,
			s.lookAhead, s.reducePos, s.reducePos, tree.SizeLookAhead)
	}
}

func (s *Stack) setLookAhead(lookAhead int) {
	if lookAhead > s.lookAhead {
		s.emitLookAhead()
		s.lookAhead = lookAhead
	}
}
