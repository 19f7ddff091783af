package lr

import (
	"fmt"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"golang.org/x/exp/slices"

	"github.com/npillmayer/inklr/lr/sparse"
	"github.com/npillmayer/inklr/tree"
)

// TableBuilder assembles a ParseTable from explicit state descriptions.
// It performs no grammar analysis; callers (tests, generated code) describe
// states, actions and edges directly and the builder packs them into the
// flat arrays the engine interprets.
//
//	b := lr.NewTableBuilder()
//	s0 := b.NewState(0)
//	s1 := b.NewState(lr.FlagAccepting)
//	b.Action(s0, term, s1)                  // shift
//	b.AddGoto(s0, ntTerm, s1)
//	table, err := b.Table()
type TableBuilder struct {
	MinRepeatTerm int
	MaxTerm       int
	MaxNode       int
	EOFTerm       int
	TopState      int
	PlaceHolder   int
	BufferLength  int
	NodeSet       *tree.NodeSet
	DynPrec       map[int]int
	TokenPrec     []int

	states  *arraylist.List // of *stateRec
	actions *arraylist.List // of actionEntry
	gotos   *arraylist.List // of gotoEntry
	dfa     *DFABuilder
}

type stateRec struct {
	flags         int
	defaultReduce int
	forcedReduce  int
	tokenizerMask int
}

type actionEntry struct {
	state, term, action int
	skip                bool
}

type gotoEntry struct {
	state, term, target int
}

// NewTableBuilder creates an empty builder.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{
		BufferLength: 1024,
		states:       arraylist.New(),
		actions:      arraylist.New(),
		gotos:        arraylist.New(),
	}
}

// NewState adds a state with the given StateFlag bits and returns its id.
// States are numbered in creation order, starting at 0.
func (b *TableBuilder) NewState(flags int) int {
	b.states.Add(&stateRec{flags: flags})
	return b.states.Size() - 1
}

func (b *TableBuilder) state(id int) *stateRec {
	s, _ := b.states.Get(id)
	return s.(*stateRec)
}

// Action registers an action for terminal term in state.
func (b *TableBuilder) Action(state, term, action int) {
	b.actions.Add(actionEntry{state: state, term: term, action: action})
}

// SkipAction registers an action in the state's skip list, used for
// skipped terminals such as whitespace.
func (b *TableBuilder) SkipAction(state, term, action int) {
	b.actions.Add(actionEntry{state: state, term: term, action: action, skip: true})
}

// SetDefaultReduce installs a reduction that the state takes without
// consulting the input.
func (b *TableBuilder) SetDefaultReduce(state, action int) {
	b.state(state).defaultReduce = action
}

// SetForcedReduce installs the state's recovery reduction.
func (b *TableBuilder) SetForcedReduce(state, action int) {
	b.state(state).forcedReduce = action
}

// SetTokenizerMask selects the tokenizers applicable in state.
func (b *TableBuilder) SetTokenizerMask(state, mask int) {
	b.state(state).tokenizerMask = mask
}

// AddGoto registers a goto edge: a reduction to term in state continues in
// target.
func (b *TableBuilder) AddGoto(state, term, target int) {
	b.gotos.Add(gotoEntry{state: state, term: term, target: target})
}

// SetTokenizer attaches the packed tokenizer DFA for the table's token
// groups.
func (b *TableBuilder) SetTokenizer(dfa *DFABuilder) {
	b.dfa = dfa
}

// Table packs the collected descriptions into a ParseTable.
func (b *TableBuilder) Table() (*ParseTable, error) {
	nstates := b.states.Size()
	if nstates == 0 {
		return nil, fmt.Errorf("table has no states")
	}
	maxTerm := b.MaxTerm
	it := b.actions.Iterator()
	for it.Next() {
		e := it.Value().(actionEntry)
		if e.state < 0 || e.state >= nstates {
			return nil, fmt.Errorf("action references unknown state %d", e.state)
		}
		if e.term > maxTerm {
			maxTerm = e.term
		}
	}
	t := &ParseTable{
		MinRepeatTerm: b.MinRepeatTerm,
		MaxTerm:       maxTerm,
		MaxNode:       b.MaxNode,
		EOFTerm:       b.EOFTerm,
		TopState:      b.TopState,
		PlaceHolder:   b.PlaceHolder,
		BufferLength:  b.BufferLength,
		NodeSet:       b.NodeSet,
		DynPrec:       b.DynPrec,
	}
	tracer().Debugf("packing table with %d states, max term %d", nstates, maxTerm)

	// Collect actions in two sparse matrices, one per action set. The
	// matrices keep conflicting actions side by side the way a GLR table
	// needs them.
	null := int32(sparse.DefaultNullValue)
	mains := sparse.NewIntMatrix(nstates, maxTerm+1, null)
	skips := sparse.NewIntMatrix(nstates, maxTerm+1, null)
	it = b.actions.Iterator()
	for it.Next() {
		e := it.Value().(actionEntry)
		if e.skip {
			skips.Add(e.state, e.term, int32(e.action))
		} else {
			mains.Add(e.state, e.term, int32(e.action))
		}
	}

	// Data[0] is a shared SeqEnd, so offset 0 denotes an empty list.
	data := []uint16{SeqEnd}
	packRow := func(m *sparse.IntMatrix, state int) int {
		off := len(data)
		count := 0
		m.EachInRow(state, func(term int, a, bb int32) {
			for _, action := range []int32{a, bb} {
				if action == null {
					continue
				}
				data = append(data, uint16(term), uint16(action&0xffff), uint16(action>>16))
				count++
			}
		})
		if count == 0 {
			return 0
		}
		data = append(data, SeqEnd)
		return off
	}

	t.States = make([]uint32, nstates*StateSize)
	for i := 0; i < nstates; i++ {
		s := b.state(i)
		t.States[i*StateSize+SlotFlags] = uint32(s.flags)
		t.States[i*StateSize+SlotActions] = uint32(packRow(mains, i))
		t.States[i*StateSize+SlotSkip] = uint32(packRow(skips, i))
		t.States[i*StateSize+SlotTokenizerMask] = uint32(s.tokenizerMask)
		t.States[i*StateSize+SlotDefaultReduce] = uint32(s.defaultReduce)
		t.States[i*StateSize+SlotForcedReduce] = uint32(s.forcedReduce)
	}
	t.Data = data

	var err error
	if t.Gotos, err = b.packGotos(nstates); err != nil {
		return nil, err
	}

	prec := make([]uint16, 0, len(b.TokenPrec)+1)
	for _, term := range b.TokenPrec {
		prec = append(prec, uint16(term))
	}
	t.TokenPrec = append(prec, SeqEnd)

	if b.dfa != nil {
		if t.TokenData, err = b.dfa.pack(); err != nil {
			return nil, err
		}
		t.TokenGroupCount = b.dfa.groups
	}
	return t, nil
}

// packGotos groups the goto edges per term, states sharing a target packed
// into one group.
func (b *TableBuilder) packGotos(nstates int) ([]uint16, error) {
	perTerm := make(map[int]map[int][]int) // term -> target -> states
	terms := treeset.NewWith(utils.IntComparator)
	maxGotoTerm := -1
	it := b.gotos.Iterator()
	for it.Next() {
		e := it.Value().(gotoEntry)
		if e.state < 0 || e.state >= nstates || e.target < 0 || e.target >= nstates {
			return nil, fmt.Errorf("goto edge references unknown state: %v", e)
		}
		if perTerm[e.term] == nil {
			perTerm[e.term] = make(map[int][]int)
		}
		perTerm[e.term][e.target] = append(perTerm[e.term][e.target], e.state)
		terms.Add(e.term)
		if e.term > maxGotoTerm {
			maxGotoTerm = e.term
		}
	}
	table := make([]uint16, 2+maxGotoTerm)
	table[0] = uint16(maxGotoTerm + 1)
	tit := terms.Iterator()
	for tit.Next() {
		term := tit.Value().(int)
		if len(table) > 0xfffe {
			return nil, fmt.Errorf("goto table overflows 16-bit offsets")
		}
		table[term+1] = uint16(len(table))
		targets := make([]int, 0, len(perTerm[term]))
		for target := range perTerm[term] {
			targets = append(targets, target)
		}
		slices.Sort(targets)
		for gi, target := range targets {
			states := perTerm[term][target]
			slices.Sort(states)
			groupTag := len(states) << 1
			if gi == len(targets)-1 {
				groupTag |= 1
			}
			table = append(table, uint16(groupTag), uint16(target))
			for _, s := range states {
				table = append(table, uint16(s))
			}
		}
	}
	return table, nil
}

// --- Tokenizer DFA builder --------------------------------------------

// DFABuilder assembles the packed tokenizer DFA a TokenGroup interprets.
// Target states of edges are given as state ids; packing resolves them to
// absolute offsets.
type DFABuilder struct {
	states []*dfaState
	groups int
}

type dfaState struct {
	mask    int
	accepts []dfaAccept
	edges   []dfaEdge
}

type dfaAccept struct {
	term, mask int
}

type dfaEdge struct {
	lo, hi, target int
}

// NewDFABuilder creates a DFA builder for a tokenizer with the given number
// of token groups.
func NewDFABuilder(groups int) *DFABuilder {
	return &DFABuilder{groups: groups}
}

// NewState adds a DFA state reachable for the groups in groupMask and
// returns its id. State 0 is the start state.
func (d *DFABuilder) NewState(groupMask int) int {
	d.states = append(d.states, &dfaState{mask: groupMask})
	return len(d.states) - 1
}

// Accept marks state as accepting term for the groups in groupMask.
func (d *DFABuilder) Accept(state, term, groupMask int) {
	s := d.states[state]
	s.accepts = append(s.accepts, dfaAccept{term: term, mask: groupMask})
}

// Edge adds a transition for code units in the half-open range [lo,hi) to
// target.
func (d *DFABuilder) Edge(state, lo, hi, target int) {
	s := d.states[state]
	s.edges = append(s.edges, dfaEdge{lo: lo, hi: hi, target: target})
}

// pack emits the per-state records: groupMask, accEnd, edgeCount, the
// (term, groupMask) accept pairs, then the (lo, hi, target) edges sorted
// by lo, with targets resolved to state offsets.
func (d *DFABuilder) pack() ([]uint16, error) {
	offsets := make([]int, len(d.states))
	size := 0
	for i, s := range d.states {
		offsets[i] = size
		size += 3 + 2*len(s.accepts) + 3*len(s.edges)
	}
	if size > 0xffff {
		return nil, fmt.Errorf("tokenizer DFA overflows 16-bit offsets")
	}
	data := make([]uint16, 0, size)
	for _, s := range d.states {
		accEnd := len(data) + 3 + 2*len(s.accepts)
		data = append(data, uint16(s.mask), uint16(accEnd), uint16(len(s.edges)))
		for _, acc := range s.accepts {
			data = append(data, uint16(acc.term), uint16(acc.mask))
		}
		edges := slices.Clone(s.edges)
		slices.SortFunc(edges, func(a, b dfaEdge) int { return a.lo - b.lo })
		for _, e := range edges {
			if e.target < 0 || e.target >= len(d.states) {
				return nil, fmt.Errorf("edge references unknown DFA state %d", e.target)
			}
			data = append(data, uint16(e.lo), uint16(e.hi), uint16(offsets[e.target]))
		}
	}
	return data, nil
}
