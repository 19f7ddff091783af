/*
Package lr defines the packed parse-table format interpreted by the engine
in package glr, together with the bit layout of parse actions and a builder
for assembling tables in code.

Tables are flat integer arrays. Per-state data lives in StateSize-slot
records; action and skip lists share a common uint16 Data array, and the
tokenizer DFA is packed into a separate uint16 TokenData array.
Nothing in this package mutates a table after construction, so a table may
be shared freely between concurrent parses.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package lr

import (
	"github.com/npillmayer/inklr/tree"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'inklr.lr'.
func tracer() tracing.Trace {
	return tracing.Select("inklr.lr")
}

// ParseTable holds the pre-compiled tables for one grammar. All arrays are
// read-only after construction.
type ParseTable struct {
	// States holds StateSize slots per state; see the Slot* constants.
	States []uint32
	// Data holds action lists and skip lists. Each list is a sequence of
	// (term, actionLow, actionHigh) triples terminated by SeqEnd; an action
	// value is actionLow | actionHigh<<16.
	Data []uint16
	// Gotos is the goto table. Gotos[0] is the number of indexable terms;
	// for term < Gotos[0], Gotos[term+1] is the offset of the term's group
	// list, or 0 if the term has no goto entries. A group list consists of
	// (groupTag, target, states…) groups where groupTag packs the number of
	// states in its high bits and a last-group marker in bit 0.
	Gotos []uint16
	// TokenData is the packed DFA shared by the table's tokenizer groups;
	// see glr.TokenGroup for the per-state layout.
	TokenData []uint16
	// TokenPrec lists terms in override order, earlier entries taking
	// precedence, terminated by SeqEnd.
	TokenPrec []uint16
	// TokenGroupCount is the number of tokenizer groups encoded in TokenData.
	TokenGroupCount int

	// MinRepeatTerm is the lowest term id used for synthesized repetition
	// nodes; MaxTerm the highest term id overall; MaxNode the highest term
	// id that corresponds to a tree node.
	MinRepeatTerm int
	MaxTerm       int
	MaxNode       int
	// EOFTerm is the term produced at the end of the input.
	EOFTerm int
	// TopState is the start state of the grammar's top rule.
	TopState int
	// PlaceHolder is the node id emitted for input gaps.
	PlaceHolder int
	// BufferLength is the local buffer size beyond which a driver may
	// materialize the top node of a stack.
	BufferLength int

	// NodeSet maps term ids to node types.
	NodeSet *tree.NodeSet
	// DynPrec holds non-zero dynamic precedences by term.
	DynPrec map[int]int
}

// pair decodes a 32-bit value stored as two uint16 in data.
func pair(data []uint16, off int) int {
	return int(data[off]) | int(data[off+1])<<16
}

// StateSlot is the dense accessor for per-state data.
func (t *ParseTable) StateSlot(state, slot int) int {
	return int(t.States[state*StateSize+slot])
}

// StateFlag queries a bit of a state's flags slot.
func (t *ParseTable) StateFlag(state, flag int) bool {
	return t.StateSlot(state, SlotFlags)&flag != 0
}

// HasAction returns the action for terminal in state, searching both the
// action list and the skip list, or 0 when none exists. An entry for
// TermErr acts as a wildcard.
func (t *ParseTable) HasAction(state, terminal int) int {
	for set := 0; set < 2; set++ {
		slot := SlotActions
		if set == 1 {
			slot = SlotSkip
		}
		for i := t.StateSlot(state, slot); ; i += 3 {
			next := int(t.Data[i])
			if next == SeqEnd {
				break
			}
			if next == terminal || next == TermErr {
				return pair(t.Data, i+1)
			}
		}
	}
	return 0
}

// ValidAction reports whether action is listed for state.
func (t *ParseTable) ValidAction(state, action int) bool {
	return t.AllActions(state, func(a int) bool { return a == action })
}

// AllActions calls fn for every action available in state, including the
// default reduction, until fn returns true. It reports whether fn did.
func (t *ParseTable) AllActions(state int, fn func(action int) bool) bool {
	if deflt := t.StateSlot(state, SlotDefaultReduce); deflt != 0 && fn(deflt) {
		return true
	}
	for i := t.StateSlot(state, SlotActions); ; i += 3 {
		if int(t.Data[i]) == SeqEnd {
			break
		}
		if fn(pair(t.Data, i+1)) {
			return true
		}
	}
	return false
}

// NextState is a recovery candidate: shifting Term from some state leads
// to State.
type NextState struct {
	Term  int
	State int
}

// NextStates lists the distinct shift targets reachable from state,
// paired with the terminal that reaches them. Used by error recovery.
func (t *ParseTable) NextStates(state int) []NextState {
	var result []NextState
	for i := t.StateSlot(state, SlotActions); ; i += 3 {
		if int(t.Data[i]) == SeqEnd {
			break
		}
		if int(t.Data[i+2])&(ReduceFlag>>16) != 0 {
			continue
		}
		target := pair(t.Data, i+1)
		if target&(GotoFlag|StayFlag) != 0 {
			continue
		}
		seen := false
		for _, n := range result {
			if n.State == target {
				seen = true
				break
			}
		}
		if !seen {
			result = append(result, NextState{Term: int(t.Data[i]), State: target})
		}
	}
	return result
}

// Goto returns the goto target for (state, term), or -1 when there is none.
// With loose set, the last group of the term's list acts as a fallback that
// matches any state.
func (t *ParseTable) Goto(state, term int, loose bool) int {
	table := t.Gotos
	if term >= int(table[0]) {
		return -1
	}
	pos := int(table[term+1])
	if pos == 0 {
		return -1
	}
	for {
		groupTag := int(table[pos])
		pos++
		last := groupTag&1 != 0
		target := int(table[pos])
		pos++
		if last && loose {
			return target
		}
		for end := pos + groupTag>>1; pos < end; pos++ {
			if int(table[pos]) == state {
				return target
			}
		}
		if last {
			return -1
		}
	}
}

// DynamicPrecedence returns the dynamic precedence registered for term,
// or 0.
func (t *ParseTable) DynamicPrecedence(term int) int {
	if t.DynPrec == nil {
		return 0
	}
	return t.DynPrec[term]
}

// Overrides reports whether a newly recognized token term takes precedence
// over a previously recognized one at the same position.
func (t *ParseTable) Overrides(token, prev int) bool {
	iPrev := findPrecOffset(t.TokenPrec, prev)
	return iPrev < 0 || findPrecOffset(t.TokenPrec, token) < iPrev
}

func findPrecOffset(data []uint16, term int) int {
	for i := 0; i < len(data) && int(data[i]) != SeqEnd; i++ {
		if int(data[i]) == term {
			return i
		}
	}
	return -1
}

// --- Dialects ---------------------------------------------------------

// Dialect captures a selection of grammar dialects: per-dialect enable
// flags plus the set of terms the selection disables.
type Dialect struct {
	// Flags records, per dialect id, whether the dialect is enabled.
	Flags []bool

	disabled []byte
}

// NewDialect creates a dialect selection. disabledTerms lists the terms not
// allowed under the selection; maxTerm bounds the term space.
func NewDialect(flags []bool, disabledTerms []int, maxTerm int) Dialect {
	d := Dialect{Flags: flags}
	if len(disabledTerms) > 0 {
		d.disabled = make([]byte, maxTerm+1)
		for _, term := range disabledTerms {
			if term >= 0 && term <= maxTerm {
				d.disabled[term] = 1
			}
		}
	}
	return d
}

// Allows reports whether the dialect selection permits term.
func (d Dialect) Allows(term int) bool {
	return len(d.disabled) == 0 || term >= len(d.disabled) || d.disabled[term] == 0
}
