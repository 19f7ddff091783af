package lr

// The engine interprets bit-packed action values. The layout below is a
// table-format contract: pre-compiled tables encode actions this way, and
// any change here invalidates every existing table.
//
// A shift action carries the target state in its low 16 bits. A reduce
// action has ReduceFlag set, the production's term in the low bits and its
// depth above ReduceDepthShift.
const (
	// ValueMask extracts the term or state payload of an action.
	ValueMask = (1 << 16) - 1
	// ReduceFlag distinguishes reduce actions from shift actions.
	ReduceFlag = 1 << 16
	// GotoFlag marks a shift action as a non-consuming state change.
	// It shares its bit with RepeatFlag; ReduceFlag disambiguates.
	GotoFlag = 1 << 17
	// RepeatFlag marks a reduce action for a repetition term.
	RepeatFlag = 1 << 17
	// StayFlag on a shift marks a skipped-token shift that keeps the
	// current state; on a reduce it selects the stored frame state instead
	// of a goto lookup.
	StayFlag = 1 << 18
	// ReduceDepthShift positions the depth of a reduce action.
	ReduceDepthShift = 19
)

// Reduce composes a reduce action for term with the given depth.
func Reduce(term, depth int) int {
	return ReduceFlag | term | depth<<ReduceDepthShift
}

// ReduceDepth extracts the depth of a reduce action.
func ReduceDepth(action int) int { return action >> ReduceDepthShift }

// ReduceTerm extracts the term of a reduce action.
func ReduceTerm(action int) int { return action & ValueMask }

// Per-state slots in a table's state records.
const (
	// SlotFlags holds the StateFlag bits.
	SlotFlags = iota
	// SlotActions is the offset of the state's action list in Data.
	SlotActions
	// SlotSkip is the offset of the state's skip-action list in Data.
	SlotSkip
	// SlotTokenizerMask selects the tokenizers applicable in the state.
	SlotTokenizerMask
	// SlotDefaultReduce holds a reduction taken without consulting the
	// input, or 0.
	SlotDefaultReduce
	// SlotForcedReduce holds the reduction used to force progress during
	// error recovery.
	SlotForcedReduce
	// StateSize is the number of slots per state record.
	StateSize
)

// StateFlag bits stored in SlotFlags.
const (
	// FlagSkipped marks states reached by shifting skipped tokens; they do
	// not advance reduction boundaries.
	FlagSkipped = 1 << iota
	// FlagAccepting marks accepting states.
	FlagAccepting
)

// SeqEnd terminates action and edge sequences in a table's Data array.
const SeqEnd = 0xffff

// TermErr is the term id of the error node type.
const TermErr = 0
