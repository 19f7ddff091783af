package glr

// Tokenizer reads one token from the input stream. The engine runs a
// cascade of tokenizers per state, selected by the state's tokenizer mask.
type Tokenizer interface {
	// Token tries to recognize a token at the stream's position, calling
	// AcceptToken on success. The stack is available for contextual
	// decisions; tokenizers must not mutate it.
	Token(input *InputStream, stack *Stack)
	// Contextual tokenizers depend on the stack, so their results are not
	// cached across stacks.
	Contextual() bool
	// Fallback tokenizers run only when a higher-precedence tokenizer
	// produced a token that the current state does not accept.
	Fallback() bool
	// Extend tokenizers do not stop the cascade after emitting a token.
	Extend() bool
}

// TokenGroup recognizes tokens by walking a packed DFA. The data is laid
// out per state as
//
//	[groupMask, accEnd, edgeCount, (termId, termGroupMask)…, (fromLo, fromHi, target)…]
//
// where accEnd is the absolute offset just behind the accept pairs, edges
// cover half-open code-unit ranges [fromLo,fromHi) sorted by fromLo, and
// edge targets are absolute state offsets.
type TokenGroup struct {
	Data []uint16
	ID   int
}

// Token is part of the Tokenizer interface.
func (g TokenGroup) Token(input *InputStream, stack *Stack) {
	readToken(g.Data, input, stack, g.ID)
}

// Contextual is part of the Tokenizer interface; group DFAs never are.
func (g TokenGroup) Contextual() bool { return false }

// Fallback is part of the Tokenizer interface.
func (g TokenGroup) Fallback() bool { return false }

// Extend is part of the Tokenizer interface.
func (g TokenGroup) Extend() bool { return false }

// readToken walks the DFA for one token group. States unreachable for the
// active group mask are never entered, so the token found for a given
// prefix is independent of them.
func readToken(data []uint16, input *InputStream, stack *Stack, group int) {
	state := 0
	groupMask := 1 << group
	parser := stack.p.parser
scan:
	for {
		if int(data[state])&groupMask == 0 {
			break
		}
		accEnd := int(data[state+1])
		// Accept a token in this state, possibly overriding a shorter or
		// lower-precedence one. At most one accept applies per state.
		for i := state + 3; i < accEnd; i += 2 {
			if int(data[i+1])&groupMask == 0 {
				continue
			}
			term := int(data[i])
			if !parser.Dialect.Allows(term) {
				continue
			}
			if input.token.Value == -1 || input.token.Value == term ||
				parser.Table.Overrides(term, input.token.Value) {
				input.AcceptToken(term)
				break
			}
		}
		next := input.Next
		if next < 0 {
			break
		}
		// Binary search the outgoing edges.
		lo, hi := 0, int(data[state+2])
		for lo < hi {
			mid := (lo + hi) >> 1
			index := accEnd + 3*mid
			from, to := int(data[index]), int(data[index+1])
			if next < from {
				hi = mid
			} else if next >= to {
				lo = mid + 1
			} else {
				state = int(data[index+2])
				input.Advance()
				continue scan
			}
		}
		break
	}
}

// ExternalTokenizer wraps a user-supplied recognition function. Flags are
// configured through options:
//
//	ext := glr.NewExternalTokenizer(readString, glr.AsContextual(true))
type ExternalTokenizer struct {
	fn         func(input *InputStream, stack *Stack)
	contextual bool
	fallback   bool
	extend     bool
}

// ExtOption configures an ExternalTokenizer.
type ExtOption func(*ExternalTokenizer)

// AsContextual marks the tokenizer as depending on parse context.
func AsContextual(b bool) ExtOption {
	return func(t *ExternalTokenizer) { t.contextual = b }
}

// AsFallback makes the tokenizer run only when preceding tokenizers
// produced no usable token.
func AsFallback(b bool) ExtOption {
	return func(t *ExternalTokenizer) { t.fallback = b }
}

// AsExtender keeps the cascade running after this tokenizer emits a token.
func AsExtender(b bool) ExtOption {
	return func(t *ExternalTokenizer) { t.extend = b }
}

// NewExternalTokenizer wraps fn as a Tokenizer.
func NewExternalTokenizer(fn func(input *InputStream, stack *Stack), opts ...ExtOption) *ExternalTokenizer {
	t := &ExternalTokenizer{fn: fn}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Token is part of the Tokenizer interface.
func (t *ExternalTokenizer) Token(input *InputStream, stack *Stack) { t.fn(input, stack) }

// Contextual is part of the Tokenizer interface.
func (t *ExternalTokenizer) Contextual() bool { return t.contextual }

// Fallback is part of the Tokenizer interface.
func (t *ExternalTokenizer) Fallback() bool { return t.fallback }

// Extend is part of the Tokenizer interface.
func (t *ExternalTokenizer) Extend() bool { return t.extend }
