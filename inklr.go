package inklr

import "fmt"

// --- Input -----------------------------------------------------------------

// Input is the engine's view onto a source document. The parse engine never
// holds the complete text; it pulls chunks lazily while tokenizing. Chunks
// may be of any non-zero size and may differ between calls, but a chunk
// returned for a position must always start exactly at that position.
type Input interface {
	// Length returns the total length of the document, in code units.
	Length() int
	// Chunk returns a non-empty chunk of text starting at pos. It is only
	// called with 0 <= pos < Length().
	Chunk(pos int) string
}

// StringInput is the trivial Input over an in-memory string.
type StringInput string

// NewStringInput wraps a string as an Input.
func NewStringInput(s string) StringInput { return StringInput(s) }

// Length is part of the Input interface.
func (s StringInput) Length() int { return len(s) }

// Chunk is part of the Input interface. It returns the complete remainder
// of the string.
func (s StringInput) Chunk(pos int) string { return string(s)[pos:] }

// --- Spans ------------------------------------------------------------

// Span is a small type for capturing a length of input. For every terminal
// and non-terminal, a parse tree will track which input positions this
// symbol covers. A span denotes a start position and the position just
// behind the end.
type Span [2]int // (x…y)

// From returns the start value of a span.
func (s Span) From() int {
	return s[0]
}

// To returns the end value of a span.
func (s Span) To() int {
	return s[1]
}

// Len returns the length of (x…y)
func (s Span) Len() int {
	return s[1] - s[0]
}

func (s Span) IsNull() bool {
	return s == Span{}
}

func (s Span) Extend(other Span) Span {
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}

// --- Gaps -------------------------------------------------------------

// A Gap is a half-open interval [From,To) of the input which the engine
// treats as if it were not part of the document. Tokenizers never see the
// gap's content; tree nodes spanning a gap receive a placeholder child
// covering it.
type Gap struct {
	From int
	To   int
}

func (g Gap) String() string {
	return fmt.Sprintf("[%d,%d)", g.From, g.To)
}
