package glr

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/npillmayer/inklr"
)

// --- Tokens -----------------------------------------------------------

// Token is the mutable record a tokenizer fills in. Value is -1 while no
// token has been recognized. LookAhead records the farthest input position
// examined while recognizing the token; incremental reparses use it to
// decide when an edit invalidates the token.
type Token struct {
	Start     int
	End       int
	Value     int
	LookAhead int
}

// CachedToken is a Token plus the keys under which its value may be reused
// between stacks: the tokenizer mask and context hash current when it was
// read.
type CachedToken struct {
	Token
	Mask    int
	Context int
}

func newCachedToken() *CachedToken {
	return &CachedToken{Token: Token{Value: -1}, Mask: -1}
}

// --- InputStream ------------------------------------------------------

// InputStream is the engine's cursor over an Input. It caches one chunk at
// a time, so tokenizers reading sequentially touch the Input only at chunk
// boundaries. An optional sorted list of gaps is skipped transparently: the
// stream never positions itself inside a gap, and Read omits gap content.
type InputStream struct {
	// Next is the code unit at the current position, or -1 at the end of
	// the input.
	Next int
	// End is the document length.
	End int

	input    inklr.Input
	gaps     []inklr.Gap
	chunk    string
	chunkPos int // absolute position of chunk[0]
	token    *Token
	pos      int
}

func newInputStream(input inklr.Input, gaps []inklr.Gap) *InputStream {
	in := &InputStream{
		input: input,
		End:   input.Length(),
		Next:  -1,
		gaps:  slices.Clone(gaps),
	}
	slices.SortFunc(in.gaps, func(a, b inklr.Gap) int { return a.From - b.From })
	in.pos = in.clipPos(0)
	in.readNext()
	return in
}

// Pos returns the current absolute position.
func (in *InputStream) Pos() int { return in.pos }

// clipPos moves a position out of any gap it falls into, and clamps it to
// the document length.
func (in *InputStream) clipPos(pos int) int {
	for _, g := range in.gaps {
		if pos < g.From {
			break
		}
		if pos < g.To {
			pos = g.To
		}
	}
	if pos > in.End {
		return in.End
	}
	return pos
}

// getChunk pulls the chunk containing pos from the Input, clipped at the
// next gap so that the cached chunk never covers gap content.
func (in *InputStream) getChunk(pos int) {
	raw := in.input.Chunk(pos)
	for _, g := range in.gaps {
		if g.From > pos {
			if max := g.From - pos; len(raw) > max {
				raw = raw[:max]
			}
			break
		}
	}
	in.chunk = raw
	in.chunkPos = pos
}

// readNext refreshes Next from the current position, refilling the chunk
// cache when the position left it.
func (in *InputStream) readNext() int {
	in.pos = in.clipPos(in.pos)
	if in.pos >= in.End {
		in.Next = -1
		return -1
	}
	if in.pos < in.chunkPos || in.pos >= in.chunkPos+len(in.chunk) {
		in.getChunk(in.pos)
	}
	in.Next = int(in.chunk[in.pos-in.chunkPos])
	if in.token != nil && in.pos+1 > in.token.LookAhead {
		in.token.LookAhead = in.pos + 1
	}
	return in.Next
}

// Advance consumes one code unit. It reports false at the end of the input.
func (in *InputStream) Advance() bool {
	if in.Next < 0 {
		return false
	}
	in.pos = in.clipPos(in.pos + 1)
	in.readNext()
	return true
}

// Prev returns the code unit just before the current position, skipping
// backwards over gaps, or -1 at the start of the input. The read may cross
// into a chunk that is no longer cached.
func (in *InputStream) Prev() int {
	p := in.pos - 1
	for i := len(in.gaps) - 1; i >= 0; i-- {
		g := in.gaps[i]
		if p >= g.To {
			break
		}
		if p >= g.From {
			p = g.From - 1
		}
	}
	if p < 0 {
		return -1
	}
	if p >= in.chunkPos && p < in.chunkPos+len(in.chunk) {
		return int(in.chunk[p-in.chunkPos])
	}
	s := in.Read(p, p+1)
	if s == "" {
		return -1
	}
	return int(s[0])
}

// Read returns the input between from and to with gap content removed. It
// does not disturb the stream's position or chunk cache.
func (in *InputStream) Read(from, to int) string {
	if to > in.End {
		to = in.End
	}
	var b strings.Builder
	pos := in.clipPos(from)
	for pos < to {
		end := to
		for _, g := range in.gaps {
			if g.From > pos {
				if g.From < end {
					end = g.From
				}
				break
			}
		}
		chunk := in.input.Chunk(pos)
		n := end - pos
		if n > len(chunk) {
			n = len(chunk)
		}
		if n <= 0 {
			break
		}
		b.WriteString(chunk[:n])
		pos = in.clipPos(pos + n)
	}
	return b.String()
}

// Reset repositions the stream and points it at a token record to fill.
// The token's start is set to the (gap-clipped) position and its value
// cleared.
func (in *InputStream) Reset(pos int, token *Token) *InputStream {
	in.token = token
	in.pos = in.clipPos(pos)
	if token != nil {
		token.Start = in.pos
		token.End = in.pos
		token.Value = -1
		token.LookAhead = in.pos + 1
	}
	in.readNext()
	return in
}

// AcceptToken marks the current token as having value term, ending at the
// current position.
func (in *InputStream) AcceptToken(term int) {
	in.token.Value = term
	in.token.End = in.pos
}

// AcceptTokenAt marks the current token as having value term with an
// explicit end position, for tokenizers that look ahead beyond the token.
func (in *InputStream) AcceptTokenAt(term, end int) {
	in.token.Value = term
	in.token.End = end
}

// Gaps exposes the stream's sorted gap list.
func (in *InputStream) Gaps() []inklr.Gap { return in.gaps }
