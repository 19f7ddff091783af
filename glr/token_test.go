package glr

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/inklr"
	"github.com/npillmayer/inklr/lr"
	"github.com/npillmayer/inklr/tree"
)

// chunkedInput hands out fixed-size chunks, exercising the stream's chunk
// cache.
type chunkedInput struct {
	text string
	size int
}

func (c chunkedInput) Length() int { return len(c.text) }

func (c chunkedInput) Chunk(pos int) string {
	end := pos + c.size
	if end > len(c.text) {
		end = len(c.text)
	}
	return c.text[pos:end]
}

func TestStreamAdvance(t *testing.T) {
	in := newInputStream(chunkedInput{text: "hello world", size: 3}, nil)
	var got []byte
	for in.Next >= 0 {
		got = append(got, byte(in.Next))
		in.Advance()
	}
	if string(got) != "hello world" {
		t.Errorf("streamed %q, expected the complete input", got)
	}
	if in.Advance() {
		t.Errorf("advance at end of input must report false")
	}
}

func TestStreamGaps(t *testing.T) {
	in := newInputStream(chunkedInput{text: "abcdef", size: 2},
		[]inklr.Gap{{From: 2, To: 4}})
	var got []byte
	for in.Next >= 0 {
		got = append(got, byte(in.Next))
		in.Advance()
	}
	if string(got) != "abef" {
		t.Errorf("streamed %q, expected gap content to be skipped", got)
	}
	if s := in.Read(0, 6); s != "abef" {
		t.Errorf("read %q, expected gap removal", s)
	}
	if s := in.Read(1, 5); s != "be" {
		t.Errorf("read %q, expected \"be\"", s)
	}
}

func TestStreamResetIntoGap(t *testing.T) {
	in := newInputStream(inklr.NewStringInput("abcdef"), []inklr.Gap{{From: 2, To: 4}})
	var tok Token
	in.Reset(2, &tok)
	if in.Pos() != 4 {
		t.Errorf("pos = %d, expected to be clipped to gap end 4", in.Pos())
	}
	if tok.Start != 4 || tok.Value != -1 {
		t.Errorf("token not reinitialized: %+v", tok)
	}
	if in.Next != 'e' {
		t.Errorf("next = %q, expected 'e'", rune(in.Next))
	}
}

func TestStreamPrev(t *testing.T) {
	in := newInputStream(chunkedInput{text: "abcdef", size: 2}, []inklr.Gap{{From: 2, To: 4}})
	in.Reset(4, nil)
	if p := in.Prev(); p != 'b' {
		t.Errorf("prev across gap = %q, expected 'b'", rune(p))
	}
	in.Reset(0, nil)
	if p := in.Prev(); p != -1 {
		t.Errorf("prev at start = %d, expected -1", p)
	}
}

func TestStreamLookAhead(t *testing.T) {
	in := newInputStream(inklr.NewStringInput("abcdef"), nil)
	var tok Token
	in.Reset(0, &tok)
	in.Advance()
	in.Advance()
	if tok.LookAhead != 3 {
		t.Errorf("lookAhead = %d, expected 3 after peeking position 2", tok.LookAhead)
	}
	in.AcceptToken(9)
	if tok.Value != 9 || tok.End != 2 {
		t.Errorf("acceptToken filled %+v", tok)
	}
}

// twoGroupTable sets up a tokenizer DFA with separate groups for digits
// (group 0) and letters (group 1).
func twoGroupTable(t *testing.T) *lr.ParseTable {
	t.Helper()
	const (
		tNum    = 1
		tLetter = 2
	)
	b := lr.NewTableBuilder()
	b.MaxNode = 2
	b.MinRepeatTerm = 3
	b.EOFTerm = 4
	b.MaxTerm = 4
	b.NodeSet = tree.NewNodeSet([]tree.NodeType{
		{Name: "⚠", ID: 0, Flags: tree.FlagError},
		{Name: "Num", ID: 1},
		{Name: "Letter", ID: 2, Flags: tree.FlagTop},
	})
	b.NewState(lr.FlagAccepting)
	dfa := lr.NewDFABuilder(2)
	d0 := dfa.NewState(3) // both groups start here
	dNum := dfa.NewState(1)
	dLet := dfa.NewState(2)
	dfa.Edge(d0, '0', '9'+1, dNum)
	dfa.Edge(d0, 'a', 'z'+1, dLet)
	dfa.Accept(dNum, tNum, 1)
	dfa.Edge(dNum, '0', '9'+1, dNum)
	dfa.Accept(dLet, tLetter, 2)
	dfa.Edge(dLet, 'a', 'z'+1, dLet)
	b.SetTokenizer(dfa)
	table, err := b.Table()
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return table
}

func TestTokenGroupRecognizes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	table := twoGroupTable(t)
	run := NewParser(table).StartParse(inklr.NewStringInput("1234x"))
	stack := run.stacks[0]
	var tok Token
	g := TokenGroup{Data: table.TokenData, ID: 0}
	g.Token(run.stream.Reset(0, &tok), stack)
	if tok.Value != 1 || tok.Start != 0 || tok.End != 4 {
		t.Errorf("token = %+v, expected Num over [0,4)", tok)
	}
}

func TestTokenGroupMaskIndependence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	table := twoGroupTable(t)
	run := NewParser(table).StartParse(inklr.NewStringInput("abc"))
	stack := run.stacks[0]
	var tok Token
	// group 0 must not see the letter token, whose accept state only
	// carries group 1's mask
	g0 := TokenGroup{Data: table.TokenData, ID: 0}
	g0.Token(run.stream.Reset(0, &tok), stack)
	if tok.Value != -1 {
		t.Errorf("group 0 recognized %d, expected nothing", tok.Value)
	}
	g1 := TokenGroup{Data: table.TokenData, ID: 1}
	g1.Token(run.stream.Reset(0, &tok), stack)
	if tok.Value != 2 || tok.End != 3 {
		t.Errorf("token = %+v, expected Letter over [0,3)", tok)
	}
}

func TestTokenPrecedenceOverride(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	const (
		tIdent   = 1
		tKeyword = 2
	)
	b := lr.NewTableBuilder()
	b.MaxNode = 2
	b.MinRepeatTerm = 3
	b.EOFTerm = 4
	b.MaxTerm = 4
	b.TokenPrec = []int{tKeyword, tIdent} // keyword wins
	b.NodeSet = tree.NewNodeSet([]tree.NodeType{
		{Name: "⚠", ID: 0, Flags: tree.FlagError},
		{Name: "Ident", ID: 1, Flags: tree.FlagTop},
		{Name: "Keyword", ID: 2},
	})
	b.NewState(lr.FlagAccepting)
	dfa := lr.NewDFABuilder(1)
	d0 := dfa.NewState(1)
	dI := dfa.NewState(1) // "i"
	dIf := dfa.NewState(1)
	dfa.Edge(d0, 'i', 'i'+1, dI)
	dfa.Accept(dI, tIdent, 1)
	dfa.Edge(dI, 'f', 'f'+1, dIf)
	dfa.Accept(dIf, tKeyword, 1)
	b.SetTokenizer(dfa)
	table, err := b.Table()
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	run := NewParser(table).StartParse(inklr.NewStringInput("if"))
	stack := run.stacks[0]
	var tok Token
	g := TokenGroup{Data: table.TokenData, ID: 0}
	g.Token(run.stream.Reset(0, &tok), stack)
	if tok.Value != tKeyword || tok.End != 2 {
		t.Errorf("token = %+v, expected the keyword to override the identifier", tok)
	}
}

func TestExternalTokenizerFlags(t *testing.T) {
	ext := NewExternalTokenizer(func(*InputStream, *Stack) {},
		AsContextual(true), AsFallback(true), AsExtender(true))
	if !ext.Contextual() || !ext.Fallback() || !ext.Extend() {
		t.Errorf("options not applied")
	}
}
