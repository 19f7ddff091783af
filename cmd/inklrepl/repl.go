package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"github.com/npillmayer/inklr"
	"github.com/npillmayer/inklr/glr"
	"github.com/npillmayer/inklr/lr"
	"github.com/npillmayer/inklr/tree"
)

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

// Term ids of the demo expression grammar.
//
//	Expr ➞ Expr + Term  |  Term
//	Term ➞ Term * number  |  number
const (
	tErr = iota
	tNumber
	tPlus
	tStar
	tWhitespace
	tTerm
	tExpr
	tPlaceHolder
	tTop
	minRepeat // 9
	tEOF      // 10
)

// makeExprTable hand-encodes the LR(1) states for the demo grammar. A
// generated table would look the same; the builder only packs what it is
// given.
func makeExprTable() *lr.ParseTable {
	b := lr.NewTableBuilder()
	b.MinRepeatTerm = minRepeat
	b.MaxTerm = tEOF
	b.MaxNode = tTop
	b.EOFTerm = tEOF
	b.PlaceHolder = tPlaceHolder
	b.NodeSet = tree.NewNodeSet([]tree.NodeType{
		{Name: "⚠", ID: tErr, Flags: tree.FlagError},
		{Name: "Number", ID: tNumber},
		{Name: "+", ID: tPlus, Flags: tree.FlagAnonymous},
		{Name: "*", ID: tStar, Flags: tree.FlagAnonymous},
		{Name: "Whitespace", ID: tWhitespace, Flags: tree.FlagSkipped},
		{Name: "Term", ID: tTerm},
		{Name: "Expr", ID: tExpr},
		{Name: "PlaceHolder", ID: tPlaceHolder, Flags: tree.FlagSkipped},
		{Name: "Demo", ID: tTop, Flags: tree.FlagTop},
	})

	s0 := b.NewState(0)
	s1 := b.NewState(lr.FlagAccepting)
	s2 := b.NewState(0)
	s3 := b.NewState(0)
	s4 := b.NewState(0)
	s5 := b.NewState(0)
	s6 := b.NewState(0)
	s7 := b.NewState(0)

	reduceExpr1 := lr.Reduce(tExpr, 1)
	reduceExpr3 := lr.Reduce(tExpr, 3)
	reduceTerm1 := lr.Reduce(tTerm, 1)
	reduceTerm3 := lr.Reduce(tTerm, 3)

	b.Action(s0, tNumber, s3)
	b.Action(s1, tPlus, s4)
	b.Action(s2, tStar, s5)
	b.Action(s2, tPlus, reduceExpr1)
	b.Action(s2, tEOF, reduceExpr1)
	b.Action(s3, tPlus, reduceTerm1)
	b.Action(s3, tStar, reduceTerm1)
	b.Action(s3, tEOF, reduceTerm1)
	b.Action(s4, tNumber, s3)
	b.Action(s5, tNumber, s6)
	b.Action(s6, tPlus, reduceTerm3)
	b.Action(s6, tStar, reduceTerm3)
	b.Action(s6, tEOF, reduceTerm3)
	b.Action(s7, tStar, s5)
	b.Action(s7, tPlus, reduceExpr3)
	b.Action(s7, tEOF, reduceExpr3)

	for _, s := range []int{s0, s1, s2, s3, s4, s5, s6, s7} {
		b.SkipAction(s, tWhitespace, lr.StayFlag)
		b.SetTokenizerMask(s, 1)
	}
	b.SetForcedReduce(s2, reduceExpr1)
	b.SetForcedReduce(s3, reduceTerm1)
	b.SetForcedReduce(s4, lr.Reduce(tExpr, 2))
	b.SetForcedReduce(s5, lr.Reduce(tTerm, 2))
	b.SetForcedReduce(s6, reduceTerm3)
	b.SetForcedReduce(s7, reduceExpr3)

	b.AddGoto(s0, tExpr, s1)
	b.AddGoto(s0, tTerm, s2)
	b.AddGoto(s4, tTerm, s7)

	dfa := lr.NewDFABuilder(1)
	d0 := dfa.NewState(1)
	dNum := dfa.NewState(1)
	dPlus := dfa.NewState(1)
	dStar := dfa.NewState(1)
	dWs := dfa.NewState(1)
	dfa.Edge(d0, '0', '9'+1, dNum)
	dfa.Edge(d0, '+', '+'+1, dPlus)
	dfa.Edge(d0, '*', '*'+1, dStar)
	dfa.Edge(d0, ' ', ' '+1, dWs)
	dfa.Edge(d0, '\t', '\t'+1, dWs)
	dfa.Accept(dNum, tNumber, 1)
	dfa.Edge(dNum, '0', '9'+1, dNum)
	dfa.Accept(dPlus, tPlus, 1)
	dfa.Accept(dStar, tStar, 1)
	dfa.Accept(dWs, tWhitespace, 1)
	dfa.Edge(dWs, ' ', ' '+1, dWs)
	dfa.Edge(dWs, '\t', '\t'+1, dWs)
	b.SetTokenizer(dfa)

	table, err := b.Table()
	if err != nil {
		panic(fmt.Errorf("error building demo table: %s", err.Error()))
	}
	return table
}

// main starts an interactive CLI where users may enter arithmetic
// expressions. Each input line is parsed with the demo grammar and the
// resulting syntax tree printed, error nodes included — a sandbox for
// experiments with the parse engine and its error recovery.
func main() {
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	flag.Parse()
	tracing.Select("inklr.glr").SetTraceLevel(tracing.TraceLevelFromString(*tlevel))
	pterm.Info.Println("Welcome to the inklr REPL")
	parser := glr.NewParser(makeExprTable())
	input := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if input != "" {
		parseAndPrint(parser, input)
	}
	repl, err := readline.New("inklr> ")
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(3)
	}
	pterm.Info.Println("Quit with <ctrl>D")
	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		parseAndPrint(parser, line)
	}
	println("Good bye!")
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func parseAndPrint(parser *glr.Parser, line string) {
	t := parser.Parse(inklr.NewStringInput(line))
	ll := leveledTree(t, line, pterm.LeveledList{}, 0)
	root := pterm.NewTreeFromLeveledList(ll)
	pterm.DefaultTree.WithRoot(root).Render()
}

// leveledTree flattens a syntax tree into pterm's leveled-list format.
func leveledTree(t *tree.Tree, line string, ll pterm.LeveledList, level int) pterm.LeveledList {
	text := t.Type.String()
	if len(t.Children) == 0 && t.From < t.To && t.To <= len(line) {
		text = fmt.Sprintf("%s %q", text, line[t.From:t.To])
	}
	ll = append(ll, pterm.LeveledListItem{Level: level, Text: text})
	for _, c := range t.Children {
		ll = leveledTree(c, line, ll, level+1)
	}
	return ll
}
