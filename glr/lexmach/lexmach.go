/*
Package lexmach adapts lexmachine as an external tokenizer for the parse
engine. Grammars whose tokens are conveniently described by regular
expressions can use a compiled lexmachine DFA instead of (or alongside)
the packed token groups of a parse table.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package lexmach

import (
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/npillmayer/inklr/glr"
)

// tracer traces with key 'inklr.glr'.
func tracer() tracing.Trace {
	return tracing.Select("inklr.glr")
}

// LMAdapter wraps a compiled lexmachine lexer.
type LMAdapter struct {
	Lexer *lexmachine.Lexer
}

// NewLMAdapter creates a new lexmachine adapter. It receives a list of
// literals ('[', ';', …), a list of keywords ("if", "for", …) and a
// map for translating token strings to their term ids. init may add
// further patterns to the lexer before it is compiled.
//
// NewLMAdapter will return an error if compiling the DFA failed.
func NewLMAdapter(init func(*lexmachine.Lexer), literals []string, keywords []string, tokenIds map[string]int) (*LMAdapter, error) {
	adapter := &LMAdapter{}
	adapter.Lexer = lexmachine.NewLexer()
	if init != nil {
		init(adapter.Lexer)
	}
	for _, lit := range literals {
		r := "\\" + strings.Join(strings.Split(lit, ""), "\\")
		adapter.Lexer.Add([]byte(r), MakeToken(lit, tokenIds[lit]))
	}
	for _, name := range keywords {
		adapter.Lexer.Add([]byte(strings.ToLower(name)), MakeToken(name, tokenIds[name]))
	}
	if err := adapter.Lexer.Compile(); err != nil {
		tracer().Errorf("Error compiling DFA: %v", err)
		return nil, err
	}
	return adapter, nil
}

// Tokenizer wraps the adapter as an external tokenizer. Each call matches
// one token at the stream's position; a match not starting exactly there
// is treated as no match, leaving recovery to the engine.
func (lm *LMAdapter) Tokenizer(opts ...glr.ExtOption) *glr.ExternalTokenizer {
	return glr.NewExternalTokenizer(func(input *glr.InputStream, stack *glr.Stack) {
		start := input.Pos()
		text := input.Read(start, input.End)
		if text == "" {
			return
		}
		s, err := lm.Lexer.Scanner([]byte(text))
		if err != nil {
			tracer().Errorf("scanner error: %v", err)
			return
		}
		tok, err, eof := s.Next()
		if eof {
			return
		}
		if err != nil {
			if _, is := err.(*machines.UnconsumedInput); !is {
				tracer().Errorf("scanner error: %v", err)
			}
			return
		}
		token, ok := tok.(*lexmachine.Token)
		if !ok || token.TC != 0 {
			return
		}
		// Advance through the stream so that gaps are accounted for.
		for i := 0; i < len(token.Lexeme); i++ {
			input.Advance()
		}
		input.AcceptToken(token.Type)
	}, opts...)
}

// Skip is a pre-defined action which ignores the scanned match.
func Skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// MakeToken is a pre-defined action which wraps a scanned match into a token.
func MakeToken(name string, id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}
