/*
Package glr implements an incremental GLR-style LR(1) parse engine.

The engine drives pre-compiled parse tables (package lr) over a chunked
input stream and produces a compact flat tree buffer (consumed by package
tree). Ambiguity and error recovery are handled by splitting the parse
stack; split stacks share buffer history copy-on-split, so forking is
cheap and ancestor buffers stay immutable.

Scheduling is single-threaded and cooperative: the driver interleaves the
live stacks, but each shift or reduction is atomic and nothing blocks on
I/O — input chunks are pulled synchronously.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package glr

import (
	"sort"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/inklr"
	"github.com/npillmayer/inklr/lr"
	"github.com/npillmayer/inklr/tree"
)

// tracer traces with key 'inklr.glr'.
func tracer() tracing.Trace {
	return tracing.Select("inklr.glr")
}

// Driver tuning constants.
const (
	// recoverDistance is the number of steps the driver stays in recovery
	// mode after an error.
	recoverDistance = 5
	// maxRemainingPerStep bounds surviving stacks per remaining recovery
	// step.
	maxRemainingPerStep = 3
	// minBufferLengthPrune is the buffer size beyond which long-running
	// parallel stacks are pruned against each other.
	minBufferLengthPrune = 500
	// forceReduceLimit bounds forced reductions tried per recovery round.
	forceReduceLimit = 10
	// cutDepth/cutTo bound stack depth (in frame array entries): when a
	// stack reaches cutDepth, it is force-reduced back to cutTo.
	cutDepth = 15000
	cutTo    = 9000
	// maxStackCount caps concurrently live stacks outside recovery.
	maxStackCount = 12
)

// NestedFactory may provide a parser for nested content, given the range a
// nestable term covers. Returning nil declines.
type NestedFactory func(input inklr.Input, stack *Stack, from, to int) *Parser

// Parser bundles a parse table with the runtime collaborators the engine
// needs: tokenizers, an optional context tracker, dialect selection, and
// factories for nested parsing. A Parser is immutable and may be shared.
type Parser struct {
	Table      *lr.ParseTable
	Tokenizers []Tokenizer
	Context    *ContextTracker
	Dialect    lr.Dialect
	Nested     map[int]NestedFactory
}

// Option configures a Parser.
type Option func(*Parser)

// WithTokenizers replaces the parser's tokenizer cascade. The default
// cascade consists of the table's token groups.
func WithTokenizers(tokenizers ...Tokenizer) Option {
	return func(p *Parser) { p.Tokenizers = tokenizers }
}

// WithContext installs a context tracker.
func WithContext(cx *ContextTracker) Option {
	return func(p *Parser) { p.Context = cx }
}

// WithDialect selects grammar dialects.
func WithDialect(d lr.Dialect) Option {
	return func(p *Parser) { p.Dialect = d }
}

// WithNested registers nested-parser factories by term.
func WithNested(nested map[int]NestedFactory) Option {
	return func(p *Parser) { p.Nested = nested }
}

// NewParser creates a parser for a table.
func NewParser(table *lr.ParseTable, opts ...Option) *Parser {
	p := &Parser{Table: table}
	for i := 0; i < table.TokenGroupCount; i++ {
		p.Tokenizers = append(p.Tokenizers, TokenGroup{Data: table.TokenData, ID: i})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse runs a complete parse over input and returns the resulting tree.
// Parse errors never fail the parse; they surface as error nodes in the
// tree.
func (p *Parser) Parse(input inklr.Input, opts ...ParseOption) *tree.Tree {
	return p.StartParse(input, opts...).Run()
}

// --- Parse runtime ----------------------------------------------------

// ParseOption configures one parse run.
type ParseOption func(*parseConfig)

type parseConfig struct {
	gaps  []inklr.Gap
	state int
	pos   int
}

// WithGaps declares input intervals to parse around. Gap content is
// invisible to tokenizers; nodes spanning a gap receive a placeholder
// child.
func WithGaps(gaps ...inklr.Gap) ParseOption {
	return func(c *parseConfig) { c.gaps = gaps }
}

// WithStart overrides the parse's start state and position.
func WithStart(state, pos int) ParseOption {
	return func(c *parseConfig) { c.state = state; c.pos = pos }
}

// NestedNote records a nestable subrange observed during the parse,
// associated with the stack that produced it.
type NestedNote struct {
	Term int
	From int
	To   int
}

// Parse is the transient state of one parse run. It owns the shared reused
// and property tables, the input stream and the token cache; all live
// stacks of the run point back to it.
type Parse struct {
	parser     *Parser
	stream     *InputStream
	stacks     []*Stack
	tokens     *tokenCache
	reused     []*tree.Tree
	propValues []interface{}
	recovering int

	nextStackID uint32
	nested      map[uint32]NestedNote
}

// StartParse sets up a parse run over input.
func (p *Parser) StartParse(input inklr.Input, opts ...ParseOption) *Parse {
	config := parseConfig{state: p.Table.TopState}
	for _, opt := range opts {
		opt(&config)
	}
	run := &Parse{
		parser: p,
		stream: newInputStream(input, config.gaps),
	}
	run.tokens = newTokenCache(run)
	run.stacks = []*Stack{StartStack(run, config.state, config.pos)}
	return run
}

// Stream exposes the parse's input stream.
func (p *Parse) Stream() *InputStream { return p.stream }

// Reused exposes the shared reused-tree table.
func (p *Parse) Reused() []*tree.Tree { return p.reused }

func (p *Parse) newStackID() uint32 {
	id := p.nextStackID
	p.nextStackID++
	return id
}

// noteNesting records a nestable subrange for a stack. The association is
// keyed by the stack's identity and cleared when the driver retires the
// stack.
func (p *Parse) noteNesting(s *Stack, term, from, to int) {
	if p.nested == nil {
		p.nested = make(map[uint32]NestedNote)
	}
	p.nested[s.id] = NestedNote{Term: term, From: from, To: to}
}

// NestedNote returns the nesting candidate recorded for a stack, if any.
func (p *Parse) NestedNote(s *Stack) (NestedNote, bool) {
	note, ok := p.nested[s.id]
	return note, ok
}

// retire drops side-table entries of stacks that did not survive a step.
func (p *Parse) retire(old, kept []*Stack) {
	if p.nested == nil {
		return
	}
outer:
	for _, s := range old {
		for _, k := range kept {
			if k == s {
				continue outer
			}
		}
		delete(p.nested, s.id)
	}
}

// Run advances the parse to completion.
func (p *Parse) Run() *tree.Tree {
	for {
		if t := p.Advance(); t != nil {
			return t
		}
	}
}

// Advance moves every stack whose position is minimal forward, action by
// action, until it has consumed input beyond that position or can no longer
// act. It returns a tree when a stack accepted the whole input, and nil while
// the parse is unfinished.
func (p *Parse) Advance() *tree.Tree {
	stacks := p.stacks
	pos := p.minStackPos()
	var newStacks []*Stack
	var stopped []*Stack
	var stoppedTokens []int
	for i := 0; i < len(stacks); i++ {
		stack := stacks[i]
		for {
			p.tokens.mainToken = nil
			if stack.pos > pos {
				newStacks = append(newStacks, stack)
			} else if p.advanceStack(stack, &newStacks, &stacks) {
				continue
			} else {
				stopped = append(stopped, stack)
				tok := p.tokens.getMainToken(stack)
				stoppedTokens = append(stoppedTokens, tok.Value, tok.End)
			}
			break
		}
	}
	if len(newStacks) == 0 {
		if finished := p.findFinished(stopped); finished != nil {
			tracer().Debugf("stack %v accepted", finished)
			return p.stackToTree(finished)
		}
		if p.recovering == 0 {
			p.recovering = recoverDistance
			tracer().Infof("no stack can advance at %d, entering recovery", pos)
		}
	}
	if p.recovering > 0 && len(stopped) > 0 {
		if finished := p.runRecovery(stopped, stoppedTokens, &newStacks); finished != nil {
			return p.stackToTree(finished.ForceAll())
		}
	}
	if p.recovering > 0 {
		maxRemaining := maxRemainingPerStep * p.recovering
		if p.recovering == 1 {
			maxRemaining = 1
		}
		if len(newStacks) > maxRemaining {
			sort.SliceStable(newStacks, func(i, j int) bool {
				return newStacks[i].score > newStacks[j].score
			})
			newStacks = newStacks[:maxRemaining]
		}
		for _, s := range newStacks {
			if s.reducePos > pos {
				p.recovering--
				break
			}
		}
	} else if len(newStacks) > 1 {
		// Prune stacks that are in the same state, or that have been
		// running without splitting for a while.
	outer:
		for i := 0; i < len(newStacks)-1; i++ {
			stack := newStacks[i]
			for j := i + 1; j < len(newStacks); j++ {
				other := newStacks[j]
				if stack.SameState(other) ||
					len(stack.buffer) > minBufferLengthPrune &&
						len(other.buffer) > minBufferLengthPrune {
					better := stack.score - other.score
					if better == 0 {
						better = len(stack.buffer) - len(other.buffer)
					}
					if better > 0 {
						newStacks = append(newStacks[:j], newStacks[j+1:]...)
						j--
					} else {
						newStacks = append(newStacks[:i], newStacks[i+1:]...)
						i--
						continue outer
					}
				}
			}
		}
		if len(newStacks) > maxStackCount {
			newStacks = newStacks[:maxStackCount]
		}
	}
	if bl := p.parser.Table.BufferLength; bl > 0 {
		for _, s := range newStacks {
			if len(s.buffer) > bl {
				s.MaterializeTopNode()
			}
		}
	}
	p.retire(stacks, newStacks)
	p.stacks = newStacks
	if len(newStacks) == 0 {
		// Nothing left to pursue: report the best stopped stack with its
		// error nodes rather than none at all.
		best := bestOf(stopped)
		if best == nil {
			return &tree.Tree{Type: p.topType()}
		}
		return p.stackToTree(best.ForceAll())
	}
	return nil
}

func (p *Parse) minStackPos() int {
	pos := p.stacks[0].pos
	for _, s := range p.stacks[1:] {
		if s.pos < pos {
			pos = s.pos
		}
	}
	return pos
}

// advanceStack executes one action for stack. With newStacks set,
// conflicting actions fork the stack and the forks are scheduled; with
// newStacks nil only the first action applies. Reports whether any action
// was taken.
func (p *Parse) advanceStack(stack *Stack, newStacks *[]*Stack, split *[]*Stack) bool {
	start := stack.pos
	table := p.parser.Table
	if deflt := table.StateSlot(stack.state, lr.SlotDefaultReduce); deflt > 0 {
		stack.reduce(deflt)
		return true
	}
	if len(stack.frames) >= cutDepth {
		for len(stack.frames) > cutTo && stack.ForceReduce() {
		}
	}
	actions := p.tokens.getActions(stack)
	for i := 0; i < len(actions); {
		action, term, end := actions[i], actions[i+1], actions[i+2]
		i += 3
		last := i == len(actions) || newStacks == nil
		localStack := stack
		if !last {
			localStack = stack.Split()
		}
		mainStart := localStack.pos
		if m := p.tokens.mainToken; m != nil {
			mainStart = m.Start
		}
		localStack.Apply(action, term, mainStart, end)
		if last {
			return true
		}
		if localStack.pos > start {
			*newStacks = append(*newStacks, localStack)
		} else {
			*split = append(*split, localStack)
		}
	}
	return false
}

// advanceFully advances a stack until it consumed input, scheduling it in
// newStacks, or died.
func (p *Parse) advanceFully(stack *Stack, newStacks *[]*Stack) bool {
	pos := stack.pos
	for {
		if !p.advanceStack(stack, nil, nil) {
			return false
		}
		if stack.pos > pos {
			pushStackDedup(stack, newStacks)
			return true
		}
	}
}

// runRecovery applies the recovery strategies to every stopped stack:
// restarting dead ends, forced reductions, token insertion and token
// deletion. At the end of the input the best stack is returned as a
// best-effort result instead.
func (p *Parse) runRecovery(stacks []*Stack, tokens []int, newStacks *[]*Stack) *Stack {
	var finished *Stack
	restarted := false
	for i, stack := range stacks {
		token, tokenEnd := tokens[i*2], tokens[i*2+1]
		tracer().Debugf("recovering stack %v at token %d", stack, token)
		if stack.DeadEnd() {
			if restarted {
				continue
			}
			restarted = true
			stack.Restart()
			if p.advanceFully(stack, newStacks) {
				continue
			}
		}
		force := stack.Split()
		for j := 0; force.ForceReduce() && j < forceReduceLimit; j++ {
			if p.advanceFully(force, newStacks) {
				break
			}
		}
		for _, insert := range stack.RecoverByInsert(token) {
			p.advanceFully(insert, newStacks)
		}
		if p.stream.End > stack.pos {
			if tokenEnd == stack.pos {
				tokenEnd++
				token = lr.TermErr
			}
			stack.RecoverByDelete(token, tokenEnd)
			pushStackDedup(stack, newStacks)
		} else if finished == nil || finished.score < stack.score {
			finished = stack
		}
	}
	return finished
}

// pushStackDedup schedules a stack unless an interchangeable one is
// already scheduled, in which case the better-scored of the two survives.
func pushStackDedup(stack *Stack, newStacks *[]*Stack) {
	for i, other := range *newStacks {
		if other.pos == stack.pos && other.SameState(stack) {
			if other.score < stack.score {
				(*newStacks)[i] = stack
			}
			return
		}
	}
	*newStacks = append(*newStacks, stack)
}

// findFinished picks the best-scoring stack that accepted the complete
// input.
func (p *Parse) findFinished(stacks []*Stack) *Stack {
	var best *Stack
	for _, s := range stacks {
		if s.pos == p.stream.End && p.parser.Table.StateFlag(s.state, lr.FlagAccepting) &&
			(best == nil || best.score < s.score) {
			best = s
		}
	}
	return best
}

func bestOf(stacks []*Stack) *Stack {
	var best *Stack
	for _, s := range stacks {
		if best == nil || s.score > best.score {
			best = s
		}
	}
	return best
}

// stackToTree closes the stack and materializes its complete buffer.
func (p *Parse) stackToTree(stack *Stack) *tree.Tree {
	stack.Close()
	return tree.BuildAll(NewBufferCursor(stack), p.parser.Table.NodeSet,
		p.topType(), p.reused, p.propValues)
}

func (p *Parse) topType() tree.NodeType {
	set := p.parser.Table.NodeSet
	for _, t := range set.Types {
		if t.Flags&tree.FlagTop != 0 {
			return t
		}
	}
	return set.Types[0]
}

// --- Token cache ------------------------------------------------------

// tokenCache keeps one cached token per tokenizer, so that parallel stacks
// at the same position with the same tokenizer mask and context share the
// work of reading it.
type tokenCache struct {
	parse     *Parse
	tokens    []*CachedToken
	mainToken *CachedToken
	actions   []int // (action, term, end) triples
}

func newTokenCache(parse *Parse) *tokenCache {
	c := &tokenCache{parse: parse}
	for range parse.parser.Tokenizers {
		c.tokens = append(c.tokens, newCachedToken())
	}
	return c
}

// getActions collects the actions applicable for stack under the tokens
// the cascade produces at the stack's position.
func (c *tokenCache) getActions(stack *Stack) []int {
	actionIndex := 0
	var main *CachedToken
	parser := stack.p.parser
	mask := parser.Table.StateSlot(stack.state, lr.SlotTokenizerMask)
	context := 0
	if stack.curContext != nil {
		context = stack.curContext.hash
	}
	lookAhead := 0
	for i, tokenizer := range parser.Tokenizers {
		if mask&(1<<i) == 0 {
			continue
		}
		token := c.tokens[i]
		if main != nil && !tokenizer.Fallback() {
			continue
		}
		if tokenizer.Contextual() || token.Start != stack.pos ||
			token.Mask != mask || token.Context != context {
			c.updateCachedToken(token, tokenizer, stack)
			token.Mask = mask
			token.Context = context
		}
		if token.LookAhead > token.End+lookaheadMargin && token.LookAhead > lookAhead {
			lookAhead = token.LookAhead
		}
		if token.Value != lr.TermErr {
			startIndex := actionIndex
			actionIndex = c.addActions(stack, token.Value, token.End, actionIndex)
			if !tokenizer.Extend() {
				main = token
				if actionIndex > startIndex {
					break
				}
			}
		}
	}
	if lookAhead > 0 {
		stack.setLookAhead(lookAhead)
	}
	if main == nil && stack.pos == c.parse.stream.End {
		main = newCachedToken()
		main.Value = parser.Table.EOFTerm
		main.Start, main.End = stack.pos, stack.pos
		actionIndex = c.addActions(stack, main.Value, main.End, actionIndex)
	}
	c.mainToken = main
	c.actions = c.actions[:actionIndex]
	return c.actions
}

// getMainToken returns the token the current step stopped on, synthesizing
// an error token when the cascade produced none.
func (c *tokenCache) getMainToken(stack *Stack) *CachedToken {
	if c.mainToken != nil {
		return c.mainToken
	}
	main := newCachedToken()
	main.Start = stack.pos
	main.End = stack.pos + 1
	if main.End > c.parse.stream.End {
		main.End = c.parse.stream.End
	}
	main.Value = lr.TermErr
	if stack.pos == c.parse.stream.End {
		main.Value = stack.p.parser.Table.EOFTerm
	}
	return main
}

// updateCachedToken runs a tokenizer at the stack's position. When it
// recognizes nothing, the token becomes a one-unit error token.
func (c *tokenCache) updateCachedToken(token *CachedToken, tokenizer Tokenizer, stack *Stack) {
	stream := c.parse.stream
	start := stream.clipPos(stack.pos)
	tokenizer.Token(stream.Reset(start, &token.Token), stack)
	if token.Value < 0 {
		token.Value = lr.TermErr
		token.End = stream.clipPos(start + 1)
	}
}

// addActions collects actions of stack's state for a token, searching the
// action list and the skip list.
func (c *tokenCache) addActions(stack *Stack, token, end, index int) int {
	table := stack.p.parser.Table
	for set := 0; set < 2; set++ {
		slot := lr.SlotActions
		if set == 1 {
			slot = lr.SlotSkip
		}
		for i := table.StateSlot(stack.state, slot); int(table.Data[i]) != lr.SeqEnd; i += 3 {
			if int(table.Data[i]) == token {
				action := int(table.Data[i+1]) | int(table.Data[i+2])<<16
				index = c.putAction(action, token, end, index)
			}
		}
	}
	return index
}

// putAction appends an (action, term, end) triple unless the action is
// already scheduled.
func (c *tokenCache) putAction(action, token, end, index int) int {
	for i := 0; i < index; i += 3 {
		if c.actions[i] == action {
			return index
		}
	}
	for len(c.actions) < index+3 {
		c.actions = append(c.actions, 0)
	}
	c.actions[index] = action
	c.actions[index+1] = token
	c.actions[index+2] = end
	return index + 3
}
