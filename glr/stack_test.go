package glr

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/inklr"
	"github.com/npillmayer/inklr/lr"
	"github.com/npillmayer/inklr/tree"
)

// tiny grammar fixture: state 0 shifts terminal 3 to state 1, a reduction
// to nonterminal 5 leads back to state 1.
const (
	tinyT  = 3
	tinyNT = 5
)

func tinyNodeSet() *tree.NodeSet {
	return tree.NewNodeSet([]tree.NodeType{
		{Name: "⚠", ID: 0, Flags: tree.FlagError},
		{Name: "a", ID: 1},
		{Name: "b", ID: 2},
		{Name: "T", ID: 3},
		{Name: "c", ID: 4},
		{Name: "N", ID: 5, Flags: tree.FlagTop},
		{Name: "gap", ID: 6, Flags: tree.FlagSkipped},
	})
}

func tinyTable(t *testing.T, startAccepting bool) *lr.ParseTable {
	t.Helper()
	b := lr.NewTableBuilder()
	b.MaxNode = 6
	b.MinRepeatTerm = 7
	b.EOFTerm = 8
	b.MaxTerm = 8
	b.PlaceHolder = 6
	b.NodeSet = tinyNodeSet()
	flags := 0
	if startAccepting {
		flags = lr.FlagAccepting
	}
	s0 := b.NewState(flags)
	s1 := b.NewState(lr.FlagAccepting)
	b.Action(s0, tinyT, s1)
	b.AddGoto(s0, tinyNT, s1)
	table, err := b.Table()
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return table
}

func tinyStack(t *testing.T, table *lr.ParseTable, input string) *Stack {
	t.Helper()
	run := NewParser(table).StartParse(inklr.NewStringInput(input))
	return run.stacks[0]
}

func eqInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEmptyInputAccepting(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	stack := tinyStack(t, tinyTable(t, true), "")
	stack.ForceAll()
	if !stack.p.parser.Table.StateFlag(stack.state, lr.FlagAccepting) {
		t.Errorf("expected stack to rest in an accepting state")
	}
	if len(stack.buffer) != 0 {
		t.Errorf("expected empty buffer, have %v", stack.buffer)
	}
}

func TestSingleTerminalShift(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	stack := tinyStack(t, tinyTable(t, false), "x")
	stack.Apply(1, tinyT, 0, 1) // shift T into state 1
	if !eqInts(stack.buffer, []int{3, 0, 1, 4}) {
		t.Errorf("buffer = %v, expected [3 0 1 4]", stack.buffer)
	}
	if stack.pos != 1 {
		t.Errorf("pos = %d, expected 1", stack.pos)
	}
	if stack.Depth() != 1 {
		t.Errorf("expected one frame pushed, have %d", stack.Depth())
	}
	if stack.reducePos > stack.pos {
		t.Errorf("invariant reducePos <= pos violated: %d > %d", stack.reducePos, stack.pos)
	}
}

func TestShiftThenReduceDepth1(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	table := tinyTable(t, false)
	stack := tinyStack(t, table, "x")
	stack.Apply(1, tinyT, 0, 1)
	stack.Apply(lr.Reduce(tinyNT, 1), 0, 0, 0)
	if !eqInts(stack.buffer, []int{3, 0, 1, 4, 5, 0, 1, 8}) {
		t.Errorf("buffer = %v, expected [3 0 1 4 5 0 1 8]", stack.buffer)
	}
	if want := table.Goto(0, tinyNT, false); stack.state != want {
		t.Errorf("state = %d, expected goto(0,%d) = %d", stack.state, tinyNT, want)
	}
	if sz := stack.buffer[len(stack.buffer)-1]; sz != 8 {
		t.Errorf("parent size = %d, expected child entries + 4", sz)
	}
}

func TestErrorCoalesce(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	stack := tinyStack(t, tinyTable(t, false), "xx")
	stack.storeNode(lr.TermErr, 0, 1, 4, false)
	stack.storeNode(lr.TermErr, 1, 2, 4, false)
	if !eqInts(stack.buffer, []int{0, 0, 2, 4}) {
		t.Errorf("buffer = %v, expected single merged error record [0 0 2 4]", stack.buffer)
	}
	// zero-width additions are dropped entirely
	stack.storeNode(lr.TermErr, 2, 2, 4, false)
	if len(stack.buffer) != 4 {
		t.Errorf("zero-width error next to an error record should be dropped")
	}
}

func TestStoreNodeSinksBelowSkipped(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	stack := tinyStack(t, tinyTable(t, false), "aaaaa")
	stack.pos = 5
	stack.reducePos = 3
	stack.storeNode(2, 3, 5, 4, false) // a trailing skipped token
	stack.storeNode(5, 0, 3, 8, true)  // reduction ending at 3
	if !eqInts(stack.buffer, []int{5, 0, 3, 4, 2, 3, 5, 4}) {
		t.Errorf("buffer = %v, expected reduction sunk below skipped record", stack.buffer)
	}
}

func TestSplitAndContinue(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	a := tinyStack(t, tinyTable(t, false), "xxxx")
	a.pos, a.reducePos = 4, 4
	a.storeNode(1, 0, 1, 4, false)
	a.storeNode(2, 1, 2, 4, false)
	a.storeNode(4, 2, 3, 4, false)
	snapshot := append([]int(nil), a.buffer...)

	b := a.Split()
	b.storeNode(1, 3, 4, 4, false)
	if len(a.buffer) != 12 {
		t.Errorf("parent buffer length changed to %d after split+append", len(a.buffer))
	}
	if !eqInts(a.buffer, snapshot) {
		t.Errorf("parent buffer content changed: %v", a.buffer)
	}
	if a.bufferBase != 0 {
		t.Errorf("parent bufferBase changed to %d", a.bufferBase)
	}
	if b.bufferBase != 12 || len(b.buffer) != 4 {
		t.Errorf("child bufferBase/buffer = %d/%d, expected 12/4", b.bufferBase, len(b.buffer))
	}
	if b.parent != a {
		t.Errorf("child should point back at parent")
	}
}

func TestSplitCopiesOutstandingSkipped(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	a := tinyStack(t, tinyTable(t, false), "xxxxxx")
	a.pos, a.reducePos = 6, 2
	a.storeNode(1, 0, 2, 4, false) // within reducePos
	a.storeNode(2, 2, 5, 4, false) // beyond reducePos: outstanding
	b := a.Split()
	if b.bufferBase != 4 {
		t.Errorf("split point = %d, expected 4 (before outstanding record)", b.bufferBase)
	}
	if !eqInts(b.buffer, []int{2, 2, 5, 4}) {
		t.Errorf("outstanding record not copied to child: %v", b.buffer)
	}
	if len(a.buffer) != 8 {
		t.Errorf("parent buffer must stay intact, have length %d", len(a.buffer))
	}
}

func TestRecoveryForkCap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	b := lr.NewTableBuilder()
	b.MaxNode = 2
	b.MinRepeatTerm = 60
	b.EOFTerm = 61
	b.MaxTerm = 61
	b.NodeSet = tree.NewNodeSet([]tree.NodeType{
		{Name: "⚠", ID: 0, Flags: tree.FlagError},
		{Name: "x", ID: 1},
		{Name: "y", ID: 2, Flags: tree.FlagTop},
	})
	s0 := b.NewState(0)
	targets := make([]int, 20)
	for i := range targets {
		targets[i] = b.NewState(0)
	}
	next := 50 // the terminal recovery will be asked about
	for i, target := range targets {
		b.Action(s0, 10+i, target)
		if i%3 == 0 {
			b.Action(target, next, target) // these can act on `next`
		}
	}
	table, err := b.Table()
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	stack := tinyStack(t, table, "zzzz")
	forks := stack.RecoverByInsert(next)
	if len(forks) > RecoverMaxNext {
		t.Errorf("%d recovery forks, expected at most %d", len(forks), RecoverMaxNext)
	}
	if len(forks) == 0 {
		t.Fatalf("expected recovery forks")
	}
	for _, fork := range forks {
		if fork.score != -RecoverInsert {
			t.Errorf("fork score = %d, expected %d", fork.score, -RecoverInsert)
		}
		if fork.state == stack.state {
			t.Errorf("fork must enter a different state")
		}
		last := len(fork.buffer)
		if last < 4 || fork.buffer[last-4] != lr.TermErr || fork.buffer[last-3] != fork.buffer[last-2] {
			t.Errorf("fork should carry a zero-width error node, buffer = %v", fork.buffer)
		}
	}
}

func TestRecoverByDelete(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	stack := tinyStack(t, tinyTable(t, false), "xy")
	stack.RecoverByDelete(tinyT, 1)
	if stack.pos != 1 || stack.reducePos != 1 {
		t.Errorf("pos/reducePos = %d/%d, expected 1/1", stack.pos, stack.reducePos)
	}
	if stack.score != -RecoverDelete {
		t.Errorf("score = %d, expected %d", stack.score, -RecoverDelete)
	}
	if !eqInts(stack.buffer, []int{3, 0, 1, 4, 0, 0, 1, 8}) {
		t.Errorf("buffer = %v, expected deleted terminal plus covering error node", stack.buffer)
	}
}

func TestCanShift(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	b := lr.NewTableBuilder()
	b.MaxNode = 6
	b.MinRepeatTerm = 7
	b.EOFTerm = 8
	b.MaxTerm = 8
	b.NodeSet = tinyNodeSet()
	s0 := b.NewState(0)
	s1 := b.NewState(0)
	s2 := b.NewState(0)
	s3 := b.NewState(lr.FlagAccepting)
	b.Action(s0, tinyT, s1)
	b.SetDefaultReduce(s1, lr.Reduce(tinyNT, 1))
	b.AddGoto(s0, tinyNT, s2)
	b.Action(s2, 4, s3)
	table, err := b.Table()
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	stack := tinyStack(t, table, "xy")
	stack.Apply(s1, tinyT, 0, 1) // now in s1, one default reduction from s2
	if !stack.CanShift(4) {
		t.Errorf("canShift(4) should hold via the default reduction to s2")
	}
	if stack.CanShift(tinyT) {
		t.Errorf("canShift(%d) should fail, no shift reachable", tinyT)
	}
}

func TestForceAllIdempotent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	stack := tinyStack(t, tinyTable(t, true), "")
	stack.ForceAll()
	buf := append([]int(nil), stack.buffer...)
	state := stack.state
	stack.ForceAll()
	if stack.state != state || !eqInts(stack.buffer, buf) {
		t.Errorf("forceAll must be idempotent on an accepting stack")
	}
}

func TestDeadEndAndRestart(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	b := lr.NewTableBuilder()
	b.MaxNode = 6
	b.MinRepeatTerm = 7
	b.EOFTerm = 8
	b.MaxTerm = 8
	b.NodeSet = tinyNodeSet()
	s0 := b.NewState(0)
	s1 := b.NewState(0) // no actions at all
	b.Action(s0, tinyT, s1)
	table, err := b.Table()
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	stack := tinyStack(t, table, "x")
	if stack.DeadEnd() {
		t.Errorf("fresh stack without frames is not a dead end")
	}
	stack.Apply(s1, tinyT, 0, 1)
	if !stack.DeadEnd() {
		t.Errorf("expected dead end: initial depth, no actions in state")
	}
	stack.Restart()
	if stack.state != 0 {
		t.Errorf("restart should re-enter the start state, have %d", stack.state)
	}
	last := len(stack.buffer)
	if stack.buffer[last-4] != lr.TermErr {
		t.Errorf("restart should leave an error node behind")
	}
}

func TestSameState(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	table := tinyTable(t, false)
	a := tinyStack(t, table, "x")
	a.Apply(1, tinyT, 0, 1)
	b := a.Split()
	if !a.SameState(b) {
		t.Errorf("split stacks start out in the same state")
	}
	// A depth-1 reduction would lead back to state 1 over the same frame;
	// a zero-depth reduction pushes a frame, so the frame states differ.
	b.Apply(lr.Reduce(tinyNT, 0), 0, 0, 0)
	if a.SameState(b) {
		t.Errorf("stacks differ after reducing one of them")
	}
}

func TestMaterializeTopNode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	table := tinyTable(t, false)
	stack := tinyStack(t, table, "x")
	stack.Apply(1, tinyT, 0, 1)
	stack.Apply(lr.Reduce(tinyNT, 1), 0, 0, 0)
	if !stack.MaterializeTopNode() {
		t.Fatalf("expected top node to be materialized")
	}
	if !eqInts(stack.buffer, []int{0, 0, 1, -1}) {
		t.Errorf("buffer = %v, expected a single reused record", stack.buffer)
	}
	if len(stack.p.reused) != 1 {
		t.Fatalf("reused table has %d entries, expected 1", len(stack.p.reused))
	}
	reused := stack.p.reused[0]
	if reused.Type.ID != tinyNT || reused.From != 0 || reused.To != 1 {
		t.Errorf("materialized tree = %v, expected N(0…1)", reused)
	}
	if len(reused.Children) != 1 || reused.Children[0].Type.ID != tinyT {
		t.Errorf("materialized tree lost its terminal child: %v", reused)
	}
}

func TestUseNode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	table := tinyTable(t, false)
	prebuilt := &tree.Tree{Type: table.NodeSet.Type(tinyNT), From: 0, To: 1}
	stack := tinyStack(t, table, "x")
	stack.UseNode(prebuilt, 1)
	if stack.pos != 1 || stack.reducePos != 1 {
		t.Errorf("useNode should advance pos/reducePos by the subtree length")
	}
	if !eqInts(stack.buffer, []int{0, 0, 1, -1}) {
		t.Errorf("buffer = %v, expected reused record [0 0 1 -1]", stack.buffer)
	}
	// installing the same node again dedups against the last reused entry
	stack.UseNode(prebuilt, 1)
	if len(stack.p.reused) != 1 {
		t.Errorf("reused table grew to %d for identical node", len(stack.p.reused))
	}
}

func TestDialectEnabled(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	table := tinyTable(t, false)
	parser := NewParser(table, WithDialect(lr.NewDialect([]bool{true, false}, nil, table.MaxTerm)))
	run := parser.StartParse(inklr.NewStringInput("x"))
	stack := run.stacks[0]
	if !stack.DialectEnabled(0) || stack.DialectEnabled(1) || stack.DialectEnabled(7) {
		t.Errorf("dialect flags not respected")
	}
}
