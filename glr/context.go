package glr

import (
	"github.com/cnf/structhash"

	"github.com/npillmayer/inklr/tree"
)

// ContextTracker plumbs a user-defined value through the parse. The engine
// calls Shift/Reduce/Reuse as the stack changes and stores the value, with
// its hash, on each stack. Stacks with different context hashes are never
// merged, and strict trackers flush their hash into the output buffer so
// incremental reuse can compare it. Context values are compared with !=, so
// they must be of comparable types.
type ContextTracker struct {
	// Start produces the context value for a fresh stack.
	Start func() interface{}
	// Shift computes the context after shifting term. Nil fields keep the
	// value unchanged.
	Shift func(context interface{}, term int, stack *Stack, input *InputStream) interface{}
	// Reduce computes the context after reducing to term.
	Reduce func(context interface{}, term int, stack *Stack, input *InputStream) interface{}
	// Reuse computes the context after splicing in a reused subtree.
	Reuse func(context interface{}, reused *tree.Tree, stack *Stack, input *InputStream) interface{}
	// Hash maps a context value to an integer. When nil, a structural
	// default hash is used.
	Hash func(context interface{}) int
	// Strict trackers partition stacks by hash and emit context markers
	// when a stack closes.
	Strict bool
}

func (t *ContextTracker) hashOf(context interface{}) int {
	if t.Hash != nil {
		return t.Hash(context)
	}
	return defaultContextHash(context)
}

// defaultContextHash derives an integer hash from the structural hash of
// the context value.
func defaultContextHash(context interface{}) int {
	sum, err := structhash.Hash(struct {
		Context interface{}
	}{Context: context}, 1)
	if err != nil {
		return 0
	}
	h := 0
	for i := 0; i < len(sum); i++ {
		h = h*31 + int(sum[i])
		h &= 0x3fffffff
	}
	return h
}

// StackContext pairs a tracker's current value with its hash. The zero
// hash is used for non-strict trackers, which never emit context markers.
type StackContext struct {
	tracker *ContextTracker
	context interface{}
	hash    int
}

func newStackContext(tracker *ContextTracker, context interface{}) *StackContext {
	cx := &StackContext{tracker: tracker, context: context}
	if tracker.Strict {
		cx.hash = tracker.hashOf(context)
	}
	return cx
}

// Context returns the tracker value.
func (cx *StackContext) Context() interface{} { return cx.context }

// Hash returns the context hash (zero for non-strict trackers).
func (cx *StackContext) Hash() int { return cx.hash }
