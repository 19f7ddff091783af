package glr

import "github.com/npillmayer/inklr/tree"

// StackBufferCursor iterates in reverse over a stack's logical buffer,
// hopping to parent stacks when the local buffer is exhausted. It is the
// only legal way to traverse buffers across the parent chain, because each
// stack's local buffer holds only its own additions.
//
// It implements tree.BufferCursor, so tree building can consume a stack's
// output directly.
type StackBufferCursor struct {
	stack  *Stack
	buffer []int
	pos    int // absolute offset into the logical buffer
	index  int // offset into the current stack's local buffer
}

var _ tree.BufferCursor = (*StackBufferCursor)(nil)

// NewBufferCursor creates a cursor positioned after the last record of the
// stack's logical buffer.
func NewBufferCursor(stack *Stack) *StackBufferCursor {
	pos := stack.bufferBase + len(stack.buffer)
	return newBufferCursorAt(stack, pos)
}

func newBufferCursorAt(stack *Stack, pos int) *StackBufferCursor {
	c := &StackBufferCursor{
		stack:  stack,
		buffer: stack.buffer,
		pos:    pos,
		index:  pos - stack.bufferBase,
	}
	if c.index == 0 {
		c.maybeNext()
	}
	return c
}

// maybeNext hops to the parent stack when the local buffer is used up.
func (c *StackBufferCursor) maybeNext() {
	parent := c.stack.parent
	if parent != nil {
		c.index = c.stack.bufferBase - parent.bufferBase
		c.stack = parent
		c.buffer = parent.buffer
	}
}

// ID returns the term field of the record under the cursor.
func (c *StackBufferCursor) ID() int { return c.buffer[c.index-4] }

// Start returns the start field of the record under the cursor.
func (c *StackBufferCursor) Start() int { return c.buffer[c.index-3] }

// End returns the end field of the record under the cursor.
func (c *StackBufferCursor) End() int { return c.buffer[c.index-2] }

// Size returns the size field of the record under the cursor.
func (c *StackBufferCursor) Size() int { return c.buffer[c.index-1] }

// Pos returns the absolute offset of the cursor into the logical buffer.
func (c *StackBufferCursor) Pos() int { return c.pos }

// Next moves the cursor one record backwards.
func (c *StackBufferCursor) Next() {
	c.index -= 4
	c.pos -= 4
	if c.index == 0 {
		c.maybeNext()
	}
}

// Fork duplicates the cursor without affecting the original.
func (c *StackBufferCursor) Fork() tree.BufferCursor {
	fork := *c
	return &fork
}
