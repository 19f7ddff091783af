package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSet() *NodeSet {
	return NewNodeSet([]NodeType{
		{Name: "⚠", ID: 0, Flags: FlagError},
		{Name: "a", ID: 1},
		{Name: "b", ID: 2},
		{Name: "N", ID: 3, Flags: FlagTop},
	})
}

func TestNodeSetType(t *testing.T) {
	set := testSet()
	assert.Equal(t, "a", set.Type(1).Name)
	assert.True(t, set.Type(0).IsError())
	assert.True(t, set.Type(99).IsError(), "out of range falls back to the error type")
	assert.True(t, set.Type(-1).IsError())
}

func TestBuildSimpleNode(t *testing.T) {
	// a(0,1) b(1,2) wrapped in N(0,2)
	buffer := []int{1, 0, 1, 4, 2, 1, 2, 4, 3, 0, 2, 12}
	node := Build(NewTreeBufferCursor(buffer), testSet(), nil, nil)
	require.NotNil(t, node)
	assert.Equal(t, "N", node.Type.Name)
	assert.Equal(t, 0, node.From)
	assert.Equal(t, 2, node.To)
	require.Len(t, node.Children, 2)
	assert.Equal(t, "a", node.Children[0].Type.Name)
	assert.Equal(t, "b", node.Children[1].Type.Name)
	assert.Equal(t, 2, node.Length())
}

func TestBuildNestedCoverage(t *testing.T) {
	// N( a, N(b) ) — inner node's size covers only its own child
	buffer := []int{
		1, 0, 1, 4,
		2, 1, 2, 4,
		3, 1, 2, 8,
		3, 0, 2, 16,
	}
	node := Build(NewTreeBufferCursor(buffer), testSet(), nil, nil)
	require.Len(t, node.Children, 2)
	inner := node.Children[1]
	assert.Equal(t, "N", inner.Type.Name)
	require.Len(t, inner.Children, 1)
	assert.Equal(t, "b", inner.Children[0].Type.Name)
}

func TestBuildReusedSentinel(t *testing.T) {
	prebuilt := &Tree{Type: testSet().Type(3), From: 0, To: 5}
	buffer := []int{
		0, 0, 5, SizeReused, // index 0 into reused
		2, 5, 6, 4,
		3, 0, 6, 12,
	}
	node := Build(NewTreeBufferCursor(buffer), testSet(), []*Tree{prebuilt}, nil)
	require.Len(t, node.Children, 2)
	assert.Same(t, prebuilt, node.Children[0], "reused subtree spliced in unchanged")
}

func TestBuildMarkerSentinels(t *testing.T) {
	buffer := []int{
		1, 0, 1, 4,
		4711, 1, 1, SizeContext,
		99, 1, 1, SizeLookAhead,
		3, 0, 1, 16,
	}
	node := Build(NewTreeBufferCursor(buffer), testSet(), nil, nil)
	require.Len(t, node.Children, 1, "markers yield no tree nodes")
	assert.Equal(t, 4711, node.ContextHash)
	assert.Equal(t, 99, node.LookAhead)
}

func TestBuildPropSentinel(t *testing.T) {
	mounted := &Tree{Type: testSet().Type(1), From: 0, To: 1}
	buffer := []int{
		1, 0, 1, 4,
		0, 1, PropMounted, SizeProp, // propValues[0] attached as PropMounted
		3, 0, 1, 12,
	}
	node := Build(NewTreeBufferCursor(buffer), testSet(), nil, []interface{}{mounted})
	require.Len(t, node.Children, 1)
	assert.Same(t, mounted, node.Prop(PropMounted))
	assert.Nil(t, node.Prop(99))
}

func TestBuildAll(t *testing.T) {
	buffer := []int{
		1, 0, 1, 4,
		2, 1, 2, 4,
		1, 2, 3, 4,
	}
	root := BuildAll(NewTreeBufferCursor(buffer), testSet(), testSet().Type(3), nil, nil)
	assert.Equal(t, "N", root.Type.Name)
	require.Len(t, root.Children, 3)
	assert.Equal(t, "a", root.Children[0].Type.Name)
	assert.Equal(t, "b", root.Children[1].Type.Name)
	assert.Equal(t, 0, root.From)
	assert.Equal(t, 3, root.To)
}

func TestTreeBufferCursorFork(t *testing.T) {
	buffer := []int{1, 0, 1, 4, 2, 1, 2, 4}
	c := NewTreeBufferCursor(buffer)
	fork := c.Fork()
	c.Next()
	assert.Equal(t, 8, fork.Pos())
	assert.Equal(t, 2, fork.ID())
	assert.Equal(t, 4, c.Pos())
	assert.Equal(t, 1, c.ID())
}

func TestTreeString(t *testing.T) {
	node := &Tree{
		Type: testSet().Type(3),
		From: 0, To: 2,
		Children: []*Tree{
			{Type: testSet().Type(1), From: 0, To: 1},
			{Type: testSet().Type(2), From: 1, To: 2},
		},
	}
	assert.Equal(t, "N(a(0…1),b(1…2))", node.String())
	assert.Equal(t, 2, node.Span().Len())
}
