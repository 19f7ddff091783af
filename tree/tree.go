/*
Package tree provides node types and buffer-backed syntax trees.

A parse run does not create tree nodes one by one. Instead, the engine
appends compact 4-integer records (term, start, end, size) to a flat
buffer, and this package turns such a buffer into a Tree once a parse
is accepted. Subtrees that were reused from a previous parse are spliced
in unchanged.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package tree

import (
	"fmt"

	"github.com/npillmayer/inklr"
)

// NodeFlags describe static properties of a NodeType.
type NodeFlags uint16

const (
	// FlagTop marks the grammar's top node type.
	FlagTop NodeFlags = 1 << iota
	// FlagSkipped marks node types for skipped material (whitespace, comments).
	FlagSkipped
	// FlagError marks the error node type.
	FlagError
	// FlagAnonymous marks node types without a grammar name of their own,
	// such as literal punctuation. Tree building keeps their nodes like any
	// other.
	FlagAnonymous
	// FlagRepeated marks synthesized repetition node types.
	FlagRepeated
)

// NodeType describes one kind of syntax node. Node types are shared between
// all trees produced from the same parse table.
type NodeType struct {
	Name  string
	ID    uint16
	Flags NodeFlags
}

// IsError reports whether this is the error node type.
func (t NodeType) IsError() bool { return t.Flags&FlagError != 0 }

// IsSkipped reports whether nodes of this type hold skipped material.
func (t NodeType) IsSkipped() bool { return t.Flags&FlagSkipped != 0 }

// IsAnonymous reports whether the type carries FlagAnonymous. Nodes of such
// types still appear in built trees.
func (t NodeType) IsAnonymous() bool { return t.Flags&FlagAnonymous != 0 }

func (t NodeType) String() string {
	if t.Name == "" {
		return fmt.Sprintf("#%d", t.ID)
	}
	return t.Name
}

// NodeSet is the collection of node types used by a parse table, indexed by
// term id. Index 0 is always the error type.
type NodeSet struct {
	Types []NodeType
}

// NewNodeSet creates a node set from a list of types. The caller must list
// the error type at index 0.
func NewNodeSet(types []NodeType) *NodeSet {
	return &NodeSet{Types: types}
}

// Type returns the node type for a term id, or the error type if the id is
// out of range.
func (s *NodeSet) Type(id int) NodeType {
	if id < 0 || id >= len(s.Types) {
		return s.Types[0]
	}
	return s.Types[id]
}

// --- Trees ------------------------------------------------------------

// Tree is a syntax-tree node together with its children. From/To are
// absolute input positions. A leaf has no children.
type Tree struct {
	Type     NodeType
	Children []*Tree
	From, To int

	// ContextHash and LookAhead carry the incremental-reuse markers emitted
	// by the parse stack; both are zero when the node carries none.
	ContextHash int
	LookAhead   int

	// Props holds property attachments (e.g. mounted subtrees), keyed by
	// property id.
	Props map[int]interface{}
}

// Predefined property ids for Tree.Props.
const (
	// PropMounted attaches a tree produced by a nested parse to a node.
	PropMounted = 1
)

// Length returns the extent of the node in the input.
func (t *Tree) Length() int { return t.To - t.From }

// Prop returns the property value for id, or nil.
func (t *Tree) Prop(id int) interface{} {
	if t.Props == nil {
		return nil
	}
	return t.Props[id]
}

func (t *Tree) setProp(id int, value interface{}) {
	if t.Props == nil {
		t.Props = make(map[int]interface{})
	}
	t.Props[id] = value
}

func (t *Tree) String() string {
	if len(t.Children) == 0 {
		return fmt.Sprintf("%s%v", t.Type, inklr.Span{t.From, t.To})
	}
	s := t.Type.String() + "("
	for i, c := range t.Children {
		if i > 0 {
			s += ","
		}
		s += c.String()
	}
	return s + ")"
}

// Span returns the input positions covered by the node.
func (t *Tree) Span() inklr.Span { return inklr.Span{t.From, t.To} }
