package glr

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestCursorWalksParentChain(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	a := tinyStack(t, tinyTable(t, false), "xxxxxxxx")
	a.pos, a.reducePos = 8, 8
	a.storeNode(1, 0, 1, 4, false)
	a.storeNode(2, 1, 2, 4, false)
	a.storeNode(4, 2, 3, 4, false)
	b := a.Split()
	b.storeNode(1, 3, 4, 4, false)
	b.storeNode(2, 4, 5, 4, false)
	c := b.Split()
	c.storeNode(4, 5, 6, 4, false)

	cursor := NewBufferCursor(c)
	total := c.bufferBase + len(c.buffer)
	if total != 24 {
		t.Fatalf("logical buffer length = %d, expected 24", total)
	}
	var ids []int
	var starts []int
	for cursor.Pos() > 0 {
		ids = append(ids, cursor.ID())
		starts = append(starts, cursor.Start())
		cursor.Next()
	}
	if len(ids) != total/4 {
		t.Errorf("cursor visited %d records, expected %d", len(ids), total/4)
	}
	// reverse insertion order
	wantIds := []int{4, 2, 1, 4, 2, 1}
	wantStarts := []int{5, 4, 3, 2, 1, 0}
	if !eqInts(ids, wantIds) || !eqInts(starts, wantStarts) {
		t.Errorf("cursor ids/starts = %v/%v, expected %v/%v", ids, starts, wantIds, wantStarts)
	}
}

func TestCursorFork(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	a := tinyStack(t, tinyTable(t, false), "xxxx")
	a.pos, a.reducePos = 4, 4
	a.storeNode(1, 0, 1, 4, false)
	a.storeNode(2, 1, 2, 4, false)
	cursor := NewBufferCursor(a)
	fork := cursor.Fork()
	cursor.Next()
	if fork.Pos() != 8 || fork.ID() != 2 {
		t.Errorf("fork affected by advancing the original")
	}
	if cursor.Pos() != 4 || cursor.ID() != 1 {
		t.Errorf("original cursor did not advance")
	}
}

func TestCursorEmptyLocalBuffer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "inklr.glr")
	defer teardown()
	a := tinyStack(t, tinyTable(t, false), "xx")
	a.pos, a.reducePos = 2, 2
	a.storeNode(1, 0, 1, 4, false)
	b := a.Split() // no local content of its own
	if len(b.buffer) != 0 {
		t.Fatalf("expected empty local buffer on fork")
	}
	cursor := NewBufferCursor(b)
	if cursor.ID() != 1 || cursor.Size() != 4 {
		t.Errorf("cursor should immediately hop to the parent's record")
	}
}
