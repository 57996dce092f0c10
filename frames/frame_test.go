/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushPopRoundTrip(t *testing.T) {
	f := CreateFrame(4)
	assert.NoError(t, f.Push(IntCell(42)))
	c, err := f.Pop()
	assert.NoError(t, err)
	assert.Equal(t, int32(42), c.Int())
}

func TestPushOverflow(t *testing.T) {
	f := CreateFrame(1)
	assert.NoError(t, f.Push(IntCell(1)))
	err := f.Push(IntCell(2))
	assert.Error(t, err)
}

func TestPopUnderflow(t *testing.T) {
	f := CreateFrame(1)
	_, err := f.Pop()
	assert.Error(t, err)
}

func TestLongDoubleOccupyOneCellEach(t *testing.T) {
	// Unlike the real JVM's two-slot convention for category-2 values,
	// this engine's Cell carries a full 64-bit payload, so pushing one
	// long and one int leaves exactly two cells on the stack, not three.
	f := CreateFrame(4)
	assert.NoError(t, f.Push(LongCell(1<<40)))
	assert.NoError(t, f.Push(IntCell(7)))
	assert.Equal(t, 2, f.Depth())

	top, err := f.Pop()
	assert.NoError(t, err)
	assert.Equal(t, int32(7), top.Int())

	bottom, err := f.Pop()
	assert.NoError(t, err)
	assert.Equal(t, int64(1<<40), bottom.Long())
}

func TestSetGetLocal(t *testing.T) {
	f := CreateFrame(4)
	f.MaxLocals = 3
	assert.NoError(t, f.SetLocal(2, DoubleCell(3.25)))
	c, err := f.GetLocal(2)
	assert.NoError(t, err)
	assert.Equal(t, 3.25, c.Double())
}

func TestGetLocalOutOfRange(t *testing.T) {
	f := CreateFrame(4)
	f.MaxLocals = 2
	_, err := f.GetLocal(5)
	assert.Error(t, err)
}

func TestNullCellIsReferenceAndNull(t *testing.T) {
	n := Null()
	assert.Equal(t, TagReference, n.Tag)
	assert.True(t, n.IsNull())

	r := RefCell(7)
	assert.False(t, r.IsNull())
	assert.Equal(t, uint32(7), r.Slot())
}

func TestFloatRoundTrip(t *testing.T) {
	c := FloatCell(1.5)
	assert.Equal(t, float32(1.5), c.Float())
}

func TestIsCategory2(t *testing.T) {
	assert.True(t, TagLong.IsCategory2())
	assert.True(t, TagDouble.IsCategory2())
	assert.False(t, TagInt.IsCategory2())
	assert.False(t, TagReference.IsCategory2())
}
