/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"testing"

	"govm/frames"
	"govm/globals"
	"govm/opcodes"
	"govm/thread"

	"github.com/stretchr/testify/assert"
)

func newTestThread(t *testing.T) *thread.ExecThread {
	t.Helper()
	globals.InitGlobals("govm-dispatch-test")
	tr := thread.NewExecThread("dispatch-test")
	t.Cleanup(func() { thread.Unregister(tr) })
	return tr
}

// iconst_1, iconst_2, iadd, ireturn
func TestRunFrameAddsTwoInts(t *testing.T) {
	eng := newTestEngine(t)
	tr := newTestThread(t)

	f := frames.CreateFrame(4)
	f.Code = []byte{opcodes.ICONST_1, opcodes.ICONST_2, opcodes.IADD, opcodes.IRETURN}
	f.MaxLocals = 0
	assert.NoError(t, frames.PushFrame(tr.FrameStack, f))

	ret, err := RunFrame(tr, eng)
	assert.NoError(t, err)
	cell, ok := ret.(frames.Cell)
	assert.True(t, ok)
	assert.Equal(t, int32(3), cell.Int())
}

// iconst_1, iconst_0, idiv, ireturn -- division by zero with no
// handler in the exception table must unwind with an error whose
// message names ArithmeticException.
func TestRunFrameDivideByZeroUncaught(t *testing.T) {
	eng := newTestEngine(t)
	tr := newTestThread(t)

	f := frames.CreateFrame(4)
	f.Code = []byte{opcodes.ICONST_1, opcodes.ICONST_0, opcodes.IDIV, opcodes.IRETURN}
	assert.NoError(t, frames.PushFrame(tr.FrameStack, f))

	_, err := RunFrame(tr, eng)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ArithmeticException")
}

// Same divide-by-zero, but now with an exception-table entry covering
// the whole method body and no catch type (a catch-all/finally-style
// handler): RunFrame must resume at the handler PC rather than
// propagate an error.
func TestRunFrameDivideByZeroCaught(t *testing.T) {
	eng := newTestEngine(t)
	tr := newTestThread(t)

	f := frames.CreateFrame(4)
	// pc0 iconst_1, pc1 iconst_0, pc2 idiv, pc3 ireturn (never reached),
	// pc4 (handler) iconst_m1, pc5 ireturn
	f.Code = []byte{
		opcodes.ICONST_1, opcodes.ICONST_0, opcodes.IDIV, opcodes.IRETURN,
		opcodes.ICONST_M1, opcodes.IRETURN,
	}
	f.ExceptionTable = []frames.ExceptionHandler{
		{StartPC: 0, EndPC: 4, HandlerPC: 4, CatchType: 0},
	}
	assert.NoError(t, frames.PushFrame(tr.FrameStack, f))

	ret, err := RunFrame(tr, eng)
	assert.NoError(t, err)
	cell, ok := ret.(frames.Cell)
	assert.True(t, ok)
	assert.Equal(t, int32(-1), cell.Int())
}

// pop2 on a lone long must drop exactly that one Cell, not the int
// beneath it -- a category-2 value occupies one Cell in this engine's
// representation, unlike the real JVM's two-slot convention.
func TestPop2DropsOneCellForCategory2Value(t *testing.T) {
	eng := newTestEngine(t)
	tr := newTestThread(t)
	f := frames.CreateFrame(4)
	assert.NoError(t, f.Push(frames.IntCell(7)))
	assert.NoError(t, f.Push(frames.LongCell(99)))

	_, _, errMsg := step(tr, eng, f, opcodes.POP2)
	assert.Equal(t, "", errMsg)

	remaining, err := f.Pop()
	assert.NoError(t, err)
	assert.Equal(t, int32(7), remaining.Int())
}

// pop2 on two category-1 values must drop both.
func TestPop2DropsTwoCellsForCategory1Pair(t *testing.T) {
	eng := newTestEngine(t)
	tr := newTestThread(t)
	f := frames.CreateFrame(4)
	assert.NoError(t, f.Push(frames.IntCell(1)))
	assert.NoError(t, f.Push(frames.IntCell(2)))
	assert.NoError(t, f.Push(frames.IntCell(3)))

	_, _, errMsg := step(tr, eng, f, opcodes.POP2)
	assert.Equal(t, "", errMsg)

	remaining, err := f.Pop()
	assert.NoError(t, err)
	assert.Equal(t, int32(1), remaining.Int())
}

// dup2 on a lone double duplicates the single Cell, not the value
// beneath it.
func TestDup2DuplicatesSingleCategory2Value(t *testing.T) {
	eng := newTestEngine(t)
	tr := newTestThread(t)
	f := frames.CreateFrame(4)
	assert.NoError(t, f.Push(frames.IntCell(1)))
	assert.NoError(t, f.Push(frames.DoubleCell(2.5)))

	_, _, errMsg := step(tr, eng, f, opcodes.DUP2)
	assert.Equal(t, "", errMsg)

	top, _ := f.Pop()
	assert.Equal(t, 2.5, top.Double())
	next, _ := f.Pop()
	assert.Equal(t, 2.5, next.Double())
	bottom, _ := f.Pop()
	assert.Equal(t, int32(1), bottom.Int())
}

// dup2 on two category-1 values duplicates the pair.
func TestDup2DuplicatesCategory1Pair(t *testing.T) {
	eng := newTestEngine(t)
	tr := newTestThread(t)
	f := frames.CreateFrame(6)
	assert.NoError(t, f.Push(frames.IntCell(10)))
	assert.NoError(t, f.Push(frames.IntCell(1)))
	assert.NoError(t, f.Push(frames.IntCell(2)))

	_, _, errMsg := step(tr, eng, f, opcodes.DUP2)
	assert.Equal(t, "", errMsg)

	order := []int32{2, 1, 2, 1, 10}
	for _, want := range order {
		c, err := f.Pop()
		assert.NoError(t, err)
		assert.Equal(t, want, c.Int())
	}
}

// dup2_x1 form 2: value1 is a category-2 long, value2 a category-1 int.
func TestDup2X1Category2Value1(t *testing.T) {
	eng := newTestEngine(t)
	tr := newTestThread(t)
	f := frames.CreateFrame(6)
	assert.NoError(t, f.Push(frames.IntCell(9)))
	assert.NoError(t, f.Push(frames.IntCell(1)))
	assert.NoError(t, f.Push(frames.LongCell(42)))

	_, _, errMsg := step(tr, eng, f, opcodes.DUP2_X1)
	assert.Equal(t, "", errMsg)

	top, _ := f.Pop()
	assert.Equal(t, int64(42), top.Long())
	second, _ := f.Pop()
	assert.Equal(t, int32(1), second.Int())
	third, _ := f.Pop()
	assert.Equal(t, int64(42), third.Long())
	bottom, _ := f.Pop()
	assert.Equal(t, int32(9), bottom.Int())
}

// dup2_x2 form 4: value1 and value2 both category-2.
func TestDup2X2BothCategory2(t *testing.T) {
	eng := newTestEngine(t)
	tr := newTestThread(t)
	f := frames.CreateFrame(6)
	assert.NoError(t, f.Push(frames.DoubleCell(1.5)))
	assert.NoError(t, f.Push(frames.LongCell(7)))

	_, _, errMsg := step(tr, eng, f, opcodes.DUP2_X2)
	assert.Equal(t, "", errMsg)

	top, _ := f.Pop()
	assert.Equal(t, int64(7), top.Long())
	mid, _ := f.Pop()
	assert.Equal(t, 1.5, mid.Double())
	bottom, _ := f.Pop()
	assert.Equal(t, int64(7), bottom.Long())
}
