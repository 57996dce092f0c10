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

	"github.com/stretchr/testify/assert"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	globals.InitGlobals("govm-interp-test")
	eng, err := Init(64 * 1024 * 1024)
	assert.NoError(t, err)
	t.Cleanup(eng.Shutdown)
	return eng
}

func TestNewArrayIntAllocatesAndPushes(t *testing.T) {
	eng := newTestEngine(t)
	f := frames.CreateFrame(4)
	assert.NoError(t, f.Push(frames.IntCell(5)))

	errMsg := newArray(eng, f, opcodes.AT_INT)
	assert.Equal(t, "", errMsg)

	ref, err := f.Pop()
	assert.NoError(t, err)
	assert.False(t, ref.IsNull())

	obj := resolveObj(ref)
	assert.NotNil(t, obj)
	assert.Equal(t, 5, arrayLength(obj))
}

func TestNewArrayNegativeSizeRaises(t *testing.T) {
	eng := newTestEngine(t)
	f := frames.CreateFrame(4)
	assert.NoError(t, f.Push(frames.IntCell(-1)))

	errMsg := newArray(eng, f, opcodes.AT_INT)
	assert.Contains(t, errMsg, "NegativeArraySizeException")
}

func TestArrayStoreLoadRoundTrip(t *testing.T) {
	eng := newTestEngine(t)
	f := frames.CreateFrame(8)
	assert.NoError(t, f.Push(frames.IntCell(3)))
	assert.Equal(t, "", newArray(eng, f, opcodes.AT_INT))
	ref, err := f.Pop()
	assert.NoError(t, err)

	// astore: arr[1] = 42
	assert.NoError(t, f.Push(ref))
	assert.NoError(t, f.Push(frames.IntCell(1)))
	assert.NoError(t, f.Push(frames.IntCell(42)))
	assert.Equal(t, "", arrayStore(f, opcodes.IASTORE))

	// aload: push arr[1]
	assert.NoError(t, f.Push(ref))
	assert.NoError(t, f.Push(frames.IntCell(1)))
	assert.Equal(t, "", arrayLoad(f, opcodes.IALOAD))

	v, err := f.Pop()
	assert.NoError(t, err)
	assert.Equal(t, int32(42), v.Int())
}

func TestArrayLoadOutOfBoundsRaises(t *testing.T) {
	eng := newTestEngine(t)
	f := frames.CreateFrame(8)
	assert.NoError(t, f.Push(frames.IntCell(2)))
	assert.Equal(t, "", newArray(eng, f, opcodes.AT_INT))
	ref, err := f.Pop()
	assert.NoError(t, err)

	assert.NoError(t, f.Push(ref))
	assert.NoError(t, f.Push(frames.IntCell(5)))
	errMsg := arrayLoad(f, opcodes.IALOAD)
	assert.Contains(t, errMsg, "ArrayIndexOutOfBoundsException")
}

func TestArrayLengthOpReportsCount(t *testing.T) {
	eng := newTestEngine(t)
	f := frames.CreateFrame(8)
	assert.NoError(t, f.Push(frames.IntCell(9)))
	assert.Equal(t, "", newArray(eng, f, opcodes.AT_INT))
	ref, err := f.Pop()
	assert.NoError(t, err)

	assert.NoError(t, f.Push(ref))
	assert.Equal(t, "", arrayLengthOp(f))

	n, err := f.Pop()
	assert.NoError(t, err)
	assert.Equal(t, int32(9), n.Int())
}

func TestArrayLengthOpOnNullRaisesNPE(t *testing.T) {
	_ = newTestEngine(t)
	f := frames.CreateFrame(4)
	assert.NoError(t, f.Push(frames.Null()))
	errMsg := arrayLengthOp(f)
	assert.Contains(t, errMsg, "NullPointerException")
}

func TestMultiAnewArrayBuildsNestedLevels(t *testing.T) {
	eng := newTestEngine(t)
	slot, errMsg := buildMultiArray(eng, "[[I", []int{2, 3})
	assert.Equal(t, "", errMsg)

	outer := resolveObj(frames.RefCell(slot))
	assert.NotNil(t, outer)
	assert.Equal(t, 2, arrayLength(outer))

	inner0Slot := outer.FieldTable["value"].Fvalue.([]uint32)[0]
	inner0 := resolveObj(frames.RefCell(inner0Slot))
	assert.NotNil(t, inner0)
	assert.Equal(t, 3, arrayLength(inner0))
}

func TestCountParamCellsMatchesDeclaredArity(t *testing.T) {
	assert.Equal(t, 0, countParamCells("()V"))
	assert.Equal(t, 1, countParamCells("(I)V"))
	// Unlike the real JVM's two-slot convention, a long or double
	// parameter still counts as exactly one cell here.
	assert.Equal(t, 1, countParamCells("(J)V"))
	assert.Equal(t, 1, countParamCells("(D)V"))
	assert.Equal(t, 2, countParamCells("(ID)V"))
	assert.Equal(t, 2, countParamCells("(Ljava/lang/String;I)V"))
	assert.Equal(t, 3, countParamCells("([I[Ljava/lang/String;Z)V"))
}

func TestReturnDescriptor(t *testing.T) {
	assert.Equal(t, "V", returnDescriptor("()V"))
	assert.Equal(t, "I", returnDescriptor("(I)I"))
	assert.Equal(t, "Ljava/lang/String;", returnDescriptor("()Ljava/lang/String;"))
}
