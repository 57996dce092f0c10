/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's jvm package array bytecode handlers.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"strings"

	"govm/classloader"
	"govm/excNames"
	"govm/frames"
	"govm/object"
	"govm/opcodes"
	"govm/stringPool"
	"govm/types"
)

// newArrayObject builds the heap object backing a Java array: its
// class reference is the array descriptor itself (e.g. "[I",
// "[Ljava/lang/String;"), and its single "value" field carries the
// Go-native backing slice, per the element-storage convention
// documented in DESIGN.md.
func newArrayObject(desc string, ftype string, fvalue interface{}) *object.Object {
	obj := object.MakeEmptyObject()
	name := desc
	obj.Klass = &name
	obj.KlassName = stringPool.GetStringIndex(desc)
	obj.FieldTable["value"] = &object.Field{Ftype: ftype, Fvalue: fvalue}
	return obj
}

// arrayLength returns the element count of arr's backing slice,
// regardless of element kind.
func arrayLength(obj *object.Object) int {
	fld := obj.FieldTable["value"]
	if fld == nil {
		return 0
	}
	switch v := fld.Fvalue.(type) {
	case []int64:
		return len(v)
	case []types.JavaByte:
		return len(v)
	case []float64:
		return len(v)
	case []uint32:
		return len(v)
	default:
		return 0
	}
}

// arrayLengthOp implements ARRAYLENGTH.
func arrayLengthOp(f *frames.Frame) string {
	ref, _ := f.Pop()
	if ref.IsNull() {
		return excNames.NullPointerException + ": arraylength on null reference"
	}
	obj := resolveObj(ref)
	if obj == nil {
		return excNames.NullPointerException + ": arraylength on null reference"
	}
	push(f, frames.IntCell(int32(arrayLength(obj))))
	return ""
}

// arrayLoad implements all of IALOAD/LALOAD/FALOAD/DALOAD/AALOAD/
// BALOAD/CALOAD/SALOAD: pop index then array ref, bounds-check, and
// push the element using this type's Cell representation.
func arrayLoad(f *frames.Frame, op byte) string {
	idxCell, _ := f.Pop()
	ref, _ := f.Pop()
	if ref.IsNull() {
		return excNames.NullPointerException + ": array load on null reference"
	}
	obj := resolveObj(ref)
	if obj == nil {
		return excNames.NullPointerException + ": array load on null reference"
	}
	idx := int(idxCell.Int())
	fld := obj.FieldTable["value"]
	if fld == nil {
		return excNames.NullPointerException + ": array load: no backing storage"
	}

	switch op {
	case opcodes.IALOAD, opcodes.CALOAD, opcodes.SALOAD:
		v, ok := fld.Fvalue.([]int64)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		push(f, frames.IntCell(int32(v[idx])))
	case opcodes.LALOAD:
		v, ok := fld.Fvalue.([]int64)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		push(f, frames.LongCell(v[idx]))
	case opcodes.BALOAD:
		v, ok := fld.Fvalue.([]types.JavaByte)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		push(f, frames.IntCell(int32(v[idx])))
	case opcodes.FALOAD:
		v, ok := fld.Fvalue.([]float64)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		push(f, frames.FloatCell(float32(v[idx])))
	case opcodes.DALOAD:
		v, ok := fld.Fvalue.([]float64)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		push(f, frames.DoubleCell(v[idx]))
	case opcodes.AALOAD:
		v, ok := fld.Fvalue.([]uint32)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		push(f, frames.RefCell(v[idx]))
	default:
		return excNames.InternalError + ": unrecognized array load opcode"
	}
	return ""
}

// arrayStore implements all of IASTORE/LASTORE/FASTORE/DASTORE/
// AASTORE/BASTORE/CASTORE/SASTORE.
func arrayStore(f *frames.Frame, op byte) string {
	val, _ := f.Pop()
	idxCell, _ := f.Pop()
	ref, _ := f.Pop()
	if ref.IsNull() {
		return excNames.NullPointerException + ": array store on null reference"
	}
	obj := resolveObj(ref)
	if obj == nil {
		return excNames.NullPointerException + ": array store on null reference"
	}
	idx := int(idxCell.Int())
	fld := obj.FieldTable["value"]
	if fld == nil {
		return excNames.NullPointerException + ": array store: no backing storage"
	}

	switch op {
	case opcodes.IASTORE, opcodes.CASTORE, opcodes.SASTORE:
		v, ok := fld.Fvalue.([]int64)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		v[idx] = int64(val.Int())
	case opcodes.LASTORE:
		v, ok := fld.Fvalue.([]int64)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		v[idx] = val.Long()
	case opcodes.BASTORE:
		v, ok := fld.Fvalue.([]types.JavaByte)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		v[idx] = types.JavaByte(val.Int())
	case opcodes.FASTORE:
		v, ok := fld.Fvalue.([]float64)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		v[idx] = float64(val.Float())
	case opcodes.DASTORE:
		v, ok := fld.Fvalue.([]float64)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		v[idx] = val.Double()
	case opcodes.AASTORE:
		v, ok := fld.Fvalue.([]uint32)
		if !ok || idx < 0 || idx >= len(v) {
			return excNames.ArrayIndexOutOfBoundsException + ": " + indexMsg(idx, len(v))
		}
		v[idx] = val.Slot()
	default:
		return excNames.InternalError + ": unrecognized array store opcode"
	}
	return ""
}

func indexMsg(idx, length int) string {
	return "index " + itoa(idx) + " out of bounds for length " + itoa(length)
}

func itoa(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// newArray implements NEWARRAY: a one-dimensional primitive array
// whose element kind comes from the opcode's own atype operand
// (JVMS 6.5.newarray table), not a constant-pool reference.
func newArray(eng *Engine, f *frames.Frame, atype byte) string {
	cnt, _ := f.Pop()
	n := int(cnt.Int())
	if n < 0 {
		return excNames.NegativeArraySizeException + ": " + itoa(n)
	}

	var desc, ftype string
	var fvalue interface{}
	switch atype {
	case opcodes.AT_BOOLEAN:
		desc, ftype = types.ByteArray, types.ByteArray
		fvalue = make([]types.JavaByte, n)
	case opcodes.AT_CHAR:
		desc, ftype = "[C", types.IntArray
		fvalue = make([]int64, n)
	case opcodes.AT_FLOAT:
		desc, ftype = types.FloatArray, types.FloatArray
		fvalue = make([]float64, n)
	case opcodes.AT_DOUBLE:
		desc, ftype = types.DoubleArray, types.DoubleArray
		fvalue = make([]float64, n)
	case opcodes.AT_BYTE:
		desc, ftype = types.ByteArray, types.ByteArray
		fvalue = make([]types.JavaByte, n)
	case opcodes.AT_SHORT:
		desc, ftype = "[S", types.IntArray
		fvalue = make([]int64, n)
	case opcodes.AT_INT:
		desc, ftype = types.IntArray, types.IntArray
		fvalue = make([]int64, n)
	case opcodes.AT_LONG:
		desc, ftype = "[J", types.IntArray
		fvalue = make([]int64, n)
	default:
		return excNames.InternalError + ": newarray: unrecognized atype"
	}

	obj := newArrayObject(desc, ftype, fvalue)
	slot, err := eng.GC.Allocate(obj)
	if err != nil {
		return excNames.OutOfMemoryError + ": " + err.Error()
	}
	push(f, frames.RefCell(uint32(slot)))
	return ""
}

// anewArray implements ANEWARRAY: a one-dimensional array of
// references to the constant-pool-resolved element class.
func anewArray(eng *Engine, f *frames.Frame, idx int) string {
	cnt, _ := f.Pop()
	n := int(cnt.Int())
	if n < 0 {
		return excNames.NegativeArraySizeException + ": " + itoa(n)
	}

	elemClass := classloader.GetClassNameFromCPclassref(cpool(f), uint16(idx))
	if elemClass == "" {
		return excNames.NoClassDefFoundError + ": anewarray: unresolved class reference"
	}
	desc := elemClass
	if strings.HasPrefix(desc, "[") {
		desc = "[" + desc
	} else {
		desc = "[L" + desc + ";"
	}

	slots := make([]uint32, n)
	obj := newArrayObject(desc, desc, slots)
	slot, err := eng.GC.Allocate(obj)
	if err != nil {
		return excNames.OutOfMemoryError + ": " + err.Error()
	}
	push(f, frames.RefCell(uint32(slot)))
	return ""
}

// multiAnewArray implements MULTIANEWARRAY: builds dims nested levels
// of reference arrays bottom-up, the innermost holding whichever
// element kind the resolved descriptor ultimately names.
func multiAnewArray(eng *Engine, f *frames.Frame, idx int, dims int) string {
	if dims < 1 {
		return excNames.InternalError + ": multianewarray: dims < 1"
	}
	counts := make([]int, dims)
	for i := dims - 1; i >= 0; i-- {
		c, _ := f.Pop()
		n := int(c.Int())
		if n < 0 {
			return excNames.NegativeArraySizeException + ": " + itoa(n)
		}
		counts[i] = n
	}

	fullDesc := classloader.GetClassNameFromCPclassref(cpool(f), uint16(idx))
	if fullDesc == "" {
		return excNames.NoClassDefFoundError + ": multianewarray: unresolved class reference"
	}

	slot, err := buildMultiArray(eng, fullDesc, counts)
	if err != "" {
		return err
	}
	push(f, frames.RefCell(uint32(slot)))
	return ""
}

// buildMultiArray recursively builds the nested arrays multianewarray
// needs, following fullDesc's own leading '[' run to know how many
// dimensions remain below the current level.
func buildMultiArray(eng *Engine, fullDesc string, counts []int) (uint32, string) {
	n := counts[0]
	if len(counts) == 1 {
		return allocLeafArray(eng, fullDesc, n)
	}

	elemDesc := fullDesc[1:]
	slots := make([]uint32, n)
	for i := 0; i < n; i++ {
		s, errMsg := buildMultiArray(eng, elemDesc, counts[1:])
		if errMsg != "" {
			return 0, errMsg
		}
		slots[i] = s
	}
	obj := newArrayObject(fullDesc, fullDesc, slots)
	slot, err := eng.GC.Allocate(obj)
	if err != nil {
		return 0, excNames.OutOfMemoryError + ": " + err.Error()
	}
	return uint32(slot), ""
}

// allocLeafArray allocates the innermost dimension of a multianewarray
// whose own descriptor is desc (e.g. "[I" or "[Ljava/lang/String;").
func allocLeafArray(eng *Engine, desc string, n int) (uint32, string) {
	var ftype string
	var fvalue interface{}
	switch {
	case desc == types.ByteArray:
		ftype = types.ByteArray
		fvalue = make([]types.JavaByte, n)
	case desc == types.FloatArray:
		ftype = types.FloatArray
		fvalue = make([]float64, n)
	case desc == types.DoubleArray:
		ftype = types.DoubleArray
		fvalue = make([]float64, n)
	case desc == types.IntArray || desc == "[C" || desc == "[S" || desc == "[J" || desc == "[Z":
		ftype = types.IntArray
		fvalue = make([]int64, n)
	default:
		ftype = desc
		fvalue = make([]uint32, n)
	}
	obj := newArrayObject(desc, ftype, fvalue)
	slot, err := eng.GC.Allocate(obj)
	if err != nil {
		return 0, excNames.OutOfMemoryError + ": " + err.Error()
	}
	return uint32(slot), ""
}
