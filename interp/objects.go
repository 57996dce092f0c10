/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's jvm package object/array/field bytecode handlers.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"govm/classloader"
	"govm/excNames"
	"govm/frames"
	"govm/object"
	"govm/slots"
	"govm/thread"
	"govm/types"
	"govm/util"
)

func cpool(f *frames.Frame) *classloader.CPool {
	cp, _ := f.CPool.(*classloader.CPool)
	return cp
}

// ldc handles LDC/LDC_W: int, float, string, or class constants.
func ldc(f *frames.Frame, idx int) string {
	entry := classloader.FetchCPentry(cpool(f), idx)
	switch entry.RetType {
	case classloader.IsInt64:
		push(f, frames.IntCell(int32(entry.IntVal)))
	case classloader.IsFloat64:
		push(f, frames.FloatCell(float32(entry.FloatVal)))
	case classloader.IsStringVal:
		if entry.EntryType == classloader.StringConst || entry.EntryType == classloader.UTF8 {
			return pushNewString(f, entry.StringVal)
		}
		// ClassRef as an ldc operand (a Class literal): not materialized
		// as a java/lang/Class object by this engine; push null rather
		// than fail the whole frame.
		push(f, frames.Null())
	default:
		return excNames.InternalError + ": ldc: unsupported constant-pool entry"
	}
	return ""
}

// ldc2 handles LDC2_W: long or double constants.
func ldc2(f *frames.Frame, idx int) string {
	entry := classloader.FetchCPentry(cpool(f), idx)
	switch entry.EntryType {
	case classloader.LongConst:
		push(f, frames.LongCell(entry.IntVal))
	case classloader.DoubleConst:
		push(f, frames.DoubleCell(entry.FloatVal))
	default:
		return excNames.InternalError + ": ldc2_w: constant-pool entry is not long/double"
	}
	return ""
}

func pushNewString(f *frames.Frame, s string) string {
	obj := object.StringObjectFromGoString(s)
	slot, err := current.GC.Allocate(obj)
	if err != nil {
		return excNames.OutOfMemoryError + ": " + err.Error()
	}
	push(f, frames.RefCell(uint32(slot)))
	return ""
}

func resolveObj(c frames.Cell) *object.Object {
	if c.IsNull() || current == nil {
		return nil
	}
	addr := current.GC.Table.Read(slots.Slot(c.Slot()))
	if addr == nil {
		return nil
	}
	return (*object.Object)(addr)
}

// newObject handles NEW: resolves the class reference, loads/links/
// initializes it, instantiates a zero-valued object, and pushes a
// reference to it.
func newObject(eng *Engine, f *frames.Frame, idx int) string {
	className := classloader.GetClassNameFromCPclassref(cpool(f), uint16(idx))
	if className == "" {
		return excNames.NoClassDefFoundError + ": new: unresolved class reference"
	}
	class, err := classloader.LoadClassFromNameOnly(className)
	if err != nil {
		return excNames.NoClassDefFoundError + ": " + err.Error()
	}
	if err := RunClinit(class); err != nil {
		return excNames.ExceptionInInitializerError + ": " + err.Error()
	}
	obj, err := object.Instantiate(class)
	if err != nil {
		return excNames.InstantiationError + ": " + className
	}
	slot, err := eng.GC.Allocate(obj)
	if err != nil {
		return excNames.OutOfMemoryError + ": " + err.Error()
	}
	push(f, frames.RefCell(uint32(slot)))
	return ""
}

func getField(f *frames.Frame, idx int) string {
	_, fieldName, _ := classloader.GetFieldInfoFromCPfieldref(cpool(f), idx)
	ref, _ := f.Pop()
	obj := resolveObj(ref)
	if obj == nil {
		return excNames.NullPointerException + ": getfield on null reference"
	}
	fld := obj.FieldTable[fieldName]
	if fld == nil {
		return excNames.NoSuchFieldError + ": " + fieldName
	}
	push(f, fieldToCell(fld))
	return ""
}

func putField(f *frames.Frame, idx int) string {
	_, fieldName, desc := classloader.GetFieldInfoFromCPfieldref(cpool(f), idx)
	val, _ := f.Pop()
	ref, _ := f.Pop()
	obj := resolveObj(ref)
	if obj == nil {
		return excNames.NullPointerException + ": putfield on null reference"
	}
	obj.FieldTable[fieldName] = cellToField(val, desc)
	return ""
}

func getStatic(eng *Engine, f *frames.Frame, idx int) string {
	className, fieldName, _ := classloader.GetFieldInfoFromCPfieldref(cpool(f), idx)
	class, err := classloader.LoadClassFromNameOnly(className)
	if err != nil {
		return excNames.NoClassDefFoundError + ": " + err.Error()
	}
	if err := RunClinit(class); err != nil {
		return excNames.ExceptionInInitializerError + ": " + err.Error()
	}
	sf := class.StaticFields[fieldName]
	if sf == nil {
		return excNames.NoSuchFieldError + ": " + fieldName
	}
	push(f, staticToCell(sf))
	return ""
}

func putStatic(eng *Engine, f *frames.Frame, idx int) string {
	className, fieldName, desc := classloader.GetFieldInfoFromCPfieldref(cpool(f), idx)
	class, err := classloader.LoadClassFromNameOnly(className)
	if err != nil {
		return excNames.NoClassDefFoundError + ": " + err.Error()
	}
	if err := RunClinit(class); err != nil {
		return excNames.ExceptionInInitializerError + ": " + err.Error()
	}
	val, _ := f.Pop()
	if class.StaticFields == nil {
		class.StaticFields = make(map[string]*classloader.StaticField)
	}
	class.StaticFields[fieldName] = &classloader.StaticField{Desc: desc, Value: cellToStaticValue(val, desc)}
	return ""
}

func fieldToCell(fld *object.Field) frames.Cell {
	switch fv := fld.Fvalue.(type) {
	case int64:
		if fld.Ftype == types.Long {
			return frames.LongCell(fv)
		}
		return frames.IntCell(int32(fv))
	case float64:
		if fld.Ftype == types.Double {
			return frames.DoubleCell(fv)
		}
		return frames.FloatCell(float32(fv))
	case uint32:
		return frames.RefCell(fv)
	default:
		return frames.Null()
	}
}

func cellToField(c frames.Cell, desc string) *object.Field {
	base, _ := util.ParseFieldDescriptor(desc)
	switch base {
	case "L", "[":
		if c.IsNull() {
			return &object.Field{Ftype: desc, Fvalue: nil}
		}
		return &object.Field{Ftype: desc, Fvalue: c.Slot()}
	case "D":
		return &object.Field{Ftype: desc, Fvalue: c.Double()}
	case "F":
		return &object.Field{Ftype: desc, Fvalue: float64(c.Float())}
	case "J":
		return &object.Field{Ftype: desc, Fvalue: c.Long()}
	default:
		return &object.Field{Ftype: desc, Fvalue: int64(c.Int())}
	}
}

func staticToCell(sf *classloader.StaticField) frames.Cell {
	switch v := sf.Value.(type) {
	case int64:
		if sf.Desc == types.Long {
			return frames.LongCell(v)
		}
		return frames.IntCell(int32(v))
	case float64:
		if sf.Desc == types.Double {
			return frames.DoubleCell(v)
		}
		return frames.FloatCell(float32(v))
	case uint32:
		return frames.RefCell(v)
	default:
		return frames.Null()
	}
}

func cellToStaticValue(c frames.Cell, desc string) interface{} {
	base, _ := util.ParseFieldDescriptor(desc)
	switch base {
	case "L", "[":
		return c.Slot()
	case "D":
		return c.Double()
	case "F":
		return float64(c.Float())
	case "J":
		return c.Long()
	default:
		return int64(c.Int())
	}
}

// checkCast implements CHECKCAST: this engine matches by exact class
// name (see DESIGN.md -- no interface/superclass lattice is resolved
// here), raising ClassCastException on a mismatch. A null reference
// always passes, per JVMS 6.5.checkcast.
func checkCast(eng *Engine, f *frames.Frame, idx int) string {
	ref, _ := f.PeekTop()
	if ref.IsNull() {
		return ""
	}
	className := classloader.GetClassNameFromCPclassref(cpool(f), uint16(idx))
	obj := resolveObj(ref)
	if obj == nil || obj.Klass == nil {
		return ""
	}
	if *obj.Klass != className {
		return excNames.ClassCastException + ": " + *obj.Klass + " cannot be cast to " + className
	}
	return ""
}

// instanceOf implements INSTANCEOF, matching by the same exact-name
// rule as checkCast.
func instanceOf(eng *Engine, f *frames.Frame, idx int) string {
	ref, _ := f.Pop()
	if ref.IsNull() {
		push(f, frames.IntCell(0))
		return ""
	}
	className := classloader.GetClassNameFromCPclassref(cpool(f), uint16(idx))
	obj := resolveObj(ref)
	if obj != nil && obj.Klass != nil && *obj.Klass == className {
		push(f, frames.IntCell(1))
	} else {
		push(f, frames.IntCell(0))
	}
	return ""
}

func athrow(eng *Engine, t *thread.ExecThread, ref frames.Cell) string {
	obj := resolveObj(ref)
	className := "java/lang/Throwable"
	msg := ""
	if obj != nil && obj.Klass != nil {
		className = *obj.Klass
	}
	if obj != nil {
		if fld, ok := obj.FieldTable["message"]; ok && fld != nil {
			if s, ok := fld.Fvalue.([]types.JavaByte); ok {
				msg = object.GoStringFromJavaByteArray(s)
			}
		}
	}
	t.PendingException = &thread.JavaThrowable{ExceptionClass: className, Msg: msg}
	return className + ": " + msg
}

func monitorEnter(t *thread.ExecThread, eng *Engine, f *frames.Frame) string {
	ref, _ := f.Pop()
	obj := resolveObj(ref)
	if obj == nil {
		return excNames.NullPointerException + ": monitorenter on null reference"
	}
	obj.Mark.Lock(t.ID)
	return ""
}

func monitorExit(t *thread.ExecThread, eng *Engine, f *frames.Frame) string {
	ref, _ := f.Pop()
	obj := resolveObj(ref)
	if obj == nil {
		return excNames.NullPointerException + ": monitorexit on null reference"
	}
	if err := obj.Mark.Unlock(t.ID); err != nil {
		return excNames.IllegalMonitorStateException + ": " + err.Error()
	}
	return ""
}
