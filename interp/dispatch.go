/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * wazero's interpreter engine (callNativeFunc's switch-per-opcode
 * dispatch loop) and the Jacobin VM's jvm package's frame-execution
 * conventions (operand stack/locals addressed through frames.Frame).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"govm/classloader"
	"govm/excNames"
	"govm/frames"
	"govm/opcodes"
	"govm/thread"
)

// RunFrame executes the thread's current (front) frame until it
// returns, throws past its own exception table, or a safepoint is
// requested mid-flight. The return value is whatever the frame's
// return instruction produced (nil for void/no value), and a non-nil
// error means the frame unwound with a pending exception its own
// exception table could not handle -- the caller (runMethod, or this
// function's own invoke-instruction handler one level up the Go call
// stack) is responsible for checking its own handlers against it.
func RunFrame(t *thread.ExecThread, eng *Engine) (interface{}, error) {
	f := frames.PeekFrame(t.FrameStack)
	if f == nil {
		return nil, errors.New("RunFrame: no current frame")
	}

	for {
		t.CheckSafepoint()

		if f.PC >= len(f.Code) {
			return nil, errors.Errorf("%s.%s: fell off the end of bytecode", f.ClName, f.MethName)
		}
		op := f.Code[f.PC]
		startPC := f.PC
		f.PC++

		ret, done, excMsg := step(t, eng, f, op)
		if excMsg != "" {
			if handled := tryHandle(t, f, startPC, excMsg); handled {
				continue
			}
			return nil, errors.New(excMsg)
		}
		if done {
			return ret, nil
		}
	}
}

// tryHandle looks up f's exception table for a handler covering pc,
// matching by exact thrown-class name (see DESIGN.md: this engine does
// not load the built-in java/lang exception hierarchy as real classes,
// so handler matching is by name rather than a superclass walk). On a
// match, it clears the operand stack, pushes a reference to the
// exception placeholder, and moves PC to the handler.
func tryHandle(t *thread.ExecThread, f *frames.Frame, pc int, excMsg string) bool {
	excClass, _ := splitExcMsg(excMsg)
	for _, eh := range f.ExceptionTable {
		if pc < eh.StartPC || pc >= eh.EndPC {
			continue
		}
		catchName := ""
		if eh.CatchType != 0 {
			if cp, ok := f.CPool.(*classloader.CPool); ok {
				catchName = classloader.GetClassNameFromCPclassref(cp, eh.CatchType)
			}
		}
		if catchName != "" && catchName != excClass {
			continue
		}
		f.OpStack = f.OpStack[:0]
		_ = f.Push(frames.RefCell(0)) // placeholder: the exception object itself isn't materialized (see DESIGN.md)
		f.PC = eh.HandlerPC
		t.PendingException = nil
		return true
	}
	return false
}

func splitExcMsg(msg string) (class, text string) {
	for i := 0; i < len(msg); i++ {
		if msg[i] == ':' {
			return msg[:i], msg[i+1:]
		}
	}
	return msg, ""
}

// step executes one instruction. It returns (returnValue, true, "") on
// a return instruction, (nil, false, "") to continue, or (nil, false,
// excMsg) when the instruction raised a JVM exception ("ExcClass: msg"
// shaped, matching globals.FuncThrowException's convention).
func step(t *thread.ExecThread, eng *Engine, f *frames.Frame, op byte) (interface{}, bool, string) {
	switch op {
	case opcodes.NOP:
		// nothing

	case opcodes.ACONST_NULL:
		push(f, frames.Null())
	case opcodes.ICONST_M1, opcodes.ICONST_0, opcodes.ICONST_1, opcodes.ICONST_2,
		opcodes.ICONST_3, opcodes.ICONST_4, opcodes.ICONST_5:
		push(f, frames.IntCell(int32(op)-int32(opcodes.ICONST_0)))
	case opcodes.LCONST_0, opcodes.LCONST_1:
		push(f, frames.LongCell(int64(op)-int64(opcodes.LCONST_0)))
	case opcodes.FCONST_0, opcodes.FCONST_1, opcodes.FCONST_2:
		push(f, frames.FloatCell(float32(op)-float32(opcodes.FCONST_0)))
	case opcodes.DCONST_0, opcodes.DCONST_1:
		push(f, frames.DoubleCell(float64(op)-float64(opcodes.DCONST_0)))

	case opcodes.BIPUSH:
		v := int32(int8(f.Code[f.PC]))
		f.PC++
		push(f, frames.IntCell(v))
	case opcodes.SIPUSH:
		v := int32(int16(u16(f.Code, f.PC)))
		f.PC += 2
		push(f, frames.IntCell(v))

	case opcodes.LDC:
		idx := int(f.Code[f.PC])
		f.PC++
		return nil, false, ldc(f, idx)
	case opcodes.LDC_W:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, ldc(f, idx)
	case opcodes.LDC2_W:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, ldc2(f, idx)

	case opcodes.ILOAD, opcodes.FLOAD, opcodes.ALOAD:
		idx := int(f.Code[f.PC])
		f.PC++
		loadLocal(f, idx)
	case opcodes.LLOAD, opcodes.DLOAD:
		idx := int(f.Code[f.PC])
		f.PC++
		loadLocal2(f, idx)
	case opcodes.ILOAD_0, opcodes.ILOAD_1, opcodes.ILOAD_2, opcodes.ILOAD_3:
		loadLocal(f, int(op-opcodes.ILOAD_0))
	case opcodes.FLOAD_0, opcodes.FLOAD_1, opcodes.FLOAD_2, opcodes.FLOAD_3:
		loadLocal(f, int(op-opcodes.FLOAD_0))
	case opcodes.ALOAD_0, opcodes.ALOAD_1, opcodes.ALOAD_2, opcodes.ALOAD_3:
		loadLocal(f, int(op-opcodes.ALOAD_0))
	case opcodes.LLOAD_0, opcodes.LLOAD_1, opcodes.LLOAD_2, opcodes.LLOAD_3:
		loadLocal2(f, int(op-opcodes.LLOAD_0))
	case opcodes.DLOAD_0, opcodes.DLOAD_1, opcodes.DLOAD_2, opcodes.DLOAD_3:
		loadLocal2(f, int(op-opcodes.DLOAD_0))

	case opcodes.ISTORE, opcodes.FSTORE, opcodes.ASTORE:
		idx := int(f.Code[f.PC])
		f.PC++
		storeLocal(f, idx)
	case opcodes.LSTORE, opcodes.DSTORE:
		idx := int(f.Code[f.PC])
		f.PC++
		storeLocal2(f, idx)
	case opcodes.ISTORE_0, opcodes.ISTORE_1, opcodes.ISTORE_2, opcodes.ISTORE_3:
		storeLocal(f, int(op-opcodes.ISTORE_0))
	case opcodes.FSTORE_0, opcodes.FSTORE_1, opcodes.FSTORE_2, opcodes.FSTORE_3:
		storeLocal(f, int(op-opcodes.FSTORE_0))
	case opcodes.ASTORE_0, opcodes.ASTORE_1, opcodes.ASTORE_2, opcodes.ASTORE_3:
		storeLocal(f, int(op-opcodes.ASTORE_0))
	case opcodes.LSTORE_0, opcodes.LSTORE_1, opcodes.LSTORE_2, opcodes.LSTORE_3:
		storeLocal2(f, int(op-opcodes.LSTORE_0))
	case opcodes.DSTORE_0, opcodes.DSTORE_1, opcodes.DSTORE_2, opcodes.DSTORE_3:
		storeLocal2(f, int(op-opcodes.DSTORE_0))

	case opcodes.IINC:
		idx := int(f.Code[f.PC])
		delta := int32(int8(f.Code[f.PC+1]))
		f.PC += 2
		c, _ := f.GetLocal(idx)
		_ = f.SetLocal(idx, frames.IntCell(c.Int()+delta))

	case opcodes.POP:
		_, _ = f.Pop()
	case opcodes.POP2:
		// JVMS 6.5.pop2: one category-2 value (a single Cell here) or two
		// category-1 values.
		c, _ := f.Pop()
		if !c.Tag.IsCategory2() {
			_, _ = f.Pop()
		}
	case opcodes.DUP:
		c, _ := f.PeekTop()
		push(f, c)
	case opcodes.DUP_X1:
		a, _ := f.Pop()
		b, _ := f.Pop()
		push(f, a)
		push(f, b)
		push(f, a)
	case opcodes.DUP_X2:
		a, _ := f.Pop()
		b, _ := f.Pop()
		c, _ := f.Pop()
		push(f, a)
		push(f, c)
		push(f, b)
		push(f, a)
	case opcodes.DUP2:
		// Form 2 (JVMS 6.5.dup2): a lone category-2 value duplicates
		// itself. Form 1: two category-1 values duplicate as a pair.
		a, _ := f.Pop()
		if a.Tag.IsCategory2() {
			push(f, a)
			push(f, a)
		} else {
			b, _ := f.Pop()
			push(f, b)
			push(f, a)
			push(f, b)
			push(f, a)
		}
	case opcodes.DUP2_X2:
		// Implements DUP2_X2 first since DUP2_X1 is the category-1-only
		// special case of it; a is always value1, b value2.
		a, _ := f.Pop()
		if a.Tag.IsCategory2() {
			b, _ := f.Pop()
			if b.Tag.IsCategory2() {
				// form 4: value1, value2 both category-2.
				push(f, a)
				push(f, b)
				push(f, a)
			} else {
				// form 2: value1 category-2; value2, value3 category-1.
				c, _ := f.Pop()
				push(f, a)
				push(f, c)
				push(f, b)
				push(f, a)
			}
		} else {
			b, _ := f.Pop()
			c, _ := f.Pop()
			if c.Tag.IsCategory2() {
				// form 3: value1, value2 category-1; value3 category-2.
				push(f, b)
				push(f, a)
				push(f, c)
				push(f, b)
				push(f, a)
			} else {
				// form 1: all four category-1.
				d, _ := f.Pop()
				push(f, b)
				push(f, a)
				push(f, d)
				push(f, c)
				push(f, b)
				push(f, a)
			}
		}
	case opcodes.DUP2_X1:
		// Form 2 (JVMS 6.5.dup2_x1): value1 category-2, value2
		// category-1. Form 1: value1, value2, value3 all category-1.
		a, _ := f.Pop()
		b, _ := f.Pop()
		if a.Tag.IsCategory2() {
			push(f, a)
			push(f, b)
			push(f, a)
		} else {
			c, _ := f.Pop()
			push(f, b)
			push(f, a)
			push(f, c)
			push(f, b)
			push(f, a)
		}
	case opcodes.SWAP:
		a, _ := f.Pop()
		b, _ := f.Pop()
		push(f, a)
		push(f, b)

	case opcodes.IADD:
		return nil, false, binInt(f, func(a, b int32) int32 { return a + b })
	case opcodes.ISUB:
		return nil, false, binInt(f, func(a, b int32) int32 { return a - b })
	case opcodes.IMUL:
		return nil, false, binInt(f, func(a, b int32) int32 { return a * b })
	case opcodes.IDIV:
		return nil, false, binIntChecked(f, func(a, b int32) (int32, string) {
			if b == 0 {
				return 0, excNames.ArithmeticException + ": / by zero"
			}
			return a / b, ""
		})
	case opcodes.IREM:
		return nil, false, binIntChecked(f, func(a, b int32) (int32, string) {
			if b == 0 {
				return 0, excNames.ArithmeticException + ": / by zero"
			}
			return a % b, ""
		})
	case opcodes.INEG:
		a, _ := f.Pop()
		push(f, frames.IntCell(-a.Int()))
	case opcodes.ISHL:
		return nil, false, binInt(f, func(a, b int32) int32 { return a << (uint32(b) & 31) })
	case opcodes.ISHR:
		return nil, false, binInt(f, func(a, b int32) int32 { return a >> (uint32(b) & 31) })
	case opcodes.IUSHR:
		return nil, false, binInt(f, func(a, b int32) int32 { return int32(uint32(a) >> (uint32(b) & 31)) })
	case opcodes.IAND:
		return nil, false, binInt(f, func(a, b int32) int32 { return a & b })
	case opcodes.IOR:
		return nil, false, binInt(f, func(a, b int32) int32 { return a | b })
	case opcodes.IXOR:
		return nil, false, binInt(f, func(a, b int32) int32 { return a ^ b })

	case opcodes.LADD:
		return nil, false, binLong(f, func(a, b int64) int64 { return a + b })
	case opcodes.LSUB:
		return nil, false, binLong(f, func(a, b int64) int64 { return a - b })
	case opcodes.LMUL:
		return nil, false, binLong(f, func(a, b int64) int64 { return a * b })
	case opcodes.LDIV:
		return nil, false, binLongChecked(f, func(a, b int64) (int64, string) {
			if b == 0 {
				return 0, excNames.ArithmeticException + ": / by zero"
			}
			return a / b, ""
		})
	case opcodes.LREM:
		return nil, false, binLongChecked(f, func(a, b int64) (int64, string) {
			if b == 0 {
				return 0, excNames.ArithmeticException + ": / by zero"
			}
			return a % b, ""
		})
	case opcodes.LNEG:
		a, _ := f.Pop()
		push(f, frames.LongCell(-a.Long()))
	case opcodes.LSHL:
		a, _ := f.Pop()
		v, _ := f.Pop()
		push(f, frames.LongCell(v.Long()<<(uint32(a.Int())&63)))
	case opcodes.LSHR:
		a, _ := f.Pop()
		v, _ := f.Pop()
		push(f, frames.LongCell(v.Long()>>(uint32(a.Int())&63)))
	case opcodes.LUSHR:
		a, _ := f.Pop()
		v, _ := f.Pop()
		push(f, frames.LongCell(int64(uint64(v.Long())>>(uint32(a.Int())&63))))
	case opcodes.LAND:
		return nil, false, binLong(f, func(a, b int64) int64 { return a & b })
	case opcodes.LOR:
		return nil, false, binLong(f, func(a, b int64) int64 { return a | b })
	case opcodes.LXOR:
		return nil, false, binLong(f, func(a, b int64) int64 { return a ^ b })

	case opcodes.FADD:
		return nil, false, binFloat(f, func(a, b float32) float32 { return a + b })
	case opcodes.FSUB:
		return nil, false, binFloat(f, func(a, b float32) float32 { return a - b })
	case opcodes.FMUL:
		return nil, false, binFloat(f, func(a, b float32) float32 { return a * b })
	case opcodes.FDIV:
		return nil, false, binFloat(f, func(a, b float32) float32 { return a / b })
	case opcodes.FREM:
		return nil, false, binFloat(f, func(a, b float32) float32 { return float32(math.Mod(float64(a), float64(b))) })
	case opcodes.FNEG:
		a, _ := f.Pop()
		push(f, frames.FloatCell(-a.Float()))

	case opcodes.DADD:
		return nil, false, binDouble(f, func(a, b float64) float64 { return a + b })
	case opcodes.DSUB:
		return nil, false, binDouble(f, func(a, b float64) float64 { return a - b })
	case opcodes.DMUL:
		return nil, false, binDouble(f, func(a, b float64) float64 { return a * b })
	case opcodes.DDIV:
		return nil, false, binDouble(f, func(a, b float64) float64 { return a / b })
	case opcodes.DREM:
		return nil, false, binDouble(f, math.Mod)
	case opcodes.DNEG:
		a, _ := f.Pop()
		push(f, frames.DoubleCell(-a.Double()))

	case opcodes.I2L:
		a, _ := f.Pop()
		push(f, frames.LongCell(int64(a.Int())))
	case opcodes.I2F:
		a, _ := f.Pop()
		push(f, frames.FloatCell(float32(a.Int())))
	case opcodes.I2D:
		a, _ := f.Pop()
		push(f, frames.DoubleCell(float64(a.Int())))
	case opcodes.L2I:
		a, _ := f.Pop()
		push(f, frames.IntCell(int32(a.Long())))
	case opcodes.L2F:
		a, _ := f.Pop()
		push(f, frames.FloatCell(float32(a.Long())))
	case opcodes.L2D:
		a, _ := f.Pop()
		push(f, frames.DoubleCell(float64(a.Long())))
	case opcodes.F2I:
		a, _ := f.Pop()
		push(f, frames.IntCell(int32(a.Float())))
	case opcodes.F2L:
		a, _ := f.Pop()
		push(f, frames.LongCell(int64(a.Float())))
	case opcodes.F2D:
		a, _ := f.Pop()
		push(f, frames.DoubleCell(float64(a.Float())))
	case opcodes.D2I:
		a, _ := f.Pop()
		push(f, frames.IntCell(int32(a.Double())))
	case opcodes.D2L:
		a, _ := f.Pop()
		push(f, frames.LongCell(int64(a.Double())))
	case opcodes.D2F:
		a, _ := f.Pop()
		push(f, frames.FloatCell(float32(a.Double())))
	case opcodes.I2B:
		a, _ := f.Pop()
		push(f, frames.IntCell(int32(int8(a.Int()))))
	case opcodes.I2C:
		a, _ := f.Pop()
		push(f, frames.IntCell(int32(uint16(a.Int()))))
	case opcodes.I2S:
		a, _ := f.Pop()
		push(f, frames.IntCell(int32(int16(a.Int()))))

	case opcodes.LCMP:
		b, _ := f.Pop()
		a, _ := f.Pop()
		push(f, frames.IntCell(cmp64(a.Long(), b.Long())))
	case opcodes.FCMPL, opcodes.FCMPG:
		b, _ := f.Pop()
		a, _ := f.Pop()
		push(f, frames.IntCell(fcmp(float64(a.Float()), float64(b.Float()), op == opcodes.FCMPG)))
	case opcodes.DCMPL, opcodes.DCMPG:
		b, _ := f.Pop()
		a, _ := f.Pop()
		push(f, frames.IntCell(fcmp(a.Double(), b.Double(), op == opcodes.DCMPG)))

	case opcodes.IFEQ, opcodes.IFNE, opcodes.IFLT, opcodes.IFGE, opcodes.IFGT, opcodes.IFLE:
		branchIf(f, startPC, int32(op), func() int32 { a, _ := f.Pop(); return a.Int() })
	case opcodes.IF_ICMPEQ, opcodes.IF_ICMPNE, opcodes.IF_ICMPLT, opcodes.IF_ICMPGE,
		opcodes.IF_ICMPGT, opcodes.IF_ICMPLE:
		b, _ := f.Pop()
		a, _ := f.Pop()
		branchIfICmp(f, startPC, op, a.Int(), b.Int())
	case opcodes.IF_ACMPEQ, opcodes.IF_ACMPNE:
		b, _ := f.Pop()
		a, _ := f.Pop()
		eq := a.Slot() == b.Slot()
		if (op == opcodes.IF_ACMPEQ) == eq {
			f.PC = startPC + int(int16(u16(f.Code, startPC+1)))
		} else {
			f.PC = startPC + 3
		}
	case opcodes.IFNULL, opcodes.IFNONNULL:
		a, _ := f.Pop()
		if (op == opcodes.IFNULL) == a.IsNull() {
			f.PC = startPC + int(int16(u16(f.Code, startPC+1)))
		} else {
			f.PC = startPC + 3
		}
	case opcodes.GOTO:
		f.PC = startPC + int(int16(u16(f.Code, startPC+1)))
	case opcodes.GOTO_W:
		f.PC = startPC + int(int32(binary.BigEndian.Uint32(f.Code[startPC+1:])))
	case opcodes.JSR:
		target := startPC + int(int16(u16(f.Code, startPC+1)))
		push(f, frames.ReturnAddrCell(startPC+3))
		f.PC = target
	case opcodes.JSR_W:
		target := startPC + int(int32(binary.BigEndian.Uint32(f.Code[startPC+1:])))
		push(f, frames.ReturnAddrCell(startPC+5))
		f.PC = target
	case opcodes.RET:
		idx := int(f.Code[f.PC])
		f.PC++
		c, _ := f.GetLocal(idx)
		f.PC = int(c.Slot())

	case opcodes.TABLESWITCH:
		tableSwitch(f, startPC)
	case opcodes.LOOKUPSWITCH:
		lookupSwitch(f, startPC)

	case opcodes.IRETURN, opcodes.FRETURN, opcodes.ARETURN, opcodes.LRETURN, opcodes.DRETURN:
		a, _ := f.Pop()
		return a, true, ""
	case opcodes.RETURN:
		return nil, true, ""

	case opcodes.IALOAD, opcodes.LALOAD, opcodes.FALOAD, opcodes.DALOAD,
		opcodes.AALOAD, opcodes.BALOAD, opcodes.CALOAD, opcodes.SALOAD:
		return nil, false, arrayLoad(f, op)
	case opcodes.IASTORE, opcodes.LASTORE, opcodes.FASTORE, opcodes.DASTORE,
		opcodes.AASTORE, opcodes.BASTORE, opcodes.CASTORE, opcodes.SASTORE:
		return nil, false, arrayStore(f, op)
	case opcodes.ARRAYLENGTH:
		return nil, false, arrayLengthOp(f)
	case opcodes.NEWARRAY:
		atype := f.Code[f.PC]
		f.PC++
		return nil, false, newArray(eng, f, atype)
	case opcodes.ANEWARRAY:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, anewArray(eng, f, idx)
	case opcodes.MULTIANEWARRAY:
		idx := int(u16(f.Code, f.PC))
		dims := int(f.Code[f.PC+2])
		f.PC += 3
		return nil, false, multiAnewArray(eng, f, idx, dims)

	case opcodes.NEW:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, newObject(eng, f, idx)
	case opcodes.GETFIELD:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, getField(f, idx)
	case opcodes.PUTFIELD:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, putField(f, idx)
	case opcodes.GETSTATIC:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, getStatic(eng, f, idx)
	case opcodes.PUTSTATIC:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, putStatic(eng, f, idx)

	case opcodes.INVOKESTATIC:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, invokeStatic(t, eng, f, idx)
	case opcodes.INVOKESPECIAL:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, invoke(t, eng, f, idx, false, false)
	case opcodes.INVOKEVIRTUAL:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, invokeVirtual(t, eng, f, idx)
	case opcodes.INVOKEINTERFACE:
		idx := int(u16(f.Code, f.PC))
		f.PC += 4 // count + trailing zero byte, per JVMS 6.5.invokeinterface
		return nil, false, invokeVirtual(t, eng, f, idx)

	case opcodes.CHECKCAST:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, checkCast(eng, f, idx)
	case opcodes.INSTANCEOF:
		idx := int(u16(f.Code, f.PC))
		f.PC += 2
		return nil, false, instanceOf(eng, f, idx)

	case opcodes.ATHROW:
		a, _ := f.Pop()
		return nil, false, athrow(eng, t, a)

	case opcodes.MONITORENTER:
		return nil, false, monitorEnter(t, eng, f)
	case opcodes.MONITOREXIT:
		return nil, false, monitorExit(t, eng, f)

	case opcodes.WIDE:
		return nil, false, wide(f)

	default:
		return nil, false, errors.Errorf("%s: unimplemented opcode", opcodes.Name(op)).Error()
	}
	return nil, false, ""
}

func push(f *frames.Frame, c frames.Cell) { _ = f.Push(c) }

func u16(code []byte, at int) uint16 { return binary.BigEndian.Uint16(code[at:]) }

func loadLocal(f *frames.Frame, idx int) {
	c, _ := f.GetLocal(idx)
	push(f, c)
}

func loadLocal2(f *frames.Frame, idx int) {
	c, _ := f.GetLocal(idx)
	push(f, c)
}

func storeLocal(f *frames.Frame, idx int) {
	c, _ := f.Pop()
	_ = f.SetLocal(idx, c)
}

func storeLocal2(f *frames.Frame, idx int) {
	c, _ := f.Pop()
	_ = f.SetLocal(idx, c)
}

func binInt(f *frames.Frame, op func(a, b int32) int32) string {
	b, _ := f.Pop()
	a, _ := f.Pop()
	push(f, frames.IntCell(op(a.Int(), b.Int())))
	return ""
}

func binIntChecked(f *frames.Frame, op func(a, b int32) (int32, string)) string {
	b, _ := f.Pop()
	a, _ := f.Pop()
	v, excMsg := op(a.Int(), b.Int())
	if excMsg != "" {
		return excMsg
	}
	push(f, frames.IntCell(v))
	return ""
}

func binLong(f *frames.Frame, op func(a, b int64) int64) string {
	b, _ := f.Pop()
	a, _ := f.Pop()
	push(f, frames.LongCell(op(a.Long(), b.Long())))
	return ""
}

func binLongChecked(f *frames.Frame, op func(a, b int64) (int64, string)) string {
	b, _ := f.Pop()
	a, _ := f.Pop()
	v, excMsg := op(a.Long(), b.Long())
	if excMsg != "" {
		return excMsg
	}
	push(f, frames.LongCell(v))
	return ""
}

func binFloat(f *frames.Frame, op func(a, b float32) float32) string {
	b, _ := f.Pop()
	a, _ := f.Pop()
	push(f, frames.FloatCell(op(a.Float(), b.Float())))
	return ""
}

func binDouble(f *frames.Frame, op func(a, b float64) float64) string {
	b, _ := f.Pop()
	a, _ := f.Pop()
	push(f, frames.DoubleCell(op(a.Double(), b.Double())))
	return ""
}

func cmp64(a, b int64) int32 {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// fcmp implements FCMPL/FCMPG/DCMPL/DCMPG per JVMS 6.5: a NaN operand
// makes the comparison result -1 for the "l" (less) forms or 1 for the
// "g" (greater) forms.
func fcmp(a, b float64, nanIsGreater bool) int32 {
	if math.IsNaN(a) || math.IsNaN(b) {
		if nanIsGreater {
			return 1
		}
		return -1
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func branchIf(f *frames.Frame, startPC int, op int32, pop func() int32) {
	v := pop()
	taken := false
	switch byte(op) {
	case opcodes.IFEQ:
		taken = v == 0
	case opcodes.IFNE:
		taken = v != 0
	case opcodes.IFLT:
		taken = v < 0
	case opcodes.IFGE:
		taken = v >= 0
	case opcodes.IFGT:
		taken = v > 0
	case opcodes.IFLE:
		taken = v <= 0
	}
	if taken {
		f.PC = startPC + int(int16(u16(f.Code, startPC+1)))
	} else {
		f.PC = startPC + 3
	}
}

func branchIfICmp(f *frames.Frame, startPC int, op byte, a, b int32) {
	taken := false
	switch op {
	case opcodes.IF_ICMPEQ:
		taken = a == b
	case opcodes.IF_ICMPNE:
		taken = a != b
	case opcodes.IF_ICMPLT:
		taken = a < b
	case opcodes.IF_ICMPGE:
		taken = a >= b
	case opcodes.IF_ICMPGT:
		taken = a > b
	case opcodes.IF_ICMPLE:
		taken = a <= b
	}
	if taken {
		f.PC = startPC + int(int16(u16(f.Code, startPC+1)))
	} else {
		f.PC = startPC + 3
	}
}

// tableSwitch implements JVMS 6.5.tableswitch: padding to a 4-byte
// boundary from the opcode's own address, then default/low/high/jump
// offsets, all relative to startPC.
func tableSwitch(f *frames.Frame, startPC int) {
	pos := align4(startPC + 1)
	def := int32(binary.BigEndian.Uint32(f.Code[pos:]))
	low := int32(binary.BigEndian.Uint32(f.Code[pos+4:]))
	high := int32(binary.BigEndian.Uint32(f.Code[pos+8:]))
	key, _ := f.Pop()
	idx := key.Int()
	if idx < low || idx > high {
		f.PC = startPC + int(def)
		return
	}
	offPos := pos + 12 + int(idx-low)*4
	off := int32(binary.BigEndian.Uint32(f.Code[offPos:]))
	f.PC = startPC + int(off)
}

// lookupSwitch implements JVMS 6.5.lookupswitch: padding, default
// offset, npairs, then npairs (match, offset) pairs sorted ascending
// by match.
func lookupSwitch(f *frames.Frame, startPC int) {
	pos := align4(startPC + 1)
	def := int32(binary.BigEndian.Uint32(f.Code[pos:]))
	npairs := int32(binary.BigEndian.Uint32(f.Code[pos+4:]))
	key, _ := f.Pop()
	idx := key.Int()
	base := pos + 8
	for i := int32(0); i < npairs; i++ {
		m := int32(binary.BigEndian.Uint32(f.Code[base+int(i)*8:]))
		if m == idx {
			off := int32(binary.BigEndian.Uint32(f.Code[base+int(i)*8+4:]))
			f.PC = startPC + int(off)
			return
		}
	}
	f.PC = startPC + int(def)
}

func align4(pos int) int {
	for pos%4 != 0 {
		pos++
	}
	return pos
}

// wide implements the WIDE prefix (JVMS 6.5.wide): it re-reads the
// following opcode with a 2-byte local-variable index (or, for iinc, a
// 2-byte index plus a 2-byte signed constant) instead of the normal
// 1-byte form.
func wide(f *frames.Frame) string {
	op := f.Code[f.PC]
	f.PC++
	idx := int(u16(f.Code, f.PC))
	f.PC += 2
	switch op {
	case opcodes.ILOAD, opcodes.FLOAD, opcodes.ALOAD:
		loadLocal(f, idx)
	case opcodes.LLOAD, opcodes.DLOAD:
		loadLocal2(f, idx)
	case opcodes.ISTORE, opcodes.FSTORE, opcodes.ASTORE:
		storeLocal(f, idx)
	case opcodes.LSTORE, opcodes.DSTORE:
		storeLocal2(f, idx)
	case opcodes.IINC:
		delta := int32(int16(u16(f.Code, f.PC)))
		f.PC += 2
		c, _ := f.GetLocal(idx)
		_ = f.SetLocal(idx, frames.IntCell(c.Int()+delta))
	case opcodes.RET:
		c, _ := f.GetLocal(idx)
		f.PC = int(c.Slot())
	default:
		return errors.Errorf("wide: unsupported opcode %s", opcodes.Name(op)).Error()
	}
	return ""
}
