/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's jvm package invoke-instruction handlers.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"strings"

	"github.com/pkg/errors"

	"govm/classloader"
	"govm/excNames"
	"govm/frames"
	"govm/object"
	"govm/thread"
)

// invoke implements INVOKESTATIC/INVOKESPECIAL/INVOKEVIRTUAL/
// INVOKEINTERFACE: it pops the receiver (unless isStatic) and the
// declared argument cells off the caller's operand stack, resolves the
// target method, and recurses into runMethod on the SAME thread so
// that the Go call stack mirrors the JVM's own frame stack (see
// DESIGN.md). virtual additionally redirects resolution to the
// receiver's actual runtime class rather than the compile-time
// reference, approximating JVMS 5.4.6's virtual method dispatch
// without a full vtable.
func invoke(t *thread.ExecThread, eng *Engine, f *frames.Frame, idx int, isStatic, virtual bool) string {
	className, methName, methSig := classloader.GetMethInfoFromCPmethref(cpool(f), idx)
	nameAndDesc := methName + methSig
	paramCells := countParamCells(methSig)

	args := make([]frames.Cell, paramCells)
	for i := paramCells - 1; i >= 0; i-- {
		c, err := f.Pop()
		if err != nil {
			return excNames.InternalError + ": " + err.Error()
		}
		args[i] = c
	}

	var receiver frames.Cell
	var recvObj *object.Object
	if !isStatic {
		var err error
		receiver, err = f.Pop()
		if err != nil {
			return excNames.InternalError + ": " + err.Error()
		}
		if receiver.IsNull() {
			return excNames.NullPointerException + ": " + className + "." + nameAndDesc
		}
		recvObj = resolveObj(receiver)
	}

	targetClassName := className
	if virtual && recvObj != nil && recvObj.Klass != nil {
		targetClassName = *recvObj.Klass
	}

	class, method, err := resolveMethod(targetClassName, nameAndDesc)
	if err != nil {
		return excNames.NoSuchMethodError + ": " + targetClassName + "." + nameAndDesc
	}

	if err := RunClinit(class); err != nil {
		return excNames.ExceptionInInitializerError + ": " + err.Error()
	}

	callArgs := make([]frames.Cell, 0, paramCells+1)
	if !isStatic {
		callArgs = append(callArgs, receiver)
	}
	callArgs = append(callArgs, args...)

	ret, err := runMethod(class, method, t, callArgs)
	if err != nil {
		return err.Error()
	}
	if returnDescriptor(methSig) != "V" {
		if cell, ok := ret.(frames.Cell); ok {
			push(f, cell)
		}
	}
	return ""
}

// invokeStatic and invokeVirtual exist only to name the two common
// call shapes at each opcode's call site in dispatch.go; invokespecial
// calls invoke directly since it fits neither (no receiver-type
// redispatch, but also not static).
func invokeStatic(t *thread.ExecThread, eng *Engine, f *frames.Frame, idx int) string {
	return invoke(t, eng, f, idx, true, false)
}

func invokeVirtual(t *thread.ExecThread, eng *Engine, f *frames.Frame, idx int) string {
	return invoke(t, eng, f, idx, false, true)
}

// resolveMethod walks className's superclass chain looking for
// nameAndDesc, loading each ancestor as needed, following JVMS
// 5.4.3.3's method-resolution search order (the class itself, then
// each superclass in turn; interface default methods are not
// resolved here, see DESIGN.md).
func resolveMethod(className, nameAndDesc string) (*classloader.Class, *classloader.Method, error) {
	cur, err := classloader.LoadClassFromNameOnly(className)
	if err != nil {
		return nil, nil, err
	}
	for cur != nil {
		if m := cur.GetMethod(nameAndDesc); m != nil {
			return cur, m, nil
		}
		if cur.Super == "" {
			break
		}
		cur, err = classloader.LoadClassFromNameOnly(cur.Super)
		if err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, errors.New("method not found: " + className + "." + nameAndDesc)
}

// countParamCells counts a method descriptor's parameter list as one
// operand-stack cell per declared parameter, matching this engine's
// one-cell-per-value convention (frames.Cell already carries a wide
// enough Bits field for long/double, so unlike the real JVM's
// two-slot local-variable convention, no parameter here ever needs a
// second cell).
func countParamCells(desc string) int {
	n := 0
	i := 1
	for i < len(desc) && desc[i] != ')' {
		switch desc[i] {
		case 'L':
			j := strings.IndexByte(desc[i:], ';')
			if j < 0 {
				i = len(desc)
			} else {
				i += j + 1
			}
		case '[':
			for i < len(desc) && desc[i] == '[' {
				i++
			}
			if i < len(desc) && desc[i] == 'L' {
				j := strings.IndexByte(desc[i:], ';')
				if j < 0 {
					i = len(desc)
				} else {
					i += j + 1
				}
			} else if i < len(desc) {
				i++
			}
		default:
			i++
		}
		n++
	}
	return n
}
