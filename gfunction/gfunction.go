/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's gfunction package (native-method bridge).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction is the bridge between bytecode and Go: every native
// method the engine supports (the handful of java/lang, java/io,
// java/util, and jdk/internal methods listed in the spec's native
// surface) is registered here under its fully qualified name and
// descriptor, so the interpreter can dispatch an invokestatic/
// invokevirtual/invokespecial against a class with no Code attribute
// for that method straight into a Go function.
package gfunction

import (
	"govm/excNames"
	"govm/object"
	"govm/trace"
)

// GFunction is the uniform signature every native method implementation
// satisfies, regardless of the arity or types its Java counterpart
// declares: it receives one entry per argument popped off the caller's
// operand stack (the receiver first for an instance method, then the
// parameters in left-to-right declaration order) and returns either
// a value to push back (nil for void), or a *GErrBlk if it wants to
// raise a Java exception instead.
type GFunction func([]interface{}) interface{}

// GMeth is what MethodSignatures maps a native method's fully qualified
// name+descriptor to: a count of the method's declared parameters as
// registered (ParamSlots), and the Go function to run. The interpreter
// does not read ParamSlots; it sizes the argument slice from the
// method descriptor, plus the receiver for an instance method.
type GMeth struct {
	ParamSlots int
	GFunction  GFunction
}

// MethodSignatures is the global registry every Load_* function in this
// package populates at startup. The interpreter consults it before
// resolving a method the normal way: a hit here means the method runs
// as Go code instead of bytecode.
var MethodSignatures = make(map[string]GMeth)

// GErrBlk carries a pending Java exception back out of a native method.
// The interpreter checks whether a GFunction's return value is a
// *GErrBlk and, if so, raises ExceptionName/ErrMsg through the normal
// throw path instead of treating the value as a method result.
type GErrBlk struct {
	ExceptionName string
	ErrMsg        string
}

// getGErrBlk builds a *GErrBlk for a native method to return directly;
// its signature is interface{} rather than *GErrBlk so that call sites
// can `return getGErrBlk(...)` from a function whose declared return
// type is itself interface{}.
func getGErrBlk(excName, msg string) interface{} {
	return &GErrBlk{ExceptionName: excName, ErrMsg: msg}
}

// justReturn is the GFunction for native methods whose entire Java
// contract is "do nothing" from this engine's point of view --
// registerNatives() and similarly vestigial JDK bootstrap hooks.
func justReturn([]interface{}) interface{} {
	return nil
}

// trapDeprecated stands in for JDK constructors/methods that are
// deprecated in the reference JDK and whose semantics this engine does
// not reproduce; they are accepted (so a class that merely references
// the descriptor still loads and links) but silently become a no-op.
func trapDeprecated(params []interface{}) interface{} {
	trace.Trace("gfunction: call into deprecated, unimplemented native method trapped")
	return nil
}

// trapFunction stands in for native methods this engine has not yet
// implemented (typically charset- or codepoint-aware String
// constructors). Unlike trapDeprecated, reaching one is a bug in the
// calling bytecode's assumptions about what this engine supports, so it
// raises UnsatisfiedLinkError rather than quietly returning.
func trapFunction(params []interface{}) interface{} {
	return getGErrBlk(excNames.UnsatisfiedLinkError, "call into an unimplemented native method")
}

// populator wraps a Go slice (bytes, ints, or object references) into
// the array-shaped Object a bytecode caller expects back from methods
// like String.getBytes() or String.split(), whose return descriptor is
// itself an array type.
func populator(descriptor string, elemType string, data interface{}) *object.Object {
	obj := object.MakeEmptyObject()
	name := descriptor
	obj.Klass = &name
	obj.FieldTable["value"] = &object.Field{Ftype: elemType, Fvalue: data}
	return obj
}

// methodSignaturesLoaded guards against registering the table twice
// (e.g. if interp.Init is called more than once in a test binary).
var methodSignaturesLoaded bool

// LoadGfunctions populates MethodSignatures with every native method
// this engine implements. It must run once before the interpreter
// resolves its first invoke* instruction.
func LoadGfunctions() {
	if methodSignaturesLoaded {
		return
	}
	methodSignaturesLoaded = true

	Load_Io_InputStreamReader()
	Load_Io_PrintStream()
	Load_Lang_Object()
	Load_Lang_String()
	Load_Lang_System()
	Load_Util_HashMap()
	Load_Jdk_Internal_Misc_ScopedMemoryAccess()

	trace.Trace("gfunction: loaded native method table")
}
