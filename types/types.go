/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds the handful of primitive type definitions that are
// shared across nearly every other package, so that none of them need to
// import a heavier sibling just to name a Java byte or a descriptor char.
package types

// JavaByte is a signed 8-bit Java byte, kept distinct from Go's unsigned
// byte so that string/byte-array conversions can't silently reinterpret
// the sign bit.
type JavaByte int8

// Descriptor field-type characters, per JVMS 4.3.2.
const (
	Byte      = "B"
	Char      = "C"
	Double    = "D"
	Float     = "F"
	Int       = "I"
	Long      = "J"
	Short     = "S"
	Boolean   = "Z"
	Reference = "L"
	Array     = "["
	RefArray  = "[L"
	Void      = "V"
)

// ByteArray and IntArray are the descriptors jacobin-style code uses to
// mark a field whose Fvalue holds a []JavaByte or []int64 respectively.
const (
	ByteArray   = "[B"
	IntArray    = "[I"
	FloatArray  = "[F"
	DoubleArray = "[D"
)

// Bool is an alias for Boolean, matching the shorthand jacobin's own
// gfunction fragment uses in type switches over field descriptors.
const Bool = Boolean

// StringClassName is the internal name of java/lang/String, used
// wherever gfunction code needs to compare against or construct a
// String object's class reference.
const StringClassName = "java/lang/String"

// JavaBoolTrue and JavaBoolFalse are the canonical int64 encodings the
// interpreter uses for boolean values on the operand stack, per JVMS
// 2.3.4 (booleans are represented as ints, 1 for true, 0 for false).
const (
	JavaBoolFalse int64 = 0
	JavaBoolTrue  int64 = 1
)

// InvalidStringIndex marks a string-pool index that was never assigned.
const InvalidStringIndex uint32 = 0xFFFFFFFF

// ObjectPoolStringIndex is the well-known string-pool index of
// "java/lang/Object", used by the loader to stop the superclass walk.
const ObjectPoolStringIndex uint32 = 1

// StringPoolStringIndex is the well-known string-pool index of
// "java/lang/String".
const StringPoolStringIndex uint32 = 2
