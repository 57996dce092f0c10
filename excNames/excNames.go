/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excNames names the JVM exception/error classes the interpreter
// and loader can raise, exactly the set enumerated in §7 of the spec,
// plus the handful of JDK classes referenced by the teacher fragment.
package excNames

// Exception and error class names, in internal (slash) form.
const (
	NullPointerException         = "java/lang/NullPointerException"
	ArrayIndexOutOfBoundsException = "java/lang/ArrayIndexOutOfBoundsException"
	ArithmeticException           = "java/lang/ArithmeticException"
	NegativeArraySizeException    = "java/lang/NegativeArraySizeException"
	ClassCastException            = "java/lang/ClassCastException"
	IllegalMonitorStateException  = "java/lang/IllegalMonitorStateException"
	OutOfMemoryError              = "java/lang/OutOfMemoryError"
	InternalError                 = "java/lang/InternalError"
	NoClassDefFoundError          = "java/lang/NoClassDefFoundError"
	ClassNotFoundException        = "java/lang/ClassNotFoundException"
	IncompatibleClassChangeError  = "java/lang/IncompatibleClassChangeError"
	ExceptionInInitializerError   = "java/lang/ExceptionInInitializerError"
	UnsatisfiedLinkError          = "java/lang/UnsatisfiedLinkError"
	StackOverflowError            = "java/lang/StackOverflowError"
	IOException                  = "java/io/IOException"
	IllegalArgumentException      = "java/lang/IllegalArgumentException"
	IndexOutOfBoundsException     = "java/lang/IndexOutOfBoundsException"
	StringIndexOutOfBoundsException = "java/lang/StringIndexOutOfBoundsException"
	PatternSyntaxException        = "java/util/regex/PatternSyntaxException"
	ClassNotLoadedException       = "java/lang/ClassNotFoundException"
	NoSuchFieldError              = "java/lang/NoSuchFieldError"
	NoSuchMethodError             = "java/lang/NoSuchMethodError"
	InstantiationError            = "java/lang/InstantiationError"
)
