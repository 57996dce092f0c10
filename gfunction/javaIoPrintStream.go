/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"fmt"

	"govm/object"
	"govm/types"
)

func Load_Io_PrintStream() {

	MethodSignatures["java/io/PrintStream.println(Ljava/lang/String;)V"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  printStreamPrintlnString,
		}

	MethodSignatures["java/io/PrintStream.println()V"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  printStreamPrintlnVoid,
		}

	MethodSignatures["java/io/PrintStream.println(I)V"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  printStreamPrintlnInt,
		}

	MethodSignatures["java/io/PrintStream.print(Ljava/lang/String;)V"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  printStreamPrintString,
		}
}

// params[0] is the receiver (the PrintStream instance, e.g.
// java/lang/System.out); this engine does not distinguish stdout from
// stderr streams, since it never materializes more than one.

// "java/io/PrintStream.println(Ljava/lang/String;)V"
func printStreamPrintlnString(params []interface{}) interface{} {
	fmt.Println(stringArg(params[1]))
	return nil
}

// "java/io/PrintStream.println()V"
func printStreamPrintlnVoid(params []interface{}) interface{} {
	fmt.Println()
	return nil
}

// "java/io/PrintStream.println(I)V"
func printStreamPrintlnInt(params []interface{}) interface{} {
	n, _ := params[1].(int64)
	fmt.Println(n)
	return nil
}

// "java/io/PrintStream.print(Ljava/lang/String;)V"
func printStreamPrintString(params []interface{}) interface{} {
	fmt.Print(stringArg(params[1]))
	return nil
}

// stringArg extracts the Go string backing a java/lang/String argument,
// tolerating a nil reference (Java's println(null) prints "null").
func stringArg(v interface{}) string {
	obj, ok := v.(*object.Object)
	if !ok || obj == nil {
		return "null"
	}
	fld := obj.FieldTable["value"]
	if fld == nil {
		return ""
	}
	jb, ok := fld.Fvalue.([]types.JavaByte)
	if !ok {
		return ""
	}
	return object.GoStringFromJavaByteArray(jb)
}
