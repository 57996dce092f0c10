/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's gfunction/javaLangString.go native-method bindings.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"fmt"
	"unicode/utf16"

	"govm/classloader"
	"govm/excNames"
	"govm/object"
	"govm/types"
)

// Load_Lang_String registers the java/lang/String native surface this
// engine actually exercises: construction from a byte array, the
// content-based methods println's byte-for-byte formatting depends on,
// and the handful of query methods a fabricated-bytecode test scenario
// can reach without a full javac-compiled String.class on the
// classpath. The much larger native surface the real JDK's String
// class exposes (charset-aware constructors, regexp-backed methods,
// locale-aware formatting) is out of scope until a scenario needs it --
// see DESIGN.md for what was trimmed and why.
func Load_Lang_String() {

	MethodSignatures["java/lang/String.<clinit>()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  stringClinit,
		}

	MethodSignatures["java/lang/String.<init>()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  newEmptyString,
		}

	MethodSignatures["java/lang/String.<init>([B)V"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  newStringFromBytes,
		}

	MethodSignatures["java/lang/String.length()I"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  stringLength,
		}

	MethodSignatures["java/lang/String.charAt(I)C"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringCharAt,
		}

	MethodSignatures["java/lang/String.equals(Ljava/lang/Object;)Z"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringEquals,
		}

	MethodSignatures["java/lang/String.hashCode()I"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  stringHashCode,
		}

	MethodSignatures["java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringConcat,
		}

	MethodSignatures["java/lang/String.substring(I)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  substringToTheEnd,
		}

	MethodSignatures["java/lang/String.substring(II)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  substringStartEnd,
		}

	MethodSignatures["java/lang/String.toString()Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  stringToString,
		}
}

// "java/lang/String.<init>()V"
func newEmptyString(params []interface{}) interface{} {
	object.UpdateStringObjectFromBytes(params[0].(*object.Object), []byte{})
	return nil
}

// "java/lang/String.<init>([B)V"
func newStringFromBytes(params []interface{}) interface{} {
	bytes := object.ByteArrayFromStringObject(params[1].(*object.Object))
	object.UpdateStringObjectFromBytes(params[0].(*object.Object), bytes)
	return nil
}

// "java/lang/String.<clinit>()V" -- String class initialisation
func stringClinit([]interface{}) interface{} {
	klass := classloader.MethAreaFetch(types.StringClassName)
	if klass == nil {
		errMsg := fmt.Sprintf("Could not find class %s in the MethodArea", types.StringClassName)
		return getGErrBlk(excNames.ClassNotLoadedException, errMsg)
	}
	klass.SetStatus(classloader.StatusInitialized)
	return nil
}

// "java/lang/String.length()I"
func stringLength(params []interface{}) interface{} {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	return int64(len([]rune(str)))
}

// "java/lang/String.charAt(I)C"
func stringCharAt(params []interface{}) interface{} {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	runeArray := []rune(str)
	index := params[1].(int64)
	if index < 0 || index >= int64(len(runeArray)) {
		errMsg := fmt.Sprintf("charAt: index %d out of bounds for length %d", index, len(runeArray))
		return getGErrBlk(excNames.StringIndexOutOfBoundsException, errMsg)
	}
	return int64(runeArray[index])
}

// "java/lang/String.equals(Ljava/lang/Object;)Z"
func stringEquals(params []interface{}) interface{} {
	this := object.GoStringFromStringObject(params[0].(*object.Object))
	other, ok := params[1].(*object.Object)
	if !ok || other == nil {
		return types.JavaBoolFalse
	}
	if this == object.GoStringFromStringObject(other) {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}

// "java/lang/String.hashCode()I", the JDK's published algorithm:
// s[0]*31^(n-1) + s[1]*31^(n-2) + ... + s[n-1], computed over the
// string's UTF-16 code units. Unlike java/lang/Object.hashCode() (see
// javaLangObject.go), this is a content hash, not an identity one --
// two distinct String objects with the same characters must collide.
func stringHashCode(params []interface{}) interface{} {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	var h int32
	for _, u := range utf16.Encode([]rune(str)) {
		h = 31*h + int32(u)
	}
	return int64(h)
}

// "java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;"
func stringConcat(params []interface{}) interface{} {
	this := object.GoStringFromStringObject(params[0].(*object.Object))
	other := object.GoStringFromStringObject(params[1].(*object.Object))
	return object.StringObjectFromGoString(this + other)
}

// "java/lang/String.substring(I)Ljava/lang/String;"
func substringToTheEnd(params []interface{}) interface{} {
	runeArray := []rune(object.GoStringFromStringObject(params[0].(*object.Object)))
	start := params[1].(int64)
	if start < 0 || start > int64(len(runeArray)) {
		errMsg := fmt.Sprintf("substring: begin index %d out of bounds for length %d", start, len(runeArray))
		return getGErrBlk(excNames.StringIndexOutOfBoundsException, errMsg)
	}
	return object.StringObjectFromGoString(string(runeArray[start:]))
}

// "java/lang/String.substring(II)Ljava/lang/String;"
func substringStartEnd(params []interface{}) interface{} {
	runeArray := []rune(object.GoStringFromStringObject(params[0].(*object.Object)))
	start := params[1].(int64)
	end := params[2].(int64)
	n := int64(len(runeArray))
	if start < 0 || end > n || start > end {
		errMsg := fmt.Sprintf("substring: begin %d, end %d out of bounds for length %d", start, end, n)
		return getGErrBlk(excNames.StringIndexOutOfBoundsException, errMsg)
	}
	return object.StringObjectFromGoString(string(runeArray[start:end]))
}

// "java/lang/String.toString()Ljava/lang/String;" -- a String is its
// own toString(), per the JDK contract.
func stringToString(params []interface{}) interface{} {
	return params[0]
}
