/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's object package (String object convenience helpers).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"govm/types"
)

// StringObjectFromGoString builds a java/lang/String-shaped object
// whose compact-string "value" field holds str's bytes.
func StringObjectFromGoString(str string) *Object {
	return StringObjectFromJavaByteArray(JavaByteArrayFromGoString(str))
}

// GoStringFromStringObject renders a java/lang/String object back into
// a native Go string. A nil object or one with no "value" field yields
// the empty string, matching the lenient conversions gfunction's native
// methods rely on when a caller passes an uninitialized String.
func GoStringFromStringObject(obj *Object) string {
	if obj == nil {
		return ""
	}
	if fld, ok := obj.FieldTable["value"]; ok && fld != nil {
		switch v := fld.Fvalue.(type) {
		case []types.JavaByte:
			return GoStringFromJavaByteArray(v)
		case []byte:
			return string(v)
		}
	}
	return ""
}

// ByteArrayFromStringObject returns obj's compact-string bytes as a
// plain Go []byte, the representation the regexp/strconv-driven String
// native methods work in directly.
func ByteArrayFromStringObject(obj *Object) []byte {
	return GoByteArrayFromJavaByteArray(JavaByteArrayFromStringObject(obj))
}

// UpdateStringObjectFromBytes overwrites obj's "value" field in place,
// used by the String constructors that instantiate-then-populate an
// object already pushed onto the operand stack by `new`.
func UpdateStringObjectFromBytes(obj *Object, bytes []byte) {
	if obj == nil {
		return
	}
	obj.FieldTable["value"] = &Field{Ftype: types.ByteArray, Fvalue: JavaByteArrayFromGoByteArray(bytes)}
}

// FormatField renders obj the way String.valueOf(Object) does: a
// String argument yields its own characters, anything else falls back
// to ToString's class{fields} form. prefix is accepted for parity with
// jacobin's own recursive field-dumping signature but is otherwise
// unused here, since this engine does not yet nest object dumps.
func (o *Object) FormatField(prefix string) string {
	if o == nil {
		return "null"
	}
	if o.Klass != nil && *o.Klass == types.StringClassName {
		return GoStringFromStringObject(o)
	}
	return o.ToString()
}
