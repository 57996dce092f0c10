/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's object package (heap object representation).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object defines the runtime shape of a Java object: not the
// slot it lives behind (see package slots for the indirection table),
// but the Go value the indirection table's entry points at.
package object

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"govm/lock"
	"govm/stringPool"
	"govm/types"
)

// Field is one instance (or static) field's runtime value: a
// descriptor-character type tag and an untyped value, following
// jacobin's own object.Field shape so the gfunction package's native
// methods (which build Field values directly) port over unchanged.
type Field struct {
	Ftype  string
	Fvalue interface{}
}

// Object is a Java heap object: a class reference, a lock for
// monitorenter/monitorexit, and its field values in two equivalent
// forms — FieldTable for name lookup (putfield/getfield) and Fields for
// the rare positional accesses retained from the teacher's API.
type Object struct {
	KlassName uint32 // string-pool index of the owning class's name
	Klass     *string

	FieldTable map[string]*Field
	Fields     []Field // kept in the same order fields were declared

	Mark *lock.ReentrantLock

	// IdentityHash backs java/lang/Object.hashCode()'s default contract:
	// stable for the object's lifetime regardless of field mutation or
	// where the collector's indirection table happens to point it at.
	IdentityHash int64
}

// MakeEmptyObject returns a zero-value Object with its maps/fields
// initialized, ready for a caller (mainly tests and gfunction native
// methods) to populate directly.
func MakeEmptyObject() *Object {
	return &Object{
		FieldTable:   make(map[string]*Field),
		Mark:         lock.NewReentrantLock(),
		IdentityHash: NextObjectID(),
	}
}

// NewStringObject returns an empty java/lang/String-shaped object: a
// single "value" field holding a []types.JavaByte, per the Compact
// Strings representation JDK 9+ uses.
func NewStringObject() *Object {
	obj := MakeEmptyObject()
	name := types.StringClassName
	obj.Klass = &name
	obj.KlassName = stringPool.GetStringIndex(name)
	obj.FieldTable["value"] = &Field{Ftype: types.ByteArray, Fvalue: []types.JavaByte{}}
	return obj
}

// CreateCompactStringFromGoString builds a java/lang/String object
// whose "value" field holds s's bytes as a Java byte array.
func CreateCompactStringFromGoString(s *string) *Object {
	obj := NewStringObject()
	obj.FieldTable["value"] = &Field{Ftype: types.ByteArray, Fvalue: JavaByteArrayFromGoString(*s)}
	return obj
}

// ToString renders obj for tracing/debugging: the class name followed
// by a sorted field=value listing, so output is stable across runs.
func (o *Object) ToString() string {
	var sb strings.Builder
	if o.Klass != nil {
		sb.WriteString(*o.Klass)
	} else {
		sb.WriteString("<object>")
	}

	if len(o.FieldTable) > 0 {
		names := make([]string, 0, len(o.FieldTable))
		for name := range o.FieldTable {
			names = append(names, name)
		}
		sort.Strings(names)
		sb.WriteString(" {")
		for i, name := range names {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", name, formatFieldValue(o.FieldTable[name])))
		}
		sb.WriteString("}")
	}

	for _, f := range o.Fields {
		sb.WriteString(" ")
		sb.WriteString(fmt.Sprintf("%v", formatFieldValue(&f)))
	}

	return sb.String()
}

func formatFieldValue(f *Field) interface{} {
	if f == nil {
		return nil
	}
	if f.Ftype == types.ByteArray {
		if jb, ok := f.Fvalue.([]types.JavaByte); ok {
			return GoStringFromJavaByteArray(jb)
		}
	}
	return f.Fvalue
}

var nextObjectID struct {
	mu sync.Mutex
	n  int64
}

// NextObjectID hands out a monotonically increasing identity hash
// surrogate, used where the interpreter needs a stable identity for an
// object independent of its indirection-table slot (which can change
// across a compacting GC cycle).
func NextObjectID() int64 {
	nextObjectID.mu.Lock()
	defer nextObjectID.mu.Unlock()
	nextObjectID.n++
	return nextObjectID.n
}
