/*
 * govm - a standalone JVM class-file execution engine, adapted from
 * the Jacobin VM's jvm/instantiate.go (object instantiation).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"govm/classloader"
	"govm/stringPool"
	"govm/trace"
	"govm/util"
)

// Instantiate builds a new, zero-valued instance of class: every
// instance field declared by class and by its entire superclass chain
// gets a default-valued slot, per JVMS 2.11.4 ("uninitialized values").
// It does not run <init>; that is interp's job once the object exists.
func Instantiate(class *classloader.Class) (*Object, error) {
	if class == nil {
		return nil, classloader.CFE("instantiate: nil class")
	}

	obj := MakeEmptyObject()
	name := class.Name
	obj.Klass = &name
	obj.KlassName = stringPool.GetStringIndex(name)

	chain := []*classloader.Class{class}
	cur := class
	for cur.Super != "" {
		super := classloader.MethAreaFetch(cur.Super)
		if super == nil {
			var err error
			super, err = classloader.LoadClassFromNameOnly(cur.Super)
			if err != nil {
				return nil, err
			}
		}
		chain = append(chain, super)
		cur = super
	}

	// walk root-to-leaf so a subclass field with the same name as an
	// inherited one simply overwrites the table entry. This object-wide
	// table is what getfield/putfield index into by name once a field
	// reference has been resolved, so a shadowed superclass field has
	// no table entry of its own (obj.Fields still lists both copies).
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].Fields {
			if f.Access.Static {
				continue
			}
			fieldToAdd := defaultField(f)
			obj.FieldTable[f.Name] = fieldToAdd
			obj.Fields = append(obj.Fields, *fieldToAdd)
		}
	}

	trace.Trace("instantiated " + class.Name)
	return obj, nil
}

func defaultField(f classloader.Field) *Field {
	base, _ := util.ParseFieldDescriptor(f.Desc)
	fv := &Field{Ftype: f.Desc}
	switch base {
	case "L", "[":
		fv.Fvalue = nil
	case "D", "F":
		fv.Fvalue = 0.0
	default: // B, C, I, J, S, Z
		fv.Fvalue = int64(0)
	}
	return fv
}
