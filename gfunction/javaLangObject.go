/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import "govm/object"

func Load_Lang_Object() {

	MethodSignatures["java/lang/Object.<init>()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  justReturn,
		}

	MethodSignatures["java/lang/Object.registerNatives()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  justReturn,
		}

	MethodSignatures["java/lang/Object.hashCode()I"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  objectHashCode,
		}
}

// "java/lang/Object.hashCode()I"
// params[0] is the receiver. The identity hash is assigned once, at
// object creation (object.MakeEmptyObject), and never changes again --
// it does not depend on field contents or on which indirection-table
// slot the object currently lives behind.
func objectHashCode(params []interface{}) interface{} {
	obj, ok := params[0].(*object.Object)
	if !ok || obj == nil {
		return int64(0)
	}
	return obj.IdentityHash
}
