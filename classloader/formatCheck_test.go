/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCheckConstantPool_EmptyPool(t *testing.T) {
	cp := CPool{}
	err := formatCheckConstantPool(&cp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Error in size of constant pool")
}

func TestFormatCheckConstantPool_OutOfRangeSlot(t *testing.T) {
	cp := CPool{CpIndex: []CpEntry{{}, {Type: UTF8, Slot: 3}}} // no Utf8Refs at all
	err := formatCheckConstantPool(&cp)
	assert.Error(t, err)
}

func TestFormatCheckConstantPool_Valid(t *testing.T) {
	cp := CPool{
		CpIndex:  []CpEntry{{}, {Type: UTF8, Slot: 0}},
		Utf8Refs: []string{"java/lang/Object"},
	}
	err := formatCheckConstantPool(&cp)
	assert.NoError(t, err)
}

func TestFormatCheckClass_NilClass(t *testing.T) {
	err := formatCheckClass(nil)
	assert.Error(t, err)
}

func TestFormatCheckClass_MissingCode(t *testing.T) {
	class := &Class{
		Name: "Broken",
		CP: CPool{
			CpIndex:  []CpEntry{{}, {Type: UTF8, Slot: 0}},
			Utf8Refs: []string{"x"},
		},
		Methods: map[string]*Method{
			"run()V": {Name: "run", Desc: "()V"}, // no Code, not abstract/native
		},
	}
	err := formatCheckClass(class)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no Code attribute")
}

func TestFormatCheckClass_AbstractMethodWithoutCode(t *testing.T) {
	class := &Class{
		Name: "AbstractThing",
		CP: CPool{
			CpIndex:  []CpEntry{{}, {Type: UTF8, Slot: 0}},
			Utf8Refs: []string{"x"},
		},
		Methods: map[string]*Method{
			"run()V": {Name: "run", Desc: "()V", Access: MethodAccessFlags{Abstract: true}},
		},
	}
	err := formatCheckClass(class)
	assert.NoError(t, err)
}

func TestFormatCheckClass_Valid(t *testing.T) {
	class := &Class{
		Name: "Thing",
		CP: CPool{
			CpIndex:  []CpEntry{{}, {Type: UTF8, Slot: 0}},
			Utf8Refs: []string{"x"},
		},
		Methods: map[string]*Method{
			"run()V": {Name: "run", Desc: "()V", Code: &CodeAttrib{Code: []byte{0xB1}, MaxStack: 0, MaxLocals: 1}},
		},
	}
	err := formatCheckClass(class)
	assert.NoError(t, err)
}
