/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"strings"
	"testing"

	"govm/opcodes"

	"github.com/stretchr/testify/assert"
)

func createBasicCP() CPool {
	cp := CPool{}
	cp.CpIndex = make([]CpEntry, 10)
	return cp
}

func TestCheckCodeValidity_NilCodePointer(t *testing.T) {
	cp := createBasicCP()
	err := CheckCodeValidity(nil, &cp, 5, AccessFlags{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ptr to code segment is nil")
}

func TestCheckCodeValidity_EmptyCodeNonAbstract(t *testing.T) {
	var code []byte
	cp := createBasicCP()
	err := CheckCodeValidity(&code, &cp, 5, AccessFlags{Abstract: false})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Empty code segment")
}

func TestCheckCodeValidity_EmptyCodeAbstract(t *testing.T) {
	var code []byte
	cp := createBasicCP()
	err := CheckCodeValidity(&code, &cp, 5, AccessFlags{Abstract: true})
	assert.NoError(t, err)
}

func TestCheckCodeValidity_NilConstantPool(t *testing.T) {
	code := []byte{0x00}
	err := CheckCodeValidity(&code, nil, 5, AccessFlags{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ptr to constant pool is nil")
}

func TestCheckCodeValidity_EmptyConstantPool(t *testing.T) {
	code := []byte{0x00}
	cp := CPool{}
	err := CheckCodeValidity(&code, &cp, 5, AccessFlags{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty constant pool")
}

func TestCheckCodeValidity_ValidCode(t *testing.T) {
	code := []byte{0x00, 0x01, 0xB1} // nop, aconst_null, return
	cp := createBasicCP()
	err := CheckCodeValidity(&code, &cp, 5, AccessFlags{})
	assert.NoError(t, err)
}

func TestCheckCodeValidity_InvalidBytecodeLength(t *testing.T) {
	code := []byte{0x10} // bipush, missing its operand byte
	cp := createBasicCP()
	err := CheckCodeValidity(&code, &cp, 5, AccessFlags{})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Invalid bytecode or argument"))
}

func TestCheckCodeValidity_Tableswitch(t *testing.T) {
	code := make([]byte, 0, 32)
	code = append(code, opcodes.TABLESWITCH)
	for len(code)%4 != 0 {
		code = append(code, 0)
	}
	code = append(code, 0, 0, 0, 10) // default
	code = append(code, 0, 0, 0, 1)  // low
	code = append(code, 0, 0, 0, 2)  // high (2 entries: 1,2)
	code = append(code, 0, 0, 0, 20, 0, 0, 0, 21)
	cp := createBasicCP()
	err := CheckCodeValidity(&code, &cp, 5, AccessFlags{})
	assert.NoError(t, err)
}

func TestByteCodeIsForLongOrDouble_LongDoubleCodes(t *testing.T) {
	assert.True(t, byteCodeIsForLongOrDouble(opcodes.LADD))
	assert.True(t, byteCodeIsForLongOrDouble(opcodes.DCONST_0))
	assert.True(t, byteCodeIsForLongOrDouble(opcodes.LCMP))
}

func TestByteCodeIsForLongOrDouble_OtherCodes(t *testing.T) {
	assert.False(t, byteCodeIsForLongOrDouble(opcodes.IADD))
	assert.False(t, byteCodeIsForLongOrDouble(opcodes.NOP))
	assert.False(t, byteCodeIsForLongOrDouble(opcodes.ACONST_NULL))
}
