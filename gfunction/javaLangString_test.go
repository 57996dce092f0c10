/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"testing"

	"govm/object"

	"github.com/stretchr/testify/assert"
)

func TestStringLengthAndCharAt(t *testing.T) {
	s := object.StringObjectFromGoString("abc")

	assert.Equal(t, int64(3), stringLength([]interface{}{s}))
	assert.Equal(t, int64('b'), stringCharAt([]interface{}{s, int64(1)}))
}

func TestStringCharAtOutOfBoundsRaises(t *testing.T) {
	s := object.StringObjectFromGoString("abc")

	ret := stringCharAt([]interface{}{s, int64(3)})
	errBlk, ok := ret.(*GErrBlk)
	assert.True(t, ok)
	assert.Contains(t, errBlk.ErrMsg, "out of bounds")
}

func TestStringEqualsComparesContentNotIdentity(t *testing.T) {
	a := object.StringObjectFromGoString("same")
	b := object.StringObjectFromGoString("same")
	c := object.StringObjectFromGoString("different")

	assert.Equal(t, int64(1), stringEquals([]interface{}{a, b}))
	assert.Equal(t, int64(0), stringEquals([]interface{}{a, c}))
}

func TestStringHashCodeMatchesJDKAlgorithm(t *testing.T) {
	s := object.StringObjectFromGoString("abc")

	// javac's documented algorithm: 'a'*31^2 + 'b'*31 + 'c'.
	want := int64(int32('a')*31*31 + int32('b')*31 + int32('c'))
	assert.Equal(t, want, stringHashCode([]interface{}{s}))
}

func TestStringConcat(t *testing.T) {
	a := object.StringObjectFromGoString("foo")
	b := object.StringObjectFromGoString("bar")

	ret := stringConcat([]interface{}{a, b})
	result, ok := ret.(*object.Object)
	assert.True(t, ok)
	assert.Equal(t, "foobar", object.GoStringFromStringObject(result))
}

func TestSubstringVariants(t *testing.T) {
	s := object.StringObjectFromGoString("hello world")

	tail := substringToTheEnd([]interface{}{s, int64(6)}).(*object.Object)
	assert.Equal(t, "world", object.GoStringFromStringObject(tail))

	mid := substringStartEnd([]interface{}{s, int64(0), int64(5)}).(*object.Object)
	assert.Equal(t, "hello", object.GoStringFromStringObject(mid))
}

func TestSubstringOutOfBoundsRaises(t *testing.T) {
	s := object.StringObjectFromGoString("hi")

	ret := substringStartEnd([]interface{}{s, int64(1), int64(0)})
	errBlk, ok := ret.(*GErrBlk)
	assert.True(t, ok)
	assert.Contains(t, errBlk.ErrMsg, "out of bounds")
}
