/*
 * govm - a standalone JVM class-file execution engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

// Constant-pool tag values, per JVMS 4.4. The numeric values are the
// published format; this project does not invent them.
const (
	UTF8              = 1
	IntConst          = 3
	FloatConst        = 4
	LongConst         = 5
	DoubleConst       = 6
	ClassRef          = 7
	StringConst       = 8
	FieldRef          = 9
	MethodRef         = 10
	InterfaceMethodRef = 11
	NameAndType       = 12
	MethodHandle      = 15
	MethodType        = 16
	Dynamic           = 17
	InvokeDynamic     = 18
	Module            = 19
	Package           = 20
)

// CpEntry is one 1-indexed constant-pool slot: a tag and an index into
// the tag-specific slice that actually holds the value.
type CpEntry struct {
	Type uint16
	Slot uint16
}

// FieldRefEntry, MethodRefEntry, InterfaceRefEntry all share the same
// shape: a class-ref index and a name-and-type index.
type FieldRefEntry struct{ ClassIndex, NameAndType uint16 }
type MethodRefEntry struct{ ClassIndex, NameAndType uint16 }
type InterfaceRefEntry struct{ ClassIndex, NameAndType uint16 }

// NameAndTypeEntry points at the UTF-8 name and descriptor CP entries.
type NameAndTypeEntry struct{ NameIndex, DescIndex uint16 }

// MethodHandleEntry records a method-handle's reference kind and the
// field/method ref it targets.
type MethodHandleEntry struct {
	RefKind  uint16
	RefIndex uint16
}

// DynamicEntry (and InvokeDynamicEntry, same shape) points at a
// bootstrap-method-table index and a name-and-type.
type DynamicEntry struct{ BootstrapIndex, NameAndType uint16 }
type InvokeDynamicEntry struct{ BootstrapIndex, NameAndType uint16 }

// CPool is the fully-parsed, 1-indexed constant pool of one class. Long
// and double constants each consume one logical CpIndex slot but the
// immediately following index is unused, per the spec's historical
// quirk (preserved bit-for-bit: callers must never dereference that
// following index).
type CPool struct {
	CpIndex []CpEntry // CpIndex[0] is unused

	Utf8Refs      []string
	IntConsts     []int32
	FloatConsts   []float32
	LongConsts    []int64
	DoubleConsts  []float64
	ClassRefs     []uint16 // index into CpIndex, pointing at a UTF8 entry holding the class name
	StringRefs    []uint16 // index into CpIndex, pointing at a UTF8 entry
	FieldRefs     []FieldRefEntry
	MethodRefs    []MethodRefEntry
	InterfaceRefs []InterfaceRefEntry
	NameAndTypes  []NameAndTypeEntry
	MethodHandles []MethodHandleEntry
	MethodTypes   []uint16 // index into CpIndex, pointing at a UTF8 descriptor
	Dynamics      []DynamicEntry
	InvokeDynamics []InvokeDynamicEntry
}

// entryCount returns the logical size of the pool, i.e. one past the
// highest valid index.
func (cp *CPool) entryCount() int {
	if cp == nil {
		return 0
	}
	return len(cp.CpIndex)
}
