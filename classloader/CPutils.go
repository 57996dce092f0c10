/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's classloader/CPutils.go (constant-pool lookup helpers).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

// This file contains utility routines for runtime operations involving
// a class's constant pool (CP).

// Discriminator values for CpType.RetType, telling the caller which
// field of CpType actually holds the result.
const (
	IsError     = 0
	IsStructVal = 1
	IsFloat64   = 2
	IsInt64     = 3
	IsStringVal = 4
)

// CpType is the typed result of a constant-pool lookup: a substitute
// for a discriminated union. EntryType is the CP tag (0 on error).
// RetType selects which of the four value fields is meaningful.
type CpType struct {
	EntryType int
	RetType   int
	IntVal    int64
	FloatVal  float64
	StructVal interface{} // a FieldRefEntry, MethodRefEntry, NameAndTypeEntry, etc.
	StringVal string
}

// FetchCPentry looks up CP entry index in cp and returns its tag and
// value, dispatching by tag exactly as JVMS 4.4 enumerates them.
func FetchCPentry(cp *CPool, index int) CpType {
	if cp == nil || index < 1 || index >= cp.entryCount() {
		return CpType{EntryType: 0, RetType: IsError}
	}

	entry := cp.CpIndex[index]
	switch entry.Type {
	case IntConst:
		return CpType{EntryType: IntConst, RetType: IsInt64, IntVal: int64(cp.IntConsts[entry.Slot])}
	case LongConst:
		return CpType{EntryType: LongConst, RetType: IsInt64, IntVal: cp.LongConsts[entry.Slot]}
	case MethodType:
		return CpType{EntryType: MethodType, RetType: IsInt64, IntVal: int64(cp.MethodTypes[entry.Slot])}
	case FloatConst:
		return CpType{EntryType: FloatConst, RetType: IsFloat64, FloatVal: float64(cp.FloatConsts[entry.Slot])}
	case DoubleConst:
		return CpType{EntryType: DoubleConst, RetType: IsFloat64, FloatVal: cp.DoubleConsts[entry.Slot]}
	case ClassRef: // points to a CP entry, which is a UTF-8 holding the class name
		className := FetchUTF8stringFromCPEntryNumber(cp, cp.ClassRefs[entry.Slot])
		return CpType{EntryType: ClassRef, RetType: IsStringVal, StringVal: className}
	case StringConst: // points to a CP entry, which is a UTF-8 string constant
		utf8Idx := cp.StringRefs[entry.Slot]
		if int(utf8Idx) >= cp.entryCount() || cp.CpIndex[utf8Idx].Type != UTF8 {
			return CpType{EntryType: 0, RetType: IsError}
		}
		return CpType{EntryType: StringConst, RetType: IsStringVal, StringVal: cp.Utf8Refs[cp.CpIndex[utf8Idx].Slot]}
	case UTF8:
		return CpType{EntryType: UTF8, RetType: IsStringVal, StringVal: cp.Utf8Refs[entry.Slot]}
	case Dynamic:
		return CpType{EntryType: Dynamic, RetType: IsStructVal, StructVal: cp.Dynamics[entry.Slot]}
	case InterfaceMethodRef:
		return CpType{EntryType: InterfaceMethodRef, RetType: IsStructVal, StructVal: cp.InterfaceRefs[entry.Slot]}
	case InvokeDynamic:
		return CpType{EntryType: InvokeDynamic, RetType: IsStructVal, StructVal: cp.InvokeDynamics[entry.Slot]}
	case MethodHandle:
		return CpType{EntryType: MethodHandle, RetType: IsStructVal, StructVal: cp.MethodHandles[entry.Slot]}
	case MethodRef:
		return CpType{EntryType: MethodRef, RetType: IsStructVal, StructVal: cp.MethodRefs[entry.Slot]}
	case FieldRef:
		return CpType{EntryType: FieldRef, RetType: IsStructVal, StructVal: cp.FieldRefs[entry.Slot]}
	case NameAndType:
		return CpType{EntryType: NameAndType, RetType: IsStructVal, StructVal: cp.NameAndTypes[entry.Slot]}
	case Module, Package:
		// names of modules/packages are not normally retrieved here
		return CpType{EntryType: 0, RetType: IsError}
	}
	return CpType{EntryType: 0, RetType: IsError}
}

// FetchUTF8stringFromCPEntryNumber returns the UTF-8 string at cpIndex,
// or "" if cpIndex does not name a UTF8 entry.
func FetchUTF8stringFromCPEntryNumber(cp *CPool, cpIndex uint16) string {
	if cp == nil || int(cpIndex) >= cp.entryCount() {
		return ""
	}
	entry := cp.CpIndex[cpIndex]
	if entry.Type != UTF8 {
		return ""
	}
	return cp.Utf8Refs[entry.Slot]
}

// GetMethInfoFromCPmethref resolves a MethodRef CP index down to its
// owning class name, method name, and method descriptor.
func GetMethInfoFromCPmethref(cp *CPool, cpIndex int) (className, methName, methSig string) {
	if cp == nil || cpIndex < 1 || cpIndex >= cp.entryCount() {
		return "", "", ""
	}
	if cp.CpIndex[cpIndex].Type != MethodRef {
		return "", "", ""
	}
	mr := cp.MethodRefs[cp.CpIndex[cpIndex].Slot]

	className = GetClassNameFromCPclassref(cp, mr.ClassIndex)

	nat := cp.NameAndTypes[cp.CpIndex[mr.NameAndType].Slot]
	methName = FetchUTF8stringFromCPEntryNumber(cp, nat.NameIndex)
	methSig = FetchUTF8stringFromCPEntryNumber(cp, nat.DescIndex)
	return className, methName, methSig
}

// GetFieldInfoFromCPfieldref resolves a FieldRef CP index down to its
// owning class name, field name, and field descriptor.
func GetFieldInfoFromCPfieldref(cp *CPool, cpIndex int) (className, fieldName, fieldDesc string) {
	if cp == nil || cpIndex < 1 || cpIndex >= cp.entryCount() {
		return "", "", ""
	}
	if cp.CpIndex[cpIndex].Type != FieldRef {
		return "", "", ""
	}
	fr := cp.FieldRefs[cp.CpIndex[cpIndex].Slot]

	className = GetClassNameFromCPclassref(cp, fr.ClassIndex)

	nat := cp.NameAndTypes[cp.CpIndex[fr.NameAndType].Slot]
	fieldName = FetchUTF8stringFromCPEntryNumber(cp, nat.NameIndex)
	fieldDesc = FetchUTF8stringFromCPEntryNumber(cp, nat.DescIndex)
	return className, fieldName, fieldDesc
}

// GetClassNameFromCPclassref resolves a ClassRef CP index to its class
// name. Returns "" on error.
func GetClassNameFromCPclassref(cp *CPool, cpIndex uint16) string {
	entry := FetchCPentry(cp, int(cpIndex))
	if entry.RetType != IsStringVal {
		return ""
	}
	return entry.StringVal
}
