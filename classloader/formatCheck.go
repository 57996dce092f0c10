/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's classloader format-checking pass.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "fmt"

// formatCheckClass performs the structural checks JVMS 4.8 groups under
// "format checking": the parts a corrupt or hand-edited class file can
// violate that the binary parser alone would not catch (a method
// missing a Code attribute despite not being abstract/native, a
// constant-pool index out of range, etc).
func formatCheckClass(class *Class) error {
	if class == nil {
		return CFE("nil class")
	}
	if class.Name == "" {
		return CFE("class has no name")
	}
	if err := formatCheckConstantPool(&class.CP); err != nil {
		return err
	}
	for key, m := range class.Methods {
		if m.Access.Abstract || m.Access.Native {
			continue
		}
		if m.Code == nil {
			return CFE(fmt.Sprintf("method %s has no Code attribute and is not abstract or native", key))
		}
		code := m.Code.Code
		af := AccessFlags{Abstract: m.Access.Abstract}
		if err := CheckCodeValidity(&code, &class.CP, m.Code.MaxStack, af); err != nil {
			return CFE(fmt.Sprintf("method %s: %v", key, err))
		}
	}
	return nil
}

// formatCheckConstantPool validates that every CpIndex entry's Slot is
// in range for the type-specific slice it names, catching the
// truncated-or-corrupted pool case before any resolver trusts it.
func formatCheckConstantPool(cp *CPool) error {
	if cp == nil || len(cp.CpIndex) == 0 {
		return CFE("Error in size of constant pool: pool is empty")
	}
	for i := 1; i < len(cp.CpIndex); i++ {
		entry := cp.CpIndex[i]
		var ok bool
		switch entry.Type {
		case 0: // unused slot (e.g. the padding after a Long/Double, or index 0)
			ok = true
		case UTF8:
			ok = int(entry.Slot) < len(cp.Utf8Refs)
		case IntConst:
			ok = int(entry.Slot) < len(cp.IntConsts)
		case FloatConst:
			ok = int(entry.Slot) < len(cp.FloatConsts)
		case LongConst:
			ok = int(entry.Slot) < len(cp.LongConsts)
		case DoubleConst:
			ok = int(entry.Slot) < len(cp.DoubleConsts)
		case ClassRef:
			ok = int(entry.Slot) < len(cp.ClassRefs)
		case StringConst:
			ok = int(entry.Slot) < len(cp.StringRefs)
		case FieldRef:
			ok = int(entry.Slot) < len(cp.FieldRefs)
		case MethodRef:
			ok = int(entry.Slot) < len(cp.MethodRefs)
		case InterfaceMethodRef:
			ok = int(entry.Slot) < len(cp.InterfaceRefs)
		case NameAndType:
			ok = int(entry.Slot) < len(cp.NameAndTypes)
		case MethodHandle:
			ok = int(entry.Slot) < len(cp.MethodHandles)
		case MethodType:
			ok = int(entry.Slot) < len(cp.MethodTypes)
		case Dynamic:
			ok = int(entry.Slot) < len(cp.Dynamics)
		case InvokeDynamic:
			ok = int(entry.Slot) < len(cp.InvokeDynamics)
		case Module, Package:
			ok = true
		default:
			ok = false
		}
		if !ok {
			return CFE(fmt.Sprintf("constant pool entry %d (tag %d) has an out-of-range slot %d", i, entry.Type, entry.Slot))
		}
	}
	return nil
}
