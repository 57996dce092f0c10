/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's classloader package (constant-pool parsing).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "math"

// parseConstantPool reads the constant_pool_count and constant_pool[]
// arrays per JVMS 4.4, preserving the historical quirk that a Long or
// Double constant consumes its own index *and* leaves the next index
// unused (JVMS 4.4.5's "In retrospect, making 8-byte constants take two
// constant pool entries was a poor choice").
//
// utf8Cache gives every later parsing stage an O(1) index->string
// lookup without re-walking FetchCPentry for the common case.
func parseConstantPool(r *classReader) (*CPool, map[uint16]string, error) {
	countRaw, err := r.u2()
	if err != nil {
		return nil, nil, cfe(err.Error())
	}
	count := int(countRaw) // entries occupy indexes [1, count)

	cp := &CPool{CpIndex: make([]CpEntry, count)}
	utf8Cache := make(map[uint16]string)

	for i := 1; i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, nil, cfe(err.Error())
		}
		switch tag {
		case UTF8:
			length, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			raw, err := r.bytes(int(length))
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			s := decodeModifiedUTF8(raw)
			cp.CpIndex[i] = CpEntry{Type: UTF8, Slot: uint16(len(cp.Utf8Refs))}
			cp.Utf8Refs = append(cp.Utf8Refs, s)
			utf8Cache[uint16(i)] = s
		case IntConst:
			v, err := r.u4()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: IntConst, Slot: uint16(len(cp.IntConsts))}
			cp.IntConsts = append(cp.IntConsts, int32(v))
		case FloatConst:
			v, err := r.u4()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: FloatConst, Slot: uint16(len(cp.FloatConsts))}
			cp.FloatConsts = append(cp.FloatConsts, decodeFloat32(v))
		case LongConst:
			hi, err := r.u4()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			lo, err := r.u4()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: LongConst, Slot: uint16(len(cp.LongConsts))}
			cp.LongConsts = append(cp.LongConsts, decodeInt64(hi, lo))
			i++ // per JVMS 4.4.5: next index is unused
		case DoubleConst:
			hi, err := r.u4()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			lo, err := r.u4()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: DoubleConst, Slot: uint16(len(cp.DoubleConsts))}
			cp.DoubleConsts = append(cp.DoubleConsts, decodeFloat64(hi, lo))
			i++ // per JVMS 4.4.5: next index is unused
		case ClassRef:
			nameIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: ClassRef, Slot: uint16(len(cp.ClassRefs))}
			cp.ClassRefs = append(cp.ClassRefs, nameIdx)
		case StringConst:
			utf8Idx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: StringConst, Slot: uint16(len(cp.StringRefs))}
			cp.StringRefs = append(cp.StringRefs, utf8Idx)
		case FieldRef:
			classIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: FieldRef, Slot: uint16(len(cp.FieldRefs))}
			cp.FieldRefs = append(cp.FieldRefs, FieldRefEntry{ClassIndex: classIdx, NameAndType: natIdx})
		case MethodRef:
			classIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: MethodRef, Slot: uint16(len(cp.MethodRefs))}
			cp.MethodRefs = append(cp.MethodRefs, MethodRefEntry{ClassIndex: classIdx, NameAndType: natIdx})
		case InterfaceMethodRef:
			classIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: InterfaceMethodRef, Slot: uint16(len(cp.InterfaceRefs))}
			cp.InterfaceRefs = append(cp.InterfaceRefs, InterfaceRefEntry{ClassIndex: classIdx, NameAndType: natIdx})
		case NameAndType:
			nameIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			descIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: NameAndType, Slot: uint16(len(cp.NameAndTypes))}
			cp.NameAndTypes = append(cp.NameAndTypes, NameAndTypeEntry{NameIndex: nameIdx, DescIndex: descIdx})
		case MethodHandle:
			refKind, err := r.u1()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			refIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: MethodHandle, Slot: uint16(len(cp.MethodHandles))}
			cp.MethodHandles = append(cp.MethodHandles, MethodHandleEntry{RefKind: uint16(refKind), RefIndex: refIdx})
		case MethodType:
			descIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: MethodType, Slot: uint16(len(cp.MethodTypes))}
			cp.MethodTypes = append(cp.MethodTypes, descIdx)
		case Dynamic:
			bsIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: Dynamic, Slot: uint16(len(cp.Dynamics))}
			cp.Dynamics = append(cp.Dynamics, DynamicEntry{BootstrapIndex: bsIdx, NameAndType: natIdx})
		case InvokeDynamic:
			bsIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			natIdx, err := r.u2()
			if err != nil {
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: InvokeDynamic, Slot: uint16(len(cp.InvokeDynamics))}
			cp.InvokeDynamics = append(cp.InvokeDynamics, InvokeDynamicEntry{BootstrapIndex: bsIdx, NameAndType: natIdx})
		case Module, Package:
			if _, err := r.u2(); err != nil { // name_index, unused
				return nil, nil, cfe(err.Error())
			}
			cp.CpIndex[i] = CpEntry{Type: tag}
		default:
			return nil, nil, cfe("unrecognized constant pool tag")
		}
	}

	return cp, utf8Cache, nil
}

// decodeModifiedUTF8 decodes the JVM's "modified UTF-8" encoding (JVMS
// 4.4.7). It differs from standard UTF-8 only in how it represents NUL
// and supplementary characters; ordinary ASCII/BMP class, method, and
// field names round-trip through plain UTF-8 decoding unchanged, so this
// handles the encoding directly rather than pulling in a dedicated
// codec for a case this engine never needs to exercise.
func decodeModifiedUTF8(raw []byte) string {
	out := make([]rune, 0, len(raw))
	i := 0
	for i < len(raw) {
		b0 := raw[i]
		switch {
		case b0&0x80 == 0: // 1-byte
			out = append(out, rune(b0))
			i++
		case b0&0xE0 == 0xC0 && i+1 < len(raw): // 2-byte
			b1 := raw[i+1]
			out = append(out, rune(b0&0x1F)<<6|rune(b1&0x3F))
			i += 2
		case b0&0xF0 == 0xE0 && i+2 < len(raw): // 3-byte
			b1, b2 := raw[i+1], raw[i+2]
			out = append(out, rune(b0&0x0F)<<12|rune(b1&0x3F)<<6|rune(b2&0x3F))
			i += 3
		default:
			out = append(out, rune(b0))
			i++
		}
	}
	return string(out)
}

func decodeFloat32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func decodeFloat64(hi, lo uint32) float64 {
	return math.Float64frombits(uint64(hi)<<32 | uint64(lo))
}

func decodeInt64(hi, lo uint32) int64 {
	return int64(uint64(hi)<<32 | uint64(lo))
}
