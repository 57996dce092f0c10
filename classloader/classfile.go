/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's classloader package (binary .class file parser).
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"encoding/binary"
	"fmt"

	"govm/util"
)

// classReader is a cursor over the raw bytes of one .class file.
type classReader struct {
	data []byte
	pos  int
}

func (r *classReader) u1() (uint8, error) {
	if r.pos+1 > len(r.data) {
		return 0, fmt.Errorf("unexpected EOF reading u1 at offset %d", r.pos)
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *classReader) u2() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("unexpected EOF reading u2 at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *classReader) u4() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("unexpected EOF reading u4 at offset %d", r.pos)
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *classReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("unexpected EOF reading %d bytes at offset %d", n, r.pos)
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// parseClass parses raw bytes into a Class, performing the equivalent
// of jacobin's parse()+convertToPostableClass() in a single pass: every
// field ends up in its final runtime shape, there is no intermediate
// ParsedClass.
func parseClass(raw []byte) (*Class, error) {
	r := &classReader{data: raw}

	magic, err := r.u4()
	if err != nil {
		return nil, cfe("truncated class file: " + err.Error())
	}
	if magic != 0xCAFEBABE {
		return nil, cfe(fmt.Sprintf("invalid magic number: 0x%08X", magic))
	}

	if _, err = r.u2(); err != nil { // minor version, unused
		return nil, cfe(err.Error())
	}
	if _, err = r.u2(); err != nil { // major version, unused
		return nil, cfe(err.Error())
	}

	cp, utf8Cache, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}

	accessFlagsWord, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}

	thisClassIdx, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	superClassIdx, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}

	class := &Class{
		CP:      *cp,
		Methods: make(map[string]*Method),
		Access:  decodeClassAccessFlags(accessFlagsWord),
	}
	class.Name = GetClassNameFromCPclassref(cp, thisClassIdx)
	if superClassIdx != 0 {
		class.Super = GetClassNameFromCPclassref(cp, superClassIdx)
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, cfe(err.Error())
		}
		class.Interfaces = append(class.Interfaces, GetClassNameFromCPclassref(cp, idx))
	}

	fieldCount, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	for i := 0; i < int(fieldCount); i++ {
		f, err := parseField(r, cp, utf8Cache)
		if err != nil {
			return nil, err
		}
		class.Fields = append(class.Fields, *f)
	}

	methodCount, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	for i := 0; i < int(methodCount); i++ {
		m, err := parseMethod(r, cp, utf8Cache)
		if err != nil {
			return nil, err
		}
		class.Methods[m.Name+m.Desc] = m
	}

	attrCount, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	for i := 0; i < int(attrCount); i++ {
		a, err := parseAttr(r)
		if err != nil {
			return nil, err
		}
		name := utf8Cache[a.NameIndex]
		switch name {
		case "SourceFile":
			if len(a.Content) >= 2 {
				idx := binary.BigEndian.Uint16(a.Content)
				class.SourceFile = utf8Cache[idx]
			}
		case "BootstrapMethods":
			class.Bootstraps = parseBootstrapMethods(a.Content)
		default:
			class.Attributes = append(class.Attributes, *a)
		}
	}

	class.layoutFields(func(desc string) int {
		base, _ := util.ParseFieldDescriptor(desc)
		return util.SizeOfType(base)
	})
	class.StaticFields = make(map[string]*StaticField)
	for _, f := range class.Fields {
		if f.Access.Static {
			class.StaticFields[f.Name] = &StaticField{Desc: f.Desc, Value: f.ConstValue}
		}
	}

	return class, nil
}

func decodeClassAccessFlags(w uint16) AccessFlags {
	return AccessFlags{
		Public:     w&0x0001 != 0,
		Final:      w&0x0010 != 0,
		Super:      w&0x0020 != 0,
		Interface:  w&0x0200 != 0,
		Abstract:   w&0x0400 != 0,
		Synthetic:  w&0x1000 != 0,
		Annotation: w&0x2000 != 0,
		Enum:       w&0x4000 != 0,
		Module:     w&0x8000 != 0,
	}
}

func decodeFieldAccessFlags(w uint16) FieldAccessFlags {
	return FieldAccessFlags{
		Public:    w&0x0001 != 0,
		Private:   w&0x0002 != 0,
		Protected: w&0x0004 != 0,
		Static:    w&0x0008 != 0,
		Final:     w&0x0010 != 0,
		Volatile:  w&0x0040 != 0,
		Transient: w&0x0080 != 0,
		Synthetic: w&0x1000 != 0,
		Enum:      w&0x4000 != 0,
	}
}

func decodeMethodAccessFlags(w uint16) MethodAccessFlags {
	return MethodAccessFlags{
		Public:       w&0x0001 != 0,
		Private:      w&0x0002 != 0,
		Protected:    w&0x0004 != 0,
		Static:       w&0x0008 != 0,
		Final:        w&0x0010 != 0,
		Synchronized: w&0x0020 != 0,
		Bridge:       w&0x0040 != 0,
		Varargs:      w&0x0080 != 0,
		Native:       w&0x0100 != 0,
		Abstract:     w&0x0400 != 0,
		Strict:       w&0x0800 != 0,
		Synthetic:    w&0x1000 != 0,
	}
}

func parseAttr(r *classReader) (*Attr, error) {
	nameIdx, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	length, err := r.u4()
	if err != nil {
		return nil, cfe(err.Error())
	}
	content, err := r.bytes(int(length))
	if err != nil {
		return nil, cfe(err.Error())
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	return &Attr{NameIndex: nameIdx, Content: cp}, nil
}

func parseField(r *classReader, cp *CPool, utf8Cache map[uint16]string) (*Field, error) {
	accessWord, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	nameIdx, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	descIdx, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}

	f := &Field{
		Name:   utf8Cache[nameIdx],
		Desc:   utf8Cache[descIdx],
		Access: decodeFieldAccessFlags(accessWord),
	}

	attrCount, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	for i := 0; i < int(attrCount); i++ {
		a, err := parseAttr(r)
		if err != nil {
			return nil, err
		}
		name := utf8Cache[a.NameIndex]
		if name == "ConstantValue" && len(a.Content) >= 2 {
			idx := binary.BigEndian.Uint16(a.Content)
			f.ConstValue = constantValueFromCP(cp, idx)
		} else {
			f.Attributes = append(f.Attributes, *a)
		}
	}
	return f, nil
}

func constantValueFromCP(cp *CPool, idx uint16) interface{} {
	entry := FetchCPentry(cp, int(idx))
	switch entry.RetType {
	case IsInt64:
		return entry.IntVal
	case IsFloat64:
		return entry.FloatVal
	case IsStringVal:
		return entry.StringVal
	default:
		return nil
	}
}

func parseMethod(r *classReader, cp *CPool, utf8Cache map[uint16]string) (*Method, error) {
	accessWord, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	nameIdx, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	descIdx, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}

	m := &Method{
		Name:   utf8Cache[nameIdx],
		Desc:   utf8Cache[descIdx],
		Access: decodeMethodAccessFlags(accessWord),
	}

	attrCount, err := r.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	for i := 0; i < int(attrCount); i++ {
		a, err := parseAttr(r)
		if err != nil {
			return nil, err
		}
		name := utf8Cache[a.NameIndex]
		switch name {
		case "Code":
			code, err := parseCodeAttr(a.Content, utf8Cache)
			if err != nil {
				return nil, err
			}
			m.Code = code
		case "Exceptions":
			m.Exceptions = parseExceptionsAttr(a.Content)
		case "Deprecated":
			m.Deprecated = true
		default:
			m.Attributes = append(m.Attributes, *a)
		}
	}
	return m, nil
}

// parseCodeAttr parses the Code attribute's own internal layout per
// JVMS 4.7.3: it is an attribute whose content is itself structured,
// rather than opaque bytes.
func parseCodeAttr(content []byte, utf8Cache map[uint16]string) (*CodeAttrib, error) {
	cr := &classReader{data: content}

	maxStack, err := cr.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	maxLocals, err := cr.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	codeLen, err := cr.u4()
	if err != nil {
		return nil, cfe(err.Error())
	}
	code, err := cr.bytes(int(codeLen))
	if err != nil {
		return nil, cfe(err.Error())
	}
	codeCopy := make([]byte, len(code))
	copy(codeCopy, code)

	ca := &CodeAttrib{MaxStack: int(maxStack), MaxLocals: int(maxLocals), Code: codeCopy}

	excCount, err := cr.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	for i := 0; i < int(excCount); i++ {
		startPc, err := cr.u2()
		if err != nil {
			return nil, cfe(err.Error())
		}
		endPc, err := cr.u2()
		if err != nil {
			return nil, cfe(err.Error())
		}
		handlerPc, err := cr.u2()
		if err != nil {
			return nil, cfe(err.Error())
		}
		catchType, err := cr.u2()
		if err != nil {
			return nil, cfe(err.Error())
		}
		ca.Exceptions = append(ca.Exceptions, ExceptionHandlerEntry{
			StartPc: int(startPc), EndPc: int(endPc), HandlerPc: int(handlerPc), CatchType: catchType,
		})
	}

	attrCount, err := cr.u2()
	if err != nil {
		return nil, cfe(err.Error())
	}
	for i := 0; i < int(attrCount); i++ {
		a, err := parseAttr(cr)
		if err != nil {
			return nil, err
		}
		ca.Attributes = append(ca.Attributes, *a)
	}
	_ = utf8Cache
	return ca, nil
}

func parseExceptionsAttr(content []byte) []uint16 {
	if len(content) < 2 {
		return nil
	}
	count := binary.BigEndian.Uint16(content)
	out := make([]uint16, 0, count)
	for i := 0; i < int(count); i++ {
		off := 2 + i*2
		if off+2 > len(content) {
			break
		}
		out = append(out, binary.BigEndian.Uint16(content[off:]))
	}
	return out
}

func parseBootstrapMethods(content []byte) []BootstrapMethod {
	if len(content) < 2 {
		return nil
	}
	count := binary.BigEndian.Uint16(content)
	out := make([]BootstrapMethod, 0, count)
	pos := 2
	for i := 0; i < int(count); i++ {
		if pos+4 > len(content) {
			break
		}
		methodRef := binary.BigEndian.Uint16(content[pos:])
		argCount := binary.BigEndian.Uint16(content[pos+2:])
		pos += 4
		bm := BootstrapMethod{MethodRef: methodRef}
		for j := 0; j < int(argCount); j++ {
			if pos+2 > len(content) {
				break
			}
			bm.Args = append(bm.Args, binary.BigEndian.Uint16(content[pos:]))
			pos += 2
		}
		out = append(out, bm)
	}
	return out
}
