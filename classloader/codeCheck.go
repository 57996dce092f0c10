/*
 * govm - a standalone JVM class-file execution engine, adapted from the
 * Jacobin VM's classloader code-validity checking pass.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"fmt"

	"govm/opcodes"
)

// CheckCodeValidity performs the structural sanity pass JVMS 4.9
// describes informally as "the verifier": every opcode byte is
// recognized, every fixed-length instruction has enough trailing bytes
// present, and switch instructions align on a 4-byte boundary. It does
// not perform full dataflow verification (stack-map-frame checking);
// that is out of scope for this engine, which trusts well-formed input
// rather than hostile bytecode.
func CheckCodeValidity(code *[]byte, cp *CPool, maxStack int, af AccessFlags) error {
	if cp == nil {
		return fmt.Errorf("CheckCodeValidity: ptr to constant pool is nil")
	}
	if len(cp.CpIndex) == 0 {
		return fmt.Errorf("CheckCodeValidity: empty constant pool")
	}

	if code == nil {
		return fmt.Errorf("CheckCodeValidity: ptr to code segment is nil")
	}
	if len(*code) == 0 {
		if af.Abstract {
			return nil // abstract methods legitimately have no Code attribute
		}
		return fmt.Errorf("CheckCodeValidity: Empty code segment in non-abstract method")
	}

	c := *code
	pc := 0
	for pc < len(c) {
		op := c[pc]
		length := opcodes.OperandLength(op)
		switch {
		case length == opcodes.Variable:
			consumed, err := variableLength(c, pc, op)
			if err != nil {
				return err
			}
			pc += consumed
		default:
			if pc+1+length > len(c) {
				return fmt.Errorf(
					"CheckCodeValidity: Invalid bytecode or argument at pc=%d (opcode %s)", pc, opcodes.Name(op))
			}
			pc += 1 + length
		}
	}
	return nil
}

// variableLength computes the total instruction length (including the
// opcode byte) for tableswitch/lookupswitch/wide, whose encodings embed
// their own size.
func variableLength(code []byte, pc int, op byte) (int, error) {
	switch op {
	case opcodes.WIDE:
		if pc+1 >= len(code) {
			return 0, fmt.Errorf("CheckCodeValidity: Invalid bytecode or argument at pc=%d (wide)", pc)
		}
		if code[pc+1] == opcodes.IINC {
			return 6, nil // wide iinc: opcode, modified opcode, 2-byte index, 2-byte const
		}
		return 4, nil // wide <load/store>: opcode, modified opcode, 2-byte index
	case opcodes.TABLESWITCH:
		pad := (4 - (pc+1)%4) % 4
		base := pc + 1 + pad
		if base+12 > len(code) {
			return 0, fmt.Errorf("CheckCodeValidity: Invalid bytecode or argument at pc=%d (tableswitch)", pc)
		}
		low := beInt32(code[base+4:])
		high := beInt32(code[base+8:])
		if high < low {
			return 0, fmt.Errorf("CheckCodeValidity: Invalid bytecode or argument at pc=%d (tableswitch high<low)", pc)
		}
		entries := int(high-low) + 1
		total := base + 12 + entries*4 - pc
		if pc+total > len(code) {
			return 0, fmt.Errorf("CheckCodeValidity: Invalid bytecode or argument at pc=%d (tableswitch truncated)", pc)
		}
		return total, nil
	case opcodes.LOOKUPSWITCH:
		pad := (4 - (pc+1)%4) % 4
		base := pc + 1 + pad
		if base+8 > len(code) {
			return 0, fmt.Errorf("CheckCodeValidity: Invalid bytecode or argument at pc=%d (lookupswitch)", pc)
		}
		npairs := int(beInt32(code[base+4:]))
		if npairs < 0 {
			return 0, fmt.Errorf("CheckCodeValidity: Invalid bytecode or argument at pc=%d (lookupswitch npairs<0)", pc)
		}
		total := base + 8 + npairs*8 - pc
		if pc+total > len(code) {
			return 0, fmt.Errorf("CheckCodeValidity: Invalid bytecode or argument at pc=%d (lookupswitch truncated)", pc)
		}
		return total, nil
	}
	return 0, fmt.Errorf("CheckCodeValidity: unrecognized variable-length opcode at pc=%d", pc)
}

func beInt32(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// byteCodeIsForLongOrDouble reports whether op pushes or manipulates a
// category-2 (long/double) value. The interpreter does not call it: it
// keeps every value, of either category, in a single Cell.
func byteCodeIsForLongOrDouble(op byte) bool {
	switch op {
	case opcodes.LCONST_0, opcodes.LCONST_1, opcodes.DCONST_0, opcodes.DCONST_1,
		opcodes.LLOAD, opcodes.DLOAD, opcodes.LSTORE, opcodes.DSTORE,
		opcodes.LLOAD_0, opcodes.LLOAD_1, opcodes.LLOAD_2, opcodes.LLOAD_3,
		opcodes.DLOAD_0, opcodes.DLOAD_1, opcodes.DLOAD_2, opcodes.DLOAD_3,
		opcodes.LSTORE_0, opcodes.LSTORE_1, opcodes.LSTORE_2, opcodes.LSTORE_3,
		opcodes.DSTORE_0, opcodes.DSTORE_1, opcodes.DSTORE_2, opcodes.DSTORE_3,
		opcodes.LADD, opcodes.DADD, opcodes.LSUB, opcodes.DSUB,
		opcodes.LMUL, opcodes.DMUL, opcodes.LDIV, opcodes.DDIV,
		opcodes.LREM, opcodes.DREM, opcodes.LNEG, opcodes.DNEG,
		opcodes.LAND, opcodes.LOR, opcodes.LXOR,
		opcodes.LCMP, opcodes.DCMPG, opcodes.DCMPL:
		return true
	default:
		return false
	}
}
