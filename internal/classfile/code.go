package classfile

import (
	"encoding/binary"
	"fmt"
)

// Invocation opcodes reported to MethodVisitor.
const (
	OpInvokeVirtual   byte = 0xb6
	OpInvokeSpecial   byte = 0xb7
	OpInvokeStatic    byte = 0xb8
	OpInvokeInterface byte = 0xb9
	OpInvokeDynamic   byte = 0xba

	opTableSwitch  byte = 0xaa
	opLookupSwitch byte = 0xab
	opWide         byte = 0xc4
	opIinc         byte = 0x84
)

// MethodInsn is one invoke instruction with its resolved method reference.
type MethodInsn struct {
	Opcode     byte
	Owner      string // dotted owner class
	Name       string
	Descriptor string
	Interface  bool
	Offset     int
}

// insnLength holds fixed instruction lengths; 0 marks an undefined opcode and
// -1 a variable-length one.
var insnLength = func() [256]int8 {
	var t [256]int8
	set := func(from, to int, n int8) {
		for op := from; op <= to; op++ {
			t[op] = n
		}
	}
	set(0x00, 0x0f, 1) // nop .. dconst_1
	t[0x10] = 2        // bipush
	t[0x11] = 3        // sipush
	t[0x12] = 2        // ldc
	set(0x13, 0x14, 3) // ldc_w, ldc2_w
	set(0x15, 0x19, 2) // loads with index
	set(0x1a, 0x35, 1)
	set(0x36, 0x3a, 2) // stores with index
	set(0x3b, 0x83, 1)
	t[opIinc] = 3
	set(0x85, 0x98, 1)
	set(0x99, 0xa8, 3) // branches, goto, jsr
	t[0xa9] = 2        // ret
	t[opTableSwitch] = -1
	t[opLookupSwitch] = -1
	set(0xac, 0xb1, 1) // returns
	set(0xb2, 0xb5, 3) // field access
	set(0xb6, 0xb8, 3)
	set(0xb9, 0xba, 5)
	t[0xbb] = 3 // new
	t[0xbc] = 2 // newarray
	t[0xbd] = 3 // anewarray
	set(0xbe, 0xbf, 1)
	set(0xc0, 0xc1, 3) // checkcast, instanceof
	set(0xc2, 0xc3, 1)
	t[opWide] = -1
	t[0xc5] = 4        // multianewarray
	set(0xc6, 0xc7, 3) // ifnull, ifnonnull
	set(0xc8, 0xc9, 5) // goto_w, jsr_w
	t[0xca] = 1        // breakpoint
	set(0xfe, 0xff, 1) // impdep
	return t
}()

// walkCode steps through a Code attribute's bytecode and reports every
// invokevirtual, invokespecial, invokestatic and invokeinterface instruction.
func walkCode(code []byte, cp constPool, mv MethodVisitor) error {
	for pc := 0; pc < len(code); {
		op := code[pc]
		n := int(insnLength[op])
		switch {
		case n == 0:
			return fmt.Errorf("classfile: undefined opcode 0x%02x at offset %d", op, pc)
		case n < 0:
			var err error
			if n, err = variableLength(code, pc); err != nil {
				return err
			}
		}
		if pc+n > len(code) {
			return fmt.Errorf("classfile: instruction 0x%02x at offset %d overruns code", op, pc)
		}
		if op >= OpInvokeVirtual && op <= OpInvokeInterface {
			idx := binary.BigEndian.Uint16(code[pc+1:])
			owner, name, desc, iface, err := cp.memberRef(idx)
			if err != nil {
				return err
			}
			mv.VisitMethodInsn(MethodInsn{
				Opcode:     op,
				Owner:      ClassName(owner),
				Name:       name,
				Descriptor: desc,
				Interface:  iface,
				Offset:     pc,
			})
		}
		pc += n
	}
	return nil
}

func variableLength(code []byte, pc int) (int, error) {
	op := code[pc]
	if op == opWide {
		if pc+1 >= len(code) {
			return 0, ErrTruncated
		}
		if code[pc+1] == opIinc {
			return 6, nil
		}
		return 4, nil
	}

	// Switch operands start at the next 4-byte boundary from the code start.
	pad := (4 - (pc+1)%4) % 4
	base := pc + 1 + pad
	s4 := func(off int) (int, bool) {
		if off+4 > len(code) {
			return 0, false
		}
		return int(int32(binary.BigEndian.Uint32(code[off:]))), true
	}

	if op == opTableSwitch {
		low, ok1 := s4(base + 4)
		high, ok2 := s4(base + 8)
		if !ok1 || !ok2 || high < low {
			return 0, fmt.Errorf("classfile: malformed tableswitch at offset %d", pc)
		}
		return 1 + pad + 12 + 4*(high-low+1), nil
	}

	npairs, ok := s4(base + 4)
	if !ok || npairs < 0 {
		return 0, fmt.Errorf("classfile: malformed lookupswitch at offset %d", pc)
	}
	return 1 + pad + 8 + 8*npairs, nil
}
