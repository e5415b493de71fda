// Package classfile decodes compiled JVM class files into structural facts
// without loading or executing them.
package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf16"
)

// ErrTruncated is returned when a class file ends before a structure is complete.
var ErrTruncated = errors.New("classfile: truncated input")

// reader is a big-endian cursor with a sticky error.
type reader struct {
	data []byte
	pos  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = ErrTruncated
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) u8() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

type cpEntry struct {
	tag  uint8
	a, b uint16
	str  string
	num  int64
	fnum float64
}

type constPool []cpEntry

func readConstPool(r *reader) (constPool, error) {
	count := int(r.u2())
	cp := make(constPool, count)
	for i := 1; i < count; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n := int(r.u2())
			e.str = decodeModifiedUTF8(r.bytes(n))
		case tagInteger:
			e.num = int64(int32(r.u4()))
		case tagFloat:
			e.fnum = float64(math.Float32frombits(r.u4()))
		case tagLong:
			e.num = int64(r.u8())
		case tagDouble:
			e.fnum = math.Float64frombits(r.u8())
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.a = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			e.a = r.u2()
			e.b = r.u2()
		case tagMethodHandle:
			e.a = uint16(r.u1())
			e.b = r.u2()
		default:
			if r.err != nil {
				return nil, r.err
			}
			return nil, fmt.Errorf("classfile: unknown constant pool tag %d at index %d", tag, i)
		}
		if r.err != nil {
			return nil, r.err
		}
		cp[i] = e
		// Long and double take two slots.
		if tag == tagLong || tag == tagDouble {
			i++
		}
	}
	return cp, r.err
}

func (cp constPool) entry(i uint16, tag uint8) (cpEntry, error) {
	if int(i) <= 0 || int(i) >= len(cp) {
		return cpEntry{}, fmt.Errorf("classfile: constant pool index %d out of range", i)
	}
	e := cp[i]
	if e.tag != tag {
		return cpEntry{}, fmt.Errorf("classfile: constant pool index %d has tag %d, want %d", i, e.tag, tag)
	}
	return e, nil
}

func (cp constPool) utf8(i uint16) (string, error) {
	e, err := cp.entry(i, tagUtf8)
	if err != nil {
		return "", err
	}
	return e.str, nil
}

// className resolves a CONSTANT_Class entry to its internal (slash) name.
func (cp constPool) className(i uint16) (string, error) {
	e, err := cp.entry(i, tagClass)
	if err != nil {
		return "", err
	}
	return cp.utf8(e.a)
}

// memberRef resolves a Methodref or InterfaceMethodref entry.
func (cp constPool) memberRef(i uint16) (owner, name, desc string, iface bool, err error) {
	if int(i) <= 0 || int(i) >= len(cp) {
		return "", "", "", false, fmt.Errorf("classfile: constant pool index %d out of range", i)
	}
	e := cp[i]
	switch e.tag {
	case tagMethodref:
	case tagInterfaceMethodref:
		iface = true
	default:
		return "", "", "", false, fmt.Errorf("classfile: constant pool index %d is not a method reference", i)
	}
	if owner, err = cp.className(e.a); err != nil {
		return "", "", "", false, err
	}
	nt, err := cp.entry(e.b, tagNameAndType)
	if err != nil {
		return "", "", "", false, err
	}
	if name, err = cp.utf8(nt.a); err != nil {
		return "", "", "", false, err
	}
	if desc, err = cp.utf8(nt.b); err != nil {
		return "", "", "", false, err
	}
	return owner, name, desc, iface, nil
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8 encoding, which differs
// from standard UTF-8 for NUL and supplementary characters.
func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xe0 == 0xc0 && i+1 < len(b):
			units = append(units, uint16(c&0x1f)<<6|uint16(b[i+1]&0x3f))
			i += 2
		case c&0xf0 == 0xe0 && i+2 < len(b):
			units = append(units, uint16(c&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3
		default:
			units = append(units, 0xfffd)
			i++
		}
	}
	return string(utf16.Decode(units))
}
