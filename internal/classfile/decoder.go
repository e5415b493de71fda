package classfile

import (
	"errors"
	"fmt"
)

// Magic is the class file signature.
const Magic uint32 = 0xCAFEBABE

// Access flags.
const (
	AccPublic     uint16 = 0x0001
	AccPrivate    uint16 = 0x0002
	AccProtected  uint16 = 0x0004
	AccStatic     uint16 = 0x0008
	AccFinal      uint16 = 0x0010
	AccSuper      uint16 = 0x0020
	AccBridge     uint16 = 0x0040
	AccInterface  uint16 = 0x0200
	AccAbstract   uint16 = 0x0400
	AccSynthetic  uint16 = 0x1000
	AccAnnotation uint16 = 0x2000
	AccEnum       uint16 = 0x4000
)

// ErrNotClassFile is returned when the input does not start with the class file magic.
var ErrNotClassFile = errors.New("classfile: bad magic number")

// Header is the fixed part of a class file, available before members are decoded.
type Header struct {
	Major      uint16
	Minor      uint16
	Access     uint16
	Name       string // dotted
	SuperName  string // dotted, empty for java.lang.Object and module-info
	Interfaces []string
}

// Is reports whether all bits of flag are set.
func (h *Header) Is(flag uint16) bool { return h.Access&flag == flag }

// Member is a field or method.
type Member struct {
	Access      uint16
	Name        string
	Descriptor  string
	Signature   string
	Annotations []Annotation
}

// Is reports whether all bits of flag are set.
func (m *Member) Is(flag uint16) bool { return m.Access&flag == flag }

// TypeName renders the member's generic signature, or its descriptor when it has none.
func (m *Member) TypeName() string {
	if m.Signature != "" {
		return TypeName(m.Signature)
	}
	return TypeName(m.Descriptor)
}

// Attributes are the class-level attributes, which follow all members in the file.
type Attributes struct {
	Signature   string
	SourceFile  string
	Annotations []Annotation
	Record      bool
}

// Visitor receives a class file's structure in file order.
type Visitor interface {
	// VisitClass is called first. Returning false stops decoding.
	VisitClass(h *Header) bool
	VisitField(f *Member)
	// VisitMethod returns a MethodVisitor for the method body, or nil to skip it.
	VisitMethod(m *Member) MethodVisitor
	VisitEnd(attrs *Attributes)
}

// MethodVisitor receives the invoke instructions of one method body.
type MethodVisitor interface {
	VisitMethodInsn(insn MethodInsn)
}

// Decode reads a class file and reports it to v.
func Decode(data []byte, v Visitor) error {
	r := newReader(data)
	if r.u4() != Magic {
		if r.err != nil {
			return r.err
		}
		return ErrNotClassFile
	}
	h := &Header{}
	h.Minor = r.u2()
	h.Major = r.u2()

	cp, err := readConstPool(r)
	if err != nil {
		return err
	}

	h.Access = r.u2()
	thisIdx := r.u2()
	superIdx := r.u2()
	if r.err != nil {
		return r.err
	}
	name, err := cp.className(thisIdx)
	if err != nil {
		return fmt.Errorf("this_class: %w", err)
	}
	h.Name = ClassName(name)
	if superIdx != 0 {
		super, err := cp.className(superIdx)
		if err != nil {
			return fmt.Errorf("super_class: %w", err)
		}
		h.SuperName = ClassName(super)
	}
	n := int(r.u2())
	for i := 0; i < n; i++ {
		iface, err := cp.className(r.u2())
		if err != nil {
			return fmt.Errorf("interfaces: %w", err)
		}
		h.Interfaces = append(h.Interfaces, ClassName(iface))
	}
	if r.err != nil {
		return r.err
	}

	if !v.VisitClass(h) {
		return nil
	}

	n = int(r.u2())
	for i := 0; i < n; i++ {
		m, _, err := readMember(r, cp)
		if err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		v.VisitField(m)
	}

	n = int(r.u2())
	for i := 0; i < n; i++ {
		m, code, err := readMember(r, cp)
		if err != nil {
			return fmt.Errorf("method %d: %w", i, err)
		}
		mv := v.VisitMethod(m)
		if mv != nil && code != nil {
			if err := walkCode(code, cp, mv); err != nil {
				return fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
			}
		}
	}

	attrs, err := readClassAttributes(r, cp)
	if err != nil {
		return fmt.Errorf("class attributes: %w", err)
	}
	v.VisitEnd(attrs)
	return nil
}

// readMember reads a field_info or method_info. For methods it also returns
// the raw bytecode of the Code attribute, if any.
func readMember(r *reader, cp constPool) (*Member, []byte, error) {
	m := &Member{Access: r.u2()}
	var err error
	if m.Name, err = cp.utf8(r.u2()); err != nil {
		return nil, nil, err
	}
	if m.Descriptor, err = cp.utf8(r.u2()); err != nil {
		return nil, nil, err
	}
	var code []byte
	count := int(r.u2())
	for i := 0; i < count; i++ {
		name, body, err := readAttribute(r, cp)
		if err != nil {
			return nil, nil, err
		}
		switch name {
		case "Signature":
			m.Signature, err = signatureAttr(body, cp)
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			var anns []Annotation
			anns, err = readAnnotations(newReader(body), cp, name == "RuntimeVisibleAnnotations")
			m.Annotations = append(m.Annotations, anns...)
		case "Code":
			code, err = codeBytes(body)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%s attribute: %w", name, err)
		}
	}
	return m, code, r.err
}

func readClassAttributes(r *reader, cp constPool) (*Attributes, error) {
	attrs := &Attributes{}
	count := int(r.u2())
	for i := 0; i < count; i++ {
		name, body, err := readAttribute(r, cp)
		if err != nil {
			return nil, err
		}
		switch name {
		case "Signature":
			attrs.Signature, err = signatureAttr(body, cp)
		case "SourceFile":
			attrs.SourceFile, err = signatureAttr(body, cp)
		case "Record":
			attrs.Record = true
		case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
			var anns []Annotation
			anns, err = readAnnotations(newReader(body), cp, name == "RuntimeVisibleAnnotations")
			attrs.Annotations = append(attrs.Annotations, anns...)
		}
		if err != nil {
			return nil, fmt.Errorf("%s attribute: %w", name, err)
		}
	}
	return attrs, r.err
}

func readAttribute(r *reader, cp constPool) (string, []byte, error) {
	name, err := cp.utf8(r.u2())
	if err != nil {
		return "", nil, err
	}
	length := int(r.u4())
	body := r.bytes(length)
	if r.err != nil {
		return "", nil, r.err
	}
	return name, body, nil
}

// signatureAttr decodes attributes whose body is a single utf8 index.
func signatureAttr(body []byte, cp constPool) (string, error) {
	br := newReader(body)
	idx := br.u2()
	if br.err != nil {
		return "", br.err
	}
	return cp.utf8(idx)
}

func codeBytes(body []byte) ([]byte, error) {
	br := newReader(body)
	br.u2() // max_stack
	br.u2() // max_locals
	n := int(br.u4())
	code := br.bytes(n)
	if br.err != nil {
		return nil, br.err
	}
	return code, nil
}

// Class is a fully decoded class without method bodies.
type Class struct {
	Header
	Fields  []*Member
	Methods []*Member
	Attributes
}

// IsRecord reports whether the class is a record.
func (c *Class) IsRecord() bool {
	return c.Record || c.SuperName == "java.lang.Record"
}

// Parse decodes a whole class file, skipping method bodies.
func Parse(data []byte) (*Class, error) {
	c := &collector{}
	if err := Decode(data, c); err != nil {
		return nil, err
	}
	return &c.class, nil
}

type collector struct {
	class Class
}

func (c *collector) VisitClass(h *Header) bool {
	c.class.Header = *h
	return true
}

func (c *collector) VisitField(f *Member) {
	c.class.Fields = append(c.class.Fields, f)
}

func (c *collector) VisitMethod(m *Member) MethodVisitor {
	c.class.Methods = append(c.class.Methods, m)
	return nil
}

func (c *collector) VisitEnd(attrs *Attributes) {
	c.class.Attributes = *attrs
}
