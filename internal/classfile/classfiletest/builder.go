// Package classfiletest assembles minimal class files in memory for tests.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Access flags used by tests.
const (
	AccPublic     uint16 = 0x0001
	AccSynthetic  uint16 = 0x1000
	AccInterface  uint16 = 0x0200
	AccAbstract   uint16 = 0x0400
	AccAnnotation uint16 = 0x2000
	AccEnum       uint16 = 0x4000
	AccBridge     uint16 = 0x0040
)

// Invoke opcodes.
const (
	InvokeVirtual   byte = 0xb6
	InvokeSpecial   byte = 0xb7
	InvokeStatic    byte = 0xb8
	InvokeInterface byte = 0xb9
)

// Ann describes an annotation. Values map attribute names to string, int,
// int64, bool, Enum, Ann or []any.
type Ann struct {
	Type      string // dotted
	Invisible bool
	Values    []Pair
}

// Pair is one annotation attribute.
type Pair struct {
	Name  string
	Value any
}

// Enum is an enum-constant attribute value.
type Enum struct {
	Type string // dotted
	Name string
}

// Call is one invoke instruction in a generated method body.
type Call struct {
	Opcode byte
	Owner  string // dotted
	Name   string
	Desc   string
}

// A annotates with the given type and alternating name/value arguments.
func A(typ string, kv ...any) Ann {
	a := Ann{Type: typ}
	for i := 0; i+1 < len(kv); i += 2 {
		a.Values = append(a.Values, Pair{Name: kv[i].(string), Value: kv[i+1]})
	}
	return a
}

// WithInvisible stores the annotation in RuntimeInvisibleAnnotations.
func (a Ann) WithInvisible() Ann {
	a.Invisible = true
	return a
}

type member struct {
	access uint16
	name   string
	desc   string
	sig    string
	anns   []Ann
	calls  []Call
	code   bool
}

// Builder accumulates a class definition.
type Builder struct {
	name       string
	super      string
	access     uint16
	interfaces []string
	anns       []Ann
	fields     []member
	methods    []member
	record     bool
	major      uint16
}

// New starts a public class extending java.lang.Object.
func New(name string) *Builder {
	return &Builder{name: name, super: "java.lang.Object", access: AccPublic | 0x0020, major: 61}
}

// Access replaces the class access flags.
func (b *Builder) Access(flags uint16) *Builder { b.access = flags; return b }

// Super sets the superclass; an empty name omits it.
func (b *Builder) Super(name string) *Builder { b.super = name; return b }

// Implements adds interfaces.
func (b *Builder) Implements(names ...string) *Builder {
	b.interfaces = append(b.interfaces, names...)
	return b
}

// Annotate adds class-level annotations.
func (b *Builder) Annotate(anns ...Ann) *Builder {
	b.anns = append(b.anns, anns...)
	return b
}

// Record marks the class with a Record attribute.
func (b *Builder) Record() *Builder { b.record = true; return b }

// Field adds a field with a descriptor such as "Lcom/acme/Repo;".
func (b *Builder) Field(name, desc string, anns ...Ann) *Builder {
	b.fields = append(b.fields, member{access: 0x0002, name: name, desc: desc, anns: anns})
	return b
}

// GenericField adds a field carrying a Signature attribute.
func (b *Builder) GenericField(name, desc, sig string, anns ...Ann) *Builder {
	b.fields = append(b.fields, member{access: 0x0002, name: name, desc: desc, sig: sig, anns: anns})
	return b
}

// Method adds a public method whose body performs the given calls.
func (b *Builder) Method(name, desc string, anns []Ann, calls ...Call) *Builder {
	b.methods = append(b.methods, member{access: AccPublic, name: name, desc: desc, anns: anns, calls: calls, code: true})
	return b
}

// MethodWithAccess adds a method with explicit access flags.
func (b *Builder) MethodWithAccess(access uint16, name, desc string, anns []Ann, calls ...Call) *Builder {
	b.methods = append(b.methods, member{access: access, name: name, desc: desc, anns: anns, calls: calls, code: true})
	return b
}

// Bytes encodes the class file.
func (b *Builder) Bytes() []byte {
	cp := newPool()
	var body bytes.Buffer

	u2(&body, b.access)
	u2(&body, cp.class(b.name))
	if b.super == "" {
		u2(&body, 0)
	} else {
		u2(&body, cp.class(b.super))
	}
	u2(&body, uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		u2(&body, cp.class(i))
	}

	u2(&body, uint16(len(b.fields)))
	for _, f := range b.fields {
		writeMember(&body, cp, f)
	}
	u2(&body, uint16(len(b.methods)))
	for _, m := range b.methods {
		writeMember(&body, cp, m)
	}

	var attrs [][]byte
	if len(b.anns) > 0 {
		attrs = append(attrs, annotationAttrs(cp, b.anns)...)
	}
	if b.record {
		attrs = append(attrs, attribute(cp, "Record", []byte{0, 0}))
	}
	u2(&body, uint16(len(attrs)))
	for _, a := range attrs {
		body.Write(a)
	}

	var out bytes.Buffer
	u4(&out, 0xCAFEBABE)
	u2(&out, 0)
	u2(&out, b.major)
	cp.writeTo(&out)
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeMember(w *bytes.Buffer, cp *pool, m member) {
	u2(w, m.access)
	u2(w, cp.utf8(m.name))
	u2(w, cp.utf8(m.desc))
	var attrs [][]byte
	if m.sig != "" {
		var sig bytes.Buffer
		u2(&sig, cp.utf8(m.sig))
		attrs = append(attrs, attribute(cp, "Signature", sig.Bytes()))
	}
	attrs = append(attrs, annotationAttrs(cp, m.anns)...)
	if m.code {
		attrs = append(attrs, codeAttr(cp, m.calls))
	}
	u2(w, uint16(len(attrs)))
	for _, a := range attrs {
		w.Write(a)
	}
}

// codeAttr emits aload_0 + invoke per call, then a tableswitch (to exercise
// operand alignment) and return.
func codeAttr(cp *pool, calls []Call) []byte {
	var code bytes.Buffer
	for _, c := range calls {
		code.WriteByte(0x2a) // aload_0
		if c.Opcode == InvokeInterface {
			code.WriteByte(c.Opcode)
			u2(&code, cp.methodRef(c.Owner, c.Name, c.Desc, true))
			code.WriteByte(1)
			code.WriteByte(0)
			continue
		}
		code.WriteByte(c.Opcode)
		u2(&code, cp.methodRef(c.Owner, c.Name, c.Desc, false))
	}
	code.WriteByte(0x03) // iconst_0
	pc := code.Len()
	code.WriteByte(0xaa) // tableswitch
	for code.Len()%4 != 0 {
		code.WriteByte(0)
	}
	offset := uint32(code.Len() - pc + 12 + 4)
	u4(&code, offset) // default
	u4(&code, 0)      // low
	u4(&code, 0)      // high
	u4(&code, offset) // single jump
	code.WriteByte(0xb1) // return

	var body bytes.Buffer
	u2(&body, 4) // max_stack
	u2(&body, 4) // max_locals
	u4(&body, uint32(code.Len()))
	body.Write(code.Bytes())
	u2(&body, 0) // exception table
	u2(&body, 0) // attributes
	return attribute(cp, "Code", body.Bytes())
}

func annotationAttrs(cp *pool, anns []Ann) [][]byte {
	var visible, invisible []Ann
	for _, a := range anns {
		if a.Invisible {
			invisible = append(invisible, a)
		} else {
			visible = append(visible, a)
		}
	}
	var out [][]byte
	for _, group := range []struct {
		name string
		anns []Ann
	}{{"RuntimeVisibleAnnotations", visible}, {"RuntimeInvisibleAnnotations", invisible}} {
		if len(group.anns) == 0 {
			continue
		}
		var body bytes.Buffer
		u2(&body, uint16(len(group.anns)))
		for _, a := range group.anns {
			writeAnnotation(&body, cp, a)
		}
		out = append(out, attribute(cp, group.name, body.Bytes()))
	}
	return out
}

func writeAnnotation(w *bytes.Buffer, cp *pool, a Ann) {
	u2(w, cp.utf8("L"+internal(a.Type)+";"))
	u2(w, uint16(len(a.Values)))
	for _, p := range a.Values {
		u2(w, cp.utf8(p.Name))
		writeElement(w, cp, p.Value)
	}
}

func writeElement(w *bytes.Buffer, cp *pool, v any) {
	switch x := v.(type) {
	case string:
		w.WriteByte('s')
		u2(w, cp.utf8(x))
	case int:
		w.WriteByte('I')
		u2(w, cp.integer(int32(x)))
	case int64:
		w.WriteByte('J')
		u2(w, cp.long(x))
	case bool:
		w.WriteByte('Z')
		n := int32(0)
		if x {
			n = 1
		}
		u2(w, cp.integer(n))
	case Enum:
		w.WriteByte('e')
		u2(w, cp.utf8("L"+internal(x.Type)+";"))
		u2(w, cp.utf8(x.Name))
	case Ann:
		w.WriteByte('@')
		writeAnnotation(w, cp, x)
	case []any:
		w.WriteByte('[')
		u2(w, uint16(len(x)))
		for _, e := range x {
			writeElement(w, cp, e)
		}
	case []string:
		w.WriteByte('[')
		u2(w, uint16(len(x)))
		for _, e := range x {
			writeElement(w, cp, e)
		}
	default:
		panic("classfiletest: unsupported element value")
	}
}

func attribute(cp *pool, name string, body []byte) []byte {
	var w bytes.Buffer
	u2(&w, cp.utf8(name))
	u4(&w, uint32(len(body)))
	w.Write(body)
	return w.Bytes()
}

func internal(name string) string { return strings.ReplaceAll(name, ".", "/") }

type pool struct {
	entries [][]byte
	index   map[string]uint16
	next    uint16
}

func newPool() *pool { return &pool{index: map[string]uint16{}, next: 1} }

func (p *pool) add(key string, entry []byte, slots uint16) uint16 {
	if i, ok := p.index[key]; ok {
		return i
	}
	i := p.next
	p.entries = append(p.entries, entry)
	p.index[key] = i
	p.next += slots
	return i
}

func (p *pool) utf8(s string) uint16 {
	var e bytes.Buffer
	e.WriteByte(1)
	u2(&e, uint16(len(s)))
	e.WriteString(s)
	return p.add("u:"+s, e.Bytes(), 1)
}

func (p *pool) integer(n int32) uint16 {
	var e bytes.Buffer
	e.WriteByte(3)
	u4(&e, uint32(n))
	return p.add("i:"+string(e.Bytes()[1:]), e.Bytes(), 1)
}

func (p *pool) long(n int64) uint16 {
	var e bytes.Buffer
	e.WriteByte(5)
	_ = binary.Write(&e, binary.BigEndian, n)
	return p.add("j:"+string(e.Bytes()[1:]), e.Bytes(), 2)
}

func (p *pool) class(dotted string) uint16 {
	name := p.utf8(internal(dotted))
	var e bytes.Buffer
	e.WriteByte(7)
	u2(&e, name)
	return p.add("c:"+dotted, e.Bytes(), 1)
}

func (p *pool) methodRef(owner, name, desc string, iface bool) uint16 {
	cls := p.class(owner)
	n := p.utf8(name)
	d := p.utf8(desc)
	var nt bytes.Buffer
	nt.WriteByte(12)
	u2(&nt, n)
	u2(&nt, d)
	ntIdx := p.add("nt:"+name+":"+desc, nt.Bytes(), 1)

	var e bytes.Buffer
	tag := byte(10)
	if iface {
		tag = 11
	}
	e.WriteByte(tag)
	u2(&e, cls)
	u2(&e, ntIdx)
	return p.add("m:"+string(tag)+owner+"."+name+desc, e.Bytes(), 1)
}

func (p *pool) writeTo(w *bytes.Buffer) {
	u2(w, p.next)
	for _, e := range p.entries {
		w.Write(e)
	}
}

func u2(w *bytes.Buffer, v uint16) { _ = binary.Write(w, binary.BigEndian, v) }
func u4(w *bytes.Buffer, v uint32) { _ = binary.Write(w, binary.BigEndian, v) }
