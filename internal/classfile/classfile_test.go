package classfile_test

import (
	"errors"
	"testing"

	"codevision/internal/classfile"
	"codevision/internal/classfile/classfiletest"
)

func TestParseClassStructure(t *testing.T) {
	data := classfiletest.New("com.acme.order.OrderService").
		Super("com.acme.order.BaseService").
		Implements("com.acme.order.Api", "java.io.Serializable").
		Annotate(
			classfiletest.A("org.springframework.stereotype.Service"),
			classfiletest.A("com.acme.Internal").WithInvisible(),
		).
		Field("repo", "Lcom/acme/order/OrderRepository;", classfiletest.A("org.springframework.beans.factory.annotation.Autowired")).
		GenericField("items", "Ljava/util/List;", "Ljava/util/List<Lcom/acme/order/Item;>;").
		Method("place", "(Ljava/lang/String;)V", nil).
		Bytes()

	c, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if c.Name != "com.acme.order.OrderService" {
		t.Errorf("Name = %q, want com.acme.order.OrderService", c.Name)
	}
	if c.SuperName != "com.acme.order.BaseService" {
		t.Errorf("SuperName = %q", c.SuperName)
	}
	if len(c.Interfaces) != 2 || c.Interfaces[1] != "java.io.Serializable" {
		t.Errorf("Interfaces = %v", c.Interfaces)
	}
	if len(c.Annotations) != 2 {
		t.Fatalf("len(Annotations) = %d, want 2", len(c.Annotations))
	}
	if c.Annotations[0].Type != "org.springframework.stereotype.Service" || !c.Annotations[0].Visible {
		t.Errorf("Annotations[0] = %+v", c.Annotations[0])
	}
	if c.Annotations[1].Visible {
		t.Errorf("Annotations[1] should be invisible")
	}

	if len(c.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(c.Fields))
	}
	if got := c.Fields[0].TypeName(); got != "com.acme.order.OrderRepository" {
		t.Errorf("Fields[0].TypeName() = %q", got)
	}
	if got := c.Fields[1].TypeName(); got != "java.util.List<com.acme.order.Item>" {
		t.Errorf("Fields[1].TypeName() = %q", got)
	}
	if len(c.Fields[0].Annotations) != 1 {
		t.Errorf("field annotations = %v", c.Fields[0].Annotations)
	}
	if len(c.Methods) != 1 || c.Methods[0].Name != "place" {
		t.Errorf("Methods = %+v", c.Methods)
	}
}

func TestAnnotationValues(t *testing.T) {
	data := classfiletest.New("com.acme.web.Controller").
		Annotate(classfiletest.A("org.springframework.web.bind.annotation.RequestMapping",
			"value", []any{"/api", " "},
			"method", []any{classfiletest.Enum{Type: "org.springframework.web.bind.annotation.RequestMethod", Name: "POST"}},
			"priority", 7,
			"delay", int64(5000),
			"enabled", true,
			"nested", classfiletest.A("com.acme.Meta", "name", "x"),
		)).
		Bytes()

	c, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	a := c.Annotations[0]

	if got := a.Strings("value"); len(got) != 1 || got[0] != "/api" {
		t.Errorf("Strings(value) = %v, want [/api]", got)
	}
	if got, ok := a.String("method"); !ok || got != "POST" {
		t.Errorf("String(method) = %q, %v", got, ok)
	}
	if got, ok := a.Int("priority"); !ok || got != 7 {
		t.Errorf("Int(priority) = %d, %v", got, ok)
	}
	if got, ok := a.Int("delay"); !ok || got != 5000 {
		t.Errorf("Int(delay) = %d, %v", got, ok)
	}
	if got, ok := a.String("enabled"); !ok || got != "true" {
		t.Errorf("String(enabled) = %q, %v", got, ok)
	}
	if _, ok := a.String("missing"); ok {
		t.Errorf("String(missing) should report absent")
	}
	if _, ok := a.Int("value"); ok {
		t.Errorf("Int(value) should report wrong shape as absent")
	}
	nested, ok := a.Value("nested")
	if !ok || nested.Annotation == nil || nested.Annotation.Type != "com.acme.Meta" {
		t.Errorf("nested = %+v", nested)
	}
	if got := []string{a.Names[0], a.Names[len(a.Names)-1]}; got[0] != "value" || got[1] != "nested" {
		t.Errorf("Names = %v", a.Names)
	}
}

type callRecorder struct {
	calls []classfile.MethodInsn
	owner string
}

func (r *callRecorder) VisitClass(h *classfile.Header) bool { r.owner = h.Name; return true }
func (r *callRecorder) VisitField(*classfile.Member)       {}
func (r *callRecorder) VisitMethod(*classfile.Member) classfile.MethodVisitor {
	return r
}
func (r *callRecorder) VisitEnd(*classfile.Attributes)           {}
func (r *callRecorder) VisitMethodInsn(insn classfile.MethodInsn) { r.calls = append(r.calls, insn) }

func TestDecodeMethodCalls(t *testing.T) {
	data := classfiletest.New("com.acme.A").
		Method("run", "()V", nil,
			classfiletest.Call{Opcode: classfiletest.InvokeVirtual, Owner: "com.acme.B", Name: "go", Desc: "()V"},
			classfiletest.Call{Opcode: classfiletest.InvokeInterface, Owner: "com.acme.Port", Name: "send", Desc: "(I)Z"},
			classfiletest.Call{Opcode: classfiletest.InvokeStatic, Owner: "java.util.Objects", Name: "hash", Desc: "([Ljava/lang/Object;)I"},
		).
		Method("other", "()V", nil,
			classfiletest.Call{Opcode: classfiletest.InvokeSpecial, Owner: "com.acme.A", Name: "run", Desc: "()V"},
		).
		Bytes()

	rec := &callRecorder{}
	if err := classfile.Decode(data, rec); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(rec.calls) != 4 {
		t.Fatalf("len(calls) = %d, want 4", len(rec.calls))
	}
	want := []struct {
		owner, name string
		iface       bool
	}{
		{"com.acme.B", "go", false},
		{"com.acme.Port", "send", true},
		{"java.util.Objects", "hash", false},
		{"com.acme.A", "run", false},
	}
	for i, w := range want {
		got := rec.calls[i]
		if got.Owner != w.owner || got.Name != w.name || got.Interface != w.iface {
			t.Errorf("calls[%d] = %+v, want %+v", i, got, w)
		}
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	if _, err := classfile.Parse([]byte{0xde, 0xad, 0xbe, 0xef, 0, 0}); !errors.Is(err, classfile.ErrNotClassFile) {
		t.Errorf("bad magic error = %v, want ErrNotClassFile", err)
	}

	data := classfiletest.New("com.acme.A").Field("x", "I").Bytes()
	if _, err := classfile.Parse(data[:len(data)-3]); err == nil {
		t.Errorf("truncated input should fail")
	}
	if _, err := classfile.Parse(nil); !errors.Is(err, classfile.ErrTruncated) {
		t.Errorf("empty input error = %v, want ErrTruncated", err)
	}
}

func TestRecordAndKinds(t *testing.T) {
	rec, err := classfile.Parse(classfiletest.New("com.acme.Point").Super("java.lang.Record").Record().Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !rec.IsRecord() {
		t.Errorf("IsRecord() = false, want true")
	}

	iface, err := classfile.Parse(classfiletest.New("com.acme.Port").
		Access(classfiletest.AccPublic | classfiletest.AccInterface | classfiletest.AccAbstract).Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !iface.Is(classfile.AccInterface) {
		t.Errorf("interface flag not set")
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"I", "int"},
		{"[B", "byte[]"},
		{"Ljava/lang/String;", "java.lang.String"},
		{"Ljava/util/Map<Ljava/lang/String;+Lcom/acme/Item;>;", "java.util.Map<java.lang.String, ? extends com.acme.Item>"},
		{"Ljava/util/List<*>;", "java.util.List<?>"},
		{"TT;", "T"},
		{"[Ljava/util/List<-Lcom/acme/A;>;", "java.util.List<? super com.acme.A>[]"},
		{"Lcom/acme/Outer<TT;>.Inner;", "com.acme.Outer<T>$Inner"},
		{"not a signature", "not a signature"},
	}
	for _, tt := range tests {
		if got := classfile.TypeName(tt.in); got != tt.want {
			t.Errorf("TypeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
