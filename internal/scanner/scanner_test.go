package scanner

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"codevision/internal/classfile/classfiletest"
	"codevision/internal/classpath"
	"codevision/internal/graph"
	"codevision/internal/slogutil"
)

const (
	web       = "org.springframework.web.bind.annotation."
	jpa       = "jakarta.persistence."
	spring    = "org.springframework.stereotype."
	springCtx = "org.springframework.context.annotation."
)

func writeClasspath(t *testing.T, classes ...*classfiletest.Builder) *classpath.Descriptor {
	t.Helper()
	dir := t.TempDir()
	if err := classfiletest.WriteClasses(dir, classes...); err != nil {
		t.Fatalf("WriteClasses() error = %v", err)
	}
	return classpath.NewDescriptor(dir, dir, []string{dir})
}

func scan(t *testing.T, accept []string, classes ...*classfiletest.Builder) *graph.Model {
	t.Helper()
	m, err := NewStructuralScanner(slogutil.NewDiscardLogger()).Scan(context.Background(), writeClasspath(t, classes...), accept)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return m
}

func endpointKeys(m *graph.Model) []string {
	var out []string
	for _, e := range m.Endpoints {
		out = append(out, string(e.Type)+" "+e.HTTPMethod+" "+e.Path+" "+e.ControllerMethod)
	}
	sort.Strings(out)
	return out
}

func controller() *classfiletest.Builder {
	A := classfiletest.A
	return classfiletest.New("com.acme.web.OrderController").
		Annotate(A(web+"RestController"), A(web+"RequestMapping", "value", []string{"/api"}, "produces", []string{"application/json"})).
		Method("list", "()V", []classfiletest.Ann{A(web+"GetMapping", "value", []string{"/a", "/b"})}).
		Method("create", "()V", []classfiletest.Ann{A(web+"RequestMapping",
			"path", []string{"c"},
			"method", []any{classfiletest.Enum{Type: web + "RequestMethod", Name: "POST"}},
			"consumes", []string{"text/plain"})}).
		Method("root", "()V", []classfiletest.Ann{A(web + "DeleteMapping")}).
		Method("anything", "()V", []classfiletest.Ann{A(web+"RequestMapping", "value", "/any")}).
		Method("helper", "()V", nil)
}

func TestEndpointCrossProduct(t *testing.T) {
	m := scan(t, nil, controller())

	want := []string{
		"HTTP ANY /api/any anything",
		"HTTP DELETE /api/ root",
		"HTTP GET /api/a list",
		"HTTP GET /api/b list",
		"HTTP POST /api/c create",
	}
	if got := endpointKeys(m); !reflect.DeepEqual(got, want) {
		t.Errorf("endpoints = %v, want %v", got, want)
	}
	for _, e := range m.Endpoints {
		if e.Framework != FrameworkMVC || e.ControllerClass != "com.acme.web.OrderController" {
			t.Errorf("endpoint %+v has wrong framework or class", e)
		}
		if e.Produces != "application/json" {
			t.Errorf("%s produces = %q, want inherited application/json", e.ControllerMethod, e.Produces)
		}
		if e.ControllerMethod == "create" && e.Consumes != "text/plain" {
			t.Errorf("create consumes = %q", e.Consumes)
		}
	}

	c, _ := m.Class("com.acme.web.OrderController")
	if !reflect.DeepEqual(c.Stereotypes, []string{StereotypeController}) || c.InjectionTarget {
		t.Errorf("controller stereotypes = %v injectionTarget = %v", c.Stereotypes, c.InjectionTarget)
	}
}

func TestEndpointWithoutClassMapping(t *testing.T) {
	A := classfiletest.A
	m := scan(t, nil, classfiletest.New("com.acme.web.Health").
		Method("ping", "()V", []classfiletest.Ann{A(web+"GetMapping", "value", "health")}).
		Method("index", "()V", []classfiletest.Ann{A(web + "GetMapping")}))

	want := []string{"HTTP GET / index", "HTTP GET /health ping"}
	if got := endpointKeys(m); !reflect.DeepEqual(got, want) {
		t.Errorf("endpoints = %v, want %v", got, want)
	}
}

func TestEndpointRootClassMappingMatchesUnmapped(t *testing.T) {
	A := classfiletest.A
	mapped := scan(t, nil, classfiletest.New("com.acme.web.Health").
		Annotate(A(web+"RequestMapping", "value", []string{"/"})).
		Method("ping", "()V", []classfiletest.Ann{A(web+"GetMapping", "value", "health")}))
	unmapped := scan(t, nil, classfiletest.New("com.acme.web.Health").
		Method("ping", "()V", []classfiletest.Ann{A(web+"GetMapping", "value", "health")}))

	want := []string{"HTTP GET /health ping"}
	if got := endpointKeys(mapped); !reflect.DeepEqual(got, want) {
		t.Errorf("mapped endpoints = %v, want %v", got, want)
	}
	if got := endpointKeys(unmapped); !reflect.DeepEqual(got, want) {
		t.Errorf("unmapped endpoints = %v, want %v", got, want)
	}
}

func TestCombinePaths(t *testing.T) {
	tests := []struct {
		class, method []string
		want          []string
	}{
		{nil, nil, []string{"/"}},
		{nil, []string{"health"}, []string{"/health"}},
		{nil, []string{"/"}, []string{"/"}},
		{[]string{"/api"}, nil, []string{"/api"}},
		{[]string{"/api/"}, []string{"/a", "b"}, []string{"/api/a", "/api/b"}},
	}
	for _, tt := range tests {
		if got := combinePaths(tt.class, tt.method); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("combinePaths(%v, %v) = %v, want %v", tt.class, tt.method, got, tt.want)
		}
	}
}

func TestListenerAndScheduledEndpoints(t *testing.T) {
	A := classfiletest.A
	kafka := "org.springframework.kafka.annotation.KafkaListener"
	sched := "org.springframework.scheduling.annotation.Scheduled"
	m := scan(t, nil, classfiletest.New("com.acme.jobs.Jobs").
		Method("onOrder", "()V", []classfiletest.Ann{A(kafka, "topics", []string{"orders", "refunds"})}).
		Method("onPattern", "()V", []classfiletest.Ann{A(kafka, "topicPattern", "audit.*")}).
		Method("onAny", "()V", []classfiletest.Ann{A(kafka)}).
		Method("nightly", "()V", []classfiletest.Ann{A(sched, "cron", "0 0 * * *")}).
		Method("delayed", "()V", []classfiletest.Ann{A(sched, "fixedDelay", int64(5000))}).
		Method("rated", "()V", []classfiletest.Ann{A(sched, "fixedRateString", "${rate}")}).
		Method("bare", "()V", []classfiletest.Ann{A(sched)}))

	got := map[string]graph.EndpointNode{}
	for _, e := range m.Endpoints {
		got[e.ControllerMethod] = e
	}
	tests := []struct {
		method, path string
		typ          graph.EndpointType
		framework    string
	}{
		{"onOrder", "topics=orders,refunds", graph.EndpointMessageListener, FrameworkKafka},
		{"onPattern", "topicPattern=audit.*", graph.EndpointMessageListener, FrameworkKafka},
		{"onAny", "kafka-listener", graph.EndpointMessageListener, FrameworkKafka},
		{"nightly", "cron=0 0 * * *", graph.EndpointScheduled, FrameworkScheduler},
		{"delayed", "fixedDelay=5000", graph.EndpointScheduled, FrameworkScheduler},
		{"rated", "fixedRate=${rate}", graph.EndpointScheduled, FrameworkScheduler},
		{"bare", "schedule", graph.EndpointScheduled, FrameworkScheduler},
	}
	for _, tt := range tests {
		e, ok := got[tt.method]
		if !ok {
			t.Errorf("no endpoint for %s", tt.method)
			continue
		}
		if e.Path != tt.path || e.Type != tt.typ || e.Framework != tt.framework {
			t.Errorf("%s = %+v, want path %q type %s framework %s", tt.method, e, tt.path, tt.typ, tt.framework)
		}
	}
}

func TestEntityFieldsAndSequences(t *testing.T) {
	A := classfiletest.A
	order := classfiletest.New("com.acme.domain.Order").
		Annotate(
			A(jpa+"Entity"),
			A(jpa+"Table", "name", "orders"),
			A(jpa+"SequenceGenerator", "name", "order_seq", "sequenceName", "ORDER_SEQ", "allocationSize", 50, "initialValue", 1),
			A("org.hibernate.annotations.GenericGenerator", "name", " "),
		).
		Field("id", "J", A(jpa+"Id"), A(jpa+"GeneratedValue", "generator", "order_seq")).
		Field("customer", "Lcom/acme/domain/Customer;", A(jpa+"ManyToOne"), A(jpa+"JoinColumn", "name", "customer_id")).
		GenericField("items", "Ljava/util/List;", "Ljava/util/List<Lcom/acme/domain/LineItem;>;", A(jpa+"OneToMany"))

	m := scan(t, []string{"com.acme"}, order)
	c, ok := m.Class("com.acme.domain.Order")
	if !ok {
		t.Fatal("Order not scanned")
	}
	if !c.Entity || c.TableName == nil || *c.TableName != "orders" {
		t.Errorf("entity = %v table = %v", c.Entity, c.TableName)
	}
	if c.Origin != graph.OriginBytecode || c.PackageName != "com.acme.domain" || c.SimpleName != "Order" {
		t.Errorf("class header = %+v", c)
	}

	if len(c.Fields) != 3 {
		t.Fatalf("fields = %+v", c.Fields)
	}
	if f, _ := c.Field("id"); f.Type != "long" || f.Relationship {
		t.Errorf("id = %+v", f)
	}
	if f, _ := c.Field("customer"); f.Type != "com.acme.domain.Customer" || !f.Relationship {
		t.Errorf("customer = %+v", f)
	}
	if f, _ := c.Field("items"); f.Type != "java.util.List<com.acme.domain.LineItem>" || !f.Relationship {
		t.Errorf("items = %+v", f)
	}

	seq, ok := m.Sequences["order_seq"]
	if !ok || len(m.Sequences) != 1 {
		t.Fatalf("sequences = %v", m.Sequences)
	}
	if seq.SequenceName != "ORDER_SEQ" || seq.AllocationSize == nil || *seq.AllocationSize != 50 || seq.InitialValue == nil || *seq.InitialValue != 1 {
		t.Errorf("sequence = %+v", seq)
	}
	wantUsage := []graph.SequenceUsage{{ClassName: "com.acme.domain.Order", FieldName: "id", GeneratorName: "order_seq"}}
	if !reflect.DeepEqual(m.SequenceUsages, wantUsage) {
		t.Errorf("usages = %v, want %v", m.SequenceUsages, wantUsage)
	}
}

func TestInjectionAndStereotypes(t *testing.T) {
	A := classfiletest.A
	autowired := "org.springframework.beans.factory.annotation.Autowired"
	svc := classfiletest.New("com.acme.svc.OrderService").
		Implements("com.acme.svc.Orders").
		Annotate(A(spring+"Service"), A(spring+"Component"), A(spring+"Service")).
		Field("repo", "Lcom/acme/repo/OrderRepository;", A(autowired)).
		Field("count", "I", A("jakarta.inject.Inject")).
		Field("plain", "Lcom/acme/repo/Other;")
	cfg := classfiletest.New("com.acme.config.AppConfig").
		Super("com.acme.config.BaseConfig").
		Annotate(A(springCtx + "Configuration")).
		Method("clock", "()Ljava/time/Clock;", []classfiletest.Ann{A(springCtx + "Bean")})

	m := scan(t, nil, svc, cfg)

	s, _ := m.Class("com.acme.svc.OrderService")
	if !reflect.DeepEqual(s.Stereotypes, []string{StereotypeService, StereotypeComponent}) {
		t.Errorf("service stereotypes = %v", s.Stereotypes)
	}
	if !s.InjectionTarget {
		t.Error("service should be an injection target")
	}
	if f, _ := s.Field("repo"); !f.Injected {
		t.Errorf("repo = %+v, want injected", f)
	}

	c, _ := m.Class("com.acme.config.AppConfig")
	if !reflect.DeepEqual(c.Stereotypes, []string{StereotypeConfiguration, StereotypeBeanFactory}) {
		t.Errorf("config stereotypes = %v", c.Stereotypes)
	}

	var deps []string
	for _, d := range m.SortedDependencies() {
		deps = append(deps, d.From+" "+string(d.Kind)+" "+d.To+" "+d.Label)
	}
	want := []string{
		"com.acme.config.AppConfig EXTENDS com.acme.config.BaseConfig extends",
		"com.acme.svc.OrderService INJECTION com.acme.repo.OrderRepository repo",
		"com.acme.svc.OrderService IMPLEMENTS com.acme.svc.Orders implements",
	}
	sort.Strings(deps)
	sort.Strings(want)
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("dependencies = %v, want %v", deps, want)
	}
}

func TestExclusions(t *testing.T) {
	m := scan(t, []string{"com.acme"},
		classfiletest.New("com.acme.Kept"),
		classfiletest.New("com.acme.Marker").Access(classfiletest.AccPublic|classfiletest.AccInterface|classfiletest.AccAbstract|classfiletest.AccAnnotation),
		classfiletest.New("com.acme.Kept$1"),
		classfiletest.New("com.acme.Kept$Inner"),
		classfiletest.New("com.acme.Generated").Access(classfiletest.AccPublic|classfiletest.AccSynthetic),
		classfiletest.New("com.acme.MockOrderService"),
		classfiletest.New("com.acme.Kept$MockHelper"),
		classfiletest.New("org.other.Outside"),
	)

	want := []string{"com.acme.Kept", "com.acme.Kept$Inner"}
	if got := m.ClassNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("classes = %v, want %v", got, want)
	}
}

func TestClassKinds(t *testing.T) {
	m := scan(t, nil,
		classfiletest.New("a.Iface").Access(classfiletest.AccPublic|classfiletest.AccInterface|classfiletest.AccAbstract),
		classfiletest.New("a.Color").Access(classfiletest.AccPublic|classfiletest.AccEnum).Super("java.lang.Enum"),
		classfiletest.New("a.Point").Super("java.lang.Record").Record(),
		classfiletest.New("a.Plain"),
	)
	want := map[string]graph.ClassKind{
		"a.Iface": graph.KindInterface,
		"a.Color": graph.KindEnum,
		"a.Point": graph.KindRecord,
		"a.Plain": graph.KindClass,
	}
	for name, kind := range want {
		if c, ok := m.Class(name); !ok || c.Kind != kind {
			t.Errorf("%s kind = %v, want %s", name, c, kind)
		}
	}
}

func TestScanIsDeterministic(t *testing.T) {
	desc := writeClasspath(t, controller(), classfiletest.New("com.acme.B"), classfiletest.New("com.acme.A"))
	s := NewStructuralScanner(slogutil.NewDiscardLogger())

	first, err := s.Scan(context.Background(), desc, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Scan(context.Background(), desc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two scans of the same classpath differ")
	}
}

func TestScanSkipsCorruptClass(t *testing.T) {
	desc := writeClasspath(t, classfiletest.New("com.acme.Good"))
	bad := filepath.Join(desc.ClassesDir(), "com", "acme", "Bad.class")
	if err := os.WriteFile(bad, []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0}, 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewStructuralScanner(slogutil.NewDiscardLogger()).Scan(context.Background(), desc, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := m.ClassNames(); !reflect.DeepEqual(got, []string{"com.acme.Good"}) {
		t.Errorf("classes = %v", got)
	}
}

func TestCallGraphDropsEdgesOfTruncatedClass(t *testing.T) {
	work := classfiletest.Call{Opcode: classfiletest.InvokeVirtual, Owner: "com.acme.B", Name: "work", Desc: "()V"}
	desc := writeClasspath(t, classfiletest.New("com.acme.A").Method("run", "()V", nil, work))

	// Methods decode before the class attributes, so cutting the final byte
	// fails the class only after its calls have been seen.
	data := classfiletest.New("com.acme.Broken").Method("run", "()V", nil, work).Bytes()
	broken := filepath.Join(desc.ClassesDir(), "com", "acme", "Broken.class")
	if err := os.WriteFile(broken, data[:len(data)-1], 0644); err != nil {
		t.Fatal(err)
	}

	cg, err := NewCallGraphScanner(slogutil.NewDiscardLogger()).Scan(context.Background(), desc, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(cg.MethodEdges) != 1 || cg.MethodEdges[0].CallerClass != "com.acme.A" {
		t.Errorf("method edges = %+v, want only com.acme.A.run", cg.MethodEdges)
	}
	if got := cg.Classes.Sources(); !reflect.DeepEqual(got, []string{"com.acme.A"}) {
		t.Errorf("class edge sources = %v, want [com.acme.A]", got)
	}
}

func TestEmptyClasspath(t *testing.T) {
	desc := classpath.NewDescriptor("", "", nil)
	m, err := NewStructuralScanner(slogutil.NewDiscardLogger()).Scan(context.Background(), desc, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(m.Classes) != 0 || len(m.Endpoints) != 0 || len(m.DependencyEdges) != 0 {
		t.Errorf("expected empty model, got %+v", m)
	}
	cg, err := NewCallGraphScanner(slogutil.NewDiscardLogger()).Scan(context.Background(), desc, nil)
	if err != nil {
		t.Fatalf("call Scan() error = %v", err)
	}
	if len(cg.MethodEdges) != 0 || cg.Classes.NumEdges() != 0 {
		t.Errorf("expected empty call graph")
	}
}

func TestCallGraph(t *testing.T) {
	call := func(op byte, owner, name string) classfiletest.Call {
		return classfiletest.Call{Opcode: op, Owner: owner, Name: name, Desc: "()V"}
	}
	a := classfiletest.New("com.acme.A").
		Method("run", "()V", nil,
			call(classfiletest.InvokeVirtual, "com.acme.B", "work"),
			call(classfiletest.InvokeVirtual, "com.acme.B", "more"),
			call(classfiletest.InvokeStatic, "java.lang.String", "valueOf"),
			call(classfiletest.InvokeVirtual, "com.acme.A", "helper"),
			call(classfiletest.InvokeInterface, "com.acme.MockRepo", "find"),
			call(classfiletest.InvokeVirtual, "org.other.Lib", "go"),
		).
		Method("helper", "()V", nil)
	b := classfiletest.New("com.acme.B").
		Method("work", "()V", nil, call(classfiletest.InvokeInterface, "com.acme.Port", "send")).
		Method("more", "()V", nil, call(classfiletest.InvokeSpecial, "com.acme.A", "<init>"))
	mock := classfiletest.New("com.acme.MockA").
		Method("x", "()V", nil, call(classfiletest.InvokeVirtual, "com.acme.B", "work"))

	cg, err := NewCallGraphScanner(slogutil.NewDiscardLogger()).Scan(context.Background(), writeClasspath(t, a, b, mock), []string{"com.acme"})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	var edges []string
	for _, e := range cg.MethodEdges {
		edges = append(edges, e.CallerClass+"."+e.CallerMethod+"->"+e.CalleeClass+"."+e.CalleeMethod)
	}
	want := []string{
		"com.acme.A.run->com.acme.B.work",
		"com.acme.A.run->com.acme.B.more",
		"com.acme.A.run->com.acme.A.helper",
		"com.acme.B.work->com.acme.Port.send",
		"com.acme.B.more->com.acme.A.<init>",
	}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("method edges = %v, want %v", edges, want)
	}
	if cg.MethodEdges[0].CallerDescriptor != "()V" || cg.MethodEdges[0].CalleeDescriptor != "()V" {
		t.Errorf("descriptors = %+v", cg.MethodEdges[0])
	}
	if got := cg.Classes.Targets("com.acme.A"); !reflect.DeepEqual(got, []string{"com.acme.B", "com.acme.A"}) {
		t.Errorf("A targets = %v", got)
	}

	m := graph.New()
	cg.Fold(m)
	if len(m.MethodCallEdges) != 5 {
		t.Errorf("folded method edges = %d, want 5", len(m.MethodCallEdges))
	}
	var calls []string
	for _, d := range m.DependencyEdges {
		if d.Kind != graph.DepCall || d.Label != CallLabel {
			t.Errorf("unexpected dependency %+v", d)
		}
		calls = append(calls, d.From+"->"+d.To)
	}
	wantCalls := []string{"com.acme.A->com.acme.B", "com.acme.A->com.acme.A", "com.acme.B->com.acme.Port", "com.acme.B->com.acme.A"}
	if !reflect.DeepEqual(calls, wantCalls) {
		t.Errorf("CALL dependencies = %v, want %v", calls, wantCalls)
	}
}

func TestFilterAndNames(t *testing.T) {
	f := NewFilter([]string{"com.acme", " "})
	tests := []struct {
		name string
		want bool
	}{
		{"com.acme.Order", true},
		{"com.acmex.Order", true},
		{"org.acme.Order", false},
		{"com.acme.OrderMock", false},
		{"com.acme.mocks.Real", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := f.Accepts(tt.name); got != tt.want {
			t.Errorf("Accepts(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if !NewFilter(nil).Accepts("any.Thing") {
		t.Error("empty filter should accept everything")
	}
	if NewFilter(nil).acceptsCall("jdk.internal.Misc") || NewFilter(nil).acceptsCall("[Ljava.lang.Object;") {
		t.Error("platform and array owners should be excluded from calls")
	}
	for name, want := range map[string]bool{"a.B$1": true, "a.B$12": true, "a.B$Inner": false, "a.B$": false, "a.B": false} {
		if got := isAnonymous(name); got != want {
			t.Errorf("isAnonymous(%q) = %v, want %v", name, got, want)
		}
	}
	if got := JoinPath("/api/", "/a"); got != "/api/a" {
		t.Errorf("JoinPath() = %q", got)
	}
}
