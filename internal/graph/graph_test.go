package graph

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func classWithFields(name string, origin Origin, fields ...string) *ClassNode {
	c := &ClassNode{
		Name:        name,
		PackageName: PackageOf(name),
		SimpleName:  SimpleName(name),
		Kind:        KindClass,
		Origin:      origin,
	}
	for _, f := range fields {
		c.Fields = append(c.Fields, FieldModel{Name: f, Type: "java.lang.String"})
	}
	return c
}

func TestMergeUnionSemantics(t *testing.T) {
	bytecode := New()
	bc := classWithFields("com.acme.X", OriginBytecode, "a")
	bc.Fields[0].Type = "java.lang.Long"
	bc.Annotations = []string{"jakarta.persistence.Entity"}
	bc.Stereotypes = []string{"SERVICE"}
	bytecode.AddClass(bc)

	source := New()
	sc := classWithFields("com.acme.X", OriginSource, "a", "b")
	sc.TableName = strPtr("x_table")
	sc.Annotations = []string{"Entity", "jakarta.persistence.Entity"}
	sc.Stereotypes = []string{"SERVICE", "COMPONENT"}
	source.AddClass(sc)

	merged := Merge(source, bytecode)

	if len(merged.Classes) != 1 {
		t.Fatalf("len(Classes) = %d, want 1", len(merged.Classes))
	}
	x := merged.Classes["com.acme.X"]
	if x.Origin != OriginBoth {
		t.Errorf("Origin = %s, want BOTH", x.Origin)
	}
	var names []string
	for _, f := range x.Fields {
		names = append(names, f.Name)
	}
	if !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Errorf("fields = %v, want [a b]", names)
	}
	if x.Fields[0].Type != "java.lang.Long" {
		t.Errorf("bytecode field type overwritten: %s", x.Fields[0].Type)
	}
	if x.TableName == nil || *x.TableName != "x_table" {
		t.Errorf("TableName = %v, want x_table", x.TableName)
	}
	if !reflect.DeepEqual(x.Annotations, []string{"jakarta.persistence.Entity", "Entity"}) {
		t.Errorf("Annotations = %v", x.Annotations)
	}
	if !reflect.DeepEqual(x.Stereotypes, []string{"SERVICE", "COMPONENT"}) {
		t.Errorf("Stereotypes = %v", x.Stereotypes)
	}

	// inputs untouched
	if len(bc.Fields) != 1 || bc.Origin != OriginBytecode {
		t.Errorf("bytecode input was modified: %+v", bc)
	}
}

func TestMergeKeepsBytecodeTableName(t *testing.T) {
	bytecode := New()
	bc := classWithFields("com.acme.X", OriginBytecode)
	bc.TableName = strPtr("from_bytecode")
	bytecode.AddClass(bc)

	source := New()
	sc := classWithFields("com.acme.X", OriginSource)
	sc.TableName = strPtr("from_source")
	source.AddClass(sc)

	x := Merge(source, bytecode).Classes["com.acme.X"]
	if *x.TableName != "from_bytecode" {
		t.Errorf("TableName = %s, want from_bytecode", *x.TableName)
	}
}

func TestMergeAddsSourceOnlyClass(t *testing.T) {
	bytecode := New()
	bytecode.AddClass(classWithFields("com.acme.X", OriginBytecode))
	source := New()
	source.AddClass(classWithFields("com.acme.Y", OriginBytecode, "id"))

	merged := Merge(source, bytecode)
	y, ok := merged.Classes["com.acme.Y"]
	if !ok {
		t.Fatalf("class Y missing after merge")
	}
	if y.Origin != OriginSource {
		t.Errorf("Y.Origin = %s, want SOURCE", y.Origin)
	}
	if merged.Classes["com.acme.X"].Origin != OriginBytecode {
		t.Errorf("X.Origin = %s, want BYTECODE", merged.Classes["com.acme.X"].Origin)
	}
}

func TestMergeConcatenatesLists(t *testing.T) {
	bytecode := New()
	bytecode.AddDependency("a.A", "a.B", DepCall, "call")
	bytecode.AddEndpoint(EndpointNode{Type: EndpointHTTP, Path: "/x"})
	bytecode.AddMethodCall(MethodCallEdge{CallerClass: "a.A", CalleeClass: "a.B"})
	bytecode.AddSequence(SequenceNode{GeneratorName: "gen", SequenceName: "bc_seq"})

	source := New()
	source.AddDependency("a.A", "a.B", DepCall, "call")
	source.AddEndpoint(EndpointNode{Type: EndpointHTTP, Path: "/y"})
	source.AddMethodCall(MethodCallEdge{CallerClass: "a.C", CalleeClass: "a.D"})
	source.AddSequence(SequenceNode{GeneratorName: "gen", SequenceName: "src_seq"})

	merged := Merge(source, bytecode)
	if len(merged.DependencyEdges) != 2 {
		t.Errorf("len(DependencyEdges) = %d, want 2 (duplicates kept)", len(merged.DependencyEdges))
	}
	if merged.Endpoints[0].Path != "/x" || merged.Endpoints[1].Path != "/y" {
		t.Errorf("Endpoints = %+v, want bytecode first", merged.Endpoints)
	}
	if len(merged.MethodCallEdges) != 1 {
		t.Errorf("len(MethodCallEdges) = %d, want 1", len(merged.MethodCallEdges))
	}
	if merged.Sequences["gen"].SequenceName != "src_seq" {
		t.Errorf("Sequences[gen] = %+v, want source to replace", merged.Sequences["gen"])
	}
}

func TestMergeIdempotentAndNilSafe(t *testing.T) {
	bytecode := New()
	bytecode.AddClass(classWithFields("com.acme.X", OriginBytecode, "a"))
	source := New()
	source.AddClass(classWithFields("com.acme.X", OriginSource, "b"))

	first := Merge(source, bytecode)
	second := Merge(source, bytecode)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Merge is not idempotent")
	}

	empty := Merge(nil, nil)
	if len(empty.Classes) != 0 || empty.DependencyEdges == nil {
		t.Errorf("Merge(nil, nil) = %+v", empty)
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"com.acme.Repo", "com.acme.Repo"},
		{"java.util.List<com.acme.Item>", "java.util.List"},
		{"Lcom/acme/Repo;", "com.acme.Repo"},
		{"com/acme/Repo", "com.acme.Repo"},
		{"int", ""},
		{"LocalThing", ""},
		{"com.acme.Item[]", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.in); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSortedOrders(t *testing.T) {
	m := New()
	for _, n := range []string{"com.b.Zeta", "com.a.alpha", "com.a.Beta"} {
		m.AddClass(classWithFields(n, OriginBytecode))
	}
	var got []string
	for _, c := range m.SortedClasses() {
		got = append(got, c.Name)
	}
	if want := []string{"com.a.alpha", "com.a.Beta", "com.b.Zeta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SortedClasses = %v, want %v", got, want)
	}

	m.AddEndpoint(EndpointNode{ControllerClass: "b.Ctl", Path: "/z"})
	m.AddEndpoint(EndpointNode{ControllerClass: "", Path: "/a"})
	m.AddEndpoint(EndpointNode{ControllerClass: "a.Ctl", Path: "/B"})
	m.AddEndpoint(EndpointNode{ControllerClass: "A.Ctl", Path: "/a"})
	eps := m.SortedEndpoints()
	order := []string{eps[0].ControllerClass + eps[0].Path, eps[1].ControllerClass + eps[1].Path, eps[2].ControllerClass + eps[2].Path, eps[3].ControllerClass + eps[3].Path}
	if want := []string{"A.Ctl/a", "a.Ctl/B", "b.Ctl/z", "/a"}; !reflect.DeepEqual(order, want) {
		t.Errorf("SortedEndpoints = %v, want %v", order, want)
	}

	m.AddDependency("b", "a", DepCall, "")
	m.AddDependency("A", "c", DepCall, "")
	m.AddDependency("a", "B", DepCall, "")
	deps := m.SortedDependencies()
	if deps[0].From != "A" || deps[1].From != "a" || deps[2].From != "b" {
		t.Errorf("SortedDependencies = %+v", deps)
	}
}

func TestAdjacency(t *testing.T) {
	adj := NewAdjacency()
	if !adj.AddEdge("A", "B") {
		t.Errorf("first AddEdge should report new")
	}
	if adj.AddEdge("A", "B") {
		t.Errorf("duplicate AddEdge should report false")
	}
	adj.AddEdge("B", "C")
	adj.AddEdge("A", "C")

	if got := adj.Sources(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Sources = %v", got)
	}
	if got := adj.Nodes(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("Nodes = %v", got)
	}
	if got := adj.Targets("A"); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("Targets(A) = %v", got)
	}
	if adj.Targets("Z") != nil {
		t.Errorf("Targets of unknown node should be nil")
	}
	if adj.NumEdges() != 3 || adj.NumNodes() != 3 {
		t.Errorf("NumEdges=%d NumNodes=%d", adj.NumEdges(), adj.NumNodes())
	}

	m := New()
	m.AddDependency("A", "B", DepCall, "")
	m.AddDependency("A", "", DepField, "")
	m.AddMethodCall(MethodCallEdge{CallerClass: "A", CalleeClass: "A"})
	if m.DependencyAdjacency().NumEdges() != 1 {
		t.Errorf("edges with empty endpoints must be skipped")
	}
	if got := m.CallAdjacency().Targets("A"); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("CallAdjacency Targets(A) = %v", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlDoc := `
classes:
  com.acme.Order:
    kind: CLASS
    origin: BYTECODE
    annotations: [Entity]
    fields:
      - name: id
        type: java.lang.Long
    tableName: orders
sequences:
  order_seq:
    sequenceName: ORDER_SEQ
    allocationSize: 50
dependencyEdges:
  - fromClass: com.acme.Order
    toClass: com.acme.Customer
    kind: FIELD
`
	yamlPath := filepath.Join(dir, "source.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0644); err != nil {
		t.Fatalf("Failed to write yaml: %v", err)
	}
	m, err := LoadFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadFile(yaml) error = %v", err)
	}
	order, ok := m.Classes["com.acme.Order"]
	if !ok {
		t.Fatalf("class missing: %v", m.ClassNames())
	}
	if order.Origin != OriginSource {
		t.Errorf("Origin = %s, want SOURCE", order.Origin)
	}
	if order.PackageName != "com.acme" || order.SimpleName != "Order" {
		t.Errorf("names = %s / %s", order.PackageName, order.SimpleName)
	}
	if order.TableName == nil || *order.TableName != "orders" {
		t.Errorf("TableName = %v", order.TableName)
	}
	seq := m.Sequences["order_seq"]
	if seq == nil || seq.GeneratorName != "order_seq" || seq.AllocationSize == nil || *seq.AllocationSize != 50 {
		t.Errorf("sequence = %+v", seq)
	}
	if len(m.DependencyEdges) != 1 || m.DependencyEdges[0].Kind != DepField {
		t.Errorf("DependencyEdges = %+v", m.DependencyEdges)
	}

	jsonPath := filepath.Join(dir, "source.json")
	if err := os.WriteFile(jsonPath, []byte(`{"classes":{"com.acme.A":{"name":"com.acme.A","fields":[]}}}`), 0644); err != nil {
		t.Fatalf("Failed to write json: %v", err)
	}
	m, err = LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadFile(json) error = %v", err)
	}
	if len(m.Classes) != 1 || m.Endpoints == nil {
		t.Errorf("json model = %+v", m)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("LoadFile(missing) should fail")
	}
}
