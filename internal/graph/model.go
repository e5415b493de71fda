// Package graph holds the canonical class graph built from bytecode and
// source, together with its merge rules and deterministic orderings.
package graph

// Origin records where a class was observed.
type Origin string

const (
	OriginSource   Origin = "SOURCE"
	OriginBytecode Origin = "BYTECODE"
	OriginBoth     Origin = "BOTH"
)

// ClassKind is the declared kind of a type.
type ClassKind string

const (
	KindClass     ClassKind = "CLASS"
	KindInterface ClassKind = "INTERFACE"
	KindEnum      ClassKind = "ENUM"
	KindRecord    ClassKind = "RECORD"
)

// EndpointType classifies an entry point.
type EndpointType string

const (
	EndpointHTTP            EndpointType = "HTTP"
	EndpointMessageListener EndpointType = "MESSAGE_LISTENER"
	EndpointScheduled       EndpointType = "SCHEDULED"
)

// DependencyKind is the relationship a DependencyEdge describes.
type DependencyKind string

const (
	DepExtends    DependencyKind = "EXTENDS"
	DepImplements DependencyKind = "IMPLEMENTS"
	DepCall       DependencyKind = "CALL"
	DepInjection  DependencyKind = "INJECTION"
	DepField      DependencyKind = "FIELD"
)

// FieldModel is one field of a class.
type FieldModel struct {
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type" yaml:"type"`
	Annotations  []string `json:"annotations" yaml:"annotations"`
	Injected     bool     `json:"injected" yaml:"injected"`
	Relationship bool     `json:"relationship" yaml:"relationship"`
}

// ClassNode is one class, interface, enum or record.
type ClassNode struct {
	Name            string       `json:"name" yaml:"name"`
	PackageName     string       `json:"packageName" yaml:"packageName"`
	SimpleName      string       `json:"simpleName" yaml:"simpleName"`
	Kind            ClassKind    `json:"kind" yaml:"kind"`
	SuperClass      string       `json:"superClass,omitempty" yaml:"superClass,omitempty"`
	Interfaces      []string     `json:"interfaces" yaml:"interfaces"`
	Annotations     []string     `json:"annotations" yaml:"annotations"`
	Stereotypes     []string     `json:"stereotypes" yaml:"stereotypes"`
	Fields          []FieldModel `json:"fields" yaml:"fields"`
	Entity          bool         `json:"entity" yaml:"entity"`
	TableName       *string      `json:"tableName" yaml:"tableName"`
	Origin          Origin       `json:"origin" yaml:"origin"`
	SccID           *int         `json:"sccId" yaml:"sccId"`
	InCycle         bool         `json:"inCycle" yaml:"inCycle"`
	Location        string       `json:"jarOrDirectory,omitempty" yaml:"jarOrDirectory,omitempty"`
	InjectionTarget bool         `json:"injectionTarget" yaml:"injectionTarget"`
}

// HasStereotype reports whether tag is among the class stereotypes.
func (c *ClassNode) HasStereotype(tag string) bool {
	return contains(c.Stereotypes, tag)
}

// Field returns the named field.
func (c *ClassNode) Field(name string) (*FieldModel, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy.
func (c *ClassNode) Clone() *ClassNode {
	out := *c
	out.Interfaces = cloneStrings(c.Interfaces)
	out.Annotations = cloneStrings(c.Annotations)
	out.Stereotypes = cloneStrings(c.Stereotypes)
	if c.Fields != nil {
		out.Fields = make([]FieldModel, len(c.Fields))
		for i, f := range c.Fields {
			f.Annotations = cloneStrings(f.Annotations)
			out.Fields[i] = f
		}
	}
	if c.TableName != nil {
		t := *c.TableName
		out.TableName = &t
	}
	if c.SccID != nil {
		id := *c.SccID
		out.SccID = &id
	}
	return &out
}

// SequenceNode is one ID-generator declaration.
type SequenceNode struct {
	GeneratorName  string `json:"generatorName" yaml:"generatorName"`
	SequenceName   string `json:"sequenceName,omitempty" yaml:"sequenceName,omitempty"`
	AllocationSize *int   `json:"allocationSize" yaml:"allocationSize"`
	InitialValue   *int   `json:"initialValue" yaml:"initialValue"`
}

// SequenceUsage links a class field to a generator.
type SequenceUsage struct {
	ClassName     string `json:"className" yaml:"className"`
	FieldName     string `json:"fieldName" yaml:"fieldName"`
	GeneratorName string `json:"generatorName" yaml:"generatorName"`
}

// EndpointNode is one externally reachable entry point.
type EndpointNode struct {
	Type             EndpointType `json:"type" yaml:"type"`
	HTTPMethod       string       `json:"httpMethod,omitempty" yaml:"httpMethod,omitempty"`
	Path             string       `json:"path" yaml:"path"`
	ControllerClass  string       `json:"controllerClass" yaml:"controllerClass"`
	ControllerMethod string       `json:"controllerMethod" yaml:"controllerMethod"`
	Produces         string       `json:"produces,omitempty" yaml:"produces,omitempty"`
	Consumes         string       `json:"consumes,omitempty" yaml:"consumes,omitempty"`
	Framework        string       `json:"framework" yaml:"framework"`
}

// MethodCallEdge is one call site.
type MethodCallEdge struct {
	CallerClass      string `json:"callerClass" yaml:"callerClass"`
	CallerMethod     string `json:"callerMethod" yaml:"callerMethod"`
	CallerDescriptor string `json:"callerDescriptor" yaml:"callerDescriptor"`
	CalleeClass      string `json:"calleeClass" yaml:"calleeClass"`
	CalleeMethod     string `json:"calleeMethod" yaml:"calleeMethod"`
	CalleeDescriptor string `json:"calleeDescriptor" yaml:"calleeDescriptor"`
}

// DependencyEdge is a typed class-to-class relationship.
type DependencyEdge struct {
	From  string         `json:"fromClass" yaml:"fromClass"`
	To    string         `json:"toClass" yaml:"toClass"`
	Kind  DependencyKind `json:"kind" yaml:"kind"`
	Label string         `json:"label,omitempty" yaml:"label,omitempty"`
}

// Model owns every node and edge of one analysis run. It is not safe for
// concurrent mutation; each run builds its own.
type Model struct {
	Classes         map[string]*ClassNode    `json:"classes" yaml:"classes"`
	Sequences       map[string]*SequenceNode `json:"sequences" yaml:"sequences"`
	SequenceUsages  []SequenceUsage          `json:"sequenceUsages" yaml:"sequenceUsages"`
	Endpoints       []EndpointNode           `json:"endpoints" yaml:"endpoints"`
	MethodCallEdges []MethodCallEdge         `json:"methodCallEdges" yaml:"methodCallEdges"`
	DependencyEdges []DependencyEdge         `json:"dependencyEdges" yaml:"dependencyEdges"`
}

// New returns an empty model.
func New() *Model {
	return &Model{
		Classes:         make(map[string]*ClassNode),
		Sequences:       make(map[string]*SequenceNode),
		SequenceUsages:  []SequenceUsage{},
		Endpoints:       []EndpointNode{},
		MethodCallEdges: []MethodCallEdge{},
		DependencyEdges: []DependencyEdge{},
	}
}

// AddClass stores c, replacing any class with the same name.
func (m *Model) AddClass(c *ClassNode) {
	if c == nil || c.Name == "" {
		return
	}
	m.Classes[c.Name] = c
}

// Class returns the named class.
func (m *Model) Class(name string) (*ClassNode, bool) {
	c, ok := m.Classes[name]
	return c, ok
}

// AddSequence stores a generator declaration keyed by its name. Blank names are dropped.
func (m *Model) AddSequence(s SequenceNode) {
	if isBlank(s.GeneratorName) {
		return
	}
	m.Sequences[s.GeneratorName] = &s
}

// AddSequenceUsage records a usage when class, field and generator are all present.
func (m *Model) AddSequenceUsage(u SequenceUsage) {
	if isBlank(u.ClassName) || isBlank(u.FieldName) || isBlank(u.GeneratorName) {
		return
	}
	m.SequenceUsages = append(m.SequenceUsages, u)
}

// AddEndpoint appends an entry point.
func (m *Model) AddEndpoint(e EndpointNode) {
	m.Endpoints = append(m.Endpoints, e)
}

// AddMethodCall appends a call edge.
func (m *Model) AddMethodCall(e MethodCallEdge) {
	m.MethodCallEdges = append(m.MethodCallEdges, e)
}

// AddDependency appends a dependency edge.
func (m *Model) AddDependency(from, to string, kind DependencyKind, label string) {
	m.DependencyEdges = append(m.DependencyEdges, DependencyEdge{From: from, To: to, Kind: kind, Label: label})
}

// CountCyclicClasses returns the number of classes flagged as part of a cycle.
func (m *Model) CountCyclicClasses() int {
	n := 0
	for _, c := range m.Classes {
		if c.InCycle {
			n++
		}
	}
	return n
}
