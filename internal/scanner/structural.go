package scanner

import (
	"context"
	"log/slog"

	"codevision/internal/classfile"
	"codevision/internal/classpath"
	"codevision/internal/graph"
)

// StructuralScanner builds the class, field, sequence and endpoint graph.
type StructuralScanner struct {
	logger *slog.Logger
}

// NewStructuralScanner creates a scanner.
func NewStructuralScanner(logger *slog.Logger) *StructuralScanner {
	return &StructuralScanner{logger: logger}
}

// Scan decodes every accepted class on the classpath. Undecodable classes are
// logged and skipped. When a class appears in several entries the first wins.
func (s *StructuralScanner) Scan(ctx context.Context, desc *classpath.Descriptor, acceptPackages []string) (*graph.Model, error) {
	filter := NewFilter(acceptPackages)
	model := graph.New()
	skipped := 0

	err := classpath.Walk(ctx, desc, s.logger, func(u classpath.Unit) error {
		cls, err := classfile.Parse(u.Data)
		if err != nil {
			skipped++
			s.logger.Warn("Skipping undecodable class", "entry", u.Name, "location", u.Location, "error", err)
			return nil
		}
		if !includeClass(cls, filter) {
			return nil
		}
		if _, dup := model.Class(cls.Name); dup {
			s.logger.Debug("Duplicate class ignored", "class", cls.Name, "location", u.Location)
			return nil
		}
		s.addClass(model, cls, u.Location)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Structural scan complete",
		"classes", len(model.Classes),
		"endpoints", len(model.Endpoints),
		"sequences", len(model.Sequences),
		"skipped", skipped)
	return model, nil
}

func includeClass(cls *classfile.Class, filter Filter) bool {
	if cls.Is(classfile.AccAnnotation) || cls.Is(classfile.AccSynthetic) || isAnonymous(cls.Name) {
		return false
	}
	return filter.Accepts(cls.Name)
}

func (s *StructuralScanner) addClass(model *graph.Model, cls *classfile.Class, location string) {
	annotations := annotationNames(cls.Annotations)
	node := &graph.ClassNode{
		Name:        cls.Name,
		PackageName: graph.PackageOf(cls.Name),
		SimpleName:  graph.SimpleName(cls.Name),
		Kind:        classKind(cls),
		SuperClass:  superClass(cls.SuperName),
		Interfaces:  append([]string{}, cls.Interfaces...),
		Annotations: annotations,
		Stereotypes: resolveStereotypes(annotations),
		Fields:      []graph.FieldModel{},
		Origin:      graph.OriginBytecode,
		Location:    location,
	}
	node.InjectionTarget = IsInjectionTarget(node.Stereotypes)
	if anyIn(annotations, entityAnnotations) {
		node.Entity = true
		if name, ok := tableName(cls.Annotations); ok {
			node.TableName = &name
		}
	}
	model.AddClass(node)

	if node.SuperClass != "" {
		model.AddDependency(node.Name, node.SuperClass, graph.DepExtends, "extends")
	}
	for _, iface := range node.Interfaces {
		model.AddDependency(node.Name, iface, graph.DepImplements, "implements")
	}

	s.inspectFields(model, cls, node)
	inspectSequences(model, cls)
	inspectEndpoints(model, cls, node)
}

// superClass drops the implicit root superclass.
func superClass(name string) string {
	if name == "java.lang.Object" {
		return ""
	}
	return name
}

func classKind(cls *classfile.Class) graph.ClassKind {
	switch {
	case cls.Is(classfile.AccInterface):
		return graph.KindInterface
	case cls.Is(classfile.AccEnum):
		return graph.KindEnum
	case cls.IsRecord():
		return graph.KindRecord
	default:
		return graph.KindClass
	}
}

func (s *StructuralScanner) inspectFields(model *graph.Model, cls *classfile.Class, node *graph.ClassNode) {
	for _, f := range cls.Fields {
		if f.Is(classfile.AccSynthetic) {
			continue
		}
		annotations := annotationNames(f.Annotations)
		field := graph.FieldModel{
			Name:         f.Name,
			Type:         f.TypeName(),
			Annotations:  annotations,
			Injected:     anyIn(annotations, injectionAnnotations),
			Relationship: anyIn(annotations, relationshipAnnotations),
		}
		node.Fields = append(node.Fields, field)

		if field.Injected {
			if target := graph.NormalizeType(field.Type); target != "" {
				model.AddDependency(node.Name, target, graph.DepInjection, field.Name)
			} else {
				s.logger.Debug("Injected field has no class target", "class", node.Name, "field", field.Name, "type", field.Type)
			}
		}

		for _, a := range f.Annotations {
			if !generatedValueAnnotations.has(a.Type) {
				continue
			}
			if gen, ok := a.String("generator"); ok {
				model.AddSequenceUsage(graph.SequenceUsage{
					ClassName:     node.Name,
					FieldName:     field.Name,
					GeneratorName: gen,
				})
			}
		}
	}
}

func inspectSequences(model *graph.Model, cls *classfile.Class) {
	for _, a := range cls.Annotations {
		if !generatorAnnotations.has(a.Type) {
			continue
		}
		name, ok := a.String("name")
		if !ok {
			continue
		}
		seq := graph.SequenceNode{GeneratorName: name}
		if v, ok := a.String("sequenceName"); ok {
			seq.SequenceName = v
		}
		seq.AllocationSize = intAttr(a, "allocationSize")
		seq.InitialValue = intAttr(a, "initialValue")
		model.AddSequence(seq)
	}
}

func intAttr(a classfile.Annotation, name string) *int {
	n, ok := a.Int(name)
	if !ok {
		return nil
	}
	v := int(n)
	return &v
}

func tableName(annotations []classfile.Annotation) (string, bool) {
	for _, a := range annotations {
		if !tableAnnotations.has(a.Type) {
			continue
		}
		if name, ok := a.String("name"); ok {
			return name, true
		}
	}
	return "", false
}

func annotationNames(annotations []classfile.Annotation) []string {
	out := make([]string, 0, len(annotations))
	for _, a := range annotations {
		out = append(out, a.Type)
	}
	return out
}

// resolveStereotypes maps annotations to stereotype tags in annotation order
// without repeats.
func resolveStereotypes(annotations []string) []string {
	out := []string{}
	for _, a := range annotations {
		if st, ok := stereotypes[a]; ok {
			out = graph.AppendUnique(out, st)
		}
	}
	return out
}

func anyIn(names []string, s set) bool {
	for _, n := range names {
		if s.has(n) {
			return true
		}
	}
	return false
}

func hasAnnotation(annotations []classfile.Annotation, typ string) (classfile.Annotation, bool) {
	for _, a := range annotations {
		if a.Type == typ {
			return a, true
		}
	}
	return classfile.Annotation{}, false
}
