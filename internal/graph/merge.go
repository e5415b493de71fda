package graph

import "sort"

// Merge combines a source-derived graph with a bytecode-derived graph into a
// new model. Bytecode wins: its classes seed the result, a class seen in both
// keeps its bytecode fields and only gains source-only fields by name, and
// the table name is taken from source only when bytecode left it unset.
// Sequences, usages, endpoints and dependency edges are concatenated with
// bytecode first, so a source generator replaces a bytecode generator of the
// same name. Method call edges come from bytecode only. Neither input is
// modified.
func Merge(source, bytecode *Model) *Model {
	out := New()

	if bytecode != nil {
		for _, name := range bytecode.ClassNames() {
			out.AddClass(bytecode.Classes[name].Clone())
		}
	}

	if source != nil {
		for _, name := range source.ClassNames() {
			src := source.Classes[name]
			existing, ok := out.Classes[name]
			if !ok {
				c := src.Clone()
				c.Origin = OriginSource
				out.AddClass(c)
				continue
			}
			mergeClass(existing, src)
		}
	}

	for _, in := range []*Model{bytecode, source} {
		if in == nil {
			continue
		}
		for _, name := range sequenceNames(in) {
			if s := in.Sequences[name]; s != nil {
				cp := *s
				out.Sequences[name] = &cp
			}
		}
		out.SequenceUsages = append(out.SequenceUsages, in.SequenceUsages...)
		out.Endpoints = append(out.Endpoints, in.Endpoints...)
		out.DependencyEdges = append(out.DependencyEdges, in.DependencyEdges...)
	}

	if bytecode != nil {
		out.MethodCallEdges = append(out.MethodCallEdges, bytecode.MethodCallEdges...)
	}
	return out
}

// mergeClass folds src into dst, which must be a bytecode-derived copy.
func mergeClass(dst, src *ClassNode) {
	dst.Origin = OriginBoth
	if dst.TableName == nil && src.TableName != nil {
		t := *src.TableName
		dst.TableName = &t
	}
	dst.Annotations = AppendUnique(dst.Annotations, src.Annotations...)
	dst.Stereotypes = AppendUnique(dst.Stereotypes, src.Stereotypes...)
	for _, f := range src.Fields {
		if f.Name == "" {
			continue
		}
		if _, ok := dst.Field(f.Name); ok {
			continue
		}
		f.Annotations = cloneStrings(f.Annotations)
		dst.Fields = append(dst.Fields, f)
	}
}

func sequenceNames(m *Model) []string {
	names := make([]string, 0, len(m.Sequences))
	for name := range m.Sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
