package diagram

import (
	"fmt"
	"strings"

	"codevision/internal/graph"
)

// ERDPlantUML renders entity classes and their relationship fields.
func ERDPlantUML(m *graph.Model) string {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("hide circle\n")
	b.WriteString("skinparam linetype ortho\n")

	entities := entityClasses(m)
	for _, c := range entities {
		fmt.Fprintf(&b, "entity %s {\n", alias(c.Name))
		for _, f := range c.Fields {
			ref := ""
			if f.Relationship {
				ref = "ref "
			}
			fmt.Fprintf(&b, "  %s%s : %s\n", ref, f.Name, f.Type)
		}
		b.WriteString("}\n")
	}
	for _, r := range relationships(m, entities) {
		fmt.Fprintf(&b, "%s --> %s : %s\n", alias(r.from), alias(r.to), r.field)
	}
	b.WriteString("@enduml\n")
	return b.String()
}

// ERDMermaid renders the same entities in Mermaid erDiagram syntax. Names and
// types are reduced to Mermaid identifiers.
func ERDMermaid(m *graph.Model) string {
	var b strings.Builder
	b.WriteString("erDiagram\n")

	entities := entityClasses(m)
	for _, c := range entities {
		fmt.Fprintf(&b, "  %s {\n", mermaidID(c.Name))
		for _, f := range c.Fields {
			fmt.Fprintf(&b, "    %s %s\n", mermaidType(f.Type), mermaidID(f.Name))
		}
		b.WriteString("  }\n")
	}
	for _, r := range relationships(m, entities) {
		fmt.Fprintf(&b, "  %s ||--o{ %s : %s\n", mermaidID(r.from), mermaidID(r.to), mermaidID(r.field))
	}
	return b.String()
}

type relationship struct {
	from, to, field string
}

func entityClasses(m *graph.Model) []*graph.ClassNode {
	var out []*graph.ClassNode
	for _, c := range m.SortedClasses() {
		if c.Entity {
			out = append(out, c)
		}
	}
	return out
}

// relationships returns one association per relationship field whose type
// resolves to an entity. Collection fields resolve through their type
// arguments.
func relationships(m *graph.Model, entities []*graph.ClassNode) []relationship {
	var out []relationship
	for _, c := range entities {
		for _, f := range c.Fields {
			if !f.Relationship {
				continue
			}
			if target, ok := entityTarget(m, f.Type); ok {
				out = append(out, relationship{from: c.Name, to: target, field: f.Name})
			}
		}
	}
	return out
}

func entityTarget(m *graph.Model, typ string) (string, bool) {
	candidates := []string{graph.NormalizeType(typ)}
	if open := strings.IndexByte(typ, '<'); open >= 0 {
		if end := strings.LastIndexByte(typ, '>'); end > open {
			for _, arg := range strings.Split(typ[open+1:end], ",") {
				arg = strings.TrimSpace(arg)
				arg = strings.TrimPrefix(arg, "? extends ")
				candidates = append(candidates, graph.NormalizeType(arg))
			}
		}
	}
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		if c, ok := m.Class(cand); ok && c.Entity {
			return cand, true
		}
	}
	return "", false
}

func mermaidID(s string) string {
	if s == "" {
		return "Unknown"
	}
	return sanitize(s)
}

// mermaidType keeps generic arguments in Mermaid's ~T~ form.
func mermaidType(s string) string {
	if s == "" {
		return "Unknown"
	}
	s = strings.NewReplacer(" ", "", "[]", "Array", "<", "~", ">", "~").Replace(s)
	var b strings.Builder
	for _, r := range s {
		if r == '~' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
