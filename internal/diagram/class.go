package diagram

import (
	"fmt"
	"strings"

	"codevision/internal/graph"
)

// CycleTag marks classes that sit in a dependency cycle.
const CycleTag = "CYCLE"

// ClassDiagram renders every class with its stereotypes and fields, then one
// relationship line per dependency edge, both in canonical order.
func ClassDiagram(m *graph.Model) string {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("set namespaceSeparator .\n")

	for _, c := range m.SortedClasses() {
		tags := append([]string{}, c.Stereotypes...)
		if c.InCycle {
			tags = append(tags, CycleTag)
		}
		fmt.Fprintf(&b, "class %s", alias(c.Name))
		if len(tags) > 0 {
			fmt.Fprintf(&b, " <<%s>>", strings.Join(tags, ", "))
		}
		b.WriteString(" {\n")
		for _, f := range c.Fields {
			marker := ""
			if f.Injected {
				marker = "*"
			}
			fmt.Fprintf(&b, "  %s%s : %s\n", marker, f.Name, f.Type)
		}
		b.WriteString("}\n")
	}

	for _, e := range m.SortedDependencies() {
		if e.From == "" || e.To == "" {
			continue
		}
		b.WriteString(relation(e))
		if e.Label != "" {
			fmt.Fprintf(&b, " : %s", e.Label)
		}
		b.WriteByte('\n')
	}
	b.WriteString("@enduml\n")
	return b.String()
}

// relation renders one edge. Generalizations are written supertype first so
// the arrowhead points at the supertype.
func relation(e graph.DependencyEdge) string {
	from, to := alias(e.From), alias(e.To)
	switch e.Kind {
	case graph.DepExtends:
		return to + " <|-- " + from
	case graph.DepImplements:
		return to + " <|.. " + from
	case graph.DepCall, graph.DepInjection, graph.DepField:
		return from + " --> " + to
	default:
		return from + " ..> " + to
	}
}
