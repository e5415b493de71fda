package diagram

import (
	"fmt"
	"strconv"
	"strings"

	"codevision/internal/graph"
)

// DefaultMaxCallDepth bounds sequence traversal when no depth is configured.
const DefaultMaxCallDepth = 8

// SequenceEndpoints returns the first limit HTTP endpoints ordered by owning
// class then path, ignoring case.
func SequenceEndpoints(m *graph.Model, limit int) []graph.EndpointNode {
	eps := m.HTTPEndpoints()
	if limit >= 0 && len(eps) > limit {
		eps = eps[:limit]
	}
	return eps
}

// SequenceFileName names the n-th sequence diagram seq_NN_<owner>_<method>.puml.
// The handler method is part of the name so two endpoints of one controller
// get distinct files.
func SequenceFileName(n int, ep graph.EndpointNode) string {
	return fmt.Sprintf("seq_%02d_%s.puml", n, sanitize(ep.ControllerClass+"_"+ep.ControllerMethod))
}

// SequenceDiagram renders the calls reachable from the endpoint's owning
// class, at most maxDepth levels deep. Re-entering a class already on the
// current path emits a single loop block and does not descend further.
func SequenceDiagram(ep graph.EndpointNode, calls *graph.Adjacency, m *graph.Model, maxDepth int) string {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCallDepth
	}
	verb := ep.HTTPMethod
	if verb == "" {
		verb = "ANY"
	}

	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("actor Client\n")
	fmt.Fprintf(&b, "Client -> %s : %s %s\n", alias(ep.ControllerClass), verb, ep.Path)

	t := &traversal{calls: calls, model: m, out: &b, onPath: make(map[string]bool)}
	t.visit(ep.ControllerClass, maxDepth)

	b.WriteString("@enduml\n")
	return b.String()
}

type traversal struct {
	calls  *graph.Adjacency
	model  *graph.Model
	out    *strings.Builder
	onPath map[string]bool
}

func (t *traversal) visit(class string, depth int) {
	if depth <= 0 {
		return
	}
	t.onPath[class] = true
	defer delete(t.onPath, class)

	for _, callee := range t.calls.Targets(class) {
		if t.onPath[callee] {
			fmt.Fprintf(t.out, "loop Cyclic dependency (SCC %s)\n", t.sccLabel(callee))
			fmt.Fprintf(t.out, "%s -> %s : call\n", alias(class), alias(callee))
			t.out.WriteString("end\n")
			continue
		}
		fmt.Fprintf(t.out, "%s -> %s : call\n", alias(class), alias(callee))
		t.visit(callee, depth-1)
	}
}

func (t *traversal) sccLabel(class string) string {
	if c, ok := t.model.Class(class); ok && c.SccID != nil {
		return strconv.Itoa(*c.SccID)
	}
	return "?"
}
