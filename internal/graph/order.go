package graph

import (
	"sort"
	"strings"
)

// compareFold orders strings case-insensitively, breaking ties by exact value
// so that the order is total.
func compareFold(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// compareFoldNullsLast is compareFold with empty values sorted after all others.
func compareFoldNullsLast(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return compareFold(a, b)
}

// ClassNames returns the class keys in sorted order.
func (m *Model) ClassNames() []string {
	names := make([]string, 0, len(m.Classes))
	for name := range m.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedClasses returns classes ordered by name, case-insensitively.
func (m *Model) SortedClasses() []*ClassNode {
	out := make([]*ClassNode, 0, len(m.Classes))
	for _, c := range m.Classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return compareFold(out[i].Name, out[j].Name) < 0
	})
	return out
}

// SortedSequences returns generators ordered by generator name, case-insensitively.
func (m *Model) SortedSequences() []*SequenceNode {
	out := make([]*SequenceNode, 0, len(m.Sequences))
	for _, s := range m.Sequences {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return compareFold(out[i].GeneratorName, out[j].GeneratorName) < 0
	})
	return out
}

// SortedEndpoints returns endpoints ordered by owning class then path,
// case-insensitively with missing values last. Equal keys keep insertion order.
func (m *Model) SortedEndpoints() []EndpointNode {
	out := make([]EndpointNode, len(m.Endpoints))
	copy(out, m.Endpoints)
	sort.SliceStable(out, func(i, j int) bool {
		if c := compareFoldNullsLast(out[i].ControllerClass, out[j].ControllerClass); c != 0 {
			return c < 0
		}
		return compareFoldNullsLast(out[i].Path, out[j].Path) < 0
	})
	return out
}

// HTTPEndpoints returns the HTTP endpoints in SortedEndpoints order.
func (m *Model) HTTPEndpoints() []EndpointNode {
	var out []EndpointNode
	for _, e := range m.SortedEndpoints() {
		if e.Type == EndpointHTTP {
			out = append(out, e)
		}
	}
	return out
}

// SortedDependencies returns dependency edges ordered by source then target,
// case-insensitively. Equal keys keep insertion order.
func (m *Model) SortedDependencies() []DependencyEdge {
	out := make([]DependencyEdge, len(m.DependencyEdges))
	copy(out, m.DependencyEdges)
	sort.SliceStable(out, func(i, j int) bool {
		if c := compareFoldNullsLast(out[i].From, out[j].From); c != 0 {
			return c < 0
		}
		return compareFoldNullsLast(out[i].To, out[j].To) < 0
	})
	return out
}
