package scc

import (
	"fmt"
	"testing"

	"codevision/internal/graph"
)

func adjacency(edges ...[2]string) *graph.Adjacency {
	adj := graph.NewAdjacency()
	for _, e := range edges {
		adj.AddEdge(e[0], e[1])
	}
	return adj
}

func TestComputeSimpleCycle(t *testing.T) {
	res := Compute(adjacency(
		[2]string{"A", "B"},
		[2]string{"B", "A"},
		[2]string{"B", "C"},
	))

	a, _ := res.ComponentOf("A")
	b, _ := res.ComponentOf("B")
	c, ok := res.ComponentOf("C")
	if !ok {
		t.Fatalf("C has no component id")
	}
	if a != b {
		t.Errorf("A and B in different components: %d vs %d", a, b)
	}
	if c == a {
		t.Errorf("C shares component %d with A", c)
	}
	if !res.IsCyclic("A") || !res.IsCyclic("B") {
		t.Errorf("A and B should be cyclic")
	}
	if res.IsCyclic("C") {
		t.Errorf("C should not be cyclic")
	}
	if res.NumComponents() != 2 {
		t.Errorf("NumComponents() = %d, want 2", res.NumComponents())
	}
}

func TestComputeIdsAreSequential(t *testing.T) {
	// Components close leaves first: C, then {A,B}.
	res := Compute(adjacency([2]string{"A", "B"}, [2]string{"B", "A"}, [2]string{"B", "C"}))
	if id, _ := res.ComponentOf("C"); id != 1 {
		t.Errorf("C id = %d, want 1", id)
	}
	if id, _ := res.ComponentOf("A"); id != 2 {
		t.Errorf("A id = %d, want 2", id)
	}
}

func TestComputeSelfLoopIsNotCyclic(t *testing.T) {
	res := Compute(adjacency([2]string{"A", "A"}))
	if res.IsCyclic("A") {
		t.Errorf("single-member component must not be flagged cyclic")
	}
	if _, ok := res.ComponentOf("A"); !ok {
		t.Errorf("A missing component id")
	}
}

func TestComputeEmptyAndNil(t *testing.T) {
	if res := Compute(graph.NewAdjacency()); len(res.ComponentIDs) != 0 {
		t.Errorf("empty adjacency produced %v", res.ComponentIDs)
	}
	if res := Compute(nil); len(res.ComponentIDs) != 0 {
		t.Errorf("nil adjacency produced %v", res.ComponentIDs)
	}
}

func TestComputeTwoCyclesJoinedByBridge(t *testing.T) {
	res := Compute(adjacency(
		[2]string{"A", "B"}, [2]string{"B", "A"},
		[2]string{"B", "C"},
		[2]string{"C", "D"}, [2]string{"D", "E"}, [2]string{"E", "C"},
	))
	ab, _ := res.ComponentOf("A")
	cde, _ := res.ComponentOf("D")
	if ab == cde {
		t.Errorf("bridge must not merge components")
	}
	for _, n := range []string{"C", "D", "E"} {
		id, _ := res.ComponentOf(n)
		if id != cde || !res.IsCyclic(n) {
			t.Errorf("%s: id=%d cyclic=%v, want id=%d cyclic", n, id, res.IsCyclic(n), cde)
		}
	}
}

func TestComputeDeepChainDoesNotOverflow(t *testing.T) {
	adj := graph.NewAdjacency()
	const n = 200000
	for i := 0; i < n; i++ {
		adj.AddEdge(fmt.Sprintf("N%d", i), fmt.Sprintf("N%d", i+1))
	}
	adj.AddEdge(fmt.Sprintf("N%d", n), "N0")
	res := Compute(adj)
	if !res.IsCyclic("N0") || !res.IsCyclic(fmt.Sprintf("N%d", n)) {
		t.Errorf("ring should form one cyclic component")
	}
	if res.NumComponents() != 1 {
		t.Errorf("NumComponents() = %d, want 1", res.NumComponents())
	}
}

func TestAnnotate(t *testing.T) {
	m := graph.New()
	for _, n := range []string{"a.A", "a.B", "a.C", "a.Lonely"} {
		m.AddClass(&graph.ClassNode{Name: n})
	}
	m.AddDependency("a.A", "a.B", graph.DepCall, "call")
	m.AddDependency("a.B", "a.A", graph.DepInjection, "")
	m.AddDependency("a.B", "a.C", graph.DepField, "")

	Annotate(m, Compute(m.DependencyAdjacency()))

	if !m.Classes["a.A"].InCycle || !m.Classes["a.B"].InCycle {
		t.Errorf("A and B should be in a cycle")
	}
	if m.Classes["a.C"].InCycle || m.Classes["a.C"].SccID == nil {
		t.Errorf("C = %+v, want acyclic with an id", m.Classes["a.C"])
	}
	if m.Classes["a.Lonely"].SccID != nil {
		t.Errorf("class outside the graph should keep a nil id")
	}
	if m.CountCyclicClasses() != 2 {
		t.Errorf("CountCyclicClasses() = %d, want 2", m.CountCyclicClasses())
	}
}
