// Package scc finds strongly connected components in the class dependency
// graph using Tarjan's algorithm.
package scc

import "codevision/internal/graph"

// Result maps each node to its component id. Ids start at 1 and increase in
// the order components are closed.
type Result struct {
	ComponentIDs map[string]int
	Cyclic       map[int]bool
}

// ComponentOf returns the component id of a node.
func (r *Result) ComponentOf(node string) (int, bool) {
	id, ok := r.ComponentIDs[node]
	return id, ok
}

// IsCyclic reports whether node belongs to a component with more than one member.
func (r *Result) IsCyclic(node string) bool {
	id, ok := r.ComponentIDs[node]
	return ok && r.Cyclic[id]
}

// NumComponents returns the number of components found.
func (r *Result) NumComponents() int {
	seen := make(map[int]struct{}, len(r.ComponentIDs))
	for _, id := range r.ComponentIDs {
		seen[id] = struct{}{}
	}
	return len(seen)
}

type frame struct {
	node    string
	targets []string
	next    int
}

// Compute runs Tarjan's algorithm over adj. Source nodes are visited in
// insertion order; the traversal is iterative so deep chains cannot exhaust
// the goroutine stack.
func Compute(adj *graph.Adjacency) *Result {
	res := &Result{
		ComponentIDs: make(map[string]int),
		Cyclic:       make(map[int]bool),
	}
	if adj == nil {
		return res
	}

	index := make(map[string]int)
	low := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	counter := 0
	component := 0

	visit := func(v string) frame {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		return frame{node: v, targets: adj.Targets(v)}
	}

	for _, root := range adj.Sources() {
		if _, seen := index[root]; seen {
			continue
		}
		calls := []frame{visit(root)}
		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			if top.next < len(top.targets) {
				w := top.targets[top.next]
				top.next++
				if _, seen := index[w]; !seen {
					calls = append(calls, visit(w))
				} else if onStack[w] && index[w] < low[top.node] {
					low[top.node] = index[w]
				}
				continue
			}

			v := top.node
			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].node
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}
			if low[v] != index[v] {
				continue
			}

			component++
			members := 0
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				res.ComponentIDs[w] = component
				members++
				if w == v {
					break
				}
			}
			if members > 1 {
				res.Cyclic[component] = true
			}
		}
	}

	// Nodes seen only as edge targets still get a singleton component.
	for _, n := range adj.Nodes() {
		if _, ok := res.ComponentIDs[n]; !ok {
			component++
			res.ComponentIDs[n] = component
		}
	}
	return res
}

// Annotate writes component ids and cycle flags onto every class in m.
// Classes absent from the dependency graph keep a nil component id.
func Annotate(m *graph.Model, res *Result) {
	for name, c := range m.Classes {
		if id, ok := res.ComponentOf(name); ok {
			id := id
			c.SccID = &id
		} else {
			c.SccID = nil
		}
		c.InCycle = res.IsCyclic(name)
	}
}
