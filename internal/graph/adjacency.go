package graph

// Adjacency is a directed class graph with deduplicated edges. Nodes and
// targets iterate in first-insertion order so traversals are deterministic.
type Adjacency struct {
	nodes   []string
	nodeIdx map[string]int

	// outEdges[i] lists target indexes of nodes[i]
	outEdges [][]int
	edgeSet  map[[2]int]struct{}

	// isSource marks nodes that have been added as an edge source
	isSource []bool
	sources  int
}

// NewAdjacency creates an empty adjacency.
func NewAdjacency() *Adjacency {
	return &Adjacency{
		nodeIdx: make(map[string]int),
		edgeSet: make(map[[2]int]struct{}),
	}
}

func (a *Adjacency) addNode(id string) int {
	if idx, ok := a.nodeIdx[id]; ok {
		return idx
	}
	idx := len(a.nodes)
	a.nodes = append(a.nodes, id)
	a.nodeIdx[id] = idx
	a.outEdges = append(a.outEdges, nil)
	a.isSource = append(a.isSource, false)
	return idx
}

// AddEdge adds from→to. It reports false when the pair was already present.
func (a *Adjacency) AddEdge(from, to string) bool {
	src := a.addNode(from)
	if !a.isSource[src] {
		a.isSource[src] = true
		a.sources++
	}
	dst := a.addNode(to)
	key := [2]int{src, dst}
	if _, dup := a.edgeSet[key]; dup {
		return false
	}
	a.edgeSet[key] = struct{}{}
	a.outEdges[src] = append(a.outEdges[src], dst)
	return true
}

// Sources returns the nodes with at least one outgoing edge, in insertion order.
func (a *Adjacency) Sources() []string {
	out := make([]string, 0, a.sources)
	for i, id := range a.nodes {
		if a.isSource[i] {
			out = append(out, id)
		}
	}
	return out
}

// Nodes returns every node, sources and targets alike, in insertion order.
func (a *Adjacency) Nodes() []string {
	out := make([]string, len(a.nodes))
	copy(out, a.nodes)
	return out
}

// Targets returns the outgoing neighbours of id.
func (a *Adjacency) Targets(id string) []string {
	idx, ok := a.nodeIdx[id]
	if !ok {
		return nil
	}
	out := make([]string, len(a.outEdges[idx]))
	for i, t := range a.outEdges[idx] {
		out[i] = a.nodes[t]
	}
	return out
}

// HasNode reports whether id appears as a source or target.
func (a *Adjacency) HasNode(id string) bool {
	_, ok := a.nodeIdx[id]
	return ok
}

// NumNodes returns the number of distinct nodes.
func (a *Adjacency) NumNodes() int { return len(a.nodes) }

// NumEdges returns the number of distinct edges.
func (a *Adjacency) NumEdges() int { return len(a.edgeSet) }

// DependencyAdjacency folds every dependency edge with both endpoints set
// into a class adjacency.
func (m *Model) DependencyAdjacency() *Adjacency {
	adj := NewAdjacency()
	for _, e := range m.DependencyEdges {
		if e.From == "" || e.To == "" {
			continue
		}
		adj.AddEdge(e.From, e.To)
	}
	return adj
}

// CallAdjacency folds method call edges into a class-level call adjacency.
func (m *Model) CallAdjacency() *Adjacency {
	adj := NewAdjacency()
	for _, e := range m.MethodCallEdges {
		if e.CallerClass == "" || e.CalleeClass == "" {
			continue
		}
		adj.AddEdge(e.CallerClass, e.CalleeClass)
	}
	return adj
}
