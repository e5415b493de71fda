package scanner

import (
	"context"
	"log/slog"

	"codevision/internal/classfile"
	"codevision/internal/classpath"
	"codevision/internal/graph"
)

// CallLabel labels the class-level CALL dependency folded from call sites.
const CallLabel = "call"

// CallGraph is the result of a call-graph scan.
type CallGraph struct {
	MethodEdges []graph.MethodCallEdge
	// Classes holds one deduplicated caller→callee edge per class pair.
	Classes *graph.Adjacency
}

// Fold appends the method edges to m and one CALL dependency per class pair.
func (g *CallGraph) Fold(m *graph.Model) {
	for _, e := range g.MethodEdges {
		m.AddMethodCall(e)
	}
	for _, from := range g.Classes.Sources() {
		for _, to := range g.Classes.Targets(from) {
			m.AddDependency(from, to, graph.DepCall, CallLabel)
		}
	}
}

// CallGraphScanner records invoke instructions between accepted classes.
type CallGraphScanner struct {
	logger *slog.Logger
}

// NewCallGraphScanner creates a scanner.
func NewCallGraphScanner(logger *slog.Logger) *CallGraphScanner {
	return &CallGraphScanner{logger: logger}
}

// Scan walks the classpath and disassembles method bodies far enough to see
// call instructions. Undecodable classes are logged and contribute no edges.
func (s *CallGraphScanner) Scan(ctx context.Context, desc *classpath.Descriptor, acceptPackages []string) (*CallGraph, error) {
	result := &CallGraph{MethodEdges: []graph.MethodCallEdge{}, Classes: graph.NewAdjacency()}
	filter := NewFilter(acceptPackages)

	err := classpath.Walk(ctx, desc, s.logger, func(u classpath.Unit) error {
		v := &callVisitor{filter: filter}
		if err := classfile.Decode(u.Data, v); err != nil {
			s.logger.Warn("Skipping class in call graph", "entry", u.Name, "location", u.Location, "error", err)
			return nil
		}
		for _, e := range v.edges {
			result.MethodEdges = append(result.MethodEdges, e)
			result.Classes.AddEdge(e.CallerClass, e.CalleeClass)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Call graph scan complete",
		"classEdges", result.Classes.NumEdges(),
		"methodEdges", len(result.MethodEdges))
	return result, nil
}

// callVisitor buffers the edges of one class until it has fully decoded.
type callVisitor struct {
	filter Filter
	caller string
	edges  []graph.MethodCallEdge
}

func (v *callVisitor) VisitClass(h *classfile.Header) bool {
	v.caller = h.Name
	return v.filter.acceptsCall(h.Name)
}

func (v *callVisitor) VisitField(*classfile.Member) {}

func (v *callVisitor) VisitMethod(m *classfile.Member) classfile.MethodVisitor {
	return &methodCalls{v: v, name: m.Name, descriptor: m.Descriptor}
}

func (v *callVisitor) VisitEnd(*classfile.Attributes) {}

type methodCalls struct {
	v          *callVisitor
	name       string
	descriptor string
}

func (mc *methodCalls) VisitMethodInsn(insn classfile.MethodInsn) {
	if !mc.v.filter.acceptsCall(insn.Owner) {
		return
	}
	mc.v.edges = append(mc.v.edges, graph.MethodCallEdge{
		CallerClass:      mc.v.caller,
		CallerMethod:     mc.name,
		CallerDescriptor: mc.descriptor,
		CalleeClass:      insn.Owner,
		CalleeMethod:     insn.Name,
		CalleeDescriptor: insn.Descriptor,
	})
}
