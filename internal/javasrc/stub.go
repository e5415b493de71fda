//go:build !cgo

package javasrc

import (
	"context"

	"codevision/internal/graph"
)

// Available reports whether source parsing is compiled in.
func Available() bool { return false }

type parser struct{}

func newParser() *parser { return &parser{} }

func (p *parser) parseFile(context.Context, string) ([]*graph.ClassNode, error) {
	return nil, nil
}
