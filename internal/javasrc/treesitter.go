//go:build cgo

package javasrc

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"codevision/internal/graph"
	"codevision/internal/scanner"
)

// Available reports whether source parsing is compiled in.
func Available() bool { return true }

var declarationKinds = map[string]graph.ClassKind{
	"class_declaration":     graph.KindClass,
	"interface_declaration": graph.KindInterface,
	"enum_declaration":      graph.KindEnum,
	"record_declaration":    graph.KindRecord,
}

// parser wraps a tree-sitter parser configured for Java. It is not safe for
// concurrent use.
type parser struct {
	parser *sitter.Parser
}

func newParser() *parser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &parser{parser: p}
}

func (p *parser) parseFile(ctx context.Context, path string) ([]*graph.ClassNode, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.parseSource(ctx, source)
}

// parseSource returns the top-level types of one compilation unit.
func (p *parser) parseSource(ctx context.Context, source []byte) ([]*graph.ClassNode, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parse error: empty tree")
	}

	u := &unit{source: source}
	u.readHeader(root)

	var out []*graph.ClassNode
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if kind, ok := declarationKinds[n.Type()]; ok {
			if c := u.class(n, kind); c != nil {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

type unit struct {
	source []byte
	r      *resolver
}

func (u *unit) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(u.source)
}

func (u *unit) readHeader(root *sitter.Node) {
	var pkg string
	var imports []string
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_declaration":
			for j := 0; j < int(n.NamedChildCount()); j++ {
				c := n.NamedChild(j)
				if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
					pkg = u.text(c)
				}
			}
		case "import_declaration":
			imp := strings.TrimSpace(u.text(n))
			imp = strings.TrimSuffix(strings.TrimPrefix(imp, "import"), ";")
			imp = strings.TrimSpace(imp)
			if strings.HasPrefix(imp, "static ") {
				continue
			}
			imports = append(imports, strings.Join(strings.Fields(imp), ""))
		}
	}
	u.r = newResolver(pkg, imports)
}

type annotation struct {
	name string
	node *sitter.Node
}

func (u *unit) class(n *sitter.Node, kind graph.ClassKind) *graph.ClassNode {
	simple := u.text(n.ChildByFieldName("name"))
	if simple == "" {
		return nil
	}
	annotations := u.annotations(modifiersOf(n))
	names := annotationNames(annotations)

	node := &graph.ClassNode{
		Name:        u.r.qualify(simple),
		PackageName: u.r.pkg,
		SimpleName:  simple,
		Kind:        kind,
		Interfaces:  u.interfaces(n),
		Annotations: names,
		Stereotypes: stereotypesOf(names),
		Fields:      []graph.FieldModel{},
		Origin:      graph.OriginSource,
	}
	node.InjectionTarget = scanner.IsInjectionTarget(node.Stereotypes)
	if sc := n.ChildByFieldName("superclass"); sc != nil && sc.NamedChildCount() > 0 {
		node.SuperClass = graph.NormalizeType(u.r.typeText(u.text(sc.NamedChild(0))))
	}

	for _, a := range annotations {
		if scanner.IsEntityAnnotation(a.name) {
			node.Entity = true
		}
	}
	if node.Entity {
		for _, a := range annotations {
			if !scanner.IsTableAnnotation(a.name) {
				continue
			}
			if name, ok := u.stringArg(a.node, "name"); ok {
				node.TableName = &name
				break
			}
		}
	}

	for _, f := range u.fieldDeclarations(n.ChildByFieldName("body")) {
		node.Fields = append(node.Fields, u.fields(f)...)
	}
	return node
}

func (u *unit) interfaces(n *sitter.Node) []string {
	out := []string{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "super_interfaces" && c.Type() != "extends_interfaces" {
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			list := c.NamedChild(j)
			if list.Type() != "type_list" {
				continue
			}
			for k := 0; k < int(list.NamedChildCount()); k++ {
				if name := graph.NormalizeType(u.r.typeText(u.text(list.NamedChild(k)))); name != "" {
					out = append(out, name)
				}
			}
		}
	}
	return out
}

// fieldDeclarations returns the field declarations of a class, interface or
// enum body.
func (u *unit) fieldDeclarations(body *sitter.Node) []*sitter.Node {
	if body == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		switch c.Type() {
		case "field_declaration":
			out = append(out, c)
		case "enum_body_declarations":
			out = append(out, u.fieldDeclarations(c)...)
		}
	}
	return out
}

func (u *unit) fields(decl *sitter.Node) []graph.FieldModel {
	names := annotationNames(u.annotations(modifiersOf(decl)))
	typ := u.r.typeText(u.text(decl.ChildByFieldName("type")))

	injected, relationship := false, false
	for _, a := range names {
		injected = injected || scanner.IsInjectionAnnotation(a)
		relationship = relationship || scanner.IsRelationshipAnnotation(a)
	}

	var out []graph.FieldModel
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		name := u.text(d.ChildByFieldName("name"))
		if name == "" {
			continue
		}
		out = append(out, graph.FieldModel{
			Name:         name,
			Type:         typ,
			Annotations:  append([]string{}, names...),
			Injected:     injected,
			Relationship: relationship,
		})
	}
	return out
}

func modifiersOf(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "modifiers" {
			return c
		}
	}
	return nil
}

func (u *unit) annotations(mods *sitter.Node) []annotation {
	if mods == nil {
		return nil
	}
	var out []annotation
	for i := 0; i < int(mods.NamedChildCount()); i++ {
		c := mods.NamedChild(i)
		if c.Type() != "annotation" && c.Type() != "marker_annotation" {
			continue
		}
		out = append(out, annotation{name: u.r.annotation(u.text(c.ChildByFieldName("name"))), node: c})
	}
	return out
}

func annotationNames(annotations []annotation) []string {
	out := make([]string, 0, len(annotations))
	for _, a := range annotations {
		out = graph.AppendUnique(out, a.name)
	}
	return out
}

// stringArg returns the string literal bound to key in an annotation's
// argument list.
func (u *unit) stringArg(ann *sitter.Node, key string) (string, bool) {
	args := ann.ChildByFieldName("arguments")
	if args == nil {
		return "", false
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		pair := args.NamedChild(i)
		if pair.Type() != "element_value_pair" || u.text(pair.ChildByFieldName("key")) != key {
			continue
		}
		value := pair.ChildByFieldName("value")
		if value == nil || value.Type() != "string_literal" {
			return "", false
		}
		raw := u.text(value)
		if s, err := strconv.Unquote(raw); err == nil {
			return s, true
		}
		return strings.Trim(raw, `"`), true
	}
	return "", false
}
