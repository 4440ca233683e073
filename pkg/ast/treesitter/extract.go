package treesitter

import (
	"strings"

	"github.com/panbanda/mondrian/pkg/ast"
	"github.com/panbanda/mondrian/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// extractor walks one PHP syntax tree and builds its declaration tree.
type extractor struct {
	path  string
	src   []byte
	file  *ast.File
	scope *scope
}

func extract(result *parser.ParseResult) *ast.File {
	root := result.Tree.RootNode()
	x := &extractor{
		path:  result.Path,
		src:   result.Source,
		file:  &ast.File{Path: result.Path, Partial: root.HasError()},
		scope: newScope(""),
	}
	x.statements(root)
	return x.file
}

func (x *extractor) text(n *sitter.Node) string {
	return parser.GetNodeText(n, x.src)
}

func (x *extractor) pos(n *sitter.Node) ast.Position {
	p := n.StartPoint()
	return ast.Position{File: x.path, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

// statements handles the top-level statements of a file or of a bracketed
// namespace body.
func (x *extractor) statements(node *sitter.Node) {
	for _, child := range parser.NamedChildren(node) {
		switch child.Type() {
		case "namespace_definition":
			x.namespace(child)
		case "namespace_use_declaration":
			x.scope.parseUse(x.text(child))
		case "class_declaration":
			x.typeDeclaration(child, ast.KindClass)
		case "interface_declaration":
			x.typeDeclaration(child, ast.KindInterface)
		case "trait_declaration":
			x.typeDeclaration(child, ast.KindTrait)
		}
	}
}

// namespace opens a new scope. The statement form applies to the rest of the
// file, the bracketed form to its body only.
func (x *extractor) namespace(node *sitter.Node) {
	name := strings.Trim(x.text(node.ChildByFieldName("name")), `\`)
	if x.file.Namespace == "" {
		x.file.Namespace = name
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		x.scope = newScope(name)
		return
	}
	outer := x.scope
	x.scope = newScope(name)
	x.statements(body)
	x.scope = outer
}

func (x *extractor) typeDeclaration(node *sitter.Node, kind ast.TypeKind) {
	t := &ast.TypeDecl{
		Name: x.scope.qualify(x.text(node.ChildByFieldName("name"))),
		Kind: kind,
		Pos:  x.pos(node),
	}

	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch child.Type() {
		case "abstract_modifier":
			t.Abstract = true
		case "base_clause":
			names := x.nameList(child)
			if kind == ast.KindInterface {
				t.Interfaces = append(t.Interfaces, names...)
			} else if len(names) > 0 {
				t.Parent = names[0]
			}
		case "class_interface_clause":
			t.Interfaces = append(t.Interfaces, x.nameList(child)...)
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		body = parser.ChildOfType(node, "declaration_list")
	}
	for _, member := range parser.NamedChildren(body) {
		switch member.Type() {
		case "use_declaration":
			t.Traits = append(t.Traits, x.nameList(member)...)
		case "method_declaration":
			t.Methods = append(t.Methods, x.method(member, t))
		}
	}

	x.file.Types = append(x.file.Types, t)
}

// nameList resolves the class names listed directly under node, as in
// extends, implements and trait use clauses.
func (x *extractor) nameList(node *sitter.Node) []string {
	var names []string
	for _, child := range parser.NamedChildren(node) {
		switch child.Type() {
		case "name", "qualified_name":
			names = append(names, x.scope.resolve(x.text(child)))
		}
	}
	return names
}

func (x *extractor) method(node *sitter.Node, owner *ast.TypeDecl) *ast.MethodDecl {
	m := &ast.MethodDecl{
		Name:       x.text(node.ChildByFieldName("name")),
		Visibility: ast.Public,
		Pos:        x.pos(node),
	}

	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch child.Type() {
		case "visibility_modifier":
			switch v := strings.ToLower(x.text(child)); {
			case strings.HasPrefix(v, "private"):
				m.Visibility = ast.Private
			case strings.HasPrefix(v, "protected"):
				m.Visibility = ast.Protected
			}
		case "static_modifier":
			m.Static = true
		case "abstract_modifier":
			m.Abstract = true
		}
	}

	for _, p := range parser.NamedChildren(node.ChildByFieldName("parameters")) {
		switch p.Type() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
			m.Params = append(m.Params, ast.Param{
				Name:     x.text(p.ChildByFieldName("name")),
				TypeHint: x.typeHint(paramType(p), owner),
			})
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil || owner.Kind == ast.KindInterface {
		m.Abstract = true
		return m
	}
	newBodyScanner(x, owner, m).scan(body)
	return m
}

// paramType returns the type node of a parameter.
func paramType(p *sitter.Node) *sitter.Node {
	if t := p.ChildByFieldName("type"); t != nil {
		return t
	}
	for _, child := range parser.NamedChildren(p) {
		switch typ := child.Type(); {
		case typ == "variable_name":
			return nil
		case typ == "name", typ == "qualified_name", strings.HasSuffix(typ, "_type"):
			return child
		}
	}
	return nil
}

// typeHint returns the class a type node names, or "" for scalar and missing
// types. A nullable type yields its inner type and a union its first class.
func (x *extractor) typeHint(node *sitter.Node, owner *ast.TypeDecl) string {
	var hint string
	parser.WalkTyped(node, x.src, func(n *sitter.Node, nodeType string, src []byte) bool {
		if hint != "" {
			return false
		}
		switch nodeType {
		case "primitive_type":
			return false
		case "named_type", "name", "qualified_name":
			hint = x.className(parser.GetNodeText(n, src), owner)
			return false
		}
		return true
	})
	return hint
}

// className resolves a class name written in a type position or a new
// expression. self and static stand for the owner, parent for its parent.
func (x *extractor) className(name string, owner *ast.TypeDecl) string {
	name = strings.TrimSpace(name)
	switch lower := strings.ToLower(name); {
	case lower == "":
		return ""
	case scalarTypes[lower]:
		return ""
	case lower == "self", lower == "static":
		return owner.Name
	case lower == "parent":
		return owner.Parent
	}
	return x.scope.resolve(name)
}
