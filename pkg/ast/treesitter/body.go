package treesitter

import (
	"strings"

	"github.com/panbanda/mondrian/pkg/ast"
	"github.com/panbanda/mondrian/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// bodyScanner collects the calls and instantiations of one method body. It
// tracks the static type of locals that are typed parameters or were
// assigned a new expression, in source order.
type bodyScanner struct {
	x      *extractor
	owner  *ast.TypeDecl
	method *ast.MethodDecl
	vars   map[string]string
}

func newBodyScanner(x *extractor, owner *ast.TypeDecl, m *ast.MethodDecl) *bodyScanner {
	s := &bodyScanner{x: x, owner: owner, method: m, vars: make(map[string]string)}
	for _, p := range m.Params {
		if p.TypeHint != "" {
			s.vars[p.Name] = p.TypeHint
		}
	}
	return s
}

func (s *bodyScanner) scan(body *sitter.Node) {
	parser.WalkTyped(body, s.x.src, func(n *sitter.Node, nodeType string, src []byte) bool {
		switch nodeType {
		case "declaration_list":
			// body of an anonymous class
			return false
		case "assignment_expression":
			s.assignment(n)
		case "member_call_expression", "nullsafe_member_call_expression":
			s.memberCall(n)
		case "scoped_call_expression":
			s.scopedCall(n)
		case "object_creation_expression":
			if typ := s.newType(n); typ != "" {
				s.method.News = append(s.method.News, ast.New{Type: typ, Pos: s.x.pos(n)})
			}
		}
		return true
	})
}

func (s *bodyScanner) assignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	if left == nil || left.Type() != "variable_name" {
		return
	}
	name := s.x.text(left)
	if right := unparen(n.ChildByFieldName("right")); right != nil && right.Type() == "object_creation_expression" {
		if typ := s.newType(right); typ != "" {
			s.vars[name] = typ
			return
		}
	}
	delete(s.vars, name)
}

func (s *bodyScanner) memberCall(n *sitter.Node) {
	method, ok := s.methodName(n)
	if !ok {
		return
	}
	call := ast.Call{Method: method, Pos: s.x.pos(n)}

	switch obj := unparen(n.ChildByFieldName("object")); {
	case obj == nil:
	case obj.Type() == "variable_name":
		s.variableReceiver(&call, s.x.text(obj))
	case obj.Type() == "object_creation_expression":
		if typ := s.newType(obj); typ != "" {
			call.Receiver, call.Type = ast.ReceiverVariable, typ
		}
	}
	s.method.Calls = append(s.method.Calls, call)
}

func (s *bodyScanner) scopedCall(n *sitter.Node) {
	method, ok := s.methodName(n)
	if !ok {
		return
	}
	call := ast.Call{Method: method, Pos: s.x.pos(n)}

	scope := n.ChildByFieldName("scope")
	switch {
	case scope == nil:
	case scope.Type() == "variable_name":
		s.variableReceiver(&call, s.x.text(scope))
	case scope.Type() == "relative_scope", scope.Type() == "name", scope.Type() == "qualified_name":
		switch name := s.x.text(scope); strings.ToLower(name) {
		case "self":
			call.Receiver = ast.ReceiverSelf
		case "static":
			call.Receiver = ast.ReceiverStatic
		case "parent":
			call.Receiver = ast.ReceiverParent
		default:
			call.Receiver, call.Type = ast.ReceiverClass, s.x.scope.resolve(name)
		}
	}
	s.method.Calls = append(s.method.Calls, call)
}

func (s *bodyScanner) variableReceiver(call *ast.Call, name string) {
	if name == "$this" {
		call.Receiver = ast.ReceiverThis
		return
	}
	if typ, ok := s.vars[name]; ok {
		call.Receiver, call.Type = ast.ReceiverVariable, typ
	}
}

// methodName returns the called method. Dynamic names ($obj->$m()) are not
// resolvable and yield false.
func (s *bodyScanner) methodName(n *sitter.Node) (string, bool) {
	name := n.ChildByFieldName("name")
	if name == nil || name.Type() != "name" {
		return "", false
	}
	return s.x.text(name), true
}

// newType returns the class a new expression constructs, or "" for
// anonymous classes and dynamic class names.
func (s *bodyScanner) newType(n *sitter.Node) string {
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		switch child.Type() {
		case "class", "declaration_list", "anonymous_class":
			return ""
		case "name", "qualified_name", "relative_scope":
			return s.x.className(s.x.text(child), s.owner)
		case "variable_name", "member_access_expression", "scoped_property_access_expression", "subscript_expression":
			return ""
		}
	}
	return ""
}

func unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" && n.NamedChildCount() > 0 {
		n = n.NamedChild(0)
	}
	return n
}
