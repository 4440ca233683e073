package grapher

import (
	"testing"

	"github.com/panbanda/mondrian/pkg/ast"
	"github.com/panbanda/mondrian/pkg/digraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typeOpt func(*ast.TypeDecl)

func extends(parent string) typeOpt {
	return func(t *ast.TypeDecl) { t.Parent = parent }
}

func implements(names ...string) typeOpt {
	return func(t *ast.TypeDecl) { t.Interfaces = append(t.Interfaces, names...) }
}

func uses(names ...string) typeOpt {
	return func(t *ast.TypeDecl) { t.Traits = append(t.Traits, names...) }
}

func with(methods ...*ast.MethodDecl) typeOpt {
	return func(t *ast.TypeDecl) { t.Methods = append(t.Methods, methods...) }
}

func decl(kind ast.TypeKind, name string, opts ...typeOpt) *ast.TypeDecl {
	t := &ast.TypeDecl{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func class(name string, opts ...typeOpt) *ast.TypeDecl {
	return decl(ast.KindClass, name, opts...)
}

func iface(name string, opts ...typeOpt) *ast.TypeDecl {
	return decl(ast.KindInterface, name, opts...)
}

func trait(name string, opts ...typeOpt) *ast.TypeDecl {
	return decl(ast.KindTrait, name, opts...)
}

type methodOpt func(*ast.MethodDecl)

func param(name, hint string) methodOpt {
	return func(m *ast.MethodDecl) { m.Params = append(m.Params, ast.Param{Name: name, TypeHint: hint}) }
}

func abstract() methodOpt {
	return func(m *ast.MethodDecl) { m.Abstract = true }
}

func visibility(v ast.Visibility) methodOpt {
	return func(m *ast.MethodDecl) { m.Visibility = v }
}

func calls(recv ast.ReceiverKind, typ, method string) methodOpt {
	return func(m *ast.MethodDecl) {
		m.Calls = append(m.Calls, ast.Call{Receiver: recv, Type: typ, Method: method})
	}
}

func news(typ string) methodOpt {
	return func(m *ast.MethodDecl) { m.News = append(m.News, ast.New{Type: typ}) }
}

func method(name string, opts ...methodOpt) *ast.MethodDecl {
	m := &ast.MethodDecl{Name: name, Visibility: ast.Public}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// signature is an interface method: abstract by construction.
func signature(name string, opts ...methodOpt) *ast.MethodDecl {
	return method(name, append(opts, abstract())...)
}

func files(types ...*ast.TypeDecl) []*ast.File {
	out := make([]*ast.File, len(types))
	for i, t := range types {
		out[i] = &ast.File{Path: t.Name + ".php", Types: []*ast.TypeDecl{t}}
	}
	return out
}

func build(t *testing.T, types ...*ast.TypeDecl) *digraph.Graph {
	t.Helper()
	return New().Build(files(types...))
}

// assertEdges checks the graph has exactly the given edges.
func assertEdges(t *testing.T, g *digraph.Graph, want [][2]digraph.Vertex) {
	t.Helper()
	require.Len(t, g.Edges(), len(want), "edges: %v", g.Edges())
	for _, e := range want {
		require.True(t, g.HasVertex(e[0]), "missing vertex %s", e[0])
		require.True(t, g.HasVertex(e[1]), "missing vertex %s", e[1])
		_, ok := g.SearchEdge(e[0], e[1])
		assert.True(t, ok, "missing edge %s -> %s", e[0], e[1])
	}
}
