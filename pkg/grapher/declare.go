package grapher

import (
	"github.com/panbanda/mondrian/pkg/ast"
	"github.com/panbanda/mondrian/pkg/digraph"
	"github.com/panbanda/mondrian/pkg/hierarchy"
)

// Declare runs the declaration pass: one vertex per type, one Method vertex
// per public method on its first declaring type with a Param vertex per
// position, and one Impl vertex per concrete body.
//
// Traits hold bodies but never signatures. The parameters of a trait method
// hang off its Impl name instead. A class is the declarer of the methods it
// imports from traits unless one of its supertypes declares them.
// Only the first declaration of a duplicated type name contributes.
func Declare(ctx *Context, hier *hierarchy.Map, files []*ast.File) {
	for _, f := range files {
		if f == nil {
			continue
		}
		for _, t := range f.Types {
			if hier.Canonical(t) {
				declareType(ctx, hier, t)
			}
		}
	}
}

func declareType(ctx *Context, hier *hierarchy.Map, t *ast.TypeDecl) {
	ctx.Register(typeVertex(t))

	for _, m := range t.Methods {
		if !participates(m) {
			continue
		}
		switch t.Kind {
		case ast.KindTrait:
			if m.HasBody() {
				impl := ctx.Register(digraph.Impl(t.Name, m.Name))
				registerParams(ctx, impl.Name, m.Params)
			}
		case ast.KindInterface:
			if declarer, name := firstDeclaration(hier, t.Name, m.Name); declarer == t.Name {
				sig := ctx.Register(digraph.Method(declarer, name))
				registerParams(ctx, sig.Name, m.Params)
			}
		default:
			if declarer, name := firstDeclaration(hier, t.Name, m.Name); declarer == t.Name {
				sig := ctx.Register(digraph.Method(declarer, name))
				registerParams(ctx, sig.Name, m.Params)
			}
			if m.HasBody() {
				ctx.Register(digraph.Impl(t.Name, m.Name))
			}
		}
	}

	if t.Kind != ast.KindClass {
		return
	}
	for _, imp := range hier.ImportedMethods(t.Name) {
		if !participates(imp.Method) {
			continue
		}
		if declarer, name := firstDeclaration(hier, t.Name, imp.Method.Name); declarer == t.Name {
			sig := ctx.Register(digraph.Method(declarer, name))
			registerParams(ctx, sig.Name, imp.Method.Params)
		}
	}
}

func registerParams(ctx *Context, scope string, params []ast.Param) {
	for i := range params {
		ctx.Register(digraph.Param(scope, i))
	}
}

// firstDeclaration treats a type missing from the map as its own declarer.
func firstDeclaration(hier *hierarchy.Map, typ, method string) (string, string) {
	if declarer, name, ok := hier.FirstDeclaration(typ, method); ok {
		return declarer, name
	}
	return typ, method
}

// participates reports whether a method takes part in the graph at all.
func participates(m *ast.MethodDecl) bool {
	return m.Visibility == ast.Public && !m.IsMagic()
}

func typeVertex(t *ast.TypeDecl) digraph.Vertex {
	switch t.Kind {
	case ast.KindInterface:
		return digraph.Interface(t.Name)
	case ast.KindTrait:
		return digraph.Trait(t.Name)
	default:
		return digraph.Class(t.Name)
	}
}
