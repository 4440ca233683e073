package grapher

import (
	"log/slog"
	"strings"

	"github.com/panbanda/mondrian/pkg/ast"
	"github.com/panbanda/mondrian/pkg/digraph"
	"github.com/panbanda/mondrian/pkg/hierarchy"
)

// Stats counts the decisions the relationship pass made about calls and
// instantiations.
type Stats struct {
	Calls          int `json:"calls" toon:"calls"`
	SelfCalls      int `json:"self_calls_filtered" toon:"self_calls_filtered"`
	ExcludedCalls  int `json:"excluded_calls" toon:"excluded_calls"`
	FallbackCalls  int `json:"fallback_calls" toon:"fallback_calls"`
	DanglingCalls  int `json:"dangling_calls" toon:"dangling_calls"`
	Instantiations int `json:"instantiations" toon:"instantiations"`
	UnknownNews    int `json:"unknown_instantiations" toon:"unknown_instantiations"`
}

type relater struct {
	ctx    *Context
	hier   *hierarchy.Map
	logger *slog.Logger
	stats  Stats
}

// Relate runs the relationship pass over the vertices indexed by Declare and
// returns what it decided about calls.
func Relate(ctx *Context, hier *hierarchy.Map, files []*ast.File, logger *slog.Logger) Stats {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &relater{ctx: ctx, hier: hier, logger: logger}
	for _, f := range files {
		if f == nil {
			continue
		}
		for _, t := range f.Types {
			if hier.Canonical(t) {
				r.relateType(t)
			}
		}
	}
	return r.stats
}

func (r *relater) edge(from, to digraph.Vertex) {
	r.ctx.Graph().AddEdge(from, to)
}

func (r *relater) relateType(t *ast.TypeDecl) {
	tv, ok := r.ctx.Find(typeVertex(t).Kind, t.Name)
	if !ok {
		panic("grapher: relationship pass on undeclared type " + t.Name)
	}

	r.relateSupertypes(tv, t)

	for _, m := range t.Methods {
		if !participates(m) {
			continue
		}
		switch t.Kind {
		case ast.KindInterface:
			r.relateSignature(tv, t.Name, m)
		case ast.KindTrait:
			r.relateTraitMethod(tv, t, m)
		default:
			r.relateClassMethod(tv, t, m)
		}
	}

	if t.Kind == ast.KindClass {
		for _, imp := range r.hier.ImportedMethods(t.Name) {
			if participates(imp.Method) {
				r.relateSignature(tv, t.Name, imp.Method)
			}
		}
	}
}

// relateSupertypes links a type to the declared types it extends,
// implements or uses. Supertypes outside the input have no vertex and are
// skipped.
func (r *relater) relateSupertypes(tv digraph.Vertex, t *ast.TypeDecl) {
	if t.Parent != "" {
		if parent, ok := r.ctx.Find(digraph.KindClass, t.Parent); ok {
			r.edge(tv, parent)
		}
	}
	for _, name := range t.Interfaces {
		if iface, ok := r.ctx.Find(digraph.KindInterface, name); ok {
			r.edge(tv, iface)
		}
	}
	for _, name := range t.Traits {
		if trait, ok := r.ctx.Find(digraph.KindTrait, name); ok {
			r.edge(tv, trait)
		}
	}
}

// relateSignature links a declaring type to its Method vertex, the Method to
// its parameters and the parameters to their types. It does nothing when typ
// is not the first declarer.
func (r *relater) relateSignature(tv digraph.Vertex, typ string, m *ast.MethodDecl) (digraph.Vertex, bool) {
	declarer, name := firstDeclaration(r.hier, typ, m.Name)
	if declarer != typ {
		return digraph.Vertex{}, false
	}
	sig, ok := r.ctx.Find(digraph.KindMethod, digraph.MemberName(declarer, name))
	if !ok {
		return digraph.Vertex{}, false
	}
	r.edge(tv, sig)
	for i, p := range m.Params {
		param, ok := r.ctx.Find(digraph.KindParam, digraph.Param(sig.Name, i).Name)
		if !ok {
			continue
		}
		r.edge(sig, param)
		r.relateParamType(param, p)
	}
	return sig, true
}

func (r *relater) relateParamType(param digraph.Vertex, p ast.Param) {
	if p.TypeHint == "" {
		return
	}
	if cls, ok := r.ctx.Find(digraph.KindClass, p.TypeHint); ok {
		r.edge(param, cls)
		return
	}
	if iface, ok := r.ctx.Find(digraph.KindInterface, p.TypeHint); ok {
		r.edge(param, iface)
	}
}

func (r *relater) relateClassMethod(tv digraph.Vertex, t *ast.TypeDecl, m *ast.MethodDecl) {
	sig, declared := r.relateSignature(tv, t.Name, m)
	if !m.HasBody() {
		return
	}
	impl, ok := r.ctx.Find(digraph.KindImpl, digraph.MemberName(t.Name, m.Name))
	if !ok {
		return
	}

	if declared {
		r.edge(sig, impl)
	} else {
		r.edge(tv, impl)
	}
	r.edge(impl, tv)

	// The body honors the parameters of the first declaration, wherever it is.
	declarer, name := firstDeclaration(r.hier, t.Name, m.Name)
	scope := digraph.MemberName(declarer, name)
	for i := range m.Params {
		if param, ok := r.ctx.Find(digraph.KindParam, digraph.Param(scope, i).Name); ok {
			r.edge(impl, param)
		}
	}

	r.relateBody(impl, t, m)
}

func (r *relater) relateTraitMethod(tv digraph.Vertex, t *ast.TypeDecl, m *ast.MethodDecl) {
	if !m.HasBody() {
		return
	}
	impl, ok := r.ctx.Find(digraph.KindImpl, digraph.MemberName(t.Name, m.Name))
	if !ok {
		return
	}
	r.edge(tv, impl)
	r.edge(impl, tv)
	for i, p := range m.Params {
		param, ok := r.ctx.Find(digraph.KindParam, digraph.Param(impl.Name, i).Name)
		if !ok {
			continue
		}
		r.edge(impl, param)
		r.relateParamType(param, p)
	}

	r.relateBody(impl, t, m)
}

// relateBody adds the call and instantiation edges of one body.
func (r *relater) relateBody(impl digraph.Vertex, t *ast.TypeDecl, m *ast.MethodDecl) {
	for _, call := range m.Calls {
		r.stats.Calls++
		for _, target := range r.callTargets(impl, t, call) {
			if r.ctx.IsExcluded(t.Name, m.Name, target.Name) {
				r.stats.ExcludedCalls++
				continue
			}
			r.edge(impl, target)
		}
	}

	for _, n := range m.News {
		cls, ok := r.ctx.Find(digraph.KindClass, n.Type)
		if !ok {
			r.stats.UnknownNews++
			r.logger.Debug("instantiation of unknown class skipped",
				"impl", impl.Name, "class", n.Type)
			continue
		}
		r.stats.Instantiations++
		r.edge(impl, cls)
	}
}

// callTargets resolves the vertices a call links to.
//
// When the receiver's type is known the call goes to the Method vertex of the
// first declaration, or to the Impl of the body provider when no signature
// vertex exists (a method only traits define). A call on the current object
// that lands inside the caller's own hierarchy adds nothing over the
// ownership edge and is dropped. Receivers of unknown type fall back to every
// Method vertex of that name.
func (r *relater) callTargets(impl digraph.Vertex, t *ast.TypeDecl, call ast.Call) []digraph.Vertex {
	typ, onSelf := r.receiverType(t, call)

	if typ != "" && r.hier.Known(typ) {
		if declarer, name, ok := r.hier.FirstDeclaration(typ, call.Method); ok {
			if onSelf && r.hier.InHierarchy(t.Name, declarer) {
				r.stats.SelfCalls++
				return nil
			}
			if sig, ok := r.ctx.Find(digraph.KindMethod, digraph.MemberName(declarer, name)); ok {
				return []digraph.Vertex{sig}
			}
			if provider, ok := r.hier.BodyProvider(declarer, name); ok {
				if body, ok := r.ctx.Find(digraph.KindImpl, digraph.MemberName(provider, name)); ok {
					return []digraph.Vertex{body}
				}
			}
			// Resolved to a method without a vertex, e.g. a private helper
			// of another type.
			r.stats.DanglingCalls++
			return nil
		}
	}

	candidates := r.ctx.FindAllMethodsNamed(call.Method)
	r.stats.FallbackCalls++
	r.logger.Debug("call target unresolved, linking every method of that name",
		"impl", impl.Name,
		"receiver", call.Receiver.String(),
		"type", typ,
		"method", call.Method,
		"candidates", len(candidates))
	return candidates
}

// receiverType returns the static type a call is made on and whether the
// receiver is the current object.
func (r *relater) receiverType(t *ast.TypeDecl, call ast.Call) (string, bool) {
	switch {
	case call.Receiver == ast.ReceiverParent:
		return t.Parent, true
	case call.Receiver.IsCurrentObject():
		return t.Name, true
	case call.Receiver == ast.ReceiverClass && strings.EqualFold(call.Type, t.Name):
		// class names are case-insensitive
		return t.Name, true
	case call.Receiver == ast.ReceiverClass, call.Receiver == ast.ReceiverVariable:
		return call.Type, false
	default:
		return "", false
	}
}
