package grapher

import (
	"sort"
	"strings"

	"github.com/panbanda/mondrian/pkg/digraph"
)

// Context indexes the vertices of the graph under construction by kind and
// name, and carries the call exclusions. The declaration pass writes it, the
// relationship pass reads it and adds edges; passes never run concurrently.
type Context struct {
	graph      *digraph.Graph
	index      map[digraph.Kind]map[string]digraph.Vertex
	byMethod   map[string][]digraph.Vertex
	exclusions map[string]map[string]struct{}
}

// NewContext creates a context writing to g. exclusions maps "Type::method"
// to the callee names ("Type::method") that calls from it must not link to.
func NewContext(g *digraph.Graph, exclusions map[string][]string) *Context {
	c := &Context{
		graph:      g,
		index:      make(map[digraph.Kind]map[string]digraph.Vertex, len(digraph.Kinds)),
		byMethod:   make(map[string][]digraph.Vertex),
		exclusions: make(map[string]map[string]struct{}, len(exclusions)),
	}
	for _, k := range digraph.Kinds {
		c.index[k] = make(map[string]digraph.Vertex)
	}
	for caller, callees := range exclusions {
		set := make(map[string]struct{}, len(callees))
		for _, callee := range callees {
			set[callee] = struct{}{}
		}
		c.exclusions[caller] = set
	}
	return c
}

// Graph returns the graph the context writes to.
func (c *Context) Graph() *digraph.Graph {
	return c.graph
}

// Find returns the vertex of the given kind and name.
func (c *Context) Find(kind digraph.Kind, name string) (digraph.Vertex, bool) {
	v, ok := c.index[kind][name]
	return v, ok
}

// Exists reports whether a vertex of the given kind and name is indexed.
func (c *Context) Exists(kind digraph.Kind, name string) bool {
	_, ok := c.index[kind][name]
	return ok
}

// Register adds v to the graph and the index. Registering an indexed vertex
// again is a no-op returning the indexed one.
func (c *Context) Register(v digraph.Vertex) digraph.Vertex {
	if existing, ok := c.index[v.Kind][v.Name]; ok {
		return existing
	}
	v = c.graph.AddVertex(v)
	c.index[v.Kind][v.Name] = v
	if v.Kind == digraph.KindMethod {
		key := methodPart(v.Name)
		c.byMethod[key] = append(c.byMethod[key], v)
	}
	return v
}

// FindAllMethodsNamed returns every Method vertex for a method of that name,
// whatever its declaring type, in registration order.
func (c *Context) FindAllMethodsNamed(method string) []digraph.Vertex {
	found := c.byMethod[strings.ToLower(method)]
	out := make([]digraph.Vertex, len(found))
	copy(out, found)
	return out
}

// ExcludedCallees returns the callee names excluded for calls made from
// typ::method, sorted.
func (c *Context) ExcludedCallees(typ, method string) []string {
	set := c.exclusions[digraph.MemberName(typ, method)]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for callee := range set {
		out = append(out, callee)
	}
	sort.Strings(out)
	return out
}

// IsExcluded reports whether calls from typ::method to callee are excluded.
func (c *Context) IsExcluded(typ, method, callee string) bool {
	_, ok := c.exclusions[digraph.MemberName(typ, method)][callee]
	return ok
}

// methodPart returns the lower-cased method part of "Type::method".
func methodPart(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return strings.ToLower(name)
}
