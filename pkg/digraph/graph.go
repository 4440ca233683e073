package digraph

import "fmt"

// Edge is a directed pair of vertices.
type Edge struct {
	From Vertex `json:"from" toon:"from"`
	To   Vertex `json:"to" toon:"to"`
}

// String renders the edge as From -> To.
func (e Edge) String() string {
	return e.From.String() + " -> " + e.To.String()
}

// Graph is an append-only directed graph without multi-edges.
// It is not safe for concurrent mutation.
type Graph struct {
	vertices []Vertex
	index    map[Vertex]int
	edges    []Edge
	edgeSet  map[Edge]struct{}
	succ     map[Vertex][]Vertex
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:   make(map[Vertex]int),
		edgeSet: make(map[Edge]struct{}),
		succ:    make(map[Vertex][]Vertex),
	}
}

// AddVertex inserts v if absent and returns the stored vertex.
func (g *Graph) AddVertex(v Vertex) Vertex {
	if i, ok := g.index[v]; ok {
		return g.vertices[i]
	}
	g.index[v] = len(g.vertices)
	g.vertices = append(g.vertices, v)
	return v
}

// AddEdge inserts the edge from -> to if absent. Both endpoints must already
// be vertices of the graph; a missing endpoint is a caller bug and panics.
func (g *Graph) AddEdge(from, to Vertex) {
	if _, ok := g.index[from]; !ok {
		panic(fmt.Sprintf("digraph: edge source %s is not a vertex", from))
	}
	if _, ok := g.index[to]; !ok {
		panic(fmt.Sprintf("digraph: edge target %s is not a vertex", to))
	}
	e := Edge{From: from, To: to}
	if _, ok := g.edgeSet[e]; ok {
		return
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.succ[from] = append(g.succ[from], to)
}

// HasVertex reports whether v is in the graph.
func (g *Graph) HasVertex(v Vertex) bool {
	_, ok := g.index[v]
	return ok
}

// Vertices returns all vertices in insertion order.
func (g *Graph) Vertices() []Vertex {
	out := make([]Vertex, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Successors returns the direct targets of v in insertion order.
func (g *Graph) Successors(v Vertex) []Vertex {
	out := make([]Vertex, len(g.succ[v]))
	copy(out, g.succ[v])
	return out
}

// SearchEdge returns the edge from -> to when it exists.
func (g *Graph) SearchEdge(from, to Vertex) (Edge, bool) {
	e := Edge{From: from, To: to}
	_, ok := g.edgeSet[e]
	return e, ok
}

// Order returns the number of vertices.
func (g *Graph) Order() int {
	return len(g.vertices)
}

// Size returns the number of edges.
func (g *Graph) Size() int {
	return len(g.edges)
}

// VerticesOf returns the vertices of kind k in insertion order.
func (g *Graph) VerticesOf(k Kind) []Vertex {
	var out []Vertex
	for _, v := range g.vertices {
		if v.Kind == k {
			out = append(out, v)
		}
	}
	return out
}
