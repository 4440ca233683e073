package digraph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Gonum is a gonum view of a Graph with stable int64 node ids.
type Gonum struct {
	Directed *simple.DirectedGraph
	ids      map[Vertex]int64
	vertices []Vertex
}

// ToGonum converts g into a gonum directed graph. Only vertices accepted by
// keep are included (nil keeps everything), and only edges whose endpoints are
// both kept. Self-loops are dropped since simple graphs reject them.
func ToGonum(g *Graph, keep func(Vertex) bool) *Gonum {
	out := &Gonum{
		Directed: simple.NewDirectedGraph(),
		ids:      make(map[Vertex]int64),
	}

	for _, v := range g.vertices {
		if keep != nil && !keep(v) {
			continue
		}
		id := int64(len(out.vertices))
		out.ids[v] = id
		out.vertices = append(out.vertices, v)
		out.Directed.AddNode(simple.Node(id))
	}

	for _, e := range g.edges {
		fromID, fromOK := out.ids[e.From]
		toID, toOK := out.ids[e.To]
		if fromOK && toOK && fromID != toID {
			out.Directed.SetEdge(simple.Edge{F: simple.Node(fromID), T: simple.Node(toID)})
		}
	}

	return out
}

// ID returns the gonum id of v.
func (x *Gonum) ID(v Vertex) (int64, bool) {
	id, ok := x.ids[v]
	return id, ok
}

// Vertex returns the vertex behind a gonum id.
func (x *Gonum) Vertex(id int64) Vertex {
	return x.vertices[id]
}

// Len returns the number of nodes in the view.
func (x *Gonum) Len() int {
	return len(x.vertices)
}

// Cycles returns the strongly connected components of more than one vertex.
// Vertices within a component, and components by their first vertex, follow
// insertion order.
func (x *Gonum) Cycles() [][]Vertex {
	var sccs [][]int64
	for _, scc := range topo.TarjanSCC(x.Directed) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]int64, len(scc))
		for i, n := range scc {
			ids[i] = n.ID()
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		sccs = append(sccs, ids)
	}
	sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })

	cycles := make([][]Vertex, len(sccs))
	for i, ids := range sccs {
		cycles[i] = make([]Vertex, len(ids))
		for j, id := range ids {
			cycles[i][j] = x.vertices[id]
		}
	}
	return cycles
}
