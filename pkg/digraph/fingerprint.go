package digraph

import (
	"encoding/hex"
	"io"
	"sort"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a digest of the vertex and edge sets of g. Two graphs
// with the same content have the same fingerprint regardless of insertion
// order.
func Fingerprint(g *Graph) string {
	vertices := g.Vertices()
	sort.Slice(vertices, func(i, j int) bool { return lessVertex(vertices[i], vertices[j]) })

	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return lessVertex(edges[i].From, edges[j].From)
		}
		return lessVertex(edges[i].To, edges[j].To)
	})

	h := blake3.New()
	for _, v := range vertices {
		writeVertex(h, v)
		io.WriteString(h, "\n")
	}
	io.WriteString(h, "--\n")
	for _, e := range edges {
		writeVertex(h, e.From)
		io.WriteString(h, "\t")
		writeVertex(h, e.To)
		io.WriteString(h, "\n")
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeVertex(w io.Writer, v Vertex) {
	io.WriteString(w, v.Kind.String())
	io.WriteString(w, "\x00")
	io.WriteString(w, v.Name)
}

func lessVertex(a, b Vertex) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Name < b.Name
}
