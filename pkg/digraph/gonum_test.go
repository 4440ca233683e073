package digraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGonum(t *testing.T) {
	g := New()
	a := g.AddVertex(Class("A"))
	b := g.AddVertex(Class("B"))
	m := g.AddVertex(Method("A", "run"))
	g.AddEdge(a, b)
	g.AddEdge(a, m)

	x := ToGonum(g, func(v Vertex) bool { return v.Kind == KindClass })
	assert.Equal(t, 2, x.Len())

	ida, ok := x.ID(a)
	require.True(t, ok)
	idb, ok := x.ID(b)
	require.True(t, ok)
	_, ok = x.ID(m)
	assert.False(t, ok)

	assert.True(t, x.Directed.HasEdgeFromTo(ida, idb))
	assert.Equal(t, b, x.Vertex(idb))
	assert.Equal(t, 1, x.Directed.Edges().Len())
}

func TestGonumCycles(t *testing.T) {
	g := New()
	a := g.AddVertex(Impl("A", "x"))
	b := g.AddVertex(Impl("B", "y"))
	c := g.AddVertex(Impl("C", "z"))
	g.AddEdge(a, b)
	g.AddEdge(b, a)
	g.AddEdge(b, c)
	g.AddEdge(c, c)

	cycles := ToGonum(g, nil).Cycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []Vertex{a, b}, cycles[0])
}

func TestFingerprintIgnoresInsertionOrder(t *testing.T) {
	g1 := New()
	g1.AddVertex(Class("A"))
	g1.AddVertex(Class("B"))
	g1.AddEdge(Class("A"), Class("B"))

	g2 := New()
	g2.AddVertex(Class("B"))
	g2.AddVertex(Class("A"))
	g2.AddEdge(Class("A"), Class("B"))

	assert.Equal(t, Fingerprint(g1), Fingerprint(g2))
	assert.Len(t, Fingerprint(g1), 64)

	g2.AddEdge(Class("B"), Class("A"))
	assert.NotEqual(t, Fingerprint(g1), Fingerprint(g2))
}
