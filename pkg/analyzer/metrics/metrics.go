// Package metrics computes code metrics over a coupling graph: vertex
// counts, where methods are first declared, centrality, cycles and how far
// each class reaches into the rest of the code.
//
// Bad coding practices give bad metrics, but good metrics do not prove good
// code. A project where half the types are interfaces still couples tightly
// if method parameters are typed with classes. Use the graph itself to find
// where the coupling is.
package metrics

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/mondrian/pkg/digraph"
	"gonum.org/v1/gonum/graph/network"
)

// DefaultTop is the number of vertices reported by centrality.
const DefaultTop = 10

// Declarations counts Method vertices per kind of their declaring type.
type Declarations struct {
	Class     int `json:"class" toon:"class"`
	Interface int `json:"interface" toon:"interface"`
	Trait     int `json:"trait" toon:"trait"`
}

// Cardinals counts vertices per kind. MethodDeclaration tells where methods
// are first declared: few first declarations in classes means the concrete
// classes can be decoupled behind interfaces.
type Cardinals struct {
	Class             int          `json:"class" toon:"class"`
	Interface         int          `json:"interface" toon:"interface"`
	Trait             int          `json:"trait" toon:"trait"`
	Impl              int          `json:"impl" toon:"impl"`
	Method            int          `json:"method" toon:"method"`
	Param             int          `json:"param" toon:"param"`
	MethodDeclaration Declarations `json:"method_declaration" toon:"method_declaration"`
}

// Count returns the cardinals of g.
func Count(g *digraph.Graph) Cardinals {
	var c Cardinals
	for _, v := range g.Vertices() {
		switch v.Kind {
		case digraph.KindClass:
			c.Class++
		case digraph.KindInterface:
			c.Interface++
		case digraph.KindTrait:
			c.Trait++
		case digraph.KindImpl:
			c.Impl++
		case digraph.KindMethod:
			c.Method++
		case digraph.KindParam:
			c.Param++
		}
		if !v.Kind.IsType() {
			continue
		}
		for _, succ := range g.Successors(v) {
			if succ.Kind != digraph.KindMethod {
				continue
			}
			switch v.Kind {
			case digraph.KindClass:
				c.MethodDeclaration.Class++
			case digraph.KindInterface:
				c.MethodDeclaration.Interface++
			case digraph.KindTrait:
				c.MethodDeclaration.Trait++
			}
		}
	}
	return c
}

// Rank is a vertex with its centrality score.
type Rank struct {
	Vertex digraph.Vertex `json:"vertex" toon:"vertex"`
	Score  float64        `json:"score" toon:"score"`
}

// Centrality returns the top vertices of g by PageRank, highest first. Ties
// break on the vertex name. top <= 0 returns every vertex.
func Centrality(g *digraph.Graph, top int) []Rank {
	x := digraph.ToGonum(g, nil)
	if x.Len() == 0 {
		return nil
	}
	scores := network.PageRank(x.Directed, 0.85, 1e-6)

	ranks := make([]Rank, 0, x.Len())
	for id, score := range scores {
		ranks = append(ranks, Rank{Vertex: x.Vertex(id), Score: score})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Score != ranks[j].Score {
			return ranks[i].Score > ranks[j].Score
		}
		return ranks[i].Vertex.String() < ranks[j].Vertex.String()
	})
	if top > 0 && len(ranks) > top {
		ranks = ranks[:top]
	}
	return ranks
}

// HierarchyCycles returns the groups of types that transitively extend,
// implement or use one another.
func HierarchyCycles(g *digraph.Graph) [][]digraph.Vertex {
	return digraph.ToGonum(g, func(v digraph.Vertex) bool { return v.Kind.IsType() }).Cycles()
}

// CallCycles returns the groups of implementations calling one another
// through method signatures.
func CallCycles(g *digraph.Graph) [][]digraph.Vertex {
	return digraph.ToGonum(g, func(v digraph.Vertex) bool {
		return v.Kind == digraph.KindImpl || v.Kind == digraph.KindMethod
	}).Cycles()
}

// Reach is the number of classes and interfaces a class depends on,
// directly or transitively, through any edge of the graph.
type Reach struct {
	Class string `json:"class" toon:"class"`
	Types int    `json:"types" toon:"types"`
}

// CouplingReach returns the reach of every class, largest first.
func CouplingReach(g *digraph.Graph) []Reach {
	x := digraph.ToGonum(g, nil)

	types := roaring.New()
	for id := range x.Len() {
		if k := x.Vertex(int64(id)).Kind; k == digraph.KindClass || k == digraph.KindInterface {
			types.Add(uint32(id))
		}
	}

	var out []Reach
	it := types.Iterator()
	for it.HasNext() {
		start := it.Next()
		v := x.Vertex(int64(start))
		if v.Kind != digraph.KindClass {
			continue
		}

		seen := roaring.New()
		seen.Add(start)
		queue := []int64{int64(start)}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for succ := x.Directed.From(id); succ.Next(); {
				next := succ.Node().ID()
				if seen.CheckedAdd(uint32(next)) {
					queue = append(queue, next)
				}
			}
		}
		seen.Remove(start)
		out = append(out, Reach{Class: v.Name, Types: int(roaring.And(seen, types).GetCardinality())})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Types != out[j].Types {
			return out[i].Types > out[j].Types
		}
		return out[i].Class < out[j].Class
	})
	return out
}

// Report aggregates every metric of a graph.
type Report struct {
	Cardinals       Cardinals          `json:"cardinals" toon:"cardinals"`
	Centrality      []Rank             `json:"centrality" toon:"centrality"`
	HierarchyCycles [][]digraph.Vertex `json:"hierarchy_cycles" toon:"hierarchy_cycles"`
	CallCycles      [][]digraph.Vertex `json:"call_cycles" toon:"call_cycles"`
	Reach           []Reach            `json:"reach" toon:"reach"`
}

// Option configures Analyze.
type Option func(*options)

type options struct {
	top int
}

// WithTop sets how many vertices centrality reports.
func WithTop(n int) Option {
	return func(o *options) { o.top = n }
}

// Analyze computes the full report for g.
func Analyze(g *digraph.Graph, opts ...Option) *Report {
	o := &options{top: DefaultTop}
	for _, opt := range opts {
		opt(o)
	}
	return &Report{
		Cardinals:       Count(g),
		Centrality:      Centrality(g, o.top),
		HierarchyCycles: HierarchyCycles(g),
		CallCycles:      CallCycles(g),
		Reach:           CouplingReach(g),
	}
}
