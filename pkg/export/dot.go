package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/panbanda/mondrian/pkg/digraph"
)

type nodeStyle struct {
	shape string
	style string
	fill  string
}

var dotStyles = map[digraph.Kind]nodeStyle{
	digraph.KindClass:     {shape: "box", style: "filled", fill: "#ef9a9a"},
	digraph.KindInterface: {shape: "component", style: "filled", fill: "#a5d6a7"},
	digraph.KindTrait:     {shape: "hexagon", style: "filled", fill: "#ffcc80"},
	digraph.KindMethod:    {shape: "triangle", style: "filled", fill: "#fff59d"},
	digraph.KindImpl:      {shape: "box", style: "filled,rounded", fill: "#e0e0e0"},
	digraph.KindParam:     {shape: "diamond", style: "filled", fill: "#80deea"},
}

// dashed edges carry structural relations, solid ones behaviour
var dashedRelations = map[digraph.Relation]bool{
	digraph.RelImplements: true,
	digraph.RelExtends:    true,
	digraph.RelUses:       true,
	digraph.RelHonors:     true,
}

// WriteDot writes g as a Graphviz digraph.
func WriteDot(w io.Writer, g *digraph.Graph, o Options) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph %s {\n", dotQuote(o.Title))
	fmt.Fprintf(bw, "    rankdir=%s;\n", o.Layout)
	fmt.Fprintln(bw, "    node [fontname=\"Helvetica\", fontsize=10];")
	fmt.Fprintln(bw, "    edge [fontname=\"Helvetica\", fontsize=8];")

	for _, v := range g.Vertices() {
		s := dotStyles[v.Kind]
		fmt.Fprintf(bw, "    %s [label=%s, tooltip=%s, shape=%s, style=%q, fillcolor=%q];\n",
			NodeID(v), dotQuote(Label(v)), dotQuote(v.Name), s.shape, s.style, s.fill)
	}
	for _, e := range g.Edges() {
		rel := g.Classify(e)
		attrs := "tooltip=" + dotQuote(string(rel))
		if dashedRelations[rel] {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(bw, "    %s -> %s [%s];\n", NodeID(e.From), NodeID(e.To), attrs)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// dotQuote renders s as a double-quoted dot string. PHP namespace
// separators are backslashes, which dot treats as escapes.
func dotQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
