package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/panbanda/mondrian/pkg/digraph"
)

var mermaidShapes = map[digraph.Kind][2]string{
	digraph.KindClass:     {"[", "]"},
	digraph.KindInterface: {"[[", "]]"},
	digraph.KindTrait:     {"{{", "}}"},
	digraph.KindMethod:    {"[/", "\\]"},
	digraph.KindImpl:      {"(", ")"},
	digraph.KindParam:     {"{", "}"},
}

// WriteMermaid writes g as a Mermaid flowchart.
func WriteMermaid(w io.Writer, g *digraph.Graph, o Options) error {
	dir := string(o.Layout)
	if o.Layout == LayoutTB {
		dir = "TD"
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "graph "+dir)
	for _, v := range g.Vertices() {
		shape := mermaidShapes[v.Kind]
		fmt.Fprintf(bw, "    %s%s\"%s\"%s\n", SanitizeMermaidID(NodeID(v)), shape[0], EscapeMermaidLabel(Label(v)), shape[1])
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "    %s %s %s\n", SanitizeMermaidID(NodeID(e.From)), edgeArrow(g.Classify(e)), SanitizeMermaidID(NodeID(e.To)))
	}
	return bw.Flush()
}

// edgeArrow returns the Mermaid arrow notation for a relation.
func edgeArrow(r digraph.Relation) string {
	switch r {
	case digraph.RelCalls, digraph.RelInstantiates:
		return "-->|" + string(r) + "|"
	case digraph.RelImplements, digraph.RelExtends, digraph.RelUses, digraph.RelHonors:
		return "-.->|" + string(r) + "|"
	case digraph.RelTypedAs:
		return "-.->"
	default:
		return "-->"
	}
}

// SanitizeMermaidID makes id a valid Mermaid node identifier.
func SanitizeMermaidID(id string) string {
	if id == "" {
		return "empty"
	}
	result := make([]byte, 0, len(id)+1)
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	if result[0] >= '0' && result[0] <= '9' {
		result = append([]byte{'n'}, result...)
	}
	return string(result)
}

// EscapeMermaidLabel escapes characters Mermaid treats as syntax in labels.
func EscapeMermaidLabel(s string) string {
	var result []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '&':
			result = append(result, "&amp;"...)
		case '"':
			result = append(result, "&quot;"...)
		case '<':
			result = append(result, "&lt;"...)
		case '>':
			result = append(result, "&gt;"...)
		case '|':
			result = append(result, "&#124;"...)
		case '[':
			result = append(result, "&#91;"...)
		case ']':
			result = append(result, "&#93;"...)
		case '{':
			result = append(result, "&#123;"...)
		case '}':
			result = append(result, "&#125;"...)
		case '\\':
			result = append(result, "&#92;"...)
		case '\n':
			result = append(result, "<br/>"...)
		default:
			result = append(result, c)
		}
	}
	return string(result)
}
