// Package export renders coupling graphs as Graphviz dot, SVG, JSON,
// Mermaid and TOON documents.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/mondrian/pkg/digraph"
)

var (
	// ErrUnknownFormat is returned for a format name no exporter handles.
	ErrUnknownFormat = errors.New("unknown graph format")
	// ErrGraphvizMissing is returned when the svg renderer cannot find a
	// working Graphviz installation.
	ErrGraphvizMissing = errors.New("graphviz is not installed")
)

// Format names an export format.
type Format string

const (
	FormatDot     Format = "dot"
	FormatSVG     Format = "svg"
	FormatJSON    Format = "json"
	FormatMermaid Format = "mermaid"
	FormatTOON    Format = "toon"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatDot, FormatSVG, FormatJSON, FormatMermaid, FormatTOON}
}

// ParseFormat converts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Layout is the rank direction of a rendered diagram.
type Layout string

const (
	LayoutLR Layout = "LR"
	LayoutRL Layout = "RL"
	LayoutTB Layout = "TB"
	LayoutBT Layout = "BT"
)

// Options configures an export.
type Options struct {
	Layout   Layout
	Title    string
	Graphviz string // dot executable used by the svg format
}

// Option configures Options.
type Option func(*Options)

// WithLayout sets the rank direction. Unknown values fall back to LR.
func WithLayout(l string) Option {
	return func(o *Options) {
		switch Layout(strings.ToUpper(l)) {
		case LayoutLR, LayoutRL, LayoutTB, LayoutBT:
			o.Layout = Layout(strings.ToUpper(l))
		default:
			o.Layout = LayoutLR
		}
	}
}

// WithTitle names the rendered graph.
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithGraphviz overrides the dot executable.
func WithGraphviz(path string) Option {
	return func(o *Options) {
		o.Graphviz = path
	}
}

func newOptions(opts []Option) Options {
	o := Options{Layout: LayoutLR, Title: "mondrian", Graphviz: "dot"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Export writes g to w in the given format.
func Export(ctx context.Context, w io.Writer, g *digraph.Graph, format Format, opts ...Option) error {
	o := newOptions(opts)
	switch format {
	case FormatDot:
		return WriteDot(w, g, o)
	case FormatSVG:
		return WriteSVG(ctx, w, g, o)
	case FormatJSON:
		return WriteJSON(w, g)
	case FormatMermaid:
		return WriteMermaid(w, g, o)
	case FormatTOON:
		return WriteTOON(w, g)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// NodeID returns a short stable identifier for v.
func NodeID(v digraph.Vertex) string {
	return fmt.Sprintf("n%016x", xxhash.Sum64String(v.Kind.String()+"|"+v.Name))
}

// Label returns the short display name of v: the unqualified type name for
// types, the member name for methods and bodies and "#N" for parameters.
func Label(v digraph.Vertex) string {
	switch v.Kind {
	case digraph.KindMethod, digraph.KindImpl:
		if _, member, ok := strings.Cut(v.Name, "::"); ok {
			return member
		}
	case digraph.KindParam:
		if i := strings.LastIndexByte(v.Name, '/'); i >= 0 {
			return "#" + v.Name[i+1:]
		}
	default:
		if i := strings.LastIndexByte(v.Name, '\\'); i >= 0 {
			return v.Name[i+1:]
		}
	}
	return v.Name
}
