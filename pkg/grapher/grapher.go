// Package grapher turns declaration trees into a coupling graph.
//
// A run makes three full passes over the same files, in the caller's order:
// hierarchy resolution, declaration (vertices) and relationship (edges). Each
// pass needs the complete result of the previous one across all files, so
// they cannot be fused or streamed. The result depends only on the files and
// the exclusions; file order only changes insertion order.
package grapher

import (
	"log/slog"

	"github.com/panbanda/mondrian/pkg/ast"
	"github.com/panbanda/mondrian/pkg/digraph"
	"github.com/panbanda/mondrian/pkg/hierarchy"
)

// Grapher builds coupling graphs. A Grapher holds no per-run state and may be
// reused; every Build starts from an empty graph.
type Grapher struct {
	logger     *slog.Logger
	exclusions map[string][]string
}

// Option is a functional option for configuring a Grapher.
type Option func(*Grapher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Grapher) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithExclusions sets the calls to ignore: "Type::method" maps to the callee
// names ("Type::method") its body must not link to.
func WithExclusions(exclusions map[string][]string) Option {
	return func(g *Grapher) {
		g.exclusions = exclusions
	}
}

// New creates a Grapher.
func New(opts ...Option) *Grapher {
	g := &Grapher{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result is the outcome of one run.
type Result struct {
	Graph     *digraph.Graph
	Hierarchy *hierarchy.Map
	Stats     Stats
}

// Build runs the three passes and returns the graph.
func (g *Grapher) Build(files []*ast.File) *digraph.Graph {
	return g.Run(files).Graph
}

// Run runs the three passes and returns the graph with the hierarchy map and
// call statistics.
func (g *Grapher) Run(files []*ast.File) *Result {
	hier := hierarchy.Resolve(files)
	g.logger.Debug("hierarchy resolved", "files", len(files), "types", len(hier.Types()))
	for _, name := range hier.Duplicates() {
		g.logger.Warn("type declared more than once, keeping the first declaration", "type", name)
	}
	for _, cycle := range hier.Cycles() {
		g.logger.Warn("cyclic inheritance, walks are truncated at the first revisit", "types", cycle)
	}

	graph := digraph.New()
	ctx := NewContext(graph, g.exclusions)

	Declare(ctx, hier, files)
	g.logger.Debug("declaration pass complete", "vertices", graph.Order())

	stats := Relate(ctx, hier, files, g.logger)
	g.logger.Debug("relationship pass complete",
		"edges", graph.Size(),
		"calls", stats.Calls,
		"self_calls_filtered", stats.SelfCalls,
		"excluded_calls", stats.ExcludedCalls,
		"fallback_calls", stats.FallbackCalls)

	return &Result{Graph: graph, Hierarchy: hier, Stats: stats}
}
