package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/mondrian/internal/output"
	"github.com/panbanda/mondrian/internal/service/analysis"
	scannerSvc "github.com/panbanda/mondrian/internal/service/scanner"
	"github.com/panbanda/mondrian/pkg/analyzer/metrics"
	"github.com/panbanda/mondrian/pkg/digraph"
	"github.com/panbanda/mondrian/pkg/export"
	"github.com/panbanda/mondrian/pkg/grapher"
	toon "github.com/toon-format/toon-go"
)

// AnalyzeInput is the base input for all tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Files or directories to graph. Defaults to current directory if empty."`
	Ref    string   `json:"ref,omitempty" jsonschema:"Git revision to graph instead of the working tree, e.g. HEAD~3 or a branch name."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// GraphInput selects the export format of build_graph.
type GraphInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Files or directories to graph. Defaults to current directory if empty."`
	Ref    string   `json:"ref,omitempty" jsonschema:"Git revision to graph instead of the working tree."`
	Format string   `json:"format,omitempty" jsonschema:"Graph format: json (default), toon, dot, or mermaid."`
	Layout string   `json:"layout,omitempty" jsonschema:"Layout direction for dot and mermaid: LR (default), RL, TB, or BT."`
}

// MetricsInput adds metrics options.
type MetricsInput struct {
	AnalyzeInput
	Top int `json:"top,omitempty" jsonschema:"Number of most central vertices to report. Default 10."`
}

// SuccessorsInput names the vertex to expand.
type SuccessorsInput struct {
	AnalyzeInput
	Kind string `json:"kind" jsonschema:"Vertex kind: Class, Interface, Trait, Method, Impl, or Param."`
	Name string `json:"name" jsonschema:"Vertex name: a fully qualified type, Type::method for Method and Impl, Type::method/N for Param."`
}

func getPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return textResult(text), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// buildGraph scans and graphs paths, from the working tree or from ref.
func (s *Server) buildGraph(ctx context.Context, paths []string, ref string) (*analysis.GraphResult, error) {
	cfg := s.effectiveConfig()
	scanner := scannerSvc.New(scannerSvc.WithConfig(cfg))

	var (
		scanResult *scannerSvc.ScanResult
		err        error
	)
	if ref != "" {
		scanResult, err = scanner.ScanRevision(ref, getPaths(paths))
	} else {
		scanResult, err = scanner.ScanPaths(getPaths(paths))
	}
	if err != nil {
		return nil, err
	}
	if len(scanResult.Files) == 0 {
		return nil, fmt.Errorf("no PHP files found")
	}

	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(s.logger))
	return svc.BuildGraph(ctx, scanResult.Files, analysis.GraphOptions{Source: scanResult.Source})
}

func (s *Server) handleBuildGraph(ctx context.Context, req *mcp.CallToolRequest, input GraphInput) (*mcp.CallToolResult, any, error) {
	format := export.FormatJSON
	if input.Format != "" {
		f, err := export.ParseFormat(input.Format)
		if err != nil || f == export.FormatSVG {
			return toolError(fmt.Sprintf("unsupported graph format %q", input.Format))
		}
		format = f
	}

	result, err := s.buildGraph(ctx, input.Paths, input.Ref)
	if err != nil {
		return toolError(err.Error())
	}

	var buf bytes.Buffer
	if err := export.Export(ctx, &buf, result.Graph, format, export.WithLayout(input.Layout)); err != nil {
		return toolError(err.Error())
	}
	return textResult(buf.String()), nil, nil
}

// MetricsResult is the output of code_metrics.
type MetricsResult struct {
	Files   int             `json:"files" toon:"files"`
	Partial []string        `json:"partial,omitempty" toon:"partial,omitempty"`
	Failed  []string        `json:"failed,omitempty" toon:"failed,omitempty"`
	Stats   grapher.Stats   `json:"stats" toon:"stats"`
	Report  *metrics.Report `json:"metrics" toon:"metrics"`
}

func (s *Server) handleCodeMetrics(ctx context.Context, req *mcp.CallToolRequest, input MetricsInput) (*mcp.CallToolResult, any, error) {
	result, err := s.buildGraph(ctx, input.Paths, input.Ref)
	if err != nil {
		return toolError(err.Error())
	}

	top := input.Top
	if top <= 0 {
		top = metrics.DefaultTop
	}
	out := MetricsResult{
		Files:   len(result.Files),
		Partial: result.Partial,
		Stats:   result.Stats,
		Report:  metrics.Analyze(result.Graph, metrics.WithTop(top)),
	}
	if result.Errors.HasErrors() {
		for _, pe := range result.Errors.Errors {
			out.Failed = append(out.Failed, pe.Path)
		}
	}
	return toolResult(out, getFormat(input.AnalyzeInput))
}

// Successor is an outgoing edge of the queried vertex.
type Successor struct {
	Kind     string `json:"kind" toon:"kind"`
	Name     string `json:"name" toon:"name"`
	Relation string `json:"relation" toon:"relation"`
}

// SuccessorsResult is the output of vertex_successors.
type SuccessorsResult struct {
	Vertex     string      `json:"vertex" toon:"vertex"`
	Successors []Successor `json:"successors" toon:"successors"`
}

func (s *Server) handleVertexSuccessors(ctx context.Context, req *mcp.CallToolRequest, input SuccessorsInput) (*mcp.CallToolResult, any, error) {
	kind, ok := digraph.ParseKind(input.Kind)
	if !ok {
		return toolError(fmt.Sprintf("unknown vertex kind %q", input.Kind))
	}
	if input.Name == "" {
		return toolError("vertex name is required")
	}
	v := digraph.Vertex{Kind: kind, Name: strings.TrimPrefix(input.Name, `\`)}

	result, err := s.buildGraph(ctx, input.Paths, input.Ref)
	if err != nil {
		return toolError(err.Error())
	}
	g := result.Graph
	if !g.HasVertex(v) {
		return toolError(fmt.Sprintf("vertex %s not found", v))
	}

	out := SuccessorsResult{Vertex: v.String(), Successors: []Successor{}}
	for _, succ := range g.Successors(v) {
		e, _ := g.SearchEdge(v, succ)
		out.Successors = append(out.Successors, Successor{
			Kind:     succ.Kind.String(),
			Name:     succ.Name,
			Relation: string(g.Classify(e)),
		})
	}
	return toolResult(out, getFormat(input.AnalyzeInput))
}
