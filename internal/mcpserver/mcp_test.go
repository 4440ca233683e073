package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/mondrian/internal/output"
	"github.com/panbanda/mondrian/pkg/config"
	"github.com/panbanda/mondrian/pkg/digraph"
	"github.com/panbanda/mondrian/pkg/export"
)

const fixtureRepo = `<?php
namespace App;

interface Repo
{
    public function find($id);
}
`

const fixtureService = `<?php
namespace App;

class Service implements Repo
{
    public function find($id)
    {
        return $this->load($id);
    }

    public function run(Repo $repo)
    {
        return $repo->find(1);
    }

    private function load($id) {}
}
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{"Repo.php": fixtureRepo, "Service.php": fixtureService} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
	}
	return dir
}

func newTestServer() *Server {
	return NewServer("1.0.0-test", WithConfig(config.DefaultConfig()))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("nil result")
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent: %T", result.Content[0])
	}
	return text.Text
}

func TestServerCreation(t *testing.T) {
	server := NewServer("1.0.0-test")
	if server == nil || server.server == nil {
		t.Fatal("NewServer() returned nil")
	}
	if server.logger == nil {
		t.Error("logger should default to a discarding logger")
	}
	if NewServer("") == nil {
		t.Fatal("NewServer(\"\") returned nil")
	}
}

func TestToolDescriptions(t *testing.T) {
	descriptions := map[string]func() string{
		"build_graph":       describeBuildGraph,
		"code_metrics":      describeCodeMetrics,
		"vertex_successors": describeVertexSuccessors,
	}
	for name, fn := range descriptions {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			for _, section := range []string{"USE WHEN:", "INTERPRETING RESULTS:", "METRICS RETURNED:"} {
				if !strings.Contains(desc, section) {
					t.Errorf("%s description missing %s section", name, section)
				}
			}
		})
	}
}

func TestGetPaths(t *testing.T) {
	if got := getPaths(nil); len(got) != 1 || got[0] != "." {
		t.Errorf("getPaths(nil) = %v, want [.]", got)
	}
	if got := getPaths([]string{"/a", "/b"}); len(got) != 2 || got[1] != "/b" {
		t.Errorf("getPaths() = %v", got)
	}
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected output.Format
	}{
		{"", output.FormatTOON},
		{"json", output.FormatJSON},
		{"markdown", output.FormatMarkdown},
		{"md", output.FormatMarkdown},
		{"toon", output.FormatTOON},
		{"xml", output.FormatTOON},
	}
	for _, tt := range tests {
		if got := getFormat(AnalyzeInput{Format: tt.format}); got != tt.expected {
			t.Errorf("getFormat(%q) = %v, want %v", tt.format, got, tt.expected)
		}
	}
}

func TestToolError(t *testing.T) {
	result, _, err := toolError("test error message")
	if err != nil {
		t.Fatalf("toolError returned unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("toolError result.IsError should be true")
	}
	if got := resultText(t, result); got != "Error: test error message" {
		t.Errorf("toolError text = %q", got)
	}
}

func TestToolResult(t *testing.T) {
	data := map[string]any{"key": "value"}

	result, _, err := toolResult(data, output.FormatJSON)
	if err != nil {
		t.Fatalf("toolResult returned error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &decoded); err != nil {
		t.Fatalf("json output does not decode: %v", err)
	}

	result, _, err = toolResult(data, output.FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, result); !strings.HasPrefix(text, "```\n") {
		t.Errorf("markdown output not fenced: %q", text)
	}
}

func TestHandleBuildGraph(t *testing.T) {
	dir := writeFixture(t)
	s := newTestServer()

	result, _, err := s.handleBuildGraph(context.Background(), nil, GraphInput{Paths: []string{dir}})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("build_graph failed: %s", resultText(t, result))
	}
	var doc export.Document
	if err := json.Unmarshal([]byte(resultText(t, result)), &doc); err != nil {
		t.Fatalf("default format should be json: %v", err)
	}
	if doc.Order == 0 || doc.Size == 0 {
		t.Errorf("empty graph: %+v", doc)
	}

	result, _, _ = s.handleBuildGraph(context.Background(), nil, GraphInput{Paths: []string{dir}, Format: "mermaid", Layout: "TB"})
	if text := resultText(t, result); !strings.HasPrefix(text, "graph TD\n") {
		t.Errorf("mermaid output = %q", text)
	}
}

func TestHandleBuildGraph_Errors(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name  string
		input GraphInput
		want  string
	}{
		{"svg is not served", GraphInput{Paths: []string{writeFixture(t)}, Format: "svg"}, "unsupported graph format"},
		{"unknown format", GraphInput{Paths: []string{writeFixture(t)}, Format: "png"}, "unsupported graph format"},
		{"no php files", GraphInput{Paths: []string{t.TempDir()}}, "no PHP files found"},
		{"missing path", GraphInput{Paths: []string{filepath.Join(t.TempDir(), "gone")}}, "gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := s.handleBuildGraph(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if !result.IsError {
				t.Fatal("expected an error result")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("error %q does not mention %q", text, tt.want)
			}
		})
	}
}

func TestHandleCodeMetrics(t *testing.T) {
	s := newTestServer()
	input := MetricsInput{AnalyzeInput: AnalyzeInput{Paths: []string{writeFixture(t)}, Format: "json"}, Top: 2}

	result, _, err := s.handleCodeMetrics(context.Background(), nil, input)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("code_metrics failed: %s", resultText(t, result))
	}

	var out struct {
		Files   int `json:"files"`
		Metrics struct {
			Cardinals struct {
				Class     int `json:"class"`
				Interface int `json:"interface"`
			} `json:"cardinals"`
			Centrality []json.RawMessage `json:"centrality"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Files != 2 {
		t.Errorf("files = %d, want 2", out.Files)
	}
	if out.Metrics.Cardinals.Class != 1 || out.Metrics.Cardinals.Interface != 1 {
		t.Errorf("cardinals = %+v", out.Metrics.Cardinals)
	}
	if len(out.Metrics.Centrality) != 2 {
		t.Errorf("centrality has %d entries, want 2", len(out.Metrics.Centrality))
	}
}

func TestHandleVertexSuccessors(t *testing.T) {
	s := newTestServer()
	input := SuccessorsInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{writeFixture(t)}, Format: "json"},
		Kind:         "Impl",
		Name:         `\App\Service::run`,
	}

	result, _, err := s.handleVertexSuccessors(context.Background(), nil, input)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("vertex_successors failed: %s", resultText(t, result))
	}

	var out SuccessorsResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Vertex != digraph.Impl(`App\Service`, "run").String() {
		t.Errorf("vertex = %q", out.Vertex)
	}
	relations := make(map[string]string)
	for _, succ := range out.Successors {
		relations[succ.Relation] = succ.Name
	}
	if relations[string(digraph.RelOwnedBy)] != `App\Service` {
		t.Errorf("missing owned_by edge: %+v", out.Successors)
	}
	if relations[string(digraph.RelCalls)] != `App\Repo::find` {
		t.Errorf("missing calls edge: %+v", out.Successors)
	}
}

func TestHandleVertexSuccessors_DefaultFormat(t *testing.T) {
	s := newTestServer()
	input := SuccessorsInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{writeFixture(t)}},
		Kind:         "Impl",
		Name:         `App\Service::run`,
	}

	result, _, err := s.handleVertexSuccessors(context.Background(), nil, input)
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("vertex_successors failed: %s", text)
	}
	for _, want := range []string{string(digraph.RelOwnedBy), string(digraph.RelCalls), "find"} {
		if !strings.Contains(text, want) {
			t.Errorf("toon output missing %q:\n%s", want, text)
		}
	}
}

func TestHandleVertexSuccessors_Errors(t *testing.T) {
	s := newTestServer()
	dir := writeFixture(t)

	tests := []struct {
		name  string
		input SuccessorsInput
		want  string
	}{
		{"bad kind", SuccessorsInput{AnalyzeInput: AnalyzeInput{Paths: []string{dir}}, Kind: "Function", Name: "x"}, "unknown vertex kind"},
		{"empty name", SuccessorsInput{AnalyzeInput: AnalyzeInput{Paths: []string{dir}}, Kind: "Class"}, "name is required"},
		{"private method has no vertex", SuccessorsInput{AnalyzeInput: AnalyzeInput{Paths: []string{dir}}, Kind: "Impl", Name: `App\Service::load`}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := s.handleVertexSuccessors(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if !result.IsError || !strings.Contains(resultText(t, result), tt.want) {
				t.Errorf("result = %q, want error mentioning %q", resultText(t, result), tt.want)
			}
		})
	}
}

func TestParseFrontmatter(t *testing.T) {
	desc, body := parseFrontmatter([]byte("---\ndescription: Say hi\n---\n\nHello\n"))
	if desc != "Say hi" || body != "Hello\n" {
		t.Errorf("parseFrontmatter() = %q, %q", desc, body)
	}

	desc, body = parseFrontmatter([]byte("no header"))
	if desc != "" || body != "no header" {
		t.Errorf("parseFrontmatter() without header = %q, %q", desc, body)
	}

	raw := "---\ndescription: [broken\n---\nbody"
	if desc, body := parseFrontmatter([]byte(raw)); desc != "" || body != raw {
		t.Errorf("invalid yaml should leave content as body, got %q, %q", desc, body)
	}
}

func TestLoadPrompts(t *testing.T) {
	prompts := loadPrompts()
	if len(prompts) == 0 {
		t.Fatal("no embedded prompts")
	}
	for _, p := range prompts {
		if p.description == "" {
			t.Errorf("prompt %s has no description", p.name)
		}
		if strings.HasPrefix(p.body, "---") {
			t.Errorf("prompt %s body still carries its header", p.name)
		}
	}
}

func TestPromptHandler(t *testing.T) {
	handler := makePromptHandler("desc", "body text")
	result, err := handler(context.Background(), &mcp.GetPromptRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Description != "desc" || len(result.Messages) != 1 {
		t.Fatalf("unexpected prompt result: %+v", result)
	}
	if text := result.Messages[0].Content.(*mcp.TextContent).Text; text != "body text" {
		t.Errorf("message text = %q", text)
	}
}

func TestSessionListsToolsAndPrompts(t *testing.T) {
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := newTestServer().server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{"build_graph", "code_metrics", "vertex_successors"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("tools = %v, want %v", names, want)
	}

	prompts, err := cs.ListPrompts(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(prompts.Prompts) != len(loadPrompts()) {
		t.Errorf("listed %d prompts, want %d", len(prompts.Prompts), len(loadPrompts()))
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("")
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m.Version != "0.0.0" {
		t.Errorf("version = %q, want 0.0.0", m.Version)
	}
	if m.Name != "io.github.panbanda/mondrian" {
		t.Errorf("name = %q", m.Name)
	}
	if len(m.Packages) != 1 || m.Packages[0].Transport.Type != "stdio" {
		t.Errorf("packages = %+v", m.Packages)
	}
	if m.Packages[0].Identifier != "ghcr.io/panbanda/mondrian:0.0.0" {
		t.Errorf("identifier = %q", m.Packages[0].Identifier)
	}
}
