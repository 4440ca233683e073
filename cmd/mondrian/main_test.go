package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/panbanda/mondrian/pkg/config"
	"github.com/panbanda/mondrian/pkg/digraph"
	"github.com/panbanda/mondrian/pkg/export"
	"github.com/urfave/cli/v2"
)

const repoSource = `<?php
namespace App;

interface Repo
{
    public function find($id);
}
`

const serviceSource = `<?php
namespace App;

class Service
{
    public function run(Repo $repo)
    {
        return $repo->find(1);
    }
}
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "src/Repo.php", repoSource)
	writeFile(t, dir, "src/Service.php", serviceSource)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"mondrian", "--no-color"}, args...))
	return stdout.String(), stderr.String(), err
}

// TestGetPaths verifies path handling from CLI arguments.
func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"no args defaults to current dir", []string{}, []string{"."}},
		{"single path", []string{"/foo/bar"}, []string{"/foo/bar"}},
		{"multiple paths", []string{"/foo", "/bar"}, []string{"/foo", "/bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result []string
			app := &cli.App{
				Action: func(c *cli.Context) error {
					result = getPaths(c)
					return nil
				},
			}
			if err := app.Run(append([]string{"test"}, tt.args...)); err != nil {
				t.Fatal(err)
			}
			if strings.Join(result, ",") != strings.Join(tt.expected, ",") {
				t.Errorf("getPaths() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	app := newApp()
	for _, name := range []string{"graph", "stats", "config", "mcp"} {
		if app.Command(name) == nil {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestGraphJSON(t *testing.T) {
	dir := writeProject(t)

	stdout, _, err := run(t, "graph", "-f", "json", dir)
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}

	var doc export.Document
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("output is not a json document: %v\n%s", err, stdout)
	}
	want := export.NodeID(digraph.Param(`App\Service::run`, 0)) + "->" + export.NodeID(digraph.Interface(`App\Repo`))
	found := false
	for _, l := range doc.Links {
		if l.From+"->"+l.To == want {
			found = l.Relation == string(digraph.RelTypedAs)
		}
	}
	if !found {
		t.Errorf("typed_as link %s missing", want)
	}
}

func TestGraphDefaultsToDot(t *testing.T) {
	stdout, _, err := run(t, "graph", "--layout", "TB", writeProject(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, `digraph "mondrian" {`) || !strings.Contains(stdout, "rankdir=TB;") {
		t.Errorf("unexpected dot output:\n%s", stdout)
	}
}

func TestGraphToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "graph.mmd")

	stdout, stderr, err := run(t, "graph", "-f", "mermaid", "-o", out, writeProject(t))
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("stdout should be empty when writing to a file, got %q", stdout)
	}
	if !strings.Contains(stderr, "Graph written to "+out) {
		t.Errorf("stderr = %q", stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "graph LR\n") {
		t.Errorf("file content = %q", data)
	}
}

func TestGraphUnknownFormat(t *testing.T) {
	_, _, err := run(t, "graph", "-f", "png", writeProject(t))
	if !errors.Is(err, export.ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestGraphSVGWithoutGraphviz(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-dot")
	_, _, err := run(t, "graph", "-f", "svg", "--graphviz", missing, writeProject(t))
	if !errors.Is(err, export.ErrGraphvizMissing) {
		t.Errorf("err = %v, want ErrGraphvizMissing", err)
	}
}

func TestGraphNoFiles(t *testing.T) {
	stdout, stderr, err := run(t, "graph", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" || !strings.Contains(stderr, "No PHP files found") {
		t.Errorf("stdout = %q, stderr = %q", stdout, stderr)
	}
}

func TestGraphRevision(t *testing.T) {
	dir := writeProject(t)
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("src"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "src/Later.php", "<?php\nclass Later {}\n")

	stdout, _, err := run(t, "graph", "-f", "json", "--ref", "HEAD", dir)
	if err != nil {
		t.Fatalf("graph --ref failed: %v", err)
	}
	if strings.Contains(stdout, "Later") {
		t.Error("uncommitted class leaked into the revision graph")
	}
	if !strings.Contains(stdout, `App\\Service`) {
		t.Errorf("committed class missing:\n%s", stdout)
	}
}

func TestStatsJSON(t *testing.T) {
	stdout, _, err := run(t, "stats", "-f", "json", "--top", "2", writeProject(t))
	if err != nil {
		t.Fatal(err)
	}

	var data struct {
		Files int `json:"files"`
		Calls struct {
			Calls int `json:"calls"`
		} `json:"calls"`
		Metrics struct {
			Cardinals struct {
				Class     int `json:"class"`
				Interface int `json:"interface"`
			} `json:"cardinals"`
			Centrality []json.RawMessage `json:"centrality"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal([]byte(stdout), &data); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, stdout)
	}
	if data.Files != 2 || data.Calls.Calls != 1 {
		t.Errorf("files = %d, calls = %d", data.Files, data.Calls.Calls)
	}
	if data.Metrics.Cardinals.Class != 1 || data.Metrics.Cardinals.Interface != 1 {
		t.Errorf("cardinals = %+v", data.Metrics.Cardinals)
	}
	if len(data.Metrics.Centrality) != 2 {
		t.Errorf("centrality has %d entries, want 2", len(data.Metrics.Centrality))
	}
}

func TestStatsText(t *testing.T) {
	stdout, _, err := run(t, "stats", writeProject(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Coupling Metrics", "Cardinals", "Centrality (PageRank)", "Call resolution"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestStatsMarkdown(t *testing.T) {
	stdout, _, err := run(t, "stats", "-f", "markdown", writeProject(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "# Coupling Metrics\n") {
		t.Errorf("markdown output = %q", stdout)
	}
	if !strings.Contains(stdout, `App\\Service`) {
		t.Error("markdown should escape namespace separators")
	}
}

func TestConfigShow(t *testing.T) {
	stdout, _, err := run(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "[graph]") || !strings.Contains(stdout, `layout = "LR"`) {
		t.Errorf("toml output:\n%s", stdout)
	}

	stdout, _, err = run(t, "config", "show", "--yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "graph:") || !strings.Contains(stdout, "layout: LR") {
		t.Errorf("yaml output:\n%s", stdout)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "mondrian.toml")
	writeFile(t, dir, "mondrian.toml", "[calling.\"App\\\\Service::run\"]\nignore = [\"App\\\\Repo::find\"]\n")
	invalid := filepath.Join(dir, "bad.toml")
	writeFile(t, dir, "bad.toml", "[graph]\nlayout = \"diagonal\"\n")

	stdout, _, err := run(t, "-c", valid, "config", "validate")
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if !strings.Contains(stdout, "Configuration valid: "+valid) {
		t.Errorf("stdout = %q", stdout)
	}

	_, stderr, err := run(t, "-c", invalid, "config", "validate")
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(stderr, "Configuration validation failed") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestConfigExclusionsApplyToGraph(t *testing.T) {
	dir := writeProject(t)
	cfgPath := filepath.Join(t.TempDir(), "mondrian.toml")
	if err := os.WriteFile(cfgPath, []byte("[calling.\"App\\\\Service::run\"]\nignore = [\"App\\\\Repo::find\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, "-c", cfgPath, "stats", "-f", "json", dir)
	if err != nil {
		t.Fatal(err)
	}
	var data struct {
		Calls struct {
			Excluded int `json:"excluded_calls"`
		} `json:"calls"`
	}
	if err := json.Unmarshal([]byte(stdout), &data); err != nil {
		t.Fatal(err)
	}
	if data.Calls.Excluded != 1 {
		t.Errorf("excluded_calls = %d, want 1", data.Calls.Excluded)
	}
}

func TestStatsWarnsOnSkippedFiles(t *testing.T) {
	dir := writeProject(t)
	cfgPath := filepath.Join(t.TempDir(), "mondrian.toml")
	if err := os.WriteFile(cfgPath, []byte("[analysis]\nmax_file_size = 100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := run(t, "-c", cfgPath, "stats", "-f", "json", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "WARNING: Skipped 1 files larger than 100 bytes") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestMCPManifest(t *testing.T) {
	stdout, _, err := run(t, "mcp", "manifest")
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(stdout), &m); err != nil {
		t.Fatalf("manifest is not json: %v", err)
	}
	if m["name"] != "io.github.panbanda/mondrian" {
		t.Errorf("name = %v", m["name"])
	}
}
