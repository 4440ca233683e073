package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("file output should never be colored")
	}
	if err := f.Output(map[string]int{"classes": 3}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), `"classes": 3`) {
		t.Errorf("file content = %s", content)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "out.txt"), false)
	if err == nil {
		t.Error("NewFormatter() should fail for an unwritable path")
	}
}

func TestFormatterGetters(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMarkdown, &buf, true)
	if f.Format() != FormatMarkdown || !f.Colored() || f.Writer() != &buf {
		t.Errorf("getters = %q, %v, %v", f.Format(), f.Colored(), f.Writer())
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() without file error: %v", err)
	}
}

func sampleTable() *Table {
	return NewTable(
		"Cardinals",
		[]string{"Kind", "Count"},
		[][]string{
			{"Class", "3"},
			{`App\Service`, "1"},
		},
		[]string{"Total", "4"},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Cardinals", "=========", "KIND", "COUNT", "Class", `App\Service`, "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTable().RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	want := "## Cardinals\n\n" +
		"| Kind | Count |\n" +
		"| --- | --- |\n" +
		"| Class | 3 |\n" +
		"| App\\\\Service | 1 |\n" +
		"| Total | 4 |\n\n"
	if buf.String() != want {
		t.Errorf("RenderMarkdown() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestTableRenderData(t *testing.T) {
	rows, ok := sampleTable().RenderData().([]map[string]string)
	if !ok || len(rows) != 2 || rows[0]["Kind"] != "Class" || rows[1]["Count"] != "1" {
		t.Errorf("RenderData() = %#v", rows)
	}

	custom := NewTable("", nil, nil, nil, map[string]int{"x": 1})
	if m, ok := custom.RenderData().(map[string]int); !ok || m["x"] != 1 {
		t.Errorf("RenderData() with Data = %#v", custom.RenderData())
	}
}

func TestReport(t *testing.T) {
	r := &Report{Title: "Stats", Sections: []Renderable{sampleTable(), sampleTable()}}

	var text bytes.Buffer
	if err := r.RenderText(&text, false); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text.String(), "Stats\n=====\n") || strings.Count(text.String(), "Cardinals") != 2 {
		t.Errorf("RenderText() =\n%s", text.String())
	}

	var md bytes.Buffer
	if err := r.RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md.String(), "# Stats\n\n## Cardinals") {
		t.Errorf("RenderMarkdown() =\n%s", md.String())
	}

	data, ok := r.RenderData().(map[string]any)
	if !ok || data["title"] != "Stats" || len(data["sections"].([]any)) != 2 {
		t.Errorf("RenderData() = %#v", r.RenderData())
	}
}

func TestFormatterOutput(t *testing.T) {
	type payload struct {
		Classes int `json:"classes" toon:"classes"`
	}

	tests := []struct {
		name   string
		format Format
		data   any
		want   []string
	}{
		{"text renderable", FormatText, sampleTable(), []string{"KIND", "Class"}},
		{"text raw", FormatText, payload{Classes: 2}, []string{`"classes": 2`}},
		{"markdown renderable", FormatMarkdown, sampleTable(), []string{"| Kind | Count |"}},
		{"markdown raw", FormatMarkdown, payload{Classes: 2}, []string{"```json", `"classes": 2`, "```"}},
		{"json renderable", FormatJSON, sampleTable(), []string{`"Kind": "Class"`}},
		{"toon raw", FormatTOON, payload{Classes: 2}, []string{"classes: 2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriterFormatter(tt.format, &buf, false).Output(tt.data); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Output() missing %q in:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestFormatterOutputJSONIsValid(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatJSON, &buf, false).Output(&Report{Title: "r", Sections: []Renderable{sampleTable()}}); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
}

func TestFormatterMessages(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)
	f.Success("wrote %d files", 2)
	f.Warning("skipped %s", "a.php")
	f.Error("failed")

	want := "wrote 2 files\nWARNING: skipped a.php\nERROR: failed\n"
	if buf.String() != want {
		t.Errorf("messages = %q, want %q", buf.String(), want)
	}
}
