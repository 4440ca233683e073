package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/mondrian/internal/output"
	"github.com/panbanda/mondrian/internal/service/analysis"
	"github.com/panbanda/mondrian/pkg/analyzer/metrics"
	"github.com/panbanda/mondrian/pkg/digraph"
	"github.com/panbanda/mondrian/pkg/grapher"
	"github.com/urfave/cli/v2"
)

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Aliases:   []string{"metrics"},
		Usage:     "Summarize the coupling graph as code metrics",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon (default from config, else text)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: metrics.DefaultTop,
				Usage: "Number of vertices listed by centrality and reach",
			},
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Analyze a git revision instead of the working tree",
			},
		},
		Action: runStatsCmd,
	}
}

// statsData is the serialized form of the stats command.
type statsData struct {
	Files   int             `json:"files" toon:"files"`
	Partial []string        `json:"partial,omitempty" toon:"partial,omitempty"`
	Calls   grapher.Stats   `json:"calls" toon:"calls"`
	Metrics *metrics.Report `json:"metrics" toon:"metrics"`
}

func runStatsCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	formatName := c.String("format")
	if formatName == "" {
		formatName = cfg.Output.Format
	}

	result, err := buildGraph(c.Context, c, cfg)
	if err != nil {
		return err
	}
	if result == nil {
		color.New(color.FgYellow).Fprintln(c.App.ErrWriter, "No PHP files found")
		return nil
	}

	top := c.Int("top")
	report := analysis.New(analysis.WithConfig(cfg)).Metrics(result, top)

	var formatter *output.Formatter
	if path := c.String("output"); path != "" {
		formatter, err = output.NewFormatter(output.ParseFormat(formatName), path, false)
		if err != nil {
			return err
		}
	} else {
		formatter = output.NewWriterFormatter(output.ParseFormat(formatName), c.App.Writer, useColor(c, cfg, c.App.Writer))
	}
	defer formatter.Close()

	return formatter.Output(statsReport(result, report, top))
}

// statsReport lays a metrics report out as tables.
func statsReport(result *analysis.GraphResult, report *metrics.Report, top int) *output.Report {
	card := report.Cardinals
	cardinals := output.NewTable("Cardinals",
		[]string{"Kind", "Vertices"},
		[][]string{
			{"Class", itoa(card.Class)},
			{"Interface", itoa(card.Interface)},
			{"Trait", itoa(card.Trait)},
			{"Method", itoa(card.Method)},
			{"Impl", itoa(card.Impl)},
			{"Param", itoa(card.Param)},
		},
		[]string{
			fmt.Sprintf("Files: %d", len(result.Files)),
			fmt.Sprintf("Vertices: %d, Edges: %d", result.Graph.Order(), result.Graph.Size()),
		},
		card,
	)

	decl := card.MethodDeclaration
	declarations := output.NewTable("Method declarations",
		[]string{"Declared in", "Methods"},
		[][]string{
			{"Class", itoa(decl.Class)},
			{"Interface", itoa(decl.Interface)},
			{"Trait", itoa(decl.Trait)},
		},
		nil,
		decl,
	)

	var centralityRows [][]string
	for i, r := range report.Centrality {
		centralityRows = append(centralityRows, []string{
			itoa(i + 1), r.Vertex.Kind.String(), r.Vertex.Name, fmt.Sprintf("%.4f", r.Score),
		})
	}
	centrality := output.NewTable("Centrality (PageRank)",
		[]string{"#", "Kind", "Vertex", "Score"},
		centralityRows, nil, report.Centrality)

	reach := report.Reach
	if top > 0 && len(reach) > top {
		reach = reach[:top]
	}
	var reachRows [][]string
	for _, r := range reach {
		reachRows = append(reachRows, []string{r.Class, itoa(r.Types)})
	}
	reachTable := output.NewTable("Coupling reach",
		[]string{"Class", "Types reached"},
		reachRows, nil, report.Reach)

	var cycleRows [][]string
	for _, cycle := range report.HierarchyCycles {
		cycleRows = append(cycleRows, []string{"hierarchy", joinVertices(cycle)})
	}
	for _, cycle := range report.CallCycles {
		cycleRows = append(cycleRows, []string{"call", joinVertices(cycle)})
	}
	cycles := output.NewTable("Cycles",
		[]string{"Kind", "Members"},
		cycleRows,
		[]string{fmt.Sprintf("Hierarchy: %d", len(report.HierarchyCycles)), fmt.Sprintf("Call: %d", len(report.CallCycles))},
		map[string]any{"hierarchy": report.HierarchyCycles, "call": report.CallCycles})

	st := result.Stats
	calls := output.NewTable("Call resolution",
		[]string{"Outcome", "Count"},
		[][]string{
			{"Calls", itoa(st.Calls)},
			{"Self calls filtered", itoa(st.SelfCalls)},
			{"Excluded by config", itoa(st.ExcludedCalls)},
			{"Unknown receiver (fan-out)", itoa(st.FallbackCalls)},
			{"No target vertex", itoa(st.DanglingCalls)},
			{"Instantiations", itoa(st.Instantiations)},
			{"Unknown instantiations", itoa(st.UnknownNews)},
		},
		nil, st)

	return &output.Report{
		Title:    "Coupling Metrics",
		Sections: []output.Renderable{cardinals, declarations, centrality, reachTable, cycles, calls},
		Data: statsData{
			Files:   len(result.Files),
			Partial: result.Partial,
			Calls:   st,
			Metrics: report,
		},
	}
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

func joinVertices(vs []digraph.Vertex) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name
	}
	return strings.Join(names, " -> ")
}
