package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/mondrian/pkg/export"
	"github.com/urfave/cli/v2"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"g"},
		Usage:     "Export the coupling graph",
		ArgsUsage: "[path...]",
		Description: `Builds the coupling graph of the PHP files under the given paths and writes
it in one of the export formats. svg needs Graphviz (the dot binary) on PATH.

Examples:
  mondrian graph src/ > graph.dot
  mondrian graph -f svg -o graph.svg src/
  mondrian graph -f mermaid --layout TB src/Domain
  mondrian graph --ref HEAD~5 -f json .`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Graph format: " + strings.Join(formatNames(), ", ") + " (default from config, else dot)",
			},
			&cli.StringFlag{
				Name:  "layout",
				Usage: "Layout direction for dot, svg and mermaid: LR, RL, TB, BT (default from config, else LR)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Graph a git revision instead of the working tree",
			},
			&cli.StringFlag{
				Name:  "title",
				Value: "mondrian",
				Usage: "Graph title for dot and svg",
			},
			&cli.StringFlag{
				Name:  "graphviz",
				Value: "dot",
				Usage: "Graphviz executable used for svg",
			},
		},
		Action: runGraphCmd,
	}
}

func formatNames() []string {
	formats := export.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

func runGraphCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	formatName := c.String("format")
	if formatName == "" {
		formatName = cfg.Graph.Format
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	layout := c.String("layout")
	if layout == "" {
		layout = cfg.Graph.Layout
	}

	if format == export.FormatSVG {
		if err := export.CheckGraphviz(c.Context, c.String("graphviz")); err != nil {
			return err
		}
	}

	result, err := buildGraph(c.Context, c, cfg)
	if err != nil {
		return err
	}
	if result == nil {
		color.New(color.FgYellow).Fprintln(c.App.ErrWriter, "No PHP files found")
		return nil
	}

	var w io.Writer = c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	err = export.Export(c.Context, w, result.Graph, format,
		export.WithLayout(layout),
		export.WithTitle(c.String("title")),
		export.WithGraphviz(c.String("graphviz")),
	)
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}

	if path := c.String("output"); path != "" {
		color.New(color.FgGreen).Fprintf(c.App.ErrWriter, "Graph written to %s (%d vertices, %d edges)\n",
			path, result.Graph.Order(), result.Graph.Size())
	}
	return nil
}
