package main

import (
	"fmt"

	"github.com/panbanda/mondrian/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the coupling graph
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "mondrian": {
        "command": "mondrian",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - build_graph        The full coupling graph (json, toon, dot, mermaid)
  - code_metrics       Cardinals, centrality, cycles and coupling reach
  - vertex_successors  Outgoing edges of one vertex`,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	var opts []mcpserver.Option
	if c.String("config") != "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		opts = append(opts, mcpserver.WithConfig(cfg), mcpserver.WithLogger(newLogger(c, cfg, c.App.ErrWriter)))
	}
	return mcpserver.NewServer(version, opts...).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
