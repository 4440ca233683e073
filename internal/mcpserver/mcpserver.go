// Package mcpserver exposes the coupling graph to LLM clients over the
// Model Context Protocol.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/mondrian/pkg/config"
)

// Server wraps the MCP server and registers the mondrian tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration used by every tool call. Without it
// each call loads the configuration found in the working directory.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger passed to the analysis layer.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP server with all mondrian tools registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "mondrian",
			Version: version,
		},
		nil,
	)

	s := &Server{
		server: server,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_graph",
		Description: describeBuildGraph(),
	}, s.handleBuildGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "code_metrics",
		Description: describeCodeMetrics(),
	}, s.handleCodeMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vertex_successors",
		Description: describeVertexSuccessors(),
	}, s.handleVertexSuccessors)
}

func (s *Server) effectiveConfig() *config.Config {
	if s.config != nil {
		return s.config
	}
	return config.LoadOrDefault()
}
